package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"gorm.io/gorm"

	"papercv/internal/api/middleware"
	"papercv/internal/config"
	"papercv/internal/database"
)

// assetStorage 抽象对象存储操作，便于测试替换。
type assetStorage interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
	DeleteObject(ctx context.Context, objectKey string) error
}

// AssetHandler 负责处理头像等图片资源的上传与访问。
type AssetHandler struct {
	store            assetStore
	Storage          assetStorage
	Logger           *slog.Logger
	RedisClient      redisRateCounter
	ClamdAddr        string
	MaxBytes         int64
	MIMEWhitelist    []string
	maxAssetsPerUser int
	maxUploadsPerDay int
}

// NewAssetHandler 返回 AssetHandler 实例。
func NewAssetHandler(db *gorm.DB, storageClient assetStorage, redisClient redisRateCounter, logger *slog.Logger, cfg config.AssetsConfig) *AssetHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssetHandler{
		store:            newGormAssetStore(db),
		Storage:          storageClient,
		Logger:           logger,
		RedisClient:      redisClient,
		ClamdAddr:        cfg.ClamdAddr,
		MaxBytes:         cfg.MaxUploadBytes,
		MIMEWhitelist:    []string{"image/png", "image/jpeg", "image/webp"},
		maxAssetsPerUser: cfg.MaxPerClient,
		maxUploadsPerDay: cfg.MaxUploadsPerDay,
	}
}

func (h *AssetHandler) log() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// UploadAsset 处理图片上传：大小与类型白名单检查、病毒扫描、频控，最后落对象存储。
func (h *AssetHandler) UploadAsset(c *gin.Context) {
	clientID, ok := middleware.GetClientID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}

	if h.MaxBytes > 0 && file.Size > h.MaxBytes {
		BadRequest(c, "file too large")
		return
	}

	ctx := c.Request.Context()

	count, err := h.store.CountByClient(ctx, clientID)
	if err != nil {
		h.log().Error("count assets", slog.Any("error", err))
		Internal(c, "failed to check asset quota")
		return
	}
	if h.maxAssetsPerUser > 0 && count >= int64(h.maxAssetsPerUser) {
		Forbidden(c, "asset limit reached")
		return
	}

	if h.RedisClient != nil && h.maxUploadsPerDay > 0 {
		key := fmt.Sprintf("asset_upload:%s:%s", clientID, time.Now().UTC().Format("2006-01-02"))
		uploads, err := incrWithTTL(ctx, h.RedisClient, key, 24*time.Hour)
		if err != nil {
			h.log().Warn("asset upload rate counter failed", slog.Any("error", err))
		} else if uploads > int64(h.maxUploadsPerDay) {
			Error(c, http.StatusTooManyRequests, "daily upload limit reached")
			return
		}
	}

	fileReader, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return
	}

	head := make([]byte, 512)
	n, _ := io.ReadFull(fileReader, head)
	contentType := http.DetectContentType(head[:n])
	fileReader.Close()

	if !h.mimeAllowed(contentType) {
		BadRequest(c, "unsupported file type")
		return
	}

	if strings.TrimSpace(h.ClamdAddr) != "" {
		if err := h.scanFile(file); err != nil {
			if errors.Is(err, errMaliciousFile) {
				BadRequest(c, "malicious file detected")
				return
			}
			h.log().Error("scan file", slog.Any("error", err))
			Internal(c, "failed to scan file")
			return
		}
	}

	fileReader, err = file.Open()
	if err != nil {
		Internal(c, "failed to reopen file")
		return
	}
	defer fileReader.Close()

	objectKey := fmt.Sprintf("assets/%s/%s%s", clientID, uuid.NewString(), extensionForMIME(contentType))
	if _, err := h.Storage.UploadFile(ctx, objectKey, fileReader, file.Size, contentType); err != nil {
		h.log().Error("upload file", slog.Any("error", err))
		Internal(c, "failed to upload file")
		return
	}

	asset := database.Asset{
		ClientID:  clientID,
		ObjectKey: objectKey,
		Size:      file.Size,
		MimeType:  contentType,
	}
	if err := h.store.Create(ctx, asset); err != nil {
		h.log().Error("record asset", slog.Any("error", err))
		if delErr := h.Storage.DeleteObject(ctx, objectKey); delErr != nil {
			h.log().Error("rollback uploaded object", slog.Any("error", delErr))
		}
		Internal(c, "failed to record asset")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"objectKey": objectKey})
}

var errMaliciousFile = errors.New("malicious file detected")

func (h *AssetHandler) scanFile(file *multipart.FileHeader) error {
	fileReader, err := file.Open()
	if err != nil {
		return fmt.Errorf("open file for scan: %w", err)
	}

	clamdClient := clamd.NewClamd(h.ClamdAddr)
	abortChan := make(chan bool)
	scanChan, err := clamdClient.ScanStream(fileReader, abortChan)
	fileReader.Close()
	if err != nil {
		return fmt.Errorf("scan stream: %w", err)
	}
	defer close(abortChan)

	for result := range scanChan {
		if result.Status != clamd.RES_OK {
			return errMaliciousFile
		}
	}
	return nil
}

func (h *AssetHandler) mimeAllowed(contentType string) bool {
	for _, allowed := range h.MIMEWhitelist {
		if strings.EqualFold(contentType, allowed) {
			return true
		}
	}
	return false
}

func extensionForMIME(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

// ListAssets 列出客户端上传的资源，附带临时预览链接。
func (h *AssetHandler) ListAssets(c *gin.Context) {
	clientID, ok := middleware.GetClientID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	limitStr := c.DefaultQuery("limit", "60")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = 60
	}
	if limit > 200 {
		limit = 200
	}

	ctx := c.Request.Context()
	assets, err := h.store.ListByClient(ctx, clientID, limit)
	if err != nil {
		h.log().Error("list assets", slog.Any("error", err))
		Internal(c, "failed to list assets")
		return
	}

	items := make([]gin.H, 0, len(assets))
	for _, asset := range assets {
		url, err := h.Storage.GeneratePresignedURL(ctx, asset.ObjectKey, 10*time.Minute)
		if err != nil {
			h.log().Error("generate asset url", slog.String("objectKey", asset.ObjectKey), slog.Any("error", err))
			continue
		}
		items = append(items, gin.H{
			"objectKey":  asset.ObjectKey,
			"previewUrl": url,
			"size":       asset.Size,
			"createdAt":  asset.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetAssetURL 返回资源的临时预签名 URL。
func (h *AssetHandler) GetAssetURL(c *gin.Context) {
	clientID, ok := middleware.GetClientID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	objectKey := c.Query("key")
	if !isValidClientAssetObjectKey(clientID, objectKey) {
		Forbidden(c, "access denied")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.store.FindByKey(ctx, clientID, objectKey); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "asset not found")
			return
		}
		Internal(c, "failed to query asset")
		return
	}

	signedURL, err := h.Storage.GeneratePresignedURL(ctx, objectKey, 15*time.Minute)
	if err != nil {
		h.log().Error("generate presigned url", slog.Any("error", err))
		Internal(c, "failed to generate url")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": signedURL})
}

// DeleteAsset 删除资源及其元数据。
func (h *AssetHandler) DeleteAsset(c *gin.Context) {
	clientID, ok := middleware.GetClientID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	objectKey := c.Query("key")
	if !isValidClientAssetObjectKey(clientID, objectKey) {
		Forbidden(c, "access denied")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.store.FindByKey(ctx, clientID, objectKey); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "asset not found")
			return
		}
		Internal(c, "failed to query asset")
		return
	}

	if err := h.Storage.DeleteObject(ctx, objectKey); err != nil {
		h.log().Error("delete object", slog.Any("error", err))
		Internal(c, "failed to delete asset")
		return
	}
	if err := h.store.Delete(ctx, clientID, objectKey); err != nil {
		h.log().Error("delete asset record", slog.Any("error", err))
		Internal(c, "failed to delete asset record")
		return
	}

	c.Status(http.StatusNoContent)
}
