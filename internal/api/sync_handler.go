package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"papercv/internal/database"
	"papercv/internal/resume"
)

// SyncHandler 实现跨设备同步链接：上传一份简历快照换取短期有效的取回 key。
// 记录的事实来源始终在客户端本地，服务端只保存限时快照。
type SyncHandler struct {
	db  *gorm.DB
	ttl time.Duration
}

// NewSyncHandler 构造 SyncHandler。
func NewSyncHandler(db *gorm.DB, ttl time.Duration) *SyncHandler {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &SyncHandler{db: db, ttl: ttl}
}

type createSyncRequest struct {
	Content datatypes.JSON `json:"content" binding:"required"`
}

// CreateLink 保存快照并返回取回 key。
func (h *SyncHandler) CreateLink(c *gin.Context) {
	var req createSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	sanitized := resume.Sanitize(req.Content)
	snapshot, err := json.Marshal(sanitized)
	if err != nil {
		Internal(c, "failed to encode resume snapshot")
		return
	}

	link := database.SyncLink{
		Key:       uuid.NewString(),
		Content:   datatypes.JSON(snapshot),
		ExpiresAt: time.Now().Add(h.ttl),
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&link).Error; err != nil {
		Internal(c, "failed to create sync link")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"key":       link.Key,
		"expiresAt": link.ExpiresAt,
	})
}

// GetLink 取回快照。过期链接返回 410，取回不删除，链接在有效期内可多次使用。
func (h *SyncHandler) GetLink(c *gin.Context) {
	key := c.Param("key")
	if key == "" {
		BadRequest(c, "missing sync key")
		return
	}

	var link database.SyncLink
	err := h.db.WithContext(c.Request.Context()).
		Where("key = ?", key).
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "sync link not found")
			return
		}
		Internal(c, "failed to query sync link")
		return
	}

	if time.Now().After(link.ExpiresAt) {
		Error(c, http.StatusGone, "sync link expired")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"content":   link.Content,
		"expiresAt": link.ExpiresAt,
	})
}
