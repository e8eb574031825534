package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"papercv/internal/api/middleware"
	"papercv/internal/database"
	"papercv/internal/render"
	"papercv/internal/resume"
	"papercv/internal/storage"
	"papercv/internal/tasks"
)

// taskEnqueuer 抽象任务入队，便于测试替换 asynq.Client。
type taskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ExportHandler 负责导出任务的创建、查询与下载。
type ExportHandler struct {
	db       *gorm.DB
	enqueuer taskEnqueuer
	storage  *storage.Client
	registry *render.Registry
}

// NewExportHandler 构造 ExportHandler。
func NewExportHandler(db *gorm.DB, enqueuer taskEnqueuer, storageClient *storage.Client, registry *render.Registry) *ExportHandler {
	return &ExportHandler{
		db:       db,
		enqueuer: enqueuer,
		storage:  storageClient,
		registry: registry,
	}
}

type createExportRequest struct {
	Content    datatypes.JSON `json:"content" binding:"required"`
	TemplateID string         `json:"templateId"`
}

type exportJobResponse struct {
	Key          string    `json:"key"`
	Status       string    `json:"status"`
	TemplateID   string    `json:"templateId"`
	ErrorCode    int       `json:"errorCode"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func newExportJobResponse(job database.ExportJob) exportJobResponse {
	return exportJobResponse{
		Key:          job.Key,
		Status:       job.Status,
		TemplateID:   job.TemplateID,
		ErrorCode:    job.ErrorCode,
		ErrorMessage: job.ErrorMessage,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
	}
}

// CreateExport 接收简历快照，入队 PDF 导出任务并立即返回 202。
func (h *ExportHandler) CreateExport(c *gin.Context) {
	var req createExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	clientID, ok := middleware.GetClientID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	// 入库前统一过一遍规范化，任务消费侧拿到的快照保证可渲染。
	sanitized := resume.Sanitize(req.Content)
	templateID := req.TemplateID
	if templateID == "" {
		templateID = sanitized.Settings.Template
	}
	templateID = h.registry.Resolve(templateID).ID()

	snapshot, err := json.Marshal(sanitized)
	if err != nil {
		Internal(c, "failed to encode resume snapshot")
		return
	}

	correlationID := middleware.GetCorrelationID(c)
	job := database.ExportJob{
		Key:           uuid.NewString(),
		ClientID:      clientID,
		TemplateID:    templateID,
		Content:       datatypes.JSON(snapshot),
		Status:        database.JobStatusQueued,
		CorrelationID: correlationID,
	}

	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Create(&job).Error; err != nil {
		Internal(c, "failed to create export job")
		return
	}

	task, err := tasks.NewExportPDFTask(job.ID, correlationID)
	if err != nil {
		Internal(c, "failed to create task")
		return
	}

	info, err := h.enqueuer.Enqueue(task, asynq.MaxRetry(5))
	if err != nil {
		Internal(c, "failed to enqueue export")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"key":     job.Key,
		"status":  job.Status,
		"task_id": info.ID,
	})
}

// GetExport 返回导出任务的当前状态。
func (h *ExportHandler) GetExport(c *gin.Context) {
	clientID, ok := middleware.GetClientID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	job, err := h.findJobForClient(c, c.Param("key"), clientID)
	if err != nil {
		return
	}

	c.JSON(http.StatusOK, newExportJobResponse(*job))
}

// GetDownloadLink 为已完成的导出签发限时下载链接。
func (h *ExportHandler) GetDownloadLink(c *gin.Context) {
	clientID, ok := middleware.GetClientID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	job, err := h.findJobForClient(c, c.Param("key"), clientID)
	if err != nil {
		return
	}

	if job.Status != database.JobStatusCompleted || job.PdfKey == "" {
		Conflict(c, "pdf not ready")
		return
	}

	ctx := c.Request.Context()
	params := map[string]string{
		"response-content-disposition": `attachment; filename="resume.pdf"`,
	}
	pdfURL, err := h.storage.GeneratePresignedURLWithParams(ctx, job.PdfKey, 5*time.Minute, params)
	if err != nil {
		Internal(c, "failed to generate download link")
		return
	}

	resp := gin.H{"url": pdfURL}
	if job.PreviewKey != "" {
		if previewURL, err := h.storage.GeneratePresignedURL(ctx, job.PreviewKey, 5*time.Minute); err == nil {
			resp["previewUrl"] = previewURL
		}
	}

	c.JSON(http.StatusOK, resp)
}

// GetExportPayload 返回 Worker 渲染导出所需的数据，头像内联为 data URI。
// 仅限内部调用（X-Internal-Secret）。
func (h *ExportHandler) GetExportPayload(c *gin.Context) {
	jobID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid job id")
		return
	}

	ctx := c.Request.Context()
	var job database.ExportJob
	if err := h.db.WithContext(ctx).First(&job, uint(jobID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "export job not found")
			return
		}
		Internal(c, "failed to load export job")
		return
	}

	sanitized := resume.Sanitize(job.Content)

	data, err := buildExportPayloadData(ctx, h.storage, job.ClientID, job.TemplateID, sanitized)
	if err != nil {
		Internal(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, data)
}

func (h *ExportHandler) findJobForClient(c *gin.Context, key string, clientID string) (*database.ExportJob, error) {
	if key == "" {
		BadRequest(c, "missing job key")
		return nil, errors.New("missing job key")
	}

	var job database.ExportJob
	err := h.db.WithContext(c.Request.Context()).
		Where("key = ? AND client_id = ?", key, clientID).
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "export job not found")
		} else {
			Internal(c, "failed to query export job")
		}
		return nil, err
	}
	return &job, nil
}
