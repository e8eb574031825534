package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"papercv/internal/database"
	"papercv/internal/errcode"
	"papercv/internal/export"
	"papercv/internal/resume"
	"papercv/internal/storage"
	"papercv/internal/tasks"
)

// ExportTaskHandler 负责消费 PDF 导出任务。
type ExportTaskHandler struct {
	db                 *gorm.DB
	storage            *storage.Client
	redisClient        *redis.Client
	logger             *slog.Logger
	renderer           export.Renderer
	styleSrc           export.StyleSource
	engine             export.Engine
	internalSecret     string
	internalAPIBaseURL string
	publicBaseURL      string
}

// NewExportTaskHandler 创建任务处理器。
func NewExportTaskHandler(
	db *gorm.DB,
	storageClient *storage.Client,
	redisClient *redis.Client,
	logger *slog.Logger,
	renderer export.Renderer,
	styleSrc export.StyleSource,
	engine export.Engine,
	internalSecret string,
	internalAPIBaseURL string,
	publicBaseURL string,
) *ExportTaskHandler {
	return &ExportTaskHandler{
		db:                 db,
		storage:            storageClient,
		redisClient:        redisClient,
		logger:             logger,
		renderer:           renderer,
		styleSrc:           styleSrc,
		engine:             engine,
		internalSecret:     internalSecret,
		internalAPIBaseURL: strings.TrimRight(strings.TrimSpace(internalAPIBaseURL), "/"),
		publicBaseURL:      strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
	}
}

// payloadData 对应内部接口返回的导出数据。
type payloadData struct {
	TemplateID string        `json:"template_id"`
	ResumeData resume.Resume `json:"resume_data"`
	Warnings   []struct {
		Code        int      `json:"code"`
		Message     string   `json:"message"`
		MissingKeys []string `json:"missing_keys"`
	} `json:"warnings"`
}

func extractResourceMissingWarning(p payloadData) (missingKeys []string, hasWarning bool) {
	uniq := make(map[string]struct{})
	var result []string
	for _, w := range p.Warnings {
		if w.Code != errcode.ResourceMissing {
			continue
		}
		hasWarning = true
		for _, k := range w.MissingKeys {
			key := strings.TrimSpace(k)
			if key == "" {
				continue
			}
			if _, ok := uniq[key]; ok {
				continue
			}
			uniq[key] = struct{}{}
			result = append(result, key)
		}
	}
	return result, hasWarning
}

// jobStatusForState 把导出状态机的阶段映射为任务记录的状态。
func jobStatusForState(s export.State) (string, bool) {
	switch s {
	case export.StateCollecting:
		return database.JobStatusCollecting, true
	case export.StateRendering:
		return database.JobStatusRendering, true
	default:
		return "", false
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *ExportTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.ExportPDFPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Int("job_id", int(payload.JobID)),
	)
	log.Info("Starting PDF export task...")

	var job database.ExportJob
	if err := h.db.WithContext(ctx).First(&job, payload.JobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("export job not found, skipping task")
			return nil
		}
		log.Error("query export job failed", slog.Any("error", err))
		return err
	}

	log = log.With(slog.String("client_id", job.ClientID), slog.String("job_key", job.Key))

	defer func() {
		if retErr == nil {
			return
		}
		if !isFinalAsynqAttempt(ctx) {
			return
		}

		code := errcode.SystemError
		if errors.Is(retErr, export.ErrDataChannelTimeout) {
			code = errcode.ExportTimeout
		}
		message := strings.TrimSpace(retErr.Error())

		if err := h.db.WithContext(ctx).Model(&job).Updates(map[string]any{
			"status":        database.JobStatusFailed,
			"error_code":    code,
			"error_message": message,
		}).Error; err != nil {
			log.Error("mark export job failed", slog.Any("error", err))
		}

		notify := ExportNotifyMessage{
			Status:        "error",
			JobKey:        job.Key,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     code,
			ErrorMessage:  message,
		}
		if err := h.publishExportNotify(ctx, job.ClientID, notify); err != nil {
			log.Error("publish export error notification failed", slog.Any("error", err))
		}
	}()

	raw, err := fetchExportPayload(ctx, h.internalAPIBaseURL, job.ID, h.internalSecret, payload.CorrelationID)
	if err != nil {
		log.Error("fetch export payload failed", slog.Any("error", err))
		return err
	}

	var data payloadData
	if err := json.Unmarshal(raw, &data); err != nil {
		log.Error("decode export payload failed", slog.Any("error", err))
		return err
	}
	missingKeys, resourceMissing := extractResourceMissingWarning(data)

	orchestrator := export.NewOrchestrator(h.renderer, h.styleSrc, h.engine, h.publicBaseURL, log)
	orchestrator.OnState = func(s export.State) {
		status, ok := jobStatusForState(s)
		if !ok {
			return
		}
		if err := h.db.WithContext(ctx).Model(&job).Update("status", status).Error; err != nil {
			log.Warn("update export job status failed",
				slog.String("status", status),
				slog.Any("error", err),
			)
		}
	}

	artifact, err := orchestrator.Export(ctx, data.ResumeData, data.TemplateID)
	if err != nil {
		log.Error("export pipeline failed", slog.Any("error", err))
		return err
	}

	pdfKey := fmt.Sprintf("exports/%s/%s.pdf", job.ClientID, job.Key)
	if _, err := h.storage.UploadFile(ctx, pdfKey, bytes.NewReader(artifact.PDF), int64(len(artifact.PDF)), "application/pdf"); err != nil {
		log.Error("upload pdf to minio failed", slog.Any("error", err))
		return err
	}

	previewKey := ""
	if len(artifact.PreviewJPEG) > 0 {
		previewKey = fmt.Sprintf("exports/%s/%s-preview.jpg", job.ClientID, job.Key)
		if _, err := h.storage.UploadFile(ctx, previewKey, bytes.NewReader(artifact.PreviewJPEG), int64(len(artifact.PreviewJPEG)), "image/jpeg"); err != nil {
			log.Warn("upload preview to minio failed", slog.Any("error", err))
			previewKey = ""
		}
	}

	update := map[string]any{
		"status":        database.JobStatusCompleted,
		"pdf_key":       pdfKey,
		"preview_key":   previewKey,
		"error_code":    errcode.OK,
		"error_message": "",
	}
	notify := ExportNotifyMessage{
		Status:        "completed",
		JobKey:        job.Key,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
	}
	if resourceMissing {
		update["error_code"] = errcode.ResourceMissing
		update["error_message"] = "部分图片资源缺失/无效，已自动跳过并继续生成"
		notify.ErrorCode = errcode.ResourceMissing
		notify.ErrorMessage = "部分图片资源缺失/无效，已自动跳过并继续生成"
		notify.MissingKeys = missingKeys
		log.Warn("pdf exported with missing assets",
			slog.Int("missing_count", len(missingKeys)),
			slog.Any("missing_keys", missingKeys),
		)
	}
	if err := h.db.WithContext(ctx).Model(&job).Updates(update).Error; err != nil {
		log.Error("update export job failed", slog.Any("error", err))
		return err
	}

	if err := h.publishExportNotify(ctx, job.ClientID, notify); err != nil {
		log.Error("publish redis notification failed", slog.Any("error", err))
		return err
	}

	log.Info("PDF export task completed successfully.")
	return nil
}

func (h *ExportTaskHandler) publishExportNotify(ctx context.Context, clientID string, notify ExportNotifyMessage) error {
	data, err := json.Marshal(notify)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := tasks.NotifyChannel(clientID)
	if err := h.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
