package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeExportPDF = "export:pdf"
)

// NotifyChannel 返回导出进度通知使用的 Redis 频道名。
// Worker 发布与 API 的 WebSocket 订阅都以此为准。
func NotifyChannel(clientID string) string {
	return fmt.Sprintf("export_notify:%s", clientID)
}

// ExportPDFPayload 描述一次 PDF 导出任务所需的最小信息。
type ExportPDFPayload struct {
	JobID         uint   `json:"job_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewExportPDFTask 构造一个新的 PDF 导出任务。
func NewExportPDFTask(jobID uint, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ExportPDFPayload{
		JobID:         jobID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeExportPDF, payload), nil
}
