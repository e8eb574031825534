package database

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 导出任务的生命周期状态。
const (
	JobStatusQueued     = "queued"
	JobStatusCollecting = "collecting"
	JobStatusRendering  = "rendering"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// ExportJob 记录一次 PDF 导出请求的全过程。
// 简历内容以提交时的快照存档，后续编辑不影响已入队的任务。
type ExportJob struct {
	gorm.Model
	Key           string         `gorm:"uniqueIndex;size:64"`
	ClientID      string         `gorm:"index;size:64"`
	TemplateID    string         `gorm:"size:32"`
	Content       datatypes.JSON `gorm:"type:jsonb"`
	Status        string         `gorm:"size:32;index"`
	PdfKey        string         `gorm:"size:512"`
	PreviewKey    string         `gorm:"size:512"`
	ErrorCode     int
	ErrorMessage  string `gorm:"size:1024"`
	CorrelationID string `gorm:"size:64"`
}

// SyncLink 是跨设备同步链接：一份简历快照加上一个可分享的短 key。
// 过期后由 admin 清理任务删除。
type SyncLink struct {
	gorm.Model
	Key       string         `gorm:"uniqueIndex;size:64"`
	Content   datatypes.JSON `gorm:"type:jsonb"`
	ExpiresAt time.Time      `gorm:"index"`
}

// Asset 记录客户端上传的图片资源与其对象存储位置。
type Asset struct {
	gorm.Model
	ClientID  string `gorm:"index;size:64"`
	ObjectKey string `gorm:"uniqueIndex;size:512"`
	Size      int64
	MimeType  string `gorm:"size:128"`
}
