package api

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"papercv/internal/errcode"
	"papercv/internal/resume"
	"papercv/internal/storage"
)

// PayloadWarning 描述构造导出负载时被跳过的资源。
type PayloadWarning struct {
	Code        int      `json:"code"`
	Message     string   `json:"message"`
	MissingKeys []string `json:"missing_keys,omitempty"`
}

// ExportPayloadData 是 Worker 从内部接口拉取的导出数据。
type ExportPayloadData struct {
	TemplateID string           `json:"template_id"`
	ResumeData resume.Resume    `json:"resume_data"`
	Warnings   []PayloadWarning `json:"warnings,omitempty"`
}

// buildExportPayloadData 把任务里的简历快照构造成可独立渲染的导出数据：
// 头像对象内联成 data URI，脱离对象存储也能在沙盒中显示。
// 约定：
// - 对象不存在(NoSuchKey)或 key 非法 => 移除头像引用，记录 warning(4004)
// - Bucket 不存在(NoSuchBucket) => 视为系统错误，直接返回 error
func buildExportPayloadData(ctx context.Context, storageClient *storage.Client, clientID string, templateID string, r resume.Resume) (ExportPayloadData, error) {
	data := ExportPayloadData{TemplateID: templateID, ResumeData: r}

	photoKey := strings.TrimSpace(r.PersonalInfo.PhotoKey)
	if photoKey == "" {
		return data, nil
	}

	dropPhoto := func(reason string) {
		data.ResumeData.PersonalInfo.PhotoKey = ""
		data.Warnings = append(data.Warnings, PayloadWarning{
			Code:        errcode.ResourceMissing,
			Message:     reason,
			MissingKeys: []string{photoKey},
		})
	}

	if !isValidClientAssetObjectKey(clientID, photoKey) {
		dropPhoto("头像资源 key 格式不合法，已跳过并继续导出")
		return data, nil
	}

	obj, err := storageClient.GetObject(ctx, photoKey)
	if err != nil {
		if storage.IsNoSuchBucket(err) {
			return ExportPayloadData{}, fmt.Errorf("minio bucket does not exist: %w", err)
		}
		if storage.IsNoSuchKey(err) {
			dropPhoto("头像资源不存在，已跳过并继续导出")
			return data, nil
		}
		return ExportPayloadData{}, fmt.Errorf("failed to fetch photo: %w", err)
	}
	defer func() {
		_ = obj.Close()
	}()

	contentType := "image/png"
	if stat, statErr := obj.Stat(); statErr == nil {
		if strings.TrimSpace(stat.ContentType) != "" {
			contentType = stat.ContentType
		}
	} else {
		if storage.IsNoSuchBucket(statErr) {
			return ExportPayloadData{}, fmt.Errorf("minio bucket does not exist: %w", statErr)
		}
		if storage.IsNoSuchKey(statErr) {
			dropPhoto("头像资源不存在，已跳过并继续导出")
			return data, nil
		}
		return ExportPayloadData{}, fmt.Errorf("failed to stat photo: %w", statErr)
	}

	imageBytes, readErr := io.ReadAll(obj)
	if readErr != nil {
		if storage.IsNoSuchKey(readErr) {
			dropPhoto("头像资源不存在，已跳过并继续导出")
			return data, nil
		}
		return ExportPayloadData{}, fmt.Errorf("failed to read photo: %w", readErr)
	}

	encoded := base64.StdEncoding.EncodeToString(imageBytes)
	data.ResumeData.PersonalInfo.PhotoKey = fmt.Sprintf("data:%s;base64,%s", contentType, encoded)
	return data, nil
}
