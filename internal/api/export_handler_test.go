package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"gorm.io/datatypes"

	"papercv/internal/database"
	"papercv/internal/render"
	"papercv/internal/resume"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "test-task"}, nil
}

func newExportTestHandler(t *testing.T) (*ExportHandler, *fakeEnqueuer) {
	t.Helper()
	db := newTestDB(t, &database.ExportJob{})
	enqueuer := &fakeEnqueuer{}
	return NewExportHandler(db, enqueuer, nil, render.NewRegistry()), enqueuer
}

func TestCreateExportEnqueuesJob(t *testing.T) {
	handler, enqueuer := newExportTestHandler(t)

	body := map[string]any{
		"content": map[string]any{
			"personalInfo": map[string]any{"fullName": "Jane Doe"},
		},
		"templateId": "modern",
	}
	c, w := newJSONContext(t, http.MethodPost, "/v1/exports", body)
	c.Set("clientID", "client-export-1")

	handler.CreateExport(c)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	if len(enqueuer.tasks) != 1 {
		t.Fatalf("expected 1 enqueued task, got %d", len(enqueuer.tasks))
	}

	resp := decodeJSONBody(t, w)
	key, _ := resp["key"].(string)
	if key == "" {
		t.Fatal("expected non-empty job key in response")
	}
	if resp["status"] != database.JobStatusQueued {
		t.Fatalf("expected status %q, got %v", database.JobStatusQueued, resp["status"])
	}

	var job database.ExportJob
	if err := handler.db.Where("key = ?", key).First(&job).Error; err != nil {
		t.Fatalf("load created job: %v", err)
	}
	if job.ClientID != "client-export-1" {
		t.Fatalf("expected client id to be recorded, got %q", job.ClientID)
	}
	if job.TemplateID != "modern" {
		t.Fatalf("expected template modern, got %q", job.TemplateID)
	}

	// 快照必须是规范化后的完整结构，而不是原始请求体。
	var snapshot resume.Resume
	if err := json.Unmarshal(job.Content, &snapshot); err != nil {
		t.Fatalf("decode job snapshot: %v", err)
	}
	if snapshot.PersonalInfo.FullName != "Jane Doe" {
		t.Fatalf("expected sanitized name, got %q", snapshot.PersonalInfo.FullName)
	}
	if snapshot.Experience == nil || snapshot.Skills == nil {
		t.Fatal("expected sanitized snapshot to have non-nil sections")
	}
}

func TestCreateExportUnknownTemplateFallsBack(t *testing.T) {
	handler, _ := newExportTestHandler(t)

	body := map[string]any{
		"content":    map[string]any{},
		"templateId": "does-not-exist",
	}
	c, w := newJSONContext(t, http.MethodPost, "/v1/exports", body)
	c.Set("clientID", "client-export-2")

	handler.CreateExport(c)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}

	var job database.ExportJob
	if err := handler.db.Where("client_id = ?", "client-export-2").First(&job).Error; err != nil {
		t.Fatalf("load created job: %v", err)
	}
	if job.TemplateID != resume.DefaultTemplate {
		t.Fatalf("expected fallback template %q, got %q", resume.DefaultTemplate, job.TemplateID)
	}
}

func TestCreateExportRejectsMissingContent(t *testing.T) {
	handler, enqueuer := newExportTestHandler(t)

	c, w := newJSONContext(t, http.MethodPost, "/v1/exports", map[string]any{})
	c.Set("clientID", "client-export-3")

	handler.CreateExport(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if len(enqueuer.tasks) != 0 {
		t.Fatal("expected no task to be enqueued")
	}
}

func TestGetExportScopedToClient(t *testing.T) {
	handler, _ := newExportTestHandler(t)

	job := database.ExportJob{
		Key:        "job-scope-1",
		ClientID:   "client-owner-1",
		TemplateID: "classic",
		Content:    datatypes.JSON([]byte(`{}`)),
		Status:     database.JobStatusQueued,
	}
	if err := handler.db.Create(&job).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}

	c, w := newJSONContext(t, http.MethodGet, "/v1/exports/job-scope-1", nil)
	c.Set("clientID", "client-other-1")
	c.Params = gin.Params{{Key: "key", Value: "job-scope-1"}}

	handler.GetExport(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign client, got %d", w.Code)
	}

	c2, w2 := newJSONContext(t, http.MethodGet, "/v1/exports/job-scope-1", nil)
	c2.Set("clientID", "client-owner-1")
	c2.Params = gin.Params{{Key: "key", Value: "job-scope-1"}}

	handler.GetExport(c2)

	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200 for owner, got %d: %s", w2.Code, w2.Body.String())
	}
	resp := decodeJSONBody(t, w2)
	if resp["status"] != database.JobStatusQueued {
		t.Fatalf("expected queued status, got %v", resp["status"])
	}
}

func TestGetDownloadLinkNotReady(t *testing.T) {
	handler, _ := newExportTestHandler(t)

	job := database.ExportJob{
		Key:        "job-pending-1",
		ClientID:   "client-dl-1",
		TemplateID: "classic",
		Content:    datatypes.JSON([]byte(`{}`)),
		Status:     database.JobStatusRendering,
	}
	if err := handler.db.Create(&job).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}

	c, w := newJSONContext(t, http.MethodGet, "/v1/exports/job-pending-1/download-link", nil)
	c.Set("clientID", "client-dl-1")
	c.Params = gin.Params{{Key: "key", Value: "job-pending-1"}}

	handler.GetDownloadLink(c)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 while job is still rendering, got %d", w.Code)
	}
}
