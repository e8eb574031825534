package tasks

import (
	"encoding/json"
	"testing"
)

func TestNotifyChannelFormat(t *testing.T) {
	got := NotifyChannel("client-abc-123")
	if got != "export_notify:client-abc-123" {
		t.Fatalf("NotifyChannel = %q, want export_notify:client-abc-123", got)
	}
}

func TestNewExportPDFTask(t *testing.T) {
	task, err := NewExportPDFTask(42, "corr-1")
	if err != nil {
		t.Fatalf("new export task: %v", err)
	}
	if task.Type() != TypeExportPDF {
		t.Fatalf("task type %q, want %q", task.Type(), TypeExportPDF)
	}

	var payload ExportPDFPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.JobID != 42 || payload.CorrelationID != "corr-1" {
		t.Fatalf("payload = %+v, want job 42 / corr-1", payload)
	}
}
