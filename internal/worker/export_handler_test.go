package worker

import (
	"reflect"
	"testing"

	"papercv/internal/database"
	"papercv/internal/errcode"
	"papercv/internal/export"
)

func TestExtractResourceMissingWarning(t *testing.T) {
	p := payloadData{}
	p.Warnings = []struct {
		Code        int      `json:"code"`
		Message     string   `json:"message"`
		MissingKeys []string `json:"missing_keys"`
	}{
		{Code: errcode.ResourceMissing, MissingKeys: []string{"assets/c/a.png", " ", "assets/c/a.png"}},
		{Code: errcode.SystemError, MissingKeys: []string{"ignored.png"}},
		{Code: errcode.ResourceMissing, MissingKeys: []string{"assets/c/b.png"}},
	}

	keys, has := extractResourceMissingWarning(p)
	if !has {
		t.Fatal("expected resource missing warning to be detected")
	}
	want := []string{"assets/c/a.png", "assets/c/b.png"}
	if !reflect.DeepEqual(keys, want) {
		t.Fatalf("expected deduplicated keys %v, got %v", want, keys)
	}
}

func TestExtractResourceMissingWarningNone(t *testing.T) {
	keys, has := extractResourceMissingWarning(payloadData{})
	if has {
		t.Fatal("expected no warning for empty payload")
	}
	if len(keys) != 0 {
		t.Fatalf("expected no keys, got %v", keys)
	}
}

func TestJobStatusForState(t *testing.T) {
	cases := []struct {
		state  export.State
		status string
		ok     bool
	}{
		{export.StateCollecting, database.JobStatusCollecting, true},
		{export.StateRendering, database.JobStatusRendering, true},
		{export.StateIdle, "", false},
		{export.StateDone, "", false},
		{export.StateFailed, "", false},
	}
	for _, tc := range cases {
		status, ok := jobStatusForState(tc.state)
		if status != tc.status || ok != tc.ok {
			t.Errorf("jobStatusForState(%v) = (%q, %v), want (%q, %v)", tc.state, status, ok, tc.status, tc.ok)
		}
	}
}
