package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"papercv/internal/ats"
)

func TestATSScoreEndpoint(t *testing.T) {
	handler := NewATSHandler()

	body := map[string]any{
		"content": map[string]any{
			"personalInfo": map[string]any{
				"fullName": "Jane Doe",
				"email":    "jane@example.com",
			},
			"skills": []map[string]any{
				{"name": "Go"},
				{"name": "Redis"},
			},
		},
		"keywords": []string{"go", "kubernetes"},
	}
	c, w := newJSONContext(t, http.MethodPost, "/v1/ats/score", body)
	handler.Score(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var report ats.Report
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.KeywordScore != 50 {
		t.Fatalf("expected keyword score 50, got %d", report.KeywordScore)
	}
	if len(report.MissingKeywords) != 1 || report.MissingKeywords[0] != "kubernetes" {
		t.Fatalf("unexpected missing keywords: %v", report.MissingKeywords)
	}
	if len(report.Suggestions) == 0 {
		t.Fatal("expected suggestions for an incomplete resume")
	}
}

func TestATSScoreExtractsKeywordsFromJobDescription(t *testing.T) {
	handler := NewATSHandler()

	body := map[string]any{
		"content": map[string]any{
			"skills": []map[string]any{{"name": "Kubernetes"}},
		},
		"jobDescription": "We run everything on kubernetes.",
	}
	c, w := newJSONContext(t, http.MethodPost, "/v1/ats/score", body)
	handler.Score(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var report ats.Report
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(report.MatchedKeywords) == 0 {
		t.Fatal("expected keywords extracted from the job description to match")
	}
	for _, kw := range report.MatchedKeywords {
		if kw == "kubernetes" {
			return
		}
	}
	t.Fatalf("expected kubernetes among matched keywords, got %v", report.MatchedKeywords)
}

func TestATSScoreRequiresContent(t *testing.T) {
	handler := NewATSHandler()

	c, w := newJSONContext(t, http.MethodPost, "/v1/ats/score", map[string]any{"keywords": []string{"go"}})
	handler.Score(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
