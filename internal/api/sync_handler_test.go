package api

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"papercv/internal/database"
	"papercv/internal/resume"
)

func TestSyncLinkRoundTrip(t *testing.T) {
	db := newTestDB(t, &database.SyncLink{})
	handler := NewSyncHandler(db, time.Hour)

	body := map[string]any{
		"content": map[string]any{
			"personalInfo": map[string]any{"fullName": "Sync User"},
		},
	}
	c, w := newJSONContext(t, http.MethodPost, "/v1/sync", body)
	handler.CreateLink(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeJSONBody(t, w)
	key, _ := resp["key"].(string)
	if key == "" {
		t.Fatal("expected non-empty sync key")
	}

	c2, w2 := newJSONContext(t, http.MethodGet, "/v1/sync/"+key, nil)
	c2.Params = gin.Params{{Key: "key", Value: key}}
	handler.GetLink(c2)

	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w2.Code, w2.Body.String())
	}

	var out struct {
		Content resume.Resume `json:"content"`
	}
	if err := json.Unmarshal(w2.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode sync content: %v", err)
	}
	if out.Content.PersonalInfo.FullName != "Sync User" {
		t.Fatalf("expected stored name, got %q", out.Content.PersonalInfo.FullName)
	}
}

func TestSyncLinkReusableWithinTTL(t *testing.T) {
	db := newTestDB(t, &database.SyncLink{})
	handler := NewSyncHandler(db, time.Hour)

	link := database.SyncLink{
		Key:       "sync-reuse-1",
		Content:   datatypes.JSON([]byte(`{"personalInfo":{"fullName":"Reuse"}}`)),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := db.Create(&link).Error; err != nil {
		t.Fatalf("seed link: %v", err)
	}

	for i := 0; i < 2; i++ {
		c, w := newJSONContext(t, http.MethodGet, "/v1/sync/sync-reuse-1", nil)
		c.Params = gin.Params{{Key: "key", Value: "sync-reuse-1"}}
		handler.GetLink(c)
		if w.Code != http.StatusOK {
			t.Fatalf("fetch %d: expected 200, got %d", i+1, w.Code)
		}
	}
}

func TestSyncLinkExpiredReturnsGone(t *testing.T) {
	db := newTestDB(t, &database.SyncLink{})
	handler := NewSyncHandler(db, time.Hour)

	link := database.SyncLink{
		Key:       "sync-expired-1",
		Content:   datatypes.JSON([]byte(`{}`)),
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	if err := db.Create(&link).Error; err != nil {
		t.Fatalf("seed link: %v", err)
	}

	c, w := newJSONContext(t, http.MethodGet, "/v1/sync/sync-expired-1", nil)
	c.Params = gin.Params{{Key: "key", Value: "sync-expired-1"}}
	handler.GetLink(c)

	if w.Code != http.StatusGone {
		t.Fatalf("expected 410 for expired link, got %d", w.Code)
	}
}

func TestSyncLinkUnknownKeyNotFound(t *testing.T) {
	db := newTestDB(t, &database.SyncLink{})
	handler := NewSyncHandler(db, time.Hour)

	c, w := newJSONContext(t, http.MethodGet, "/v1/sync/no-such-key", nil)
	c.Params = gin.Params{{Key: "key", Value: "no-such-key"}}
	handler.GetLink(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
