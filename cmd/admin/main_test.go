package main

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"papercv/internal/database"
	"papercv/internal/storage"
)

type fakeObjectStore struct {
	objects         []storage.ObjectMeta
	deletedObjects  []string
	deletedPrefixes []string
}

func (f *fakeObjectStore) ListObjects(ctx context.Context, prefix string, limit int) ([]storage.ObjectMeta, error) {
	return f.objects, nil
}

func (f *fakeObjectStore) DeleteObject(ctx context.Context, objectKey string) error {
	f.deletedObjects = append(f.deletedObjects, objectKey)
	return nil
}

func (f *fakeObjectStore) DeletePrefix(ctx context.Context, prefix string) error {
	f.deletedPrefixes = append(f.deletedPrefixes, prefix)
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&database.ExportJob{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedJob(t *testing.T, db *gorm.DB, key, clientID string, updatedAt time.Time) {
	t.Helper()
	job := database.ExportJob{
		Key:      key,
		ClientID: clientID,
		Status:   database.JobStatusCompleted,
	}
	if err := db.Create(&job).Error; err != nil {
		t.Fatalf("seed job %s: %v", key, err)
	}
	if err := db.Model(&job).UpdateColumn("updated_at", updatedAt).Error; err != nil {
		t.Fatalf("backdate job %s: %v", key, err)
	}
}

func TestPurgeStaleExportsDeletesPrefixAndRow(t *testing.T) {
	db := newTestDB(t)
	store := &fakeObjectStore{}

	cutoff := time.Now().AddDate(0, 0, -30)
	seedJob(t, db, "stale-job-1", "client-a", cutoff.Add(-24*time.Hour))
	seedJob(t, db, "fresh-job-1", "client-a", time.Now())

	if err := purgeStaleExports(context.Background(), db, store, cutoff, false); err != nil {
		t.Fatalf("purge stale exports: %v", err)
	}

	if len(store.deletedPrefixes) != 1 || store.deletedPrefixes[0] != "exports/client-a/stale-job-1" {
		t.Fatalf("expected stale job prefix to be deleted, got %v", store.deletedPrefixes)
	}

	var count int64
	if err := db.Model(&database.ExportJob{}).Where("key = ?", "stale-job-1").Count(&count).Error; err != nil {
		t.Fatalf("count stale job: %v", err)
	}
	if count != 0 {
		t.Fatal("expected stale job row to be removed")
	}
	if err := db.Model(&database.ExportJob{}).Where("key = ?", "fresh-job-1").Count(&count).Error; err != nil {
		t.Fatalf("count fresh job: %v", err)
	}
	if count != 1 {
		t.Fatal("expected fresh job row to survive")
	}
}

func TestPurgeStaleExportsDryRunTouchesNothing(t *testing.T) {
	db := newTestDB(t)
	store := &fakeObjectStore{}

	cutoff := time.Now().AddDate(0, 0, -30)
	seedJob(t, db, "stale-job-2", "client-b", cutoff.Add(-24*time.Hour))

	if err := purgeStaleExports(context.Background(), db, store, cutoff, true); err != nil {
		t.Fatalf("purge stale exports: %v", err)
	}

	if len(store.deletedPrefixes) != 0 {
		t.Fatalf("dry run must not delete objects, got %v", store.deletedPrefixes)
	}
	var count int64
	if err := db.Model(&database.ExportJob{}).Where("key = ?", "stale-job-2").Count(&count).Error; err != nil {
		t.Fatalf("count job: %v", err)
	}
	if count != 1 {
		t.Fatal("dry run must not delete job rows")
	}
}

func TestPurgeOrphanExportObjects(t *testing.T) {
	db := newTestDB(t)
	seedJob(t, db, "live-job-1", "client-c", time.Now())

	store := &fakeObjectStore{
		objects: []storage.ObjectMeta{
			{Key: "exports/client-c/live-job-1.pdf"},
			{Key: "exports/client-c/live-job-1-preview.jpg"},
			{Key: "exports/client-d/gone-job-1.pdf"},
			{Key: "exports/client-d/gone-job-1-preview.jpg"},
			{Key: "exports/client-d/README"},
		},
	}

	if err := purgeOrphanExportObjects(context.Background(), db, store, false); err != nil {
		t.Fatalf("purge orphan objects: %v", err)
	}

	want := []string{
		"exports/client-d/gone-job-1.pdf",
		"exports/client-d/gone-job-1-preview.jpg",
	}
	if len(store.deletedObjects) != len(want) {
		t.Fatalf("expected %d deletions, got %v", len(want), store.deletedObjects)
	}
	for i, key := range want {
		if store.deletedObjects[i] != key {
			t.Fatalf("expected deletion %d to be %q, got %q", i, key, store.deletedObjects[i])
		}
	}
}

func TestExportJobKeyFromObjectKey(t *testing.T) {
	cases := []struct {
		objectKey string
		jobKey    string
		ok        bool
	}{
		{"exports/client-a/abc.pdf", "abc", true},
		{"exports/client-a/abc-preview.jpg", "abc", true},
		{"exports/client-a/notes.txt", "", false},
		{"assets/client-a/photo.png", "", false},
		{"exports/client-a/deep/abc.pdf", "", false},
		{"exports/client-a/.pdf", "", false},
	}
	for _, tc := range cases {
		jobKey, ok := exportJobKeyFromObjectKey(tc.objectKey)
		if jobKey != tc.jobKey || ok != tc.ok {
			t.Errorf("exportJobKeyFromObjectKey(%q) = (%q, %v), want (%q, %v)",
				tc.objectKey, jobKey, ok, tc.jobKey, tc.ok)
		}
	}
}
