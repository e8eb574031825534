package styles

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCollectKeepsDocumentOrder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/linked.css", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/css")
		fmt.Fprint(w, ".linked { color: green; }")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	doc := `<html><head>
		<style>.first { color: red; }</style>
		<link rel="stylesheet" href="/linked.css">
		<style>.last { color: blue; }</style>
	</head><body></body></html>`

	c := NewCollector(srv.Client(), nil)
	css, warnings, err := c.Collect(context.Background(), doc, srv.URL)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}

	first := strings.Index(css, ".first")
	linked := strings.Index(css, ".linked")
	last := strings.Index(css, ".last")
	if first < 0 || linked < 0 || last < 0 {
		t.Fatalf("missing sources in snapshot: %q", css)
	}
	if !(first < linked && linked < last) {
		t.Fatalf("sources out of document order: first=%d linked=%d last=%d", first, linked, last)
	}
}

func TestCollectSkipsCrossOriginWithWarning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("cross-origin stylesheet must not be fetched, got request for %s", r.URL.Path)
	}))
	defer srv.Close()

	doc := `<html><head>
		<style>.own { margin: 0; }</style>
		<link rel="stylesheet" href="https://cdn.example.com/theme.css">
	</head><body></body></html>`

	c := NewCollector(srv.Client(), nil)
	css, warnings, err := c.Collect(context.Background(), doc, srv.URL)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if !strings.Contains(css, ".own") {
		t.Fatal("inline style dropped")
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", warnings)
	}
	if warnings[0].Href != "https://cdn.example.com/theme.css" {
		t.Fatalf("warning points at wrong href: %+v", warnings[0])
	}
}

func TestCollectContinuesPastBrokenLink(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok.css", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, ".ok { display: block; }")
	})
	mux.HandleFunc("/missing.css", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	doc := `<html><head>
		<link rel="stylesheet" href="/missing.css">
		<link rel="stylesheet" href="/ok.css">
	</head><body></body></html>`

	c := NewCollector(srv.Client(), nil)
	css, warnings, err := c.Collect(context.Background(), doc, srv.URL)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if !strings.Contains(css, ".ok") {
		t.Fatal("healthy stylesheet after the broken one was not collected")
	}
	if len(warnings) != 1 || warnings[0].Href != "/missing.css" {
		t.Fatalf("expected one warning for /missing.css, got %v", warnings)
	}
}

func TestCollectIgnoresNonStylesheetLinks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected fetch for %s", r.URL.Path)
	}))
	defer srv.Close()

	doc := `<html><head>
		<link rel="icon" href="/favicon.ico">
		<link rel="preconnect" href="https://fonts.example.com">
	</head><body></body></html>`

	c := NewCollector(srv.Client(), nil)
	css, warnings, err := c.Collect(context.Background(), doc, srv.URL)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if css != "" || len(warnings) != 0 {
		t.Fatalf("expected empty snapshot, got css=%q warnings=%v", css, warnings)
	}
}
