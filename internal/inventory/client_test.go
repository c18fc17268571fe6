package inventory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reclaim/internal/config"
)

func TestListFilesSendsAPIKey(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/files" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotKey = r.Header.Get("X-Api-Key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"relative_path":"shows/show.mpg","title":"Show","created_at":"2026-01-02T03:04:05Z","duration_seconds":1800}]`))
	}))
	defer server.Close()

	client := NewClientWithDoer(server.URL, "secret", server.Client(), 5*time.Second)
	files, err := client.ListFiles(context.Background())
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if gotKey != "secret" {
		t.Errorf("expected api key header, got %q", gotKey)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}
	if files[0].RelativePath != "shows/show.mpg" {
		t.Errorf("unexpected relative path %q", files[0].RelativePath)
	}
}

func TestListDeletedFilesPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/files/deleted" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClientWithDoer(server.URL, "", server.Client(), 5*time.Second)
	files, err := client.ListDeletedFiles(context.Background())
	if err != nil {
		t.Fatalf("ListDeletedFiles: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected empty list, got %d", len(files))
	}
}

func TestFetchErrorOnBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClientWithDoer(server.URL, "", server.Client(), 5*time.Second)
	if _, err := client.ListFiles(context.Background()); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestNewClientRequiresURL(t *testing.T) {
	cfg := &config.Config{}
	if client := NewClient(cfg); client != nil {
		t.Fatal("expected nil client when no URL configured")
	}
}
