package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/rss-scrape/app/feed"
	"github.com/lysyi3m/rss-scrape/app/tasks"
)

type mockScheduler struct {
	result     *tasks.Result
	refreshErr error
	refreshes  int
}

func (m *mockScheduler) Start() {}
func (m *mockScheduler) Stop()  {}

func (m *mockScheduler) EnqueueTask(task tasks.TaskInterface) error {
	return nil
}

func (m *mockScheduler) Refresh() error {
	m.refreshes++
	return m.refreshErr
}

func (m *mockScheduler) LastResult() *tasks.Result {
	return m.result
}

func newTestServer(t *testing.T, scheduler *mockScheduler, outputPath string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	configCache := feed.NewConfigCache(filepath.Join(t.TempDir(), "missing.yml"), feed.ConfigOverride{})
	if err := configCache.Run(); err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	return NewServer(NewHandler(configCache, scheduler, outputPath, "test"))
}

func doRequest(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode body %q: %v", w.Body.String(), err)
	}
	return body
}

func TestGetFeed(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "feed.xml")
	content := "<?xml version=\"1.0\"?><rss version=\"2.0\"><channel></channel></rss>"
	if err := os.WriteFile(outputPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	scheduler := &mockScheduler{result: &tasks.Result{
		Extraction: &feed.Extraction{Posts: []feed.Post{{Title: "a"}, {Title: "b"}}},
	}}
	r := newTestServer(t, scheduler, outputPath)

	w := doRequest(r, http.MethodGet, "/feed.xml")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/rss+xml; charset=utf-8" {
		t.Errorf("Expected RSS content type, got '%s'", ct)
	}
	if w.Body.String() != content {
		t.Errorf("Expected file content, got '%s'", w.Body.String())
	}
	if w.Header().Get("X-Feed-Items") != "2" {
		t.Errorf("Expected X-Feed-Items 2, got '%s'", w.Header().Get("X-Feed-Items"))
	}
	if w.Header().Get("X-Last-Updated") == "" {
		t.Error("Expected X-Last-Updated header")
	}
}

func TestGetFeedNotGeneratedYet(t *testing.T) {
	r := newTestServer(t, &mockScheduler{}, filepath.Join(t.TempDir(), "feed.xml"))

	w := doRequest(r, http.MethodGet, "/feed.xml")

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", w.Code)
	}
}

func TestGetHealthPending(t *testing.T) {
	r := newTestServer(t, &mockScheduler{}, "feed.xml")

	w := doRequest(r, http.MethodGet, "/health")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if body := decodeBody(t, w); body["status"] != "pending" {
		t.Errorf("Expected pending status, got %v", body["status"])
	}
}

func TestGetHealthAfterSuccess(t *testing.T) {
	now := time.Now()
	scheduler := &mockScheduler{result: &tasks.Result{
		FeedName:   "test",
		StartedAt:  now,
		FinishedAt: now,
		Extraction: &feed.Extraction{Containers: 3, Considered: 3, Skipped: 1, Posts: []feed.Post{{}, {}}},
	}}
	r := newTestServer(t, scheduler, "feed.xml")

	w := doRequest(r, http.MethodGet, "/health")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	body := decodeBody(t, w)
	if body["status"] != "ok" {
		t.Errorf("Expected ok status, got %v", body["status"])
	}

	run, ok := body["last_run"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected last_run object, got %v", body["last_run"])
	}
	if run["outcome"] != "success" {
		t.Errorf("Expected success outcome, got %v", run["outcome"])
	}
	posts := run["posts"].(map[string]interface{})
	if posts["included"] != float64(2) || posts["skipped"] != float64(1) {
		t.Errorf("Unexpected post counts: %v", posts)
	}
}

func TestGetHealthAfterDrift(t *testing.T) {
	scheduler := &mockScheduler{result: &tasks.Result{
		FeedName: "test",
		Err:      &feed.DriftError{Selector: "div.PlayerNewsPost-content"},
	}}
	r := newTestServer(t, scheduler, "feed.xml")

	w := doRequest(r, http.MethodGet, "/health")

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503, got %d", w.Code)
	}

	body := decodeBody(t, w)
	if body["status"] != "failing" {
		t.Errorf("Expected failing status, got %v", body["status"])
	}
	run := body["last_run"].(map[string]interface{})
	if run["outcome"] != string(tasks.OutcomeDrift) {
		t.Errorf("Expected drift outcome, got %v", run["outcome"])
	}
	if run["error"] == nil {
		t.Error("Expected error message")
	}
}

func TestRefresh(t *testing.T) {
	scheduler := &mockScheduler{}
	r := newTestServer(t, scheduler, "feed.xml")

	w := doRequest(r, http.MethodPost, "/refresh")

	if w.Code != http.StatusAccepted {
		t.Errorf("Expected 202, got %d", w.Code)
	}
	if scheduler.refreshes != 1 {
		t.Errorf("Expected 1 refresh, got %d", scheduler.refreshes)
	}
}

func TestRefreshQueueFull(t *testing.T) {
	r := newTestServer(t, &mockScheduler{refreshErr: tasks.ErrQueueFull}, "feed.xml")

	w := doRequest(r, http.MethodPost, "/refresh")

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", w.Code)
	}
}

func TestRefreshFactoryFailure(t *testing.T) {
	r := newTestServer(t, &mockScheduler{refreshErr: errors.New("invalid profile")}, "feed.xml")

	w := doRequest(r, http.MethodPost, "/refresh")

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", w.Code)
	}
}

func TestGetConfig(t *testing.T) {
	r := newTestServer(t, &mockScheduler{}, "feed.xml")

	w := doRequest(r, http.MethodGet, "/config")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	body := decodeBody(t, w)
	if body["url"] != feed.DefaultURL {
		t.Errorf("Expected default URL, got %v", body["url"])
	}
	if body["order"] != string(feed.OrderNewestFirst) {
		t.Errorf("Expected newest-first, got %v", body["order"])
	}
}

func TestRootAndOptions(t *testing.T) {
	r := newTestServer(t, &mockScheduler{}, "feed.xml")

	w := doRequest(r, http.MethodGet, "/")
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 from root, got %d", w.Code)
	}

	w = doRequest(r, http.MethodOptions, "/refresh")
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected 204 for OPTIONS, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS header")
	}
}
