package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/followup/backend/internal/config"
	"github.com/followup/backend/internal/core/ports"
	"github.com/followup/backend/internal/domain"
	"github.com/followup/backend/internal/infrastructure/db"
	"github.com/followup/backend/internal/infrastructure/logger"
	"github.com/followup/backend/internal/realtime"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

type testServer struct {
	app *fiber.App
	db  *gorm.DB
	hub *realtime.Hub
	cfg *config.Config
}

type serverOption func(*RouterConfig)

func withTransport(t ports.BroadcastTransport) serverOption {
	return func(rc *RouterConfig) { rc.Transport = t }
}

func withAdminKey(key string) serverOption {
	return func(rc *RouterConfig) { rc.Config.Auth.AdminAPIKey = key }
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config err=%v", err)
	}
	cfg.Features.EnableRequestLogging = false

	database, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "http.db")), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		t.Fatalf("open sqlite err=%v", err)
	}
	if err := db.RunMigrations(database); err != nil {
		t.Fatalf("migrate err=%v", err)
	}
	t.Cleanup(func() { _ = db.Close(database) })

	log := logger.NewNop()
	ctx := context.Background()
	if err := db.NewTenantRepository(database, log).Create(ctx, &domain.Tenant{ID: "T1", Name: "Acme"}); err != nil {
		t.Fatalf("seed tenant err=%v", err)
	}
	if err := db.NewApplicationRepository(database, log).Create(ctx, &domain.Application{ID: "A1", Name: "Loan", TenantID: "T1"}); err != nil {
		t.Fatalf("seed application err=%v", err)
	}

	hub := realtime.NewHub(log)
	rc := RouterConfig{
		DB:     database,
		Logger: log,
		Config: cfg,
		Hub:    hub,
		Clock:  func() time.Time { return testNow },
	}
	for _, opt := range opts {
		opt(&rc)
	}

	app := NewApp(cfg, log)
	if err := SetupRoutes(app, rc); err != nil {
		t.Fatalf("routes err=%v", err)
	}
	return &testServer{app: app, db: database, hub: hub, cfg: cfg}
}

func (s *testServer) do(t *testing.T, method, path, body string, headers map[string]string) (int, string, map[string][]string) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	// An empty value removes the header.
	for k, v := range headers {
		if v == "" {
			req.Header.Del(k)
			continue
		}
		req.Header.Set(k, v)
	}

	resp, err := s.app.Test(req, 5000)
	if err != nil {
		t.Fatalf("%s %s err=%v", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body err=%v", err)
	}
	return resp.StatusCode, string(raw), resp.Header
}

func (s *testServer) taskCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := s.db.Model(&domain.Task{}).Count(&n).Error; err != nil {
		t.Fatalf("count err=%v", err)
	}
	return n
}

func decode(t *testing.T, body string) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		t.Fatalf("decode %q err=%v", body, err)
	}
	return out
}

const validBody = `{"related_id":"A1","task_type":"call","due_at":"2026-10-19T10:00:00Z"}`

func TestCreateTask_PersistsAndBroadcasts(t *testing.T) {
	s := newTestServer(t)
	listener := s.hub.Join("tasks")
	defer s.hub.Leave(listener)

	status, body, _ := s.do(t, "POST", "/functions/v1/create-task", validBody, nil)
	if status != fiber.StatusOK {
		t.Fatalf("status=%d body=%s", status, body)
	}
	resp := decode(t, body)
	taskID, _ := resp["task_id"].(string)
	if resp["success"] != true || taskID == "" {
		t.Fatalf("resp=%v", resp)
	}
	if _, ok := resp["warning"]; ok {
		t.Fatalf("unexpected warning in %v", resp)
	}

	var task domain.Task
	if err := s.db.First(&task, "id = ?", taskID).Error; err != nil {
		t.Fatalf("load task err=%v", err)
	}
	if task.TenantID != "T1" || task.Status != domain.TaskStatusOpen || task.Type != domain.TaskTypeCall {
		t.Fatalf("task=%+v", task)
	}

	select {
	case f := <-listener.Frames():
		if f.Type != realtime.FrameBroadcast || f.Event != "task.created" {
			t.Fatalf("frame=%+v", f)
		}
		if f.Payload["task_id"] != taskID || f.Payload["related_id"] != "A1" || f.Payload["task_type"] != "call" {
			t.Fatalf("payload=%v", f.Payload)
		}
		if f.Payload["due_at"] != "2026-10-19T10:00:00Z" {
			t.Fatalf("due_at=%v", f.Payload["due_at"])
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no broadcast received")
	}
}

func TestCreateTask_BothPathsAccepted(t *testing.T) {
	s := newTestServer(t)

	for _, path := range createTaskPaths {
		if status, body, _ := s.do(t, "POST", path, validBody, nil); status != fiber.StatusOK {
			t.Fatalf("path=%s status=%d body=%s", path, status, body)
		}
	}
	if n := s.taskCount(t); n != 2 {
		t.Fatalf("tasks=%d, want 2", n)
	}
}

func TestCreateTask_ValidationErrors(t *testing.T) {
	tests := []struct {
		body    string
		message string
	}{
		{`{"task_type":"call","due_at":"2026-10-19T10:00:00Z"}`, "related_id is required"},
		{`{"related_id":"A1","task_type":"sms","due_at":"2026-10-19T10:00:00Z"}`, "Invalid task_type. Must be one of: call, email, review"},
		{`{"related_id":"A1","task_type":"call"}`, "due_at is required"},
		{`{"related_id":"A1","task_type":"call","due_at":"soon"}`, "due_at must be a valid ISO date string"},
		{`{"related_id":"A1","task_type":"call","due_at":"2026-10-17T10:00:00Z"}`, "due_at must be a future date"},
		{`{"related_id":`, "invalid request body"},
	}

	s := newTestServer(t)
	for _, tt := range tests {
		status, body, _ := s.do(t, "POST", "/api/v1/tasks", tt.body, nil)
		if status != fiber.StatusBadRequest {
			t.Fatalf("body=%s status=%d, want 400", tt.body, status)
		}
		if got := decode(t, body)["error"]; got != tt.message {
			t.Fatalf("body=%s error=%v, want %q", tt.body, got, tt.message)
		}
	}
	if n := s.taskCount(t); n != 0 {
		t.Fatalf("tasks=%d, want 0", n)
	}
}

func TestCreateTask_UnknownApplication(t *testing.T) {
	s := newTestServer(t)

	status, body, _ := s.do(t, "POST", "/functions/v1/create-task",
		`{"related_id":"A9","task_type":"email","due_at":"2026-10-19T10:00:00Z"}`, nil)
	if status != fiber.StatusNotFound {
		t.Fatalf("status=%d body=%s", status, body)
	}
	if got := decode(t, body)["error"]; got != "Application (related_id) not found" {
		t.Fatalf("error=%v", got)
	}
	if n := s.taskCount(t); n != 0 {
		t.Fatalf("tasks=%d, want 0", n)
	}
}

func TestCreateTask_BodyIsJSONWhateverContentType(t *testing.T) {
	s := newTestServer(t)

	for _, contentType := range []string{"", "text/plain;charset=UTF-8"} {
		status, body, _ := s.do(t, "POST", "/functions/v1/create-task", validBody, map[string]string{
			"Content-Type": contentType,
		})
		if status != fiber.StatusOK {
			t.Fatalf("content-type=%q status=%d body=%s", contentType, status, body)
		}
	}
	if n := s.taskCount(t); n != 2 {
		t.Fatalf("tasks=%d, want 2", n)
	}
}

func TestCreateTask_ZonedMinutePrecisionDueAt(t *testing.T) {
	s := newTestServer(t)

	for _, dueAt := range []string{"2026-10-19T10:00Z", "2026-10-19T10:00+05:30"} {
		status, body, _ := s.do(t, "POST", "/functions/v1/create-task",
			`{"related_id":"A1","task_type":"call","due_at":"`+dueAt+`"}`, nil)
		if status != fiber.StatusOK {
			t.Fatalf("due_at=%s status=%d body=%s", dueAt, status, body)
		}
	}
}

func TestCreateTask_WhitespaceFields(t *testing.T) {
	s := newTestServer(t)

	status, body, _ := s.do(t, "POST", "/functions/v1/create-task",
		`{"related_id":"   ","task_type":"call","due_at":"2026-10-19T10:00:00Z"}`, nil)
	if status != fiber.StatusNotFound {
		t.Fatalf("whitespace related_id status=%d body=%s, want 404", status, body)
	}

	status, body, _ = s.do(t, "POST", "/functions/v1/create-task",
		`{"related_id":"A1","task_type":"call","due_at":"  "}`, nil)
	if status != fiber.StatusBadRequest {
		t.Fatalf("whitespace due_at status=%d, want 400", status)
	}
	if got := decode(t, body)["error"]; got != "due_at must be a valid ISO date string" {
		t.Fatalf("error=%v", got)
	}
	if n := s.taskCount(t); n != 0 {
		t.Fatalf("tasks=%d, want 0", n)
	}
}

type failingTransport struct{}

func (failingTransport) Subscribe(ctx context.Context, channel string) (ports.Subscription, error) {
	return nil, errors.New("realtime unavailable")
}

func TestCreateTask_NotifyFailureReturnsWarning(t *testing.T) {
	s := newTestServer(t, withTransport(failingTransport{}))

	status, body, _ := s.do(t, "POST", "/functions/v1/create-task", validBody, nil)
	if status != fiber.StatusOK {
		t.Fatalf("status=%d body=%s", status, body)
	}
	resp := decode(t, body)
	if resp["success"] != true || resp["warning"] != "task persisted, notification failed" {
		t.Fatalf("resp=%v", resp)
	}
	if n := s.taskCount(t); n != 1 {
		t.Fatalf("tasks=%d, want 1", n)
	}
}

func TestCreateTask_MethodHandling(t *testing.T) {
	s := newTestServer(t)

	status, body, _ := s.do(t, "OPTIONS", "/functions/v1/create-task", "", nil)
	if status != fiber.StatusOK || body != "ok" {
		t.Fatalf("OPTIONS status=%d body=%q", status, body)
	}

	for _, method := range []string{"GET", "PUT", "DELETE"} {
		status, body, _ := s.do(t, method, "/functions/v1/create-task", "", nil)
		if status != fiber.StatusMethodNotAllowed {
			t.Fatalf("%s status=%d, want 405", method, status)
		}
		if got := decode(t, body)["error"]; got != "Method not allowed" {
			t.Fatalf("%s error=%v", method, got)
		}
	}
}

func TestCreateTask_CORSHeaders(t *testing.T) {
	s := newTestServer(t)

	_, _, headers := s.do(t, "POST", "/functions/v1/create-task", validBody, map[string]string{
		"Origin": "https://dashboard.example.com",
	})
	if got := strings.Join(headers["Access-Control-Allow-Origin"], ","); got != "*" {
		t.Fatalf("allow-origin=%q, want *", got)
	}

	status, _, headers := s.do(t, "OPTIONS", "/functions/v1/create-task", "", map[string]string{
		"Origin":                        "https://dashboard.example.com",
		"Access-Control-Request-Method": "POST",
	})
	if status >= 300 {
		t.Fatalf("preflight status=%d", status)
	}
	allowHeaders := strings.ToLower(strings.Join(headers["Access-Control-Allow-Headers"], ","))
	for _, h := range []string{"authorization", "x-client-info", "apikey", "content-type"} {
		if !strings.Contains(allowHeaders, h) {
			t.Fatalf("allow-headers=%q missing %s", allowHeaders, h)
		}
	}
}

func TestDashboardRoutes(t *testing.T) {
	s := newTestServer(t, withAdminKey("secret"))
	auth := map[string]string{"apikey": "secret"}

	status, body, _ := s.do(t, "POST", "/api/v1/tasks",
		`{"related_id":"A1","task_type":"review","due_at":"2026-10-18T18:00:00Z"}`, nil)
	if status != fiber.StatusOK {
		t.Fatalf("create status=%d body=%s", status, body)
	}
	taskID := decode(t, body)["task_id"].(string)

	if status, _, _ := s.do(t, "GET", "/api/v1/tasks/today", "", nil); status != fiber.StatusUnauthorized {
		t.Fatalf("unauthenticated status=%d, want 401", status)
	}

	status, body, _ = s.do(t, "GET", "/api/v1/tasks/today", "", auth)
	if status != fiber.StatusOK {
		t.Fatalf("today status=%d body=%s", status, body)
	}
	var today []map[string]any
	if err := json.Unmarshal([]byte(body), &today); err != nil {
		t.Fatalf("decode err=%v", err)
	}
	if len(today) != 1 || today[0]["id"] != taskID {
		t.Fatalf("today=%v", today)
	}

	status, body, _ = s.do(t, "PATCH", "/api/v1/tasks/"+taskID+"/complete", "", map[string]string{
		"Authorization": "Bearer secret",
	})
	if status != fiber.StatusOK {
		t.Fatalf("complete status=%d", status)
	}
	if got := decode(t, body); got["id"] != taskID || got["status"] != "completed" {
		t.Fatalf("completed task=%v", got)
	}

	status, body, _ = s.do(t, "GET", "/api/v1/tasks/today", "", auth)
	if status != fiber.StatusOK || strings.TrimSpace(body) != "[]" {
		t.Fatalf("after complete status=%d body=%s", status, body)
	}

	if status, _, _ := s.do(t, "PATCH", "/api/v1/tasks/missing/complete", "", auth); status != fiber.StatusNotFound {
		t.Fatalf("unknown task status=%d, want 404", status)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	status, body, _ := s.do(t, "GET", "/health", "", nil)
	if status != fiber.StatusOK {
		t.Fatalf("status=%d", status)
	}
	if got := decode(t, body)["status"]; got != "ok" {
		t.Fatalf("status field=%v", got)
	}
}
