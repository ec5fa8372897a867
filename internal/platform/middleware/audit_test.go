package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dentaldesk/clinic/internal/platform/auth"
)

// mockRecorder collects audit entries for assertions.
type mockRecorder struct {
	mu      sync.Mutex
	entries []AuditEntry
	err     error
}

func (m *mockRecorder) RecordAccess(entry AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return m.err
}

func (m *mockRecorder) last() AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[len(m.entries)-1]
}

func (m *mockRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func newTestContext(method, target string, opts ...func(*http.Request)) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withAuth(userID, username, role string) func(*http.Request) {
	return func(req *http.Request) {
		*req = *req.WithContext(auth.WithUser(req.Context(), userID, username, role))
	}
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func TestAudit_PatientRead(t *testing.T) {
	rec := &mockRecorder{}
	c, _ := newTestContext(http.MethodGet, "/api/v1/patients/7", withAuth("3", "dentist", "dentist"))
	c.SetPath("/api/v1/patients/:id")
	c.SetParamNames("id")
	c.SetParamValues("7")
	c.Set("request_id", "req-1")

	if err := Audit(zerolog.Nop(), rec)(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.count() != 1 {
		t.Fatalf("expected 1 audit entry, got %d", rec.count())
	}
	e := rec.last()
	if e.UserID != "3" || e.Username != "dentist" || e.UserRole != "dentist" {
		t.Errorf("unexpected user fields: %+v", e)
	}
	if e.Resource != "patients" || e.RecordID != "7" || e.PatientID != "7" {
		t.Errorf("unexpected record fields: %+v", e)
	}
	if e.Action != "read" || e.StatusCode != http.StatusOK || e.RequestID != "req-1" {
		t.Errorf("unexpected request fields: %+v", e)
	}
}

func TestAudit_ExaminationCreateWithPatientQuery(t *testing.T) {
	rec := &mockRecorder{}
	c, _ := newTestContext(http.MethodPost, "/api/v1/examination-drafts?patient_id=12", withAuth("1", "admin", "admin"))

	if err := Audit(zerolog.Nop(), rec)(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e := rec.last()
	if e.Resource != "examination-drafts" || e.Action != "create" || e.PatientID != "12" {
		t.Errorf("unexpected entry: %+v", e)
	}
}

func TestAudit_CapturesErrorStatus(t *testing.T) {
	rec := &mockRecorder{}
	c, _ := newTestContext(http.MethodDelete, "/api/v1/expenses/4")

	failing := func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	err := Audit(zerolog.Nop(), rec)(failing)(c)
	if err == nil {
		t.Fatal("expected handler error to propagate")
	}
	e := rec.last()
	if e.StatusCode != http.StatusNotFound || e.Action != "delete" {
		t.Errorf("unexpected entry: %+v", e)
	}
}

func TestAudit_SkipsNonAuditablePaths(t *testing.T) {
	for _, p := range []string{"/health", "/api/v1/session/login", "/api/v1/session"} {
		rec := &mockRecorder{}
		c, _ := newTestContext(http.MethodPost, p)
		if err := Audit(zerolog.Nop(), rec)(okHandler)(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.count() != 0 {
			t.Errorf("expected %s not to be audited", p)
		}
	}
}

func TestAudit_RecorderErrorDoesNotBreakRequest(t *testing.T) {
	var buf bytes.Buffer
	rec := &mockRecorder{err: errors.New("disk full")}
	c, _ := newTestContext(http.MethodGet, "/api/v1/patients")

	if err := Audit(zerolog.New(&buf), rec)(okHandler)(c); err != nil {
		t.Fatalf("recorder failure must not fail the request: %v", err)
	}
	if !strings.Contains(buf.String(), "failed to record audit entry") {
		t.Error("expected recorder failure to be logged")
	}
}

func TestAudit_NoRecorderLogsOnly(t *testing.T) {
	var buf bytes.Buffer
	c, _ := newTestContext(http.MethodGet, "/api/v1/reports/summary", withAuth("2", "staff", "staff"))

	if err := Audit(zerolog.New(&buf))(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"type":"record_access"`) || !strings.Contains(out, `"resource":"reports"`) {
		t.Errorf("unexpected audit log: %s", out)
	}
}

func TestHttpMethodToAction(t *testing.T) {
	tests := map[string]string{
		http.MethodGet:    "read",
		http.MethodHead:   "read",
		http.MethodPost:   "create",
		http.MethodPut:    "update",
		http.MethodPatch:  "update",
		http.MethodDelete: "delete",
	}
	for method, want := range tests {
		if got := httpMethodToAction(method); got != want {
			t.Errorf("httpMethodToAction(%s) = %s, want %s", method, got, want)
		}
	}
}

func TestExtractResource(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/v1/patients", "patients"},
		{"/api/v1/patients/3", "patients"},
		{"/api/v1/catalog/services", "catalog"},
		{"/api/v1/", "unknown"},
	}
	for _, tt := range tests {
		if got := extractResource(tt.path); got != tt.want {
			t.Errorf("extractResource(%s) = %s, want %s", tt.path, got, tt.want)
		}
	}
}

func TestAuditRecorderFunc(t *testing.T) {
	var got AuditEntry
	f := AuditRecorderFunc(func(e AuditEntry) error {
		got = e
		return nil
	})
	if err := f.RecordAccess(AuditEntry{UserID: "1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UserID != "1" {
		t.Errorf("expected entry to be passed through, got %+v", got)
	}
}
