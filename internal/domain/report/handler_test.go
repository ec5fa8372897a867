package report

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/dentaldesk/clinic/internal/platform/format"
)

func TestHandler_GetSummary(t *testing.T) {
	h := NewHandler(newTestService(seededExams()), format.New("vi-VN"))
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/reports/summary?period=week", nil), rec)
	if err := h.GetSummary(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var body struct {
		Range      Range             `json:"range"`
		Statistics Statistics        `json:"statistics"`
		Display    map[string]string `json:"display"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Range.Start != "2024-03-04" || body.Statistics.TotalRevenue != 3150000 {
		t.Errorf("unexpected body: %+v", body)
	}
	if body.Display["total_revenue"] != "3.150.000 ₫" {
		t.Errorf("expected formatted revenue, got %q", body.Display["total_revenue"])
	}
}

func TestHandler_GetSummary_BadPeriod(t *testing.T) {
	h := NewHandler(newTestService(seededExams()), format.New("vi-VN"))
	e := echo.New()

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?period=custom&start=2024-03-05&end=2024-03-01", nil), httptest.NewRecorder())
	err := h.GetSummary(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}
