package examination

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/dentaldesk/clinic/internal/platform/auth"
)

func newTestHandler() (*Handler, *echo.Echo) {
	repo := NewExamRepoMemory(Seed(fixedNow)...)
	return NewHandler(NewService(repo), newTestDraftService(repo)), echo.New()
}

func expectHTTPCode(t *testing.T, err error, code int) {
	t.Helper()
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T (%v)", err, err)
	}
	if httpErr.Code != code {
		t.Errorf("expected %d, got %d", code, httpErr.Code)
	}
}

func jsonContext(e *echo.Echo, method, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func startDraft(t *testing.T, h *Handler, e *echo.Echo) DraftView {
	t.Helper()
	c, rec := jsonContext(e, http.MethodPost, `{"patient_id":"1","date":"2024-03-01"}`)
	if err := h.StartDraft(c); err != nil {
		t.Fatalf("start draft: %v", err)
	}
	var view DraftView
	json.Unmarshal(rec.Body.Bytes(), &view)
	return view
}

func TestHandler_StartDraft(t *testing.T) {
	h, e := newTestHandler()

	c, rec := jsonContext(e, http.MethodPost, `{"patient_id":"1"}`)
	ctx := auth.WithUser(c.Request().Context(), "3", "dentist", "dentist")
	c.SetRequest(c.Request().WithContext(ctx))

	if err := h.StartDraft(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var view DraftView
	json.Unmarshal(rec.Body.Bytes(), &view)
	if view.DentistName != "dentist" || view.Date != "2024-03-11" {
		t.Errorf("unexpected draft: %+v", view)
	}
}

func TestHandler_StartDraft_BadDate(t *testing.T) {
	h, e := newTestHandler()
	c, _ := jsonContext(e, http.MethodPost, `{"patient_id":"1","date":"tomorrow"}`)
	expectHTTPCode(t, h.StartDraft(c), http.StatusBadRequest)
}

func TestHandler_ToggleAndCustomItem(t *testing.T) {
	h, e := newTestHandler()
	draft := startDraft(t, h, e)

	c, rec := jsonContext(e, http.MethodPost, `{"item_id":"1"}`)
	c.SetParamNames("id", "kind")
	c.SetParamValues(draft.ID, "services")
	if err := h.Toggle(c); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	c, rec = jsonContext(e, http.MethodPost, `{"name":"Tẩy trắng","price":"2.000.000"}`)
	c.SetParamNames("id", "kind")
	c.SetParamValues(draft.ID, "services")
	if err := h.CreateCustomItem(c); err != nil {
		t.Fatalf("create custom item: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var created customItemResponse
	json.Unmarshal(rec.Body.Bytes(), &created)
	if created.Draft.GrandTotal != 2200000 {
		t.Errorf("expected 2200000, got %d", created.Draft.GrandTotal)
	}

	c, rec = jsonContext(e, http.MethodPut, `{"name":"Tẩy trắng","price":1800000}`)
	c.SetParamNames("id", "kind", "item_id")
	c.SetParamValues(draft.ID, "services", created.Item.ID)
	if err := h.UpdateCustomItem(c); err != nil {
		t.Fatalf("update custom item: %v", err)
	}
	var updated customItemResponse
	json.Unmarshal(rec.Body.Bytes(), &updated)
	if updated.Draft.GrandTotal != 2000000 || updated.Item.Price != 1800000 {
		t.Errorf("expected 2000000 after edit, got %d", updated.Draft.GrandTotal)
	}
}

func TestHandler_Errors(t *testing.T) {
	h, e := newTestHandler()
	draft := startDraft(t, h, e)

	tests := []struct {
		name   string
		call   func(echo.Context) error
		body   string
		params []string
		values []string
		want   int
	}{
		{"unknown kind", h.Toggle, `{"item_id":"1"}`, []string{"id", "kind"}, []string{draft.ID, "medicines"}, http.StatusNotFound},
		{"unknown item", h.Toggle, `{"item_id":"99"}`, []string{"id", "kind"}, []string{draft.ID, "services"}, http.StatusBadRequest},
		{"unknown draft", h.GetDraft, ``, []string{"id"}, []string{"nope"}, http.StatusNotFound},
		{"blank custom name", h.CreateCustomItem, `{"name":" ","price":1000}`, []string{"id", "kind"}, []string{draft.ID, "diseases"}, http.StatusBadRequest},
		{"fractional price", h.CreateCustomItem, `{"name":"X","price":10.5}`, []string{"id", "kind"}, []string{draft.ID, "diseases"}, http.StatusBadRequest},
		{"edit predefined", h.UpdateCustomItem, `{"name":"X","price":1000}`, []string{"id", "kind", "item_id"}, []string{draft.ID, "services", "1"}, http.StatusUnprocessableEntity},
		{"edit missing custom", h.UpdateCustomItem, `{"name":"X","price":1000}`, []string{"id", "kind", "item_id"}, []string{draft.ID, "services", "custom-x"}, http.StatusNotFound},
		{"save empty draft", h.SaveDraft, ``, []string{"id"}, []string{draft.ID}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := jsonContext(e, http.MethodPost, tt.body)
			c.SetParamNames(tt.params...)
			c.SetParamValues(tt.values...)
			expectHTTPCode(t, tt.call(c), tt.want)
		})
	}
}

func TestHandler_PatchDraft(t *testing.T) {
	h, e := newTestHandler()
	draft := startDraft(t, h, e)

	c, rec := jsonContext(e, http.MethodPatch, `{"medical_notes":"Ê buốt","dentist_name":"BS. Nguyễn Thị C"}`)
	c.SetParamNames("id")
	c.SetParamValues(draft.ID)
	if err := h.PatchDraft(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var view DraftView
	json.Unmarshal(rec.Body.Bytes(), &view)
	if view.MedicalNotes != "Ê buốt" || view.DentistName != "BS. Nguyễn Thị C" || view.PatientID != "1" {
		t.Errorf("unexpected draft: %+v", view)
	}
}

func TestHandler_SaveAndRead(t *testing.T) {
	h, e := newTestHandler()
	draft := startDraft(t, h, e)

	c, _ := jsonContext(e, http.MethodPost, `{"item_id":"4"}`)
	c.SetParamNames("id", "kind")
	c.SetParamValues(draft.ID, "diseases")
	if err := h.Toggle(c); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	c, rec := jsonContext(e, http.MethodPost, ``)
	c.SetParamNames("id")
	c.SetParamValues(draft.ID)
	if err := h.SaveDraft(c); err != nil {
		t.Fatalf("save: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var exam Examination
	json.Unmarshal(rec.Body.Bytes(), &exam)
	if exam.TotalCost != 800000 {
		t.Errorf("expected 800000, got %d", exam.TotalCost)
	}

	c, rec = jsonContext(e, http.MethodGet, ``)
	c.SetParamNames("id")
	c.SetParamValues(exam.ID)
	if err := h.GetExamination(c); err != nil {
		t.Fatalf("get: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/?limit=10", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	if err := h.ListPatientExaminations(c); err != nil {
		t.Fatalf("list: %v", err)
	}
	var body struct {
		Total int `json:"total"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Total != 3 {
		t.Errorf("expected 3 examinations for patient 1, got %d", body.Total)
	}

	c, _ = jsonContext(e, http.MethodDelete, ``)
	c.SetParamNames("id")
	c.SetParamValues(draft.ID)
	expectHTTPCode(t, h.CancelDraft(c), http.StatusNotFound)
}

func TestHandler_CancelDraft(t *testing.T) {
	h, e := newTestHandler()
	draft := startDraft(t, h, e)

	c, rec := jsonContext(e, http.MethodDelete, ``)
	c.SetParamNames("id")
	c.SetParamValues(draft.ID)
	if err := h.CancelDraft(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if h.drafts.Len() != 0 {
		t.Errorf("expected no open drafts, got %d", h.drafts.Len())
	}
}
