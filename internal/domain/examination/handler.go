package examination

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dentaldesk/clinic/internal/domain/catalog"
	"github.com/dentaldesk/clinic/internal/platform/apperr"
	"github.com/dentaldesk/clinic/internal/platform/auth"
	"github.com/dentaldesk/clinic/internal/platform/format"
	"github.com/dentaldesk/clinic/internal/session"
	"github.com/dentaldesk/clinic/pkg/pagination"
)

type Handler struct {
	svc    *Service
	drafts *DraftService
}

func NewHandler(svc *Service, drafts *DraftService) *Handler {
	return &Handler{svc: svc, drafts: drafts}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/examination-drafts", h.StartDraft)
	api.GET("/examination-drafts/:id", h.GetDraft)
	api.PATCH("/examination-drafts/:id", h.PatchDraft)
	api.DELETE("/examination-drafts/:id", h.CancelDraft)
	api.POST("/examination-drafts/:id/save", h.SaveDraft)
	api.POST("/examination-drafts/:id/:kind/toggle", h.Toggle)
	api.DELETE("/examination-drafts/:id/:kind/selected/:item_id", h.RemoveSelection)
	api.POST("/examination-drafts/:id/:kind/custom", h.CreateCustomItem)
	api.PUT("/examination-drafts/:id/:kind/custom/:item_id", h.UpdateCustomItem)

	api.GET("/examinations", h.ListExaminations)
	api.GET("/examinations/:id", h.GetExamination)
	api.GET("/patients/:id/examinations", h.ListPatientExaminations)
}

type startRequest struct {
	PatientID   string `json:"patient_id"`
	Date        string `json:"date"`
	DentistName string `json:"dentist_name"`
}

// patchRequest updates only the fields present in the body.
type patchRequest struct {
	PatientID    *string `json:"patient_id"`
	Date         *string `json:"date"`
	MedicalNotes *string `json:"medical_notes"`
	DentistName  *string `json:"dentist_name"`
}

type toggleRequest struct {
	ItemID string `json:"item_id"`
}

type customItemRequest struct {
	Name  string        `json:"name"`
	Price format.Amount `json:"price"`
}

type customItemResponse struct {
	Item  catalog.Item `json:"item"`
	Draft DraftView    `json:"draft"`
}

func kindParam(c echo.Context) (catalog.Kind, error) {
	kind, err := catalog.ParseKind(c.Param("kind"))
	if err != nil {
		return "", echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return kind, nil
}

func bindBody(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// dentistFor attributes the examination to the caller when they are a
// dentist, falling back to their username for the display name.
func dentistFor(c echo.Context, name string) (string, string) {
	ctx := c.Request().Context()
	if auth.RoleFromContext(ctx) != string(session.RoleDentist) {
		return "", name
	}
	if name == "" {
		name = auth.UsernameFromContext(ctx)
	}
	return auth.UserIDFromContext(ctx), name
}

func (h *Handler) StartDraft(c echo.Context) error {
	var req startRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	view, err := h.drafts.Start(c.Request().Context(), req.PatientID, req.Date)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	dentistID, dentistName := dentistFor(c, req.DentistName)
	if dentistID != "" || dentistName != "" {
		if view, err = h.drafts.SetDentist(view.ID, dentistID, dentistName); err != nil {
			return apperr.ToHTTP(err)
		}
	}
	return c.JSON(http.StatusCreated, view)
}

func (h *Handler) GetDraft(c echo.Context) error {
	view, err := h.drafts.Get(c.Param("id"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) PatchDraft(c echo.Context) error {
	var req patchRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	id := c.Param("id")
	view, err := h.drafts.Get(id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if req.PatientID != nil {
		if view, err = h.drafts.SetPatient(id, *req.PatientID); err != nil {
			return apperr.ToHTTP(err)
		}
	}
	if req.Date != nil {
		if view, err = h.drafts.SetDate(id, *req.Date); err != nil {
			return apperr.ToHTTP(err)
		}
	}
	if req.MedicalNotes != nil {
		if view, err = h.drafts.SetNotes(id, *req.MedicalNotes); err != nil {
			return apperr.ToHTTP(err)
		}
	}
	if req.DentistName != nil {
		dentistID, dentistName := dentistFor(c, *req.DentistName)
		if view, err = h.drafts.SetDentist(id, dentistID, dentistName); err != nil {
			return apperr.ToHTTP(err)
		}
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) CancelDraft(c echo.Context) error {
	if err := h.drafts.Cancel(c.Param("id")); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SaveDraft(c echo.Context) error {
	exam, err := h.drafts.Save(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, exam)
}

func (h *Handler) Toggle(c echo.Context) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}
	var req toggleRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	view, err := h.drafts.Toggle(c.Param("id"), kind, req.ItemID)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) RemoveSelection(c echo.Context) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}
	view, err := h.drafts.RemoveSelection(c.Param("id"), kind, c.Param("item_id"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) CreateCustomItem(c echo.Context) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}
	var req customItemRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	item, view, err := h.drafts.CreateCustomItem(c.Param("id"), kind, req.Name, int64(req.Price))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, customItemResponse{Item: item, Draft: view})
}

func (h *Handler) UpdateCustomItem(c echo.Context) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}
	var req customItemRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	item, view, err := h.drafts.UpdateCustomItem(c.Param("id"), kind, c.Param("item_id"), req.Name, int64(req.Price))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, customItemResponse{Item: item, Draft: view})
}

func (h *Handler) ListExaminations(c echo.Context) error {
	pg := pagination.FromContext(c)
	exams, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(exams, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetExamination(c echo.Context) error {
	exam, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, exam)
}

func (h *Handler) ListPatientExaminations(c echo.Context) error {
	pg := pagination.FromContext(c)
	exams, total, err := h.svc.ListByPatient(c.Request().Context(), c.Param("id"), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(exams, total, pg.Limit, pg.Offset))
}
