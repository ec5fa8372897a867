package catalog

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dentaldesk/clinic/internal/platform/apperr"
	"github.com/dentaldesk/clinic/internal/platform/auth"
	"github.com/dentaldesk/clinic/internal/platform/format"
	"github.com/dentaldesk/clinic/internal/session"
	"github.com/dentaldesk/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/catalog/:kind", h.ListItems)
	api.GET("/catalog/:kind/:id", h.GetItem)

	admin := api.Group("", auth.RequireRole(session.RoleAdmin))
	admin.POST("/catalog/:kind", h.CreateItem)
	admin.PUT("/catalog/:kind/:id", h.UpdateItem)
}

// itemRequest is the writable subset of Item. IsActive is a pointer so an
// update that omits it keeps the item active.
type itemRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Price       format.Amount `json:"price"`
	IsActive    *bool   `json:"is_active"`
}

func kindParam(c echo.Context) (Kind, error) {
	kind, err := ParseKind(c.Param("kind"))
	if err != nil {
		return "", echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return kind, nil
}

func (h *Handler) ListItems(c echo.Context) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), kind, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetItem(c echo.Context) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}
	it, err := h.svc.Get(c.Request().Context(), kind, c.Param("id"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, it)
}

func (h *Handler) CreateItem(c echo.Context) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}
	var req itemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	it := &Item{Kind: kind, Name: req.Name, Description: req.Description, Price: int64(req.Price)}
	if err := h.svc.Create(c.Request().Context(), it); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, it)
}

func (h *Handler) UpdateItem(c echo.Context) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}
	var req itemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	it := &Item{
		ID:          c.Param("id"),
		Kind:        kind,
		Name:        req.Name,
		Description: req.Description,
		Price:       int64(req.Price),
		IsActive:    req.IsActive == nil || *req.IsActive,
	}
	if err := h.svc.Update(c.Request().Context(), it); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, it)
}
