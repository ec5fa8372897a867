package expense

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

// RegisterRoutes mounts the expense routes; dentists do not see the books.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/expenses", auth.RequireRole(session.RoleAdmin, session.RoleStaff))
	g.GET("", h.ListExpenses)
	g.GET("/categories", h.ListCategories)
	g.GET("/:id", h.GetExpense)
	g.POST("", h.CreateExpense)
}

type expenseRequest struct {
	Description string        `json:"description"`
	Amount      format.Amount `json:"amount"`
	Category    string        `json:"category"`
	Date        string        `json:"date"`
}

type listResponse struct {
	*pagination.Response
	TotalAmount int64 `json:"total_amount"`
}

func (h *Handler) ListExpenses(c echo.Context) error {
	pg := pagination.FromContext(c)
	page, err := h.svc.Search(c.Request().Context(), c.QueryParam("q"), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, listResponse{
		Response:    pagination.NewResponse(page.Expenses, page.Total, pg.Limit, pg.Offset),
		TotalAmount: page.TotalAmount,
	})
}

func (h *Handler) ListCategories(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]string{"categories": Categories})
}

func (h *Handler) GetExpense(c echo.Context) error {
	e, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) CreateExpense(c echo.Context) error {
	var req expenseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e := &Expense{
		Description: req.Description,
		Amount:      int64(req.Amount),
		Category:    req.Category,
		Date:        req.Date,
	}
	if err := h.svc.Create(c.Request().Context(), e); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, e)
}
