package report

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dentaldesk/clinic/internal/platform/apperr"
	"github.com/dentaldesk/clinic/internal/platform/auth"
	"github.com/dentaldesk/clinic/internal/platform/format"
	"github.com/dentaldesk/clinic/internal/session"
)

type Handler struct {
	svc *Service
	fmt *format.Formatter
}

// NewHandler renders display amounts with f.
func NewHandler(svc *Service, f *format.Formatter) *Handler {
	return &Handler{svc: svc, fmt: f}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/reports", auth.RequireRole(session.RoleAdmin, session.RoleStaff))
	g.GET("/summary", h.GetSummary)
}

type summaryResponse struct {
	*Summary
	Display map[string]string `json:"display"`
}

func (h *Handler) GetSummary(c echo.Context) error {
	r, err := h.svc.Range(c.QueryParam("period"), c.QueryParam("start"), c.QueryParam("end"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	sum, err := h.svc.Summary(c.Request().Context(), r)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	st := sum.Statistics
	return c.JSON(http.StatusOK, summaryResponse{
		Summary: sum,
		Display: map[string]string{
			"total_revenue":  h.fmt.Currency(st.TotalRevenue),
			"total_expenses": h.fmt.Currency(st.TotalExpenses),
			"profit":         h.fmt.Currency(st.Profit),
		},
	})
}
