package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/crm-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/crm-dashboard-api/pkg/errors"
	"github.com/noah-isme/crm-dashboard-api/pkg/response"
)

type dashboardService interface {
	Overview(ctx context.Context, branch string) models.AggregateSnapshot
	EmployeePerformance(ctx context.Context, email string) (*models.EmployeePerformance, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Overview godoc
// @Summary Aggregate overview
// @Description Headline counters for one branch or All. Counters that failed to load are listed under unavailable.
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Param branch query string false "Branch name or All"
// @Success 200 {object} response.Envelope
// @Router /dashboard/overview [get]
func (h *DashboardHandler) Overview(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	snapshot := h.service.Overview(c.Request.Context(), strings.TrimSpace(c.Query("branch")))
	var meta map[string]interface{}
	if len(snapshot.Unavailable) > 0 {
		meta = map[string]interface{}{"partial": true}
	}
	response.JSON(c, http.StatusOK, snapshot, meta)
}

// EmployeePerformance godoc
// @Summary Employee drill-down
// @Description Cases, reports and attendance counts for one staff member
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Param email query string true "Employee email"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /dashboard/employees/performance [get]
func (h *DashboardHandler) EmployeePerformance(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "email is required"))
		return
	}
	perf, err := h.service.EmployeePerformance(c.Request.Context(), email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, perf, nil)
}
