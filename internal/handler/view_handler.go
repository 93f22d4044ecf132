package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/crm-dashboard-api/internal/dto"
	"github.com/noah-isme/crm-dashboard-api/internal/middleware"
	"github.com/noah-isme/crm-dashboard-api/internal/models"
	"github.com/noah-isme/crm-dashboard-api/pkg/response"
)

type viewService interface {
	Dispatch(ctx context.Context, session *models.Session, branch string) (*dto.ViewResponse, error)
}

// ViewHandler renders the role specific landing view.
type ViewHandler struct {
	service viewService
}

// NewViewHandler constructs the handler.
func NewViewHandler(svc viewService) *ViewHandler {
	return &ViewHandler{service: svc}
}

// View godoc
// @Summary Role view
// @Description Resolves the caller once and renders the teacher, counselor or admin view. Anonymous callers get the "other" view.
// @Tags View
// @Produce json
// @Param branch query string false "Branch for the admin overview"
// @Success 200 {object} response.Envelope
// @Router /view [get]
func (h *ViewHandler) View(c *gin.Context) {
	view, err := h.service.Dispatch(c.Request.Context(), middleware.SessionFromContext(c), strings.TrimSpace(c.Query("branch")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
