package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trainhub/training-admin-api/internal/middleware"
	"github.com/trainhub/training-admin-api/internal/service"
	appErrors "github.com/trainhub/training-admin-api/pkg/errors"
	"github.com/trainhub/training-admin-api/pkg/response"
)

// DashboardHandler serves the role-scoped dashboard.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Get godoc
// @Summary Dashboard
// @Description Staff callers receive the organization-wide summary; others a personal one
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	payload, cached, err := h.service.Build(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, payload, nil, map[string]interface{}{"cached": cached})
}
