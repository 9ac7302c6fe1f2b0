package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trainhub/training-admin-api/internal/middleware"
	"github.com/trainhub/training-admin-api/internal/service"
	appErrors "github.com/trainhub/training-admin-api/pkg/errors"
	"github.com/trainhub/training-admin-api/pkg/response"
)

// ActivityHandler serves the activity feed endpoints.
type ActivityHandler struct {
	service *service.ActivityService
}

// NewActivityHandler creates a new activity handler.
func NewActivityHandler(svc *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{service: svc}
}

// Recent godoc
// @Summary Recent activities
// @Description Latest activities addressed to the caller; listed entries are marked read
// @Tags Activities
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /activities [get]
func (h *ActivityHandler) Recent(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	activities, err := h.service.Recent(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, activities, nil)
}

// UnreadCount godoc
// @Summary Unread activity count
// @Description Number of unread activities for the caller since the start of the day
// @Tags Activities
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /activities/unread-count [get]
func (h *ActivityHandler) UnreadCount(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	count, err := h.service.UnreadCount(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"unread": count}, nil)
}
