package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/trainhub/training-admin-api/internal/middleware"
	"github.com/trainhub/training-admin-api/internal/service"
	appErrors "github.com/trainhub/training-admin-api/pkg/errors"
	"github.com/trainhub/training-admin-api/pkg/response"
)

// LearningTopicHandler handles learning topic endpoints.
type LearningTopicHandler struct {
	service *service.LearningTopicService
}

// NewLearningTopicHandler creates a new learning topic handler.
func NewLearningTopicHandler(svc *service.LearningTopicService) *LearningTopicHandler {
	return &LearningTopicHandler{service: svc}
}

// List godoc
// @Summary List learning topics
// @Tags LearningTopics
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param active query bool false "Only active topics"
// @Success 200 {object} response.Envelope
// @Router /learning-topics [get]
func (h *LearningTopicHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size"))
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active", "false"))

	topics, pagination, err := h.service.List(c.Request.Context(), page, pageSize, activeOnly)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, topics, pagination)
}

// Create godoc
// @Summary Create learning topic
// @Tags LearningTopics
// @Accept json
// @Produce json
// @Param payload body service.LearningTopicRequest true "Learning topic payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /learning-topics [post]
func (h *LearningTopicHandler) Create(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.LearningTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	topic, err := h.service.Create(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, topic)
}

// Update godoc
// @Summary Update learning topic
// @Tags LearningTopics
// @Accept json
// @Produce json
// @Param id path string true "Learning topic ID"
// @Param payload body service.LearningTopicRequest true "Learning topic payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /learning-topics/{id} [put]
func (h *LearningTopicHandler) Update(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.LearningTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	topic, err := h.service.Update(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, topic, nil)
}

// Delete godoc
// @Summary Delete learning topic
// @Tags LearningTopics
// @Produce json
// @Param id path string true "Learning topic ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /learning-topics/{id} [delete]
func (h *LearningTopicHandler) Delete(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
