package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trainhub/training-admin-api/internal/middleware"
	"github.com/trainhub/training-admin-api/internal/service"
	appErrors "github.com/trainhub/training-admin-api/pkg/errors"
	"github.com/trainhub/training-admin-api/pkg/response"
)

// ExportHandler handles session export and import endpoints.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler creates a new export handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Export godoc
// @Summary Export sessions
// @Description Download scheduled sessions as xlsx, csv or pdf
// @Tags Sessions
// @Produce octet-stream
// @Param format query string false "Export format: xlsx, csv or pdf"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /sessions/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	doc, err := h.service.Export(c.Request.Context(), caller, c.DefaultQuery("format", "xlsx"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	c.Data(http.StatusOK, doc.ContentType, doc.Content)
}

// Import godoc
// @Summary Import sessions
// @Description Upload an xlsx workbook of sessions; rows are created or updated by topic and conductor
// @Tags Sessions
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Workbook file"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sessions/import [post]
func (h *ExportHandler) Import(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "missing file upload"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "could not open upload"))
		return
	}
	defer file.Close()

	report, err := h.service.Import(c.Request.Context(), caller, file)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, report, nil)
}
