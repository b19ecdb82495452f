package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/escolaware/escola-api/internal/service"
	"github.com/escolaware/escola-api/pkg/response"
)

// ExportHandler serves synchronous spreadsheet exports.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler constructs an export handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Students godoc
// @Summary Export the student roster as a spreadsheet
// @Tags Exports
// @Produce json
// @Success 200 {object} response.Envelope{data=dto.SpreadsheetExport}
// @Router /exports/students [get]
func (h *ExportHandler) Students(c *gin.Context) {
	account, ok := mustAccount(c)
	if !ok {
		return
	}
	export, err := h.service.StudentsSpreadsheet(c.Request.Context(), account.SchoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, export, nil)
}
