package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/escolaware/escola-api/internal/models"
	"github.com/escolaware/escola-api/internal/service"
	appErrors "github.com/escolaware/escola-api/pkg/errors"
	"github.com/escolaware/escola-api/pkg/response"
)

// PeiHandler handles individual education plan endpoints.
type PeiHandler struct {
	service *service.PeiService
}

// NewPeiHandler constructs a PEI handler.
func NewPeiHandler(svc *service.PeiService) *PeiHandler {
	return &PeiHandler{service: svc}
}

// List godoc
// @Summary List individual education plans
// @Tags PEI
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /peis [get]
func (h *PeiHandler) List(c *gin.Context) {
	account, ok := mustAccount(c)
	if !ok {
		return
	}
	var filter models.PeiFilter
	filter.SchoolID = account.SchoolID
	filter.StudentID = c.Query("studentId")
	filter.Page, filter.PageSize = pageParams(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	plans, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plans, pagination)
}

// Get godoc
// @Summary Get plan by id
// @Tags PEI
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} response.Envelope
// @Router /peis/{id} [get]
func (h *PeiHandler) Get(c *gin.Context) {
	account, ok := mustAccount(c)
	if !ok {
		return
	}
	plan, err := h.service.Get(c.Request.Context(), account.SchoolID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// Create godoc
// @Summary Create plan
// @Tags PEI
// @Accept json
// @Produce json
// @Param payload body service.CreatePeiRequest true "Plan payload"
// @Success 201 {object} response.Envelope
// @Router /peis [post]
func (h *PeiHandler) Create(c *gin.Context) {
	account, ok := mustAccount(c)
	if !ok {
		return
	}
	var req service.CreatePeiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	plan, err := h.service.Create(c.Request.Context(), account.SchoolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, plan)
}

// Update godoc
// @Summary Update plan
// @Tags PEI
// @Accept json
// @Produce json
// @Param id path string true "Plan ID"
// @Param payload body service.UpdatePeiRequest true "Plan payload"
// @Success 200 {object} response.Envelope
// @Router /peis/{id} [put]
func (h *PeiHandler) Update(c *gin.Context) {
	account, ok := mustAccount(c)
	if !ok {
		return
	}
	var req service.UpdatePeiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	plan, err := h.service.Update(c.Request.Context(), account.SchoolID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// Delete godoc
// @Summary Delete plan
// @Tags PEI
// @Param id path string true "Plan ID"
// @Success 204
// @Router /peis/{id} [delete]
func (h *PeiHandler) Delete(c *gin.Context) {
	account, ok := mustAccount(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), account.SchoolID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
