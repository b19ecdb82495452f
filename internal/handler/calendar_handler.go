package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/escolaware/escola-api/internal/dto"
	"github.com/escolaware/escola-api/internal/service"
	appErrors "github.com/escolaware/escola-api/pkg/errors"
	"github.com/escolaware/escola-api/pkg/response"
)

// CalendarHandler handles timetable generation and calendar endpoints.
type CalendarHandler struct {
	service *service.CalendarService
}

// NewCalendarHandler constructs a calendar handler.
func NewCalendarHandler(svc *service.CalendarService) *CalendarHandler {
	return &CalendarHandler{service: svc}
}

// Generate godoc
// @Summary Generate a timetable proposal
// @Tags Calendars
// @Accept json
// @Produce json
// @Param payload body dto.GenerateCalendarRequest true "Generation parameters"
// @Success 200 {object} response.Envelope{data=dto.GenerateCalendarResponse}
// @Router /calendars/generate [post]
func (h *CalendarHandler) Generate(c *gin.Context) {
	account, ok := mustAccount(c)
	if !ok {
		return
	}
	var req dto.GenerateCalendarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.SchoolID = account.SchoolID
	proposal, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}

// Save godoc
// @Summary Persist a generated proposal as a calendar version
// @Tags Calendars
// @Accept json
// @Produce json
// @Param payload body dto.SaveCalendarRequest true "Proposal reference"
// @Success 201 {object} response.Envelope
// @Router /calendars [post]
func (h *CalendarHandler) Save(c *gin.Context) {
	account, ok := mustAccount(c)
	if !ok {
		return
	}
	var req dto.SaveCalendarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.SchoolID = account.SchoolID
	id, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"id": id})
}

// List godoc
// @Summary List calendar versions for a class and period
// @Tags Calendars
// @Produce json
// @Param classId query string true "Class ID"
// @Param periodId query string true "Academic period ID"
// @Success 200 {object} response.Envelope
// @Router /calendars [get]
func (h *CalendarHandler) List(c *gin.Context) {
	account, ok := mustAccount(c)
	if !ok {
		return
	}
	query := dto.CalendarQuery{
		ClassID:          c.Query("classId"),
		AcademicPeriodID: c.Query("periodId"),
	}
	calendars, err := h.service.List(c.Request.Context(), account.SchoolID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, calendars, nil)
}

// Slots godoc
// @Summary List the slots of a calendar version
// @Tags Calendars
// @Produce json
// @Param id path string true "Calendar ID"
// @Success 200 {object} response.Envelope
// @Router /calendars/{id}/slots [get]
func (h *CalendarHandler) Slots(c *gin.Context) {
	account, ok := mustAccount(c)
	if !ok {
		return
	}
	slots, err := h.service.GetSlots(c.Request.Context(), account.SchoolID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Delete godoc
// @Summary Delete a draft calendar version
// @Tags Calendars
// @Param id path string true "Calendar ID"
// @Success 204
// @Router /calendars/{id} [delete]
func (h *CalendarHandler) Delete(c *gin.Context) {
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
