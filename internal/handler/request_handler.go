package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/escolaware/escola-api/internal/models"
	"github.com/escolaware/escola-api/internal/service"
	appErrors "github.com/escolaware/escola-api/pkg/errors"
	"github.com/escolaware/escola-api/pkg/response"
)

// RequestHandler handles purchase and print request workflows.
type RequestHandler struct {
	service *service.RequestService
}

// NewRequestHandler constructs a request handler.
func NewRequestHandler(svc *service.RequestService) *RequestHandler {
	return &RequestHandler{service: svc}
}

func requestFilterFromQuery(c *gin.Context, schoolID string) models.RequestFilter {
	var filter models.RequestFilter
	filter.SchoolID = schoolID
	filter.RequesterID = c.Query("requesterId")
	filter.Status = models.RequestStatus(c.Query("status"))
	filter.Page, filter.PageSize = pageParams(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")
	return filter
}

// ListPurchaseRequests godoc
// @Summary List purchase requests
// @Tags Requests
// @Produce json
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /requests/purchases [get]
func (h *RequestHandler) ListPurchaseRequests(c *gin.Context) {
	account, ok := mustAccount(c)
	if !ok {
		return
	}
	requests, pagination, err := h.service.ListPurchaseRequests(c.Request.Context(), requestFilterFromQuery(c, account.SchoolID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, pagination)
}

// GetPurchaseRequest godoc
// @Summary Get purchase request by id
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /requests/purchases/{id} [get]
func (h *RequestHandler) GetPurchaseRequest(c *gin.Context) {
	account, ok := mustAccount(c)
	if !ok {
		return
	}
	request, err := h.service.GetPurchaseRequest(c.Request.Context(), account.SchoolID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// CreatePurchaseRequest godoc
// @Summary Create purchase request
// @Tags Requests
// @Accept json
// @Produce json
// @Param payload body service.CreatePurchaseRequestRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Router /requests/purchases [post]
func (h *RequestHandler) CreatePurchaseRequest(c *gin.Context) {
	account, ok := mustAccount(c)
	if !ok {
		return
	}
	var req service.CreatePurchaseRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.service.CreatePurchaseRequest(c.Request.Context(), account.SchoolID, account.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// TransitionPurchaseRequest godoc
// @Summary Move a purchase request to a new status
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body service.TransitionRequest true "Transition payload"
// @Success 200 {object} response.Envelope
// @Router /requests/purchases/{id}/status [patch]
func (h *RequestHandler) TransitionPurchaseRequest(c *gin.Context) {
	account, ok := mustAccount(c)
	if !ok {
		return
	}
	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.service.TransitionPurchaseRequest(c.Request.Context(), account.SchoolID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// DeletePurchaseRequest godoc
// @Summary Delete a purchase request still in REQUESTED state
// @Tags Requests
// @Param id path string true "Request ID"
// @Success 204
// @Router /requests/purchases/{id} [delete]
func (h *RequestHandler) DeletePurchaseRequest(c *gin.Context) {
	account, ok := mustAccount(c)
	if !ok {
		return
	}
	if err := h.service.DeletePurchaseRequest(c.Request.Context(), account.SchoolID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListPrintRequests godoc
// @Summary List print requests
// @Tags Requests
// @Produce json
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /requests/prints [get]
func (h *RequestHandler) ListPrintRequests(c *gin.Context) {
	account, ok := mustAccount(c)
	if !ok {
		return
	}
	requests, pagination, err := h.service.ListPrintRequests(c.Request.Context(), requestFilterFromQuery(c, account.SchoolID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, pagination)
}

// GetPrintRequest godoc
// @Summary Get print request by id
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /requests/prints/{id} [get]
func (h *RequestHandler) GetPrintRequest(c *gin.Context) {
	account, ok := mustAccount(c)
	if !ok {
		return
	}
	request, err := h.service.GetPrintRequest(c.Request.Context(), account.SchoolID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// CreatePrintRequest godoc
// @Summary Create print request
// @Tags Requests
// @Accept json
// @Produce json
// @Param payload body service.CreatePrintRequestRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Router /requests/prints [post]
func (h *RequestHandler) CreatePrintRequest(c *gin.Context) {
	account, ok := mustAccount(c)
	if !ok {
		return
	}
	var req service.CreatePrintRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.service.CreatePrintRequest(c.Request.Context(), account.SchoolID, account.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// TransitionPrintRequest godoc
// @Summary Move a print request to a new status
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body service.TransitionRequest true "Transition payload"
// @Success 200 {object} response.Envelope
// @Router /requests/prints/{id}/status [patch]
func (h *RequestHandler) TransitionPrintRequest(c *gin.Context) {
	account, ok := mustAccount(c)
	if !ok {
		return
	}
	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.service.TransitionPrintRequest(c.Request.Context(), account.SchoolID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// DeletePrintRequest godoc
// @Summary Delete a print request still in REQUESTED state
// @Tags Requests
// @Param id path string true "Request ID"
// @Success 204
// @Router /requests/prints/{id} [delete]
func (h *RequestHandler) DeletePrintRequest(c *gin.Context) {
	account, ok := mustAccount(c)
	if !ok {
		return
	}
	if err := h.service.DeletePrintRequest(c.Request.Context(), account.SchoolID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
