package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/escolaware/escola-api/internal/middleware"
	"github.com/escolaware/escola-api/internal/models"
	"github.com/escolaware/escola-api/internal/service"
	appErrors "github.com/escolaware/escola-api/pkg/errors"
	"github.com/escolaware/escola-api/pkg/response"
)

// CanteenHandler handles canteen items, purchases and spending limits.
type CanteenHandler struct {
	service *service.CanteenService
}

// NewCanteenHandler constructs a canteen handler.
func NewCanteenHandler(svc *service.CanteenService) *CanteenHandler {
	return &CanteenHandler{service: svc}
}

// SetLimitRequest sets or clears a student's monthly spending cap.
type SetLimitRequest struct {
	LimitCents *int64 `json:"limit_cents"`
}

// ListItems godoc
// @Summary List canteen items
// @Tags Canteen
// @Produce json
// @Param search query string false "Search keyword"
// @Param active query bool false "Filter by active state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /canteen/items [get]
func (h *CanteenHandler) ListItems(c *gin.Context) {
	account, ok := mustAccount(c)
	if !ok {
		return
	}
	var filter models.CanteenItemFilter
	filter.SchoolID = account.SchoolID
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Active = boolQuery(c, "active")
	filter.Page, filter.PageSize = pageParams(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	items, pagination, err := h.service.ListItems(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// GetItem godoc
// @Summary Get canteen item by id
// @Tags Canteen
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Router /canteen/items/{id} [get]
func (h *CanteenHandler) GetItem(c *gin.Context) {
	account, ok := mustAccount(c)
	if !ok {
		return
	}
	item, err := h.service.GetItem(c.Request.Context(), account.SchoolID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// CreateItem godoc
// @Summary Create canteen item
// @Tags Canteen
// @Accept json
// @Produce json
// @Param payload body service.CreateCanteenItemRequest true "Item payload"
// @Success 201 {object} response.Envelope
// @Router /canteen/items [post]
func (h *CanteenHandler) CreateItem(c *gin.Context) {
	account, ok := mustAccount(c)
	if !ok {
		return
	}
	var req service.CreateCanteenItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.service.CreateItem(c.Request.Context(), account.SchoolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// UpdateItem godoc
// @Summary Update canteen item
// @Tags Canteen
// @Accept json
// @Produce json
// @Param id path string true "Item ID"
// @Param payload body service.UpdateCanteenItemRequest true "Item payload"
// @Success 200 {object} response.Envelope
// @Router /canteen/items/{id} [put]
func (h *CanteenHandler) UpdateItem(c *gin.Context) {
	account, ok := mustAccount(c)
	if !ok {
		return
	}
	var req service.UpdateCanteenItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.service.UpdateItem(c.Request.Context(), account.SchoolID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// DeleteItem godoc
// @Summary Delete canteen item
// @Tags Canteen
// @Param id path string true "Item ID"
// @Success 204
// @Router /canteen/items/{id} [delete]
func (h *CanteenHandler) DeleteItem(c *gin.Context) {
	account, ok := mustAccount(c)
	if !ok {
		return
	}
	if err := h.service.DeleteItem(c.Request.Context(), account.SchoolID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListPurchases godoc
// @Summary List canteen purchases
// @Tags Canteen
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param itemId query string false "Filter by item"
// @Param month query string false "Month filter (YYYY-MM)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /canteen/purchases [get]
func (h *CanteenHandler) ListPurchases(c *gin.Context) {
	account, ok := mustAccount(c)
	if !ok {
		return
	}
	var filter models.CanteenPurchaseFilter
	filter.SchoolID = account.SchoolID
	filter.StudentID = c.Query("studentId")
	filter.ItemID = c.Query("itemId")
	if raw := c.Query("month"); raw != "" {
		ref, err := time.Parse("2006-01", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "month must be YYYY-MM"))
			return
		}
		filter.Month = &ref
	}
	filter.Page, filter.PageSize = pageParams(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	purchases, pagination, err := h.service.ListPurchases(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, purchases, pagination)
}

// RecordPurchase godoc
// @Summary Record a canteen purchase
// @Tags Canteen
// @Accept json
// @Produce json
// @Param payload body service.CreatePurchaseRequest true "Purchase payload"
// @Success 201 {object} response.Envelope
// @Router /canteen/purchases [post]
func (h *CanteenHandler) RecordPurchase(c *gin.Context) {
	account, ok := mustAccount(c)
	if !ok {
		return
	}
	var req service.CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	purchase, err := h.service.RecordPurchase(c.Request.Context(), account.SchoolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, purchase)
}

// Standings godoc
// @Summary Students still below their monthly cap
// @Tags Canteen
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /canteen/standings [get]
func (h *CanteenHandler) Standings(c *gin.Context) {
	account, ok := mustAccount(c)
	if !ok {
		return
	}
	standings, err := h.service.Standings(c.Request.Context(), account.SchoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.AddMeta(c, "count", len(standings))
	response.JSON(c, http.StatusOK, standings, nil, middleware.ExtractMeta(c))
}

// SetStudentLimit godoc
// @Summary Set or clear a student's monthly canteen cap
// @Tags Canteen
// @Accept json
// @Param id path string true "Student ID"
// @Param payload body SetLimitRequest true "Limit payload"
// @Success 204
// @Router /students/{id}/canteen-limit [put]
func (h *CanteenHandler) SetStudentLimit(c *gin.Context) {
	account, ok := mustAccount(c)
	if !ok {
		return
	}
	var req SetLimitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.SetStudentLimit(c.Request.Context(), account.SchoolID, c.Param("id"), req.LimitCents); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
