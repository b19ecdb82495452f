package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/escolaware/escola-api/internal/middleware"
	"github.com/escolaware/escola-api/internal/models"
	appErrors "github.com/escolaware/escola-api/pkg/errors"
	"github.com/escolaware/escola-api/pkg/response"
)

func accountFromContext(c *gin.Context) *models.Account {
	return middleware.CurrentAccount(c)
}

// mustAccount aborts with 401 when no account was resolved for the
// request. Routes behind the auth middleware always have one.
func mustAccount(c *gin.Context) (*models.Account, bool) {
	account := middleware.CurrentAccount(c)
	if account == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return account, true
}

// pageParams reads the common page/limit query parameters.
func pageParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		limit = 20
	}
	return page, limit
}

// boolQuery parses an optional boolean query parameter, nil when absent
// or malformed.
func boolQuery(c *gin.Context, name string) *bool {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &value
}

func requestMeta(c *gin.Context) models.RequestMeta {
	return models.RequestMeta{
		IP:        c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}
}
