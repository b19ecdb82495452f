package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escolaware/escola-api/internal/middleware"
	"github.com/escolaware/escola-api/internal/models"
)

func newGinContext(method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, target, nil)
	c.Request = req
	return c, w
}

func TestPageParamsDefaults(t *testing.T) {
	c, _ := newGinContext(http.MethodGet, "/students")
	page, limit := pageParams(c)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, limit)
}

func TestPageParamsParsed(t *testing.T) {
	c, _ := newGinContext(http.MethodGet, "/students?page=3&limit=50")
	page, limit := pageParams(c)
	assert.Equal(t, 3, page)
	assert.Equal(t, 50, limit)
}

func TestPageParamsMalformed(t *testing.T) {
	c, _ := newGinContext(http.MethodGet, "/students?page=abc&limit=-")
	page, limit := pageParams(c)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, limit)
}

func TestBoolQuery(t *testing.T) {
	c, _ := newGinContext(http.MethodGet, "/teachers?active=true&broken=maybe")

	active := boolQuery(c, "active")
	require.NotNil(t, active)
	assert.True(t, *active)

	assert.Nil(t, boolQuery(c, "missing"))
	assert.Nil(t, boolQuery(c, "broken"))
}

func TestMustAccountUnauthorized(t *testing.T) {
	c, w := newGinContext(http.MethodGet, "/auth/me")

	account, ok := mustAccount(c)
	assert.Nil(t, account)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMustAccountResolved(t *testing.T) {
	c, _ := newGinContext(http.MethodGet, "/auth/me")
	c.Set(middleware.ContextAccountKey, &models.Account{
		UserID:   "user-1",
		SchoolID: "school-1",
		Role:     models.RoleAdmin,
	})

	account, ok := mustAccount(c)
	require.True(t, ok)
	assert.Equal(t, "school-1", account.SchoolID)
}
