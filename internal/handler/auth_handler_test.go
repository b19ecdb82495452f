package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escolaware/escola-api/internal/middleware"
	"github.com/escolaware/escola-api/internal/models"
)

func TestAuthHandlerMe(t *testing.T) {
	c, w := newGinContext(http.MethodGet, "/auth/me")
	c.Set(middleware.ContextAccountKey, &models.Account{
		UserID:   "user-1",
		SchoolID: "school-1",
		Email:    "ana@escola.test",
		Role:     models.RoleDirector,
	})

	NewAuthHandler().Me(c)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data models.Account `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "user-1", body.Data.UserID)
	assert.Equal(t, models.RoleDirector, body.Data.Role)
}

func TestAuthHandlerMeAnonymous(t *testing.T) {
	c, w := newGinContext(http.MethodGet, "/auth/me")

	NewAuthHandler().Me(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
