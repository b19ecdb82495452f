package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/escolaware/escola-api/internal/models"
)

func performRBACRequest(t *testing.T, account *models.Account, path string, allowed ...string) int {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/users/:id", func(c *gin.Context) {
		if account != nil {
			c.Set(ContextAccountKey, account)
		}
		c.Next()
	}, RBAC(allowed...), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w.Code
}

func TestRBACAllowsMatchingRole(t *testing.T) {
	account := &models.Account{UserID: "user-1", Role: models.RoleDirector}
	code := performRBACRequest(t, account, "/users/user-2", "ADMIN", "DIRECTOR")
	assert.Equal(t, http.StatusOK, code)
}

func TestRBACRejectsOtherRole(t *testing.T) {
	account := &models.Account{UserID: "user-1", Role: models.RoleStudent}
	code := performRBACRequest(t, account, "/users/user-2", "ADMIN", "DIRECTOR")
	assert.Equal(t, http.StatusForbidden, code)
}

func TestRBACAllowsSelf(t *testing.T) {
	account := &models.Account{UserID: "user-1", Role: models.RoleStudent}
	code := performRBACRequest(t, account, "/users/user-1", "ADMIN", "SELF")
	assert.Equal(t, http.StatusOK, code)
}

func TestRBACRejectsAnonymous(t *testing.T) {
	code := performRBACRequest(t, nil, "/users/user-1", "ADMIN")
	assert.Equal(t, http.StatusUnauthorized, code)
}
