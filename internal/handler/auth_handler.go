package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/escolaware/escola-api/pkg/response"
)

// AuthHandler exposes the session introspection endpoint. Sign-in and
// credentials live with the hosted identity provider.
type AuthHandler struct{}

// NewAuthHandler constructs an auth handler.
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// Me godoc
// @Summary Current account
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	account, ok := mustAccount(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, account, nil)
}
