package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/strove-app/strove/internal/dtos"
	"github.com/strove-app/strove/internal/services"
)

type AuthHandler struct {
	AuthService *services.AuthService
}

func NewAuthHandler(s *services.AuthService) *AuthHandler {
	return &AuthHandler{AuthService: s}
}

// SignUp is the POST /api/auth/signup endpoint
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req dtos.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	token, user, err := h.AuthService.SignUp(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dtos.AuthResponse{Token: token, User: user})
}

// SignIn is the POST /api/auth/signin endpoint
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req dtos.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	token, user, err := h.AuthService.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.AuthResponse{Token: token, User: user})
}
