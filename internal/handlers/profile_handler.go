package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/strove-app/strove/internal/dtos"
	"github.com/strove-app/strove/internal/middleware"
	"github.com/strove-app/strove/internal/services"
)

type ProfileHandler struct {
	ProfileService *services.ProfileService
}

func NewProfileHandler(s *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{ProfileService: s}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := h.ProfileService.GetProfile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var req dtos.ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	ctx := c.Request.Context()
	id := middleware.UserID(c)

	// the email is owned by the account and never taken from the body
	email := ""
	if existing, err := h.ProfileService.GetProfile(ctx, id); err == nil {
		email = existing.Email
	}
	profile, err := h.ProfileService.UpsertProfile(ctx, id, email, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) SaveOnboarding(c *gin.Context) {
	var req dtos.OnboardingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	profile, err := h.ProfileService.SaveOnboarding(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) GetUser(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	profile, err := h.ProfileService.PublicProfile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) Follow(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.ProfileService.Follow(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"following": true})
}

func (h *ProfileHandler) Unfollow(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.ProfileService.Unfollow(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": false})
}

func (h *ProfileHandler) FollowStats(c *gin.Context) {
	stats, err := h.ProfileService.FollowStats(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
