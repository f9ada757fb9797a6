package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/strove-app/strove/internal/dtos"
	"github.com/strove-app/strove/internal/middleware"
	"github.com/strove-app/strove/internal/services"
)

type ApplicationHandler struct {
	ApplicationService *services.ApplicationService
}

func NewApplicationHandler(s *services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{ApplicationService: s}
}

// Apply is the POST /api/postings/:id/applications endpoint
func (h *ApplicationHandler) Apply(c *gin.Context) {
	postingID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req dtos.ApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	app, err := h.ApplicationService.Apply(c.Request.Context(), middleware.UserID(c), postingID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

func (h *ApplicationHandler) ListApplications(c *gin.Context) {
	apps, err := h.ApplicationService.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req dtos.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	app, err := h.ApplicationService.UpdateStatus(c.Request.Context(), middleware.UserID(c), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *ApplicationHandler) ListEvents(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	events, err := h.ApplicationService.Events(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}
