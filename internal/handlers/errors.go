package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/strove-app/strove/internal/services"
)

// respondError maps service errors to a status code and {"error": ...}.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrSelfFollow),
		errors.Is(err, services.ErrResumeRequired),
		errors.Is(err, services.ErrInvalidResume):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrBadCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrNotFollowing):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrAlreadyApplied),
		errors.Is(err, services.ErrNoSpots),
		errors.Is(err, services.ErrAlreadyFollowing),
		errors.Is(err, services.ErrEmailTaken):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		log.Printf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}
