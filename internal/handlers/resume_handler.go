package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/strove-app/strove/internal/models"
	"github.com/strove-app/strove/internal/services"
)

// ResumeParser extracts structured fields from an uploaded resume.
type ResumeParser interface {
	Enabled() bool
	ParseResume(ctx context.Context, upload services.ResumeUpload) (*services.ResumeExtraction, error)
}

type ResumeHandler struct {
	Parser ResumeParser
	// Provider names the configured model vendor in user-facing messages.
	Provider string
}

func NewResumeHandler(parser ResumeParser, provider string) *ResumeHandler {
	return &ResumeHandler{Parser: parser, Provider: provider}
}

// emptyExtraction is the body every failure carries so the client can fall
// back to manual entry.
func emptyExtraction(h gin.H) gin.H {
	h["gpa"] = nil
	h["workExperience"] = []models.WorkExperience{}
	return h
}

// ParseResume is the POST /api/parse-resume endpoint
func (h *ResumeHandler) ParseResume(c *gin.Context) {
	var req services.ResumeUpload
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("❌ Error reading resume request: %v", err)
		c.JSON(http.StatusInternalServerError, emptyExtraction(gin.H{"error": "Failed to parse resume", "message": err.Error()}))
		return
	}
	if strings.TrimSpace(req.Resume) == "" {
		c.JSON(http.StatusBadRequest, emptyExtraction(gin.H{
			"error":   "Resume file is required",
			"message": "Upload a resume file to extract GPA and work experience.",
		}))
		return
	}

	if !h.Parser.Enabled() {
		c.JSON(http.StatusOK, emptyExtraction(gin.H{
			"message": h.Provider + " API key not configured. Please configure it in your environment variables to enable resume parsing.",
		}))
		return
	}

	extraction, err := h.Parser.ParseResume(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, extraction)
}

func (h *ResumeHandler) fail(c *gin.Context, err error) {
	if pErr, ok := services.AsProviderError(err); ok {
		body := gin.H{"error": "Failed to parse resume", "message": pErr.Message}
		if pErr.IsQuota() {
			log.Printf("💸 %s quota error: %s", pErr.Provider, pErr.Message)
			body = gin.H{"error": "Quota exceeded", "message": pErr.QuotaMessage()}
		} else {
			log.Printf("❌ %s API error (%d): %s", pErr.Provider, pErr.StatusCode, pErr.Message)
		}
		c.JSON(pErr.StatusCode, emptyExtraction(body))
		return
	}

	status := http.StatusInternalServerError
	if errors.Is(err, services.ErrInvalidResume) {
		status = http.StatusBadRequest
	}
	log.Printf("❌ Error parsing resume: %v", err)
	c.JSON(status, emptyExtraction(gin.H{"error": "Failed to parse resume", "message": err.Error()}))
}
