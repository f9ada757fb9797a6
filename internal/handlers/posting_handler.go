package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/strove-app/strove/internal/middleware"
	"github.com/strove-app/strove/internal/services"
)

type PostingHandler struct {
	PostingService *services.PostingService
	StarService    *services.StarService
}

func NewPostingHandler(p *services.PostingService, s *services.StarService) *PostingHandler {
	return &PostingHandler{PostingService: p, StarService: s}
}

func (h *PostingHandler) ListPostings(c *gin.Context) {
	postings, err := h.PostingService.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, postings)
}

func (h *PostingHandler) GetPosting(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	posting, err := h.PostingService.Get(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, posting)
}

func (h *PostingHandler) Star(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := h.StarService.Star(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"starred": true})
}

func (h *PostingHandler) Unstar(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := h.StarService.Unstar(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"starred": false})
}

func (h *PostingHandler) Starred(c *gin.Context) {
	postings, err := h.StarService.Starred(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, postings)
}
