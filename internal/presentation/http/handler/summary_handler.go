package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/collection-desk/internal/application/service"
	"github.com/sangkips/collection-desk/internal/presentation/http/dto/request"
	"github.com/sangkips/collection-desk/internal/presentation/http/dto/response"
)

// SummaryHandler handles declared-summary requests
type SummaryHandler struct {
	summary *service.SummaryService
}

// NewSummaryHandler creates a new summary handler
func NewSummaryHandler(summary *service.SummaryService) *SummaryHandler {
	return &SummaryHandler{summary: summary}
}

// Save handles storing and locking a cycle summary
func (h *SummaryHandler) Save(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}

	var req request.SummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	saved, err := h.summary.SaveSummary(c.Request.Context(), id, service.SummaryInput{
		EntryCount: req.EntryCount,
		Amounts:    req.Amounts(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Summary saved and locked", saved)
}

// Unlock handles making a summary editable again
func (h *SummaryHandler) Unlock(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}

	summary, err := h.summary.Unlock(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Summary unlocked", summary)
}

// Compare handles reconciling entered rows against the summary
func (h *SummaryHandler) Compare(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}

	var req request.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.summary.Compare(c.Request.Context(), id, request.ToEntries(req.Entries))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Entries compared", result)
}
