package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/collection-desk/internal/application/service"
	"github.com/sangkips/collection-desk/internal/presentation/http/dto/request"
	"github.com/sangkips/collection-desk/internal/presentation/http/dto/response"
	"github.com/sangkips/collection-desk/pkg/apperror"
)

// PostingHandler handles batch submission to the ledger
type PostingHandler struct {
	posting      *service.PostingService
	batchTimeout time.Duration
}

// NewPostingHandler creates a new posting handler. A positive batchTimeout
// bounds how long a submission keeps dispatching entries.
func NewPostingHandler(posting *service.PostingService, batchTimeout time.Duration) *PostingHandler {
	return &PostingHandler{posting: posting, batchTimeout: batchTimeout}
}

// Submit handles posting a batch of entries
func (h *PostingHandler) Submit(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}

	var req request.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	var date time.Time
	if req.Date != "" {
		parsed, err := time.Parse(time.DateOnly, req.Date)
		if err != nil {
			response.Error(c, apperror.NewFieldValidationError("date", "Date must be formatted as YYYY-MM-DD"))
			return
		}
		date = parsed
	}

	ctx := c.Request.Context()
	if h.batchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.batchTimeout)
		defer cancel()
	}

	session, err := h.posting.Submit(ctx, service.SubmitInput{
		BookID:    id,
		Date:      date,
		StaffName: req.StaffName,
		Entries:   request.ToEntries(req.Entries),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	message := "Entries posted"
	if len(session.NotSubmitted) > 0 {
		message = "Entries partially submitted, some rows were not sent"
	}
	response.OK(c, message, session)
}
