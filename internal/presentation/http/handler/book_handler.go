package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/collection-desk/internal/application/service"
	"github.com/sangkips/collection-desk/internal/domain/enum"
	"github.com/sangkips/collection-desk/internal/domain/repository"
	"github.com/sangkips/collection-desk/internal/presentation/http/dto/request"
	"github.com/sangkips/collection-desk/internal/presentation/http/dto/response"
	"github.com/sangkips/collection-desk/pkg/pagination"
)

// BookHandler handles receipt book allocation and lifecycle requests
type BookHandler struct {
	allocator *service.BookAllocator
	cycle     *service.CycleService
}

// NewBookHandler creates a new book handler
func NewBookHandler(allocator *service.BookAllocator, cycle *service.CycleService) *BookHandler {
	return &BookHandler{allocator: allocator, cycle: cycle}
}

// AllocateBulk handles splitting a page range into books
func (h *BookHandler) AllocateBulk(c *gin.Context) {
	var req request.BulkAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.allocator.AllocateBulk(c.Request.Context(), service.BulkAllocationInput{
		RangeStart:      req.RangeStart,
		RangeEnd:        req.RangeEnd,
		PagesPerBook:    req.PagesPerBook,
		Mode:            req.Mode(),
		BatchLabel:      req.BatchLabel,
		StartBookNumber: req.StartBookNumber,
		RestartEvery:    req.RestartEvery,
		Activate:        req.Activate,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Books allocated successfully", result)
}

// AllocateSingle handles creating one book over an explicit range
func (h *BookHandler) AllocateSingle(c *gin.Context) {
	var req request.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	book, err := h.allocator.AllocateSingle(c.Request.Context(), service.SingleAllocationInput{
		PageStart: req.PageStart,
		PageEnd:   req.PageEnd,
		Label:     req.Label,
		Activate:  req.Activate,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Book created successfully", book)
}

// List handles listing books with filters
func (h *BookHandler) List(c *gin.Context) {
	var req request.BookFilterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	params := &repository.BookFilterParams{
		Pagination: &pagination.PaginationParams{Page: req.Page, PerPage: req.PerPage},
		Search:     req.Search,
		AssignedTo: req.AssignedTo,
		BatchLabel: req.Batch,
	}
	params.Pagination.Validate()
	if req.Status != "" {
		status, err := enum.ParseBookStatus(req.Status)
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		params.Status = &status
	}

	result, err := h.cycle.ListBooks(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, "Books retrieved successfully", result)
}

// Inventory handles the grouped inventory view
func (h *BookHandler) Inventory(c *gin.Context) {
	inv, err := h.cycle.Inventory(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Inventory retrieved successfully", inv)
}

// Get handles fetching a book with its current summary
func (h *BookHandler) Get(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}

	book, err := h.cycle.GetBook(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Book retrieved successfully", book)
}

// History handles cursor-paged posting history
func (h *BookHandler) History(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}

	var req request.HistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	params := &pagination.CursorParams{
		Cursor:    req.Cursor,
		Direction: pagination.CursorDirection(req.Direction),
		Limit:     req.Limit,
	}
	params.Validate()

	result, err := h.cycle.History(c.Request.Context(), id, params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Posting history retrieved successfully", result)
}

// MarkReady handles activating inactive books
func (h *BookHandler) MarkReady(c *gin.Context) {
	var req request.BookIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.cycle.MarkReady(c.Request.Context(), req.BookIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Books marked ready", result)
}

// MarkInactive handles deactivating ready books
func (h *BookHandler) MarkInactive(c *gin.Context) {
	var req request.BookIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.cycle.MarkInactive(c.Request.Context(), req.BookIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Books marked inactive", result)
}

// Assign handles handing ready books to staff
func (h *BookHandler) Assign(c *gin.Context) {
	var req request.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.cycle.Assign(c.Request.Context(), service.AssignInput{
		IDs:       req.BookIDs,
		StaffName: req.StaffName,
		RouteName: req.RouteName,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Books assigned", result)
}

// Return handles recording a returned book
func (h *BookHandler) Return(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}

	book, err := h.cycle.ReturnBook(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Book returned", book)
}

// Reassign handles handing a returned book out for a new cycle
func (h *BookHandler) Reassign(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}

	var req request.ReassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	book, err := h.cycle.Reassign(c.Request.Context(), id, req.StaffName, req.RouteName)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Book reassigned", book)
}

// Reready handles putting a posted book back on the shelf
func (h *BookHandler) Reready(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}

	book, err := h.cycle.Reready(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Book is ready for a new cycle", book)
}

// Delete handles removing an unused book
func (h *BookHandler) Delete(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}

	if err := h.cycle.DeleteBook(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Book deleted successfully", nil)
}

// OpenSession handles loading the entry context of a book
func (h *BookHandler) OpenSession(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}

	session, err := h.cycle.OpenForEntry(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Entry session opened", session)
}
