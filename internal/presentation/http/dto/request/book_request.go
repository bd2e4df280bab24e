package request

import (
	"github.com/google/uuid"
	"github.com/sangkips/collection-desk/internal/domain/enum"
)

// BulkAllocationRequest represents a bulk book allocation request
type BulkAllocationRequest struct {
	RangeStart      int    `json:"range_start" binding:"required,min=1,max=999999999"`
	RangeEnd        int    `json:"range_end" binding:"required,min=1,max=999999999"`
	PagesPerBook    int    `json:"pages_per_book" binding:"required,min=1"`
	NumberingMode   string `json:"numbering_mode" binding:"omitempty,oneof=sequential restart"`
	BatchLabel      string `json:"batch_label" binding:"omitempty,max=50"`
	StartBookNumber int    `json:"start_book_number" binding:"omitempty,min=1"`
	RestartEvery    int    `json:"restart_every" binding:"omitempty,min=1"`
	Activate        bool   `json:"activate"`
}

// Mode returns the requested numbering mode, sequential when empty
func (r *BulkAllocationRequest) Mode() enum.NumberingMode {
	if r.NumberingMode == "" {
		return enum.NumberingSequential
	}
	return enum.NumberingMode(r.NumberingMode)
}

// CreateBookRequest represents a single book allocation request
type CreateBookRequest struct {
	PageStart int    `json:"page_start" binding:"required,min=1,max=999999999"`
	PageEnd   int    `json:"page_end" binding:"required,min=1,max=999999999"`
	Label     string `json:"label" binding:"omitempty,max=100"`
	Activate  bool   `json:"activate"`
}

// BookIDsRequest names the books of a batch transition
type BookIDsRequest struct {
	BookIDs []uuid.UUID `json:"book_ids" binding:"required,min=1"`
}

// AssignRequest hands ready books to collection staff
type AssignRequest struct {
	BookIDs   []uuid.UUID `json:"book_ids" binding:"required,min=1"`
	StaffName string      `json:"staff_name"`
	RouteName string      `json:"route_name"`
}

// ReassignRequest starts a new cycle for a returned book
type ReassignRequest struct {
	StaffName string `json:"staff_name"`
	RouteName string `json:"route_name"`
}

// BookFilterRequest represents book list filters
type BookFilterRequest struct {
	Search     string `form:"search"`
	Status     string `form:"status"`
	AssignedTo string `form:"assigned_to"`
	Batch      string `form:"batch"`
	Page       int    `form:"page"`
	PerPage    int    `form:"per_page"`
}

// HistoryRequest pages through a book's posted attempts
type HistoryRequest struct {
	Cursor    string `form:"cursor"`
	Direction string `form:"direction"`
	Limit     int    `form:"limit"`
}
