package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/collection-desk/internal/domain/enum"
	"gorm.io/gorm"
)

// ReceiptBook is a numbered range of receipt pages issued to collection staff
type ReceiptBook struct {
	ID                uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	PageStart         int             `gorm:"not null" json:"page_start"`
	PageEnd           int             `gorm:"not null" json:"page_end"`
	BookLabel         string          `gorm:"size:100;index" json:"book_label"`
	BatchLabel        string          `gorm:"size:100;index" json:"batch_label,omitempty"`
	Status            enum.BookStatus `gorm:"not null;default:0;index" json:"status"`
	AssignedTo        *string         `gorm:"size:255" json:"assigned_to,omitempty"`
	RouteName         *string         `gorm:"size:255" json:"route_name,omitempty"`
	AvailableFrom     int             `gorm:"not null" json:"available_from"`
	CurrentCycle      int             `gorm:"not null;default:0" json:"current_cycle"`
	CycleSuccessCount int             `gorm:"not null;default:0" json:"current_cycle_success"`
	CycleEntryCount   int             `gorm:"not null;default:0" json:"current_cycle_total"`
	EverPosted        bool            `gorm:"not null;default:false" json:"ever_posted"`
	AssignedAt        *time.Time      `json:"assigned_at,omitempty"`
	PostedAt          *time.Time      `json:"posted_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	DeletedAt         gorm.DeletedAt  `gorm:"index" json:"-"`

	// Summary of the current cycle, loaded by the summary store
	Summary *CycleSummary `gorm:"-" json:"summary,omitempty"`
}

// NewReceiptBook builds a book whose first unused page is its first page
func NewReceiptBook(pageStart, pageEnd int, label, batch string, status enum.BookStatus) *ReceiptBook {
	return &ReceiptBook{
		ID:            uuid.New(),
		PageStart:     pageStart,
		PageEnd:       pageEnd,
		BookLabel:     label,
		BatchLabel:    batch,
		Status:        status,
		AvailableFrom: pageStart,
	}
}

// BeforeCreate generates a UUID before creating a new book
func (b *ReceiptBook) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the ReceiptBook model
func (ReceiptBook) TableName() string {
	return "receipt_books"
}

// PageCount is the number of pages printed in the book
func (b *ReceiptBook) PageCount() int {
	return b.PageEnd - b.PageStart + 1
}

// RemainingPages counts pages not yet consumed
func (b *ReceiptBook) RemainingPages() int {
	return b.PageEnd - b.AvailableFrom + 1
}

// IsExhausted is true once every page has been consumed
func (b *ReceiptBook) IsExhausted() bool {
	return b.AvailableFrom > b.PageEnd
}

// ContainsPage reports whether n is printed in this book
func (b *ReceiptBook) ContainsPage(n int) bool {
	return n >= b.PageStart && n <= b.PageEnd
}

// AdvancePast moves AvailableFrom beyond the highest attempted receipt
// number. It never moves backwards and never past PageEnd+1.
func (b *ReceiptBook) AdvancePast(highestAttempted int) {
	next := highestAttempted + 1
	if next > b.PageEnd+1 {
		next = b.PageEnd + 1
	}
	if next > b.AvailableFrom {
		b.AvailableFrom = next
	}
}

// StartNewCycle moves the book back to Ready for another round
func (b *ReceiptBook) StartNewCycle() {
	b.Status = enum.BookStatusReady
	b.CurrentCycle++
	b.Summary = nil
	b.AssignedTo = nil
	b.RouteName = nil
	b.AssignedAt = nil
	b.CycleSuccessCount = 0
	b.CycleEntryCount = 0
}

// Label returns the display label, falling back to the page range
func (b *ReceiptBook) Label() string {
	if b.BookLabel != "" {
		return b.BookLabel
	}
	return pageRangeLabel(b.PageStart, b.PageEnd)
}
