package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CycleSummary holds the totals staff declared for one book cycle
type CycleSummary struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	BookID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_summary_book_cycle" json:"book_id"`
	Cycle      int       `gorm:"not null;uniqueIndex:idx_summary_book_cycle" json:"cycle"`
	EntryCount int       `gorm:"not null" json:"entry_count"`
	Amounts    `gorm:"embedded"`
	Locked     bool      `gorm:"not null;default:false" json:"locked"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new summary
func (s *CycleSummary) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the CycleSummary model
func (CycleSummary) TableName() string {
	return "cycle_summaries"
}
