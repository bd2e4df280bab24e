package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PostedEntry is the immutable record of one submission attempt of a
// receipt number. Rows are only ever appended.
type PostedEntry struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	BookID           uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_posted_entry_key;index" json:"book_id"`
	Cycle            int             `gorm:"not null;uniqueIndex:idx_posted_entry_key" json:"cycle"`
	ReceiptNumber    int             `gorm:"not null;uniqueIndex:idx_posted_entry_key" json:"receipt_number"`
	Attempt          int             `gorm:"not null;default:1;uniqueIndex:idx_posted_entry_key" json:"attempt"`
	PartyName        string          `gorm:"size:255;not null" json:"party_name"`
	StaffName        string          `gorm:"size:255" json:"staff_name,omitempty"`
	EntryDate        time.Time       `gorm:"type:date;not null" json:"entry_date"`
	Amounts          `gorm:"embedded"`
	Total            decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total"`
	Success          bool            `gorm:"not null;index" json:"success"`
	ExternalRecordID *string         `gorm:"size:100" json:"external_record_id,omitempty"`
	ErrorMessage     *string         `gorm:"type:text" json:"error,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new posted entry
func (p *PostedEntry) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the PostedEntry model
func (PostedEntry) TableName() string {
	return "posted_entries"
}

// AsCollectionEntry turns a failed record back into an editable row
func (p *PostedEntry) AsCollectionEntry() CollectionEntry {
	return CollectionEntry{
		ReceiptNumber: p.ReceiptNumber,
		PartyName:     p.PartyName,
		Amounts:       p.Amounts,
	}
}
