package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Party is a customer or supplier known to the ledger, used to
// autocomplete the party column of collection entries.
type Party struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name        string         `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Phone       *string        `gorm:"size:50" json:"phone,omitempty"`
	Address     *string        `gorm:"type:text" json:"address,omitempty"`
	RouteName   *string        `gorm:"size:255;index" json:"route_name,omitempty"`
	LedgerRefID *string        `gorm:"size:100" json:"ledger_ref_id,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new party
func (p *Party) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Party model
func (Party) TableName() string {
	return "parties"
}
