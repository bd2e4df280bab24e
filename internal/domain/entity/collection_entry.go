package entity

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CollectionEntry is one receipt line typed in during a posting session.
// It is not stored until it has been submitted.
type CollectionEntry struct {
	ReceiptNumber int    `json:"receipt_number"`
	PartyName     string `json:"party_name"`
	Amounts
}

// Total is the sum of the payment modes
func (e CollectionEntry) Total() decimal.Decimal {
	return e.Amounts.Total()
}

// IsValid is true for rows that name a party and carry a positive total
func (e CollectionEntry) IsValid() bool {
	return strings.TrimSpace(e.PartyName) != "" && e.Total().IsPositive()
}

func pageRangeLabel(start, end int) string {
	return fmt.Sprintf("%d-%d", start, end)
}
