package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceiptRecord is the payload sent to the ledger for one entry
type ReceiptRecord struct {
	PartyName string
	Date      time.Time
	Reference string
	Amounts
}

// NewReceiptRecord builds the ledger payload of an entry, referenced by
// book label and receipt number.
func NewReceiptRecord(book *ReceiptBook, entry CollectionEntry, date time.Time) ReceiptRecord {
	return ReceiptRecord{
		PartyName: entry.PartyName,
		Date:      date,
		Reference: fmt.Sprintf("%s/%d", book.Label(), entry.ReceiptNumber),
		Amounts:   entry.Amounts,
	}
}

// PostingNotice summarises a finished posting batch for notification
type PostingNotice struct {
	BookID         uuid.UUID
	BookLabel      string
	Cycle          int
	StaffName      string
	Date           time.Time
	SuccessCount   int
	TotalCount     int
	NotSubmitted   []int
	FailedReceipts []FailedReceipt
	PostedTotal    decimal.Decimal
}

// FailedReceipt is one entry the ledger did not accept
type FailedReceipt struct {
	ReceiptNumber int
	PartyName     string
	Error         string
}
