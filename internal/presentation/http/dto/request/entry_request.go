package request

import (
	"github.com/sangkips/collection-desk/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// AmountsRequest is the payment-mode breakdown sent by the client
type AmountsRequest struct {
	Cash        decimal.Decimal `json:"cash"`
	Fonepay     decimal.Decimal `json:"fonepay"`
	Cheque      decimal.Decimal `json:"cheque"`
	BankDeposit decimal.Decimal `json:"bank_deposit"`
	Discount    decimal.Decimal `json:"discount"`
}

func (a AmountsRequest) toAmounts() entity.Amounts {
	return entity.Amounts{
		Cash:        a.Cash,
		Fonepay:     a.Fonepay,
		Cheque:      a.Cheque,
		BankDeposit: a.BankDeposit,
		Discount:    a.Discount,
	}
}

// SummaryRequest carries the totals staff declared for a cycle
type SummaryRequest struct {
	EntryCount int `json:"entry_count"`
	AmountsRequest
}

// Amounts returns the declared totals
func (r *SummaryRequest) Amounts() entity.Amounts {
	return r.toAmounts()
}

// EntryRequest is one receipt row
type EntryRequest struct {
	ReceiptNumber int    `json:"receipt_number"`
	PartyName     string `json:"party_name"`
	AmountsRequest
}

// CompareRequest carries the rows to reconcile against the summary
type CompareRequest struct {
	Entries []EntryRequest `json:"entries"`
}

// SubmitRequest carries the rows to post
type SubmitRequest struct {
	Date      string         `json:"date"` // YYYY-MM-DD, today when empty
	StaffName string         `json:"staff_name"`
	Entries   []EntryRequest `json:"entries"`
}

// ToEntries converts request rows to collection entries
func ToEntries(rows []EntryRequest) []entity.CollectionEntry {
	entries := make([]entity.CollectionEntry, len(rows))
	for i, r := range rows {
		entries[i] = entity.CollectionEntry{
			ReceiptNumber: r.ReceiptNumber,
			PartyName:     r.PartyName,
			Amounts:       r.toAmounts(),
		}
	}
	return entries
}
