package service

import (
	"fmt"
	"sort"

	"github.com/sangkips/collection-desk/internal/domain/entity"
	"github.com/sangkips/collection-desk/internal/domain/enum"
	"github.com/sangkips/collection-desk/pkg/apperror"
)

// EntryValidator filters entered rows and guards receipt numbers
type EntryValidator struct{}

// NewEntryValidator creates a new entry validator
func NewEntryValidator() *EntryValidator {
	return &EntryValidator{}
}

// DuplicateCheck is the outcome of a duplicate receipt number check
type DuplicateCheck struct {
	OK         bool  `json:"ok"`
	Duplicates []int `json:"duplicates,omitempty"`
}

// ValidEntries keeps the rows that name a party and carry a positive total
func (v *EntryValidator) ValidEntries(entries []entity.CollectionEntry) []entity.CollectionEntry {
	valid := make([]entity.CollectionEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsValid() {
			valid = append(valid, e)
		}
	}
	return valid
}

// CheckDuplicates reports every receipt number that occurs more than once
// across the candidates and the numbers already posted in this cycle.
func (v *EntryValidator) CheckDuplicates(candidates []entity.CollectionEntry, alreadyPosted []int) DuplicateCheck {
	seen := make(map[int]int, len(candidates)+len(alreadyPosted))
	for _, n := range alreadyPosted {
		seen[n]++
	}
	for _, e := range candidates {
		seen[e.ReceiptNumber]++
	}

	var duplicates []int
	for n, count := range seen {
		if count > 1 {
			duplicates = append(duplicates, n)
		}
	}
	sort.Ints(duplicates)

	return DuplicateCheck{OK: len(duplicates) == 0, Duplicates: duplicates}
}

// CheckAmounts rejects rows with a negative payment mode
func (v *EntryValidator) CheckAmounts(entries []entity.CollectionEntry) error {
	var fieldErrors []apperror.FieldError
	for _, e := range entries {
		if field, neg := e.HasNegative(); neg {
			fieldErrors = append(fieldErrors, apperror.FieldError{
				Field:   field,
				Message: fmt.Sprintf("receipt %d has a negative %s amount", e.ReceiptNumber, field),
			})
		}
	}
	if len(fieldErrors) > 0 {
		return apperror.NewValidationError(fieldErrors)
	}
	return nil
}

// CheckRange requires every receipt number to be printed in the book and
// unused, except failed numbers of the current cycle which may be retried.
// A posted book only takes those retries; new pages need a new cycle.
func (v *EntryValidator) CheckRange(book *entity.ReceiptBook, entries []entity.CollectionEntry, retryable map[int]bool) error {
	var fieldErrors []apperror.FieldError
	for _, e := range entries {
		n := e.ReceiptNumber
		switch {
		case !book.ContainsPage(n):
			fieldErrors = append(fieldErrors, apperror.FieldError{
				Field:   "receipt_number",
				Message: fmt.Sprintf("receipt %d is outside book pages %d-%d", n, book.PageStart, book.PageEnd),
			})
		case book.Status == enum.BookStatusPosted && !retryable[n]:
			fieldErrors = append(fieldErrors, apperror.FieldError{
				Field:   "receipt_number",
				Message: fmt.Sprintf("receipt %d is not a failed receipt of this cycle, make the book ready again to use new pages", n),
			})
		case n < book.AvailableFrom && !retryable[n]:
			fieldErrors = append(fieldErrors, apperror.FieldError{
				Field:   "receipt_number",
				Message: fmt.Sprintf("receipt %d was already used, next unused page is %d", n, book.AvailableFrom),
			})
		}
	}
	if len(fieldErrors) > 0 {
		return apperror.NewValidationError(fieldErrors)
	}
	return nil
}
