package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sangkips/collection-desk/internal/domain/entity"
	"github.com/sangkips/collection-desk/internal/domain/repository"
	"github.com/sangkips/collection-desk/pkg/apperror"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SummaryService locks staff-declared totals and compares them with entries
type SummaryService struct {
	bookRepo    repository.BookRepository
	summaryRepo repository.SummaryRepository
	validator   *EntryValidator
	locker      Locker
	logger      *zap.Logger
}

// NewSummaryService creates a new summary service
func NewSummaryService(
	bookRepo repository.BookRepository,
	summaryRepo repository.SummaryRepository,
	validator *EntryValidator,
	locker Locker,
	logger *zap.Logger,
) *SummaryService {
	return &SummaryService{
		bookRepo:    bookRepo,
		summaryRepo: summaryRepo,
		validator:   validator,
		locker:      locker,
		logger:      logger.Named("summary"),
	}
}

// SummaryInput represents the totals declared by collection staff
type SummaryInput struct {
	EntryCount int
	entity.Amounts
}

// SavedSummary is a locked summary and the first receipt number to enter
type SavedSummary struct {
	Summary           *entity.CycleSummary `json:"summary"`
	SeedReceiptNumber int                  `json:"seed_receipt_number"`
}

// Delta is declared minus entered, per field
type Delta struct {
	Count int `json:"count"`
	entity.Amounts
	Total decimal.Decimal `json:"total"`
}

// ReconciliationResult compares a summary with entered rows
type ReconciliationResult struct {
	EntriesMatch bool  `json:"entries_match"`
	TotalsMatch  bool  `json:"totals_match"`
	Delta        Delta `json:"delta"`
}

// SaveSummary stores and locks the declared totals of the current cycle
func (s *SummaryService) SaveSummary(ctx context.Context, id uuid.UUID, input SummaryInput) (*SavedSummary, error) {
	if input.EntryCount <= 0 {
		return nil, apperror.NewFieldValidationError("entry_count", "Entry count must be greater than zero")
	}
	if field, neg := input.HasNegative(); neg {
		return nil, apperror.NewFieldValidationError(field, fmt.Sprintf("%s must not be negative", field))
	}

	var saved *SavedSummary
	err := s.locker.WithLock(ctx, bookKey(id), func() error {
		book, err := s.loadBook(ctx, id)
		if err != nil {
			return err
		}
		if !book.Status.IsIssued() {
			return apperror.NewFieldValidationError("status", "Summary can only be saved for Assigned or Returned books, book is "+book.Status.String())
		}
		if book.IsExhausted() {
			return apperror.NewBookExhaustedError(book.Label())
		}

		existing, err := s.summaryRepo.Get(ctx, book.ID, book.CurrentCycle)
		if err != nil {
			return err
		}
		if existing != nil && existing.Locked {
			return apperror.NewFieldValidationError("summary", "Summary is locked, unlock it before editing")
		}

		summary := &entity.CycleSummary{
			BookID:     book.ID,
			Cycle:      book.CurrentCycle,
			EntryCount: input.EntryCount,
			Amounts:    input.Amounts,
			Locked:     true,
		}
		if err := s.summaryRepo.Upsert(ctx, summary); err != nil {
			return fmt.Errorf("failed to save summary: %w", err)
		}

		s.logger.Info("summary locked",
			zap.String("book_id", book.ID.String()),
			zap.Int("cycle", book.CurrentCycle),
			zap.Int("entry_count", summary.EntryCount),
			zap.String("total", summary.Total().StringFixed(2)),
		)
		saved = &SavedSummary{Summary: summary, SeedReceiptNumber: book.AvailableFrom}
		return nil
	})
	return saved, err
}

// Unlock makes the summary of an unposted cycle editable again
func (s *SummaryService) Unlock(ctx context.Context, id uuid.UUID) (*entity.CycleSummary, error) {
	var summary *entity.CycleSummary
	err := s.locker.WithLock(ctx, bookKey(id), func() error {
		book, err := s.loadBook(ctx, id)
		if err != nil {
			return err
		}
		if !book.Status.IsIssued() {
			return apperror.NewFieldValidationError("status", "Summary can only be unlocked before posting, book is "+book.Status.String())
		}

		summary, err = s.summaryRepo.Get(ctx, book.ID, book.CurrentCycle)
		if err != nil {
			return err
		}
		if summary == nil {
			return apperror.NewNotFoundError("Summary")
		}
		if !summary.Locked {
			return nil
		}

		if err := s.summaryRepo.SetLocked(ctx, book.ID, book.CurrentCycle, false); err != nil {
			return err
		}
		summary.Locked = false
		s.logger.Info("summary unlocked", zap.String("book_id", book.ID.String()), zap.Int("cycle", book.CurrentCycle))
		return nil
	})
	return summary, err
}

// Compare reconciles entered rows against the current cycle's summary
func (s *SummaryService) Compare(ctx context.Context, id uuid.UUID, entries []entity.CollectionEntry) (*ReconciliationResult, error) {
	book, err := s.loadBook(ctx, id)
	if err != nil {
		return nil, err
	}
	summary, err := s.summaryRepo.Get(ctx, book.ID, book.CurrentCycle)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, apperror.NewFieldValidationError("summary", "Save a summary before comparing entries")
	}

	result := ReconcileEntries(summary, s.validator.ValidEntries(entries))
	return &result, nil
}

// ReconcileEntries computes declared minus entered for the valid rows
func ReconcileEntries(summary *entity.CycleSummary, entries []entity.CollectionEntry) ReconciliationResult {
	var entered entity.Amounts
	count := 0
	for _, e := range entries {
		if !e.IsValid() {
			continue
		}
		entered = entered.Add(e.Amounts)
		count++
	}

	delta := Delta{
		Count:   summary.EntryCount - count,
		Amounts: summary.Amounts.Sub(entered),
		Total:   summary.Total().Sub(entered.Total()),
	}
	return ReconciliationResult{
		EntriesMatch: delta.Count == 0,
		TotalsMatch:  delta.Amounts.IsZero(),
		Delta:        delta,
	}
}

func (s *SummaryService) loadBook(ctx context.Context, id uuid.UUID) (*entity.ReceiptBook, error) {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, apperror.NewNotFoundError("Receipt book")
	}
	return book, nil
}
