package service

import (
	"context"
	"fmt"

	"github.com/sangkips/collection-desk/internal/domain/entity"
	"github.com/sangkips/collection-desk/internal/domain/enum"
	"github.com/sangkips/collection-desk/internal/domain/repository"
	"github.com/sangkips/collection-desk/pkg/apperror"
	"github.com/sangkips/collection-desk/pkg/utils"
	"go.uber.org/zap"
)

const (
	// MaxBooksPerAllocation bounds a single bulk allocation
	MaxBooksPerAllocation = 5000
	// MaxPageNumber is the highest receipt number a book may carry
	MaxPageNumber = 999_999_999
)

// BookAllocator turns page ranges into receipt books
type BookAllocator struct {
	bookRepo repository.BookRepository
	metrics  Metrics
	logger   *zap.Logger
}

// NewBookAllocator creates a new book allocator
func NewBookAllocator(bookRepo repository.BookRepository, metrics Metrics, logger *zap.Logger) *BookAllocator {
	return &BookAllocator{
		bookRepo: bookRepo,
		metrics:  metricsOrNop(metrics),
		logger:   logger.Named("allocator"),
	}
}

// BulkAllocationInput represents a bulk allocation request
type BulkAllocationInput struct {
	RangeStart      int
	RangeEnd        int
	PagesPerBook    int
	Mode            enum.NumberingMode
	BatchLabel      string
	StartBookNumber int // first letter index, 1 = "A"
	RestartEvery    int // restart mode set size, defaults to PagesPerBook
	Activate        bool
}

// BulkAllocationResult lists the books created by a bulk allocation
type BulkAllocationResult struct {
	Books []entity.ReceiptBook `json:"books"`
	Count int                  `json:"count"`
}

// BookPlan is one planned book before it is stored
type BookPlan struct {
	PageStart int
	PageEnd   int
	Label     string
}

// PlanBooks computes the books of a bulk allocation without touching storage
func PlanBooks(input BulkAllocationInput) ([]BookPlan, error) {
	if err := checkPages(input.RangeStart, input.RangeEnd); err != nil {
		return nil, err
	}
	if input.PagesPerBook <= 0 {
		return nil, apperror.NewInvalidRangeError("pages per book must be positive")
	}
	if input.RestartEvery < 0 {
		return nil, apperror.NewInvalidRangeError("restart interval must not be negative")
	}

	startNumber := input.StartBookNumber
	if startNumber <= 0 {
		startNumber = 1
	}
	label := func(i int) string {
		return utils.JoinLabel(input.BatchLabel, utils.AlphaLabel(startNumber+i))
	}

	// Both ends lie in 1..MaxPageNumber, so none of the arithmetic below
	// can overflow.
	totalPages := input.RangeEnd - input.RangeStart + 1
	perBook := min(input.PagesPerBook, totalPages)

	switch input.Mode {
	case enum.NumberingSequential, "":
		count := ceilDiv(totalPages, perBook)
		if count > MaxBooksPerAllocation {
			return nil, tooManyBooks(count)
		}

		plans := make([]BookPlan, 0, count)
		for start := input.RangeStart; ; {
			end := start + min(perBook-1, input.RangeEnd-start)
			plans = append(plans, BookPlan{PageStart: start, PageEnd: end, Label: label(len(plans))})
			if end == input.RangeEnd {
				break
			}
			start = end + 1
		}
		return plans, nil

	case enum.NumberingRestart:
		setSize := input.RestartEvery
		if setSize == 0 {
			setSize = perBook
		}
		setSize = min(setSize, totalPages)
		perBook = min(perBook, setSize)

		numSets := ceilDiv(totalPages, setSize)
		booksPerSet := ceilDiv(setSize, perBook)
		if numSets > MaxBooksPerAllocation || booksPerSet > MaxBooksPerAllocation/numSets {
			return nil, tooManyBooks(numSets * booksPerSet)
		}

		// Every set is a full printed run numbered 1..setSize
		plans := make([]BookPlan, 0, numSets*booksPerSet)
		for set := 0; set < numSets; set++ {
			for b := 0; b < booksPerSet; b++ {
				start := 1 + b*perBook
				end := start + min(perBook-1, setSize-start)
				plans = append(plans, BookPlan{PageStart: start, PageEnd: end, Label: label(len(plans))})
			}
		}
		return plans, nil

	default:
		return nil, apperror.NewFieldValidationError("numbering_mode", fmt.Sprintf("unknown numbering mode %q", input.Mode))
	}
}

// AllocateBulk creates every planned book in one transaction
func (a *BookAllocator) AllocateBulk(ctx context.Context, input BulkAllocationInput) (*BulkAllocationResult, error) {
	plans, err := PlanBooks(input)
	if err != nil {
		return nil, err
	}

	status := initialStatus(input.Activate)
	books := make([]*entity.ReceiptBook, len(plans))
	for i, p := range plans {
		books[i] = entity.NewReceiptBook(p.PageStart, p.PageEnd, p.Label, input.BatchLabel, status)
	}

	if err := a.bookRepo.CreateBatch(ctx, books); err != nil {
		return nil, fmt.Errorf("failed to store allocated books: %w", err)
	}

	result := &BulkAllocationResult{Books: make([]entity.ReceiptBook, len(books)), Count: len(books)}
	for i, b := range books {
		result.Books[i] = *b
	}

	a.logger.Info("books allocated",
		zap.Int("count", result.Count),
		zap.String("mode", input.Mode.String()),
		zap.String("batch", input.BatchLabel),
		zap.String("status", status.String()),
	)
	return result, nil
}

// SingleAllocationInput represents a single book allocation request
type SingleAllocationInput struct {
	PageStart int
	PageEnd   int
	Label     string
	Activate  bool
}

// AllocateSingle creates one book over an explicit page range
func (a *BookAllocator) AllocateSingle(ctx context.Context, input SingleAllocationInput) (*entity.ReceiptBook, error) {
	if err := checkPages(input.PageStart, input.PageEnd); err != nil {
		return nil, err
	}

	book := entity.NewReceiptBook(input.PageStart, input.PageEnd, input.Label, "", initialStatus(input.Activate))
	if err := a.bookRepo.Create(ctx, book); err != nil {
		return nil, fmt.Errorf("failed to store book: %w", err)
	}

	a.logger.Info("book allocated", zap.String("book_id", book.ID.String()), zap.String("label", book.Label()))
	return book, nil
}

func initialStatus(activate bool) enum.BookStatus {
	if activate {
		return enum.BookStatusReady
	}
	return enum.BookStatusInactive
}

func checkPages(start, end int) error {
	if start < 1 || end > MaxPageNumber {
		return apperror.NewInvalidRangeError(fmt.Sprintf("pages must lie between 1 and %d", MaxPageNumber))
	}
	if end < start {
		return apperror.NewInvalidRangeError(fmt.Sprintf("range end %d is before range start %d", end, start))
	}
	return nil
}

func tooManyBooks(count int) error {
	return apperror.NewFieldValidationError("pages_per_book",
		fmt.Sprintf("allocation would create %d books, the limit is %d", count, MaxBooksPerAllocation))
}

// ceilDiv divides rounding up; b must be positive
func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a-1)/b + 1
}
