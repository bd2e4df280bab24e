package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/collection-desk/internal/domain/entity"
	"github.com/sangkips/collection-desk/internal/domain/repository"
	"github.com/sangkips/collection-desk/pkg/apperror"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultPostingWorkers bounds concurrent ledger calls per submission
const DefaultPostingWorkers = 4

// CycleCompleter closes a book cycle once its entries have been posted
type CycleCompleter interface {
	CompleteCycle(ctx context.Context, id uuid.UUID, outcome PostingOutcome) (*entity.ReceiptBook, error)
}

// PostingService posts collection entries to the ledger
type PostingService struct {
	bookRepo  repository.BookRepository
	entryRepo repository.PostedEntryRepository
	completer CycleCompleter
	ledger    LedgerGateway
	notifier  Notifier
	locker    Locker
	validator *EntryValidator
	metrics   Metrics
	logger    *zap.Logger
	workers   int
}

// PostingDeps groups the collaborators of the posting service
type PostingDeps struct {
	BookRepo  repository.BookRepository
	EntryRepo repository.PostedEntryRepository
	Completer CycleCompleter
	Ledger    LedgerGateway
	Notifier  Notifier
	Locker    Locker
	Validator *EntryValidator
	Metrics   Metrics
	Logger    *zap.Logger
	Workers   int
}

// NewPostingService creates a new posting service
func NewPostingService(deps PostingDeps) *PostingService {
	workers := deps.Workers
	if workers <= 0 {
		workers = DefaultPostingWorkers
	}
	validator := deps.Validator
	if validator == nil {
		validator = NewEntryValidator()
	}
	return &PostingService{
		bookRepo:  deps.BookRepo,
		entryRepo: deps.EntryRepo,
		completer: deps.Completer,
		ledger:    deps.Ledger,
		notifier:  deps.Notifier,
		locker:    deps.Locker,
		validator: validator,
		metrics:   metricsOrNop(deps.Metrics),
		logger:    deps.Logger.Named("posting"),
		workers:   workers,
	}
}

// SubmitInput represents a batch of entries to post
type SubmitInput struct {
	BookID    uuid.UUID
	Date      time.Time
	StaffName string
	Entries   []entity.CollectionEntry
}

// PostingResult is the outcome of one entry
type PostingResult struct {
	ReceiptNumber    int             `json:"receipt_number"`
	PartyName        string          `json:"party_name"`
	Total            decimal.Decimal `json:"total"`
	Success          bool            `json:"success"`
	ExternalRecordID string          `json:"external_record_id,omitempty"`
	Error            string          `json:"error,omitempty"`
}

// PostingSession is the outcome of a submission. Results holds one entry
// per attempted row in input order. Rows that were never dispatched
// because the caller gave up are listed in NotSubmitted; they are neither
// failures nor counted in TotalCount and may be entered again.
type PostingSession struct {
	BookID       uuid.UUID           `json:"book_id"`
	Cycle        int                 `json:"cycle"`
	Results      []PostingResult     `json:"results"`
	SuccessCount int                 `json:"success_count"`
	TotalCount   int                 `json:"total_count"`
	NotSubmitted []int               `json:"not_submitted"`
	Book         *entity.ReceiptBook `json:"book,omitempty"`
}

// Submit posts the valid entries of a batch and closes the cycle
func (s *PostingService) Submit(ctx context.Context, input SubmitInput) (*PostingSession, error) {
	entries := s.validator.ValidEntries(input.Entries)
	if len(entries) == 0 {
		return nil, apperror.NewFieldValidationError("entries", "At least one entry with a party and a positive total is required")
	}
	if err := s.validator.CheckAmounts(entries); err != nil {
		return nil, err
	}
	if dup := s.validator.CheckDuplicates(entries, nil); !dup.OK {
		return nil, apperror.NewDuplicateReceiptError(dup.Duplicates)
	}

	date := input.Date
	if date.IsZero() {
		date = time.Now()
	}
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	var session *PostingSession
	var notice *entity.PostingNotice
	err := s.locker.WithLock(ctx, bookKey(input.BookID), func() error {
		book, err := s.bookRepo.GetByID(ctx, input.BookID)
		if err != nil {
			return err
		}
		if book == nil {
			return apperror.NewNotFoundError("Receipt book")
		}
		if !book.Status.AcceptsEntries() {
			return apperror.NewFieldValidationError("status", "Book must be Assigned, Returned or Posted to submit receipts, book is "+book.Status.String())
		}

		attempts, err := s.entryRepo.ListByCycle(ctx, book.ID, book.CurrentCycle)
		if err != nil {
			return err
		}
		posted, retryable := splitAttempts(attempts)

		if dup := s.validator.CheckDuplicates(entries, posted); !dup.OK {
			return apperror.NewDuplicateReceiptError(dup.Duplicates)
		}
		if err := s.validator.CheckRange(book, entries, retryable); err != nil {
			return err
		}

		results, dispatched := s.dispatch(ctx, book, entries, date)
		if dispatched == 0 {
			return ctx.Err()
		}

		outcome := PostingOutcome{
			Cycle:     book.CurrentCycle,
			Date:      date,
			StaffName: strings.TrimSpace(input.StaffName),
			Entries:   make([]entity.PostedEntry, dispatched),
		}
		for i, r := range results {
			outcome.Entries[i] = postedEntryFrom(entries[i], r)
		}

		completed, err := s.completer.CompleteCycle(context.WithoutCancel(ctx), book.ID, outcome)
		if err != nil {
			s.logger.Error("failed to record posting outcome",
				zap.String("book_id", book.ID.String()),
				zap.Int("attempted", dispatched),
				zap.Error(err),
			)
			return err
		}

		session = newPostingSession(completed, book.CurrentCycle, results, entries[dispatched:])
		notice = newPostingNotice(session, completed, outcome)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveBatch(len(session.NotSubmitted))
	s.logger.Info("posting batch finished",
		zap.String("book_id", session.BookID.String()),
		zap.Int("cycle", session.Cycle),
		zap.Int("success", session.SuccessCount),
		zap.Int("total", session.TotalCount),
		zap.Int("not_submitted", len(session.NotSubmitted)),
	)

	if s.notifier != nil {
		if err := s.notifier.NotifyPosting(context.WithoutCancel(ctx), *notice); err != nil {
			s.logger.Warn("posting notification failed", zap.String("book_id", session.BookID.String()), zap.Error(err))
		}
	}
	return session, nil
}

// dispatch sends entries to the ledger in input order on a bounded pool.
// A row is only dispatched if ctx is still live once a worker slot is
// free; calls already issued run to completion. It returns the results
// of the dispatched prefix.
func (s *PostingService) dispatch(ctx context.Context, book *entity.ReceiptBook, entries []entity.CollectionEntry, date time.Time) ([]PostingResult, int) {
	results := make([]PostingResult, len(entries))
	callCtx := context.WithoutCancel(ctx)
	slots := semaphore.NewWeighted(int64(s.workers))

	var g errgroup.Group
	dispatched := 0
	for i, entry := range entries {
		if err := slots.Acquire(ctx, 1); err != nil {
			break
		}
		// Acquire may succeed on a done context
		if ctx.Err() != nil {
			slots.Release(1)
			break
		}
		g.Go(func() error {
			defer slots.Release(1)
			results[i] = s.post(callCtx, book, entry, date)
			return nil
		})
		dispatched = i + 1
	}
	_ = g.Wait()

	return results[:dispatched], dispatched
}

func (s *PostingService) post(ctx context.Context, book *entity.ReceiptBook, entry entity.CollectionEntry, date time.Time) PostingResult {
	result := PostingResult{
		ReceiptNumber: entry.ReceiptNumber,
		PartyName:     entry.PartyName,
		Total:         entry.Total(),
	}

	start := time.Now()
	recordID, err := s.ledger.CreateReceiptRecord(ctx, entity.NewReceiptRecord(book, entry, date))
	s.metrics.ObserveEntry(err == nil, time.Since(start))

	if err != nil {
		result.Error = err.Error()
		s.logger.Warn("ledger rejected receipt",
			zap.String("book_id", book.ID.String()),
			zap.Int("receipt_number", entry.ReceiptNumber),
			zap.Error(err),
		)
		return result
	}

	result.Success = true
	result.ExternalRecordID = recordID
	return result
}

// splitAttempts returns the numbers already posted in the cycle and the
// failed numbers that may be retried.
func splitAttempts(attempts []entity.PostedEntry) ([]int, map[int]bool) {
	var posted []int
	retryable := make(map[int]bool)
	for _, a := range attempts {
		if a.Success {
			posted = append(posted, a.ReceiptNumber)
		}
	}
	for _, f := range unresolvedFailures(attempts) {
		retryable[f.ReceiptNumber] = true
	}
	return posted, retryable
}

func postedEntryFrom(entry entity.CollectionEntry, result PostingResult) entity.PostedEntry {
	posted := entity.PostedEntry{
		ReceiptNumber: entry.ReceiptNumber,
		PartyName:     strings.TrimSpace(entry.PartyName),
		Amounts:       entry.Amounts,
		Total:         entry.Total(),
		Success:       result.Success,
	}
	if result.Success {
		id := result.ExternalRecordID
		posted.ExternalRecordID = &id
	} else {
		msg := result.Error
		posted.ErrorMessage = &msg
	}
	return posted
}

func newPostingSession(book *entity.ReceiptBook, cycle int, results []PostingResult, undispatched []entity.CollectionEntry) *PostingSession {
	session := &PostingSession{
		BookID:       book.ID,
		Cycle:        cycle,
		Results:      results,
		TotalCount:   len(results),
		NotSubmitted: make([]int, len(undispatched)),
		Book:         book,
	}
	for _, r := range results {
		if r.Success {
			session.SuccessCount++
		}
	}
	for i, e := range undispatched {
		session.NotSubmitted[i] = e.ReceiptNumber
	}
	return session
}

func newPostingNotice(session *PostingSession, book *entity.ReceiptBook, outcome PostingOutcome) *entity.PostingNotice {
	notice := &entity.PostingNotice{
		BookID:       book.ID,
		BookLabel:    book.Label(),
		Cycle:        session.Cycle,
		StaffName:    outcome.StaffName,
		Date:         outcome.Date,
		SuccessCount: session.SuccessCount,
		TotalCount:   session.TotalCount,
		NotSubmitted: session.NotSubmitted,
		PostedTotal:  decimal.Zero,
	}
	for _, r := range session.Results {
		if r.Success {
			notice.PostedTotal = notice.PostedTotal.Add(r.Total)
			continue
		}
		notice.FailedReceipts = append(notice.FailedReceipts, entity.FailedReceipt{
			ReceiptNumber: r.ReceiptNumber,
			PartyName:     r.PartyName,
			Error:         r.Error,
		})
	}
	return notice
}
