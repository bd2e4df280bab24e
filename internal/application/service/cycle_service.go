package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/collection-desk/internal/domain/entity"
	"github.com/sangkips/collection-desk/internal/domain/enum"
	"github.com/sangkips/collection-desk/internal/domain/repository"
	"github.com/sangkips/collection-desk/pkg/apperror"
	"github.com/sangkips/collection-desk/pkg/pagination"
	"go.uber.org/zap"
)

// CycleService drives receipt books through their lifecycle
type CycleService struct {
	bookRepo    repository.BookRepository
	summaryRepo repository.SummaryRepository
	entryRepo   repository.PostedEntryRepository
	locker      Locker
	metrics     Metrics
	logger      *zap.Logger
}

// NewCycleService creates a new cycle service
func NewCycleService(
	bookRepo repository.BookRepository,
	summaryRepo repository.SummaryRepository,
	entryRepo repository.PostedEntryRepository,
	locker Locker,
	metrics Metrics,
	logger *zap.Logger,
) *CycleService {
	return &CycleService{
		bookRepo:    bookRepo,
		summaryRepo: summaryRepo,
		entryRepo:   entryRepo,
		locker:      locker,
		metrics:     metricsOrNop(metrics),
		logger:      logger.Named("cycle"),
	}
}

// SkippedBook is a book a batch transition left untouched
type SkippedBook struct {
	ID     uuid.UUID `json:"id"`
	Reason string    `json:"reason"`
}

// BatchResult reports a transition applied to several books
type BatchResult struct {
	Updated []entity.ReceiptBook `json:"updated"`
	Skipped []SkippedBook        `json:"skipped"`
}

// AssignInput represents a request to hand books to collection staff
type AssignInput struct {
	IDs       []uuid.UUID
	StaffName string
	RouteName string
}

// EntrySession is the editing context of a book ready for entry
type EntrySession struct {
	Book              *entity.ReceiptBook      `json:"book"`
	NeedsSummary      bool                     `json:"needs_summary"`
	Summary           *entity.CycleSummary     `json:"summary,omitempty"`
	Entries           []entity.CollectionEntry `json:"entries"`
	NextReceiptNumber int                      `json:"next_receipt_number"`
}

// PostingOutcome carries every attempt of one submission
type PostingOutcome struct {
	Cycle     int
	Date      time.Time
	StaffName string
	Entries   []entity.PostedEntry
}

// InventoryGroup is one status bucket of the inventory
type InventoryGroup struct {
	Count int                  `json:"count"`
	Books []entity.ReceiptBook `json:"books"`
}

// Inventory groups every book by where it is in its cycle
type Inventory struct {
	Inactive InventoryGroup `json:"inactive"`
	Ready    InventoryGroup `json:"ready"`
	Issued   InventoryGroup `json:"issued"`
	Posted   InventoryGroup `json:"posted"`
	Total    int            `json:"total"`
}

// MarkReady moves Inactive books to Ready. A Returned book goes back on
// the shelf in a new cycle.
func (s *CycleService) MarkReady(ctx context.Context, ids []uuid.UUID) (*BatchResult, error) {
	return s.transitionEach(ctx, ids, func(book *entity.ReceiptBook) string {
		switch book.Status {
		case enum.BookStatusInactive:
			book.Status = enum.BookStatusReady
		case enum.BookStatusReturned:
			if book.IsExhausted() {
				return "book " + book.Label() + " has no unused pages"
			}
			book.StartNewCycle()
		default:
			return "book is " + book.Status.String() + ", only Inactive or Returned books can be made ready"
		}
		return ""
	})
}

// MarkInactive moves Ready books back to Inactive
func (s *CycleService) MarkInactive(ctx context.Context, ids []uuid.UUID) (*BatchResult, error) {
	return s.transitionEach(ctx, ids, func(book *entity.ReceiptBook) string {
		if book.Status != enum.BookStatusReady {
			return "book is " + book.Status.String() + ", only Ready books can be deactivated"
		}
		book.Status = enum.BookStatusInactive
		return ""
	})
}

// Assign hands Ready books to a member of staff
func (s *CycleService) Assign(ctx context.Context, input AssignInput) (*BatchResult, error) {
	staff := strings.TrimSpace(input.StaffName)
	if staff == "" {
		return nil, apperror.NewFieldValidationError("staff_name", "Staff name is required")
	}
	route := optionalString(input.RouteName)

	return s.transitionEach(ctx, input.IDs, func(book *entity.ReceiptBook) string {
		if book.Status != enum.BookStatusReady {
			return "book is " + book.Status.String() + ", only Ready books can be assigned"
		}
		assignTo(book, staff, route)
		return ""
	})
}

// ReturnBook records that staff brought an assigned book back
func (s *CycleService) ReturnBook(ctx context.Context, id uuid.UUID) (*entity.ReceiptBook, error) {
	return s.mutate(ctx, id, func(book *entity.ReceiptBook) error {
		if book.Status != enum.BookStatusAssigned {
			return apperror.NewFieldValidationError("status", "Only Assigned books can be returned, book is "+book.Status.String())
		}
		book.Status = enum.BookStatusReturned
		return nil
	})
}

// Reassign starts a new cycle on a returned book and assigns it again
func (s *CycleService) Reassign(ctx context.Context, id uuid.UUID, staffName, routeName string) (*entity.ReceiptBook, error) {
	staff := strings.TrimSpace(staffName)
	if staff == "" {
		return nil, apperror.NewFieldValidationError("staff_name", "Staff name is required")
	}

	return s.mutate(ctx, id, func(book *entity.ReceiptBook) error {
		if book.Status != enum.BookStatusReturned {
			return apperror.NewFieldValidationError("status", "Only Returned books can be reassigned, book is "+book.Status.String())
		}
		if book.IsExhausted() {
			return apperror.NewBookExhaustedError(book.Label())
		}
		book.StartNewCycle()
		assignTo(book, staff, optionalString(routeName))
		return nil
	})
}

// Reready starts a new cycle on a posted book that still has pages
func (s *CycleService) Reready(ctx context.Context, id uuid.UUID) (*entity.ReceiptBook, error) {
	return s.mutate(ctx, id, func(book *entity.ReceiptBook) error {
		if book.Status != enum.BookStatusPosted {
			return apperror.NewFieldValidationError("status", "Only Posted books can be made ready again, book is "+book.Status.String())
		}
		if book.IsExhausted() {
			return apperror.NewBookExhaustedError(book.Label())
		}
		book.StartNewCycle()
		return nil
	})
}

// DeleteBook removes a book that never left the shelf
func (s *CycleService) DeleteBook(ctx context.Context, id uuid.UUID) error {
	return s.locker.WithLock(ctx, bookKey(id), func() error {
		book, err := s.loadBook(ctx, id)
		if err != nil {
			return err
		}
		if book.Status != enum.BookStatusInactive && book.Status != enum.BookStatusReady {
			return apperror.NewBookInUseError(fmt.Sprintf("Receipt book %s is %s and cannot be deleted", book.Label(), book.Status))
		}

		posted, err := s.entryRepo.CountByBook(ctx, id)
		if err != nil {
			return err
		}
		if book.EverPosted || posted > 0 {
			return apperror.NewBookInUseError(fmt.Sprintf("Receipt book %s has posted receipts and cannot be deleted", book.Label()))
		}

		if err := s.bookRepo.Delete(ctx, id); err != nil {
			return err
		}
		s.logger.Info("book deleted", zap.String("book_id", id.String()), zap.String("label", book.Label()))
		return nil
	})
}

// OpenForEntry prepares the editing context of an issued or posted book
func (s *CycleService) OpenForEntry(ctx context.Context, id uuid.UUID) (*EntrySession, error) {
	book, err := s.loadBook(ctx, id)
	if err != nil {
		return nil, err
	}
	if !book.Status.AcceptsEntries() {
		return nil, apperror.NewFieldValidationError("status", "Book must be Assigned, Returned or Posted to enter receipts, book is "+book.Status.String())
	}

	summary, err := s.summaryRepo.Get(ctx, book.ID, book.CurrentCycle)
	if err != nil {
		return nil, err
	}
	book.Summary = summary

	session := &EntrySession{
		Book:              book,
		Summary:           summary,
		NextReceiptNumber: book.AvailableFrom,
		Entries:           []entity.CollectionEntry{},
	}
	if summary == nil || !summary.Locked {
		session.NeedsSummary = true
		return session, nil
	}

	attempts, err := s.entryRepo.ListByCycle(ctx, book.ID, book.CurrentCycle)
	if err != nil {
		return nil, err
	}
	for _, failed := range unresolvedFailures(attempts) {
		session.Entries = append(session.Entries, failed.AsCollectionEntry())
	}
	if book.Status != enum.BookStatusPosted && !book.IsExhausted() {
		session.Entries = append(session.Entries, entity.CollectionEntry{ReceiptNumber: book.AvailableFrom})
	}
	return session, nil
}

// CompleteCycle records a submission's attempts and moves the book to
// Posted. The caller must hold the book's lock.
func (s *CycleService) CompleteCycle(ctx context.Context, id uuid.UUID, outcome PostingOutcome) (*entity.ReceiptBook, error) {
	book, err := s.loadBook(ctx, id)
	if err != nil {
		return nil, err
	}
	if !book.Status.AcceptsEntries() {
		return nil, apperror.NewFieldValidationError("status", "Book cannot be posted from status "+book.Status.String())
	}
	if outcome.Cycle != book.CurrentCycle {
		return nil, apperror.NewConflictError(fmt.Sprintf("Posting was prepared for cycle %d but the book is in cycle %d", outcome.Cycle, book.CurrentCycle))
	}

	prior, err := s.entryRepo.ListByCycle(ctx, book.ID, book.CurrentCycle)
	if err != nil {
		return nil, err
	}
	lastAttempt := make(map[int]int, len(prior))
	for _, p := range prior {
		lastAttempt[p.ReceiptNumber] = max(lastAttempt[p.ReceiptNumber], p.Attempt)
	}

	entries := make([]entity.PostedEntry, len(outcome.Entries))
	highest := 0
	for i, e := range outcome.Entries {
		e.BookID = book.ID
		e.Cycle = book.CurrentCycle
		e.Attempt = lastAttempt[e.ReceiptNumber] + 1
		e.StaffName = outcome.StaffName
		e.EntryDate = outcome.Date
		e.Total = e.Amounts.Total()
		entries[i] = e
		highest = max(highest, e.ReceiptNumber)
	}

	now := time.Now()
	book.Status = enum.BookStatusPosted
	book.PostedAt = &now
	if len(entries) > 0 {
		book.EverPosted = true
		book.AdvancePast(highest)
	}
	book.CycleSuccessCount, book.CycleEntryCount = cycleCounts(append(prior, entries...))

	if err := s.bookRepo.CompleteCycle(ctx, book, entries); err != nil {
		return nil, fmt.Errorf("failed to complete cycle: %w", err)
	}

	s.metrics.ObserveTransition(book.Status.String())
	s.logger.Info("book cycle posted",
		zap.String("book_id", book.ID.String()),
		zap.Int("cycle", book.CurrentCycle),
		zap.Int("attempted", len(entries)),
		zap.Int("available_from", book.AvailableFrom),
	)
	return book, nil
}

// GetBook returns a book with the summary of its current cycle
func (s *CycleService) GetBook(ctx context.Context, id uuid.UUID) (*entity.ReceiptBook, error) {
	book, err := s.loadBook(ctx, id)
	if err != nil {
		return nil, err
	}
	summary, err := s.summaryRepo.Get(ctx, book.ID, book.CurrentCycle)
	if err != nil {
		return nil, err
	}
	book.Summary = summary
	return book, nil
}

// ListBooks lists books matching the filter
func (s *CycleService) ListBooks(ctx context.Context, params *repository.BookFilterParams) (*pagination.PaginatedResult[entity.ReceiptBook], error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	books, total, err := s.bookRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(books, pag), nil
}

// Inventory groups all books by status
func (s *CycleService) Inventory(ctx context.Context) (*Inventory, error) {
	books, err := s.bookRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	inv := &Inventory{
		Inactive: InventoryGroup{Books: []entity.ReceiptBook{}},
		Ready:    InventoryGroup{Books: []entity.ReceiptBook{}},
		Issued:   InventoryGroup{Books: []entity.ReceiptBook{}},
		Posted:   InventoryGroup{Books: []entity.ReceiptBook{}},
	}
	for _, b := range books {
		var group *InventoryGroup
		switch {
		case b.Status == enum.BookStatusInactive:
			group = &inv.Inactive
		case b.Status == enum.BookStatusReady:
			group = &inv.Ready
		case b.Status.IsIssued():
			group = &inv.Issued
		case b.Status == enum.BookStatusPosted:
			group = &inv.Posted
		default:
			continue
		}
		group.Books = append(group.Books, b)
		group.Count++
		inv.Total++
	}
	return inv, nil
}

// History returns a book's posted attempts, newest first
func (s *CycleService) History(ctx context.Context, id uuid.UUID, params *pagination.CursorParams) (*pagination.CursorPaginatedResult[entity.PostedEntry], error) {
	if _, err := s.loadBook(ctx, id); err != nil {
		return nil, err
	}

	entries, err := s.entryRepo.ListWithCursor(ctx, id, params)
	if err != nil {
		return nil, apperror.NewBadRequestError(err.Error())
	}

	cursorPag, items := pagination.NewCursorPagination(entries, params.Limit,
		func(e entity.PostedEntry) string { return e.ID.String() },
		func(e entity.PostedEntry) time.Time { return e.CreatedAt },
	)
	cursorPag.HasPrev = params.Cursor != ""

	return pagination.NewCursorPaginatedResult(items, cursorPag), nil
}

func (s *CycleService) loadBook(ctx context.Context, id uuid.UUID) (*entity.ReceiptBook, error) {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, apperror.NewNotFoundError("Receipt book")
	}
	return book, nil
}

// mutate applies fn to one book under its lock and stores the result
func (s *CycleService) mutate(ctx context.Context, id uuid.UUID, fn func(book *entity.ReceiptBook) error) (*entity.ReceiptBook, error) {
	var result *entity.ReceiptBook
	err := s.locker.WithLock(ctx, bookKey(id), func() error {
		book, err := s.loadBook(ctx, id)
		if err != nil {
			return err
		}
		from := book.Status
		if err := fn(book); err != nil {
			return err
		}
		if err := s.bookRepo.Update(ctx, book); err != nil {
			return err
		}
		s.logTransition(book, from)
		result = book
		return nil
	})
	return result, err
}

// transitionEach applies fn to each book under its own lock. A non-empty
// reason from fn skips the book.
func (s *CycleService) transitionEach(ctx context.Context, ids []uuid.UUID, fn func(book *entity.ReceiptBook) string) (*BatchResult, error) {
	if len(ids) == 0 {
		return nil, apperror.NewFieldValidationError("book_ids", "At least one book is required")
	}

	result := &BatchResult{Updated: []entity.ReceiptBook{}, Skipped: []SkippedBook{}}
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		err := s.locker.WithLock(ctx, bookKey(id), func() error {
			book, err := s.bookRepo.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if book == nil {
				result.Skipped = append(result.Skipped, SkippedBook{ID: id, Reason: "book not found"})
				return nil
			}

			from := book.Status
			if reason := fn(book); reason != "" {
				result.Skipped = append(result.Skipped, SkippedBook{ID: id, Reason: reason})
				return nil
			}
			if err := s.bookRepo.Update(ctx, book); err != nil {
				return err
			}
			s.logTransition(book, from)
			result.Updated = append(result.Updated, *book)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *CycleService) logTransition(book *entity.ReceiptBook, from enum.BookStatus) {
	if book.Status == from {
		return
	}
	s.metrics.ObserveTransition(book.Status.String())
	s.logger.Info("book status changed",
		zap.String("book_id", book.ID.String()),
		zap.String("label", book.Label()),
		zap.String("from", from.String()),
		zap.String("to", book.Status.String()),
		zap.Int("cycle", book.CurrentCycle),
	)
}

func assignTo(book *entity.ReceiptBook, staff string, route *string) {
	now := time.Now()
	book.Status = enum.BookStatusAssigned
	book.AssignedTo = &staff
	book.RouteName = route
	book.AssignedAt = &now
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// unresolvedFailures returns the latest attempt of every receipt number
// whose attempts all failed, in receipt order.
func unresolvedFailures(attempts []entity.PostedEntry) []entity.PostedEntry {
	latest := make(map[int]entity.PostedEntry)
	succeeded := make(map[int]bool)
	for _, a := range attempts {
		if a.Success {
			succeeded[a.ReceiptNumber] = true
			continue
		}
		if prev, ok := latest[a.ReceiptNumber]; !ok || a.Attempt > prev.Attempt {
			latest[a.ReceiptNumber] = a
		}
	}

	failed := make([]entity.PostedEntry, 0, len(latest))
	for n, a := range latest {
		if !succeeded[n] {
			failed = append(failed, a)
		}
	}
	sort.Slice(failed, func(i, j int) bool { return failed[i].ReceiptNumber < failed[j].ReceiptNumber })
	return failed
}

// cycleCounts counts distinct receipt numbers posted and attempted
func cycleCounts(attempts []entity.PostedEntry) (success, total int) {
	attempted := make(map[int]bool)
	succeeded := make(map[int]bool)
	for _, a := range attempts {
		attempted[a.ReceiptNumber] = true
		if a.Success {
			succeeded[a.ReceiptNumber] = true
		}
	}
	return len(succeeded), len(attempted)
}
