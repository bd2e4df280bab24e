package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/collection-desk/internal/domain/entity"
	"github.com/sangkips/collection-desk/internal/domain/enum"
	"github.com/sangkips/collection-desk/internal/domain/repository"
	"github.com/sangkips/collection-desk/internal/infrastructure/database"
	"github.com/sangkips/collection-desk/internal/infrastructure/lock"
	infraRepo "github.com/sangkips/collection-desk/internal/infrastructure/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeLedger accepts every receipt except those whose party is listed in
// failParties.
type fakeLedger struct {
	mu          sync.Mutex
	failParties map[string]bool
	calls       int32
	records     []entity.ReceiptRecord
	hook        func(record entity.ReceiptRecord)
}

func newFakeLedger(failParties ...string) *fakeLedger {
	f := &fakeLedger{failParties: make(map[string]bool)}
	for _, p := range failParties {
		f.failParties[p] = true
	}
	return f
}

func (f *fakeLedger) CreateReceiptRecord(ctx context.Context, record entity.ReceiptRecord) (string, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if f.hook != nil {
		f.hook(record)
	}

	f.mu.Lock()
	f.records = append(f.records, record)
	fail := f.failParties[record.PartyName]
	f.mu.Unlock()

	if fail {
		return "", errors.New("ledger refused " + record.PartyName)
	}
	return fmt.Sprintf("RV-%04d", n), nil
}

func (f *fakeLedger) setFailing(party string, fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failParties[party] = fail
}

func (f *fakeLedger) callCount() int {
	return int(atomic.LoadInt32(&f.calls))
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyPosting(ctx context.Context, notice entity.PostingNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}

// spyCompleter counts CompleteCycle calls before delegating
type spyCompleter struct {
	next  CycleCompleter
	calls int32
	last  PostingOutcome
}

func (s *spyCompleter) CompleteCycle(ctx context.Context, id uuid.UUID, outcome PostingOutcome) (*entity.ReceiptBook, error) {
	atomic.AddInt32(&s.calls, 1)
	s.last = outcome
	return s.next.CompleteCycle(ctx, id, outcome)
}

type testEnv struct {
	books     repository.BookRepository
	summaries repository.SummaryRepository
	entries   repository.PostedEntryRepository
	locker    *lock.LocalLocker
	validator *EntryValidator
	allocator *BookAllocator
	cycle     *CycleService
	summary   *SummaryService
	ledger    *fakeLedger
	notifier  *mockNotifier
	completer *spyCompleter
	posting   *PostingService
}

func newTestEnv(t *testing.T, failParties ...string) *testEnv {
	t.Helper()

	db, err := database.NewSQLiteDB(":memory:", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db, zap.NewNop()))

	env := &testEnv{
		books:     infraRepo.NewBookRepository(db),
		summaries: infraRepo.NewSummaryRepository(db),
		entries:   infraRepo.NewPostedEntryRepository(db),
		locker:    lock.NewLocalLocker(),
		validator: NewEntryValidator(),
		ledger:    newFakeLedger(failParties...),
		notifier:  &mockNotifier{},
	}
	logger := zap.NewNop()

	env.allocator = NewBookAllocator(env.books, nil, logger)
	env.cycle = NewCycleService(env.books, env.summaries, env.entries, env.locker, nil, logger)
	env.summary = NewSummaryService(env.books, env.summaries, env.validator, env.locker, logger)
	env.completer = &spyCompleter{next: env.cycle}
	env.posting = NewPostingService(PostingDeps{
		BookRepo:  env.books,
		EntryRepo: env.entries,
		Completer: env.completer,
		Ledger:    env.ledger,
		Notifier:  env.notifier,
		Locker:    env.locker,
		Validator: env.validator,
		Logger:    logger,
		Workers:   3,
	})
	env.notifier.On("NotifyPosting", mock.Anything, mock.Anything).Return(nil).Maybe()

	return env
}

// postingWith builds a posting service sharing the env's stores
func (e *testEnv) postingWith(workers int, notifier Notifier) *PostingService {
	return NewPostingService(PostingDeps{
		BookRepo:  e.books,
		EntryRepo: e.entries,
		Completer: e.completer,
		Ledger:    e.ledger,
		Notifier:  notifier,
		Locker:    e.locker,
		Validator: e.validator,
		Logger:    zap.NewNop(),
		Workers:   workers,
	})
}

func (e *testEnv) createBook(t *testing.T, start, end int, status enum.BookStatus) *entity.ReceiptBook {
	t.Helper()
	book := entity.NewReceiptBook(start, end, "", "", status)
	if status.IsIssued() {
		staff := "Ram"
		book.AssignedTo = &staff
	}
	require.NoError(t, e.books.Create(context.Background(), book))
	return book
}

func (e *testEnv) reload(t *testing.T, id uuid.UUID) *entity.ReceiptBook {
	t.Helper()
	book, err := e.books.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, book)
	return book
}

func cashEntry(number int, party string, cash int64) entity.CollectionEntry {
	return entity.CollectionEntry{
		ReceiptNumber: number,
		PartyName:     party,
		Amounts:       entity.Amounts{Cash: decimal.NewFromInt(cash)},
	}
}
