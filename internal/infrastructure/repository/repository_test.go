package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/sangkips/collection-desk/internal/domain/entity"
	"github.com/sangkips/collection-desk/internal/domain/enum"
	domainRepo "github.com/sangkips/collection-desk/internal/domain/repository"
	"github.com/sangkips/collection-desk/internal/infrastructure/database"
	"github.com/sangkips/collection-desk/pkg/pagination"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := database.NewSQLiteDB(":memory:", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db, zap.NewNop()))
	return db
}

func postedEntry(bookID uuid.UUID, cycle, number, attempt int, success bool) entity.PostedEntry {
	cash := decimal.NewFromInt(100)
	return entity.PostedEntry{
		BookID:        bookID,
		Cycle:         cycle,
		ReceiptNumber: number,
		Attempt:       attempt,
		PartyName:     "Shree Traders",
		EntryDate:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Amounts:       entity.Amounts{Cash: cash},
		Total:         cash,
		Success:       success,
	}
}

func TestBookRepository_CreateBatchAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBookRepository(db)
	ctx := context.Background()

	books := []*entity.ReceiptBook{
		entity.NewReceiptBook(1, 50, "2026A", "2026", enum.BookStatusReady),
		entity.NewReceiptBook(51, 100, "2026B", "2026", enum.BookStatusReady),
		entity.NewReceiptBook(101, 150, "2026C", "2026", enum.BookStatusInactive),
	}
	require.NoError(t, repo.CreateBatch(ctx, books))

	ready := enum.BookStatusReady
	list, total, err := repo.List(ctx, &domainRepo.BookFilterParams{
		Pagination: &pagination.PaginationParams{Page: 1, PerPage: 10},
		Status:     &ready,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "2026A", list[0].BookLabel)

	list, total, err = repo.List(ctx, &domainRepo.BookFilterParams{
		Pagination: &pagination.PaginationParams{Page: 1, PerPage: 10},
		Search:     "26c",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, 101, list[0].PageStart)

	found, err := repo.GetByIDs(ctx, []uuid.UUID{books[0].ID, books[2].ID})
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestBookRepository_GetByID_NotFound(t *testing.T) {
	repo := NewBookRepository(setupTestDB(t))

	book, err := repo.GetByID(context.Background(), uuid.New())

	assert.NoError(t, err)
	assert.Nil(t, book)
}

func TestBookRepository_CompleteCycle(t *testing.T) {
	db := setupTestDB(t)
	books := NewBookRepository(db)
	entries := NewPostedEntryRepository(db)
	ctx := context.Background()

	book := entity.NewReceiptBook(1, 50, "A", "", enum.BookStatusAssigned)
	require.NoError(t, books.Create(ctx, book))

	book.Status = enum.BookStatusPosted
	book.AdvancePast(3)
	err := books.CompleteCycle(ctx, book, []entity.PostedEntry{
		postedEntry(book.ID, 0, 1, 1, true),
		postedEntry(book.ID, 0, 2, 1, false),
		postedEntry(book.ID, 0, 3, 1, true),
	})
	require.NoError(t, err)

	stored, err := books.GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.BookStatusPosted, stored.Status)
	assert.Equal(t, 4, stored.AvailableFrom)

	list, err := entries.ListByCycle(ctx, book.ID, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, 2, list[1].ReceiptNumber)
	assert.False(t, list[1].Success)
	assert.True(t, list[0].Total.Equal(decimal.NewFromInt(100)))

	count, err := entries.CountByBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestBookRepository_CompleteCycle_RollsBackOnConflict(t *testing.T) {
	db := setupTestDB(t)
	books := NewBookRepository(db)
	ctx := context.Background()

	book := entity.NewReceiptBook(1, 50, "A", "", enum.BookStatusAssigned)
	require.NoError(t, books.Create(ctx, book))
	require.NoError(t, books.CompleteCycle(ctx, book, []entity.PostedEntry{postedEntry(book.ID, 0, 1, 1, true)}))

	book.AvailableFrom = 40
	err := books.CompleteCycle(ctx, book, []entity.PostedEntry{postedEntry(book.ID, 0, 1, 1, true)})
	assert.Error(t, err)

	stored, err := books.GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.AvailableFrom)
}

func TestSummaryRepository_Upsert(t *testing.T) {
	repo := NewSummaryRepository(setupTestDB(t))
	ctx := context.Background()
	bookID := uuid.New()

	first := &entity.CycleSummary{BookID: bookID, Cycle: 0, EntryCount: 3, Locked: true,
		Amounts: entity.Amounts{Cash: decimal.NewFromInt(300)}}
	require.NoError(t, repo.Upsert(ctx, first))

	second := &entity.CycleSummary{BookID: bookID, Cycle: 0, EntryCount: 4, Locked: true,
		Amounts: entity.Amounts{Cash: decimal.NewFromInt(400)}}
	require.NoError(t, repo.Upsert(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	got, err := repo.Get(ctx, bookID, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, got.EntryCount)
	assert.True(t, got.Cash.Equal(decimal.NewFromInt(400)))

	require.NoError(t, repo.SetLocked(ctx, bookID, 0, false))
	got, err = repo.Get(ctx, bookID, 0)
	require.NoError(t, err)
	assert.False(t, got.Locked)

	none, err := repo.Get(ctx, bookID, 1)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestPostedEntryRepository_ListWithCursor(t *testing.T) {
	db := setupTestDB(t)
	books := NewBookRepository(db)
	repo := NewPostedEntryRepository(db)
	ctx := context.Background()

	book := entity.NewReceiptBook(1, 50, "A", "", enum.BookStatusAssigned)
	require.NoError(t, books.Create(ctx, book))
	require.NoError(t, books.CompleteCycle(ctx, book, []entity.PostedEntry{
		postedEntry(book.ID, 0, 1, 1, true),
		postedEntry(book.ID, 0, 2, 1, true),
		postedEntry(book.ID, 0, 3, 1, true),
	}))

	params := &pagination.CursorParams{Limit: 2}
	page, err := repo.ListWithCursor(ctx, book.ID, params)
	require.NoError(t, err)
	assert.Len(t, page, 3)

	_, err = repo.ListWithCursor(ctx, book.ID, &pagination.CursorParams{Cursor: "%%%"})
	assert.Error(t, err)
}

func TestPartyRepository_Search(t *testing.T) {
	repo := NewPartyRepository(setupTestDB(t))
	ctx := context.Background()

	route := "North"
	require.NoError(t, repo.Create(ctx, &entity.Party{Name: "Shree Traders", RouteName: &route}))
	require.NoError(t, repo.Create(ctx, &entity.Party{Name: "Himal Suppliers"}))

	parties, total, err := repo.Search(ctx, &pagination.PaginationParams{}, "shree", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Shree Traders", parties[0].Name)

	_, total, err = repo.Search(ctx, &pagination.PaginationParams{}, "", "North")
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	p, err := repo.GetByName(ctx, "himal suppliers")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Himal Suppliers", p.Name)
}

func TestIdempotencyRepository(t *testing.T) {
	repo := NewIdempotencyRepository(setupTestDB(t))
	ctx := context.Background()
	pending := func(key string, expires time.Time) *entity.IdempotencyKey {
		return &entity.IdempotencyKey{Key: key, Endpoint: "POST /submit", ExpiresAt: expires}
	}

	ok, err := repo.Reserve(ctx, pending("k1", time.Now().Add(time.Hour)))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Reserve(ctx, pending("k1", time.Now().Add(time.Hour)))
	require.NoError(t, err)
	assert.False(t, ok, "a live key cannot be reserved twice")

	got, err := repo.GetByKey(ctx, "k1", "POST /submit")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsPending())

	require.NoError(t, repo.Complete(ctx, "k1", "POST /submit", 200, `{"ok":true}`))
	require.NoError(t, repo.Release(ctx, "k1", "POST /submit"))
	got, err = repo.GetByKey(ctx, "k1", "POST /submit")
	require.NoError(t, err)
	require.NotNil(t, got, "completed keys are not released")
	assert.Equal(t, 200, got.ResponseCode)
	assert.Equal(t, `{"ok":true}`, got.ResponseBody)

	other, err := repo.GetByKey(ctx, "k1", "POST /other")
	require.NoError(t, err)
	assert.Nil(t, other)

	t.Run("release frees a pending key", func(t *testing.T) {
		ok, err := repo.Reserve(ctx, pending("k2", time.Now().Add(time.Hour)))
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, repo.Release(ctx, "k2", "POST /submit"))

		ok, err = repo.Reserve(ctx, pending("k2", time.Now().Add(time.Hour)))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("expired keys are replaced and purged", func(t *testing.T) {
		ok, err := repo.Reserve(ctx, pending("k3", time.Now().Add(-time.Minute)))
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = repo.Reserve(ctx, pending("k3", time.Now().Add(time.Hour)))
		require.NoError(t, err)
		assert.True(t, ok)

		_, err = repo.Reserve(ctx, pending("k4", time.Now().Add(-time.Minute)))
		require.NoError(t, err)
		require.NoError(t, repo.DeleteExpired(ctx))
		got, err := repo.GetByKey(ctx, "k4", "POST /submit")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestBookRepository_GetByID_Postgres(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	repo := NewBookRepository(gormDB)
	bookID := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "page_start", "page_end", "book_label", "status", "available_from", "current_cycle"}).
		AddRow(bookID.String(), 1, 50, "2026A", int64(2), 11, 1)
	mock.ExpectQuery(`SELECT \* FROM "receipt_books" WHERE id = \$1 AND "receipt_books"."deleted_at" IS NULL ORDER BY .* LIMIT .*`).
		WithArgs(bookID, 1).
		WillReturnRows(rows)

	book, err := repo.GetByID(context.Background(), bookID)

	require.NoError(t, err)
	require.NotNil(t, book)
	assert.Equal(t, bookID, book.ID)
	assert.Equal(t, enum.BookStatusAssigned, book.Status)
	assert.Equal(t, 11, book.AvailableFrom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
