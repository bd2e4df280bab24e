package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/collection-desk/internal/domain/entity"
	"github.com/sangkips/collection-desk/internal/domain/enum"
	"github.com/sangkips/collection-desk/pkg/pagination"
)

// BookRepository defines the interface for receipt book data operations
type BookRepository interface {
	Create(ctx context.Context, book *entity.ReceiptBook) error
	// CreateBatch stores all books or none of them
	CreateBatch(ctx context.Context, books []*entity.ReceiptBook) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.ReceiptBook, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.ReceiptBook, error)
	Update(ctx context.Context, book *entity.ReceiptBook) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params *BookFilterParams) ([]entity.ReceiptBook, int64, error)
	// ListAll returns every book ordered by label, for inventory views
	ListAll(ctx context.Context) ([]entity.ReceiptBook, error)
	// CompleteCycle saves the book and appends its posted entries atomically
	CompleteCycle(ctx context.Context, book *entity.ReceiptBook, entries []entity.PostedEntry) error
}

// BookFilterParams contains filtering parameters for book queries
type BookFilterParams struct {
	Pagination *pagination.PaginationParams
	Search     string
	Status     *enum.BookStatus
	AssignedTo string
	BatchLabel string
}
