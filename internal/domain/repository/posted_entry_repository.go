package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/collection-desk/internal/domain/entity"
	"github.com/sangkips/collection-desk/pkg/pagination"
)

// PostedEntryRepository reads the append-only log of submission attempts.
// Rows are written through BookRepository.CompleteCycle.
type PostedEntryRepository interface {
	ListByCycle(ctx context.Context, bookID uuid.UUID, cycle int) ([]entity.PostedEntry, error)
	CountByBook(ctx context.Context, bookID uuid.UUID) (int64, error)
	ListWithCursor(ctx context.Context, bookID uuid.UUID, params *pagination.CursorParams) ([]entity.PostedEntry, error)
}
