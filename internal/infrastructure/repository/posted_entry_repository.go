package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sangkips/collection-desk/internal/domain/entity"
	domainRepo "github.com/sangkips/collection-desk/internal/domain/repository"
	"github.com/sangkips/collection-desk/pkg/pagination"
	"gorm.io/gorm"
)

type postedEntryRepository struct {
	db *gorm.DB
}

// NewPostedEntryRepository creates a new posted entry repository
func NewPostedEntryRepository(db *gorm.DB) domainRepo.PostedEntryRepository {
	return &postedEntryRepository{db: db}
}

// ListByCycle returns every attempt of the cycle in receipt order,
// oldest attempt first.
func (r *postedEntryRepository) ListByCycle(ctx context.Context, bookID uuid.UUID, cycle int) ([]entity.PostedEntry, error) {
	var entries []entity.PostedEntry
	err := r.db.WithContext(ctx).
		Where("book_id = ? AND cycle = ?", bookID, cycle).
		Order("receipt_number ASC, attempt ASC").
		Find(&entries).Error
	return entries, err
}

func (r *postedEntryRepository) CountByBook(ctx context.Context, bookID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.PostedEntry{}).
		Where("book_id = ?", bookID).
		Count(&count).Error
	return count, err
}

// ListWithCursor returns the newest attempts first using cursor-based
// pagination. Fetches limit+1 items to detect if there are more results.
func (r *postedEntryRepository) ListWithCursor(ctx context.Context, bookID uuid.UUID, params *pagination.CursorParams) ([]entity.PostedEntry, error) {
	var entries []entity.PostedEntry

	params.Validate()
	query := r.db.WithContext(ctx).Model(&entity.PostedEntry{}).Where("book_id = ?", bookID)

	cursor, err := params.DecodeCursor()
	if err != nil {
		return nil, err
	}

	if cursor != nil {
		cursorID, err := uuid.Parse(cursor.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid cursor id: %w", err)
		}
		if params.Direction == pagination.CursorDirectionPrev {
			query = query.Where("(created_at > ?) OR (created_at = ? AND id > ?)",
				cursor.CreatedAt, cursor.CreatedAt, cursorID)
		} else {
			query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
				cursor.CreatedAt, cursor.CreatedAt, cursorID)
		}
	}

	if params.Direction == pagination.CursorDirectionPrev {
		query = query.Order("created_at ASC, id ASC")
	} else {
		query = query.Order("created_at DESC, id DESC")
	}

	err = query.Limit(params.Limit + 1).Find(&entries).Error
	return entries, err
}

