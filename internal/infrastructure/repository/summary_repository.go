package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/collection-desk/internal/domain/entity"
	domainRepo "github.com/sangkips/collection-desk/internal/domain/repository"
	"gorm.io/gorm"
)

type summaryRepository struct {
	db *gorm.DB
}

// NewSummaryRepository creates a new cycle summary repository
func NewSummaryRepository(db *gorm.DB) domainRepo.SummaryRepository {
	return &summaryRepository{db: db}
}

func (r *summaryRepository) Get(ctx context.Context, bookID uuid.UUID, cycle int) (*entity.CycleSummary, error) {
	var summary entity.CycleSummary
	err := r.db.WithContext(ctx).
		Where("book_id = ? AND cycle = ?", bookID, cycle).
		First(&summary).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &summary, err
}

func (r *summaryRepository) Upsert(ctx context.Context, summary *entity.CycleSummary) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing entity.CycleSummary
		err := tx.Where("book_id = ? AND cycle = ?", summary.BookID, summary.Cycle).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(summary).Error
		}
		if err != nil {
			return err
		}
		summary.ID = existing.ID
		summary.CreatedAt = existing.CreatedAt
		return tx.Save(summary).Error
	})
}

func (r *summaryRepository) SetLocked(ctx context.Context, bookID uuid.UUID, cycle int, locked bool) error {
	return r.db.WithContext(ctx).Model(&entity.CycleSummary{}).
		Where("book_id = ? AND cycle = ?", bookID, cycle).
		Update("locked", locked).Error
}
