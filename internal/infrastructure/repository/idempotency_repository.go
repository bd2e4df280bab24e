package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sangkips/collection-desk/internal/domain/entity"
	domainRepo "github.com/sangkips/collection-desk/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type idempotencyRepository struct {
	db *gorm.DB
}

// NewIdempotencyRepository creates a new idempotency repository
func NewIdempotencyRepository(db *gorm.DB) domainRepo.IdempotencyRepository {
	return &idempotencyRepository{db: db}
}

func (r *idempotencyRepository) GetByKey(ctx context.Context, key, endpoint string) (*entity.IdempotencyKey, error) {
	var ikey entity.IdempotencyKey
	err := r.db.WithContext(ctx).
		Where("key = ? AND endpoint = ?", key, endpoint).
		First(&ikey).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &ikey, err
}

// Reserve relies on the unique (key, endpoint) index: of two concurrent
// inserts only one affects a row.
func (r *idempotencyRepository) Reserve(ctx context.Context, ikey *entity.IdempotencyKey) (bool, error) {
	db := r.db.WithContext(ctx)

	err := db.Where("key = ? AND endpoint = ? AND expires_at < ?", ikey.Key, ikey.Endpoint, time.Now()).
		Delete(&entity.IdempotencyKey{}).Error
	if err != nil {
		return false, err
	}

	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(ikey)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *idempotencyRepository) Complete(ctx context.Context, key, endpoint string, code int, body string) error {
	return r.db.WithContext(ctx).
		Model(&entity.IdempotencyKey{}).
		Where("key = ? AND endpoint = ?", key, endpoint).
		Updates(map[string]any{"response_code": code, "response_body": body}).Error
}

func (r *idempotencyRepository) Release(ctx context.Context, key, endpoint string) error {
	return r.db.WithContext(ctx).
		Where("key = ? AND endpoint = ? AND response_code = 0", key, endpoint).
		Delete(&entity.IdempotencyKey{}).Error
}

func (r *idempotencyRepository) DeleteExpired(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&entity.IdempotencyKey{}).Error
}
