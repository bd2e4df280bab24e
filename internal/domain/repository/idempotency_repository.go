package repository

import (
	"context"

	"github.com/sangkips/collection-desk/internal/domain/entity"
)

// IdempotencyRepository defines the interface for idempotency key operations
type IdempotencyRepository interface {
	// GetByKey retrieves a stored response by key and endpoint
	GetByKey(ctx context.Context, key, endpoint string) (*entity.IdempotencyKey, error)
	// Reserve inserts a pending key, replacing an expired one. It reports
	// false when a live key already exists.
	Reserve(ctx context.Context, ikey *entity.IdempotencyKey) (bool, error)
	// Complete stores the response of a reserved key
	Complete(ctx context.Context, key, endpoint string, code int, body string) error
	// Release drops a pending key so the request can be sent again
	Release(ctx context.Context, key, endpoint string) error
	// DeleteExpired removes expired idempotency keys
	DeleteExpired(ctx context.Context) error
}
