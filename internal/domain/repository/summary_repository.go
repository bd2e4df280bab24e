package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/collection-desk/internal/domain/entity"
)

// SummaryRepository stores one declared summary per (book, cycle)
type SummaryRepository interface {
	Get(ctx context.Context, bookID uuid.UUID, cycle int) (*entity.CycleSummary, error)
	// Upsert creates or replaces the summary of the given (book, cycle)
	Upsert(ctx context.Context, summary *entity.CycleSummary) error
	SetLocked(ctx context.Context, bookID uuid.UUID, cycle int, locked bool) error
}
