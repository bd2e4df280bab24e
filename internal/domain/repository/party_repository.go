package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/collection-desk/internal/domain/entity"
	"github.com/sangkips/collection-desk/pkg/pagination"
)

// PartyRepository defines the interface for the party directory
type PartyRepository interface {
	Create(ctx context.Context, party *entity.Party) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Party, error)
	GetByName(ctx context.Context, name string) (*entity.Party, error)
	Search(ctx context.Context, params *pagination.PaginationParams, search, routeName string) ([]entity.Party, int64, error)
}
