package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/collection-desk/internal/domain/entity"
	domainRepo "github.com/sangkips/collection-desk/internal/domain/repository"
	"github.com/sangkips/collection-desk/pkg/pagination"
	"gorm.io/gorm"
)

type partyRepository struct {
	db *gorm.DB
}

// NewPartyRepository creates a new party repository
func NewPartyRepository(db *gorm.DB) domainRepo.PartyRepository {
	return &partyRepository{db: db}
}

func (r *partyRepository) Create(ctx context.Context, party *entity.Party) error {
	return r.db.WithContext(ctx).Create(party).Error
}

func (r *partyRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Party, error) {
	var party entity.Party
	err := r.db.WithContext(ctx).First(&party, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &party, err
}

func (r *partyRepository) GetByName(ctx context.Context, name string) (*entity.Party, error) {
	var party entity.Party
	err := r.db.WithContext(ctx).First(&party, "LOWER(name) = ?", strings.ToLower(name)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &party, err
}

func (r *partyRepository) Search(ctx context.Context, params *pagination.PaginationParams, search, routeName string) ([]entity.Party, int64, error) {
	var parties []entity.Party
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Party{})

	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(phone) LIKE ?", like, like)
	}
	if routeName != "" {
		query = query.Where("route_name = ?", routeName)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Validate()
	err := query.Offset(params.Offset()).Limit(params.PerPage).
		Order("name ASC").
		Find(&parties).Error

	return parties, total, err
}
