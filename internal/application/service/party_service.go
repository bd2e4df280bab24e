package service

import (
	"context"
	"strings"

	"github.com/sangkips/collection-desk/internal/domain/entity"
	"github.com/sangkips/collection-desk/internal/domain/repository"
	"github.com/sangkips/collection-desk/pkg/apperror"
	"github.com/sangkips/collection-desk/pkg/pagination"
)

// PartyService backs party name autocomplete
type PartyService struct {
	partyRepo repository.PartyRepository
}

// NewPartyService creates a new party service
func NewPartyService(partyRepo repository.PartyRepository) *PartyService {
	return &PartyService{partyRepo: partyRepo}
}

// CreatePartyInput represents the create party input
type CreatePartyInput struct {
	Name        string
	Phone       *string
	Address     *string
	RouteName   *string
	LedgerRefID *string
}

// CreateParty adds a party to the directory
func (s *PartyService) CreateParty(ctx context.Context, input *CreatePartyInput) (*entity.Party, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.NewFieldValidationError("name", "Party name is required")
	}

	existing, err := s.partyRepo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewConflictError("Party " + name + " already exists")
	}

	party := &entity.Party{
		Name:        name,
		Phone:       input.Phone,
		Address:     input.Address,
		RouteName:   input.RouteName,
		LedgerRefID: input.LedgerRefID,
	}
	if err := s.partyRepo.Create(ctx, party); err != nil {
		return nil, err
	}
	return party, nil
}

// SearchParties lists parties whose name or phone matches search
func (s *PartyService) SearchParties(ctx context.Context, params *pagination.PaginationParams, search, routeName string) (*pagination.PaginatedResult[entity.Party], error) {
	parties, total, err := s.partyRepo.Search(ctx, params, strings.TrimSpace(search), routeName)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(params.Page, params.PerPage, total)
	return pagination.NewPaginatedResult(parties, pag), nil
}
