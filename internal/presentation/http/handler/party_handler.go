package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/collection-desk/internal/application/service"
	"github.com/sangkips/collection-desk/internal/presentation/http/dto/request"
	"github.com/sangkips/collection-desk/internal/presentation/http/dto/response"
	"github.com/sangkips/collection-desk/pkg/pagination"
)

// PartyHandler handles the party directory
type PartyHandler struct {
	partyService *service.PartyService
}

// NewPartyHandler creates a new party handler
func NewPartyHandler(partyService *service.PartyService) *PartyHandler {
	return &PartyHandler{partyService: partyService}
}

// List handles party search for autocomplete
func (h *PartyHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	params := &pagination.PaginationParams{Page: page, PerPage: perPage}
	params.Validate()

	result, err := h.partyService.SearchParties(c.Request.Context(), params, c.Query("search"), c.Query("route"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, "Parties retrieved successfully", result)
}

// Create handles adding a party
func (h *PartyHandler) Create(c *gin.Context) {
	var req request.CreatePartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	party, err := h.partyService.CreateParty(c.Request.Context(), &service.CreatePartyInput{
		Name:        req.Name,
		Phone:       req.Phone,
		Address:     req.Address,
		RouteName:   req.RouteName,
		LedgerRefID: req.LedgerRefID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Party created successfully", party)
}
