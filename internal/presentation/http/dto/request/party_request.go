package request

// CreatePartyRequest represents a party directory entry
type CreatePartyRequest struct {
	Name        string  `json:"name" binding:"required,max=255"`
	Phone       *string `json:"phone" binding:"omitempty,max=50"`
	Address     *string `json:"address"`
	RouteName   *string `json:"route_name"`
	LedgerRefID *string `json:"ledger_ref_id"`
}
