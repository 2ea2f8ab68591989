package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Product, error)
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (*Product, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Product, error)
	// PriceList returns the unit price of every product in the organization, keyed by id.
	// Inactive products stay in the list so saved invoices keep pricing them.
	PriceList(ctx context.Context, orgID snowflake.ID) (map[snowflake.ID]decimal.Decimal, error)
}

type CreateRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	UnitPrice   string  `json:"unit_price"`
	Active      *bool   `json:"active"`
}

// UpdateRequest edits a catalog entry. A new unit price reprices every line
// that references the product on invoices edited afterwards.
type UpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	UnitPrice   *string `json:"unit_price"`
	Active      *bool   `json:"active"`
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidUnitPrice    = errors.New("invalid_unit_price")
	ErrNotFound            = errors.New("not_found")
	ErrInvalidID           = errors.New("invalid_id")
)
