package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Source explains why a rate applies to an invoice.
type Source string

const (
	SourceDefault    Source = "default"
	SourceOutOfState Source = "out_of_state"
)

func (s Source) Valid() bool {
	return s == SourceDefault || s == SourceOutOfState
}

// Resolution is an effective tax rate, in percent, together with its provenance.
// It is computed on demand and only frozen onto an invoice when the invoice is saved.
type Resolution struct {
	Rate   decimal.Decimal `json:"rate"`
	Source Source          `json:"source"`
}

// Resolver resolves the live rate for a client of the current organization.
type Resolver interface {
	ResolveForCustomer(ctx context.Context, orgID snowflake.ID, customerID *snowflake.ID) (Resolution, error)
}

var (
	ErrCustomerNotFound = errors.New("tax_customer_not_found")
)
