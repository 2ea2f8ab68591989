package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/studiobooks/pkg/db/pagination"
)

type ListCustomerRequest struct {
	PageToken   string
	PageSize    int32
	Name        string
	Email       string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListCustomerFilter struct {
	Name        string
	Email       string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListCustomerResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

type CreateCustomerRequest struct {
	Name         string
	Email        string
	BillingState string
}

// UpdateCustomerRequest patches a client. Nil fields are left alone; an empty
// BillingState clears it so the studio's home state applies again.
type UpdateCustomerRequest struct {
	ID           string
	Name         *string
	Email        *string
	BillingState *string
}

type GetCustomerRequest struct {
	ID string
}

type ListCreditsResponse struct {
	Credits []CustomerCredit `json:"credits"`
	Total   decimal.Decimal  `json:"total"`
}

type Service interface {
	Create(context.Context, CreateCustomerRequest) (Customer, error)
	List(context.Context, ListCustomerRequest) (ListCustomerResponse, error)
	GetByID(context.Context, GetCustomerRequest) (Customer, error)
	Update(context.Context, UpdateCustomerRequest) (Customer, error)
	ListCredits(context.Context, GetCustomerRequest) (ListCreditsResponse, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidEmail        = errors.New("invalid_email")
	ErrInvalidBillingState = errors.New("invalid_billing_state")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
)
