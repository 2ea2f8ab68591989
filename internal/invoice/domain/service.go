package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	taxdomain "github.com/smallbiznis/studiobooks/internal/tax/domain"
	"github.com/smallbiznis/studiobooks/pkg/db/pagination"
)

type PreviewRequest struct {
	CustomerID *snowflake.ID
	Items      []StoredLineItem
	Discount   DiscountRule
}

type PreviewResponse struct {
	Lines  []ItemPricing        `json:"lines"`
	Totals Totals               `json:"totals"`
	Tax    taxdomain.Resolution `json:"tax"`
}

type SaveInvoiceRequest struct {
	CustomerID *snowflake.ID
	Items      []StoredLineItem
	Discount   DiscountRule
	DueDate    *time.Time
	Notes      *string
}

type ListInvoiceRequest struct {
	PageToken  string
	PageSize   int32
	CustomerID *snowflake.ID
}

// InvoiceRow is one list entry. Figures come from the same snapshot composition as the detail view.
type InvoiceRow struct {
	ID            snowflake.ID  `json:"id"`
	InvoiceNumber string        `json:"invoice_number"`
	CustomerID    *snowflake.ID `json:"customer_id,omitempty"`
	DueDate       *time.Time    `json:"due_date,omitempty"`
	Totals        Totals        `json:"totals"`
	DisplayStatus Status        `json:"display_status"`
	IssuedAt      time.Time     `json:"issued_at"`
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []InvoiceRow `json:"invoices"`
}

type Service interface {
	Preview(ctx context.Context, req PreviewRequest) (PreviewResponse, error)
	Create(ctx context.Context, req SaveInvoiceRequest) (Snapshot, error)
	Update(ctx context.Context, id string, req SaveInvoiceRequest) (Snapshot, error)
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)
	GetByID(ctx context.Context, id string) (Invoice, error)
	// GetSnapshot is the authoritative read used for reconciliation.
	GetSnapshot(ctx context.Context, orgID, id snowflake.ID) (Snapshot, error)
	// RefreshStatus recomputes and stores persisted_status from the current ledger.
	RefreshStatus(ctx context.Context, orgID, id snowflake.ID) (Status, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("invoice_not_found")
	ErrInvalidLineItem     = errors.New("invalid_line_item")
	ErrInvalidLineKind     = errors.New("invalid_line_kind")
	ErrEmptyInvoice        = errors.New("invoice_has_no_items")
	ErrInvalidCustomer     = errors.New("invalid_customer")
)
