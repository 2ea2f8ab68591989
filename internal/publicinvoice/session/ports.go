package session

import (
	"context"

	"github.com/shopspring/decimal"
	publicinvoicedomain "github.com/smallbiznis/studiobooks/internal/publicinvoice/domain"
)

//go:generate mockgen -source=ports.go -destination=./mocks/mock_ports.go -package=mocks

// Client is the public invoice API for one token.
type Client interface {
	FetchInvoice(ctx context.Context) (*publicinvoicedomain.PublicInvoiceResponse, error)
	CreatePaymentIntent(ctx context.Context, amount decimal.Decimal) (*publicinvoicedomain.PaymentIntentResponse, error)
	ConfirmPaymentIntent(ctx context.Context, intentID string) (*publicinvoicedomain.ConfirmResponse, error)
	CreateWalletOrder(ctx context.Context, amount decimal.Decimal) (*publicinvoicedomain.WalletOrderResponse, error)
	CaptureWalletOrder(ctx context.Context, orderID string) (*publicinvoicedomain.ConfirmResponse, error)
}

// CardCollector runs the card gateway's hosted UI for an intent and returns once the
// gateway has confirmed the card. It never sees raw card data.
type CardCollector interface {
	Collect(ctx context.Context, intent publicinvoicedomain.PaymentIntentResponse) error
}

// WalletApprover sends the payer through wallet approval of an order.
type WalletApprover interface {
	Approve(ctx context.Context, orderID string) error
}
