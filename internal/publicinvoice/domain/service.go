package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	invoicedomain "github.com/smallbiznis/studiobooks/internal/invoice/domain"
)

// Service is the token-addressed, unauthenticated payment surface of an invoice.
type Service interface {
	FetchPublicInvoice(ctx context.Context, orgID snowflake.ID, token string) (*PublicInvoiceResponse, error)
	CreatePaymentIntent(ctx context.Context, orgID snowflake.ID, token string, amount decimal.Decimal) (*PaymentIntentResponse, error)
	ConfirmPaymentIntent(ctx context.Context, orgID snowflake.ID, token, intentID string) (*ConfirmResponse, error)
	CreateWalletOrder(ctx context.Context, orgID snowflake.ID, token string, amount decimal.Decimal) (*WalletOrderResponse, error)
	CaptureWalletOrder(ctx context.Context, orgID snowflake.ID, token, orderID string) (*ConfirmResponse, error)
	FetchReceipt(ctx context.Context, orgID snowflake.ID, token string) (*Receipt, error)
}

type PublicPayment struct {
	Date   time.Time       `json:"date"`
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
	Online bool            `json:"online"`
}

type PublicInvoiceView struct {
	InvoiceNumber   string                      `json:"invoice_number"`
	IssuedAt        time.Time                   `json:"issued_at"`
	DueDate         *time.Time                  `json:"due_date,omitempty"`
	Currency        string                      `json:"currency"`
	BillToName      string                      `json:"bill_to_name,omitempty"`
	BillToEmail     string                      `json:"bill_to_email,omitempty"`
	Lines           []invoicedomain.ItemPricing `json:"lines"`
	Totals          invoicedomain.Totals        `json:"totals"`
	Payments        []PublicPayment             `json:"payments"`
	PersistedStatus invoicedomain.Status        `json:"persisted_status"`
	DisplayStatus   invoicedomain.Status        `json:"display_status"`
	Notes           string                      `json:"notes,omitempty"`
}

type CardAvailability struct {
	Provider       string `json:"provider"`
	PublishableKey string `json:"publishable_key"`
}

type WalletAvailability struct {
	Provider string `json:"provider"`
	ClientID string `json:"client_id"`
}

type Gateways struct {
	Card   *CardAvailability   `json:"card,omitempty"`
	Wallet *WalletAvailability `json:"wallet,omitempty"`
}

func (g Gateways) Any() bool { return g.Card != nil || g.Wallet != nil }

type Branding struct {
	StudioName  string `json:"studio_name"`
	LogoURL     string `json:"logo_url,omitempty"`
	AccentColor string `json:"accent_color,omitempty"`
}

type PublicInvoiceResponse struct {
	Invoice          PublicInvoiceView `json:"invoice"`
	Gateways         Gateways          `json:"gateways"`
	Branding         Branding          `json:"branding"`
	MinimumAmount    decimal.Decimal   `json:"minimum_amount"`
	ReceiptAvailable bool              `json:"receipt_available"`
}

type PaymentIntentResponse struct {
	IntentID     string          `json:"intent_id"`
	ClientSecret string          `json:"client_secret"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
}

type ConfirmResponse struct {
	OK              bool `json:"ok"`
	AlreadyRecorded bool `json:"already_recorded"`
}

type WalletOrderResponse struct {
	OrderID string `json:"order_id"`
}

type Receipt struct {
	Filename string
	Content  []byte
}

var (
	// ErrInvoiceUnavailable covers unknown, expired, revoked and foreign-org tokens alike.
	ErrInvoiceUnavailable = errors.New("invoice_unavailable")
	ErrAmountOutOfBounds  = errors.New("amount_out_of_bounds")
	ErrInvoiceAlreadyPaid = errors.New("invoice_already_paid")
	ErrReceiptUnavailable = errors.New("receipt_unavailable")
	ErrConfirmInProgress  = errors.New("payment_confirmation_in_progress")
)
