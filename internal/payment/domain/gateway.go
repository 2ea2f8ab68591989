package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=gateway.go -destination=./mocks/mock_gateway.go -package=mocks

const (
	ProviderStripe = "stripe"
	ProviderPayPal = "paypal"
)

type IntentStatus string

const (
	IntentSucceeded             IntentStatus = "succeeded"
	IntentProcessing            IntentStatus = "processing"
	IntentRequiresPaymentMethod IntentStatus = "requires_payment_method"
	IntentRequiresConfirmation  IntentStatus = "requires_confirmation"
	IntentRequiresAction        IntentStatus = "requires_action"
	IntentCanceled              IntentStatus = "canceled"
)

type CreateIntentInput struct {
	Amount         decimal.Decimal
	Currency       string
	Description    string
	IdempotencyKey string
	Metadata       map[string]string
}

type Intent struct {
	ID             string
	ClientSecret   string
	Status         IntentStatus
	Amount         decimal.Decimal
	Currency       string
	LatestChargeID string
	Metadata       map[string]string
}

type RefundInput struct {
	ChargeID       string
	Amount         decimal.Decimal
	Currency       string
	IdempotencyKey string
	Metadata       map[string]string
}

type Refund struct {
	ID     string
	Status string
	Amount decimal.Decimal
}

func (r Refund) Succeeded() bool { return r.Status == "succeeded" }

// CardGateway is the hosted-card processor used for intents and refunds.
type CardGateway interface {
	Provider() string
	PublishableKey() string
	CreateIntent(ctx context.Context, input CreateIntentInput) (*Intent, error)
	GetIntent(ctx context.Context, intentID string) (*Intent, error)
	Refund(ctx context.Context, input RefundInput) (*Refund, error)
}

type CreateOrderInput struct {
	Amount      decimal.Decimal
	Currency    string
	CustomID    string
	ReferenceID string
	Description string
	RequestID   string
}

type Order struct {
	ID        string
	Status    string
	CustomID  string
	CaptureID string
	Amount    decimal.Decimal
	Currency  string
}

func (o Order) Completed() bool { return o.Status == "COMPLETED" }

// WalletGateway is the approve-then-capture wallet processor.
type WalletGateway interface {
	Provider() string
	ClientID() string
	CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error)
	CaptureOrder(ctx context.Context, orderID, requestID string) (*Order, error)
}

// MinorUnits converts an amount to integer cents for gateways.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func FromMinorUnits(units int64) decimal.Decimal {
	return decimal.New(units, -2)
}
