package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Method is how the money arrived.
type Method string

const (
	MethodCash         Method = "cash"
	MethodCheck        Method = "check"
	MethodBankTransfer Method = "bank_transfer"
	MethodCard         Method = "card"
	MethodWallet       Method = "wallet"
	MethodOther        Method = "other"
)

func ParseMethod(value string) (Method, error) {
	method := Method(strings.ToLower(strings.TrimSpace(value)))
	switch method {
	case MethodCash, MethodCheck, MethodBankTransfer, MethodCard, MethodWallet, MethodOther:
		return method, nil
	}
	return "", ErrInvalidMethod
}

// Source distinguishes operator-entered payments from gateway captures.
type Source string

const (
	SourceManual Source = "manual"
	SourceOnline Source = "online"
)

// Payment is immutable once created. Removal only stamps RemovedAt and keeps the row as history.
type Payment struct {
	ID              snowflake.ID    `json:"id" gorm:"primaryKey"`
	OrgID           snowflake.ID    `json:"organization_id" gorm:"not null;index"`
	InvoiceID       snowflake.ID    `json:"invoice_id" gorm:"not null;index"`
	Amount          decimal.Decimal `json:"amount" gorm:"type:numeric(14,4);not null"`
	Method          Method          `json:"method" gorm:"type:text;not null"`
	Source          Source          `json:"source" gorm:"type:text;not null;default:'manual'"`
	PaymentDate     time.Time       `json:"payment_date" gorm:"not null"`
	GatewayChargeID *string         `json:"gateway_charge_id,omitempty" gorm:"type:text;uniqueIndex"`
	GatewayOrderID  *string         `json:"gateway_order_id,omitempty" gorm:"type:text;uniqueIndex"`
	Notes           *string         `json:"notes,omitempty" gorm:"type:text"`
	RemovedAt       *time.Time      `json:"removed_at,omitempty"`
	RemovalAction   *string         `json:"removal_action,omitempty" gorm:"type:text"`
	RefundID        *string         `json:"refund_id,omitempty" gorm:"type:text"`
	CreatedAt       time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Payment) TableName() string { return "payments" }

func (p Payment) IsRemoved() bool { return p.RemovedAt != nil }

func (p Payment) HasGatewayCharge() bool {
	return p.GatewayChargeID != nil && strings.TrimSpace(*p.GatewayChargeID) != ""
}

func (p Payment) IsOnline() bool { return p.Source == SourceOnline }

// EventRecord is a stored gateway webhook event. (provider, provider_event_id) is unique.
type EventRecord struct {
	ID              snowflake.ID   `json:"id" gorm:"primaryKey"`
	OrgID           snowflake.ID   `json:"org_id" gorm:"not null;index"`
	Provider        string         `json:"provider" gorm:"type:text;not null;uniqueIndex:ux_payment_events_provider_event,priority:1"`
	ProviderEventID string         `json:"provider_event_id" gorm:"type:text;not null;uniqueIndex:ux_payment_events_provider_event,priority:2"`
	EventType       string         `json:"event_type" gorm:"type:text;not null"`
	InvoiceID       *snowflake.ID  `json:"invoice_id,omitempty" gorm:"index"`
	Payload         datatypes.JSON `json:"payload" gorm:"type:jsonb;not null"`
	ReceivedAt      time.Time      `json:"received_at" gorm:"not null"`
	ProcessedAt     *time.Time     `json:"processed_at"`
}

func (EventRecord) TableName() string { return "payment_events" }

const (
	EventTypePaymentSucceeded = "payment_succeeded"
	EventTypeRefunded         = "refunded"
)

// PaymentEvent is the canonical gateway event produced by webhook adapters.
type PaymentEvent struct {
	Provider          string
	ProviderEventID   string
	ProviderPaymentID string
	ProviderChargeID  string
	ProviderRefundID  string
	Type              string
	OrgID             snowflake.ID
	InvoiceID         *snowflake.ID
	// Amount is in currency minor units, as reported by the gateway.
	Amount     int64
	Currency   string
	OccurredAt time.Time
	RawPayload []byte
}
