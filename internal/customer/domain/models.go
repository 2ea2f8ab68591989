package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Customer struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID        snowflake.ID      `gorm:"not null;index" json:"organization_id"`
	Name         string            `gorm:"not null" json:"name"`
	Email        string            `gorm:"not null" json:"email"`
	BillingState *string           `gorm:"column:billing_state" json:"billing_state,omitempty"`
	Metadata     datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// CustomerCredit is store credit issued when a payment is converted instead of refunded.
type CustomerCredit struct {
	ID              snowflake.ID    `gorm:"primaryKey" json:"id"`
	OrgID           snowflake.ID    `gorm:"not null;index" json:"organization_id"`
	CustomerID      snowflake.ID    `gorm:"not null;index" json:"customer_id"`
	InvoiceID       snowflake.ID    `gorm:"not null" json:"invoice_id"`
	SourcePaymentID snowflake.ID    `gorm:"not null;uniqueIndex" json:"source_payment_id"`
	Amount          decimal.Decimal `gorm:"type:numeric(14,4);not null" json:"amount"`
	CreatedAt       time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (CustomerCredit) TableName() string { return "customer_credits" }
