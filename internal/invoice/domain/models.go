// Package domain contains invoice models and the types shared by pricing and reconciliation.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	taxdomain "github.com/smallbiznis/studiobooks/internal/tax/domain"
	"gorm.io/datatypes"
)

// Invoice is the persisted invoice. TaxRate and TaxSource are frozen when the invoice
// is saved so later settings changes do not alter historical documents.
type Invoice struct {
	ID              snowflake.ID                        `json:"id" gorm:"primaryKey"`
	OrgID           snowflake.ID                        `json:"organization_id" gorm:"not null;index"`
	CustomerID      *snowflake.ID                       `json:"customer_id,omitempty" gorm:"index"`
	InvoiceNumber   string                              `json:"invoice_number" gorm:"type:text;not null"`
	Items           datatypes.JSONSlice[StoredLineItem] `json:"items" gorm:"type:jsonb;not null"`
	Discount        DiscountRule                        `json:"discount" gorm:"embedded;embeddedPrefix:discount_"`
	TaxRate         decimal.Decimal                     `json:"tax_rate" gorm:"type:numeric(7,4);not null;default:0"`
	TaxSource       taxdomain.Source                    `json:"tax_source" gorm:"type:text;not null;default:'default'"`
	DueDate         *time.Time                          `json:"due_date,omitempty"`
	PersistedStatus Status                              `json:"persisted_status" gorm:"column:persisted_status;type:text;not null;default:'pending'"`
	Currency        string                              `json:"currency" gorm:"type:text;not null"`
	Notes           *string                             `json:"notes,omitempty" gorm:"type:text"`
	IssuedAt        time.Time                           `json:"issued_at" gorm:"not null"`
	CreatedAt       time.Time                           `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time                           `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// LineItems decodes the stored lines.
func (i Invoice) LineItems() ([]LineItem, error) {
	return DecodeLineItems(i.Items)
}
