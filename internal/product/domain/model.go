package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry invoices can reference by id instead of inlining a price.
type Product struct {
	ID          snowflake.ID    `json:"id" gorm:"primaryKey"`
	OrgID       snowflake.ID    `json:"organization_id" gorm:"column:org_id;not null;index"`
	Name        string          `json:"name" gorm:"type:text;not null"`
	Description *string         `json:"description,omitempty" gorm:"type:text"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"column:unit_price;type:numeric(14,4);not null"`
	Active      bool            `json:"active" gorm:"not null;default:true"`
	CreatedAt   time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Product) TableName() string { return "products" }
