package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	paymentdomain "github.com/smallbiznis/studiobooks/internal/payment/domain"
)

// ItemPricing is one priced line. Unresolved marks a catalog reference missing from the price list.
type ItemPricing struct {
	Kind        LineKind        `json:"kind"`
	ProductID   *snowflake.ID   `json:"product_id,omitempty"`
	Name        string          `json:"name,omitempty"`
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	IsTaxable   bool            `json:"is_taxable"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	BasePrice   decimal.Decimal `json:"base_price"`
	TaxOnItem   decimal.Decimal `json:"tax_on_item"`
	Total       decimal.Decimal `json:"total"`
	Unresolved  bool            `json:"unresolved,omitempty"`
}

type Totals struct {
	Subtotal              decimal.Decimal `json:"subtotal"`
	TaxBeforeDiscount     decimal.Decimal `json:"tax_before_discount"`
	DiscountAmount        decimal.Decimal `json:"discount_amount"`
	SubtotalAfterDiscount decimal.Decimal `json:"subtotal_after_discount"`
	Tax                   decimal.Decimal `json:"tax"`
	Total                 decimal.Decimal `json:"total"`
	PaidAmount            decimal.Decimal `json:"paid_amount"`
	BalanceDue            decimal.Decimal `json:"balance_due"`
}

// Snapshot is the invoice with every derived figure. It is the only shape callers display.
type Snapshot struct {
	Invoice          Invoice                 `json:"invoice"`
	Lines            []ItemPricing           `json:"lines"`
	Totals           Totals                  `json:"totals"`
	Payments         []paymentdomain.Payment `json:"payments"`
	PersistedStatus  Status                  `json:"persisted_status"`
	DisplayStatus    Status                  `json:"display_status"`
	ReceiptAvailable bool                    `json:"receipt_available"`
	ComputedAt       time.Time               `json:"computed_at"`
}

func (s Snapshot) Ledger() paymentdomain.Ledger {
	return paymentdomain.NewLedger(s.Payments)
}
