package calc

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/studiobooks/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/studiobooks/internal/payment/domain"
)

// Aggregate reduces priced lines, a discount and the payment ledger into invoice totals.
func Aggregate(lines []domain.ItemPricing, discount domain.DiscountRule, ledger paymentdomain.Ledger) domain.Totals {
	subtotal := decimal.Zero
	taxBefore := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.BasePrice)
		taxBefore = taxBefore.Add(line.TaxOnItem)
	}

	discountAmount := DiscountAmount(subtotal, discount)
	// Discounts are not clamped; a discount above the subtotal goes negative.
	subtotalAfter := subtotal.Sub(discountAmount)
	tax := ReallocateTax(taxBefore, subtotal, subtotalAfter)
	total := subtotalAfter.Add(tax)
	paid := ledger.TotalPaid()

	return domain.Totals{
		Subtotal:              subtotal,
		TaxBeforeDiscount:     taxBefore,
		DiscountAmount:        discountAmount,
		SubtotalAfterDiscount: subtotalAfter,
		Tax:                   tax,
		Total:                 total,
		PaidAmount:            paid,
		BalanceDue:            total.Sub(paid),
	}
}

func DiscountAmount(subtotal decimal.Decimal, rule domain.DiscountRule) decimal.Decimal {
	rule = rule.Normalized()
	value := rule.ParsedValue()
	if rule.Kind == domain.DiscountFixed {
		return value
	}
	return subtotal.Mul(value).Div(hundred)
}

// ReallocateTax scales the pre-discount tax by the share of the subtotal that survived
// the discount. It is applied to the whole invoice, not per taxable line.
func ReallocateTax(taxBefore, subtotal, subtotalAfter decimal.Decimal) decimal.Decimal {
	if !taxBefore.IsPositive() || !subtotal.IsPositive() {
		return decimal.Zero
	}
	return taxBefore.Mul(subtotalAfter).Div(subtotal)
}
