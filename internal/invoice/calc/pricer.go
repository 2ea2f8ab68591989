package calc

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/studiobooks/internal/invoice/domain"
)

var hundred = decimal.NewFromInt(100)

// Mode selects which tax rate a Pricer applies.
type Mode int

const (
	// ModeLive uses the rate resolved from current settings, for editing.
	ModeLive Mode = iota
	// ModeHistorical uses the rate frozen onto a saved invoice.
	ModeHistorical
)

type Rates struct {
	Live   decimal.Decimal
	Frozen decimal.Decimal
}

func (r Rates) For(mode Mode) decimal.Decimal {
	if mode == ModeHistorical {
		return r.Frozen
	}
	return r.Live
}

// PriceItem prices a single line at taxRate percent.
// A catalog id missing from prices yields an all-zero, unresolved line.
func PriceItem(item domain.LineItem, prices domain.PriceList, taxRate decimal.Decimal) domain.ItemPricing {
	base := item.Base()
	out := domain.ItemPricing{
		Kind:        item.Kind(),
		Description: base.Description,
		IsTaxable:   base.IsTaxable,
	}
	switch line := item.(type) {
	case domain.ProductLine:
		id := line.ProductID
		out.ProductID = &id
	case domain.CustomLine:
		out.Name = line.Name
	}

	unitPrice, resolved := domain.ResolveUnitPrice(item, prices)
	if !resolved {
		out.Quantity = base.ParsedQuantity()
		out.UnitPrice = decimal.Zero
		out.BasePrice = decimal.Zero
		out.TaxOnItem = decimal.Zero
		out.Total = decimal.Zero
		out.Unresolved = true
		return out
	}

	qty := base.ParsedQuantity()
	basePrice := unitPrice.Mul(decimal.NewFromInt(qty))
	tax := decimal.Zero
	if base.IsTaxable {
		tax = basePrice.Mul(taxRate).Div(hundred)
	}

	out.Quantity = qty
	out.UnitPrice = unitPrice
	out.BasePrice = basePrice
	out.TaxOnItem = tax
	out.Total = basePrice.Add(tax)
	return out
}

// Pricer binds a price list and both tax rates so callers only choose a mode.
type Pricer struct {
	prices domain.PriceList
	rates  Rates
}

func NewPricer(prices domain.PriceList, rates Rates) Pricer {
	return Pricer{prices: prices, rates: rates}
}

func (p Pricer) Price(item domain.LineItem, mode Mode) domain.ItemPricing {
	return PriceItem(item, p.prices, p.rates.For(mode))
}

func (p Pricer) PriceAll(items []domain.LineItem, mode Mode) []domain.ItemPricing {
	out := make([]domain.ItemPricing, 0, len(items))
	for _, item := range items {
		out = append(out, p.Price(item, mode))
	}
	return out
}
