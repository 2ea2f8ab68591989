package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

type DiscountKind string

const (
	DiscountPercent DiscountKind = "percent"
	DiscountFixed   DiscountKind = "fixed"
)

type DiscountRule struct {
	Kind  DiscountKind `json:"kind" gorm:"column:kind;type:text;not null;default:'percent'"`
	Value Raw          `json:"value" gorm:"column:value;type:text;not null;default:'0'"`
}

// ParsedValue is the non-negative discount value. Bad input becomes 0.
func (d DiscountRule) ParsedValue() decimal.Decimal {
	value, err := decimal.NewFromString(strings.TrimSpace(string(d.Value)))
	if err != nil || value.IsNegative() {
		return decimal.Zero
	}
	return value
}

// Normalized returns the rule with an unknown kind coerced to percent.
func (d DiscountRule) Normalized() DiscountRule {
	kind := DiscountKind(strings.ToLower(strings.TrimSpace(string(d.Kind))))
	if kind != DiscountFixed {
		kind = DiscountPercent
	}
	return DiscountRule{Kind: kind, Value: Raw(strings.TrimSpace(string(d.Value)))}
}
