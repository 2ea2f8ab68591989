package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// PriceList maps catalog product ids to their unit price.
type PriceList map[snowflake.ID]decimal.Decimal

type LineKind string

const (
	LineKindProduct LineKind = "product"
	LineKindCustom  LineKind = "custom"
)

// Raw is user-entered text kept as typed. It decodes from a JSON string or number.
type Raw string

func (r *Raw) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = Raw(s)
		return nil
	}
	*r = Raw(data)
	return nil
}

// LineBase holds the fields every line carries regardless of variant.
type LineBase struct {
	Description string
	Quantity    Raw
	IsTaxable   bool
}

// ParsedQuantity is the positive integer quantity. Anything unparseable, zero
// or negative becomes 1.
func (b LineBase) ParsedQuantity() int64 {
	qty, err := strconv.ParseInt(strings.TrimSpace(string(b.Quantity)), 10, 64)
	if err != nil || qty <= 0 {
		return 1
	}
	return qty
}

// LineItem is a closed set of variants. Each variant resolves its own unit price,
// so adding one without pricing rules does not compile.
type LineItem interface {
	Kind() LineKind
	Base() LineBase
	resolveUnitPrice(prices PriceList) (price decimal.Decimal, resolved bool)
}

type ProductLine struct {
	LineBase
	ProductID snowflake.ID
}

func (ProductLine) Kind() LineKind   { return LineKindProduct }
func (l ProductLine) Base() LineBase { return l.LineBase }

func (l ProductLine) resolveUnitPrice(prices PriceList) (decimal.Decimal, bool) {
	price, ok := prices[l.ProductID]
	if !ok {
		return decimal.Zero, false
	}
	return price, true
}

type CustomLine struct {
	LineBase
	Name  string
	Price Raw
}

func (CustomLine) Kind() LineKind   { return LineKindCustom }
func (l CustomLine) Base() LineBase { return l.LineBase }

func (l CustomLine) resolveUnitPrice(PriceList) (decimal.Decimal, bool) {
	price, err := decimal.NewFromString(strings.TrimSpace(string(l.Price)))
	if err != nil {
		return decimal.Zero, true
	}
	return price, true
}

// ResolveUnitPrice returns the unit price of item and whether its catalog reference resolved.
func ResolveUnitPrice(item LineItem, prices PriceList) (decimal.Decimal, bool) {
	return item.resolveUnitPrice(prices)
}

// StoredLineItem is the JSON shape of a line, both on the wire and in the invoices.items column.
type StoredLineItem struct {
	Kind        LineKind      `json:"kind"`
	ProductID   *snowflake.ID `json:"product_id,omitempty"`
	Name        string        `json:"name,omitempty"`
	Price       Raw           `json:"price,omitempty"`
	Description string        `json:"description"`
	Quantity    Raw           `json:"quantity"`
	IsTaxable   bool          `json:"is_taxable"`
}

func (s StoredLineItem) LineItem() (LineItem, error) {
	base := LineBase{Description: s.Description, Quantity: s.Quantity, IsTaxable: s.IsTaxable}
	switch LineKind(strings.ToLower(strings.TrimSpace(string(s.Kind)))) {
	case LineKindProduct:
		if s.ProductID == nil || *s.ProductID == 0 {
			return nil, ErrInvalidLineItem
		}
		return ProductLine{LineBase: base, ProductID: *s.ProductID}, nil
	case LineKindCustom:
		return CustomLine{LineBase: base, Name: strings.TrimSpace(s.Name), Price: s.Price}, nil
	default:
		return nil, ErrInvalidLineKind
	}
}

func StoreLineItem(item LineItem) StoredLineItem {
	base := item.Base()
	stored := StoredLineItem{
		Kind:        item.Kind(),
		Description: base.Description,
		Quantity:    base.Quantity,
		IsTaxable:   base.IsTaxable,
	}
	switch line := item.(type) {
	case ProductLine:
		id := line.ProductID
		stored.ProductID = &id
	case CustomLine:
		stored.Name = line.Name
		stored.Price = line.Price
	}
	return stored
}

// DecodeLineItems converts stored lines back to the sum type.
func DecodeLineItems(stored []StoredLineItem) ([]LineItem, error) {
	items := make([]LineItem, 0, len(stored))
	for _, s := range stored {
		item, err := s.LineItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
