package calc

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/studiobooks/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/studiobooks/internal/payment/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{"want %s got %s", want, got.String()}, msgAndArgs...)...)
}

func payments(amounts ...string) paymentdomain.Ledger {
	out := make([]paymentdomain.Payment, 0, len(amounts))
	for i, amount := range amounts {
		out = append(out, paymentdomain.Payment{ID: snowflake.ID(i + 1), Amount: dec(amount), Method: paymentdomain.MethodCash})
	}
	return paymentdomain.NewLedger(out)
}

const productA = snowflake.ID(1001)

func scenarioALine() domain.LineItem {
	return domain.ProductLine{
		LineBase:  domain.LineBase{Description: "Portrait session", Quantity: "2", IsTaxable: true},
		ProductID: productA,
	}
}

func scenarioAPrices() domain.PriceList {
	return domain.PriceList{productA: dec("100")}
}

func TestPriceItemScenarioA(t *testing.T) {
	got := PriceItem(scenarioALine(), scenarioAPrices(), dec("10"))

	assertDec(t, "100", got.UnitPrice)
	assertDec(t, "200", got.BasePrice)
	assertDec(t, "20", got.TaxOnItem)
	assertDec(t, "220", got.Total)
	assert.Equal(t, int64(2), got.Quantity)
	assert.False(t, got.Unresolved)
}

func TestPriceItemMissingProductIsZero(t *testing.T) {
	item := domain.ProductLine{
		LineBase:  domain.LineBase{Quantity: "3", IsTaxable: true},
		ProductID: snowflake.ID(42),
	}
	got := PriceItem(item, scenarioAPrices(), dec("10"))

	assert.True(t, got.Unresolved)
	assert.True(t, got.UnitPrice.IsZero())
	assert.True(t, got.BasePrice.IsZero())
	assert.True(t, got.TaxOnItem.IsZero())
	assert.True(t, got.Total.IsZero())
}

func TestPriceItemCustomLine(t *testing.T) {
	cases := []struct {
		name     string
		price    domain.Raw
		qty      domain.Raw
		taxable  bool
		wantQty  int64
		wantBase string
		wantTax  string
	}{
		{name: "taxable", price: "49.99", qty: "3", taxable: true, wantQty: 3, wantBase: "149.97", wantTax: "14.997"},
		{name: "non taxable", price: "80", qty: "1", taxable: false, wantQty: 1, wantBase: "80", wantTax: "0"},
		{name: "bad price", price: "eighty", qty: "2", taxable: true, wantQty: 2, wantBase: "0", wantTax: "0"},
		{name: "bad quantity", price: "10", qty: "two", taxable: false, wantQty: 1, wantBase: "10", wantTax: "0"},
		{name: "zero quantity", price: "10", qty: "0", taxable: false, wantQty: 1, wantBase: "10", wantTax: "0"},
		{name: "negative quantity", price: "10", qty: "-4", taxable: false, wantQty: 1, wantBase: "10", wantTax: "0"},
		{name: "fractional quantity", price: "10", qty: "1.5", taxable: false, wantQty: 1, wantBase: "10", wantTax: "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			item := domain.CustomLine{
				LineBase: domain.LineBase{Quantity: tc.qty, IsTaxable: tc.taxable},
				Name:     "Retouching",
				Price:    tc.price,
			}
			got := PriceItem(item, nil, dec("10"))
			assert.Equal(t, tc.wantQty, got.Quantity)
			assertDec(t, tc.wantBase, got.BasePrice)
			assertDec(t, tc.wantTax, got.TaxOnItem)
			assert.True(t, got.BasePrice.Add(got.TaxOnItem).Equal(got.Total))
			assert.False(t, got.Unresolved)
		})
	}
}

func TestPricerModes(t *testing.T) {
	pricer := NewPricer(scenarioAPrices(), Rates{Live: dec("10"), Frozen: dec("5")})

	live := pricer.Price(scenarioALine(), ModeLive)
	historical := pricer.Price(scenarioALine(), ModeHistorical)

	assertDec(t, "20", live.TaxOnItem)
	assertDec(t, "10", historical.TaxOnItem)
}

func TestAggregatePercentDiscount(t *testing.T) {
	lines := []domain.ItemPricing{PriceItem(scenarioALine(), scenarioAPrices(), dec("10"))}
	discount := domain.DiscountRule{Kind: domain.DiscountPercent, Value: "10"}

	got := Aggregate(lines, discount, paymentdomain.NewLedger(nil))

	assertDec(t, "200", got.Subtotal)
	assertDec(t, "20", got.TaxBeforeDiscount)
	assertDec(t, "20", got.DiscountAmount)
	assertDec(t, "180", got.SubtotalAfterDiscount)
	assertDec(t, "18", got.Tax)
	assertDec(t, "198", got.Total)
}

// A 220 subtotal with 20 of tax and a 10% discount lands on 216 total.
func TestAggregateScenarioB(t *testing.T) {
	lines := []domain.ItemPricing{
		{BasePrice: dec("220"), TaxOnItem: dec("20")},
	}
	got := Aggregate(lines, domain.DiscountRule{Kind: domain.DiscountPercent, Value: "10"}, paymentdomain.NewLedger(nil))

	assertDec(t, "22", got.DiscountAmount)
	assertDec(t, "198", got.SubtotalAfterDiscount)
	assertDec(t, "18", got.Tax)
	assertDec(t, "216", got.Total)
	assertDec(t, "216", got.BalanceDue)
}

func TestAggregateScenarioC(t *testing.T) {
	lines := []domain.ItemPricing{{BasePrice: dec("220"), TaxOnItem: dec("20")}}
	discount := domain.DiscountRule{Kind: domain.DiscountPercent, Value: "10"}

	got := Aggregate(lines, discount, payments("100", "116"))

	assertDec(t, "216", got.Total)
	assertDec(t, "216", got.PaidAmount)
	assertDec(t, "0", got.BalanceDue)
	assert.Equal(t, domain.StatusPaid, DisplayStatus(domain.StatusPending, got.BalanceDue, nil, time.Now()))
}

func TestAggregateFixedDiscountIsNotClamped(t *testing.T) {
	lines := []domain.ItemPricing{{BasePrice: dec("100"), TaxOnItem: dec("10")}}
	got := Aggregate(lines, domain.DiscountRule{Kind: domain.DiscountFixed, Value: "150"}, paymentdomain.NewLedger(nil))

	assertDec(t, "150", got.DiscountAmount)
	assertDec(t, "-50", got.SubtotalAfterDiscount)
	assertDec(t, "-5", got.Tax)
	assertDec(t, "-55", got.Total)
}

func TestAggregateBadDiscountDefaultsToZero(t *testing.T) {
	lines := []domain.ItemPricing{{BasePrice: dec("100"), TaxOnItem: dec("10")}}
	for _, value := range []domain.Raw{"abc", "-5", ""} {
		got := Aggregate(lines, domain.DiscountRule{Kind: domain.DiscountPercent, Value: value}, paymentdomain.NewLedger(nil))
		assertDec(t, "0", got.DiscountAmount, "value %q", value)
		assertDec(t, "110", got.Total, "value %q", value)
	}
}

func TestAggregateNoTaxWhenNothingTaxable(t *testing.T) {
	lines := []domain.ItemPricing{{BasePrice: dec("100"), TaxOnItem: decimal.Zero}}
	got := Aggregate(lines, domain.DiscountRule{Kind: domain.DiscountPercent, Value: "50"}, paymentdomain.NewLedger(nil))
	assertDec(t, "0", got.Tax)
	assertDec(t, "50", got.Total)
}

func TestAggregateEmptyInvoice(t *testing.T) {
	got := Aggregate(nil, domain.DiscountRule{}, payments("10"))
	assertDec(t, "0", got.Total)
	assertDec(t, "-10", got.BalanceDue)
}

func TestProportionalTaxLaw(t *testing.T) {
	tolerance := dec("0.0000001")
	rates := []string{"0", "5", "8.25", "10", "19.6"}
	discounts := []string{"0", "5", "12.5", "33.333", "100"}
	prices := domain.PriceList{1: dec("19.99"), 2: dec("249.5"), 3: dec("0.35")}

	items := []domain.LineItem{
		domain.ProductLine{LineBase: domain.LineBase{Quantity: "3", IsTaxable: true}, ProductID: 1},
		domain.ProductLine{LineBase: domain.LineBase{Quantity: "1", IsTaxable: true}, ProductID: 2},
		domain.ProductLine{LineBase: domain.LineBase{Quantity: "17", IsTaxable: true}, ProductID: 3},
		domain.CustomLine{LineBase: domain.LineBase{Quantity: "2", IsTaxable: true}, Name: "Travel", Price: "45.10"},
	}

	for _, r := range rates {
		for _, d := range discounts {
			pricer := NewPricer(prices, Rates{Live: dec(r)})
			lines := pricer.PriceAll(items, ModeLive)
			got := Aggregate(lines, domain.DiscountRule{Kind: domain.DiscountPercent, Value: domain.Raw(d)}, paymentdomain.NewLedger(nil))

			want := got.Subtotal.
				Mul(hundred.Sub(dec(d))).Div(hundred).
				Mul(dec(r)).Div(hundred)
			diff := got.Tax.Sub(want).Abs()
			assert.True(t, diff.LessThanOrEqual(tolerance), "rate %s discount %s: want %s got %s", r, d, want, got.Tax)
		}
	}
}

func TestAggregateIsPure(t *testing.T) {
	lines := []domain.ItemPricing{PriceItem(scenarioALine(), scenarioAPrices(), dec("10"))}
	discount := domain.DiscountRule{Kind: domain.DiscountPercent, Value: "7.5"}
	ledger := payments("12.34", "50")

	first := Aggregate(lines, discount, ledger)
	for i := 0; i < 5; i++ {
		again := Aggregate(lines, discount, ledger)
		require.True(t, first.Total.Equal(again.Total))
		require.True(t, first.Tax.Equal(again.Tax))
		require.True(t, first.BalanceDue.Equal(again.BalanceDue))
	}
	assert.Equal(t, 2, ledger.Len())
}

func TestBalanceInvariant(t *testing.T) {
	lines := []domain.ItemPricing{{BasePrice: dec("333.33"), TaxOnItem: dec("27.5")}}
	for _, ledger := range []paymentdomain.Ledger{payments(), payments("1"), payments("100", "300"), payments("999.99")} {
		got := Aggregate(lines, domain.DiscountRule{Kind: domain.DiscountFixed, Value: "3.33"}, ledger)
		assert.True(t, got.BalanceDue.Equal(got.Total.Sub(got.PaidAmount)))
		if got.PaidAmount.GreaterThanOrEqual(got.Total) {
			elapsed := time.Now().Add(-time.Hour)
			assert.Equal(t, domain.StatusPaid, DisplayStatus(domain.StatusPending, got.BalanceDue, &elapsed, time.Now()))
		}
	}
}
