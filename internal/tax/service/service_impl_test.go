package service

import (
	"testing"

	"github.com/shopspring/decimal"
	taxdomain "github.com/smallbiznis/studiobooks/internal/tax/domain"
	"github.com/stretchr/testify/assert"
)

func strPtr(v string) *string { return &v }

func TestResolveTaxRate(t *testing.T) {
	rate := decimal.NewFromInt(10)

	cases := []struct {
		name       string
		client     *string
		home       string
		wantRate   decimal.Decimal
		wantSource taxdomain.Source
	}{
		{name: "unknown jurisdiction", client: nil, home: "CA", wantRate: rate, wantSource: taxdomain.SourceDefault},
		{name: "blank jurisdiction", client: strPtr("  "), home: "CA", wantRate: rate, wantSource: taxdomain.SourceDefault},
		{name: "home jurisdiction", client: strPtr("CA"), home: "CA", wantRate: rate, wantSource: taxdomain.SourceDefault},
		{name: "home jurisdiction case-insensitive", client: strPtr(" ca "), home: "CA", wantRate: rate, wantSource: taxdomain.SourceDefault},
		{name: "out of state", client: strPtr("NY"), home: "CA", wantRate: decimal.Zero, wantSource: taxdomain.SourceOutOfState},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveTaxRate(tc.client, tc.home, rate)
			assert.True(t, tc.wantRate.Equal(got.Rate), "rate %s", got.Rate)
			assert.Equal(t, tc.wantSource, got.Source)
		})
	}
}

func TestResolveTaxRateClampsNegativeDefault(t *testing.T) {
	got := ResolveTaxRate(nil, "CA", decimal.NewFromInt(-5))
	assert.True(t, got.Rate.IsZero())
	assert.Equal(t, taxdomain.SourceDefault, got.Source)
}
