package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	invoicedomain "github.com/smallbiznis/studiobooks/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/studiobooks/internal/payment/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiptDataNamesLatestOnlinePayment(t *testing.T) {
	day := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	removed := day.AddDate(0, 0, 9)

	snapshot := invoicedomain.Snapshot{
		Invoice: invoicedomain.Invoice{InvoiceNumber: "INV-0001", Currency: "USD", IssuedAt: day},
		Payments: []paymentdomain.Payment{
			{ID: 1, Amount: decimal.NewFromInt(50), Method: paymentdomain.MethodCard, Source: paymentdomain.SourceOnline, PaymentDate: day.AddDate(0, 0, 3)},
			{ID: 2, Amount: decimal.NewFromInt(70), Method: paymentdomain.MethodWallet, Source: paymentdomain.SourceOnline, PaymentDate: day.AddDate(0, 0, 1)},
			{ID: 3, Amount: decimal.NewFromInt(20), Method: paymentdomain.MethodCash, Source: paymentdomain.SourceManual, PaymentDate: day.AddDate(0, 0, 4)},
			{ID: 4, Amount: decimal.NewFromInt(99), Method: paymentdomain.MethodCard, Source: paymentdomain.SourceOnline, PaymentDate: removed, RemovedAt: &removed},
		},
	}

	data := receiptData(snapshot, "North Light Studio")

	require.Len(t, data.Payments, 3)
	assert.Equal(t, "USD 50.00", data.LatestOnlineAmount)
	assert.NotEmpty(t, data.LatestOnlineWords)
}

func TestReceiptDataWithoutOnlinePayment(t *testing.T) {
	snapshot := invoicedomain.Snapshot{
		Invoice: invoicedomain.Invoice{Currency: "USD"},
		Payments: []paymentdomain.Payment{
			{ID: 1, Amount: decimal.NewFromInt(20), Method: paymentdomain.MethodCash, Source: paymentdomain.SourceManual},
		},
	}

	data := receiptData(snapshot, "North Light Studio")

	assert.Len(t, data.Payments, 1)
	assert.Empty(t, data.LatestOnlineAmount)
	assert.Empty(t, data.LatestOnlineWords)
}
