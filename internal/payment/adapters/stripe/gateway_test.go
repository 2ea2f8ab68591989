package stripe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/studiobooks/internal/config"
	paymentdomain "github.com/smallbiznis/studiobooks/internal/payment/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) *Gateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	gw, err := NewGateway(config.StripeConfig{
		SecretKey:      "sk_test_123",
		PublishableKey: "pk_test_123",
		APIURL:         srv.URL,
	}, zap.NewNop())
	require.NoError(t, err)
	return gw
}

func TestNewGatewayRequiresKeys(t *testing.T) {
	_, err := NewGateway(config.StripeConfig{SecretKey: "sk_test_123"}, zap.NewNop())
	assert.ErrorIs(t, err, paymentdomain.ErrGatewayUnavailable)
}

func TestCreateIntentSendsMinorUnitsAndIdempotencyKey(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/payment_intents", r.URL.Path)
		require.NoError(t, r.ParseForm())

		assert.Equal(t, "invoice:42:paid:0:amount:10000", r.Header.Get("Idempotency-Key"))
		assert.Equal(t, "10000", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "42", r.PostForm.Get("metadata[invoice_id]"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_1","object":"payment_intent","client_secret":"pi_1_secret",
			"status":"requires_payment_method","amount":10000,"currency":"usd",
			"metadata":{"invoice_id":"42"}}`))
	})

	intent, err := gw.CreateIntent(context.Background(), paymentdomain.CreateIntentInput{
		Amount:         decimal.NewFromInt(100),
		Currency:       "USD",
		IdempotencyKey: "invoice:42:paid:0:amount:10000",
		Metadata:       map[string]string{"invoice_id": "42"},
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", intent.ID)
	assert.Equal(t, "pi_1_secret", intent.ClientSecret)
	assert.Equal(t, paymentdomain.IntentRequiresPaymentMethod, intent.Status)
	assert.True(t, decimal.NewFromInt(100).Equal(intent.Amount))
	assert.Equal(t, "USD", intent.Currency)
	assert.Equal(t, "42", intent.Metadata["invoice_id"])
}

func TestGetIntentReadsLatestCharge(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/payment_intents/pi_1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_1","object":"payment_intent","status":"succeeded",
			"amount":5050,"currency":"usd","latest_charge":"ch_1"}`))
	})

	intent, err := gw.GetIntent(context.Background(), "pi_1")
	require.NoError(t, err)
	assert.Equal(t, paymentdomain.IntentSucceeded, intent.Status)
	assert.Equal(t, "ch_1", intent.LatestChargeID)
	assert.True(t, decimal.RequireFromString("50.50").Equal(intent.Amount))
}

func TestRefundByCharge(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/refunds", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "ch_1", r.PostForm.Get("charge"))
		assert.Equal(t, "10000", r.PostForm.Get("amount"))
		assert.Equal(t, "payment:7:refund", r.Header.Get("Idempotency-Key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"re_1","object":"refund","status":"succeeded","amount":10000}`))
	})

	refund, err := gw.Refund(context.Background(), paymentdomain.RefundInput{
		ChargeID:       "ch_1",
		Amount:         decimal.NewFromInt(100),
		IdempotencyKey: "payment:7:refund",
	})
	require.NoError(t, err)
	assert.Equal(t, "re_1", refund.ID)
	assert.True(t, refund.Succeeded())
}

func TestDeclineBecomesGatewayError(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"type":"card_error","code":"card_declined",
			"message":"Your card was declined."}}`))
	})

	_, err := gw.CreateIntent(context.Background(), paymentdomain.CreateIntentInput{
		Amount:   decimal.NewFromInt(10),
		Currency: "usd",
	})
	var gatewayErr *paymentdomain.GatewayError
	require.True(t, errors.As(err, &gatewayErr))
	assert.Equal(t, "card_declined", gatewayErr.Code)
	assert.Equal(t, "Your card was declined.", gatewayErr.Message)
	assert.False(t, errors.Is(err, paymentdomain.ErrGatewayUnavailable))
}

func TestRejectsNonPositiveAmount(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected request %s", r.URL.Path)
	})
	_, err := gw.CreateIntent(context.Background(), paymentdomain.CreateIntentInput{Amount: decimal.Zero, Currency: "usd"})
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidAmount)
}
