package paypal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/studiobooks/internal/config"
	paymentdomain "github.com/smallbiznis/studiobooks/internal/payment/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePayPal struct {
	tokenCalls atomic.Int32
	mux        *http.ServeMux
}

func newFakePayPal(t *testing.T) (*fakePayPal, *Gateway) {
	t.Helper()
	fake := &fakePayPal{mux: http.NewServeMux()}
	fake.mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		fake.tokenCalls.Add(1)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"name":"invalid_client","message":"Client Authentication failed"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"A21","expires_in":3600}`))
	})

	srv := httptest.NewServer(fake.mux)
	t.Cleanup(srv.Close)

	gw, err := NewGateway(config.WalletConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		BaseURL:      srv.URL,
	}, zap.NewNop())
	require.NoError(t, err)
	return fake, gw
}

func TestNewGatewayRequiresCredentials(t *testing.T) {
	_, err := NewGateway(config.WalletConfig{ClientID: "client"}, zap.NewNop())
	assert.ErrorIs(t, err, paymentdomain.ErrGatewayUnavailable)
}

func TestCreateOrderAndCapture(t *testing.T) {
	fake, gw := newFakePayPal(t)

	fake.mux.HandleFunc("/v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer A21", r.Header.Get("Authorization"))
		assert.Equal(t, "invoice:42:order", r.Header.Get("PayPal-Request-Id"))

		var body orderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "CAPTURE", body.Intent)
		require.Len(t, body.PurchaseUnits, 1)
		assert.Equal(t, "42", body.PurchaseUnits[0].CustomID)
		assert.Equal(t, "100.00", body.PurchaseUnits[0].Amount.Value)
		assert.Equal(t, "USD", body.PurchaseUnits[0].Amount.CurrencyCode)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"ORDER-1","status":"CREATED"}`))
	})
	fake.mux.HandleFunc("/v2/checkout/orders/ORDER-1/capture", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "order:ORDER-1:capture", r.Header.Get("PayPal-Request-Id"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"ORDER-1","status":"COMPLETED","purchase_units":[{"reference_id":"INV-1",
			"payments":{"captures":[{"id":"CAP-1","status":"COMPLETED","custom_id":"42",
			"amount":{"currency_code":"USD","value":"100.00"}}]}}]}`))
	})

	order, err := gw.CreateOrder(context.Background(), paymentdomain.CreateOrderInput{
		Amount:      decimal.NewFromInt(100),
		Currency:    "usd",
		CustomID:    "42",
		ReferenceID: "INV-1",
		RequestID:   "invoice:42:order",
	})
	require.NoError(t, err)
	assert.Equal(t, "ORDER-1", order.ID)
	assert.Equal(t, "CREATED", order.Status)

	captured, err := gw.CaptureOrder(context.Background(), "ORDER-1", "order:ORDER-1:capture")
	require.NoError(t, err)
	assert.True(t, captured.Completed())
	assert.Equal(t, "CAP-1", captured.CaptureID)
	assert.Equal(t, "42", captured.CustomID)
	assert.True(t, decimal.NewFromInt(100).Equal(captured.Amount))
	assert.Equal(t, "USD", captured.Currency)

	assert.Equal(t, int32(1), fake.tokenCalls.Load(), "token should be cached between calls")
}

func TestCaptureRefusalBecomesGatewayError(t *testing.T) {
	fake, gw := newFakePayPal(t)
	fake.mux.HandleFunc("/v2/checkout/orders/ORDER-2/capture", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"name":"UNPROCESSABLE_ENTITY","message":"The requested action could not be performed.",
			"details":[{"issue":"INSTRUMENT_DECLINED","description":"The instrument presented was declined."}]}`))
	})

	_, err := gw.CaptureOrder(context.Background(), "ORDER-2", "")
	var gatewayErr *paymentdomain.GatewayError
	require.True(t, errors.As(err, &gatewayErr))
	assert.Equal(t, "INSTRUMENT_DECLINED", gatewayErr.Code)
	assert.Equal(t, "The instrument presented was declined.", gatewayErr.Message)
	assert.False(t, errors.Is(err, paymentdomain.ErrGatewayUnavailable))
}

func TestServerErrorIsUnavailable(t *testing.T) {
	fake, gw := newFakePayPal(t)
	fake.mux.HandleFunc("/v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := gw.CreateOrder(context.Background(), paymentdomain.CreateOrderInput{
		Amount:   decimal.NewFromInt(5),
		Currency: "USD",
	})
	assert.ErrorIs(t, err, paymentdomain.ErrGatewayUnavailable)
}

func TestCreateOrderRejectsNonPositiveAmount(t *testing.T) {
	_, gw := newFakePayPal(t)
	_, err := gw.CreateOrder(context.Background(), paymentdomain.CreateOrderInput{Amount: decimal.Zero, Currency: "USD"})
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidAmount)
}
