package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"testing"
	"time"

	stripeadapter "github.com/smallbiznis/studiobooks/internal/payment/adapters/stripe"
	paymentdomain "github.com/smallbiznis/studiobooks/internal/payment/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingProcessor struct {
	events []*paymentdomain.PaymentEvent
	err    error
}

func (r *recordingProcessor) ProcessEvent(ctx context.Context, event *paymentdomain.PaymentEvent, payload []byte) error {
	r.events = append(r.events, event)
	return r.err
}

const testSecret = "whsec_test"

func newTestService(t *testing.T, processor eventProcessor) *Service {
	t.Helper()
	adapter, err := stripeadapter.NewAdapter(1, testSecret)
	require.NoError(t, err)
	return &Service{
		log:       zap.NewNop(),
		processor: processor,
		adapters:  map[string]paymentdomain.PaymentAdapter{paymentdomain.ProviderStripe: adapter},
	}
}

func signedHeaders(payload []byte) http.Header {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(testSecret))
	_, _ = mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))
	headers := http.Header{}
	headers.Set("Stripe-Signature", fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil))))
	return headers
}

func TestIngestForwardsVerifiedEvent(t *testing.T) {
	processor := &recordingProcessor{}
	svc := newTestService(t, processor)

	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","created":1700000000,
		"data":{"object":{"id":"pi_1","amount":10000,"currency":"usd","latest_charge":"ch_1",
		"metadata":{"invoice_id":"42"}}}}`)

	require.NoError(t, svc.IngestWebhook(context.Background(), "Stripe", payload, signedHeaders(payload)))
	require.Len(t, processor.events, 1)
	assert.Equal(t, "stripe", processor.events[0].Provider)
	assert.Equal(t, "ch_1", processor.events[0].ProviderChargeID)
}

func TestIngestRejectsBadSignature(t *testing.T) {
	processor := &recordingProcessor{}
	svc := newTestService(t, processor)

	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{}}}`)
	headers := http.Header{}
	headers.Set("Stripe-Signature", "t=1,v1=deadbeef")

	err := svc.IngestWebhook(context.Background(), "stripe", payload, headers)
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidSignature)
	assert.Empty(t, processor.events)
}

func TestIngestSwallowsIgnoredAndReplayedEvents(t *testing.T) {
	processor := &recordingProcessor{err: paymentdomain.ErrEventAlreadyProcessed}
	svc := newTestService(t, processor)

	ignored := []byte(`{"id":"evt_2","type":"customer.created","data":{"object":{}}}`)
	require.NoError(t, svc.IngestWebhook(context.Background(), "stripe", ignored, signedHeaders(ignored)))
	assert.Empty(t, processor.events)

	replay := []byte(`{"id":"evt_3","type":"charge.refunded","data":{"object":{"id":"ch_1","amount":100}}}`)
	require.NoError(t, svc.IngestWebhook(context.Background(), "stripe", replay, signedHeaders(replay)))
	assert.Len(t, processor.events, 1)
}

func TestIngestUnknownProvider(t *testing.T) {
	svc := newTestService(t, &recordingProcessor{})
	err := svc.IngestWebhook(context.Background(), "adyen", []byte(`{}`), http.Header{})
	assert.ErrorIs(t, err, paymentdomain.ErrProviderNotFound)

	err = svc.IngestWebhook(context.Background(), " ", []byte(`{}`), http.Header{})
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidProvider)
}
