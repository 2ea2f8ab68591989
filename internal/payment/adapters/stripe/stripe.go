package stripe

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	paymentdomain "github.com/smallbiznis/studiobooks/internal/payment/domain"
	"github.com/stripe/stripe-go/v74/webhook"
)

// Adapter verifies and parses card gateway webhooks. orgID is used when the
// event metadata does not carry an organization.
type Adapter struct {
	orgID         snowflake.ID
	webhookSecret string
}

func NewAdapter(orgID snowflake.ID, webhookSecret string) (*Adapter, error) {
	secret := strings.TrimSpace(webhookSecret)
	if secret == "" {
		return nil, paymentdomain.ErrGatewayUnavailable
	}
	return &Adapter{orgID: orgID, webhookSecret: secret}, nil
}

func (a *Adapter) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	sigHeader := strings.TrimSpace(headers.Get("Stripe-Signature"))
	if sigHeader == "" {
		return paymentdomain.ErrInvalidSignature
	}
	if err := webhook.ValidatePayload(payload, sigHeader, a.webhookSecret); err != nil {
		return paymentdomain.ErrInvalidSignature
	}
	return nil
}

func (a *Adapter) Parse(ctx context.Context, payload []byte) (*paymentdomain.PaymentEvent, error) {
	var event stripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	if strings.TrimSpace(event.ID) == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}

	switch strings.TrimSpace(event.Type) {
	case "payment_intent.succeeded":
		return a.parsePaymentIntent(event, payload)
	case "charge.refunded":
		return a.parseRefund(event, payload)
	default:
		return nil, paymentdomain.ErrEventIgnored
	}
}

type stripeEvent struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Created int64           `json:"created"`
	Data    stripeEventData `json:"data"`
}

type stripeEventData struct {
	Object json.RawMessage `json:"object"`
}

type stripePaymentIntent struct {
	ID             string         `json:"id"`
	Amount         int64          `json:"amount"`
	AmountReceived int64          `json:"amount_received"`
	Currency       string         `json:"currency"`
	Created        int64          `json:"created"`
	LatestCharge   string         `json:"latest_charge"`
	Metadata       map[string]any `json:"metadata"`
}

type stripeCharge struct {
	ID             string         `json:"id"`
	Amount         int64          `json:"amount"`
	AmountRefunded int64          `json:"amount_refunded"`
	Currency       string         `json:"currency"`
	Created        int64          `json:"created"`
	PaymentIntent  string         `json:"payment_intent"`
	Metadata       map[string]any `json:"metadata"`
	Refunds        struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	} `json:"refunds"`
}

func (a *Adapter) parsePaymentIntent(event stripeEvent, payload []byte) (*paymentdomain.PaymentEvent, error) {
	var intent stripePaymentIntent
	if err := json.Unmarshal(event.Data.Object, &intent); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}

	amount := intent.AmountReceived
	if amount <= 0 {
		amount = intent.Amount
	}

	chargeID := strings.TrimSpace(intent.LatestCharge)
	if chargeID == "" {
		chargeID = intent.ID
	}

	return &paymentdomain.PaymentEvent{
		Provider:          paymentdomain.ProviderStripe,
		ProviderEventID:   event.ID,
		ProviderPaymentID: intent.ID,
		ProviderChargeID:  chargeID,
		Type:              paymentdomain.EventTypePaymentSucceeded,
		OrgID:             a.metadataOrg(intent.Metadata),
		InvoiceID:         parseMetadataID(intent.Metadata, "invoice_id"),
		Amount:            amount,
		Currency:          strings.ToUpper(strings.TrimSpace(intent.Currency)),
		OccurredAt:        timestamp(intent.Created, event.Created),
		RawPayload:        payload,
	}, nil
}

func (a *Adapter) parseRefund(event stripeEvent, payload []byte) (*paymentdomain.PaymentEvent, error) {
	var charge stripeCharge
	if err := json.Unmarshal(event.Data.Object, &charge); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	if strings.TrimSpace(charge.ID) == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}

	amount := charge.AmountRefunded
	if amount <= 0 {
		amount = charge.Amount
	}

	var refundID string
	if len(charge.Refunds.Data) > 0 {
		refundID = strings.TrimSpace(charge.Refunds.Data[0].ID)
	}

	return &paymentdomain.PaymentEvent{
		Provider:          paymentdomain.ProviderStripe,
		ProviderEventID:   event.ID,
		ProviderPaymentID: strings.TrimSpace(charge.PaymentIntent),
		ProviderChargeID:  charge.ID,
		ProviderRefundID:  refundID,
		Type:              paymentdomain.EventTypeRefunded,
		OrgID:             a.metadataOrg(charge.Metadata),
		InvoiceID:         parseMetadataID(charge.Metadata, "invoice_id"),
		Amount:            amount,
		Currency:          strings.ToUpper(strings.TrimSpace(charge.Currency)),
		OccurredAt:        timestamp(charge.Created, event.Created),
		RawPayload:        payload,
	}, nil
}

func (a *Adapter) metadataOrg(metadata map[string]any) snowflake.ID {
	if id := parseMetadataID(metadata, "org_id"); id != nil {
		return *id
	}
	return a.orgID
}

func timestamp(primary int64, fallback int64) time.Time {
	value := primary
	if value == 0 {
		value = fallback
	}
	if value == 0 {
		return time.Now().UTC()
	}
	return time.Unix(value, 0).UTC()
}

func parseMetadataID(metadata map[string]any, key string) *snowflake.ID {
	raw := readMetadataValue(metadata, key)
	if raw == "" {
		return nil
	}
	id, err := snowflake.ParseString(raw)
	if err != nil || id == 0 {
		return nil
	}
	return &id
}

func readMetadataValue(metadata map[string]any, key string) string {
	if metadata == nil {
		return ""
	}
	value, ok := metadata[key]
	if !ok {
		return ""
	}
	switch cast := value.(type) {
	case string:
		return strings.TrimSpace(cast)
	case float64:
		if cast == 0 {
			return ""
		}
		return strconv.FormatInt(int64(cast), 10)
	case json.Number:
		return cast.String()
	}
	return ""
}
