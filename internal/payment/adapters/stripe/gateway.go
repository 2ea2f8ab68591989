package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/smallbiznis/studiobooks/internal/config"
	paymentdomain "github.com/smallbiznis/studiobooks/internal/payment/domain"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
	"go.uber.org/zap"
)

const defaultTimeout = 15 * time.Second

// Gateway is the hosted-card gateway backed by the Stripe API.
type Gateway struct {
	api            *client.API
	publishableKey string
	accountID      string
	log            *zap.Logger
}

var _ paymentdomain.CardGateway = (*Gateway)(nil)

func NewGateway(cfg config.StripeConfig, log *zap.Logger) (*Gateway, error) {
	if !cfg.Enabled() {
		return nil, paymentdomain.ErrGatewayUnavailable
	}
	if log == nil {
		log = zap.NewNop()
	}

	backendCfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: defaultTimeout},
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	}
	if u := strings.TrimSpace(cfg.APIURL); u != "" {
		backendCfg.URL = stripe.String(strings.TrimRight(u, "/"))
	}

	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendCfg),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendCfg),
	}

	return &Gateway{
		api:            client.New(cfg.SecretKey, backends),
		publishableKey: strings.TrimSpace(cfg.PublishableKey),
		accountID:      strings.TrimSpace(cfg.AccountID),
		log:            log.Named("payment.stripe"),
	}, nil
}

func (g *Gateway) Provider() string { return paymentdomain.ProviderStripe }

func (g *Gateway) PublishableKey() string { return g.publishableKey }

func (g *Gateway) CreateIntent(ctx context.Context, input paymentdomain.CreateIntentInput) (*paymentdomain.Intent, error) {
	amount := paymentdomain.MinorUnits(input.Amount)
	if amount <= 0 {
		return nil, paymentdomain.ErrInvalidAmount
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(strings.ToLower(strings.TrimSpace(input.Currency))),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if desc := strings.TrimSpace(input.Description); desc != "" {
		params.Description = stripe.String(desc)
	}
	g.decorate(ctx, &params.Params, input.IdempotencyKey, input.Metadata)

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, g.mapError("create_intent", err)
	}
	return toIntent(pi), nil
}

func (g *Gateway) GetIntent(ctx context.Context, intentID string) (*paymentdomain.Intent, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return nil, paymentdomain.ErrInvalidID
	}

	params := &stripe.PaymentIntentParams{}
	g.decorate(ctx, &params.Params, "", nil)

	pi, err := g.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		return nil, g.mapError("get_intent", err)
	}
	return toIntent(pi), nil
}

func (g *Gateway) Refund(ctx context.Context, input paymentdomain.RefundInput) (*paymentdomain.Refund, error) {
	chargeID := strings.TrimSpace(input.ChargeID)
	if chargeID == "" {
		return nil, paymentdomain.ErrInvalidID
	}

	params := &stripe.RefundParams{Charge: stripe.String(chargeID)}
	if amount := paymentdomain.MinorUnits(input.Amount); amount > 0 {
		params.Amount = stripe.Int64(amount)
	}
	g.decorate(ctx, &params.Params, input.IdempotencyKey, input.Metadata)

	refund, err := g.api.Refunds.New(params)
	if err != nil {
		return nil, g.mapError("refund", err)
	}
	return &paymentdomain.Refund{
		ID:     refund.ID,
		Status: string(refund.Status),
		Amount: paymentdomain.FromMinorUnits(refund.Amount),
	}, nil
}

func (g *Gateway) decorate(ctx context.Context, params *stripe.Params, idempotencyKey string, metadata map[string]string) {
	params.Context = ctx
	if key := strings.TrimSpace(idempotencyKey); key != "" {
		params.SetIdempotencyKey(key)
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	if g.accountID != "" {
		params.SetStripeAccount(g.accountID)
	}
}

func (g *Gateway) mapError(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		code := string(stripeErr.Code)
		if code == "" {
			code = string(stripeErr.Type)
		}
		g.log.Warn("stripe api error",
			zap.String("op", op),
			zap.String("code", code),
			zap.Int("http_status", stripeErr.HTTPStatusCode),
		)
		return &paymentdomain.GatewayError{
			Provider: paymentdomain.ProviderStripe,
			Code:     code,
			Message:  stripeErr.Msg,
			Err:      err,
		}
	}

	g.log.Warn("stripe request failed", zap.String("op", op), zap.Error(err))
	return &paymentdomain.GatewayError{
		Provider: paymentdomain.ProviderStripe,
		Code:     "unavailable",
		Message:  "The card processor is unavailable. Please try again.",
		Err:      fmt.Errorf("%w: %w", paymentdomain.ErrGatewayUnavailable, err),
	}
}

func toIntent(pi *stripe.PaymentIntent) *paymentdomain.Intent {
	intent := &paymentdomain.Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       paymentdomain.IntentStatus(pi.Status),
		Amount:       paymentdomain.FromMinorUnits(pi.Amount),
		Currency:     strings.ToUpper(string(pi.Currency)),
		Metadata:     pi.Metadata,
	}
	if pi.LatestCharge != nil {
		intent.LatestChargeID = pi.LatestCharge.ID
	}
	return intent
}
