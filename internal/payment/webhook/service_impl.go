package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/studiobooks/internal/config"
	stripeadapter "github.com/smallbiznis/studiobooks/internal/payment/adapters/stripe"
	paymentdomain "github.com/smallbiznis/studiobooks/internal/payment/domain"
	paymentservice "github.com/smallbiznis/studiobooks/internal/payment/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type eventProcessor interface {
	ProcessEvent(ctx context.Context, event *paymentdomain.PaymentEvent, payload []byte) error
}

type Params struct {
	fx.In

	Log        *zap.Logger
	Cfg        config.Config
	PaymentSvc *paymentservice.Service
}

type Service struct {
	log       *zap.Logger
	processor eventProcessor
	adapters  map[string]paymentdomain.PaymentAdapter
}

func NewService(p Params) paymentdomain.WebhookService {
	log := p.Log.Named("payment.webhook")
	adapters := map[string]paymentdomain.PaymentAdapter{}

	if secret := strings.TrimSpace(p.Cfg.Stripe.WebhookSecret); secret != "" {
		adapter, err := stripeadapter.NewAdapter(snowflake.ID(p.Cfg.DefaultOrgID), secret)
		if err != nil {
			log.Warn("stripe webhook adapter disabled", zap.Error(err))
		} else {
			adapters[paymentdomain.ProviderStripe] = adapter
		}
	}

	return &Service{
		log:       log,
		processor: p.PaymentSvc,
		adapters:  adapters,
	}
}

func (s *Service) IngestWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return paymentdomain.ErrInvalidProvider
	}
	adapter, ok := s.adapters[provider]
	if !ok {
		return paymentdomain.ErrProviderNotFound
	}
	if !json.Valid(payload) {
		return paymentdomain.ErrInvalidPayload
	}

	if err := adapter.Verify(ctx, payload, headers); err != nil {
		s.log.Warn("webhook signature rejected", zap.String("provider", provider))
		return err
	}

	event, err := adapter.Parse(ctx, payload)
	if err != nil {
		if errors.Is(err, paymentdomain.ErrEventIgnored) {
			return nil
		}
		return err
	}
	event.Provider = provider
	if event.RawPayload == nil {
		event.RawPayload = payload
	}

	if s.processor == nil {
		return errors.New("payment_service_unavailable")
	}
	err = s.processor.ProcessEvent(ctx, event, payload)
	if errors.Is(err, paymentdomain.ErrEventAlreadyProcessed) {
		s.log.Debug("webhook replay ignored",
			zap.String("provider", provider),
			zap.String("event_id", event.ProviderEventID),
		)
		return nil
	}
	return err
}
