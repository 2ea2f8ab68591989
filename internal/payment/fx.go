package payment

import (
	"github.com/smallbiznis/studiobooks/internal/config"
	"github.com/smallbiznis/studiobooks/internal/payment/adapters/paypal"
	"github.com/smallbiznis/studiobooks/internal/payment/adapters/stripe"
	paymentdomain "github.com/smallbiznis/studiobooks/internal/payment/domain"
	"github.com/smallbiznis/studiobooks/internal/payment/repository"
	paymentservice "github.com/smallbiznis/studiobooks/internal/payment/service"
	"github.com/smallbiznis/studiobooks/internal/payment/webhook"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(provideCardGateway),
	fx.Provide(provideWalletGateway),
	fx.Provide(paymentservice.NewService),
	fx.Provide(webhook.NewService),
)

// Gateways are nil when unconfigured; consumers treat that as "not offered".
func provideCardGateway(cfg config.Config, log *zap.Logger) paymentdomain.CardGateway {
	if !cfg.Stripe.Enabled() {
		log.Info("card gateway not configured")
		return nil
	}
	gw, err := stripe.NewGateway(cfg.Stripe, log)
	if err != nil {
		log.Warn("card gateway disabled", zap.Error(err))
		return nil
	}
	return gw
}

func provideWalletGateway(cfg config.Config, log *zap.Logger) paymentdomain.WalletGateway {
	if !cfg.Wallet.Enabled() {
		log.Info("wallet gateway not configured")
		return nil
	}
	gw, err := paypal.NewGateway(cfg.Wallet, log)
	if err != nil {
		log.Warn("wallet gateway disabled", zap.Error(err))
		return nil
	}
	return gw
}
