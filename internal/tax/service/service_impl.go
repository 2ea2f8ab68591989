package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/studiobooks/internal/config"
	customerdomain "github.com/smallbiznis/studiobooks/internal/customer/domain"
	taxdomain "github.com/smallbiznis/studiobooks/internal/tax/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ResolveTaxRate applies the in-state/out-of-state rule. Clients with no known
// jurisdiction, or one matching home, pay the default rate. Everyone else pays nothing.
func ResolveTaxRate(clientState *string, homeState string, defaultRate decimal.Decimal) taxdomain.Resolution {
	if defaultRate.IsNegative() {
		defaultRate = decimal.Zero
	}

	if clientState == nil {
		return taxdomain.Resolution{Rate: defaultRate, Source: taxdomain.SourceDefault}
	}
	state := strings.TrimSpace(*clientState)
	if state == "" || strings.EqualFold(state, strings.TrimSpace(homeState)) {
		return taxdomain.Resolution{Rate: defaultRate, Source: taxdomain.SourceDefault}
	}

	return taxdomain.Resolution{Rate: decimal.Zero, Source: taxdomain.SourceOutOfState}
}

type ResolverParams struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Settings     *config.SettingsHolder
	CustomerRepo customerdomain.Repository
}

type resolver struct {
	db           *gorm.DB
	log          *zap.Logger
	settings     *config.SettingsHolder
	customerRepo customerdomain.Repository
}

func NewResolver(p ResolverParams) taxdomain.Resolver {
	return &resolver{
		db:           p.DB,
		log:          p.Log.Named("tax.resolver"),
		settings:     p.Settings,
		customerRepo: p.CustomerRepo,
	}
}

// ResolveForCustomer reads the live settings, so changes apply to new edits only.
func (r *resolver) ResolveForCustomer(ctx context.Context, orgID snowflake.ID, customerID *snowflake.ID) (taxdomain.Resolution, error) {
	settings := r.settings.Get()

	var clientState *string
	if customerID != nil && *customerID != 0 {
		customer, err := r.customerRepo.FindByID(ctx, r.db, orgID, *customerID)
		if err != nil {
			return taxdomain.Resolution{}, err
		}
		if customer == nil {
			return taxdomain.Resolution{}, taxdomain.ErrCustomerNotFound
		}
		clientState = customer.BillingState
	}

	resolution := ResolveTaxRate(clientState, settings.Tax.HomeState, settings.DefaultTaxRate())
	r.log.Debug("resolved tax rate",
		zap.String("org_id", orgID.String()),
		zap.String("rate", resolution.Rate.String()),
		zap.String("source", string(resolution.Source)),
	)
	return resolution, nil
}
