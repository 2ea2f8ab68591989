package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/studiobooks/internal/config"
	customerdomain "github.com/smallbiznis/studiobooks/internal/customer/domain"
	customerrepo "github.com/smallbiznis/studiobooks/internal/customer/repository"
	taxdomain "github.com/smallbiznis/studiobooks/internal/tax/domain"
	"github.com/smallbiznis/studiobooks/pkg/db/dbtest"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

func TestResolverUsesCustomerBillingState(t *testing.T) {
	db := dbtest.Open(t, &customerdomain.Customer{})

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	settings := config.DefaultSettings()
	settings.Tax.HomeState = "CA"
	settings.Tax.DefaultRate = 8.25

	r := NewResolver(ResolverParams{
		DB:           db,
		Log:          zap.NewNop(),
		Settings:     config.NewStaticSettingsHolder(settings),
		CustomerRepo: customerrepo.Provide(),
	})

	orgID := node.Generate()
	inState := customerdomain.Customer{ID: node.Generate(), OrgID: orgID, Name: "Local", Email: "a@b.co", BillingState: strPtr("CA"), Metadata: datatypes.JSONMap{}}
	outState := customerdomain.Customer{ID: node.Generate(), OrgID: orgID, Name: "Remote", Email: "c@d.co", BillingState: strPtr("OR"), Metadata: datatypes.JSONMap{}}
	require.NoError(t, db.Create(&inState).Error)
	require.NoError(t, db.Create(&outState).Error)

	ctx := context.Background()

	res, err := r.ResolveForCustomer(ctx, orgID, &inState.ID)
	require.NoError(t, err)
	require.Equal(t, taxdomain.SourceDefault, res.Source)
	require.Equal(t, "8.25", res.Rate.String())

	res, err = r.ResolveForCustomer(ctx, orgID, &outState.ID)
	require.NoError(t, err)
	require.Equal(t, taxdomain.SourceOutOfState, res.Source)
	require.True(t, res.Rate.IsZero())

	res, err = r.ResolveForCustomer(ctx, orgID, nil)
	require.NoError(t, err)
	require.Equal(t, taxdomain.SourceDefault, res.Source)

	missing := node.Generate()
	_, err = r.ResolveForCustomer(ctx, orgID, &missing)
	require.ErrorIs(t, err, taxdomain.ErrCustomerNotFound)
}
