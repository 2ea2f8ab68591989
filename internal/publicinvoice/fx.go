package publicinvoice

import (
	"github.com/smallbiznis/studiobooks/internal/publicinvoice/repository"
	"github.com/smallbiznis/studiobooks/internal/publicinvoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module(
	"publicinvoice",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(service.NewTokenService),
)
