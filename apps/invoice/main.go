package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/studiobooks/internal/config"
	"github.com/smallbiznis/studiobooks/internal/observability"
	"github.com/smallbiznis/studiobooks/internal/server"
	"github.com/smallbiznis/studiobooks/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,

		// Payment page reads invoices and records gateway payments, so it
		// needs the full domain graph even though it only exposes public routes.
		server.Domains,

		fx.Provide(server.NewEngine),
		fx.Provide(server.NewServer),
		fx.Invoke(func(s *server.Server) {
			s.RegisterPublicRoutes()
			s.RegisterWebhookRoutes()
		}),
		fx.Invoke(server.RunHTTP),
	)
	app.Run()
}

// Node ids differ per binary so ids minted by separately deployed services never collide.
func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(3)
	if err != nil {
		panic(err)
	}
	return node
}
