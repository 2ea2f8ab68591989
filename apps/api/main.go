package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/studiobooks/internal/config"
	"github.com/smallbiznis/studiobooks/internal/migration"
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
		migration.Module,

		server.Domains,

		fx.Provide(server.NewEngine),
		fx.Provide(server.NewServer),
		fx.Invoke(func(s *server.Server) {
			s.RegisterAPIRoutes()
		}),
		fx.Invoke(server.RunHTTP),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(2)
	if err != nil {
		panic(err)
	}
	return node
}
