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
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,

		// Admin API, webhooks and the public payment page on one listener.
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
