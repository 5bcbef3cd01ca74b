package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/makestudio/printforge/internal/clock"
	"github.com/makestudio/printforge/internal/config"
	"github.com/makestudio/printforge/internal/logger"
	"github.com/makestudio/printforge/internal/migration"
	"github.com/makestudio/printforge/internal/server"
	"github.com/makestudio/printforge/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
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
