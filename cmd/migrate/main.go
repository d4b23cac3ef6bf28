package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"bigbite-orderbot/internal/config"
	"bigbite-orderbot/internal/db"
	"bigbite-orderbot/internal/logging"
	"bigbite-orderbot/internal/migrate"
)

func main() {
	direction := flag.String("direction", "up", "up, down (one step) or version")
	flag.Parse()

	cfg, err := config.Load(config.PathFromEnv())
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	logger := logging.Init("migrate", "", cfg.App.LogLevel)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DB.DSN, logger)
	if err != nil {
		logger.Error("connect db", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	switch *direction {
	case "up":
		err = migrate.Apply(ctx, pool)
	case "down":
		err = migrate.Down(ctx, pool)
	case "version":
		v, dirty, verr := migrate.Version(ctx, pool)
		if verr == nil {
			logger.Info("schema version", "version", v, "dirty", dirty)
		}
		err = verr
	default:
		logger.Error("unknown direction", "direction", *direction)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("migrate", "direction", *direction, "err", err)
		os.Exit(1)
	}
	logger.Info("migrations done", "direction", *direction)
}
