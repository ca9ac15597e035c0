package main

// Run database migrations:
//   go run ./cmd/migrate

import (
	"context"
	"os"

	"juris-backend/internal/shared/config"
	"juris-backend/internal/shared/storage/db"
	"juris-backend/internal/shared/telemetry"
)

func main() {
	os.Exit(run(context.Background()))
}

func run(ctx context.Context) int {
	cfg, warnings := config.Load()
	telemetry.Configure(cfg.LogLevel)
	defer telemetry.Sync()
	for _, w := range warnings {
		telemetry.Warn("config.warning", map[string]any{"detail": w})
	}

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		telemetry.Error("migrate.connect.failed", map[string]any{"err": err})
		return 1
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"err": err})
		return 1
	}
	telemetry.Info("migrate.applied", nil)
	return 0
}
