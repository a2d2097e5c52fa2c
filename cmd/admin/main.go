package main

import (
	"context"
	"os"

	"servicepulse/backend/internal/app"
	"servicepulse/backend/internal/config"
	"servicepulse/backend/internal/logger"
)

func main() {
	build := func(ctx context.Context) (*app.App, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		if err := logger.Init(&cfg.Logger); err != nil {
			return nil, err
		}
		return app.Build(ctx, cfg, app.Options{})
	}

	if err := newRootCommand(build).Execute(); err != nil {
		os.Exit(1)
	}
}
