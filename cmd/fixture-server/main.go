package main

import (
	"context"

	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	"github.com/shopverse/storefront/internal/fixtureserver"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, _ *app.Telemetry) error {
		cfg, err := fixtureserver.LoadConfig()
		if err != nil {
			return err
		}
		return fixtureserver.Run(ctx, lg, cfg)
	})
}
