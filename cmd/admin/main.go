// Command admin runs maintenance tasks against the configured profile store.
package main

import (
	"context"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/janisto/linkglyph/internal/app"
	"github.com/janisto/linkglyph/internal/config"
	applog "github.com/janisto/linkglyph/internal/platform/logging"
)

func main() {
	root := newRootCmd(func(ctx context.Context) (*app.Resources, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		applog.Configure(applog.Options{Level: cfg.Level(), Writer: os.Stderr})
		return app.Open(ctx, cfg)
	})
	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
