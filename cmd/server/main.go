package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/janisto/linkglyph/internal/app"
	"github.com/janisto/linkglyph/internal/config"
	"github.com/janisto/linkglyph/internal/http/docs"
	"github.com/janisto/linkglyph/internal/http/health"
	"github.com/janisto/linkglyph/internal/http/v1/routes"
	applog "github.com/janisto/linkglyph/internal/platform/logging"
	appmiddleware "github.com/janisto/linkglyph/internal/platform/middleware"
	"github.com/janisto/linkglyph/internal/platform/respond"
	"github.com/janisto/linkglyph/internal/platform/validate"
)

// Version can be overridden at build time: -ldflags "-X main.Version=1.2.3"
var Version = "dev"

// @title						LinkGlyph API
// @version					1.0
// @description				Profile cards addressed by handle.
// @BasePath					/v1
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		applog.LogFatal(ctx, "config load failed", err)
	}
	applog.Configure(applog.Options{Level: cfg.Level(), Service: "linkglyph", Version: Version})

	res, err := app.Open(ctx, cfg)
	if err != nil {
		applog.LogFatal(ctx, "store init failed", err, slog.String("driver", cfg.StoreDriver))
	}
	defer func() {
		if closeErr := res.Close(); closeErr != nil {
			applog.LogError(ctx, "close error", closeErr)
		}
	}()

	if err := res.Migrate(ctx); err != nil {
		applog.LogFatal(ctx, "migration failed", err)
	}

	e := newServer(cfg, res, Version)

	applog.LogInfo(ctx, "server starting",
		slog.String("addr", ":"+cfg.Port),
		slog.String("store", cfg.StoreDriver),
		slog.Bool("auth", res.Verifier != nil),
		slog.Bool("cache", cfg.RedisAddr != ""),
		slog.String("version", Version))

	sc := echo.StartConfig{
		Address:         ":" + cfg.Port,
		GracefulTimeout: 10 * time.Second,
		BeforeServeFunc: func(s *http.Server) error {
			s.ReadTimeout = 5 * time.Second
			s.ReadHeaderTimeout = 2 * time.Second
			s.WriteTimeout = 10 * time.Second
			s.IdleTimeout = 60 * time.Second
			s.MaxHeaderBytes = 64 << 10
			return nil
		},
	}

	sigCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := sc.Start(sigCtx, e); err != nil {
		log.Fatal(err)
	}

	applog.LogInfo(ctx, "server exited")
}

func newServer(cfg config.Config, res *app.Resources, version string) *echo.Echo {
	e := echo.New()
	e.Validator = validate.New()
	e.HTTPErrorHandler = respond.NewHTTPErrorHandler()
	e.IPExtractor = echo.ExtractIPFromRealIPHeader()
	e.Logger = applog.Logger()

	e.Use(
		appmiddleware.Security("/api-docs"),
		appmiddleware.Vary(),
		appmiddleware.CORS(cfg.CORSOrigins...),
		appmiddleware.RequestID(),
		middleware.BodyLimit(cfg.BodyLimit),
		applog.RequestLogger(),
		applog.AccessLogger("/health", "/health/ready"),
		respond.Recoverer(),
	)

	health.Register(e, version, res.Checks())
	docs.Register(e, cfg.OpenAPISpecPath)

	v1 := e.Group("/v1")
	routes.Register(v1, res.Verifier, res.Store)

	return e
}
