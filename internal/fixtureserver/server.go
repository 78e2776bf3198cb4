// Package fixtureserver serves the storefront REST surface over the
// in-memory fixture implementations. It is the development stand-in for the
// real backend: the SDK and the SPA dev build point at it and get
// server-side filtering, cart persistence and coupon validation without any
// external dependency.
package fixtureserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/shopverse/storefront/internal/fixture"
	"github.com/shopverse/storefront/pkg/health"
	"github.com/shopverse/storefront/pkg/httpmiddleware"
)

// Config holds the server configuration.
type Config struct {
	Addr            string
	CORSOrigins     []string
	RateLimitMax    int
	RateLimitWindow time.Duration
	ShutdownTimeout time.Duration
}

// Run assembles the fixture backend and serves it until ctx is cancelled.
func Run(ctx context.Context, lg *zap.Logger, cfg Config) error {
	catalogSrc, err := fixture.NewCatalog()
	if err != nil {
		return errors.Wrap(err, "load fixture catalog")
	}
	cartSrc := fixture.NewCart(catalogSrc)

	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.SetReady(true)

	h := NewHandler(catalogSrc, cartSrc)

	r := chi.NewRouter()
	r.Get("/livez", healthSvc.LiveEndpoint)
	r.Get("/readyz", healthSvc.ReadyEndpoint)
	r.Route("/api", func(r chi.Router) {
		h.Routes(r)
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		Handler: httpmiddleware.Wrap(r,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins: cfg.CORSOrigins,
				AllowHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
				MaxAge:       86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimitMax,
				Window: cfg.RateLimitWindow,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(lg),
			httpmiddleware.LogRequests(),
		),
	}

	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)

		timeout := cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		lg.Info("Shutting down", zap.Duration("timeout", timeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		close(shutdownDone)
	}()

	lg.Info("Fixture backend listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
