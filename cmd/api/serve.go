package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/axeelhrz/casinoescolarnuevo-sub002/config"
	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/adapters/getnet"
	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/adapters/memory"
	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/adapters/mercadopago"
	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/adapters/netget"
	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/adapters/postgres"
	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/adapters/provider"
	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/ledger"
	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/ports"
	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/service"
	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/signature"
	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/handlers"
	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/logger"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the payments HTTP server.

Configuration comes from the environment (PORT, PAYMENTS_DEFAULT_PROVIDER,
PAYMENTS_ENV, GETNET_*, NETGET_*, MP_*, DATABASE_URI, CATALOG_PATH).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	zaplog, err := logger.NewZapLog(cfg.Server.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	defer func() { _ = zaplog.Sync() }()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := buildApp(ctx, cfg, zaplog)
	if err != nil {
		return err
	}
	defer app.close()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zaplog.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("default_provider", cfg.Payments.DefaultProvider),
			zap.String("environment", cfg.Payments.Environment),
			zap.String("store", app.storeKind))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zaplog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type app struct {
	router    *gin.Engine
	storeKind string
	close     func()
}

// buildApp wires up all dependencies (manual dependency injection).
func buildApp(ctx context.Context, cfg *config.Config, zaplog *zap.Logger) (*app, error) {
	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	normalizer, err := catalog.Normalizer()
	if err != nil {
		return nil, err
	}
	prices, err := catalog.PriceTable()
	if err != nil {
		return nil, err
	}

	// Infrastructure Layer
	var (
		store     ports.OrderStore
		pinger    handlers.Pinger
		storeKind = "memory"
		closeFn   = func() {}
	)
	if cfg.Store.DatabaseDSN != "" {
		pg, err := postgres.NewStore(ctx, cfg.Store.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("open order store: %w", err)
		}
		store, pinger, storeKind = pg, pg, "postgres"
		closeFn = func() { _ = pg.Close() }
	} else {
		zaplog.Warn("DATABASE_URI not set, orders are kept in memory")
		store = memory.NewStore()
	}

	registry, err := provider.NewRegistry(cfg.Payments.DefaultProvider, providerAdapters(cfg)...)
	if err != nil {
		closeFn()
		return nil, err
	}

	// Service Layer
	events := logger.NewEvents(zaplog)
	payments := service.NewPaymentService(registry, store, events)
	reconciler := service.NewReconciler(store, registry, normalizer, events)

	// API Layer
	paymentHandler := handlers.NewPaymentHandler(handlers.PaymentDeps{
		Sessions:   payments,
		Reconciler: reconciler,
		Providers:  registry.Names(),
		PublicURL:  cfg.Server.PublicURL,
		Pinger:     pinger,
	})
	orderHandler := handlers.NewOrderHandler(ledger.New(prices), store)
	router := handlers.SetupRouter(paymentHandler, orderHandler, handlers.RouterConfig{
		GinMode:       cfg.Server.GinMode,
		ServiceAPIKey: cfg.Server.ServiceAPIKey,
		Log:           zaplog,
	})

	return &app{router: router, storeKind: storeKind, close: closeFn}, nil
}

// providerAdapters builds every gateway. Only the default one must be fully
// configured; the others report missing credentials when first used.
func providerAdapters(cfg *config.Config) []ports.ProviderAdapter {
	return []ports.ProviderAdapter{
		getnet.NewAdapter(getnet.Config{
			Login:            cfg.GetNet.Login,
			Secret:           cfg.GetNet.Secret,
			BaseURL:          cfg.GetNetBaseURL(),
			Currency:         cfg.Payments.Currency,
			Timeout:          cfg.Payments.Timeout,
			Expiration:       cfg.Payments.Expiration,
			RequireSignature: cfg.GetNet.RequireSignature,
		}, signature.NewEngine()),
		netget.NewAdapter(netget.Config{
			MerchantID:       cfg.NetGet.MerchantID,
			Secret:           cfg.NetGet.Secret,
			BaseURL:          cfg.NetGetBaseURL(),
			Currency:         cfg.Payments.Currency,
			Timeout:          cfg.Payments.Timeout,
			Expiration:       cfg.Payments.Expiration,
			RequireSignature: cfg.NetGet.RequireSignature,
		}),
		mercadopago.NewAdapter(mercadopago.Config{
			AccessToken:   cfg.MercadoPago.AccessToken,
			WebhookSecret: cfg.MercadoPago.WebhookSecret,
			Currency:      cfg.Payments.Currency,
			Sandbox:       cfg.Sandbox(),
			Expiration:    cfg.Payments.Expiration,
		}),
	}
}
