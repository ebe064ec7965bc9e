package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"quantum-redirect/internal/config"
	httpdelivery "quantum-redirect/internal/redirect/delivery/http"
	"quantum-redirect/internal/redirect/ledger"
	"quantum-redirect/internal/redirect/metrics"
	"quantum-redirect/internal/redirect/nonce"
	"quantum-redirect/internal/redirect/repository/sqlite"
	"quantum-redirect/internal/redirect/token"
	"quantum-redirect/internal/redirect/usecase"

	dapr "github.com/dapr/go-sdk/client"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the redirect server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			defer rt.logger.Sync()

			if err := rt.cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			return serve(cmd.Context(), rt.cfg, rt.logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	db, err := openDatabase(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	m := metrics.New()
	checks := []httpdelivery.HealthCheck{{Name: "database", Check: db.PingContext}}

	// Nonce store
	nonceOpts := nonce.Options{
		Driver:        cfg.Nonce.Driver,
		TTL:           cfg.Nonce.TTL,
		Logger:        logger,
		OnUnavailable: m.ReportStoreUnavailable,
		PingTimeout:   cfg.Nonce.PingTimeout,
	}
	switch cfg.Nonce.Driver {
	case nonce.DriverRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		nonceOpts.Redis = nonce.NewRedisStore(rdb, cfg.Redis.Prefix, cfg.Nonce.TTL)
		checks = append(checks, httpdelivery.HealthCheck{Name: "redis", Check: nonceOpts.Redis.Ping})
	case nonce.DriverSQLite:
		nonceOpts.SQLite = nonce.NewSQLiteStore(db, cfg.Nonce.TTL)
	}
	nonces, err := nonce.Open(ctx, nonceOpts)
	if err != nil {
		return err
	}

	clickLedger, closeLedger := openLedger(cfg.Ledger, db, logger)
	defer closeLedger()

	// Wire dependencies
	secrets := cfg.Secrets()
	fingerprint := usecase.NewFingerprinter(secrets.Pepper())
	codec := token.NewCodec(cfg.Protocol.Issuer, token.WithLeeway(cfg.Protocol.ClockSkew))
	repo := sqlite.NewLinkRepository(db)

	svc := httpdelivery.Services{
		Links: usecase.NewLinkService(repo, logger),
		Genesis: usecase.NewGenesisIssuer(codec, usecase.GenesisConfig{
			BaseURL:     cfg.Server.BaseURL,
			Secret:      secrets.Genesis(),
			TTL:         cfg.Protocol.GenesisTTL,
			Fingerprint: fingerprint,
			Budget:      cfg.Protocol.Budgets.Genesis,
		}, clickLedger, m, logger),
		Validation: usecase.NewValidationHub(codec, nonces, usecase.ValidationConfig{
			BaseURL:       cfg.Server.BaseURL,
			GenesisSecret: secrets.Genesis(),
			TransitSecret: secrets.Transit(),
			TransitTTL:    cfg.Protocol.TransitTTL,
			LenientMode:   cfg.Protocol.LenientMode,
			Fingerprint:   fingerprint,
			Budget:        cfg.Protocol.Budgets.Validation,
		}, clickLedger, m, logger),
		Routing: usecase.NewRoutingGateway(codec, nonces, repo, usecase.RoutingConfig{
			TransitSecret:    secrets.Transit(),
			TrackingDefaults: cfg.Protocol.TrackingDefaults.Params(),
			Budget:           cfg.Protocol.Budgets.Routing,
		}, clickLedger, m, logger),
		Metrics: m,
	}

	proxies, err := cfg.Server.TrustedProxyPrefixes()
	if err != nil {
		return err
	}

	handler := httpdelivery.NewHandler(svc, checks, logger)
	rateLimiter := httpdelivery.NewRateLimiter(cfg.Server.RateLimit)
	defer rateLimiter.Stop()
	router := httpdelivery.NewRouter(handler, logger, rateLimiter, httpdelivery.NewTrustedProxies(proxies))

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("addr", cfg.Server.Addr),
			zap.String("base_url", cfg.Server.BaseURL),
			zap.Int("rate_limit", cfg.Server.RateLimit),
			zap.Strings("trusted_proxies", cfg.Server.TrustedProxies),
			zap.Bool("lenient_mode", cfg.Protocol.LenientMode),
			zap.String("nonce_driver", cfg.Nonce.Driver),
			zap.String("ledger_sink", cfg.Ledger.Sink),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// openLedger builds the configured click ledger. A nil ledger disables event recording. Sinks
// that cannot be reached are logged and disabled rather than failing startup.
func openLedger(cfg config.LedgerConfig, db *sql.DB, logger *zap.Logger) (usecase.ClickLedger, func()) {
	noop := func() {}

	switch cfg.Sink {
	case ledger.SinkSQLite:
		return sqlite.NewClickLedger(db), noop

	case ledger.SinkDapr:
		var (
			client dapr.Client
			err    error
		)
		if cfg.Dapr.Address != "" {
			client, err = dapr.NewClientWithAddress(cfg.Dapr.Address)
		} else {
			client, err = dapr.NewClient()
		}
		if err != nil {
			logger.Warn("failed to create Dapr client, click ledger disabled", zap.Error(err))
			return nil, noop
		}
		return ledger.NewDaprLedger(client, cfg.Dapr.PubSub, cfg.Dapr.Topic), client.Close

	case ledger.SinkKafka:
		w, err := ledger.NewKafkaWriter(cfg.Kafka)
		if err != nil {
			logger.Warn("failed to create kafka writer, click ledger disabled", zap.Error(err))
			return nil, noop
		}
		kl := ledger.NewKafkaLedger(w)
		return kl, func() {
			if err := kl.Close(); err != nil {
				logger.Warn("failed to flush kafka ledger", zap.Error(err))
			}
		}
	}

	logger.Info("click ledger disabled")
	return nil, noop
}
