package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/walletpass/internal/config"
	"github.com/information-sharing-networks/walletpass/internal/logger"
	"github.com/information-sharing-networks/walletpass/internal/server"
	"github.com/information-sharing-networks/walletpass/internal/version"
)

//	@title			wallet-server
//	@description	wallet-server issues Google Wallet event tickets for the tickets of an event.
//	@description
//	@description	The add to wallet endpoints make sure the pass class of the ticket category and the pass object
//	@description	of the ticket exist on Google Wallet, then return a signed "save to wallet" link.
//	@description	Pass ids are derived from the ticket, so repeated requests reuse the existing passes.
//	@description
//	@description	## Common Error Responses
//	@description	All endpoints may return:
//	@description	- `413` Request body exceeds size limit
//	@description	- `429` Rate limit exceeded
//	@description	- `500` Internal server error
//	@description
//	@description	Error bodies carry a `providerCorrelationReference` which is the request id found in the server logs.
//	@description
//	@description	## Configuration
//	@description	Wallet passes are enabled per event with the configuration values ENABLE_WALLET,
//	@description	WALLET_ISSUER_IDENTIFIER, WALLET_SERVICE_ACCOUNT_KEY, WALLET_OVERWRITE_PREVIOUS_CLASSES_AND_EVENTS
//	@description	and BASE_URL (event values override organization values which override system values).
//	@description	When any of them is missing the endpoints respond 404.
//	@license.name	MIT

//	@servers.url			http://localhost:8080
//	@servers.description	Development server

//	@produce	json

//	@tag.name			Wallet
//	@tag.description	Add to Google Wallet endpoints

//	@tag.name			Common
//	@tag.description	Server API endpoints (health, readiness, version, metrics)

//	@tag.name			Admin
//	@tag.description	Configuration management. These endpoints are unprotected and only registered in the dev and test environments.

func main() {
	cmd := &cobra.Command{
		Use:   "wallet-server",
		Short: "Google Wallet pass issuance server",
		Long:  `wallet-server serves the add to Google Wallet endpoints for event tickets`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	v := version.Get()
	cmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.NewServerConfig()
	if err != nil {
		log.Printf("failed to load configuration: %v", err.Error())
		os.Exit(1)
	}

	appLogger := logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)

	// DATABASE_URL is not logged, it may contain a password
	appLogger.Info("Configuration loaded",
		slog.String("ENVIRONMENT", cfg.Environment),
		slog.String("HOST", cfg.Host),
		slog.Int("PORT", cfg.Port),
		slog.String("LOG_LEVEL", cfg.LogLevel),
		slog.String("ACTIVE_PROFILES", strings.Join(cfg.ActiveProfiles, "|")),
		slog.String("WALLET_CLASS_URL", cfg.Wallet.ClassURL),
		slog.String("WALLET_OBJECT_URL", cfg.Wallet.ObjectURL),
		slog.Duration("WALLET_HTTP_TIMEOUT", cfg.Wallet.HTTPTimeout),
		slog.Bool("WALLET_TOKEN_CACHE", cfg.Wallet.TokenCache),
	)

	dbCtx, dbCancel := context.WithTimeout(context.Background(), cfg.DatabasePingTimeout)
	defer dbCancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		appLogger.Error("Failed to parse database URL", slog.String("error", err.Error()))
		os.Exit(1)
	}

	poolConfig.MaxConns = cfg.DBMaxConnections
	poolConfig.MinConns = cfg.DBMinConnections
	poolConfig.MaxConnLifetime = cfg.DBMaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.DBMaxConnIdleTime
	poolConfig.ConnConfig.ConnectTimeout = cfg.DBConnectTimeout

	pool, err := pgxpool.NewWithConfig(dbCtx, poolConfig)
	if err != nil {
		appLogger.Error("Unable to create connection pool", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err = pool.Ping(dbCtx); err != nil {
		appLogger.Error("Error pinging database via pool", slog.String("error", err.Error()))
		os.Exit(1)
	}

	appLogger.Info("connected to PostgreSQL")

	appLogger.Info("Starting server", slog.String("version", version.Get().Version))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.NewServer(pool, cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to create server", slog.String("error", err.Error()))
		pool.Close()
		os.Exit(1)
	}

	defer srv.DatabaseShutdown()

	if err := srv.Start(ctx); err != nil {
		appLogger.Error("Server error", slog.String("error", err.Error()))
		return err
	}

	appLogger.Info("server shutdown complete")
	return nil
}
