package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/information-sharing-networks/walletpass/internal/config"
	"github.com/information-sharing-networks/walletpass/internal/database"
	"github.com/information-sharing-networks/walletpass/internal/logger"
	"github.com/information-sharing-networks/walletpass/internal/server/handlers"
	walletmiddleware "github.com/information-sharing-networks/walletpass/internal/server/middleware"
	"github.com/information-sharing-networks/walletpass/internal/version"
	"github.com/information-sharing-networks/walletpass/internal/wallet"
)

const (
	requestTimeout = 60 * time.Second

	// requests are GETs, apart from the admin routes
	maxRequestSize = 64 * 1024
)

type Server struct {
	pool    *pgxpool.Pool
	config  *config.ServerEnvironment
	logger  *slog.Logger
	router  *chi.Mux
	manager *wallet.Manager
	store   *database.Store
	queries *database.Queries
}

func NewServer(
	pool *pgxpool.Pool,
	cfg *config.ServerEnvironment,
	logger *slog.Logger,
) (*Server, error) {
	queries := database.New(pool)
	server := &Server{
		pool:    pool,
		config:  cfg,
		logger:  logger,
		router:  chi.NewRouter(),
		queries: queries,
		store:   database.NewStore(queries),
	}

	if err := server.initWalletManager(); err != nil {
		return nil, fmt.Errorf("failed to initialize wallet manager: %w", err)
	}

	server.setupMiddleware()
	server.registerRoutes(handlers.NewWalletHandler(server.manager), queries)

	return server, nil
}

// initWalletManager resolves the deployment profile here so that a missing or ambiguous
// ACTIVE_PROFILES stops the process before it serves traffic.
func (s *Server) initWalletManager() error {
	manager, err := NewWalletManager(s.config.Wallet, s.config.ActiveProfiles, s.store, s.logger)
	if err != nil {
		return err
	}

	s.manager = manager
	s.logger.Info("wallet manager initialized",
		slog.String("profile", string(manager.Profile())),
		slog.Bool("token_cache", s.config.Wallet.TokenCache),
	)
	return nil
}

// NewWalletManager wires the wallet pipeline to the database store. It is shared with walletctl.
func NewWalletManager(cfg config.WalletEnvironment, activeProfiles []string, store *database.Store, logger *slog.Logger) (*wallet.Manager, error) {
	profile, err := wallet.ResolveProfile(activeProfiles)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	credentials := wallet.NewCredentialLoader(wallet.CredentialLoaderConfig{
		HTTPClient:   httpClient,
		CacheTokens:  cfg.TokenCache,
		EarlyRefresh: cfg.TokenEarlyRefresh,
		Logger:       logger,
	})

	client := wallet.NewClient(wallet.ClientConfig{
		ClassURL:   cfg.ClassURL,
		ObjectURL:  cfg.ObjectURL,
		HTTPClient: httpClient,
		Logger:     logger,
	})

	signer, err := wallet.NewSaveLinkSigner(cfg.SaveURLTemplate)
	if err != nil {
		return nil, err
	}

	return wallet.NewManager(profile, wallet.Dependencies{
		Events:        store,
		Configuration: store,
		Credentials:   credentials,
		Client:        client,
		Signer:        signer,
		Logger:        logger,
	})
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(logger.RequestLogging(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(walletmiddleware.RequestMetrics)
	s.router.Use(walletmiddleware.SecurityHeaders(s.config.Environment))
	s.router.Use(middleware.Timeout(requestTimeout))
}

func (s *Server) registerRoutes(wallets *handlers.WalletHandler, readiness handlers.ReadinessChecker) {
	s.router.Get("/health/live", handlers.HandleHealth)
	s.router.Get("/health/ready", handlers.HandleReadiness(readiness))
	s.router.Get("/version", handlers.HandleVersion(version.Get(), s.profile()))
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(walletmiddleware.RateLimit(s.config.RateLimitRPS, s.config.RateLimitBurst))
		r.Use(walletmiddleware.RequestSizeLimit(maxRequestSize))

		r.Get("/events/{eventName}/tickets/{ticketUUID}/google-wallet", wallets.HandleAddToWallet)
		r.Get("/events/{eventName}/tickets/{ticketUUID}/google-wallet/url", wallets.HandleAddToWalletURL)
	})

	if s.config.Environment == "dev" || s.config.Environment == "test" {
		s.router.Route("/admin", func(r chi.Router) {
			r.Use(walletmiddleware.RequestSizeLimit(maxRequestSize))

			r.Put("/configuration", handlers.HandleSetConfiguration(s.queries))
			r.Get("/events/{eventName}/wallet-settings", handlers.HandleGetWalletSettings(s.store, wallet.NewSettingsResolver(s.store)))
		})
	}
}

func (s *Server) profile() string {
	if s.manager == nil {
		return ""
	}
	return string(s.manager.Profile())
}

// ServeHTTP lets the server be used with httptest
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) Start(ctx context.Context) error {
	serverAddr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	httpServer := &http.Server{
		Addr:         serverAddr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("service listening",
			slog.String("environment", s.config.Environment),
			slog.String("address", serverAddr))

		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.config.ServerShutdownTimeout)
	defer shutdownCancel()

	s.logger.Info("shutting down HTTP server")

	err := httpServer.Shutdown(shutdownCtx)
	if err != nil {
		s.logger.Warn("HTTP server shutdown error",
			slog.String("error", err.Error()))
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}

	s.logger.Info("HTTP server shutdown complete")
	return nil
}

func (s *Server) DatabaseShutdown() {
	if s.pool != nil {
		s.pool.Close()
		s.logger.Info("database connection closed")
	}
}
