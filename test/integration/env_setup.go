//go:build integration

package integration

// Test environment setup and server lifecycle management.
//
// The integration tests start the wallet-server HTTP server with a temporary database and run tests against it.
// Each test creates an empty temporary database and applies all the migrations so the schema reflects the latest code.
// The database is dropped after each test.
//
// The server runs with the dev profile and its class/object collection urls point at a fake wallet provider
// started by the test (see startInProcessServer).
//
// By default the server logs are not included in the test output, you can enable them with:
//
//	ENABLE_SERVER_LOGS=true go test -tags=integration -v ./test/integration
//

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/information-sharing-networks/walletpass/internal/config"
	"github.com/information-sharing-networks/walletpass/internal/database"
	"github.com/information-sharing-networks/walletpass/internal/logger"
	"github.com/information-sharing-networks/walletpass/internal/server"
	"github.com/information-sharing-networks/walletpass/internal/wallet/testutil"
)

// testEnv provides access to test db, server and wallet provider for integration tests
type testEnv struct {
	baseURL  string
	cfg      *config.ServerEnvironment
	pool     *pgxpool.Pool
	queries  *database.Queries
	provider *testutil.Provider
	shutdown func()
}

// startInProcessServer starts the wallet-server in-process for testing
func startInProcessServer(t *testing.T) *testEnv {
	t.Helper()

	testEnv := &testEnv{}

	t.Log("Starting in-process server...")

	testEnv.provider = testutil.NewProvider(t)

	// server config
	var (
		ctx         = context.Background()
		host        = "localhost"
		port        = findFreePort(t)
		environment = "test"
		logLevel    = "none"
	)

	if os.Getenv("ENABLE_SERVER_LOGS") == "true" {
		logLevel = "debug"
	}

	// configure db
	testEnv.pool = setupTestDatabase(t)
	testDatabaseURL := testEnv.pool.Config().ConnString()

	// Set environment variables before calling NewServerConfig
	testEnvVars := map[string]string{
		"HOST":         host,
		"DATABASE_URL": testDatabaseURL,
		"ENVIRONMENT":  environment,
		"LOG_LEVEL":    logLevel,
		"PORT":         fmt.Sprintf("%d", port),

		"ACTIVE_PROFILES":          "dev",
		"WALLET_CLASS_URL":         testEnv.provider.ClassURL(),
		"WALLET_OBJECT_URL":        testEnv.provider.ObjectURL(),
		"WALLET_JWKS_URL_TEMPLATE": testEnv.provider.JWKSURLTemplate(),
	}

	// Save original env vars and set test values
	originalEnvVars := make(map[string]string)
	for key, value := range testEnvVars {
		originalEnvVars[key] = os.Getenv(key)
		os.Setenv(key, value)
	}

	// Restore original environment variables when test completes
	t.Cleanup(func() {
		for key, original := range originalEnvVars {
			if original != "" {
				os.Setenv(key, original)
			} else {
				os.Unsetenv(key)
			}
		}
	})

	cfg, err := config.NewServerConfig()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	testEnv.queries = database.New(testEnv.pool)

	appLogger := logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), environment)

	serverInstance, err := server.NewServer(testEnv.pool, cfg, appLogger)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}

	// Create a cancellable context for server shutdown
	serverCtx, serverCancel := context.WithCancel(ctx)

	// Start server
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := serverInstance.Start(serverCtx); err != nil {
			serverDone <- err
		}
	}()

	// Create shutdown function to be called by the test
	testEnv.shutdown = func() {
		t.Log("Stopping server...")

		// Cancel the server context to trigger graceful shutdown
		serverCancel()

		select {
		case err := <-serverDone:
			if err != nil {
				t.Logf("Server shutdown with error: %v", err)
			} else {
				t.Log("Server shut down gracefully")
			}
		case <-time.After(5 * time.Second):
			t.Log("Server shutdown timeout")
		}

		serverInstance.DatabaseShutdown()
	}

	testEnv.baseURL = fmt.Sprintf("http://localhost:%d", port)
	testEnv.cfg = cfg

	if !waitForServer(t, testEnv.baseURL+"/health/live", 30*time.Second) {
		t.Fatal("Server failed to start within timeout")
	}

	t.Logf("Server started at %s", testEnv.baseURL)
	return testEnv
}

func findFreePort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("Failed to find free port: %v", err)
	}
	defer listener.Close()

	addr := listener.Addr().(*net.TCPAddr)
	return addr.Port
}

func waitForServer(t *testing.T, url string, timeout time.Duration) bool {
	t.Helper()

	client := &http.Client{Timeout: 1 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return true
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}

// Test database configuration

type databaseConfig struct {
	userAndPassword string
	dbname          string
	host            string
	port            int
}

func (d *databaseConfig) connectionURL() string {
	return fmt.Sprintf("postgres://%s@%s:%d/%s?sslmode=disable",
		d.userAndPassword, d.host, d.port, d.dbname)
}

func (d *databaseConfig) WithDatabase(dbname string) *databaseConfig {
	return &databaseConfig{
		userAndPassword: d.userAndPassword,
		host:            d.host,
		port:            d.port,
		dbname:          dbname,
	}
}

func localDatabaseConfig() *databaseConfig {
	return &databaseConfig{
		userAndPassword: "wallet-dev",
		dbname:          "tmp_walletpass_integration_test",
		host:            "localhost",
		port:            15433,
	}
}

func ciDatabaseConfig() *databaseConfig {
	return &databaseConfig{
		userAndPassword: "postgres:postgres",
		dbname:          "tmp_walletpass_integration_test",
		host:            "localhost",
		port:            5432,
	}
}

// setupTestDatabase creates an empty test db, applies migrations and returns a connection pool
// the function auto-detects if it is running in CI (github actions) and uses the appropriate database config
func setupTestDatabase(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx := context.Background()
	config := *localDatabaseConfig()
	if os.Getenv("GITHUB_ACTIONS") == "true" {
		config = *ciDatabaseConfig()
	}

	// connect to the postgres database to create the test database.
	// This pool stays open until the test database has been dropped in cleanup
	postgresConnectionURL := config.WithDatabase("postgres").connectionURL()
	postgresPool, err := pgxpool.New(ctx, postgresConnectionURL)
	if err != nil {
		t.Fatalf("Unable to create postgres connection pool: %v", err)
	}
	t.Cleanup(postgresPool.Close)

	if err := postgresPool.Ping(ctx); err != nil {
		t.Fatalf("Can't ping PostgreSQL server %s", postgresConnectionURL)
	}

	if _, err := postgresPool.Exec(ctx, "DROP DATABASE IF EXISTS "+config.dbname); err != nil {
		t.Fatalf("DROP DATABASE IF EXISTS Failed : %v", err)
	}
	if _, err := postgresPool.Exec(ctx, "CREATE DATABASE "+config.dbname); err != nil {
		t.Fatalf("CREATE DATABASE Failed : %v", err)
	}

	// cleanups run last-in first-out: the test pool is closed before the database is dropped
	t.Cleanup(func() {
		if _, err := postgresPool.Exec(ctx, "DROP DATABASE IF EXISTS "+config.dbname+" WITH (FORCE)"); err != nil {
			t.Errorf("Failed to drop test database: %v", err)
		}
	})

	testDatabasePool, err := pgxpool.New(ctx, config.connectionURL())
	if err != nil {
		t.Fatalf("Unable to create connection pool: %v", err)
	}
	t.Cleanup(testDatabasePool.Close)

	if err := database.Migrate(ctx, testDatabasePool, "up"); err != nil {
		t.Fatalf("Failed to apply database migrations: %v", err)
	}

	t.Logf("Database ready: %s", config.dbname)
	return testDatabasePool
}
