// Package server provides the HTTP server of the wallet service.
//
// The server is configured through environment variables (see internal/config).
// NewServer builds the wallet pipeline from the configuration and the database pool;
// handlers are in internal/server/handlers and middleware in internal/server/middleware.
package server
