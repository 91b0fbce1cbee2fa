// Package integration contains end-to-end tests for the wallet-server.
//
// These tests verify the server handles API requests correctly (redirects, error responses,
// configuration precedence, calls made to the wallet provider). Each test runs against a temporary
// database with migrations applied, the server is started in-process and talks to an
// in-memory wallet provider (internal/wallet/testutil).
//
// These tests assume the crypto and wallet packages are working correctly (tested separately).
// If bugs are introduced in lower-level packages, there will be cascading failures here -
// fix the low-level problems first.
package integration
