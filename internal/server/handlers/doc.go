// Package handlers provides the HTTP handlers of the wallet service.
//
//   - wallet.go: the add to wallet endpoints used by ticket holders
//   - health.go, version.go: infrastructure endpoints
//   - admin_configuration.go: configuration management for development and testing only.
//     In production the configuration table is managed by the ticketing system.
package handlers
