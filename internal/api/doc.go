// Package api contains the JSON error format returned by the HTTP API and the helpers used by handlers
// and middleware to write responses.
//
// Errors from lower level packages (wallet, crypto) are mapped to an ErrorResponse by MapErrorToResponse.
// The full error is logged server-side; clients only see a sanitized message and the request id, which
// can be used to find the log entry.
package api
