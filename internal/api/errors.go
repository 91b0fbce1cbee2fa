package api

// errors.go defines the error codes returned in API error responses

import "fmt"

// APIError represents an error raised by the HTTP layer itself (middleware, request parsing).
type APIError struct {
	// code is the API error code
	code ErrorCode

	// message is a human-readable error message
	message string

	// wrapped is the optional underlying error
	wrapped error
}

func (e *APIError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *APIError) Code() ErrorCode { return e.code }
func (e *APIError) Unwrap() error   { return e.wrapped }

// ErrorCode is returned in the errors array of an ErrorResponse.
//
//   - 7000-7999 technical errors: the request could not be processed because of a technical issue
//     (bad input, provider outage, misconfiguration)
//   - 8000-8999 functional errors: the request is valid but the pass cannot be issued
type ErrorCode int

const (
	// ErrCodeMalformedRequest is used when path parameters or the request body cannot be parsed
	ErrCodeMalformedRequest ErrorCode = 7001

	// ErrCodeInternalError is used when an internal server error occurs
	ErrCodeInternalError ErrorCode = 7002

	// ErrCodeRateLimitExceeded is used when the rate limit is exceeded
	// - this is only used in the middleware
	ErrCodeRateLimitExceeded ErrorCode = 7003

	// ErrCodeRequestTooLarge is used when the request body is too large
	// - this is only used in the middleware
	ErrCodeRequestTooLarge ErrorCode = 7004

	// ErrCodeWalletProvider is used when the wallet provider could not be reached or rejected a request
	ErrCodeWalletProvider ErrorCode = 7005

	// ErrCodeCredential is used when the configured service account key is unusable
	ErrCodeCredential ErrorCode = 7006

	// ErrCodeBadSignature is used when a save link signature cannot be verified
	ErrCodeBadSignature ErrorCode = 7007

	// ErrCodeNotFound is used when the event or ticket does not exist
	ErrCodeNotFound ErrorCode = 8001

	// ErrCodeFeatureDisabled is used when wallet passes are not enabled for the event
	ErrCodeFeatureDisabled ErrorCode = 8002

	// ErrCodeInvalidPassData is used when the event data cannot be turned into a pass
	ErrCodeInvalidPassData ErrorCode = 8003
)

// NewMalformedRequestError creates an error for malformed requests.
func NewMalformedRequestError(msg string) error {
	return &APIError{code: ErrCodeMalformedRequest, message: msg}
}

// NewNotFoundError creates an error for unknown events or tickets.
func NewNotFoundError(msg string) error {
	return &APIError{code: ErrCodeNotFound, message: msg}
}

// NewInternalError creates an internal error for unexpected failures.
func NewInternalError(msg string) error {
	return &APIError{code: ErrCodeInternalError, message: msg}
}

// WrapInternalError wraps an existing error as an internal error.
func WrapInternalError(err error, msg string) error {
	return &APIError{code: ErrCodeInternalError, message: msg, wrapped: err}
}

// NewRateLimitError creates a rate limit exceeded error.
func NewRateLimitError(msg string) error {
	return &APIError{code: ErrCodeRateLimitExceeded, message: msg}
}

// NewRequestTooLargeError creates a request too large error.
func NewRequestTooLargeError(msg string) error {
	return &APIError{code: ErrCodeRequestTooLarge, message: msg}
}
