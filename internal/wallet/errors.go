package wallet

// errors.go defines the error codes returned by the wallet pipeline

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the class of failure of an issuance attempt
type ErrorCode string

const (
	// ErrCodeFeatureDisabled is used when the wallet configuration is switched off or incomplete.
	// This is a user facing condition rather than a fault.
	ErrCodeFeatureDisabled ErrorCode = "feature_disabled"

	// ErrCodeCredential is used when the service account key material cannot be parsed or is rejected
	ErrCodeCredential ErrorCode = "credential"

	// ErrCodeWalletAPI is used for transport failures, timeouts and unexpected responses from the wallet provider
	ErrCodeWalletAPI ErrorCode = "wallet_api"

	// ErrCodeEnvironmentConfiguration is used when no deployment profile can be resolved.
	// It indicates a misconfigured deployment, not a per ticket problem.
	ErrCodeEnvironmentConfiguration ErrorCode = "environment_configuration"

	// ErrCodeValidation is used when event or ticket data cannot be turned into a pass (e.g. malformed coordinates)
	ErrCodeValidation ErrorCode = "validation"

	// ErrCodeNotFound is used when the event, category or ticket does not exist
	ErrCodeNotFound ErrorCode = "not_found"

	// ErrCodeInternal is used for unexpected failures (e.g. the configuration store is unavailable)
	ErrCodeInternal ErrorCode = "internal"
)

// WalletError represents a structured error from the wallet package.
type WalletError struct {
	// code is the wallet error code
	code ErrorCode

	// message is a human-readable error message
	message string

	// wrapped is the optional underlying error
	wrapped error
}

func (e *WalletError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *WalletError) Code() ErrorCode { return e.code }
func (e *WalletError) Unwrap() error   { return e.wrapped }

// Message returns the message without the wrapped cause (safe to show to users)
func (e *WalletError) Message() string { return e.message }

// CodeOf returns the code of the first WalletError in err's chain, or "" if there is none.
func CodeOf(err error) ErrorCode {
	var walletErr *WalletError
	if errors.As(err, &walletErr) {
		return walletErr.code
	}
	return ""
}

// NewFeatureDisabledError creates an error for a disabled or partially configured integration.
func NewFeatureDisabledError(msg string) error {
	return &WalletError{code: ErrCodeFeatureDisabled, message: msg}
}

// WrapCredentialError wraps a failure to load or use service account credentials.
func WrapCredentialError(err error, msg string) error {
	return &WalletError{code: ErrCodeCredential, message: msg, wrapped: err}
}

// NewCredentialError creates a credential error.
func NewCredentialError(msg string) error {
	return &WalletError{code: ErrCodeCredential, message: msg}
}

// NewWalletAPIError creates an error for an unexpected response from the wallet provider.
func NewWalletAPIError(msg string) error {
	return &WalletError{code: ErrCodeWalletAPI, message: msg}
}

// WrapWalletAPIError wraps a transport failure while talking to the wallet provider.
// The originating cause is kept so callers can inspect it (e.g. context.DeadlineExceeded).
func WrapWalletAPIError(err error, msg string) error {
	return &WalletError{code: ErrCodeWalletAPI, message: msg, wrapped: err}
}

// NewEnvironmentConfigurationError creates an error for a deployment without a usable profile.
func NewEnvironmentConfigurationError(msg string) error {
	return &WalletError{code: ErrCodeEnvironmentConfiguration, message: msg}
}

// NewValidationError creates an error for event or ticket data that cannot be used in a pass.
func NewValidationError(msg string) error {
	return &WalletError{code: ErrCodeValidation, message: msg}
}

// WrapValidationError wraps an error for event or ticket data that cannot be used in a pass.
func WrapValidationError(err error, msg string) error {
	return &WalletError{code: ErrCodeValidation, message: msg, wrapped: err}
}

// WrapNotFoundError wraps a repository lookup that found nothing.
func WrapNotFoundError(err error, msg string) error {
	return &WalletError{code: ErrCodeNotFound, message: msg, wrapped: err}
}

// NewInternalError creates an error for an unexpected condition.
func NewInternalError(msg string) error {
	return &WalletError{code: ErrCodeInternal, message: msg}
}

// WrapInternalError wraps an unexpected failure.
func WrapInternalError(err error, msg string) error {
	return &WalletError{code: ErrCodeInternal, message: msg, wrapped: err}
}
