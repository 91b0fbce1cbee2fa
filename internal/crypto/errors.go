package crypto

import "fmt"

// ErrorCode classifies the failures of the signing and key handling functions in this package
type ErrorCode string

const (
	// ErrCodeValidation: the caller passed something unusable (nil key, empty key id, a compact JWS without
	// three segments, a header missing alg or kid, a payload that is not JSON)
	ErrCodeValidation ErrorCode = "invalid_input"

	// ErrCodeInvalidSignature: signing with the RSA key failed, or no key of the set verifies the JWS
	ErrCodeInvalidSignature ErrorCode = "invalid_signature"

	// ErrCodeKeyManagement: the service account private key PEM or a published JWK set could not be used
	ErrCodeKeyManagement ErrorCode = "key_management"

	// ErrCodeInternal: jwx or the JSON canonicalizer failed on input that was already validated
	ErrCodeInternal ErrorCode = "internal"
)

// CryptoError is returned by every function of the package.
// Callers map it with Code (api.MapErrorToResponse turns signature errors into 400 Bad Signature).
type CryptoError struct {
	code    ErrorCode
	message string
	wrapped error
}

func (e *CryptoError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *CryptoError) Code() ErrorCode { return e.code }
func (e *CryptoError) Unwrap() error   { return e.wrapped }

// NewValidationError reports unusable input, e.g. a nil RSA key or a JWS header without kid
func NewValidationError(msg string) error {
	return &CryptoError{code: ErrCodeValidation, message: msg}
}

// WrapValidationError reports input that failed to decode (base64url header, JSON payload)
func WrapValidationError(err error, msg string) error {
	return &CryptoError{code: ErrCodeValidation, message: msg, wrapped: err}
}

// NewSignatureError reports a save link or JWS whose RS256 signature does not hold
func NewSignatureError(msg string) error {
	return &CryptoError{code: ErrCodeInvalidSignature, message: msg}
}

// WrapSignatureError wraps a jws.Sign or jws.Verify failure
func WrapSignatureError(err error, msg string) error {
	return &CryptoError{code: ErrCodeInvalidSignature, message: msg, wrapped: err}
}

// NewKeyManagementError reports a service account key that is not an RSA private key in PEM form,
// or an empty JWK set
func NewKeyManagementError(msg string) error {
	return &CryptoError{code: ErrCodeKeyManagement, message: msg}
}

// WrapKeyManagementError wraps a PKCS#1/PKCS#8 parse failure or a JWK set parse failure
func WrapKeyManagementError(err error, msg string) error {
	return &CryptoError{code: ErrCodeKeyManagement, message: msg, wrapped: err}
}

func NewInternalError(msg string) error {
	return &CryptoError{code: ErrCodeInternal, message: msg}
}

// WrapInternalError wraps a jwx header or key conversion failure, or a canonicalization failure
func WrapInternalError(err error, msg string) error {
	return &CryptoError{code: ErrCodeInternal, message: msg, wrapped: err}
}
