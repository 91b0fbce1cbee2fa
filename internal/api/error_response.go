package api

// error_response.go maps lower level errors to the JSON error response returned to clients

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/information-sharing-networks/walletpass/internal/crypto"
	"github.com/information-sharing-networks/walletpass/internal/logger"
	"github.com/information-sharing-networks/walletpass/internal/wallet"
)

// ErrorResponse is the body of every non-2xx API response
type ErrorResponse struct {

	// The HTTP method used to make the request e.g. GET, POST, etc
	HTTPMethod string `json:"httpMethod"`

	// The URI that was requested
	RequestURI string `json:"requestUri"`

	// The HTTP status code returned
	StatusCode int `json:"statusCode"`

	// A standard short description corresponding to the HTTP status code
	StatusCodeText string `json:"statusCodeText"`

	// A long description corresponding to the HTTP status code with additional information
	StatusCodeMessage string `json:"statusCodeMessage,omitempty"`

	// The request id, also present in the server logs
	ProviderCorrelationReference string `json:"providerCorrelationReference,omitempty"`

	// The DateTime corresponding to the error occurring
	ErrorDateTime string `json:"errorDateTime"`

	// An array of errors providing more detail about the root cause
	Errors []DetailedError `json:"errors"`
}

// DetailedError is one entry of ErrorResponse.Errors
type DetailedError struct {
	ErrorCode        ErrorCode `json:"errorCode"`
	ErrorCodeText    string    `json:"errorCodeText"`
	ErrorCodeMessage string    `json:"errorCodeMessage"`
}

// MapErrorToResponse maps api.APIError, wallet.WalletError, crypto.CryptoError or generic errors to an ErrorResponse.
//
// The response only carries sanitized messages. Wrapped causes (provider response bodies,
// key parsing errors) are logged by RespondWithErrorResponse and never sent to the client.
func MapErrorToResponse(err error, r *http.Request) *ErrorResponse {
	requestID := middleware.GetReqID(r.Context())

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return errorResponseFromAPI(apiErr, r, requestID)
	}

	var walletErr *wallet.WalletError
	if errors.As(err, &walletErr) {
		return errorResponseFromWallet(walletErr, r, requestID)
	}

	var cryptoErr *crypto.CryptoError
	if errors.As(err, &cryptoErr) {
		return errorResponseFromCrypto(cryptoErr, r, requestID)
	}

	reqLogger := logger.ContextRequestLogger(r.Context())
	reqLogger.Error("BUG: Unmapped error type in MapErrorToResponse",
		slog.String("error_type", fmt.Sprintf("%T", err)),
		slog.String("error", err.Error()),
		slog.String("request_id", requestID),
	)
	return newErrorResponse(r, requestID, http.StatusInternalServerError, ErrCodeInternalError,
		"Internal Error", "An internal error occurred")
}

func errorResponseFromAPI(err *APIError, r *http.Request, requestID string) *ErrorResponse {
	var statusCode int
	var errorCodeText string

	switch err.Code() {
	case ErrCodeMalformedRequest:
		statusCode = http.StatusBadRequest
		errorCodeText = "Malformed request"
	case ErrCodeNotFound:
		statusCode = http.StatusNotFound
		errorCodeText = "Not found"
	case ErrCodeRateLimitExceeded:
		statusCode = http.StatusTooManyRequests
		errorCodeText = "Rate limit exceeded"
	case ErrCodeRequestTooLarge:
		statusCode = http.StatusRequestEntityTooLarge
		errorCodeText = "Request too large"
	default:
		return newErrorResponse(r, requestID, http.StatusInternalServerError, ErrCodeInternalError,
			"Internal Error", "An internal error occurred")
	}

	return newErrorResponse(r, requestID, statusCode, err.Code(), errorCodeText, err.message)
}

// errorResponseFromWallet maps the pipeline error codes.
// A disabled integration looks the same as a missing resource to the client.
func errorResponseFromWallet(err *wallet.WalletError, r *http.Request, requestID string) *ErrorResponse {
	var statusCode int
	var errorCode ErrorCode
	var errorCodeText string
	message := err.Message()

	switch err.Code() {
	case wallet.ErrCodeFeatureDisabled:
		statusCode = http.StatusNotFound
		errorCode = ErrCodeFeatureDisabled
		errorCodeText = "Feature disabled"
	case wallet.ErrCodeNotFound:
		statusCode = http.StatusNotFound
		errorCode = ErrCodeNotFound
		errorCodeText = "Not found"
	case wallet.ErrCodeWalletAPI:
		statusCode = http.StatusBadGateway
		errorCode = ErrCodeWalletProvider
		errorCodeText = "Wallet provider error"
	case wallet.ErrCodeCredential:
		statusCode = http.StatusInternalServerError
		errorCode = ErrCodeCredential
		errorCodeText = "Credential error"
		message = "The wallet service account key is not usable"
	case wallet.ErrCodeValidation:
		statusCode = http.StatusInternalServerError
		errorCode = ErrCodeInvalidPassData
		errorCodeText = "Invalid pass data"
	default:
		statusCode = http.StatusInternalServerError
		errorCode = ErrCodeInternalError
		errorCodeText = "Internal Error"
		message = "An internal error occurred"
	}

	return newErrorResponse(r, requestID, statusCode, errorCode, errorCodeText, message)
}

func errorResponseFromCrypto(err *crypto.CryptoError, r *http.Request, requestID string) *ErrorResponse {
	switch err.Code() {
	case crypto.ErrCodeInvalidSignature:
		return newErrorResponse(r, requestID, http.StatusBadRequest, ErrCodeBadSignature, "Bad Signature", err.Error())
	case crypto.ErrCodeValidation:
		return newErrorResponse(r, requestID, http.StatusBadRequest, ErrCodeMalformedRequest, "Malformed request", err.Error())
	default:
		return newErrorResponse(r, requestID, http.StatusInternalServerError, ErrCodeInternalError,
			"Internal Error", "An internal error occurred")
	}
}

func newErrorResponse(r *http.Request, requestID string, statusCode int, code ErrorCode, codeText, message string) *ErrorResponse {
	return &ErrorResponse{
		HTTPMethod:                   r.Method,
		RequestURI:                   r.RequestURI,
		StatusCode:                   statusCode,
		StatusCodeText:               http.StatusText(statusCode),
		StatusCodeMessage:            codeText,
		ProviderCorrelationReference: requestID,
		ErrorDateTime:                time.Now().UTC().Format(time.RFC3339),
		Errors: []DetailedError{
			{
				ErrorCode:        code,
				ErrorCodeText:    codeText,
				ErrorCodeMessage: message,
			},
		},
	}
}
