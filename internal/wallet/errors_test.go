package wallet

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestCodeOf(t *testing.T) {
	cause := context.DeadlineExceeded

	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"feature disabled", NewFeatureDisabledError("off"), ErrCodeFeatureDisabled},
		{"credential", WrapCredentialError(cause, "bad key"), ErrCodeCredential},
		{"wallet api", WrapWalletAPIError(cause, "timeout"), ErrCodeWalletAPI},
		{"environment", NewEnvironmentConfigurationError("no profile"), ErrCodeEnvironmentConfiguration},
		{"wrapped by fmt", fmt.Errorf("issuing: %w", NewValidationError("bad latitude")), ErrCodeValidation},
		{"plain error", errors.New("boom"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWalletErrorKeepsCause(t *testing.T) {
	err := WrapWalletAPIError(context.DeadlineExceeded, "error while communicating with the wallet provider")

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected the cause to be reachable with errors.Is")
	}

	var walletErr *WalletError
	if !errors.As(err, &walletErr) {
		t.Fatalf("expected a *WalletError")
	}
	if walletErr.Message() != "error while communicating with the wallet provider" {
		t.Errorf("unexpected message %q", walletErr.Message())
	}
	if walletErr.Error() == walletErr.Message() {
		t.Errorf("expected Error() to include the cause, got %q", walletErr.Error())
	}
}
