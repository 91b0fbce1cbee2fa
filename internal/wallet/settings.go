package wallet

import (
	"context"
	"log/slog"
	"strings"

	"github.com/information-sharing-networks/walletpass/internal/event"
)

// configuration keys read for every issuance
const (
	ConfigKeyEnableWallet      = "ENABLE_WALLET"
	ConfigKeyIssuerIdentifier  = "WALLET_ISSUER_IDENTIFIER"
	ConfigKeyServiceAccountKey = "WALLET_SERVICE_ACCOUNT_KEY"
	ConfigKeyOverwritePrevious = "WALLET_OVERWRITE_PREVIOUS_CLASSES_AND_EVENTS"
	ConfigKeyBaseURL           = "BASE_URL"
)

var settingsKeys = []string{
	ConfigKeyEnableWallet,
	ConfigKeyIssuerIdentifier,
	ConfigKeyServiceAccountKey,
	ConfigKeyOverwritePrevious,
	ConfigKeyBaseURL,
}

// ConfigurationSource returns the effective configuration values for an event scope.
// Keys without a value are left out of the returned map.
type ConfigurationSource interface {
	GetConfiguration(ctx context.Context, scope event.Scope, keys []string) (map[string]string, error)
}

// StaticConfiguration is a ConfigurationSource that returns the same values for every scope
type StaticConfiguration map[string]string

func (s StaticConfiguration) GetConfiguration(_ context.Context, _ event.Scope, keys []string) (map[string]string, error) {
	values := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := s[k]; ok {
			values[k] = v
		}
	}
	return values, nil
}

// Settings is the wallet configuration of an event. It is only constructed when every value is present.
type Settings struct {
	IssuerID          string
	ServiceAccountKey string
	BaseURL           string
	OverwritePrevious bool
}

// LogValue keeps the service account key out of the logs
func (s Settings) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("issuer_id", s.IssuerID),
		slog.String("base_url", s.BaseURL),
		slog.Bool("overwrite_previous", s.OverwritePrevious),
	)
}

// SettingsResolver loads the wallet settings of an event
type SettingsResolver struct {
	source ConfigurationSource
}

func NewSettingsResolver(source ConfigurationSource) *SettingsResolver {
	return &SettingsResolver{source: source}
}

// Resolve returns the settings for scope.
//
// ok is false when the integration is disabled for the event: the enabled flag is not "true" (any case), or any of the
// other four keys is missing or blank. Errors reading the source are returned as errors.
func (r *SettingsResolver) Resolve(ctx context.Context, scope event.Scope) (Settings, bool, error) {
	values, err := r.source.GetConfiguration(ctx, scope, settingsKeys)
	if err != nil {
		return Settings{}, false, WrapInternalError(err, "failed to read wallet configuration")
	}

	if !strings.EqualFold(strings.TrimSpace(values[ConfigKeyEnableWallet]), "true") {
		return Settings{}, false, nil
	}

	for _, key := range settingsKeys[1:] {
		if strings.TrimSpace(values[key]) == "" {
			return Settings{}, false, nil
		}
	}

	settings := Settings{
		IssuerID:          strings.TrimSpace(values[ConfigKeyIssuerIdentifier]),
		ServiceAccountKey: values[ConfigKeyServiceAccountKey],
		BaseURL:           strings.TrimRight(strings.TrimSpace(values[ConfigKeyBaseURL]), "/"),
		OverwritePrevious: strings.EqualFold(strings.TrimSpace(values[ConfigKeyOverwritePrevious]), "true"),
	}
	if settings.BaseURL == "" {
		return Settings{}, false, nil
	}

	return settings, true, nil
}
