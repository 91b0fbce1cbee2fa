package wallet

// verify.go checks save links the way the provider does: the JWT must be signed by a key published for the
// service account named in iss.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jws"

	"github.com/information-sharing-networks/walletpass/internal/crypto"
)

// DefaultJWKSURLTemplate is where the provider publishes the public keys of a service account
const DefaultJWKSURLTemplate = "https://www.googleapis.com/service_accounts/v1/jwk/{email}"

// KeySetSource returns the public keys of a service account
type KeySetSource interface {
	KeySet(ctx context.Context, clientEmail string) (jwk.Set, error)
}

// StaticKeySet returns the same key set for every service account (used for pinned keys and tests)
type StaticKeySet struct {
	Set jwk.Set
}

func (s StaticKeySet) KeySet(_ context.Context, _ string) (jwk.Set, error) {
	if s.Set == nil {
		return nil, NewCredentialError("no keys configured")
	}
	return s.Set, nil
}

// ServiceAccountKeyCacheConfig configures a ServiceAccountKeyCache
type ServiceAccountKeyCacheConfig struct {
	// URLTemplate is the JWKS endpoint, {email} is replaced by the service account email
	URLTemplate        string
	MinRefreshInterval time.Duration
	MaxRefreshInterval time.Duration
	Logger             *slog.Logger
}

// ServiceAccountKeyCache fetches service account JWK sets and keeps them fresh in the background.
// Endpoints are registered with the cache the first time a service account is seen.
type ServiceAccountKeyCache struct {
	cfg   ServiceAccountKeyCacheConfig
	cache *jwk.Cache

	// serializes registration
	mu sync.Mutex
}

// NewServiceAccountKeyCache creates the cache. The background refresh stops when ctx is cancelled.
func NewServiceAccountKeyCache(ctx context.Context, cfg ServiceAccountKeyCacheConfig) (*ServiceAccountKeyCache, error) {
	if cfg.URLTemplate == "" {
		cfg.URLTemplate = DefaultJWKSURLTemplate
	}
	if !strings.Contains(cfg.URLTemplate, "{email}") {
		return nil, NewValidationError(fmt.Sprintf("JWKS url template %q must contain {email}", cfg.URLTemplate))
	}
	if cfg.MinRefreshInterval <= 0 {
		cfg.MinRefreshInterval = 15 * time.Minute
	}
	if cfg.MaxRefreshInterval <= 0 {
		cfg.MaxRefreshInterval = 24 * time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	cache, err := jwk.NewCache(ctx, httprc.NewClient())
	if err != nil {
		return nil, WrapInternalError(err, "failed to create JWK cache")
	}

	return &ServiceAccountKeyCache{
		cfg:   cfg,
		cache: cache,
	}, nil
}

// URL returns the JWKS endpoint of a service account
func (c *ServiceAccountKeyCache) URL(clientEmail string) string {
	return strings.Replace(c.cfg.URLTemplate, "{email}", url.PathEscape(clientEmail), 1)
}

func (c *ServiceAccountKeyCache) KeySet(ctx context.Context, clientEmail string) (jwk.Set, error) {
	if clientEmail == "" {
		return nil, NewValidationError("service account email is required")
	}
	endpoint := c.URL(clientEmail)

	c.mu.Lock()
	if !c.cache.IsRegistered(ctx, endpoint) {
		// wait for the first fetch so the lookup below has keys to return
		err := c.cache.Register(ctx, endpoint,
			jwk.WithMinInterval(c.cfg.MinRefreshInterval),
			jwk.WithMaxInterval(c.cfg.MaxRefreshInterval),
			jwk.WithWaitReady(true),
		)
		if err != nil {
			// drop the failed endpoint so the next request tries again
			_ = c.cache.Unregister(ctx, endpoint)
			c.mu.Unlock()
			return nil, WrapWalletAPIError(err, fmt.Sprintf("failed to fetch keys for %s", clientEmail))
		}
		c.cfg.Logger.Info("registered service account JWKS endpoint", slog.String("jwk_url", endpoint))
	}
	c.mu.Unlock()

	set, err := c.cache.Lookup(ctx, endpoint)
	if err != nil {
		return nil, WrapWalletAPIError(err, fmt.Sprintf("failed to look up keys for %s", clientEmail))
	}
	return set, nil
}

// LinkVerifier verifies save link tokens
type LinkVerifier struct {
	keys KeySetSource
}

func NewLinkVerifier(keys KeySetSource) *LinkVerifier {
	return &LinkVerifier{keys: keys}
}

// Verify checks the signature and the claims of a save link token and returns the claims.
func (v *LinkVerifier) Verify(ctx context.Context, token string) (SaveLinkClaims, error) {
	msg, err := jws.Parse([]byte(token))
	if err != nil {
		return SaveLinkClaims{}, WrapValidationError(err, "save link is not a valid JWS")
	}

	// the unverified issuer only selects the key set, the signature check below decides
	unverified, err := decodeClaims(msg.Payload())
	if err != nil {
		return SaveLinkClaims{}, err
	}

	set, err := v.keys.KeySet(ctx, unverified.Issuer)
	if err != nil {
		return SaveLinkClaims{}, err
	}

	payload, err := crypto.VerifyWithKeySet(token, set)
	if err != nil {
		return SaveLinkClaims{}, WrapCredentialError(err, "save link signature is not valid")
	}

	claims, err := decodeClaims(payload)
	if err != nil {
		return SaveLinkClaims{}, err
	}

	switch {
	case claims.Audience != SaveLinkAudience:
		return SaveLinkClaims{}, NewValidationError(fmt.Sprintf("unexpected aud %q", claims.Audience))
	case claims.Type != SaveLinkType:
		return SaveLinkClaims{}, NewValidationError(fmt.Sprintf("unexpected typ %q", claims.Type))
	case len(claims.Payload.GenericObjects) == 0:
		return SaveLinkClaims{}, NewValidationError("save link does not reference any object")
	}

	return claims, nil
}

func decodeClaims(payload []byte) (SaveLinkClaims, error) {
	var claims SaveLinkClaims
	decoder := json.NewDecoder(bytes.NewReader(payload))
	if err := decoder.Decode(&claims); err != nil {
		return SaveLinkClaims{}, WrapValidationError(err, "could not decode save link claims")
	}
	if claims.Issuer == "" {
		return SaveLinkClaims{}, NewValidationError("save link has no iss")
	}
	return claims, nil
}
