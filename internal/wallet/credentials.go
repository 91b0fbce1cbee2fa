package wallet

// credentials.go loads service account credentials and hands out bearer tokens for the wallet provider API.
//
// Tokens are fetched with the OAuth 2.0 JWT bearer grant (the service account signs an assertion, the token endpoint
// returns an access token). When token caching is enabled a token is reused until EarlyRefresh before its expiry,
// so a request never goes out with a token that is about to expire.

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"

	"github.com/information-sharing-networks/walletpass/internal/crypto"
	"github.com/information-sharing-networks/walletpass/internal/metrics"
)

// WalletScope is the OAuth scope needed to manage pass classes and objects
const WalletScope = "https://www.googleapis.com/auth/wallet_object.issuer"

// DefaultTokenEarlyRefresh is how long before expiry a cached token is replaced
const DefaultTokenEarlyRefresh = 5 * time.Minute

// Credentials is a parsed service account key
type Credentials struct {
	// ClientEmail is the service account identity (the iss of save links)
	ClientEmail string

	// KeyID is the provider's id of the private key (the kid of save links)
	KeyID string

	signingKey jwk.Key
	conf       *jwt.Config
	httpClient *http.Client

	// cached is nil when tokens are fetched for every request
	cached oauth2.TokenSource
}

// SigningKey returns the private key as a JWK carrying KeyID
func (c *Credentials) SigningKey() jwk.Key {
	return c.signingKey
}

// Token returns a bearer token for the wallet provider.
//
// A rejected assertion (the token endpoint answered with an error) is a credential error,
// a transport failure is a wallet api error.
func (c *Credentials) Token(ctx context.Context) (*oauth2.Token, error) {
	var (
		tok *oauth2.Token
		err error
	)
	if c.cached != nil {
		tok, err = c.cached.Token()
	} else {
		tok, err = c.fetch(ctx)
	}
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, WrapCredentialError(err, "the token endpoint rejected the service account credentials")
		}
		return nil, WrapWalletAPIError(err, "failed to obtain an access token")
	}
	return tok, nil
}

// fetch requests a new token from the token endpoint
func (c *Credentials) fetch(ctx context.Context) (*oauth2.Token, error) {
	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}

	// jwt.Config.TokenSource reuses tokens internally, a new source per call always goes to the endpoint
	tok, err := c.conf.TokenSource(ctx).Token()
	if err != nil {
		metrics.TokenFetchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.TokenFetchesTotal.WithLabelValues("ok").Inc()
	return tok, nil
}

// fetchSource adapts Credentials.fetch to oauth2.TokenSource for the cache.
// Cached tokens outlive any request, so the fetch is not tied to a request context.
type fetchSource struct {
	creds *Credentials
}

func (s fetchSource) Token() (*oauth2.Token, error) {
	return s.creds.fetch(context.Background())
}

// CredentialLoaderConfig configures a CredentialLoader
type CredentialLoaderConfig struct {
	// HTTPClient is used to call the token endpoint (http.DefaultClient when nil)
	HTTPClient *http.Client

	// CacheTokens enables reuse of access tokens until shortly before they expire
	CacheTokens bool

	// EarlyRefresh is how long before expiry a cached token is replaced (DefaultTokenEarlyRefresh when zero)
	EarlyRefresh time.Duration

	Logger *slog.Logger
}

// CredentialLoader parses service account keys.
// When token caching is on, credentials are kept per key so their tokens can be reused across issuances.
type CredentialLoader struct {
	cfg CredentialLoaderConfig

	mu    sync.Mutex
	cache map[[32]byte]*Credentials
}

func NewCredentialLoader(cfg CredentialLoaderConfig) *CredentialLoader {
	if cfg.EarlyRefresh <= 0 {
		cfg.EarlyRefresh = DefaultTokenEarlyRefresh
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &CredentialLoader{
		cfg:   cfg,
		cache: make(map[[32]byte]*Credentials),
	}
}

// Load parses a service account key (the JSON key file downloaded from the provider console).
// Any problem with the key material is returned as a credential error, there is no fallback identity.
func (l *CredentialLoader) Load(ctx context.Context, keyJSON string) (*Credentials, error) {
	// the key material is only used as a map key through its hash
	fingerprint := crypto.Fingerprint([]byte(keyJSON))

	if l.cfg.CacheTokens {
		l.mu.Lock()
		creds, ok := l.cache[fingerprint]
		l.mu.Unlock()
		if ok {
			return creds, nil
		}
	}

	creds, err := parseServiceAccountKey([]byte(keyJSON))
	if err != nil {
		return nil, err
	}
	creds.httpClient = l.cfg.HTTPClient

	if !l.cfg.CacheTokens {
		return creds, nil
	}

	creds.cached = oauth2.ReuseTokenSourceWithExpiry(nil, fetchSource{creds: creds}, l.cfg.EarlyRefresh)

	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.cache[fingerprint]; ok {
		return existing, nil
	}
	l.cache[fingerprint] = creds

	l.cfg.Logger.DebugContext(ctx, "service account credentials loaded",
		slog.String("client_email", creds.ClientEmail),
		slog.String("key_id", creds.KeyID),
	)
	return creds, nil
}

func parseServiceAccountKey(keyJSON []byte) (*Credentials, error) {
	conf, err := google.JWTConfigFromJSON(keyJSON, WalletScope)
	if err != nil {
		return nil, WrapCredentialError(err, "unable to read service account credentials from configuration")
	}
	if conf.Email == "" {
		return nil, NewCredentialError("service account key has no client_email")
	}
	if conf.PrivateKeyID == "" {
		return nil, NewCredentialError("service account key has no private_key_id")
	}

	privateKey, err := crypto.ParseRSAPrivateKeyPEM(conf.PrivateKey)
	if err != nil {
		return nil, WrapCredentialError(err, "service account private key is not a valid RSA key")
	}

	signingKey, err := crypto.RSAPrivateKeyToJWK(privateKey, conf.PrivateKeyID)
	if err != nil {
		return nil, WrapCredentialError(err, "failed to convert service account private key")
	}

	return &Credentials{
		ClientEmail: conf.Email,
		KeyID:       conf.PrivateKeyID,
		signingKey:  signingKey,
		conf:        conf,
	}, nil
}
