package wallet

// client.go ensures pass classes and objects exist on the wallet provider.
//
// Ensure looks a resource up before writing it. A resource that is found is left untouched: passes are never
// updated after issuance. Only a confirmed 404 leads to a write, which avoids duplicate creation when the provider
// has not yet made a recent create visible to a blind POST.
//
// Concurrent ensures of the same resource within the process share a single round trip. Across processes
// two first-time ensures can both see 404; the provider answers the losing create with 409, which is
// treated as success.

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/information-sharing-networks/walletpass/internal/crypto"
	"github.com/information-sharing-networks/walletpass/internal/metrics"
)

// provider collection endpoints
const (
	DefaultClassURL  = "https://walletobjects.googleapis.com/walletobjects/v1/eventTicketClass"
	DefaultObjectURL = "https://walletobjects.googleapis.com/walletobjects/v1/eventTicketObject"
)

// maximum number of bytes of a provider response kept in error messages
const maxErrorBodyBytes = 512

// TokenProvider supplies bearer tokens for provider requests (implemented by *Credentials)
type TokenProvider interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

// ClientConfig configures a Client
type ClientConfig struct {
	ClassURL   string
	ObjectURL  string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the wallet provider REST API
type Client struct {
	classURL   string
	objectURL  string
	httpClient *http.Client
	logger     *slog.Logger
	group      singleflight.Group
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.ClassURL == "" {
		cfg.ClassURL = DefaultClassURL
	}
	if cfg.ObjectURL == "" {
		cfg.ObjectURL = DefaultObjectURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		classURL:   strings.TrimRight(cfg.ClassURL, "/"),
		objectURL:  strings.TrimRight(cfg.ObjectURL, "/"),
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}
}

func (c *Client) collectionURL(kind ResourceKind) (string, error) {
	switch kind {
	case KindClass:
		return c.classURL, nil
	case KindObject:
		return c.objectURL, nil
	default:
		return "", NewInternalError(fmt.Sprintf("unknown resource kind %q", kind))
	}
}

// Ensure makes sure res exists on the provider and returns its id.
//
// When the resource is missing it is created with PUT {collection}/{id} if overwrite is set,
// otherwise with POST {collection}. Failures are not retried.
func (c *Client) Ensure(ctx context.Context, res Resource, tokens TokenProvider, overwrite bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", WrapWalletAPIError(err, "interrupted while communicating with the wallet provider")
	}
	key := string(res.Kind()) + ":" + res.ResourceID()

	// the shared call must not end with the caller that started it: other issuances may have joined.
	// It stays bounded by the http client timeout. DoChan lets a caller whose context ends stop waiting.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		return nil, c.ensure(shared, res, tokens, overwrite)
	})

	select {
	case <-ctx.Done():
		return "", WrapWalletAPIError(ctx.Err(), "interrupted while communicating with the wallet provider")
	case result := <-ch:
		if result.Err != nil {
			return "", result.Err
		}
		return res.ResourceID(), nil
	}
}

func (c *Client) ensure(ctx context.Context, res Resource, tokens TokenProvider, overwrite bool) error {
	kind := string(res.Kind())
	logger := c.logger.With(slog.String("kind", kind), slog.String("id", res.ResourceID()))

	collection, err := c.collectionURL(res.Kind())
	if err != nil {
		return err
	}
	resourceURL := collection + "/" + url.PathEscape(res.ResourceID())

	tok, err := tokens.Token(ctx)
	if err != nil {
		metrics.UpsertsTotal.WithLabelValues(kind, metrics.OutcomeError).Inc()
		return err
	}

	status, body, err := c.do(ctx, res.Kind(), http.MethodGet, resourceURL, tok, nil)
	if err != nil {
		metrics.UpsertsTotal.WithLabelValues(kind, metrics.OutcomeError).Inc()
		return err
	}

	if status != http.StatusNotFound {
		if status < 200 || status > 299 {
			// any answer other than 404 means the resource is there (or the provider cannot tell us otherwise)
			logger.Warn("unexpected lookup response, assuming the resource exists",
				slog.Int("status", status),
				slog.String("body", truncate(body)),
			)
		}
		logger.Debug("resource exists", slog.Int("status", status))
		metrics.UpsertsTotal.WithLabelValues(kind, metrics.OutcomeExisting).Inc()
		return nil
	}

	payload, err := res.Body()
	if err != nil {
		metrics.UpsertsTotal.WithLabelValues(kind, metrics.OutcomeError).Inc()
		return err
	}

	method, target := http.MethodPost, collection
	if overwrite {
		method, target = http.MethodPut, resourceURL
	}

	// every provider call gets a token of its own (a cached one when token caching is on)
	tok, err = tokens.Token(ctx)
	if err != nil {
		metrics.UpsertsTotal.WithLabelValues(kind, metrics.OutcomeError).Inc()
		return err
	}

	logger.Debug("creating resource", slog.String("method", method), slog.String("payload", crypto.FingerprintHex(payload)))
	status, body, err = c.do(ctx, res.Kind(), method, target, tok, payload)
	if err != nil {
		metrics.UpsertsTotal.WithLabelValues(kind, metrics.OutcomeError).Inc()
		return err
	}

	switch {
	case status >= 200 && status <= 299:
		logger.Info("resource created", slog.String("method", method), slog.Int("status", status))
		metrics.UpsertsTotal.WithLabelValues(kind, metrics.OutcomeCreated).Inc()
		return nil
	case status == http.StatusConflict:
		logger.Info("resource created concurrently", slog.String("method", method))
		metrics.UpsertsTotal.WithLabelValues(kind, metrics.OutcomeConflict).Inc()
		return nil
	default:
		metrics.UpsertsTotal.WithLabelValues(kind, metrics.OutcomeError).Inc()
		return NewWalletAPIError(fmt.Sprintf("%s %s failed with status %d: %s", method, kind, status, truncate(body)))
	}
}

// do sends a request to the provider and returns the status and the (limited) response body
func (c *Client) do(ctx context.Context, kind ResourceKind, method, target string, tok *oauth2.Token, payload []byte) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return 0, nil, WrapInternalError(err, "failed to create wallet provider request")
	}
	tok.SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ProviderRequestDuration.WithLabelValues(string(kind), method).Observe(time.Since(start).Seconds())
	if err != nil {
		return 0, nil, WrapWalletAPIError(err, "error while communicating with the wallet provider")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return 0, nil, WrapWalletAPIError(err, "failed to read wallet provider response")
	}

	c.logger.Debug("wallet provider request",
		slog.String("method", method),
		slog.String("url", target),
		slog.Int("status", resp.StatusCode),
	)
	return resp.StatusCode, body, nil
}

func truncate(body []byte) string {
	if len(body) <= maxErrorBodyBytes {
		return string(body)
	}
	return string(body[:maxErrorBodyBytes]) + "..."
}
