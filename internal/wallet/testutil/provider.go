// Package testutil provides an in-memory wallet provider for tests.
//
// The Provider serves the pass class and object collections, an OAuth token endpoint and a service account
// JWKS endpoint from a single httptest server and records every request it receives.
package testutil

import (
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/information-sharing-networks/walletpass/internal/crypto"
)

const (
	ClassPath  = "/walletobjects/v1/eventTicketClass"
	ObjectPath = "/walletobjects/v1/eventTicketObject"
	TokenPath  = "/token"
	JWKSPath   = "/service_accounts/v1/jwk/"

	ClientEmail = "wallet@test-project.iam.gserviceaccount.com"
	KeyID       = "test-key-1"
)

// Request is a request received by the provider
type Request struct {
	Method        string
	Path          string
	Authorization string
	Body          []byte
}

// Provider is a fake wallet provider
type Provider struct {
	Server     *httptest.Server
	PrivateKey *rsa.PrivateKey

	mu       sync.Mutex
	requests []Request
	existing map[string][]byte
	tokens   int

	// LookupStatus, when set, is returned for every GET instead of 200/404
	LookupStatus int

	// CreateStatus, when set, is returned for every POST/PUT instead of 200
	CreateStatus int

	// TokenStatus, when set, is returned by the token endpoint instead of a token
	TokenStatus int

	// BeforeLookup, when set, is called at the start of every GET (e.g. to hold a lookup in flight).
	// Set it before the first request.
	BeforeLookup func()
}

// NewProvider starts a provider. It is closed when the test ends.
func NewProvider(t *testing.T) *Provider {
	t.Helper()

	key, err := crypto.GenerateRSAKeyPair(2048)
	if err != nil {
		t.Fatalf("failed to generate service account key: %v", err)
	}

	p := &Provider{
		PrivateKey: key,
		existing:   make(map[string][]byte),
	}
	p.Server = httptest.NewServer(http.HandlerFunc(p.serveHTTP))
	t.Cleanup(p.Server.Close)
	return p
}

func (p *Provider) ClassURL() string  { return p.Server.URL + ClassPath }
func (p *Provider) ObjectURL() string { return p.Server.URL + ObjectPath }
func (p *Provider) TokenURL() string  { return p.Server.URL + TokenPath }

// JWKSURLTemplate is the template of the service account keys endpoint
func (p *Provider) JWKSURLTemplate() string { return p.Server.URL + JWKSPath + "{email}" }

// ServiceAccountKey returns a service account key file for the provider's key and token endpoint
func (p *Provider) ServiceAccountKey(t *testing.T) string {
	t.Helper()

	pemBytes, err := crypto.EncodeRSAPrivateKeyToPEM(p.PrivateKey)
	if err != nil {
		t.Fatalf("failed to encode service account key: %v", err)
	}

	data, err := json.Marshal(map[string]string{
		"type":           "service_account",
		"project_id":     "test-project",
		"private_key_id": KeyID,
		"private_key":    string(pemBytes),
		"client_email":   ClientEmail,
		"client_id":      "1234567890",
		"token_uri":      p.TokenURL(),
	})
	if err != nil {
		t.Fatalf("failed to marshal service account key: %v", err)
	}
	return string(data)
}

// Seed marks a resource as existing. path is ClassPath or ObjectPath.
func (p *Provider) Seed(path, id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.existing[path+"/"+id] = []byte(`{}`)
}

// Exists reports whether a resource was created
func (p *Provider) Exists(path, id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.existing[path+"/"+id]
	return ok
}

// Stored returns the body a resource was created with
func (p *Provider) Stored(path, id string) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.existing[path+"/"+id]
}

// Requests returns the collection requests received so far (token and key requests are not included)
func (p *Provider) Requests() []Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Request(nil), p.requests...)
}

// Reset forgets the recorded requests
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = nil
}

// TokenRequests returns the number of requests to the token endpoint
func (p *Provider) TokenRequests() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tokens
}

// Calls summarizes the recorded requests as "METHOD path" strings
func (p *Provider) Calls() []string {
	var calls []string
	for _, r := range p.Requests() {
		calls = append(calls, r.Method+" "+r.Path)
	}
	return calls
}

func (p *Provider) serveHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == TokenPath:
		p.serveToken(w, r)
	case strings.HasPrefix(r.URL.Path, JWKSPath):
		p.serveJWKS(w)
	case strings.HasPrefix(r.URL.Path, ClassPath), strings.HasPrefix(r.URL.Path, ObjectPath):
		p.serveCollection(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (p *Provider) serveToken(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()

	p.mu.Lock()
	p.tokens++
	n := p.tokens
	status := p.TokenStatus
	p.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, `{"error":"invalid_grant","error_description":"Invalid JWT Signature."}`)
		return
	}
	if r.PostForm.Get("assertion") == "" {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"invalid_request"}`)
		return
	}
	_, _ = fmt.Fprintf(w, `{"access_token":"token-%d","token_type":"Bearer","expires_in":3600}`, n)
}

func (p *Provider) serveJWKS(w http.ResponseWriter) {
	set, err := crypto.PublicKeySet(p.PrivateKey, KeyID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(set)
}

func (p *Provider) serveCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet && p.BeforeLookup != nil {
		p.BeforeLookup()
	}
	body, _ := io.ReadAll(r.Body)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.requests = append(p.requests, Request{
		Method:        r.Method,
		Path:          r.URL.Path,
		Authorization: r.Header.Get("Authorization"),
		Body:          body,
	})

	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodGet:
		if p.LookupStatus != 0 {
			w.WriteHeader(p.LookupStatus)
			_, _ = io.WriteString(w, `{"error":{"message":"lookup status override"}}`)
			return
		}
		stored, ok := p.existing[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":{"code":404,"message":"resource not found"}}`)
			return
		}
		_, _ = w.Write(stored)

	case http.MethodPost, http.MethodPut:
		if p.CreateStatus != 0 {
			w.WriteHeader(p.CreateStatus)
			_, _ = io.WriteString(w, `{"error":{"message":"create status override"}}`)
			return
		}
		var resource struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(body, &resource); err != nil || resource.ID == "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":{"code":400,"message":"invalid resource"}}`)
			return
		}
		collection := ClassPath
		if strings.HasPrefix(r.URL.Path, ObjectPath) {
			collection = ObjectPath
		}
		key := collection + "/" + resource.ID
		if _, ok := p.existing[key]; ok && r.Method == http.MethodPost {
			w.WriteHeader(http.StatusConflict)
			_, _ = io.WriteString(w, `{"error":{"code":409,"message":"resource already exists"}}`)
			return
		}
		p.existing[key] = body
		_, _ = w.Write(body)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
