package wallet

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/oauth2"

	"github.com/information-sharing-networks/walletpass/internal/metrics"
	"github.com/information-sharing-networks/walletpass/internal/wallet/testutil"
)

// staticToken hands out a fixed bearer token
type staticToken string

func (s staticToken) Token(context.Context) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: string(s), TokenType: "Bearer"}, nil
}

func newTestClient(provider *testutil.Provider) *Client {
	return NewClient(ClientConfig{
		ClassURL:   provider.ClassURL(),
		ObjectURL:  provider.ObjectURL(),
		HTTPClient: provider.Server.Client(),
	})
}

func testPassClass(t *testing.T) PassClass {
	t.Helper()
	builder := PassBuilder{IssuerID: "iss1", Profile: ProfileDev, BaseURL: "https://tickets.example.org"}
	class, err := builder.Class(testEvent(), testCategory(), "en", "")
	if err != nil {
		t.Fatalf("Class() error: %v", err)
	}
	return class
}

func TestEnsureIsIdempotent(t *testing.T) {
	provider := testutil.NewProvider(t)
	client := newTestClient(provider)
	class := testPassClass(t)

	created := metrics.UpsertsTotal.WithLabelValues(string(KindClass), metrics.OutcomeCreated)
	existing := metrics.UpsertsTotal.WithLabelValues(string(KindClass), metrics.OutcomeExisting)
	createdBefore, existingBefore := promtestutil.ToFloat64(created), promtestutil.ToFloat64(existing)

	for i := 0; i < 2; i++ {
		id, err := client.Ensure(context.Background(), class, staticToken("t"), false)
		if err != nil {
			t.Fatalf("Ensure() call %d error: %v", i+1, err)
		}
		if id != class.ID {
			t.Errorf("Ensure() returned %q, want %q", id, class.ID)
		}
	}

	want := []string{
		"GET " + testutil.ClassPath + "/" + class.ID,
		"POST " + testutil.ClassPath,
		"GET " + testutil.ClassPath + "/" + class.ID,
	}
	if got := provider.Calls(); !slices.Equal(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}

	if d := promtestutil.ToFloat64(created) - createdBefore; d != 1 {
		t.Errorf("created upserts increased by %v, want 1", d)
	}
	if d := promtestutil.ToFloat64(existing) - existingBefore; d != 1 {
		t.Errorf("existing upserts increased by %v, want 1", d)
	}

	for _, r := range provider.Requests() {
		if r.Authorization != "Bearer t" {
			t.Errorf("%s %s sent without bearer token: %q", r.Method, r.Path, r.Authorization)
		}
	}
}

func TestEnsureOverwriteToggle(t *testing.T) {
	tests := []struct {
		name      string
		overwrite bool
		wantWrite string
	}{
		{"overwrite replaces by id", true, "PUT " + testutil.ClassPath + "/iss1.dev-class-42"},
		{"no overwrite creates in the collection", false, "POST " + testutil.ClassPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := testutil.NewProvider(t)
			class := testPassClass(t)

			if _, err := newTestClient(provider).Ensure(context.Background(), class, staticToken("t"), tt.overwrite); err != nil {
				t.Fatalf("Ensure() error: %v", err)
			}

			calls := provider.Calls()
			if len(calls) != 2 || calls[1] != tt.wantWrite {
				t.Fatalf("calls = %v, want write %q", calls, tt.wantWrite)
			}

			want, err := class.Body()
			if err != nil {
				t.Fatalf("Body() error: %v", err)
			}
			if got := provider.Requests()[1].Body; string(got) != string(want) {
				t.Errorf("write body = %s, want %s", got, want)
			}
			if !provider.Exists(testutil.ClassPath, class.ID) {
				t.Errorf("expected the class to be created")
			}
		})
	}
}

func TestEnsureResponses(t *testing.T) {
	tests := []struct {
		name         string
		lookupStatus int
		createStatus int
		wantCalls    int
		wantCode     ErrorCode
	}{
		{"unexpected lookup status is treated as existing", http.StatusForbidden, 0, 1, ""},
		{"conflict on create is success", 0, http.StatusConflict, 2, ""},
		{"server error on create", 0, http.StatusInternalServerError, 2, ErrCodeWalletAPI},
		{"bad request on create", 0, http.StatusBadRequest, 2, ErrCodeWalletAPI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := testutil.NewProvider(t)
			provider.LookupStatus = tt.lookupStatus
			provider.CreateStatus = tt.createStatus
			class := testPassClass(t)

			_, err := newTestClient(provider).Ensure(context.Background(), class, staticToken("t"), false)
			if tt.wantCode == "" && err != nil {
				t.Fatalf("Ensure() error: %v", err)
			}
			if tt.wantCode != "" {
				if CodeOf(err) != tt.wantCode {
					t.Fatalf("expected %q, got %v", tt.wantCode, err)
				}
				if !strings.Contains(err.Error(), "create status override") {
					t.Errorf("expected the provider response in the error, got %q", err.Error())
				}
			}

			if got := len(provider.Calls()); got != tt.wantCalls {
				t.Errorf("got %d calls, want %d: %v", got, tt.wantCalls, provider.Calls())
			}
		})
	}
}

func TestEnsureTransportFailure(t *testing.T) {
	provider := testutil.NewProvider(t)
	client := newTestClient(provider)
	provider.Server.Close()

	_, err := client.Ensure(context.Background(), testPassClass(t), staticToken("t"), false)
	if CodeOf(err) != ErrCodeWalletAPI {
		t.Errorf("expected %q, got %v", ErrCodeWalletAPI, err)
	}
}

func TestEnsureCancelled(t *testing.T) {
	provider := testutil.NewProvider(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(provider).Ensure(ctx, testPassClass(t), staticToken("t"), false)
	if CodeOf(err) != ErrCodeWalletAPI {
		t.Fatalf("expected %q, got %v", ErrCodeWalletAPI, err)
	}
	if provider.Exists(testutil.ClassPath, "iss1.dev-class-42") {
		t.Errorf("expected nothing to be created")
	}
}

func TestEnsureTokenError(t *testing.T) {
	provider := testutil.NewProvider(t)

	_, err := newTestClient(provider).Ensure(context.Background(), testPassClass(t), failingToken{}, false)
	if CodeOf(err) != ErrCodeCredential {
		t.Errorf("expected %q, got %v", ErrCodeCredential, err)
	}
	if len(provider.Calls()) != 0 {
		t.Errorf("expected no provider calls, got %v", provider.Calls())
	}
}

type failingToken struct{}

func (failingToken) Token(context.Context) (*oauth2.Token, error) {
	return nil, NewCredentialError("rejected")
}

// concurrent first-time ensures of the same class create it once
func TestEnsureConcurrent(t *testing.T) {
	provider := testutil.NewProvider(t)
	client := newTestClient(provider)
	class := testPassClass(t)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Ensure(context.Background(), class, staticToken("t"), false)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Ensure() error: %v", err)
		}
	}

	// callers arriving after the shared call finished see the class and only look it up
	creates := 0
	for _, c := range provider.Calls() {
		if strings.HasPrefix(c, "POST") {
			creates++
		}
	}
	if creates > 1 {
		t.Errorf("class created %d times: %v", creates, provider.Calls())
	}
}

// a caller that gives up does not fail the callers that joined its ensure
func TestEnsureSharedCallOutlivesCaller(t *testing.T) {
	provider := testutil.NewProvider(t)
	client := newTestClient(provider)
	class := testPassClass(t)

	started := make(chan struct{}, 1)
	release := make(chan struct{})
	var releaseOnce sync.Once
	provider.BeforeLookup = func() {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
	}
	// the provider cannot shut down while a lookup is held
	t.Cleanup(func() { releaseOnce.Do(func() { close(release) }) })

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()

	errA := make(chan error, 1)
	go func() {
		_, err := client.Ensure(ctxA, class, staticToken("t"), false)
		errA <- err
	}()
	<-started

	errB := make(chan error, 1)
	go func() {
		_, err := client.Ensure(context.Background(), class, staticToken("t"), false)
		errB <- err
	}()
	// give the second caller time to join the lookup in flight
	time.Sleep(50 * time.Millisecond)

	cancelA()
	if err := <-errA; CodeOf(err) != ErrCodeWalletAPI {
		t.Errorf("cancelled caller: expected %q, got %v", ErrCodeWalletAPI, err)
	}

	releaseOnce.Do(func() { close(release) })
	if err := <-errB; err != nil {
		t.Fatalf("live caller: Ensure() error: %v", err)
	}

	want := []string{
		"GET " + testutil.ClassPath + "/" + class.ID,
		"POST " + testutil.ClassPath,
	}
	if got := provider.Calls(); !slices.Equal(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
	if !provider.Exists(testutil.ClassPath, class.ID) {
		t.Error("expected the class to be created")
	}
}

// countingToken hands out a new token for every call
type countingToken struct {
	mu    sync.Mutex
	calls int
}

func (c *countingToken) Token(context.Context) (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return &oauth2.Token{AccessToken: fmt.Sprintf("t%d", c.calls), TokenType: "Bearer"}, nil
}

func TestEnsureTokenPerRequest(t *testing.T) {
	tests := []struct {
		name       string
		seed       bool
		wantTokens int
		wantAuth   []string
	}{
		{"lookup and create", false, 2, []string{"Bearer t1", "Bearer t2"}},
		{"lookup only", true, 1, []string{"Bearer t1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := testutil.NewProvider(t)
			class := testPassClass(t)
			if tt.seed {
				provider.Seed(testutil.ClassPath, class.ID)
			}

			tokens := &countingToken{}
			if _, err := newTestClient(provider).Ensure(context.Background(), class, tokens, false); err != nil {
				t.Fatalf("Ensure() error: %v", err)
			}

			if tokens.calls != tt.wantTokens {
				t.Errorf("token requested %d times, want %d", tokens.calls, tt.wantTokens)
			}
			var auth []string
			for _, r := range provider.Requests() {
				auth = append(auth, r.Authorization)
			}
			if !slices.Equal(auth, tt.wantAuth) {
				t.Errorf("authorization headers = %v, want %v", auth, tt.wantAuth)
			}
		})
	}
}
