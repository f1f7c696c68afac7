package endpoint

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jonwraymond/tokenops/client"
	"github.com/jonwraymond/tokenops/grant"
	"github.com/jonwraymond/tokenops/observe"
	"github.com/jonwraymond/tokenops/persist"
	"github.com/jonwraymond/tokenops/token"
)

const (
	confidentialID     = "app"
	confidentialSecret = "s3cret"
	publicID           = "spa"
	limitedID          = "limited"
	redirectURI        = "https://app.example.com/cb"
	tokenURL           = "https://auth.example.com/token"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type harness struct {
	t         *testing.T
	clock     *testClock
	clients   *client.MemoryStorage
	access    *token.MemoryStorage
	refresh   *token.MemoryStorage
	codes     *persist.MemoryStore
	passwords *MemoryPasswordManager
	registry  *token.Registry
	tr        *TokenResource
}

func newHarness(t *testing.T, mutate func(*Config)) *harness {
	t.Helper()

	clock := &testClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	h := &harness{
		t:         t,
		clock:     clock,
		clients:   client.NewMemoryStorage(client.WithBcryptCost(bcrypt.MinCost)),
		access:    token.NewMemoryStorage(token.WithClock(clock.Now)),
		refresh:   token.NewMemoryStorage(token.WithClock(clock.Now)),
		codes:     persist.NewMemoryStore(persist.WithClock(clock.Now)),
		passwords: NewMemoryPasswordManager(bcrypt.MinCost),
		registry:  token.NewRegistry(observe.NopLogger()),
	}

	all := []grant.Type{grant.AuthorizationCode, grant.Implicit, grant.Password, grant.ClientCredentials, grant.RefreshToken, "urn:example:assertion"}
	mustAdd(t, h.clients.AddWithSecret(&client.Client{
		ID:           confidentialID,
		RedirectURIs: []string{redirectURI},
		GrantTypes:   all,
	}, confidentialSecret))
	mustAdd(t, h.clients.Add(&client.Client{
		ID:           publicID,
		Public:       true,
		RedirectURIs: []string{redirectURI, "https://app.example.com/other"},
		GrantTypes:   []grant.Type{grant.AuthorizationCode, grant.Implicit, grant.RefreshToken},
	}))
	mustAdd(t, h.clients.AddWithSecret(&client.Client{
		ID:         limitedID,
		GrantTypes: []grant.Type{grant.ClientCredentials},
	}, confidentialSecret))
	mustAdd(t, h.passwords.Add("alice", "wonderland"))

	cfg := Config{
		TokenFactory:        token.NewUUIDFactory(),
		AccessTokenStorage:  h.access,
		RefreshTokenStorage: h.refresh,
		CodeStore:           h.codes,
		ClientStorage:       h.clients,
		PasswordManager:     h.passwords,
		Registry:            h.registry,
		Now:                 clock.Now,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	tr, err := NewTokenResource(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewTokenResource() error = %v", err)
	}
	h.tr = tr
	return h
}

func mustAdd(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
}

// post sends a form to the token endpoint authenticated with Basic auth
// when id is set.
func (h *harness) post(form url.Values, id, secret string) *httptest.ResponseRecorder {
	h.t.Helper()
	req := httptest.NewRequest(http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", formContentType)
	if id != "" {
		req.SetBasicAuth(id, secret)
	}
	rec := httptest.NewRecorder()
	h.tr.ServeHTTP(rec, req)
	return rec
}

func decodeToken(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, name string) errorBody {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d; body = %s", rec.Code, status, rec.Body.String())
	}
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, rec.Body.String())
	}
	if body.Error != name {
		t.Fatalf("error = %q, want %q (%s)", body.Error, name, body.ErrorDescription)
	}
	return body
}
