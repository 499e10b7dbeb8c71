package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ledgerline/finance-services/api/middleware"
	"github.com/ledgerline/finance-services/internal/appconfig"
	"github.com/ledgerline/finance-services/internal/authn"
	"github.com/ledgerline/finance-services/internal/authz"
	"github.com/ledgerline/finance-services/internal/membership"
	"github.com/stretchr/testify/assert"
)

var testAlice = authn.Principal{
	ID:       "8a4fbc3e-4f2a-41cf-9fe1-3d3dc62e0001",
	Username: "alice",
	Email:    "alice@example.com",
	Role:     "regular",
}

var testAdmin = authn.Principal{
	ID:       "8a4fbc3e-4f2a-41cf-9fe1-3d3dc62e0002",
	Username: "root",
	Email:    "root@example.com",
	Role:     "admin",
}

func newTestService(t *testing.T, store *MockStore) (*Service, *MockNotifier) {
	t.Helper()

	codec := authn.NewCodec([]byte("test-secret"), 15*time.Minute, 7*24*time.Hour)
	publisher := &MockNotifier{}

	cfg := &appconfig.Config{}
	cfg.Auth.AccessCookieName = "accessToken"
	cfg.Auth.RefreshCookieName = "refreshToken"
	cfg.Auth.RefreshTTLHours = 168

	return &Service{
		Config:     cfg,
		DB:         store,
		Codec:      codec,
		Verifier:   authz.NewVerifier(codec),
		Reconciler: membership.NewReconciler(store),
		Publisher:  publisher,
	}, publisher
}

func jsonBody(t *testing.T, payload interface{}) io.Reader {
	t.Helper()
	raw, err := json.Marshal(payload)
	assert.NoError(t, err)
	return bytes.NewReader(raw)
}

// authedRequest builds a request carrying a fresh token pair for the
// principal, the way TokenMiddleware would populate the context.
func authedRequest(t *testing.T, svc *Service, method, target string, p authn.Principal, body io.Reader) *http.Request {
	t.Helper()

	access, err := svc.Codec.EncodeAccess(p)
	assert.NoError(t, err)
	refresh, err := svc.Codec.EncodeRefresh(p)
	assert.NoError(t, err)

	req := httptest.NewRequest(method, target, body)
	ctx := context.WithValue(req.Context(), middleware.AccessTokenKey, access)
	ctx = context.WithValue(ctx, middleware.RefreshTokenKey, refresh)
	return req.WithContext(ctx)
}

// withAccessToken swaps the access credential in place, keeping whatever
// refresh token the context already carries.
func withAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, middleware.AccessTokenKey, token)
}

// anonRequest builds a request with no credentials in the context.
func anonRequest(t *testing.T, method, target string, body io.Reader) *http.Request {
	t.Helper()

	req := httptest.NewRequest(method, target, body)
	ctx := context.WithValue(req.Context(), middleware.AccessTokenKey, "")
	ctx = context.WithValue(ctx, middleware.RefreshTokenKey, "")
	return req.WithContext(ctx)
}
