package keycloak_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-taskboard/backend/internal/config"
	"go-taskboard/backend/internal/keycloak"
	"go-taskboard/backend/internal/models"
)

// fakeIdP は受け取ったフォームを記録するトークンエンドポイントです。
type fakeIdP struct {
	mu     sync.Mutex
	forms  []url.Values
	status int
	body   interface{}
}

func (f *fakeIdP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/x-www-form-urlencoded" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.forms = append(f.forms, r.PostForm)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.status)
	if f.body != nil {
		_ = json.NewEncoder(w).Encode(f.body)
	}
}

func (f *fakeIdP) lastForm(t *testing.T) url.Values {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.forms)
	return f.forms[len(f.forms)-1]
}

func newClient(t *testing.T, idp *fakeIdP, clientSecret string) *keycloak.Client {
	t.Helper()
	srv := httptest.NewServer(idp)
	t.Cleanup(srv.Close)
	return keycloak.NewClient(config.KeycloakConfig{
		AuthServerURL:   srv.URL + "/token",
		LogoutServerURL: srv.URL + "/logout",
		ClientID:        "todo-app",
		ClientSecret:    clientSecret,
	})
}

func TestPasswordGrant(t *testing.T) {
	idp := &fakeIdP{status: http.StatusOK, body: models.TokenResponse{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresIn:    300,
		TokenType:    "Bearer",
	}}
	client := newClient(t, idp, "s3cr3t")

	token, err := client.PasswordGrant(context.Background(), "alice", "wonderland")
	require.NoError(t, err)
	assert.Equal(t, "access", token.AccessToken)
	assert.Equal(t, "refresh", token.RefreshToken)

	form := idp.lastForm(t)
	assert.Equal(t, "todo-app", form.Get("client_id"))
	assert.Equal(t, "s3cr3t", form.Get("client_secret"))
	assert.Equal(t, "alice", form.Get("username"))
	assert.Equal(t, "wonderland", form.Get("password"))
	assert.Equal(t, "password", form.Get("grant_type"))
}

func TestRefreshGrant_OmitsEmptyFields(t *testing.T) {
	idp := &fakeIdP{status: http.StatusOK, body: models.TokenResponse{AccessToken: "a2", RefreshToken: "r2"}}
	client := newClient(t, idp, "")

	token, err := client.RefreshGrant(context.Background(), "refresh-token-1")
	require.NoError(t, err)
	assert.Equal(t, "a2", token.AccessToken)

	form := idp.lastForm(t)
	assert.Equal(t, "refresh_token", form.Get("grant_type"))
	assert.Equal(t, "refresh-token-1", form.Get("refresh_token"))
	_, hasSecret := form["client_secret"]
	assert.False(t, hasSecret, "empty client_secret must not be sent")
	_, hasUsername := form["username"]
	assert.False(t, hasUsername)
}

func TestLogout(t *testing.T) {
	idp := &fakeIdP{status: http.StatusNoContent}
	client := newClient(t, idp, "s3cr3t")

	require.NoError(t, client.Logout(context.Background(), "refresh-token-1"))
	assert.Equal(t, "refresh-token-1", idp.lastForm(t).Get("refresh_token"))
}

func TestUpstreamFailures(t *testing.T) {
	for name, idp := range map[string]*fakeIdP{
		"unauthorized":    {status: http.StatusUnauthorized, body: map[string]string{"error": "invalid_grant"}},
		"server error":    {status: http.StatusInternalServerError},
		"no access token": {status: http.StatusOK, body: map[string]string{"refresh_token": "r"}},
	} {
		t.Run(name, func(t *testing.T) {
			client := newClient(t, idp, "s3cr3t")
			_, err := client.PasswordGrant(context.Background(), "alice", "wrong")
			assert.ErrorIs(t, err, keycloak.ErrUpstream)
		})
	}
}

func TestUnreachableOrUnconfigured(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	client := keycloak.NewClient(config.KeycloakConfig{AuthServerURL: addr + "/token"})
	_, err := client.RefreshGrant(context.Background(), "refresh-token-1")
	assert.ErrorIs(t, err, keycloak.ErrUpstream)

	err = client.Logout(context.Background(), "refresh-token-1")
	assert.ErrorIs(t, err, keycloak.ErrUpstream, "missing logout url")
}
