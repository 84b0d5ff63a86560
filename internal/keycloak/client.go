// Package keycloak はIDプロバイダー (Keycloak互換のOpenID Connectサーバー) との
// トークン交換を行います。
package keycloak

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"go-taskboard/backend/internal/config"
	"go-taskboard/backend/internal/models"
)

// ErrUpstream はIDプロバイダーへのリクエストが失敗した場合のエラーです。
var ErrUpstream = errors.New("identity provider request failed")

const (
	grantTypePassword     = "password"
	grantTypeRefreshToken = "refresh_token"
)

// Client はトークンエンドポイントとログアウトエンドポイントのクライアントです。
type Client struct {
	cfg        config.KeycloakConfig
	httpClient *http.Client
}

// NewClient は新しいClientを作成します。
func NewClient(cfg config.KeycloakConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{cfg: cfg, httpClient: &http.Client{Timeout: timeout}}
}

// PasswordGrant はユーザー名とパスワードでトークンを取得します。
func (c *Client) PasswordGrant(ctx context.Context, username, password string) (*models.TokenResponse, error) {
	form := newForm().
		with("client_id", c.cfg.ClientID).
		with("client_secret", c.cfg.ClientSecret).
		with("username", username).
		with("password", password).
		with("grant_type", grantTypePassword)
	return c.requestToken(ctx, form)
}

// RefreshGrant はリフレッシュトークンで新しいトークンを取得します。
func (c *Client) RefreshGrant(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	form := newForm().
		with("client_id", c.cfg.ClientID).
		with("client_secret", c.cfg.ClientSecret).
		with("refresh_token", refreshToken).
		with("grant_type", grantTypeRefreshToken)
	return c.requestToken(ctx, form)
}

// Logout はリフレッシュトークンのセッションを終了します。
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	form := newForm().
		with("client_id", c.cfg.ClientID).
		with("client_secret", c.cfg.ClientSecret).
		with("refresh_token", refreshToken).
		with("grant_type", grantTypeRefreshToken)
	resp, err := c.post(ctx, c.cfg.LogoutServerURL, form)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) requestToken(ctx context.Context, form formBuilder) (*models.TokenResponse, error) {
	resp, err := c.post(ctx, c.cfg.AuthServerURL, form)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var token models.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("%w: decode token response: %v", ErrUpstream, err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response has no access_token", ErrUpstream)
	}
	return &token, nil
}

// post はフォームを送信し、2xx 以外を ErrUpstream として返します。
func (c *Client) post(ctx context.Context, endpoint string, form formBuilder) (*http.Response, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("%w: endpoint is not configured", ErrUpstream)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	log.Debug("posting to identity provider", "url", endpoint, "grant_type", form.values.Get("grant_type"))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		log.Warn("identity provider rejected request", "url", endpoint, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	return resp, nil
}

// formBuilder は空でない値だけをフォームに追加します。
type formBuilder struct {
	values url.Values
}

func newForm() formBuilder {
	return formBuilder{values: url.Values{}}
}

func (f formBuilder) with(key, value string) formBuilder {
	if value != "" {
		f.values.Set(key, value)
	}
	return f
}

func (f formBuilder) encode() string {
	return f.values.Encode()
}
