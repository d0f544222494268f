// Package kakao implements the OAuth client for Kakao's hosted endpoints:
// authorize URL construction, authorization-code exchange, and the minimal
// user-info fetch.
package kakao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"gomunity/internal/platform/config"
)

// ErrUpstream marks a rejection by Kakao itself (bad or reused code,
// provider downtime surfaced as an error payload). Callers translate it to a
// client error; the payload detail stays in logs.
var ErrUpstream = errors.New("kakao rejected the request")

// TokenResponse is Kakao's token endpoint response. Raw preserves the
// upstream body so the exchange proxy can relay it untouched.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// UserInfo is the minimal user record returned by /v2/user/me when no scopes
// were requested: the numeric identifier and connection timestamp only.
type UserInfo struct {
	ID          int64  `json:"id"`
	ConnectedAt string `json:"connected_at"`
}

// Client talks to Kakao's OAuth endpoints.
type Client struct {
	cfg  config.Kakao
	http *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New constructs a Client from the Kakao section of the config.
func New(cfg config.Kakao, opts ...Option) *Client {
	c := &Client{cfg: cfg, http: http.DefaultClient}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AuthorizeURL builds the authorization-request URL. The scope parameter is
// deliberately omitted so only the minimal identifier claim is requested.
func (c *Client) AuthorizeURL() string {
	params := url.Values{
		"client_id":     {c.cfg.ClientID},
		"redirect_uri":  {c.cfg.RedirectURI},
		"response_type": {"code"},
	}
	return c.cfg.AuthURL + "?" + params.Encode()
}

// ExchangeToken trades an authorization code for an access token using the
// confidential client credentials. One attempt only: Kakao invalidates the
// code after first use, so a silent retry could double-submit it.
func (c *Client) ExchangeToken(ctx context.Context, code, redirectURI string) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"redirect_uri":  {redirectURI},
		"code":          {code},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, string(body))
	}

	var tokenResp TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("parse token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("empty access token in response")
	}
	tokenResp.Raw = body

	return &tokenResp, nil
}

// FetchUser retrieves the minimal user record with a bearer access token.
func (c *Client) FetchUser(ctx context.Context, accessToken string) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.UserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create user info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user info request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read user info response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, string(body))
	}

	var info UserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("parse user info response: %w", err)
	}
	if info.ID == 0 {
		return nil, fmt.Errorf("empty user id in response")
	}

	return &info, nil
}
