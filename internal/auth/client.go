// Package auth exchanges OAuth authorization codes for verified
// {email, provider} claims against the configured identity providers.
package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/signet-works/signet/internal/logx"
)

// ErrUpstream indicates the provider rejected or failed the code exchange,
// or returned a token without a usable email claim. Never retried; the
// enclosing login request fails.
var ErrUpstream = errors.New("upstream auth exchange failed")

const defaultTimeout = 10 * time.Second

// Claim is a verified federated identity: which email logged in, with
// which provider.
type Claim struct {
	Email    string
	Provider string
}

// Config holds the OAuth client registration shared across providers and
// the per-provider token endpoints.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	// TokenURLs maps provider key -> token endpoint. The "google" provider
	// may map to an empty string, in which case the well-known Google
	// endpoint is used.
	TokenURLs map[string]string
	// Timeout bounds each exchange; the provider is a third-party service
	// beyond our control.
	Timeout time.Duration
}

// Client performs authorization-code exchanges. Construct with NewClient;
// a zero Client is not usable.
type Client struct {
	cfg Config

	successes atomic.Uint64
	failures  atomic.Uint64
}

// Metrics is a snapshot of exchange outcome counters for /status.json.
type Metrics struct {
	Successes uint64 `json:"successes"`
	Failures  uint64 `json:"failures"`
}

// NewClient validates cfg and returns a ready-to-use Client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("auth client id is required")
	}
	if cfg.ClientSecret == "" {
		return nil, errors.New("auth client secret is required")
	}
	if cfg.RedirectURI == "" {
		return nil, errors.New("auth redirect uri is required")
	}
	if len(cfg.TokenURLs) == 0 {
		return nil, errors.New("at least one provider token endpoint is required")
	}
	for provider, url := range cfg.TokenURLs {
		if url == "" && provider != "google" {
			return nil, fmt.Errorf("token endpoint for provider %q is required", provider)
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{cfg: cfg}, nil
}

// Providers returns the configured provider keys.
func (c *Client) Providers() []string {
	out := make([]string, 0, len(c.cfg.TokenURLs))
	for p := range c.cfg.TokenURLs {
		out = append(out, p)
	}
	return out
}

// Exchange trades an authorization code for a verified claim. provider must
// be one of the configured keys (case-normalized by the caller).
func (c *Client) Exchange(ctx context.Context, provider, code string) (*Claim, error) {
	tokenURL, ok := c.cfg.TokenURLs[provider]
	if !ok {
		c.failures.Add(1)
		exchangeOutcomes.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("%w: unknown provider %q", ErrUpstream, provider)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	claim, err := c.exchange(ctx, provider, tokenURL, code)
	if err != nil {
		c.failures.Add(1)
		exchangeOutcomes.WithLabelValues("failure").Inc()
		return nil, err
	}
	c.successes.Add(1)
	exchangeOutcomes.WithLabelValues("success").Inc()
	return claim, nil
}

func (c *Client) exchange(ctx context.Context, provider, tokenURL, code string) (*Claim, error) {
	endpoint := oauth2.Endpoint{TokenURL: tokenURL, AuthStyle: oauth2.AuthStyleInParams}
	if provider == "google" && tokenURL == "" {
		endpoint = google.Endpoint
	}

	conf := &oauth2.Config{
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  c.cfg.RedirectURI,
	}

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if provider == "google" && tokenURL == "" {
		return c.googleClaim(ctx, conf, token)
	}
	return idTokenClaim(provider, token)
}

// googleClaim resolves the email via the Google userinfo API instead of the
// id_token, matching how Google scopes its OpenID responses.
func (c *Client) googleClaim(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (*Claim, error) {
	httpClient := conf.Client(ctx, token)
	svc, err := goauth2.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("%w: create oauth2 service: %v", ErrUpstream, err)
	}
	userinfo, err := svc.Userinfo.Get().Do()
	if err != nil {
		return nil, fmt.Errorf("%w: get user info: %v", ErrUpstream, err)
	}
	if userinfo.Email == "" {
		return nil, fmt.Errorf("%w: no email in user info", ErrUpstream)
	}
	return &Claim{Email: userinfo.Email, Provider: "google"}, nil
}

// idTokenClaims is the subset of id_token payload fields we read. Azure AD
// B2C puts the address in "emails" and names the federated IdP in "idp".
type idTokenClaims struct {
	Emails []string `json:"emails"`
	Email  string   `json:"email"`
	IDP    string   `json:"idp"`
}

func idTokenClaim(provider string, token *oauth2.Token) (*Claim, error) {
	raw, _ := token.Extra("id_token").(string)
	if raw == "" {
		return nil, fmt.Errorf("%w: token response has no id_token", ErrUpstream)
	}

	claims, err := decodeIDToken(raw)
	if err != nil {
		logx.Debugf("auth: malformed id_token: %v", err)
		return nil, fmt.Errorf("%w: malformed id_token", ErrUpstream)
	}

	email := claims.Email
	if len(claims.Emails) > 0 {
		email = claims.Emails[0]
	}
	if email == "" {
		return nil, fmt.Errorf("%w: id_token has no email claim", ErrUpstream)
	}

	p := strings.ToLower(claims.IDP)
	if p == "" {
		p = provider
	}
	return &Claim{Email: email, Provider: p}, nil
}

// decodeIDToken extracts the claims payload of a JWT without verifying its
// signature. The token arrived over the provider's TLS token endpoint in
// direct response to our client-authenticated exchange, which is what
// vouches for it.
func decodeIDToken(raw string) (*idTokenClaims, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("expected 3 JWT segments, got %d", len(parts))
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	var claims idTokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("unmarshal claims: %w", err)
	}
	return &claims, nil
}

// Metrics returns running exchange outcome totals.
func (c *Client) Metrics() Metrics {
	return Metrics{Successes: c.successes.Load(), Failures: c.failures.Load()}
}
