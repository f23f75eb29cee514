package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"analytics-gateway/config"

	"golang.org/x/oauth2"
)

// AccessGrant is what the platform returns for an authorization code.
type AccessGrant struct {
	AccessToken string
	Scope       string
}

// OAuthProvider is the platform side of the install handshake.
type OAuthProvider interface {
	AuthorizeURL(shop, state string) string
	Exchange(ctx context.Context, shop, code string) (*AccessGrant, error)
}

// ExchangeError carries a non-2xx answer of the token endpoint.
type ExchangeError struct {
	StatusCode int
	Body       string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("token endpoint returned %d", e.StatusCode)
}

// EndpointResolver maps a shop domain to its OAuth endpoints.
type EndpointResolver func(shop string) oauth2.Endpoint

// ShopEndpoint is the per-shop admin OAuth endpoint.
func ShopEndpoint(shop string) oauth2.Endpoint {
	base := "https://" + shop + "/admin/oauth"
	return oauth2.Endpoint{
		AuthURL:   base + "/authorize",
		TokenURL:  base + "/access_token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

// ShopifyOAuth implements OAuthProvider with golang.org/x/oauth2.
type ShopifyOAuth struct {
	clientID     string
	clientSecret string
	redirectURI  string
	scope        string
	client       *http.Client
	endpoint     EndpointResolver
}

var _ OAuthProvider = (*ShopifyOAuth)(nil)

type ShopifyOption func(*ShopifyOAuth)

// WithEndpointResolver overrides where tokens are exchanged.
func WithEndpointResolver(r EndpointResolver) ShopifyOption {
	return func(s *ShopifyOAuth) { s.endpoint = r }
}

func WithHTTPClient(c *http.Client) ShopifyOption {
	return func(s *ShopifyOAuth) { s.client = c }
}

func NewShopifyOAuth(cfg config.Shopify, timeout time.Duration, opts ...ShopifyOption) *ShopifyOAuth {
	s := &ShopifyOAuth{
		clientID:     cfg.APIKey,
		clientSecret: cfg.APISecret,
		redirectURI:  cfg.RedirectURI,
		// the platform expects a comma separated scope list
		scope:    strings.Join(cfg.Scopes, ","),
		client:   &http.Client{Timeout: timeout},
		endpoint: ShopEndpoint,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ShopifyOAuth) oauthConfig(shop string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint:     s.endpoint(shop),
		RedirectURL:  s.redirectURI,
		Scopes:       []string{s.scope},
	}
}

func (s *ShopifyOAuth) AuthorizeURL(shop, state string) string {
	return s.oauthConfig(shop).AuthCodeURL(state)
}

// Exchange posts client_id, client_secret and code to the shop's token
// endpoint.
func (s *ShopifyOAuth) Exchange(ctx context.Context, shop, code string) (*AccessGrant, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.client)

	tok, err := s.oauthConfig(shop).Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			status := 0
			if re.Response != nil {
				status = re.Response.StatusCode
			}
			return nil, &ExchangeError{StatusCode: status, Body: string(re.Body)}
		}
		return nil, fmt.Errorf("token exchange: %w", err)
	}

	scope, _ := tok.Extra("scope").(string)
	return &AccessGrant{AccessToken: tok.AccessToken, Scope: scope}, nil
}
