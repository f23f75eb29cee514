package services

import (
	"context"
	"errors"
	"strings"

	"analytics-gateway/config"
	"analytics-gateway/metrics"
	"analytics-gateway/models"
	"analytics-gateway/nonce"
	"analytics-gateway/signature"
	"analytics-gateway/utils"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate = validator.New()

// CredentialStore keeps the access token of each installed shop.
type CredentialStore interface {
	Upsert(ctx context.Context, domain, token, scope string) (*models.Shop, error)
	FindByDomain(ctx context.Context, domain string) (*models.Shop, error)
}

// CallbackParams is the platform's redirect back to the gateway.
// RawQuery must be the undecoded query string the signature was made over.
type CallbackParams struct {
	Shop      string
	Code      string
	Signature string
	State     string
	RawQuery  string
}

type InstallResult struct {
	Shop   string   `json:"shop"`
	Scopes []string `json:"scopes"`
}

// Installer drives the install redirect and the callback exchange.
type Installer struct {
	provider     OAuthProvider
	states       nonce.Store
	shops        CredentialStore
	secret       string
	domainSuffix string
	enforceState bool
	log          *zap.Logger
	metrics      *metrics.Recorder
}

func NewInstaller(cfg config.Config, provider OAuthProvider, states nonce.Store, shops CredentialStore, log *zap.Logger, rec *metrics.Recorder) *Installer {
	return &Installer{
		provider:     provider,
		states:       states,
		shops:        shops,
		secret:       cfg.Shopify.HMACSecret,
		domainSuffix: cfg.Shopify.DomainSuffix,
		enforceState: cfg.EnforceState,
		log:          log,
		metrics:      rec,
	}
}

// BeginInstall issues a fresh state for shop and returns the consent URL.
func (i *Installer) BeginInstall(ctx context.Context, shop string) (string, error) {
	shop = utils.NormalizeDomain(shop)
	if err := i.validateShop(shop); err != nil {
		return "", err
	}

	state, err := i.states.Issue(ctx, shop)
	if err != nil {
		i.log.Error("could not issue install state", zap.String("shop", shop), zap.Error(err))
		return "", PersistenceError("Could not start installation", err)
	}

	i.log.Info("install redirect issued", zap.String("shop", shop))
	return i.provider.AuthorizeURL(shop, state), nil
}

// HandleCallback verifies the callback, exchanges the code and stores the
// token. Nothing is exchanged or stored unless the signature verifies.
func (i *Installer) HandleCallback(ctx context.Context, p CallbackParams) (*InstallResult, error) {
	shop := utils.NormalizeDomain(p.Shop)

	if !signature.Verify(p.RawQuery, p.Signature, i.secret) {
		i.log.Error("oauth callback signature mismatch", zap.String("shop", shop))
		i.metrics.ObserveInstall("rejected_signature")
		return nil, AuthenticationError("HMAC validation failed")
	}

	if err := i.validateShop(shop); err != nil {
		i.metrics.ObserveInstall("rejected_validation")
		return nil, err
	}
	if strings.TrimSpace(p.Code) == "" {
		i.metrics.ObserveInstall("rejected_validation")
		return nil, ValidationError("Missing code parameter", nil)
	}

	if err := i.checkState(ctx, shop, p.State); err != nil {
		i.metrics.ObserveInstall("rejected_state")
		return nil, err
	}

	grant, err := i.provider.Exchange(ctx, shop, p.Code)
	if err != nil {
		i.log.Warn("token exchange failed", zap.String("shop", shop), zap.Error(err))
		i.metrics.ObserveInstall("exchange_failed")
		var xe *ExchangeError
		if errors.As(err, &xe) {
			return nil, UpstreamAuthorizationError("Failed to authorize", xe.Body, err)
		}
		return nil, UpstreamAuthorizationError("Failed to authorize", err.Error(), err)
	}

	// The token is already minted upstream; a failed write is reported, not rolled back.
	rec, err := i.shops.Upsert(ctx, shop, grant.AccessToken, grant.Scope)
	if err != nil {
		i.log.Error("could not store shop credentials", zap.String("shop", shop), zap.Error(err))
		i.metrics.ObserveInstall("store_failed")
		return nil, PersistenceError("Failed to store shop credentials", err)
	}

	i.log.Info("shop installed", zap.String("shop", rec.Domain), zap.Strings("scopes", rec.Scopes()))
	i.metrics.ObserveInstall("installed")
	return &InstallResult{Shop: rec.Domain, Scopes: rec.Scopes()}, nil
}

func (i *Installer) validateShop(shop string) error {
	if shop == "" {
		return ValidationError("Missing shop parameter", nil)
	}
	if err := validate.Var(shop, "fqdn"); err != nil {
		return ValidationError("Invalid shop parameter", shop)
	}
	if i.domainSuffix != "" && !strings.HasSuffix(shop, "."+i.domainSuffix) {
		return ValidationError("Invalid shop parameter", shop)
	}
	return nil
}

func (i *Installer) checkState(ctx context.Context, shop, state string) error {
	owner, err := i.states.Consume(ctx, state)
	if err == nil && owner == shop {
		return nil
	}

	if err != nil && !errors.Is(err, nonce.ErrStateNotFound) {
		if i.enforceState {
			i.log.Error("could not load install state", zap.String("shop", shop), zap.Error(err))
			return PersistenceError("Could not verify installation state", err)
		}
		i.log.Warn("could not load install state, continuing", zap.String("shop", shop), zap.Error(err))
		return nil
	}

	if !i.enforceState {
		i.log.Warn("oauth callback state not matched, continuing", zap.String("shop", shop))
		return nil
	}
	i.log.Error("oauth callback state mismatch", zap.String("shop", shop))
	return AuthenticationError("Invalid or expired state")
}
