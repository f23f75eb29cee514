package services

import (
	"context"
	"errors"
	"sync"

	"analytics-gateway/database"
	"analytics-gateway/models"
	"analytics-gateway/utils"
)

type fakeProvider struct {
	mu        sync.Mutex
	grant     *AccessGrant
	err       error
	exchanges int
}

func (p *fakeProvider) AuthorizeURL(shop, state string) string {
	return "https://" + shop + "/admin/oauth/authorize?state=" + state
}

func (p *fakeProvider) Exchange(_ context.Context, _, _ string) (*AccessGrant, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exchanges++
	if p.err != nil {
		return nil, p.err
	}
	return p.grant, nil
}

func (p *fakeProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exchanges
}

type fakeShops struct {
	mu      sync.Mutex
	shops   map[string]*models.Shop
	findErr error
	saveErr error
	upserts int
}

func newFakeShops() *fakeShops {
	return &fakeShops{shops: map[string]*models.Shop{}}
}

func (f *fakeShops) Upsert(_ context.Context, domain, token, scope string) (*models.Shop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	domain = utils.NormalizeDomain(domain)
	shop, ok := f.shops[domain]
	if !ok {
		shop = &models.Shop{ID: uint(len(f.shops) + 1), Domain: domain}
		f.shops[domain] = shop
	}
	shop.AccessToken = token
	if scope != "" {
		shop.Scope = scope
	}
	cp := *shop
	return &cp, nil
}

func (f *fakeShops) FindByDomain(_ context.Context, domain string) (*models.Shop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	shop, ok := f.shops[utils.NormalizeDomain(domain)]
	if !ok {
		return nil, database.ErrShopNotFound
	}
	cp := *shop
	return &cp, nil
}

func (f *fakeShops) upsertCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.upserts
}

type fakeForwarder struct {
	outcome Outcome
	gotID   string
	gotQ    string
	gotTok  string
	calls   int
}

func (f *fakeForwarder) Ask(_ context.Context, storeID, question, token string) Outcome {
	f.calls++
	f.gotID, f.gotQ, f.gotTok = storeID, question, token
	return f.outcome
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []models.RequestLog
	err     error
}

var errAuditDown = errors.New("audit store down")

func (a *fakeAudit) Record(_ context.Context, entry *models.RequestLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	// attempts are counted even when the write fails
	a.entries = append(a.entries, *entry)
	return a.err
}

func (a *fakeAudit) Recent(_ context.Context, f database.RequestLogFilter) ([]models.RequestLog, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	var out []models.RequestLog
	for _, e := range a.entries {
		if f.StoreID == "" || e.StoreID == f.StoreID {
			out = append(out, e)
		}
	}
	return out, nil
}
