package database

import (
	"context"
	"errors"
	"fmt"

	"analytics-gateway/models"
	"analytics-gateway/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrShopNotFound = errors.New("shop not found")

// ShopStore persists one credential per normalized shop domain.
type ShopStore struct {
	db *gorm.DB
}

func NewShopStore(db *gorm.DB) *ShopStore {
	return &ShopStore{db: db}
}

// Upsert stores token for domain, replacing any previous token. The scope
// is only overwritten when non-empty. Concurrent writers for the same
// domain resolve last-write-wins through the unique index.
func (s *ShopStore) Upsert(ctx context.Context, domain, token, scope string) (*models.Shop, error) {
	domain = utils.NormalizeDomain(domain)
	if domain == "" {
		return nil, errors.New("shop domain is empty")
	}
	if token == "" {
		return nil, errors.New("access token is empty")
	}

	columns := []string{"access_token", "updated_at"}
	if scope != "" {
		columns = append(columns, "scope")
	}

	shop := models.Shop{Domain: domain, AccessToken: token, Scope: scope}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "domain"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(&shop).Error
	if err != nil {
		return nil, fmt.Errorf("upsert shop %s: %w", domain, err)
	}

	return s.FindByDomain(ctx, domain)
}

func (s *ShopStore) FindByDomain(ctx context.Context, domain string) (*models.Shop, error) {
	var shop models.Shop
	err := s.db.WithContext(ctx).Where("domain = ?", utils.NormalizeDomain(domain)).First(&shop).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, fmt.Errorf("find shop: %w", err)
	}
	return &shop, nil
}
