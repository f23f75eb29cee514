package models

import (
	"strings"
	"time"
)

// Shop is the credential record of one installed store, keyed by its
// normalized domain.
type Shop struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Domain      string    `json:"domain" gorm:"size:255;not null;uniqueIndex"`
	AccessToken string    `json:"-" gorm:"not null"`
	Scope       string    `json:"scope"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Scopes splits the comma separated scope granted by the platform.
func (shop *Shop) Scopes() []string {
	out := []string{}
	for _, s := range strings.Split(shop.Scope, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Authorized reports whether the shop holds a usable token.
func (shop *Shop) Authorized() bool {
	return shop != nil && shop.AccessToken != ""
}
