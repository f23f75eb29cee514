// Package nonce keeps the short-lived anti-CSRF state issued with each
// install redirect.
package nonce

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrStateNotFound is returned for unknown, expired or already used states.
var ErrStateNotFound = errors.New("authorization state not found or expired")

const stateBytes = 32

// Store binds a state value to the shop that requested the install.
type Store interface {
	// Issue generates a fresh state for shop.
	Issue(ctx context.Context, shop string) (string, error)
	// Consume returns the shop a state was issued for and invalidates it.
	Consume(ctx context.Context, state string) (string, error)
}

// NewState returns a hex encoded random value.
func NewState() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}
