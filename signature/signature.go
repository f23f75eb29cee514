// Package signature verifies the HMAC the platform attaches to OAuth callbacks.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Param is the query parameter that carries the signature.
const Param = "hmac"

// Canonicalize drops the signature parameter and sorts the remaining raw
// key=value pairs, joined with '&'. Pairs are compared in their encoded form.
func Canonicalize(rawQuery string) string {
	parts := strings.Split(rawQuery, "&")
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		key := p
		if i := strings.IndexByte(p, '='); i >= 0 {
			key = p[:i]
		}
		if key == Param {
			continue
		}
		kept = append(kept, p)
	}
	sort.Strings(kept)
	return strings.Join(kept, "&")
}

// Compute returns the hex HMAC-SHA256 of the canonical query.
func Compute(rawQuery, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(Canonicalize(rawQuery)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether provided matches the query signed with secret.
// A missing signature or secret never verifies.
func Verify(rawQuery, provided, secret string) bool {
	if provided == "" || secret == "" {
		return false
	}
	expected := Compute(rawQuery, secret)
	return hmac.Equal([]byte(strings.ToLower(provided)), []byte(expected))
}
