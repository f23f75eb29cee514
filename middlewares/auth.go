package middlewares

import (
	"errors"
	"strings"
	"time"

	"analytics-gateway/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

const (
	authHeader   = "Authorization"
	bearerPrefix = "Bearer "
	shopLocal    = "shop"
)

// Claims is the API token payload: the shop the caller may ask about.
type Claims struct {
	Shop string `json:"shop"`
	jwt.RegisteredClaims
}

// RequireAPIToken validates an HS256 bearer token and stores its shop in c.Locals("shop").
func RequireAPIToken(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		h := c.Get(authHeader)
		if h == "" || !strings.HasPrefix(strings.ToLower(h), strings.ToLower(bearerPrefix)) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing/invalid Authorization header"})
		}
		raw := strings.TrimSpace(h[len(bearerPrefix):])
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid bearer token"})
		}

		parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		var claims Claims
		token, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
		}
		shop := utils.NormalizeDomain(claims.Shop)
		if shop == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "token missing shop"})
		}

		c.Locals(shopLocal, shop)
		return c.Next()
	}
}

// TokenShop returns the shop an API token is scoped to, or "" when the
// request was not authenticated.
func TokenShop(c *fiber.Ctx) string {
	shop, _ := c.Locals(shopLocal).(string)
	return shop
}

// ShopAllowed reports whether the caller may act on storeID.
func ShopAllowed(c *fiber.Ctx, storeID string) bool {
	shop := TokenShop(c)
	return shop == "" || shop == utils.NormalizeDomain(storeID)
}

// GenerateAPIToken signs an HS256 token for shop.
func GenerateAPIToken(secret []byte, shop string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("API token secret not configured")
	}
	now := time.Now()
	claims := &Claims{
		Shop: utils.NormalizeDomain(shop),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   utils.NormalizeDomain(shop),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
