package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JWTMiddleware authenticates requests with a bearer access token and exposes
// the subject as the user_id local. Only HS256 signatures are accepted.
func JWTMiddleware(secret string) fiber.Handler {
	keyFn := func(*jwt.Token) (any, error) { return []byte(secret), nil }
	methods := jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})

	return func(c *fiber.Ctx) error {
		raw := bearerFromHeader(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		var claims Claims
		token, err := jwt.ParseWithClaims(raw, &claims, keyFn, methods)
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "token invalid")
		}

		c.Locals("user_id", claims.UserID)
		return c.Next()
	}
}

func bearerFromHeader(header string) string {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return header[len(prefix):]
}
