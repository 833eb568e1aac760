package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var errNoToken = errors.New("missing bearer token")

// AuthMiddleware rejects requests without a valid HS256 bearer token and
// stores the token's user id under "user_id".
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := userFromRequest(c, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing token"})
			return
		}
		c.Set("user_id", userID)
		c.Next()
	}
}

// OptionalAuth sets "user_id" when a valid token is present and otherwise
// lets the request through as signed out.
func OptionalAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, err := userFromRequest(c, secret); err == nil {
			c.Set("user_id", userID)
		}
		c.Next()
	}
}

func userFromRequest(c *gin.Context, secret []byte) (int, error) {
	header := c.GetHeader("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return 0, errNoToken
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, err
	}

	// numeric claims decode as float64
	if v, ok := claims["user_id"].(float64); ok && v > 0 {
		return int(v), nil
	}
	return 0, errors.New("token has no user_id claim")
}
