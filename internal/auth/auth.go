/*
Package auth guards the plan endpoints with HS256 bearer tokens.
It is only mounted when a signing secret is configured.
*/
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// DefaultTokenDuration is the lifetime of tokens issued without an explicit TTL.
const DefaultTokenDuration = 24 * time.Hour

// ContextKeySubject is the echo context key holding the authenticated subject.
const ContextKeySubject = "subject"

// Config carries the signing secret and the expected issuer.
type Config struct {
	Secret string
	Issuer string
}

// Claims is the token payload.
type Claims struct {
	jwt.RegisteredClaims
}

var errMissingToken = errors.New("missing bearer token")

// GenerateToken issues a token for subject that expires after ttl.
func GenerateToken(cfg Config, subject string, ttl time.Duration) (string, error) {
	if cfg.Secret == "" {
		return "", errors.New("cannot sign token: secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenDuration
	}

	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.Secret))
}

// ParseToken verifies tokenString and returns its claims.
func ParseToken(cfg Config, tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Middleware rejects requests without a valid bearer token with 401.
func Middleware(cfg Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := bearerToken(c.Request())
			if err == nil {
				var claims *Claims
				claims, err = ParseToken(cfg, tokenString)
				if err == nil {
					c.Set(ContextKeySubject, claims.Subject)
					return next(c)
				}
			}

			zerolog.Ctx(c.Request().Context()).Warn().Err(err).Msg("Token validation error")
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token").SetInternal(err)
		}
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(header, "Bearer ") {
		return "", errMissingToken
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", errMissingToken
	}
	return token, nil
}
