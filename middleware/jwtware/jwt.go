package jwtware

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// ErrJWTMissingOrMalformed is returned when the authorization header is absent
// or does not carry a bearer token.
var ErrJWTMissingOrMalformed = errors.New("missing or malformed JWT")

// TokenValidator interface for validating tokens without import cycles.
// This mirrors the TokenService.Validate method from the root package.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// AuthClaims interface for structured claims without import cycles.
// This mirrors the AuthClaims interface from the root package.
type AuthClaims interface {
	Subject() string
	UserID() string
	Expires() time.Time
	IssuedAt() time.Time
}

// UserResolver turns validated claims into a live user record. Returning an
// error rejects the request.
type UserResolver func(ctx context.Context, claims AuthClaims) (any, error)

type Config struct {
	// Filter defines a function to skip the middleware
	Filter func(*fiber.Ctx) bool
	// ErrorHandler receives every rejection. The default forwards the raw
	// error to the application error handler.
	ErrorHandler fiber.ErrorHandler
	// ContextKey is the Locals key for the validated claims
	ContextKey string
	// UserKey is the Locals key for the resolved user record
	UserKey string
	// AuthScheme is the expected authorization scheme, "Bearer" by default
	AuthScheme string
	// TokenValidator is required for token validation
	TokenValidator TokenValidator
	// UserResolver is optional; when set, the middleware resolves the token
	// subject to a user and stores it under UserKey.
	UserResolver UserResolver
}

// GetDefaultConfig fills in the blanks of an optional user supplied config
func GetDefaultConfig(config ...Config) Config {
	cfg := Config{}
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c *fiber.Ctx, err error) error {
			return err
		}
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "claims"
	}

	if cfg.UserKey == "" {
		cfg.UserKey = "user"
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.TokenValidator == nil {
		panic("jwtware: TokenValidator is required")
	}

	return cfg
}

// New returns a middleware that authenticates requests with a bearer token
func New(config ...Config) fiber.Handler {
	cfg := GetDefaultConfig(config...)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw, err := ExtractBearerToken(c, cfg.AuthScheme)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		claims, err := cfg.TokenValidator.Validate(raw)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		c.Locals(cfg.ContextKey, claims)

		if cfg.UserResolver != nil {
			user, err := cfg.UserResolver(c.UserContext(), claims)
			if err != nil {
				return cfg.ErrorHandler(c, err)
			}
			c.Locals(cfg.UserKey, user)
		}

		return c.Next()
	}
}

// ExtractBearerToken pulls the raw token out of the authorization header
func ExtractBearerToken(c *fiber.Ctx, authScheme string) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", ErrJWTMissingOrMalformed
	}

	prefix := authScheme + " "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", ErrJWTMissingOrMalformed
	}

	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", ErrJWTMissingOrMalformed
	}

	return token, nil
}

// ClaimsFromContext returns the validated claims stored by the middleware
func ClaimsFromContext(c *fiber.Ctx, contextKey string) (AuthClaims, bool) {
	claims, ok := c.Locals(contextKey).(AuthClaims)
	return claims, ok
}
