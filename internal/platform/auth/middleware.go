package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	UserRoleKey contextKey = "user_role"
)

// Staff roles carried in tokens.
const (
	RoleAdmin      = "ADMIN"
	RolePhysician  = "PHYSICIAN"
	RolePharmacist = "PHARMACIST"
)

// Claims are the session token claims. Subject is the username.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

type JWTConfig struct {
	Issuer     string
	SigningKey []byte
	// Skipper lets public paths through without a token.
	Skipper func(c echo.Context) bool
}

// JWTMiddleware validates HS256 bearer tokens and stores the username and
// role on the request context.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	keyFunc := func(*jwt.Token) (interface{}, error) { return cfg.SigningKey, nil }

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}

			tokenStr, err := bearerToken(c.Request())
			if err != nil {
				return err
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, keyFunc, opts...)
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if claims.Subject == "" || claims.Role == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token is missing subject or role")
			}

			setIdentity(c, claims.Subject, strings.ToUpper(claims.Role))
			return next(c)
		}
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
	}
	return strings.TrimSpace(parts[1]), nil
}

// DevAuthMiddleware grants unauthenticated requests an ADMIN identity. When a
// signing key is given, requests that do carry a token are still validated.
func DevAuthMiddleware(signingKey []byte) echo.MiddlewareFunc {
	var strict echo.MiddlewareFunc
	if len(signingKey) > 0 {
		strict = JWTMiddleware(JWTConfig{SigningKey: signingKey})
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") != "" && strict != nil {
				return strict(next)(c)
			}
			setIdentity(c, "dev-user", RoleAdmin)
			return next(c)
		}
	}
}

func setIdentity(c echo.Context, username, role string) {
	ctx := c.Request().Context()
	ctx = context.WithValue(ctx, UserIDKey, username)
	ctx = context.WithValue(ctx, UserRoleKey, role)
	c.SetRequest(c.Request().WithContext(ctx))
}

func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(UserRoleKey).(string)
	return role
}

// WithIdentity returns a context carrying username and role, as the
// middleware would set them. Used by background jobs and tests.
func WithIdentity(ctx context.Context, username, role string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, username)
	return context.WithValue(ctx, UserRoleKey, role)
}

// IssueToken signs a session token for username with the given role.
func IssueToken(signingKey []byte, issuer, username, role string, ttl time.Duration) (string, error) {
	if len(signingKey) == 0 {
		return "", fmt.Errorf("signing key is required")
	}
	if username == "" {
		return "", fmt.Errorf("username is required")
	}
	role = strings.ToUpper(strings.TrimSpace(role))
	if !ValidRole(role) {
		return "", fmt.Errorf("unknown role %q", role)
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
}

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RolePhysician, RolePharmacist:
		return true
	}
	return false
}
