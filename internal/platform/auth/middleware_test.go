package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testSigningKey = []byte("test-secret-key-for-unit-tests-only")

func createTestToken(t *testing.T, claims Claims, key []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return tokenStr
}

func validClaims(sub, role string) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: role,
	}
}

func runMiddleware(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen echo.Context
	err := mw(func(c echo.Context) error {
		seen = c
		return c.String(http.StatusOK, "ok")
	})(c)
	return seen, err
}

func expectStatus(t *testing.T, err error, code int) {
	t.Helper()
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T (%v)", err, err)
	}
	if httpErr.Code != code {
		t.Errorf("expected %d, got %d", code, httpErr.Code)
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	_, err := runMiddleware(t, JWTMiddleware(JWTConfig{SigningKey: testSigningKey}), "")
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_InvalidFormat(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "Token abc123"},
		{"missing token", "Bearer"},
		{"empty value", "Bearer "},
		{"basic auth", "Basic dXNlcjpwYXNz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runMiddleware(t, JWTMiddleware(JWTConfig{SigningKey: testSigningKey}), tt.header)
			expectStatus(t, err, http.StatusUnauthorized)
		})
	}
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	tok := createTestToken(t, validClaims("pharm1", "pharmacist"), testSigningKey)
	c, err := runMiddleware(t, JWTMiddleware(JWTConfig{SigningKey: testSigningKey}), "Bearer "+tok)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := c.Request().Context()
	if UserIDFromContext(ctx) != "pharm1" {
		t.Errorf("expected user pharm1, got %q", UserIDFromContext(ctx))
	}
	if RoleFromContext(ctx) != RolePharmacist {
		t.Errorf("expected role normalized to PHARMACIST, got %q", RoleFromContext(ctx))
	}
}

func TestJWTMiddleware_Rejects(t *testing.T) {
	expired := validClaims("doc", RolePhysician)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	noExp := validClaims("doc", RolePhysician)
	noExp.ExpiresAt = nil
	noRole := validClaims("doc", "")

	tests := []struct {
		name  string
		token string
	}{
		{"wrong key", createTestToken(t, validClaims("doc", RolePhysician), []byte("other"))},
		{"expired", createTestToken(t, expired, testSigningKey)},
		{"no expiry", createTestToken(t, noExp, testSigningKey)},
		{"no role", createTestToken(t, noRole, testSigningKey)},
		{"garbage", "not.a.jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runMiddleware(t, JWTMiddleware(JWTConfig{SigningKey: testSigningKey}), "Bearer "+tt.token)
			expectStatus(t, err, http.StatusUnauthorized)
		})
	}
}

func TestJWTMiddleware_Issuer(t *testing.T) {
	tok, err := IssueToken(testSigningKey, "hospdash", "doc", "physician", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := runMiddleware(t, JWTMiddleware(JWTConfig{SigningKey: testSigningKey, Issuer: "hospdash"}), "Bearer "+tok); err != nil {
		t.Fatalf("expected matching issuer to pass, got %v", err)
	}
	_, err = runMiddleware(t, JWTMiddleware(JWTConfig{SigningKey: testSigningKey, Issuer: "elsewhere"}), "Bearer "+tok)
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_Skipper(t *testing.T) {
	mw := JWTMiddleware(JWTConfig{SigningKey: testSigningKey, Skipper: func(echo.Context) bool { return true }})
	if _, err := runMiddleware(t, mw, ""); err != nil {
		t.Fatalf("expected skipped request to pass, got %v", err)
	}
}

func TestDevAuthMiddleware(t *testing.T) {
	c, err := runMiddleware(t, DevAuthMiddleware(testSigningKey), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if RoleFromContext(c.Request().Context()) != RoleAdmin {
		t.Error("expected dev identity to be ADMIN")
	}

	tok := createTestToken(t, validClaims("pharm1", RolePharmacist), testSigningKey)
	c, err = runMiddleware(t, DevAuthMiddleware(testSigningKey), "Bearer "+tok)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if UserIDFromContext(c.Request().Context()) != "pharm1" {
		t.Error("expected a provided token to be honoured in dev mode")
	}

	_, err = runMiddleware(t, DevAuthMiddleware(testSigningKey), "Bearer bad")
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestIssueToken(t *testing.T) {
	if _, err := IssueToken(nil, "", "u", RoleAdmin, time.Hour); err == nil {
		t.Error("expected error without key")
	}
	if _, err := IssueToken(testSigningKey, "", "", RoleAdmin, time.Hour); err == nil {
		t.Error("expected error without username")
	}
	if _, err := IssueToken(testSigningKey, "", "u", "NURSE", time.Hour); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestSessionHandler(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	req = req.WithContext(WithIdentity(req.Context(), "doc", RolePhysician))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := NewSessionHandler().Get(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got SessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if got.Username != "doc" || got.Role != RolePhysician {
		t.Errorf("unexpected session %+v", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/session", nil)
	c = e.NewContext(req, httptest.NewRecorder())
	expectStatus(t, NewSessionHandler().Get(c), http.StatusUnauthorized)
}
