package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dentaldesk/clinic/internal/session"
)

type fakeSource struct {
	state session.State
	user  *session.User
}

func (f fakeSource) Snapshot() (session.State, *session.User) {
	return f.state, f.user
}

func runSession(t *testing.T, src SessionSource, iss *Issuer, path, authHeader string) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(path)

	var seen echo.Context
	err := RequireSession(src, iss)(func(c echo.Context) error {
		seen = c
		return c.String(http.StatusOK, "ok")
	})(c)
	return seen, err
}

func expectHTTPCode(t *testing.T, err error, code int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected HTTP %d, got nil error", code)
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != code {
		t.Errorf("expected %d, got %d", code, httpErr.Code)
	}
}

func TestRequireSession_Authenticated(t *testing.T) {
	iss, _ := newTestIssuer(t)
	tok, claims, _ := iss.Issue(testUser)
	src := fakeSource{state: session.StateAuthenticated, user: testUser}

	c, err := runSession(t, src, iss, "/api/v1/patients", "Bearer "+tok)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := c.Request().Context()
	if UserIDFromContext(ctx) != "1" || RoleFromContext(ctx) != "admin" || UsernameFromContext(ctx) != "admin" {
		t.Error("expected user identity in request context")
	}
	if TokenIDFromContext(ctx) != claims.ID {
		t.Errorf("expected jti %s in context, got %s", claims.ID, TokenIDFromContext(ctx))
	}
	if exp, ok := c.Get(TokenExpiryKey).(time.Time); !ok || exp.IsZero() {
		t.Error("expected token expiry on echo context")
	}
}

func TestRequireSession_Loading(t *testing.T) {
	iss, _ := newTestIssuer(t)
	tok, _, _ := iss.Issue(testUser)

	_, err := runSession(t, fakeSource{state: session.StateLoading}, iss, "/api/v1/patients", "Bearer "+tok)
	expectHTTPCode(t, err, http.StatusServiceUnavailable)
}

func TestRequireSession_Unauthenticated(t *testing.T) {
	iss, _ := newTestIssuer(t)
	tok, _, _ := iss.Issue(testUser)

	_, err := runSession(t, fakeSource{state: session.StateUnauthenticated}, iss, "/api/v1/patients", "Bearer "+tok)
	expectHTTPCode(t, err, http.StatusUnauthorized)
}

func TestRequireSession_BadHeaders(t *testing.T) {
	iss, _ := newTestIssuer(t)
	src := fakeSource{state: session.StateAuthenticated, user: testUser}

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"no bearer prefix", "Token abc123"},
		{"missing token", "Bearer"},
		{"empty value", "Bearer   "},
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"garbage token", "Bearer abc.def.ghi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runSession(t, src, iss, "/api/v1/patients", tt.header)
			expectHTTPCode(t, err, http.StatusUnauthorized)
		})
	}
}

func TestRequireSession_SubjectMismatch(t *testing.T) {
	iss, _ := newTestIssuer(t)
	other := &session.User{ID: "3", Username: "dentist", Role: session.RoleDentist}
	tok, _, _ := iss.Issue(other)

	src := fakeSource{state: session.StateAuthenticated, user: testUser}
	_, err := runSession(t, src, iss, "/api/v1/patients", "Bearer "+tok)
	expectHTTPCode(t, err, http.StatusUnauthorized)
}

func TestRequireSession_RevokedToken(t *testing.T) {
	iss, _ := newTestIssuer(t)
	tok, claims, _ := iss.Issue(testUser)
	iss.RevokeUser(context.Background(), testUser.ID, claims.ID, claims.ExpiresAt.Time)

	src := fakeSource{state: session.StateAuthenticated, user: testUser}
	_, err := runSession(t, src, iss, "/api/v1/patients", "Bearer "+tok)
	expectHTTPCode(t, err, http.StatusUnauthorized)
}

func TestRequireSession_PublicPathSkips(t *testing.T) {
	iss, _ := newTestIssuer(t)

	_, err := runSession(t, fakeSource{state: session.StateLoading}, iss, "/health", "")
	if err != nil {
		t.Errorf("expected public path to pass, got %v", err)
	}
}
