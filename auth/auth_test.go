package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func sessionCookie(t *testing.T, uid uint) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	CreateSession(rec, uid)
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatalf("no session cookie")
	return nil
}

func TestSignVerify(t *testing.T) {
	SetSecret("test-secret")
	defer SetSecret("")

	signed := Sign("3f1c.value")
	v, ok := Verify(signed)
	if !ok || v != "3f1c.value" {
		t.Fatalf("verify = %q %v", v, ok)
	}
	if _, ok := Verify(signed + "x"); ok {
		t.Fatalf("tampered signature accepted")
	}
	if _, ok := Verify("nosignature"); ok {
		t.Fatalf("unsigned value accepted")
	}

	SetSecret("other-secret")
	if _, ok := Verify(signed); ok {
		t.Fatalf("signature from another secret accepted")
	}
}

func TestParseSession(t *testing.T) {
	c := sessionCookie(t, 7)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	uid, ok := ParseSession(req)
	if !ok || uid != 7 {
		t.Fatalf("ParseSession = %d %v", uid, ok)
	}

	forged := httptest.NewRequest(http.MethodGet, "/", nil)
	forged.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "1." + strings.Repeat("A", 43)})
	if _, ok := ParseSession(forged); ok {
		t.Fatalf("forged session accepted")
	}
}

func TestRequireAuth(t *testing.T) {
	protected := Middleware(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	// anonymous HTML request is redirected to login
	rr := httptest.NewRecorder()
	protected.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/seller", nil))
	if rr.Code != http.StatusSeeOther || !strings.HasPrefix(rr.Header().Get("Location"), "/login") {
		t.Fatalf("expected redirect to login, got %d %q", rr.Code, rr.Header().Get("Location"))
	}

	// anonymous JSON request gets 401
	req := httptest.NewRequest(http.MethodGet, "/seller", nil)
	req.Header.Set("Accept", "application/json")
	rr = httptest.NewRecorder()
	protected.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}

	// valid session passes
	req = httptest.NewRequest(http.MethodGet, "/seller", nil)
	req.AddCookie(sessionCookie(t, 1))
	rr = httptest.NewRecorder()
	protected.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rr.Code)
	}

	// removed user is logged out
	SetUserVerifier(func(context.Context, uint) bool { return false })
	defer SetUserVerifier(nil)
	req = httptest.NewRequest(http.MethodGet, "/seller", nil)
	req.AddCookie(sessionCookie(t, 1))
	rr = httptest.NewRecorder()
	protected.ServeHTTP(rr, req)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect for removed user, got %d", rr.Code)
	}
}
