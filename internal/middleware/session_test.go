package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	token, err := SignSessionToken("secret", SessionClaims{Sub: "sid-1", Exp: now.Add(time.Hour).Unix(), Issuer: sessionIssuer})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := VerifySessionToken("secret", token, now)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Sub != "sid-1" {
		t.Fatalf("sub = %q", claims.Sub)
	}

	if _, err := VerifySessionToken("other", token, now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong secret err = %v", err)
	}
	if _, err := VerifySessionToken("secret", token, now.Add(2*time.Hour)); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expired err = %v", err)
	}
	if _, err := VerifySessionToken("secret", "a.b", now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("malformed err = %v", err)
	}
}

func TestSessionRejectsForeignIssuer(t *testing.T) {
	token, _ := SignSessionToken("secret", SessionClaims{Sub: "sid", Issuer: "someone-else"})
	if _, err := VerifySessionToken("secret", token, time.Now()); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v", err)
	}
}

func sessionHandler(cfg SessionConfig, seen *string) http.Handler {
	return Session(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = SessionIDFromContext(r.Context())
	}))
}

func TestSessionMiddlewareIssuesAndReusesCookie(t *testing.T) {
	ids := []string{"first", "second"}
	cfg := SessionConfig{
		Secret: "secret",
		TTL:    time.Hour,
		NewID: func() string {
			id := ids[0]
			ids = ids[1:]
			return id
		},
	}
	var seen string
	h := sessionHandler(cfg, &seen)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen != "first" {
		t.Fatalf("new session id = %q", seen)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != SessionCookie || !cookies[0].HttpOnly {
		t.Fatalf("cookies = %+v", cookies)
	}
	if rec.Header().Get(SessionHeader) != cookies[0].Value {
		t.Fatalf("header token does not match cookie")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "first" {
		t.Fatalf("cookie session id = %q", seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+cookies[0].Value)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "first" {
		t.Fatalf("bearer session id = %q", seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "forged.token.value"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "second" {
		t.Fatalf("forged token should start a new session, got %q", seen)
	}
}

func TestSessionMiddlewareExpiredTokenStartsNewSession(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	old, _ := SignSessionToken("secret", SessionClaims{Sub: "old", Exp: now.Add(-time.Minute).Unix(), Issuer: sessionIssuer})

	var seen string
	h := sessionHandler(SessionConfig{
		Secret: "secret",
		NewID:  func() string { return "fresh" },
		Now:    func() time.Time { return now },
	}, &seen)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: old})
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "fresh" {
		t.Fatalf("session id = %q, want fresh", seen)
	}
}
