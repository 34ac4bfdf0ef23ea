package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionCookie carries the signed session token.
const SessionCookie = "stencil_session"

// SessionHeader echoes the token for clients that do not keep cookies. They
// send it back as a Bearer token.
const SessionHeader = "X-Session-Token"

const sessionIssuer = "stencil"

var (
	ErrInvalidToken = errors.New("middleware: invalid session token")
	ErrTokenExpired = errors.New("middleware: session token expired")
)

// SessionClaims is the payload of a session token. Sub is the session id.
type SessionClaims struct {
	Sub    string `json:"sub"`
	Exp    int64  `json:"exp"`
	Issuer string `json:"iss"`
}

type sessionKey struct{}

// SignSessionToken encodes claims as an HS256 JWT.
func SignSessionToken(secret string, claims SessionClaims) (string, error) {
	headerJSON, err := json.Marshal(map[string]string{"alg": "HS256", "typ": "JWT"})
	if err != nil {
		return "", err
	}
	payloadJSON, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	data := base64.RawURLEncoding.EncodeToString(headerJSON) + "." + base64.RawURLEncoding.EncodeToString(payloadJSON)
	return data + "." + hmacSign(secret, data), nil
}

func hmacSign(secret, data string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySessionToken checks the signature, issuer and expiry of token.
func VerifySessionToken(secret, token string, now time.Time) (*SessionClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrInvalidToken
	}
	expected := hmacSign(secret, parts[0]+"."+parts[1])
	if !hmac.Equal([]byte(expected), []byte(parts[2])) {
		return nil, ErrInvalidToken
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, ErrInvalidToken
	}
	var claims SessionClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Sub == "" || claims.Issuer != sessionIssuer {
		return nil, ErrInvalidToken
	}
	if claims.Exp != 0 && now.Unix() > claims.Exp {
		return nil, ErrTokenExpired
	}
	return &claims, nil
}

// SessionConfig configures the Session middleware.
type SessionConfig struct {
	Secret string
	TTL    time.Duration
	// Secure marks the cookie HTTPS-only.
	Secure bool
	NewID  func() string
	Now    func() time.Time
}

// Session resolves the caller's session id from the cookie or a Bearer token.
// A missing, forged or expired token starts a new session. The token is
// re-issued on every response so the lifetime slides with activity.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 12 * time.Hour
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := cfg.Now()
			sid := ""
			if token := sessionToken(r); token != "" {
				if claims, err := VerifySessionToken(cfg.Secret, token, now); err == nil {
					sid = claims.Sub
				}
			}
			if sid == "" {
				sid = cfg.NewID()
			}

			expires := now.Add(cfg.TTL)
			token, err := SignSessionToken(cfg.Secret, SessionClaims{Sub: sid, Exp: expires.Unix(), Issuer: sessionIssuer})
			if err != nil {
				http.Error(w, "session unavailable", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    token,
				Path:     "/",
				Expires:  expires,
				MaxAge:   int(cfg.TTL.Seconds()),
				HttpOnly: true,
				Secure:   cfg.Secure,
				SameSite: http.SameSiteLaxMode,
			})
			w.Header().Set(SessionHeader, token)

			next.ServeHTTP(w, r.WithContext(ContextWithSessionID(r.Context(), sid)))
		})
	}
}

func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// SessionIDFromContext returns the id stored by Session, or "".
func SessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sessionKey{}).(string); ok {
		return v
	}
	return ""
}

func ContextWithSessionID(ctx context.Context, id string) context.Context {
	if strings.TrimSpace(id) == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, id)
}
