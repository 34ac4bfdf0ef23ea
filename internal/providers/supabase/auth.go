package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stencil/internal/domain"
)

// Auth implements domain.AuthProvider on top of GoTrue.
type Auth struct {
	client *Client
}

// NewAuth wraps a client.
func NewAuth(c *Client) *Auth { return &Auth{client: c} }

type gotrueUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
	Identities   []any          `json:"identities"`
}

type gotrueSession struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int         `json:"expires_in"`
	User         *gotrueUser `json:"user"`
}

func (u gotrueUser) toDomain() domain.User {
	name := ""
	for _, key := range []string{"display_name", "name", "full_name"} {
		if v, ok := u.UserMetadata[key].(string); ok && v != "" {
			name = v
			break
		}
	}
	return domain.User{ID: u.ID, Email: u.Email, Name: domain.DisplayNameFor(u.Email, name)}
}

func (s gotrueSession) toDomain() *domain.AuthSession {
	out := &domain.AuthSession{AccessToken: s.AccessToken, RefreshToken: s.RefreshToken}
	if s.User != nil {
		out.User = s.User.toDomain()
	}
	if s.ExpiresIn > 0 {
		out.ExpiresAt = time.Now().Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	return out
}

// SignUp registers a user. When email confirmation is on, the returned
// session has a user but no tokens.
func (a *Auth) SignUp(ctx context.Context, email, password, name string) (*domain.AuthSession, error) {
	body := map[string]any{
		"email":    strings.TrimSpace(email),
		"password": password,
		"data":     map[string]any{"display_name": domain.DisplayNameFor(email, name)},
	}
	raw, err := a.client.do(ctx, request{method: http.MethodPost, path: "/auth/v1/signup", body: body})
	if err != nil {
		return nil, err
	}
	var sess gotrueSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("supabase: decode signup: %w", err)
	}
	if sess.User == nil {
		var user gotrueUser
		if err := json.Unmarshal(raw, &user); err != nil || user.ID == "" {
			return nil, fmt.Errorf("supabase: signup returned no user")
		}
		// An existing, unconfirmed address comes back without identities.
		if user.Identities != nil && len(user.Identities) == 0 {
			return nil, fmt.Errorf("supabase: %w", domain.ErrEmailTaken)
		}
		sess.User = &user
	}
	out := sess.toDomain()
	out.User.Name = domain.DisplayNameFor(email, name)
	return out, nil
}

// SignIn exchanges email and password for tokens.
func (a *Auth) SignIn(ctx context.Context, email, password string) (*domain.AuthSession, error) {
	return a.token(ctx, "password", map[string]any{"email": strings.TrimSpace(email), "password": password})
}

// Refresh exchanges a refresh token for a new session.
func (a *Auth) Refresh(ctx context.Context, refreshToken string) (*domain.AuthSession, error) {
	return a.token(ctx, "refresh_token", map[string]any{"refresh_token": refreshToken})
}

func (a *Auth) token(ctx context.Context, grant string, body map[string]any) (*domain.AuthSession, error) {
	raw, err := a.client.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": []string{grant}},
		body:   body,
	})
	if err != nil {
		return nil, err
	}
	var sess gotrueSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("supabase: decode token: %w", err)
	}
	if sess.AccessToken == "" || sess.User == nil {
		return nil, fmt.Errorf("supabase: token response without session")
	}
	return sess.toDomain(), nil
}

// SignOut revokes the session behind accessToken.
func (a *Auth) SignOut(ctx context.Context, accessToken string) error {
	_, err := a.client.do(ctx, request{method: http.MethodPost, path: "/auth/v1/logout", token: accessToken})
	return err
}

// GetUser resolves the user owning accessToken.
func (a *Auth) GetUser(ctx context.Context, accessToken string) (*domain.User, error) {
	raw, err := a.client.do(ctx, request{method: http.MethodGet, path: "/auth/v1/user", token: accessToken})
	if err != nil {
		return nil, err
	}
	var user gotrueUser
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("supabase: decode user: %w", err)
	}
	out := user.toDomain()
	return &out, nil
}

// SendPasswordReset mails a recovery link.
func (a *Auth) SendPasswordReset(ctx context.Context, email string) error {
	_, err := a.client.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/recover",
		body:   map[string]any{"email": strings.TrimSpace(email)},
	})
	return err
}

var _ domain.AuthProvider = (*Auth)(nil)
