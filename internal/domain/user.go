package domain

import (
	"context"
	"strings"
	"time"
)

// User is an account of the backend service.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// DisplayNameFor returns name, or the local part of email when name is blank.
func DisplayNameFor(email, name string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	return local
}

// AuthSession is what a successful sign-in yields. AccessToken is empty when
// the account still awaits email confirmation.
type AuthSession struct {
	User         User
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Credentials identify the caller of a backend operation.
type Credentials struct {
	UserID      string
	AccessToken string
}

type credentialsKey struct{}

// WithCredentials attaches the caller's credentials to ctx.
func WithCredentials(ctx context.Context, c Credentials) context.Context {
	return context.WithValue(ctx, credentialsKey{}, c)
}

// CredentialsFrom returns the credentials stored in ctx, if any.
func CredentialsFrom(ctx context.Context) (Credentials, bool) {
	c, ok := ctx.Value(credentialsKey{}).(Credentials)
	return c, ok && c.UserID != ""
}
