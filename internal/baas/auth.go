package baas

import (
	"context"
	"errors"

	"stencil/internal/domain"
	"stencil/internal/infra"
	"stencil/internal/session"
)

// Auth is the account surface used by the HTTP layer.
type Auth interface {
	Configured() bool
	SignUp(ctx context.Context, email, password, name string) Result
	SignIn(ctx context.Context, st *session.State, email, password string) Result
	SignOut(ctx context.Context, st *session.State) Result
	RestoreSession(ctx context.Context, st *session.State, accessToken, refreshToken string) Result
	SendPasswordReset(ctx context.Context, email string) Result
}

// AuthService implements Auth over a domain.AuthProvider.
type AuthService struct {
	provider domain.AuthProvider
	logger   *infra.Logger
}

// NewAuthService returns an AuthService. A nil provider means guest-only mode.
func NewAuthService(provider domain.AuthProvider, logger *infra.Logger) *AuthService {
	return &AuthService{provider: provider, logger: orDiscard(logger)}
}

func (a *AuthService) Configured() bool { return a != nil && a.provider != nil }

func (a *AuthService) SignUp(ctx context.Context, email, password, name string) Result {
	if !a.Configured() {
		return unconfigured(msgAuthNotConfigured)
	}
	sess, err := a.provider.SignUp(ctx, email, password, domain.DisplayNameFor(email, name))
	observe("auth", err)
	switch {
	case errors.Is(err, domain.ErrEmailTaken):
		return rejected("This email is already registered. Please login instead.")
	case err != nil:
		return fail("Registration error: " + err.Error())
	case sess == nil || sess.User.ID == "":
		return fail("Registration failed. Please try again.")
	}
	res := success("Account created! Please check your email to confirm.")
	res.User = sessionUser(sess.User)
	return res
}

// SignIn authenticates and attaches the user to st.
func (a *AuthService) SignIn(ctx context.Context, st *session.State, email, password string) Result {
	if !a.Configured() {
		return unconfigured(msgAuthNotConfigured)
	}
	sess, err := a.provider.SignIn(ctx, email, password)
	observe("auth", err)
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return rejected("Invalid email or password.")
	case errors.Is(err, domain.ErrEmailNotConfirmed):
		return rejected("Please confirm your email before logging in.")
	case err != nil:
		return fail("Login error: " + err.Error())
	case sess == nil || sess.AccessToken == "":
		return fail("Login failed. Please check your credentials.")
	}
	attach(st, sess)
	a.logger.Info().Str("session_id", st.ID).Str("user_id", sess.User.ID).Msg("user signed in")
	res := success("Login successful!")
	res.User = st.User
	return res
}

// SignOut always clears the local session; a remote failure is only logged.
func (a *AuthService) SignOut(ctx context.Context, st *session.State) Result {
	if a.Configured() && st.AccessToken() != "" {
		err := a.provider.SignOut(ctx, st.AccessToken())
		observe("auth", err)
		if err != nil {
			a.logger.Warn().Err(err).Str("session_id", st.ID).Msg("remote sign out failed")
		}
	}
	st.SignOut()
	return success("Logged out successfully.")
}

// RestoreSession validates stored tokens, refreshing them when the access
// token has expired, and attaches the user to st.
func (a *AuthService) RestoreSession(ctx context.Context, st *session.State, accessToken, refreshToken string) Result {
	if !a.Configured() {
		return unconfigured(msgNotConfigured)
	}
	sess, err := a.restore(ctx, accessToken, refreshToken)
	observe("auth", err)
	switch {
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrInvalidCredentials):
		return rejected("Could not restore session")
	case err != nil:
		return fail("Session restoration error: " + err.Error())
	}
	attach(st, sess)
	res := success("Session restored")
	res.User = st.User
	return res
}

func (a *AuthService) restore(ctx context.Context, accessToken, refreshToken string) (*domain.AuthSession, error) {
	if accessToken != "" {
		user, err := a.provider.GetUser(ctx, accessToken)
		if err == nil {
			return &domain.AuthSession{User: *user, AccessToken: accessToken, RefreshToken: refreshToken}, nil
		}
		if !errors.Is(err, domain.ErrUnauthorized) || refreshToken == "" {
			return nil, err
		}
	}
	if refreshToken == "" {
		return nil, domain.ErrUnauthorized
	}
	return a.provider.Refresh(ctx, refreshToken)
}

func (a *AuthService) SendPasswordReset(ctx context.Context, email string) Result {
	if !a.Configured() {
		return unconfigured(msgNotConfigured)
	}
	err := a.provider.SendPasswordReset(ctx, email)
	observe("auth", err)
	if err != nil {
		return fail("Error: " + err.Error())
	}
	return success("Password reset email sent! Check your inbox.")
}

// CurrentUser returns the signed-in user of st, or nil.
func CurrentUser(st *session.State) *session.User {
	if !st.SignedIn() {
		return nil
	}
	return st.User
}

// IsAuthenticated reports whether st carries a signed-in user.
func IsAuthenticated(st *session.State) bool {
	return st.SignedIn()
}

func attach(st *session.State, sess *domain.AuthSession) {
	u := sessionUser(sess.User)
	st.SignIn(*u, session.Tokens{AccessToken: sess.AccessToken, RefreshToken: sess.RefreshToken})
}

func sessionUser(u domain.User) *session.User {
	return &session.User{ID: u.ID, Email: u.Email, Name: domain.DisplayNameFor(u.Email, u.Name)}
}

var _ Auth = (*AuthService)(nil)
