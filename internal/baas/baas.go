// Package baas binds the session to the backend-as-a-service: accounts,
// preferences, user files and saved projects. Every operation checks that
// its backend is configured and reports failures through Result instead of
// returning errors.
package baas

import (
	"context"
	"errors"

	"stencil/internal/domain"
	"stencil/internal/infra"
	"stencil/internal/metrics"
	"stencil/internal/session"
)

// ErrNotConfigured is returned by helpers when the backend is absent.
var ErrNotConfigured = domain.ErrNotConfigured

const (
	msgAuthNotConfigured     = "Supabase not configured. Check SUPABASE_URL and SUPABASE_KEY in .env"
	msgNotConfigured         = "Supabase not configured"
	msgDatabaseNotConfigured = "Database not configured."
	msgStorageNotConfigured  = "Storage not configured."
	msgInvalidFolder         = "Invalid folder."
)

// Result is the uniform answer of every backend operation.
type Result struct {
	Success   bool                  `json:"success"`
	Message   string                `json:"message"`
	User      *session.User         `json:"user,omitempty"`
	ProjectID string                `json:"project_id,omitempty"`
	Project   *domain.Project       `json:"project,omitempty"`
	Projects  []domain.Project      `json:"projects,omitempty"`
	Images    []domain.ProjectImage `json:"images,omitempty"`
	Files     []domain.StoredFile   `json:"files,omitempty"`
	URL       string                `json:"url,omitempty"`
	Path      string                `json:"path,omitempty"`
	Usage     *Usage                `json:"usage,omitempty"`
	Data      []byte                `json:"-"`
	// Reason classifies a failure for transports that need a status code.
	Reason Reason `json:"-"`
}

// Reason says why an operation did not succeed.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonUnconfigured
	ReasonUnauthenticated
	ReasonRejected
	ReasonNotFound
	ReasonFailed
)

func success(msg string) Result { return Result{Success: true, Message: msg} }
func fail(msg string) Result { return Result{Message: msg, Reason: ReasonFailed} }

func unconfigured(msg string) Result { return Result{Message: msg, Reason: ReasonUnconfigured} }
func unauthenticated(msg string) Result { return Result{Message: msg, Reason: ReasonUnauthenticated} }
func rejected(msg string) Result { return Result{Message: msg, Reason: ReasonRejected} }
func notFound(msg string) Result { return Result{Message: msg, Reason: ReasonNotFound} }

// Backend groups the four services behind one value for the HTTP layer.
type Backend struct {
	Auth        *AuthService
	Preferences *PreferenceService
	Storage     *StorageService
	Projects    *ProjectService
}

// Deps are the optional collaborators. Nil fields disable their feature.
type Deps struct {
	Auth        domain.AuthProvider
	Projects    domain.ProjectRepository
	Preferences domain.PreferenceRepository
	Files       domain.ObjectStore
	Bucket      string
	Logger      *infra.Logger
}

// New wires every service from deps.
func New(deps Deps) *Backend {
	logger := orDiscard(deps.Logger)
	return &Backend{
		Auth:        NewAuthService(deps.Auth, logger),
		Preferences: NewPreferenceService(deps.Preferences, logger),
		Storage:     NewStorageService(deps.Files, deps.Bucket, logger),
		Projects:    NewProjectService(deps.Projects, logger),
	}
}

// Enabled reports whether accounts can be used at all.
func (b *Backend) Enabled() bool {
	return b != nil && b.Auth.Configured()
}

// userContext attaches the signed-in user's credentials for backends that
// authorize per request.
func userContext(ctx context.Context, st *session.State) context.Context {
	return domain.WithCredentials(ctx, domain.Credentials{
		UserID:      st.UserID(),
		AccessToken: st.AccessToken(),
	})
}

func orDiscard(l *infra.Logger) *infra.Logger {
	if l == nil {
		return infra.DiscardLogger()
	}
	return l
}

func observe(area string, err error) {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrAlreadyExists) {
		err = nil
	}
	metrics.BaaSCalls.WithLabelValues(area, metrics.Outcome(err)).Inc()
}
