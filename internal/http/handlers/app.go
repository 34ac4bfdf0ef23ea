package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"stencil/internal/baas"
	"stencil/internal/editor"
	"stencil/internal/filters"
	"stencil/internal/infra"
	"stencil/internal/middleware"
	"stencil/internal/session"
)

// maxJSONBody bounds request bodies. Images travel base64 encoded, so this
// leaves room for two images at the validation limit.
const maxJSONBody = 64 << 20

// Options wires the collaborators of App. Editor and Sessions are required.
type Options struct {
	Config   *infra.Config
	Logger   *infra.Logger
	Sessions *session.Manager
	Editor   *editor.Editor
	Backend  *baas.Backend
	Fetcher  *filters.Fetcher
	// Ping reports backing store health for /v1/healthz. Nil means healthy.
	Ping func(ctx context.Context) error
}

type App struct {
	Config   *infra.Config
	Logger   *infra.Logger
	Sessions *session.Manager
	Editor   *editor.Editor
	Backend  *baas.Backend
	Fetcher  *filters.Fetcher
	Ping     func(ctx context.Context) error
	now      func() time.Time
}

func NewApp(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = &infra.Config{}
	}
	backend := opts.Backend
	if backend == nil {
		backend = baas.New(baas.Deps{Logger: logger})
	}
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = filters.NewFetcher(filters.DefaultFetchTimeout)
	}
	return &App{
		Config:   cfg,
		Logger:   logger,
		Sessions: opts.Sessions,
		Editor:   opts.Editor,
		Backend:  backend,
		Fetcher:  fetcher,
		Ping:     opts.Ping,
		now:      time.Now,
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, msg string) {
	a.json(w, code, errorResponse{Error: errCode, Message: msg})
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		a.error(w, http.StatusRequestEntityTooLarge, "too_large", "request body too large")
		return false
	}
	a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
	return false
}

// logger returns the request-scoped logger set by the logging middleware.
func (a *App) logger(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return a.Logger
}

// withState runs fn on the caller's session while holding its lock. The
// session is saved only when fn succeeds.
func (a *App) withState(r *http.Request, fn func(st *session.State) error) error {
	sid := middleware.SessionIDFromContext(r.Context())
	if sid == "" {
		return errNoSession
	}
	return a.Sessions.With(r.Context(), sid, fn)
}

var errNoSession = errors.New("handlers: request has no session")

// state runs a read-mostly fn that cannot fail on its own and answers 500
// when the session store does.
func (a *App) state(w http.ResponseWriter, r *http.Request, fn func(st *session.State)) bool {
	err := a.withState(r, func(st *session.State) error {
		fn(st)
		return nil
	})
	if err != nil {
		a.logger(r).Error().Err(err).Msg("session store")
		a.error(w, http.StatusInternalServerError, "internal", "session unavailable")
		return false
	}
	return true
}
