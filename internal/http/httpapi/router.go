// Package httpapi assembles the HTTP routes and middleware stack.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stencil/internal/http/handlers"
	"stencil/internal/infra"
	"stencil/internal/middleware"
)

// Options holds what the router needs beyond the handlers.
type Options struct {
	Config *infra.Config
	Logger *infra.Logger
	// StaticDir, when set, is served under /static for the filesystem backend.
	StaticDir string
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	cfg := opts.Config
	if cfg == nil {
		cfg = &infra.Config{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(*logger),
		chimw.Recoverer,
		middleware.CORS(cfg.CORSAllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)
	if opts.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir))))
	}

	r.Group(func(r chi.Router) {
		r.Use(
			middleware.RateLimit(cfg.RateLimitPerMin, time.Minute),
			middleware.Session(middleware.SessionConfig{
				Secret: cfg.SessionSecret,
				TTL:    cfg.SessionTTL,
				Secure: cfg.AppEnv == "production",
			}),
		)

		r.Get("/v1/config", app.ConfigFlags)

		r.Route("/v1/session", func(r chi.Router) {
			r.Get("/", app.SessionGet)
			r.Delete("/", app.SessionReset)
			r.Post("/api-key", app.SessionAPIKey)
			r.Put("/settings", app.SessionSettings)
			r.Delete("/history", app.SessionClearHistory)
		})

		r.Post("/v1/generate", app.Generate)
		r.Post("/v1/prompt/enhance", app.PromptEnhance)
		r.Route("/v1/products", func(r chi.Router) {
			r.Post("/packshot", app.Packshot)
			r.Post("/shadow", app.Shadow)
			r.Post("/lifestyle/text", app.LifestyleText)
			r.Post("/lifestyle/image", app.LifestyleImage)
		})
		r.Post("/v1/edit/fill", app.Fill)
		r.Post("/v1/edit/erase", app.Erase)
		r.Post("/v1/pending/check", app.PendingCheck)

		r.Post("/v1/filters", app.ApplyFilters)
		r.Get("/v1/result/download", app.ResultDownload)
		r.Get("/v1/result/archive", app.ResultArchive)

		r.Route("/v1/auth", func(r chi.Router) {
			r.Post("/signup", app.AuthSignUp)
			r.Post("/signin", app.AuthSignIn)
			r.Post("/signout", app.AuthSignOut)
			r.Post("/reset", app.AuthReset)
			r.Post("/restore", app.AuthRestore)
		})

		r.Get("/v1/preferences", app.PreferencesGet)
		r.Put("/v1/preferences", app.PreferencesPut)

		r.Route("/v1/projects", func(r chi.Router) {
			r.Get("/", app.ProjectsList)
			r.Post("/", app.ProjectsCreate)
			r.Get("/images", app.ProjectsImages)
			r.Get("/{id}", app.ProjectsGet)
			r.Put("/{id}", app.ProjectsUpdate)
			r.Delete("/{id}", app.ProjectsDelete)
		})

		r.Route("/v1/files", func(r chi.Router) {
			r.Get("/", app.FilesList)
			r.Post("/", app.FilesUpload)
			r.Get("/usage", app.FilesUsage)
			r.Get("/*", app.FilesDownload)
			r.Delete("/*", app.FilesDelete)
		})
	})

	return r
}
