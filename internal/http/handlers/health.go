package handlers

import (
	"context"
	"net/http"
	"time"

	"stencil/internal/filters"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	if a.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.Ping(ctx); err != nil {
			a.logger(r).Warn().Err(err).Msg("health check")
			a.json(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

type configResponse struct {
	GenerationEnabled bool     `json:"generation_enabled"`
	BaaSEnabled       bool     `json:"baas_enabled"`
	ProjectsEnabled   bool     `json:"projects_enabled"`
	StorageEnabled    bool     `json:"storage_enabled"`
	Filters           []string `json:"filters"`
	ImageFormats      []string `json:"image_formats"`
	MaxImageSizeMB    float64  `json:"max_image_size_mb"`
	MaxPendingWait    int      `json:"max_pending_wait_seconds"`
}

// ConfigFlags reports which features this deployment can serve.
func (a *App) ConfigFlags(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, configResponse{
		GenerationEnabled: a.Config.GenerationEnabled(),
		BaaSEnabled:       a.Backend.Enabled(),
		ProjectsEnabled:   a.Backend.Projects.Configured(),
		StorageEnabled:    a.Backend.Storage.Configured(),
		Filters:           filters.Names,
		ImageFormats:      filters.DefaultFormats,
		MaxImageSizeMB:    filters.DefaultMaxSizeMB,
		MaxPendingWait:    int(a.pendingWaitLimit() / time.Second),
	})
}
