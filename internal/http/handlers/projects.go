package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"stencil/internal/baas"
	"stencil/internal/domain"
	"stencil/internal/session"
)

type projectRequest struct {
	Name         string         `json:"name"`
	ThumbnailURL string         `json:"thumbnail_url"`
	Data         map[string]any `json:"data"`
	// SaveState replaces Data with the current session state on update.
	SaveState bool `json:"save_state"`
}

func (a *App) ProjectsList(w http.ResponseWriter, r *http.Request) {
	a.backend(w, r, func(st *session.State) baas.Result {
		return a.Backend.Projects.List(r.Context(), st)
	})
}

// ProjectsCreate saves the current session state as a new project.
func (a *App) ProjectsCreate(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if !a.decode(w, r, &req) {
		return
	}
	a.backend(w, r, func(st *session.State) baas.Result {
		thumb := req.ThumbnailURL
		if thumb == "" {
			thumb = st.EditedImage
		}
		return a.Backend.Projects.Save(r.Context(), st, req.Name, thumb)
	})
}

// ProjectsGet loads a project and restores its state into the session.
func (a *App) ProjectsGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a.backend(w, r, func(st *session.State) baas.Result {
		return a.Backend.Projects.Load(r.Context(), st, id)
	})
}

func (a *App) ProjectsUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req projectRequest
	if !a.decode(w, r, &req) {
		return
	}
	a.backend(w, r, func(st *session.State) baas.Result {
		upd := domain.ProjectUpdate{Name: req.Name, ThumbnailURL: req.ThumbnailURL, Data: req.Data}
		if req.SaveState {
			upd.Data = st.ProjectState()
		}
		return a.Backend.Projects.Update(r.Context(), st, id, upd)
	})
}

func (a *App) ProjectsDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a.backend(w, r, func(st *session.State) baas.Result {
		return a.Backend.Projects.Delete(r.Context(), st, id)
	})
}

func (a *App) ProjectsImages(w http.ResponseWriter, r *http.Request) {
	a.backend(w, r, func(st *session.State) baas.Result {
		return a.Backend.Projects.AllImages(r.Context(), st)
	})
}
