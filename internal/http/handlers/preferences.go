package handlers

import (
	"net/http"

	"stencil/internal/baas"
	"stencil/internal/domain"
	"stencil/internal/session"
)

func (a *App) PreferencesGet(w http.ResponseWriter, r *http.Request) {
	var prefs domain.Preferences
	if a.state(w, r, func(st *session.State) { prefs = a.Backend.Preferences.Get(r.Context(), st) }) {
		a.json(w, http.StatusOK, prefs)
	}
}

// PreferencesPut stores preferences and applies them to the current session.
func (a *App) PreferencesPut(w http.ResponseWriter, r *http.Request) {
	prefs := domain.DefaultPreferences()
	if !a.decode(w, r, &prefs) {
		return
	}
	a.backend(w, r, func(st *session.State) baas.Result {
		res := a.Backend.Preferences.Save(r.Context(), st, prefs)
		if res.Success {
			baas.Apply(st, prefs)
		}
		return res
	})
}
