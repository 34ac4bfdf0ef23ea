package handlers

import (
	"net/http"
	"strings"

	"stencil/internal/session"
)

// sessionView is the client-visible part of a session. Credentials stay
// server side.
type sessionView struct {
	ID               string                 `json:"id"`
	HasAPIKey        bool                   `json:"has_api_key"`
	GenerationReady  bool                   `json:"generation_enabled"`
	PendingURLs      []string               `json:"pending_urls"`
	EditedImage      string                 `json:"edited_image,omitempty"`
	GeneratedImages  []string               `json:"generated_images"`
	ImageHistory     []session.HistoryEntry `json:"image_history"`
	GenerationCount  int                    `json:"generation_count"`
	OriginalPrompt   string                 `json:"original_prompt,omitempty"`
	EnhancedPrompt   string                 `json:"enhanced_prompt,omitempty"`
	CurrentProjectID string                 `json:"current_project_id,omitempty"`
	CurrentProject   string                 `json:"current_project_name,omitempty"`
	AutoSaveEnabled  bool                   `json:"auto_save_enabled"`
	User             *session.User          `json:"user,omitempty"`
	Settings         map[string]any         `json:"settings"`
}

func (a *App) view(st *session.State) sessionView {
	return sessionView{
		ID:               st.ID,
		HasAPIKey:        st.APIKey != "",
		GenerationReady:  a.Editor.Enabled(st),
		PendingURLs:      st.PendingURLs,
		EditedImage:      st.EditedImage,
		GeneratedImages:  st.GeneratedImages,
		ImageHistory:     st.ImageHistory,
		GenerationCount:  st.GenerationCount,
		OriginalPrompt:   st.OriginalPrompt,
		EnhancedPrompt:   st.EnhancedPrompt,
		CurrentProjectID: st.CurrentProjectID,
		CurrentProject:   st.CurrentProject,
		AutoSaveEnabled:  st.AutoSaveEnabled,
		User:             st.User,
		Settings:         st.Values,
	}
}

type apiKeyRequest struct {
	APIKey string `json:"api_key"`
}

type settingsRequest struct {
	Settings map[string]any `json:"settings"`
}

func (a *App) SessionGet(w http.ResponseWriter, r *http.Request) {
	var v sessionView
	if a.state(w, r, func(st *session.State) { v = a.view(st) }) {
		a.json(w, http.StatusOK, v)
	}
}

// SessionAPIKey sets the key used for this session's generation calls. An
// empty key falls back to nothing, which disables generation.
func (a *App) SessionAPIKey(w http.ResponseWriter, r *http.Request) {
	var req apiKeyRequest
	if !a.decode(w, r, &req) {
		return
	}
	var v sessionView
	ok := a.state(w, r, func(st *session.State) {
		st.APIKey = strings.TrimSpace(req.APIKey)
		v = a.view(st)
	})
	if !ok {
		return
	}
	if !v.GenerationReady {
		a.logger(r).Warn().Str("session_id", v.ID).Msg("api key cleared, generation disabled")
	}
	a.json(w, http.StatusOK, v)
}

// SessionSettings merges UI settings such as the selected style.
func (a *App) SessionSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if !a.decode(w, r, &req) {
		return
	}
	var v sessionView
	ok := a.state(w, r, func(st *session.State) {
		for k, val := range req.Settings {
			st.SetValue(k, val)
		}
		v = a.view(st)
	})
	if ok {
		a.json(w, http.StatusOK, v)
	}
}

func (a *App) SessionReset(w http.ResponseWriter, r *http.Request) {
	var v sessionView
	if a.state(w, r, func(st *session.State) { st.Reset(); v = a.view(st) }) {
		a.json(w, http.StatusOK, v)
	}
}

func (a *App) SessionClearHistory(w http.ResponseWriter, r *http.Request) {
	var v sessionView
	if a.state(w, r, func(st *session.State) { st.ClearHistory(); v = a.view(st) }) {
		a.json(w, http.StatusOK, v)
	}
}
