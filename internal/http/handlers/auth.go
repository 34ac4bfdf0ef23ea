package handlers

import (
	"net/http"
	"strings"

	"stencil/internal/baas"
	"stencil/internal/session"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type restoreRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// result writes a backend answer, keeping its {success, message} body and
// picking the status code from its failure reason.
func (a *App) result(w http.ResponseWriter, res baas.Result) {
	code := http.StatusOK
	if !res.Success {
		switch res.Reason {
		case baas.ReasonUnconfigured:
			code = http.StatusServiceUnavailable
		case baas.ReasonUnauthenticated:
			code = http.StatusUnauthorized
		case baas.ReasonRejected:
			code = http.StatusBadRequest
		case baas.ReasonNotFound:
			code = http.StatusNotFound
		default:
			code = http.StatusBadGateway
		}
	}
	a.json(w, code, res)
}

// backend runs fn on the caller's session and writes its result.
func (a *App) backend(w http.ResponseWriter, r *http.Request, fn func(st *session.State) baas.Result) {
	var res baas.Result
	if a.state(w, r, func(st *session.State) { res = fn(st) }) {
		a.result(w, res)
	}
}

func (a *App) AuthSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !a.decode(w, r, &req) {
		return
	}
	if !validCredentials(req) {
		a.error(w, http.StatusBadRequest, "bad_request", "Please enter email and password.")
		return
	}
	a.result(w, a.Backend.Auth.SignUp(r.Context(), strings.TrimSpace(req.Email), req.Password, req.Name))
}

// AuthSignIn signs in and applies the user's stored preferences to the session.
func (a *App) AuthSignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !a.decode(w, r, &req) {
		return
	}
	if !validCredentials(req) {
		a.error(w, http.StatusBadRequest, "bad_request", "Please enter email and password.")
		return
	}
	a.backend(w, r, func(st *session.State) baas.Result {
		res := a.Backend.Auth.SignIn(r.Context(), st, strings.TrimSpace(req.Email), req.Password)
		if res.Success {
			baas.Apply(st, a.Backend.Preferences.Get(r.Context(), st))
		}
		return res
	})
}

func (a *App) AuthSignOut(w http.ResponseWriter, r *http.Request) {
	a.backend(w, r, func(st *session.State) baas.Result {
		return a.Backend.Auth.SignOut(r.Context(), st)
	})
}

func (a *App) AuthRestore(w http.ResponseWriter, r *http.Request) {
	var req restoreRequest
	if !a.decode(w, r, &req) {
		return
	}
	a.backend(w, r, func(st *session.State) baas.Result {
		access, refresh := req.AccessToken, req.RefreshToken
		if access == "" && refresh == "" && st.Tokens != nil {
			access, refresh = st.Tokens.AccessToken, st.Tokens.RefreshToken
		}
		res := a.Backend.Auth.RestoreSession(r.Context(), st, access, refresh)
		if res.Success {
			baas.Apply(st, a.Backend.Preferences.Get(r.Context(), st))
		}
		return res
	})
}

func (a *App) AuthReset(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !a.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "Please enter your email.")
		return
	}
	a.result(w, a.Backend.Auth.SendPasswordReset(r.Context(), strings.TrimSpace(req.Email)))
}

func validCredentials(req credentialsRequest) bool {
	return strings.TrimSpace(req.Email) != "" && req.Password != ""
}
