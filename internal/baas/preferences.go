package baas

import (
	"context"
	"errors"

	"stencil/internal/domain"
	"stencil/internal/infra"
	"stencil/internal/session"
)

// Preferences reads and writes per-user UI defaults.
type Preferences interface {
	Get(ctx context.Context, st *session.State) domain.Preferences
	Save(ctx context.Context, st *session.State, prefs domain.Preferences) Result
}

type PreferenceService struct {
	repo   domain.PreferenceRepository
	logger *infra.Logger
}

func NewPreferenceService(repo domain.PreferenceRepository, logger *infra.Logger) *PreferenceService {
	return &PreferenceService{repo: repo, logger: orDiscard(logger)}
}

// Get never fails: missing rows, guests and backend errors all yield the defaults.
func (p *PreferenceService) Get(ctx context.Context, st *session.State) domain.Preferences {
	if p.repo == nil || !st.SignedIn() {
		return domain.DefaultPreferences()
	}
	prefs, err := p.repo.Get(userContext(ctx, st), st.UserID())
	observe("preferences", err)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			p.logger.Warn().Err(err).Str("user_id", st.UserID()).Msg("load preferences")
		}
		return domain.DefaultPreferences()
	}
	return *prefs
}

func (p *PreferenceService) Save(ctx context.Context, st *session.State, prefs domain.Preferences) Result {
	if p.repo == nil {
		return unconfigured(msgNotConfigured)
	}
	if !st.SignedIn() {
		return unauthenticated("Please login to save preferences.")
	}
	err := p.repo.Upsert(userContext(ctx, st), st.UserID(), prefs)
	observe("preferences", err)
	if err != nil {
		return fail("Error saving preferences: " + err.Error())
	}
	st.AutoSaveEnabled = prefs.AutoSave
	return success("Preferences saved!")
}

// Apply copies stored defaults into the session's UI values.
func Apply(st *session.State, prefs domain.Preferences) {
	if prefs.DefaultStyle != "" {
		st.SetValue(session.KeySelectedStyle, prefs.DefaultStyle)
	}
	if prefs.DefaultAspectRatio != "" {
		st.SetValue(session.KeySelectedAspect, prefs.DefaultAspectRatio)
	}
	st.AutoSaveEnabled = prefs.AutoSave
}

var _ Preferences = (*PreferenceService)(nil)
