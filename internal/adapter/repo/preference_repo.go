package repo

import (
	"context"

	"stencil/internal/domain"
	"stencil/internal/infra"
	"stencil/internal/sqlinline"
)

// PreferenceRepositoryPG implements domain.PreferenceRepository.
type PreferenceRepositoryPG struct {
	db infra.SQLExecutor
}

// NewPreferenceRepository creates a preference repository backed by PostgreSQL.
func NewPreferenceRepository(db infra.SQLExecutor) *PreferenceRepositoryPG {
	return &PreferenceRepositoryPG{db: db}
}

func (r *PreferenceRepositoryPG) Get(ctx context.Context, userID string) (*domain.Preferences, error) {
	var p domain.Preferences
	err := r.db.QueryRow(ctx, sqlinline.QGetPreferences, userID).
		Scan(&p.DefaultStyle, &p.DefaultAspectRatio, &p.Theme, &p.AutoSave)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PreferenceRepositoryPG) Upsert(ctx context.Context, userID string, p domain.Preferences) error {
	_, err := r.db.Exec(ctx, sqlinline.QUpsertPreferences, userID, p.DefaultStyle, p.DefaultAspectRatio, p.Theme, p.AutoSave)
	return err
}

var _ domain.PreferenceRepository = (*PreferenceRepositoryPG)(nil)
