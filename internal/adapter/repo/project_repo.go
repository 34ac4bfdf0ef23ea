package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"stencil/internal/domain"
	"stencil/internal/infra"
	"stencil/internal/sqlinline"
)

// ProjectRepositoryPG implements domain.ProjectRepository.
type ProjectRepositoryPG struct {
	db infra.SQLExecutor
}

// NewProjectRepository creates a project repository backed by PostgreSQL.
func NewProjectRepository(db infra.SQLExecutor) *ProjectRepositoryPG {
	return &ProjectRepositoryPG{db: db}
}

// EnsureSchema creates the project and preference tables when missing.
func EnsureSchema(ctx context.Context, db infra.SQLExecutor) error {
	if _, err := db.Exec(ctx, sqlinline.QEnsureSchema); err != nil {
		return fmt.Errorf("repo: ensure schema: %w", err)
	}
	return nil
}

// Create inserts the project and fills in its id and timestamps.
func (r *ProjectRepositoryPG) Create(ctx context.Context, p *domain.Project) error {
	data, err := encodeData(p.Data)
	if err != nil {
		return err
	}
	id := uuid.NewString()
	row := r.db.QueryRow(ctx, sqlinline.QCreateProject, id, p.UserID, p.Name, data, p.ThumbnailURL)
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return err
	}
	p.ID = id
	return nil
}

// Update changes only the non-empty fields of upd.
func (r *ProjectRepositoryPG) Update(ctx context.Context, userID, id string, upd domain.ProjectUpdate) error {
	if !validID(id) {
		return domain.ErrNotFound
	}
	var data []byte
	if len(upd.Data) > 0 {
		encoded, err := encodeData(upd.Data)
		if err != nil {
			return err
		}
		data = encoded
	}
	tag, err := r.db.Exec(ctx, sqlinline.QUpdateProject, id, userID, upd.Name, data, upd.ThumbnailURL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Get returns one project including its data.
func (r *ProjectRepositoryPG) Get(ctx context.Context, userID, id string) (*domain.Project, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	var (
		p   domain.Project
		raw []byte
	)
	err := r.db.QueryRow(ctx, sqlinline.QGetProject, id, userID).
		Scan(&p.ID, &p.UserID, &p.Name, &raw, &p.ThumbnailURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	p.Data = decodeData(raw)
	return &p, nil
}

// List returns the user's projects, most recently updated first.
func (r *ProjectRepositoryPG) List(ctx context.Context, userID string) ([]domain.Project, error) {
	rows, err := r.db.Query(ctx, sqlinline.QListProjects, userID)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row pgx.Rows) (domain.Project, error) {
		var p domain.Project
		err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.ThumbnailURL, &p.CreatedAt, &p.UpdatedAt)
		return p, err
	})
}

// ListWithData returns every project of the user including data.
func (r *ProjectRepositoryPG) ListWithData(ctx context.Context, userID string) ([]domain.Project, error) {
	rows, err := r.db.Query(ctx, sqlinline.QListProjectsWithData, userID)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row pgx.Rows) (domain.Project, error) {
		var (
			p   domain.Project
			raw []byte
		)
		err := row.Scan(&p.ID, &p.UserID, &p.Name, &raw, &p.CreatedAt)
		p.Data = decodeData(raw)
		return p, err
	})
}

// Delete removes the project. Deleting a missing project is not an error.
func (r *ProjectRepositoryPG) Delete(ctx context.Context, userID, id string) error {
	if !validID(id) {
		return nil
	}
	_, err := r.db.Exec(ctx, sqlinline.QDeleteProject, id, userID)
	return err
}

func collect(rows pgx.Rows, scan func(pgx.Rows) (domain.Project, error)) ([]domain.Project, error) {
	defer rows.Close()
	out := []domain.Project{}
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func encodeData(data map[string]any) ([]byte, error) {
	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("repo: encode project data: %w", err)
	}
	return raw, nil
}

// decodeData accepts an object or a JSON string holding one.
func decodeData(raw []byte) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if err := json.Unmarshal([]byte(s), &obj); err == nil {
			return obj
		}
	}
	return nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

var _ domain.ProjectRepository = (*ProjectRepositoryPG)(nil)
