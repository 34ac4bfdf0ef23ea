package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"stencil/internal/domain"
)

// Projects implements domain.ProjectRepository on the "projects" table.
// Row level security applies, so calls carry the caller's access token.
type Projects struct {
	client *Client
}

// NewProjects wraps a client.
func NewProjects(c *Client) *Projects { return &Projects{client: c} }

type projectRow struct {
	ID           string          `json:"id,omitempty"`
	UserID       string          `json:"user_id,omitempty"`
	Name         string          `json:"name,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
	ThumbnailURL *string         `json:"thumbnail_url,omitempty"`
	CreatedAt    string          `json:"created_at,omitempty"`
	UpdatedAt    string          `json:"updated_at,omitempty"`
}

func (r projectRow) toDomain() domain.Project {
	p := domain.Project{ID: r.ID, UserID: r.UserID, Name: r.Name}
	if r.ThumbnailURL != nil {
		p.ThumbnailURL = *r.ThumbnailURL
	}
	p.Data = DecodeProjectData(r.Data)
	p.CreatedAt = parseTime(r.CreatedAt)
	p.UpdatedAt = parseTime(r.UpdatedAt)
	return p
}

// DecodeProjectData accepts data stored either as a JSON object or as a JSON
// string holding an object. Anything else yields nil.
func DecodeProjectData(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil
	}
	return obj
}

// encodeProjectData stores data as a JSON string, the format the table has
// always held.
func encodeProjectData(data map[string]any) (json.RawMessage, error) {
	inner, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(inner))
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func scoped(userID string, extra ...string) url.Values {
	q := url.Values{"user_id": []string{"eq." + userID}}
	for i := 0; i+1 < len(extra); i += 2 {
		q.Set(extra[i], extra[i+1])
	}
	return q
}

func (p *Projects) Create(ctx context.Context, project *domain.Project) error {
	data, err := encodeProjectData(project.Data)
	if err != nil {
		return fmt.Errorf("supabase: encode project data: %w", err)
	}
	row := projectRow{
		UserID:    project.UserID,
		Name:      project.Name,
		Data:      data,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if project.ThumbnailURL != "" {
		row.ThumbnailURL = &project.ThumbnailURL
	}
	raw, err := p.client.do(ctx, request{
		method:  http.MethodPost,
		path:    "/rest/v1/projects",
		body:    row,
		token:   accessToken(ctx),
		headers: map[string]string{"Prefer": "return=representation"},
	})
	if err != nil {
		return err
	}
	var rows []projectRow
	if err := json.Unmarshal(raw, &rows); err != nil || len(rows) == 0 {
		return fmt.Errorf("supabase: insert returned no project")
	}
	created := rows[0].toDomain()
	project.ID = created.ID
	project.CreatedAt = created.CreatedAt
	project.UpdatedAt = created.UpdatedAt
	return nil
}

func (p *Projects) Update(ctx context.Context, userID, id string, upd domain.ProjectUpdate) error {
	row := projectRow{Name: upd.Name, UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano)}
	if len(upd.Data) > 0 {
		data, err := encodeProjectData(upd.Data)
		if err != nil {
			return fmt.Errorf("supabase: encode project data: %w", err)
		}
		row.Data = data
	}
	if upd.ThumbnailURL != "" {
		row.ThumbnailURL = &upd.ThumbnailURL
	}
	raw, err := p.client.do(ctx, request{
		method:  http.MethodPatch,
		path:    "/rest/v1/projects",
		query:   scoped(userID, "id", "eq."+id),
		body:    row,
		token:   accessToken(ctx),
		headers: map[string]string{"Prefer": "return=representation"},
	})
	if err != nil {
		return err
	}
	var rows []projectRow
	if err := json.Unmarshal(raw, &rows); err == nil && len(rows) == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (p *Projects) Get(ctx context.Context, userID, id string) (*domain.Project, error) {
	rows, err := p.selectRows(ctx, scoped(userID, "id", "eq."+id, "select", "*"))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	out := rows[0].toDomain()
	return &out, nil
}

func (p *Projects) List(ctx context.Context, userID string) ([]domain.Project, error) {
	rows, err := p.selectRows(ctx, scoped(userID,
		"select", "id,name,thumbnail_url,created_at,updated_at",
		"order", "updated_at.desc",
	))
	if err != nil {
		return nil, err
	}
	out := make([]domain.Project, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (p *Projects) ListWithData(ctx context.Context, userID string) ([]domain.Project, error) {
	rows, err := p.selectRows(ctx, scoped(userID, "select", "id,name,data,created_at"))
	if err != nil {
		return nil, err
	}
	out := make([]domain.Project, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (p *Projects) Delete(ctx context.Context, userID, id string) error {
	_, err := p.client.do(ctx, request{
		method: http.MethodDelete,
		path:   "/rest/v1/projects",
		query:  scoped(userID, "id", "eq."+id),
		token:  accessToken(ctx),
	})
	return err
}

func (p *Projects) selectRows(ctx context.Context, q url.Values) ([]projectRow, error) {
	raw, err := p.client.do(ctx, request{method: http.MethodGet, path: "/rest/v1/projects", query: q, token: accessToken(ctx)})
	if err != nil {
		return nil, err
	}
	var rows []projectRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("supabase: decode projects: %w", err)
	}
	return rows, nil
}

// Preferences implements domain.PreferenceRepository on "user_preferences".
type Preferences struct {
	client *Client
}

// NewPreferences wraps a client.
func NewPreferences(c *Client) *Preferences { return &Preferences{client: c} }

type preferenceRow struct {
	UserID string `json:"user_id"`
	domain.Preferences
	UpdatedAt string `json:"updated_at,omitempty"`
}

func (p *Preferences) Get(ctx context.Context, userID string) (*domain.Preferences, error) {
	raw, err := p.client.do(ctx, request{
		method: http.MethodGet,
		path:   "/rest/v1/user_preferences",
		query:  scoped(userID, "select", "*"),
		token:  accessToken(ctx),
	})
	if err != nil {
		return nil, err
	}
	var rows []preferenceRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("supabase: decode preferences: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return &rows[0].Preferences, nil
}

func (p *Preferences) Upsert(ctx context.Context, userID string, prefs domain.Preferences) error {
	_, err := p.client.do(ctx, request{
		method:  http.MethodPost,
		path:    "/rest/v1/user_preferences",
		query:   url.Values{"on_conflict": []string{"user_id"}},
		body:    preferenceRow{UserID: userID, Preferences: prefs, UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano)},
		token:   accessToken(ctx),
		headers: map[string]string{"Prefer": "resolution=merge-duplicates"},
	})
	return err
}

var (
	_ domain.ProjectRepository    = (*Projects)(nil)
	_ domain.PreferenceRepository = (*Preferences)(nil)
)
