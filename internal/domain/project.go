package domain

import "time"

// Project is a saved snapshot of an editing session.
type Project struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	Name         string         `json:"name"`
	Data         map[string]any `json:"data,omitempty"`
	ThumbnailURL string         `json:"thumbnail_url,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// ProjectUpdate carries the fields to change. Empty fields are left alone.
type ProjectUpdate struct {
	Name         string
	Data         map[string]any
	ThumbnailURL string
}

// Empty reports whether the update changes nothing.
func (u ProjectUpdate) Empty() bool {
	return u.Name == "" && len(u.Data) == 0 && u.ThumbnailURL == ""
}

// ProjectImage is an image URL found inside a saved project.
type ProjectImage struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Path        string `json:"path"`
	CreatedAt   string `json:"created_at"`
	Source      string `json:"source"`
	ProjectName string `json:"project_name"`
}
