package domain

import (
	"path"
	"strings"
	"time"
)

// StoredFile describes one object in user storage.
type StoredFile struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	URL       string    `json:"url"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true, ".bmp": true,
}

// IsListableImage reports whether name is a visible image file.
func IsListableImage(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	return imageExtensions[strings.ToLower(path.Ext(name))]
}
