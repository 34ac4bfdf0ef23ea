package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"stencil/internal/domain"
)

// Storage implements domain.ObjectStore on the storage API of one bucket.
type Storage struct {
	client *Client
}

// NewStorage wraps a client; the bucket comes from Options.Bucket.
func NewStorage(c *Client) *Storage { return &Storage{client: c} }

func (s *Storage) objectPath(key string) string {
	return "/storage/v1/object/" + s.client.bucket + "/" + escapeKey(key)
}

func escapeKey(key string) string {
	parts := strings.Split(strings.Trim(key, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func (s *Storage) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.do(ctx, request{
		method:      http.MethodPost,
		path:        s.objectPath(key),
		raw:         data,
		contentType: contentType,
		token:       accessToken(ctx),
		headers:     map[string]string{"x-upsert": "false", "cache-control": "3600"},
	})
	return err
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	return s.client.do(ctx, request{method: http.MethodGet, path: s.objectPath(key), token: accessToken(ctx)})
}

type listedObject struct {
	Name      string         `json:"name"`
	ID        *string        `json:"id"`
	CreatedAt string         `json:"created_at"`
	Metadata  map[string]any `json:"metadata"`
}

func (s *Storage) List(ctx context.Context, prefix string) ([]domain.StoredFile, error) {
	prefix = strings.Trim(prefix, "/")
	raw, err := s.client.do(ctx, request{
		method: http.MethodPost,
		path:   "/storage/v1/object/list/" + s.client.bucket,
		body: map[string]any{
			"prefix": prefix,
			"limit":  1000,
			"offset": 0,
			"sortBy": map[string]string{"column": "name", "order": "asc"},
		},
		token: accessToken(ctx),
	})
	if err != nil {
		return nil, err
	}
	var objects []listedObject
	if err := json.Unmarshal(raw, &objects); err != nil {
		return nil, fmt.Errorf("supabase: decode list: %w", err)
	}
	out := make([]domain.StoredFile, 0, len(objects))
	for _, o := range objects {
		if o.Name == "" {
			continue
		}
		key := path.Join(prefix, o.Name)
		out = append(out, domain.StoredFile{
			Name:      o.Name,
			Path:      key,
			URL:       s.PublicURL(key),
			Size:      metadataSize(o.Metadata),
			CreatedAt: parseTime(o.CreatedAt),
		})
	}
	return out, nil
}

func metadataSize(meta map[string]any) int64 {
	switch v := meta["size"].(type) {
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	default:
		return 0
	}
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.do(ctx, request{
		method: http.MethodDelete,
		path:   "/storage/v1/object/" + s.client.bucket,
		body:   map[string]any{"prefixes": []string{strings.Trim(key, "/")}},
		token:  accessToken(ctx),
	})
	return err
}

func (s *Storage) PublicURL(key string) string {
	return s.client.baseURL + "/storage/v1/object/public/" + s.client.bucket + "/" + escapeKey(key)
}

var _ domain.ObjectStore = (*Storage)(nil)
