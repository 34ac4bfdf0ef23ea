package baas

import (
	"context"
	"errors"
	"fmt"
	"math"
	"mime"
	"path"
	"strings"
	"time"

	"stencil/internal/domain"
	"stencil/internal/infra"
	"stencil/internal/session"
)

const (
	DefaultBucket = "user-files"
	DefaultFolder = "images"
)

// Storage manages the signed-in user's files under {user_id}/{folder}/{name}.
type Storage interface {
	Upload(ctx context.Context, st *session.State, data []byte, filename, folder string) Result
	Download(ctx context.Context, st *session.State, filePath string) Result
	List(ctx context.Context, st *session.State, folder string) Result
	Delete(ctx context.Context, st *session.State, filePath string) Result
	Usage(ctx context.Context, st *session.State, folder string) Result
	PublicURL(filePath string) string
}

// Usage summarizes the files of one folder.
type Usage struct {
	TotalFiles  int     `json:"total_files"`
	TotalSize   int64   `json:"total_size"`
	TotalSizeMB float64 `json:"total_size_mb"`
}

type StorageService struct {
	store  domain.ObjectStore
	bucket string
	logger *infra.Logger
	now    func() time.Time
}

func NewStorageService(store domain.ObjectStore, bucket string, logger *infra.Logger) *StorageService {
	if bucket == "" {
		bucket = DefaultBucket
	}
	return &StorageService{store: store, bucket: bucket, logger: orDiscard(logger), now: time.Now}
}

func (s *StorageService) Configured() bool { return s.store != nil }

// Upload stores data. An existing file with the same path counts as success.
func (s *StorageService) Upload(ctx context.Context, st *session.State, data []byte, filename, folder string) Result {
	if !st.SignedIn() {
		return unauthenticated("Please login to upload files.")
	}
	if s.store == nil {
		return unconfigured(msgStorageNotConfigured)
	}
	if filename == "" {
		filename = "image_" + s.now().Format("20060102_150405") + ".png"
	}
	if folder == "" {
		folder = DefaultFolder
	}
	if !validFolder(folder) {
		return rejected(msgInvalidFolder)
	}
	key := path.Join(st.UserID(), folder, path.Base(filename))
	if !owns(st, key) {
		return rejected(msgInvalidFolder)
	}

	err := s.store.Put(userContext(ctx, st), key, data, contentType(filename))
	observe("storage", err)
	switch {
	case errors.Is(err, domain.ErrAlreadyExists) && owns(st, key):
		res := success("File already exists.")
		res.URL, res.Path = s.store.PublicURL(key), key
		return res
	case errors.Is(err, domain.ErrBucketNotFound):
		return unconfigured(fmt.Sprintf("Storage bucket '%s' not found. Please create it in Supabase dashboard.", s.bucket))
	case err != nil:
		return fail("Upload error: " + err.Error())
	}
	s.logger.Info().Str("user_id", st.UserID()).Str("path", key).Int("bytes", len(data)).Msg("file uploaded")
	res := success("Image uploaded successfully!")
	res.URL, res.Path = s.store.PublicURL(key), key
	return res
}

func (s *StorageService) Download(ctx context.Context, st *session.State, filePath string) Result {
	if !st.SignedIn() {
		return unauthenticated("Please login to download files.")
	}
	if s.store == nil {
		return unconfigured(msgStorageNotConfigured)
	}
	if !owns(st, filePath) {
		return notFound("Download error: " + domain.ErrNotFound.Error())
	}
	data, err := s.store.Get(userContext(ctx, st), filePath)
	observe("storage", err)
	if err != nil {
		return fail("Download error: " + err.Error())
	}
	res := success("Image downloaded!")
	res.Data, res.Path = data, filePath
	return res
}

// List returns the visible images directly inside folder, or the user's
// root when folder is empty.
func (s *StorageService) List(ctx context.Context, st *session.State, folder string) Result {
	if !st.SignedIn() {
		return unauthenticated("Please login to view files.")
	}
	if s.store == nil {
		return unconfigured("Storage not configured. Please check Supabase credentials.")
	}
	prefix := st.UserID()
	if folder != "" {
		if !validFolder(folder) {
			return rejected(msgInvalidFolder)
		}
		prefix = path.Join(prefix, folder)
		if prefix != st.UserID() && !owns(st, prefix) {
			return rejected(msgInvalidFolder)
		}
	}
	items, err := s.store.List(userContext(ctx, st), prefix)
	observe("storage", err)
	if err != nil {
		return fail("Error listing files: " + err.Error())
	}
	files := make([]domain.StoredFile, 0, len(items))
	for _, f := range items {
		if !domain.IsListableImage(f.Name) {
			s.logger.Debug().Str("name", f.Name).Msg("skipping non-image entry")
			continue
		}
		if f.Path == "" {
			f.Path = prefix + "/" + f.Name
		}
		if f.URL == "" {
			f.URL = s.store.PublicURL(f.Path)
		}
		files = append(files, f)
	}
	res := success(fmt.Sprintf("Found %d files.", len(files)))
	res.Files = files
	return res
}

func (s *StorageService) Delete(ctx context.Context, st *session.State, filePath string) Result {
	if !st.SignedIn() {
		return unauthenticated("Please login to delete files.")
	}
	if s.store == nil {
		return unconfigured(msgStorageNotConfigured)
	}
	if !owns(st, filePath) {
		return notFound("Delete error: " + domain.ErrNotFound.Error())
	}
	err := s.store.Delete(userContext(ctx, st), filePath)
	observe("storage", err)
	if err != nil {
		return fail("Delete error: " + err.Error())
	}
	return success("File deleted.")
}

// Usage totals the listed files of folder, DefaultFolder when empty.
func (s *StorageService) Usage(ctx context.Context, st *session.State, folder string) Result {
	if folder == "" {
		folder = DefaultFolder
	}
	listed := s.List(ctx, st, folder)
	if !listed.Success {
		return Result{Message: listed.Message, Reason: listed.Reason, Usage: &Usage{}}
	}
	u := &Usage{TotalFiles: len(listed.Files)}
	for _, f := range listed.Files {
		u.TotalSize += f.Size
	}
	u.TotalSizeMB = math.Round(float64(u.TotalSize)/(1024*1024)*100) / 100
	res := success(fmt.Sprintf("Found %d files.", u.TotalFiles))
	res.Usage = u
	return res
}

func (s *StorageService) PublicURL(filePath string) string {
	if s.store == nil {
		return ""
	}
	return s.store.PublicURL(filePath)
}

// validFolder accepts relative folder names without parent segments.
func validFolder(folder string) bool {
	if strings.HasPrefix(folder, "/") || strings.Contains(folder, "\\") {
		return false
	}
	for _, seg := range strings.Split(folder, "/") {
		if seg == ".." {
			return false
		}
	}
	return true
}

func owns(st *session.State, filePath string) bool {
	clean := path.Clean("/" + filePath)
	return strings.HasPrefix(clean, "/"+st.UserID()+"/")
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

var _ Storage = (*StorageService)(nil)
