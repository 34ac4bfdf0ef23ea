package domain

import "context"

// AuthProvider signs users in and out of the backend service.
type AuthProvider interface {
	SignUp(ctx context.Context, email, password, name string) (*AuthSession, error)
	SignIn(ctx context.Context, email, password string) (*AuthSession, error)
	SignOut(ctx context.Context, accessToken string) error
	Refresh(ctx context.Context, refreshToken string) (*AuthSession, error)
	GetUser(ctx context.Context, accessToken string) (*User, error)
	SendPasswordReset(ctx context.Context, email string) error
}

// ProjectRepository persists projects. Every call is scoped to userID.
type ProjectRepository interface {
	Create(ctx context.Context, p *Project) error
	Update(ctx context.Context, userID, id string, upd ProjectUpdate) error
	Get(ctx context.Context, userID, id string) (*Project, error)
	// List returns projects newest first without their data.
	List(ctx context.Context, userID string) ([]Project, error)
	// ListWithData returns every project including data, in no particular order.
	ListWithData(ctx context.Context, userID string) ([]Project, error)
	Delete(ctx context.Context, userID, id string) error
}

// PreferenceRepository persists per-user preferences.
type PreferenceRepository interface {
	Get(ctx context.Context, userID string) (*Preferences, error)
	Upsert(ctx context.Context, userID string, prefs Preferences) error
}

// ObjectStore keeps user files. Keys are slash separated paths.
type ObjectStore interface {
	// Put fails with ErrAlreadyExists when key is taken.
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns the direct children of prefix.
	List(ctx context.Context, prefix string) ([]StoredFile, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}
