package baas

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"stencil/internal/domain"
)

type fakeAuth struct {
	signIn    *domain.AuthSession
	signInErr error
	signUpErr error
	userErr   error
	refreshed *domain.AuthSession
	signedOut []string
	resets    []string
	gotName   string
}

func (f *fakeAuth) SignUp(_ context.Context, email, _, name string) (*domain.AuthSession, error) {
	f.gotName = name
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return &domain.AuthSession{User: domain.User{ID: "new-user", Email: email, Name: name}}, nil
}

func (f *fakeAuth) SignIn(context.Context, string, string) (*domain.AuthSession, error) {
	return f.signIn, f.signInErr
}

func (f *fakeAuth) SignOut(_ context.Context, token string) error {
	f.signedOut = append(f.signedOut, token)
	return nil
}

func (f *fakeAuth) Refresh(context.Context, string) (*domain.AuthSession, error) {
	if f.refreshed == nil {
		return nil, domain.ErrUnauthorized
	}
	return f.refreshed, nil
}

func (f *fakeAuth) GetUser(_ context.Context, token string) (*domain.User, error) {
	if f.userErr != nil {
		return nil, f.userErr
	}
	return &domain.User{ID: "u1", Email: "ana@example.com"}, nil
}

func (f *fakeAuth) SendPasswordReset(_ context.Context, email string) error {
	f.resets = append(f.resets, email)
	return nil
}

// memProjects keeps projects in memory and remembers the credentials it saw.
type memProjects struct {
	mu       sync.Mutex
	items    map[string]domain.Project
	lastCred domain.Credentials
	err      error
	clock    time.Time
}

func newMemProjects() *memProjects {
	return &memProjects{items: map[string]domain.Project{}, clock: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (m *memProjects) seen(ctx context.Context) {
	m.lastCred, _ = domain.CredentialsFrom(ctx)
}

func (m *memProjects) tick() time.Time {
	m.clock = m.clock.Add(time.Minute)
	return m.clock
}

func (m *memProjects) Create(ctx context.Context, p *domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen(ctx)
	if m.err != nil {
		return m.err
	}
	p.ID = uuid.NewString()
	p.CreatedAt = m.tick()
	p.UpdatedAt = p.CreatedAt
	m.items[p.ID] = *p
	return nil
}

func (m *memProjects) Update(ctx context.Context, userID, id string, upd domain.ProjectUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen(ctx)
	p, ok := m.items[id]
	if !ok || p.UserID != userID {
		return domain.ErrNotFound
	}
	if upd.Name != "" {
		p.Name = upd.Name
	}
	if len(upd.Data) > 0 {
		p.Data = upd.Data
	}
	if upd.ThumbnailURL != "" {
		p.ThumbnailURL = upd.ThumbnailURL
	}
	p.UpdatedAt = m.tick()
	m.items[id] = p
	return nil
}

func (m *memProjects) Get(ctx context.Context, userID, id string) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen(ctx)
	p, ok := m.items[id]
	if !ok || p.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (m *memProjects) List(ctx context.Context, userID string) ([]domain.Project, error) {
	all, err := m.ListWithData(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range all {
		all[i].Data = nil
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UpdatedAt.After(all[j].UpdatedAt) })
	return all, nil
}

func (m *memProjects) ListWithData(ctx context.Context, userID string) ([]domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen(ctx)
	if m.err != nil {
		return nil, m.err
	}
	out := []domain.Project{}
	for _, p := range m.items {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memProjects) Delete(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen(ctx)
	if p, ok := m.items[id]; ok && p.UserID == userID {
		delete(m.items, id)
	}
	return nil
}

type memPrefs struct {
	items map[string]domain.Preferences
	err   error
}

func (m *memPrefs) Get(_ context.Context, userID string) (*domain.Preferences, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.items[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (m *memPrefs) Upsert(_ context.Context, userID string, p domain.Preferences) error {
	if m.err != nil {
		return m.err
	}
	m.items[userID] = p
	return nil
}
