package session

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Manager loads, locks and saves sessions. Every interaction with one
// session runs under that session's mutex, so requests from the same visitor
// are handled one at a time while different visitors proceed in parallel.
type Manager struct {
	store         Store
	defaultAPIKey string
	logger        zerolog.Logger

	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

// NewManager wires a store. defaultAPIKey seeds new sessions.
func NewManager(store Store, defaultAPIKey string, logger zerolog.Logger) *Manager {
	return &Manager{
		store:         store,
		defaultAPIKey: defaultAPIKey,
		logger:        logger,
		locks:         make(map[string]*keyedLock),
	}
}

// NewID returns a fresh random session id.
func NewID() string { return uuid.NewString() }

// With runs fn with exclusive access to the session and saves it afterwards.
// An unknown id starts a new session under that id. When fn fails the
// session is not saved, so earlier state stays as it was.
func (m *Manager) With(ctx context.Context, id string, fn func(st *State) error) error {
	unlock := m.lock(id)
	defer unlock()

	st, err := m.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		st = New(id, m.defaultAPIKey)
		m.logger.Debug().Str("session_id", id).Msg("session created")
	} else if err != nil {
		return err
	}
	if err := fn(st); err != nil {
		return err
	}
	return m.store.Save(ctx, st)
}

// Delete removes the stored session.
func (m *Manager) Delete(ctx context.Context, id string) error {
	unlock := m.lock(id)
	defer unlock()
	return m.store.Delete(ctx, id)
}

func (m *Manager) lock(id string) func() {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &keyedLock{}
		m.locks[id] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, id)
		}
		m.mu.Unlock()
	}
}
