package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned by Store.Get for unknown or expired sessions.
var ErrNotFound = errors.New("session: not found")

// Store persists session state between requests.
type Store interface {
	Get(ctx context.Context, id string) (*State, error)
	Save(ctx context.Context, st *State) error
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	raw        []byte
	expiration time.Time
}

// MemoryStore keeps encoded sessions in process memory with an idle TTL.
// Each Get decodes a fresh copy so callers never share a *State.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
	stop    chan struct{}
	done    chan struct{}
}

// NewMemoryStore starts a janitor that evicts idle sessions every cleanupInterval.
// Call Close to stop it.
func NewMemoryStore(ttl, cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go s.janitor(cleanupInterval)
	} else {
		close(s.done)
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, id string) (*State, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok || s.expired(e) {
		return nil, ErrNotFound
	}
	return decodeState(e.raw)
}

func (s *MemoryStore) Save(_ context.Context, st *State) error {
	st.UpdatedAt = s.now().UTC()
	raw, err := encodeState(st)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entries[st.ID] = memoryEntry{raw: raw, expiration: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close stops the janitor.
func (s *MemoryStore) Close() error {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	<-s.done
	return nil
}

func (s *MemoryStore) expired(e memoryEntry) bool {
	return s.ttl > 0 && s.now().After(e.expiration)
}

func (s *MemoryStore) deleteExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for id, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, id)
			count++
		}
	}
	return count
}

func (s *MemoryStore) janitor(interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.deleteExpired()
		case <-s.stop:
			return
		}
	}
}

var _ Store = (*MemoryStore)(nil)
