// Package session keeps the mutable per-visitor state that the editor
// operations read and write: the API key, pending jobs, the current result,
// history, the signed-in user and free-form UI settings.
package session

import (
	"encoding/json"
	"time"
)

// TimestampLayout formats history timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// HistoryEntry records one produced image.
type HistoryEntry struct {
	URL       string `json:"url"`
	Type      string `json:"type"`
	Prompt    string `json:"prompt"`
	Timestamp string `json:"timestamp"`
}

// User is the signed-in BaaS account attached to a session.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Tokens are the BaaS credentials of the signed-in user.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// State is everything one session owns. It is not safe for concurrent use;
// callers go through Manager, which serialises access per session id.
type State struct {
	ID               string         `json:"id"`
	APIKey           string         `json:"api_key,omitempty"`
	PendingURLs      []string       `json:"pending_urls"`
	PendingOperation string         `json:"pending_operation,omitempty"`
	PendingPrompt    string         `json:"pending_prompt,omitempty"`
	EditedImage      string         `json:"edited_image,omitempty"`
	GeneratedImages  []string       `json:"generated_images"`
	ImageHistory     []HistoryEntry `json:"image_history"`
	GenerationCount  int            `json:"generation_count"`
	OriginalPrompt   string         `json:"original_prompt"`
	EnhancedPrompt   string         `json:"enhanced_prompt,omitempty"`
	CurrentProjectID string         `json:"current_project_id,omitempty"`
	CurrentProject   string         `json:"current_project_name,omitempty"`
	AutoSaveEnabled  bool           `json:"auto_save_enabled"`
	GuestMode        bool           `json:"guest_mode"`
	User             *User          `json:"user,omitempty"`
	Tokens           *Tokens        `json:"tokens,omitempty"`
	Values           map[string]any `json:"values"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// New returns a session with default settings.
func New(id, apiKey string) *State {
	now := time.Now().UTC()
	st := &State{ID: id, APIKey: apiKey, CreatedAt: now, UpdatedAt: now}
	st.applyDefaults()
	return st
}

func (s *State) applyDefaults() {
	s.PendingURLs = []string{}
	s.GeneratedImages = []string{}
	s.ImageHistory = []HistoryEntry{}
	s.AutoSaveEnabled = true
	s.Values = map[string]any{
		"selected_style":        "Realistic",
		"selected_aspect_ratio": "1:1",
		"seed":                  0,
	}
}

// Reset returns the state to its defaults, keeping the id and API key.
func (s *State) Reset() {
	id, key, created := s.ID, s.APIKey, s.CreatedAt
	*s = State{ID: id, APIKey: key, CreatedAt: created, UpdatedAt: time.Now().UTC()}
	s.applyDefaults()
}

// RecordHistory appends one entry and bumps the generation counter.
func (s *State) RecordHistory(url, operation, prompt string, now time.Time) {
	s.ImageHistory = append(s.ImageHistory, HistoryEntry{
		URL:       url,
		Type:      operation,
		Prompt:    prompt,
		Timestamp: now.Format(TimestampLayout),
	})
	s.GenerationCount++
}

// ClearHistory drops every history entry and zeroes the counter.
func (s *State) ClearHistory() {
	s.ImageHistory = []HistoryEntry{}
	s.GenerationCount = 0
}

// SetResult makes url the current result.
func (s *State) SetResult(url string) {
	s.EditedImage = url
}

// SetGallery keeps urls as the generated gallery when there is more than
// one, and empties it otherwise.
func (s *State) SetGallery(urls []string) {
	if len(urls) > 1 {
		s.GeneratedImages = append([]string(nil), urls...)
		return
	}
	s.GeneratedImages = []string{}
}

// SetPending replaces the pending set.
func (s *State) SetPending(urls []string, operation, prompt string) {
	s.PendingURLs = append([]string(nil), urls...)
	s.PendingOperation = operation
	s.PendingPrompt = prompt
}

// HasPending reports whether any job is still waiting.
func (s *State) HasPending() bool { return len(s.PendingURLs) > 0 }

// SignedIn reports whether a BaaS user is attached.
func (s *State) SignedIn() bool { return s.User != nil && s.User.ID != "" }

// SignIn attaches the user and its tokens and leaves guest mode.
func (s *State) SignIn(user User, tokens Tokens) {
	s.User = &user
	s.Tokens = &tokens
	s.GuestMode = false
}

// SignOut forgets the user, its tokens and the selected project.
func (s *State) SignOut() {
	s.User = nil
	s.Tokens = nil
	s.CurrentProjectID = ""
	s.CurrentProject = ""
}

// AccessToken returns the BaaS access token or "".
func (s *State) AccessToken() string {
	if s.Tokens == nil {
		return ""
	}
	return s.Tokens.AccessToken
}

// UserID returns the signed-in user id or "".
func (s *State) UserID() string {
	if s.User == nil {
		return ""
	}
	return s.User.ID
}

// Value reads a UI setting.
func (s *State) Value(key string) (any, bool) {
	v, ok := s.Values[key]
	return v, ok
}

// StringValue reads a UI setting as a string, or fallback.
func (s *State) StringValue(key, fallback string) string {
	if v, ok := s.Values[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// SetValue stores a UI setting.
func (s *State) SetValue(key string, v any) {
	if s.Values == nil {
		s.Values = map[string]any{}
	}
	s.Values[key] = v
}

func encodeState(s *State) ([]byte, error) {
	return json.Marshal(s)
}

func decodeState(raw []byte) (*State, error) {
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, err
	}
	if st.Values == nil {
		st.Values = map[string]any{}
	}
	if st.PendingURLs == nil {
		st.PendingURLs = []string{}
	}
	if st.GeneratedImages == nil {
		st.GeneratedImages = []string{}
	}
	if st.ImageHistory == nil {
		st.ImageHistory = []HistoryEntry{}
	}
	return &st, nil
}
