// ABOUTME: Per-browser session state for the web UI
// ABOUTME: Registry of ULID-keyed sessions holding chat history, the working checklist and flashes
package session

import (
	"context"
	"sync"
	"time"

	"github.com/jaksim/jaksim/chat"
	"github.com/jaksim/jaksim/checklist"
	"github.com/oklog/ulid/v2"
)

// DefaultIdle is how long an unused session is kept.
const DefaultIdle = 12 * time.Hour

// Flash kinds.
const (
	FlashInfo  = "info"
	FlashError = "error"
)

// Flash is a one-shot message shown on the next page render.
type Flash struct {
	Kind    string
	Message string
}

// Session is the state of one browser. All methods are safe for concurrent use.
type Session struct {
	ID   string
	Chat *chat.Conversation

	mu         sync.Mutex
	book       checklist.Book
	dirty      bool
	flashes    []Flash
	oauthState string
	lastSeen   time.Time
}

// AddFlash queues a message for the next render.
func (s *Session) AddFlash(kind, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flashes = append(s.flashes, Flash{Kind: kind, Message: message})
}

// TakeFlashes returns and clears queued messages.
func (s *Session) TakeFlashes() []Flash {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.flashes
	s.flashes = nil
	return out
}

// SetOAuthState binds a pending consent request to this browser.
func (s *Session) SetOAuthState(state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.oauthState = state
}

// TakeOAuthState returns and clears the pending consent state.
func (s *Session) TakeOAuthState() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.oauthState
	s.oauthState = ""
	return state
}

// EditChecklist runs fn on the session's working Book, loading it from store
// on first use. Changes stay in the session until SaveChecklist.
func (s *Session) EditChecklist(ctx context.Context, store checklist.Store, fn func(checklist.Book) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx, store); err != nil {
		return err
	}
	if err := fn(s.book); err != nil {
		return err
	}
	s.dirty = true
	return nil
}

// ViewChecklist runs fn on the working Book without marking it changed.
func (s *Session) ViewChecklist(ctx context.Context, store checklist.Store, fn func(checklist.Book)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx, store); err != nil {
		return err
	}
	fn(s.book)
	return nil
}

// SaveChecklist writes the working Book to store, overwriting what is stored.
func (s *Session) SaveChecklist(ctx context.Context, store checklist.Store) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx, store); err != nil {
		return err
	}
	if err := store.Save(ctx, s.book); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// ChecklistDirty reports unsaved checklist edits.
func (s *Session) ChecklistDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

func (s *Session) loadLocked(ctx context.Context, store checklist.Store) error {
	if s.book != nil {
		return nil
	}
	book, err := store.Load(ctx)
	if err != nil {
		return err
	}
	if book == nil {
		book = checklist.Book{}
	}
	s.book = book
	return nil
}

// Registry holds live sessions and expires idle ones.
type Registry struct {
	idle         time.Duration
	systemPrompt string
	now          func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates a registry. systemPrompt seeds every new chat.
func NewRegistry(idle time.Duration, systemPrompt string) *Registry {
	if idle <= 0 {
		idle = DefaultIdle
	}
	return &Registry{
		idle:         idle,
		systemPrompt: systemPrompt,
		now:          time.Now,
		sessions:     make(map[string]*Session),
	}
}

// SetClock replaces the time source used for idle expiry.
func (r *Registry) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// Start creates a new session.
func (r *Registry) Start() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &Session{
		ID:       ulid.Make().String(),
		Chat:     chat.NewConversation(r.systemPrompt),
		lastSeen: r.now(),
	}
	r.sessions[s.ID] = s
	return s
}

// Get returns a live session and marks it used. Expired sessions are removed.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	now := r.now()
	if r.expired(s, now) {
		delete(r.sessions, id)
		return nil, false
	}
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
	return s, true
}

// End discards a session.
func (r *Registry) End(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Sweep removes idle sessions and returns how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for id, s := range r.sessions {
		if r.expired(s, now) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) expired(s *Session, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen) > r.idle
}
