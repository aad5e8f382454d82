package quiz

import "sync"

// Registry holds at most one live session per user
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	options  func(userID string) []Option
}

// NewRegistry creates a registry. options, when non-nil, supplies the
// session options for a user, typically a completion callback.
func NewRegistry(options func(userID string) []Option) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		options:  options,
	}
}

// Start replaces the user's session with a new play-through of mode.
// The previous session is closed, canceling its pending auto-advance.
func (r *Registry) Start(userID string, mode Mode) (*Session, View, error) {
	var opts []Option
	if r.options != nil {
		opts = r.options(userID)
	}
	s := NewSession(opts...)

	r.mu.Lock()
	old := r.sessions[userID]
	r.sessions[userID] = s
	r.mu.Unlock()

	if old != nil {
		old.Close()
	}

	view, err := s.Start(mode)
	return s, view, err
}

// Get returns the user's live session, or nil
func (r *Registry) Get(userID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[userID]
}

// Reset closes and forgets the user's session
func (r *Registry) Reset(userID string) {
	r.mu.Lock()
	s := r.sessions[userID]
	delete(r.sessions, userID)
	r.mu.Unlock()

	if s != nil {
		s.Close()
	}
}

// CloseAll closes every session, for shutdown
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
