package session

import (
	"sync"
	"time"
)

// Profile is the subset of the user profile fetched from the platform.
type Profile struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Locale    string  `json:"locale"`
	Timezone  float64 `json:"timezone"`
	Gender    string  `json:"gender"`
}

// Session is the per-user conversation state. Handlers hold a reference
// to the registry's record; only the registry calls Apply.
type Session struct {
	UserID    string
	CreatedAt time.Time

	mu      sync.RWMutex
	profile *Profile
	locale  string
}

// New creates an empty session with the fallback locale.
func New(userID, locale string) *Session {
	return &Session{
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
		locale:    locale,
	}
}

// Apply records the outcome of a profile fetch. A nil profile keeps the
// current locale.
func (s *Session) Apply(profile *Profile, locale string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if profile != nil {
		p := *profile
		s.profile = &p
	}
	if locale != "" {
		s.locale = locale
	}
}

// Profile returns a copy of the profile, or nil if none was fetched.
func (s *Session) Profile() *Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

// Locale is the resolved locale used for message lookup.
func (s *Session) Locale() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locale
}

// FirstName returns the profile first name or "".
func (s *Session) FirstName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return ""
	}
	return s.profile.FirstName
}
