package survey

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SaveState tracks the per-session "already saved" guard.
type SaveState int

const (
	SaveIdle SaveState = iota
	SaveInProgress
	SaveDone
)

func (s SaveState) String() string {
	switch s {
	case SaveInProgress:
		return "saving"
	case SaveDone:
		return "saved"
	default:
		return "idle"
	}
}

// MarshalText encodes the save state by name.
func (s SaveState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Session is one user's in-progress survey. All access to the wizard goes
// through the session lock.
type Session struct {
	id        string
	createdAt time.Time

	mu       sync.Mutex
	wizard   *Wizard
	userID   string
	save     SaveState
	lastSeen time.Time
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// CreatedAt returns when the session was started.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Update runs fn with exclusive access to the wizard.
func (s *Session) Update(fn func(w *Wizard)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.wizard)
}

// State returns a snapshot of the wizard.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wizard.State()
}

// UserID returns the owner of the session, empty while anonymous.
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// BindUser records userID as the owner of an anonymous session. It reports
// whether the session is owned by userID afterwards; a session owned by
// someone else is left unchanged.
func (s *Session) BindUser(userID string) bool {
	if userID == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID == "" {
		s.userID = userID
	}
	return s.userID == userID
}

// SaveState returns the current state of the save guard.
func (s *Session) SaveState() SaveState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save
}

// ClaimSave moves the guard from idle to saving and returns a snapshot of
// the wizard to persist. It returns false when a save is in flight or has
// already completed.
func (s *Session) ClaimSave() (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.save != SaveIdle {
		return State{}, false
	}
	s.save = SaveInProgress
	return s.wizard.State(), true
}

// CompleteSave marks the survey as saved for the rest of the session.
func (s *Session) CompleteSave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.save = SaveDone
}

// ReleaseSave returns a failed save to idle so it can be attempted again.
func (s *Session) ReleaseSave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.save == SaveInProgress {
		s.save = SaveIdle
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// SessionManager holds the in-progress surveys keyed by session id.
type SessionManager struct {
	sessions  map[string]*Session
	mu        sync.RWMutex
	locations LocationLookup
	now       func() time.Time
}

// NewSessionManager creates a new session manager.
func NewSessionManager(locations LocationLookup) *SessionManager {
	return &SessionManager{
		sessions:  make(map[string]*Session),
		locations: locations,
		now:       time.Now,
	}
}

// CreateSession starts a new survey, optionally owned by userID.
func (sm *SessionManager) CreateSession(userID string) *Session {
	now := sm.now()
	session := &Session{
		id:        uuid.NewString(),
		createdAt: now,
		wizard:    NewWizard(sm.locations),
		userID:    userID,
		lastSeen:  now,
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.sessions[session.id] = session
	return session
}

// GetSession retrieves a session and refreshes its idle timer.
func (sm *SessionManager) GetSession(id string) (*Session, bool) {
	sm.mu.RLock()
	session, exists := sm.sessions[id]
	sm.mu.RUnlock()
	if !exists {
		return nil, false
	}
	session.touch(sm.now())
	return session, true
}

// ClearSession removes a session.
func (sm *SessionManager) ClearSession(id string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, id)
}

// Sweep evicts sessions idle for longer than maxIdle and returns how many
// were removed.
func (sm *SessionManager) Sweep(maxIdle time.Duration) int {
	cutoff := sm.now().Add(-maxIdle)

	sm.mu.Lock()
	defer sm.mu.Unlock()
	removed := 0
	for id, session := range sm.sessions {
		if session.idleSince().Before(cutoff) {
			delete(sm.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions.
func (sm *SessionManager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}
