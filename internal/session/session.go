// Package session manages web UI sessions.
//
// Types:
//   - Session: Holds per-panel flash messages and action logs for one browser.
//   - SessionManager: Manages all active sessions.
//
// Expected outputs:
// - Session IDs are unique (UUID)
// - Each panel keeps at most MaxLogEntries log entries, newest first
// - Sessions idle for longer than the TTL are swept
//
// Used by the web views to report the outcome of management actions.
package session

import (
	"context"
	"log"
	"sync"
	"time"

	"go-formfill/internal/utils"
)

// MaxLogEntries is how many actions each panel remembers.
const MaxLogEntries = 5

type Entry struct {
	Time    time.Time
	Message string
	Failed  bool
}

type Session struct {
	ID        string
	CreatedAt time.Time
	LastSeen  time.Time
	flash     map[string]string
	logs      map[string][]Entry
	Mutex     sync.Mutex
}

type SessionManager struct {
	Sessions map[string]*Session
	Mutex    sync.RWMutex
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		Sessions: make(map[string]*Session),
	}
}

func (sm *SessionManager) CreateSession() *Session {
	sm.Mutex.Lock()
	defer sm.Mutex.Unlock()

	now := time.Now()
	session := &Session{
		ID:        utils.GenerateUUID(),
		CreatedAt: now,
		LastSeen:  now,
		flash:     make(map[string]string),
		logs:      make(map[string][]Entry),
	}
	sm.Sessions[session.ID] = session
	return session
}

func (sm *SessionManager) GetSession(id string) (*Session, bool) {
	sm.Mutex.RLock()
	defer sm.Mutex.RUnlock()
	session, exists := sm.Sessions[id]
	return session, exists
}

func (sm *SessionManager) DeleteSession(id string) {
	sm.Mutex.Lock()
	defer sm.Mutex.Unlock()
	delete(sm.Sessions, id)
}

// Sweep drops sessions not seen within ttl and returns how many were removed.
func (sm *SessionManager) Sweep(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)
	sm.Mutex.Lock()
	defer sm.Mutex.Unlock()
	removed := 0
	for id, s := range sm.Sessions {
		if s.lastSeen().Before(cutoff) {
			delete(sm.Sessions, id)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps expired sessions every interval until ctx is done.
func (sm *SessionManager) StartJanitor(ctx context.Context, every, ttl time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := sm.Sweep(ttl); n > 0 {
					log.Printf("[INFO] swept %d expired UI sessions", n)
				}
			}
		}
	}()
}

func (s *Session) lastSeen() time.Time {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	return s.LastSeen
}

func (s *Session) Touch() {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	s.LastSeen = time.Now()
}

// Flash sets the one-shot message shown on the panel's next render.
func (s *Session) Flash(panel, msg string) {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	s.flash[panel] = msg
}

// TakeFlash returns and clears the panel's flash message.
func (s *Session) TakeFlash(panel string) string {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	msg := s.flash[panel]
	delete(s.flash, panel)
	return msg
}

// Log records an action for the panel, keeping the newest MaxLogEntries.
func (s *Session) Log(panel, msg string, failed bool) {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	entries := append([]Entry{{Time: time.Now(), Message: msg, Failed: failed}}, s.logs[panel]...)
	if len(entries) > MaxLogEntries {
		entries = entries[:MaxLogEntries]
	}
	s.logs[panel] = entries
}

// Entries returns a copy of the panel's log, newest first.
func (s *Session) Entries(panel string) []Entry {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	return append([]Entry(nil), s.logs[panel]...)
}
