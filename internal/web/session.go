// Package web provides the HTTP server and web UI for MoodTunes.
package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/justestif/moodtunes/internal/ingest"
	"github.com/justestif/moodtunes/internal/mood"
	"github.com/justestif/moodtunes/internal/recommend"
)

const (
	sessionCookieName = "session_id"
	sessionTTL        = 24 * time.Hour

	// pruneInterval bounds how often Create sweeps expired sessions.
	pruneInterval = 10 * time.Minute
)

// ErrNoPlaylist is returned when recommending before a playlist was loaded.
var ErrNoPlaylist = errors.New("no playlist loaded")

// Session is one user's state: their token, their playlist's mood index and
// the recommendation gate. The mutex serializes requests of one session; it is
// never held across network calls.
type Session struct {
	ID        string
	UserID    string
	UserName  string
	CreatedAt time.Time

	mu       sync.Mutex
	token    *oauth2.Token
	playlist *ingest.Result
	loadedAt time.Time
	gate     recommend.Gate
	reading  *mood.Reading
	flash    *FlashMessage
}

// Token returns the session's OAuth token.
func (s *Session) Token() *oauth2.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// SetToken replaces the OAuth token, e.g. after a refresh.
func (s *Session) SetToken(token *oauth2.Token) {
	if token == nil {
		return
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// SetPlaylist installs a freshly built index. The previous index, the cached
// recommendation set and the last reading are discarded.
func (s *Session) SetPlaylist(res *ingest.Result, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playlist = res
	s.loadedAt = at
	s.gate.Reset()
	s.reading = nil
}

// Playlist returns the current ingest result, or nil, and when it was loaded.
func (s *Session) Playlist() (*ingest.Result, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playlist, s.loadedAt
}

// Recommend records a reading and returns the set to show for it, drawing a
// new one through draw when the gate allows it.
func (s *Session) Recommend(r mood.Reading, draw func(idx *mood.Index) recommend.Set) (recommend.Set, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playlist == nil {
		return recommend.Set{}, false, ErrNoPlaylist
	}

	s.reading = &r
	idx := s.playlist.Index
	set, fresh := s.gate.Next(r, func() recommend.Set { return draw(idx) })
	return set, fresh, nil
}

// Current returns the last drawn set, if any.
func (s *Session) Current() (recommend.Set, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gate.Current()
}

// LastReading returns the most recent reading, or nil.
func (s *Session) LastReading() *mood.Reading {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reading
}

// SetFlash stores a message for the next page render.
func (s *Session) SetFlash(kind, message string) {
	s.mu.Lock()
	s.flash = &FlashMessage{Type: kind, Message: message}
	s.mu.Unlock()
}

// PopFlash returns and clears the pending message.
func (s *Session) PopFlash() *FlashMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.flash
	s.flash = nil
	return f
}

// SessionManager defines the interface for session management.
type SessionManager interface {
	Create(ctx context.Context, token *oauth2.Token, userID, userName string) (*Session, error)
	Get(ctx context.Context, id string) *Session
	Delete(ctx context.Context, id string)
	GetFromRequest(r *http.Request) *Session
	SetCookie(w http.ResponseWriter, session *Session)
	ClearCookie(w http.ResponseWriter)
}

// SessionStore manages user sessions in memory.
type SessionStore struct {
	mu         sync.RWMutex
	sessions   map[string]*Session
	coolDown   time.Duration
	now        func() time.Time
	lastPruned time.Time
}

// NewSessionStore creates a new in-memory session store. New sessions gate
// recommendations with coolDown; zero means recommend.DefaultCoolDown.
func NewSessionStore(coolDown time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		coolDown: coolDown,
		now:      time.Now,
	}
}

// Create generates a new session with the given token and user info.
func (s *SessionStore) Create(_ context.Context, token *oauth2.Token, userID, userName string) (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	session := &Session{
		ID:        id,
		UserID:    userID,
		UserName:  userName,
		CreatedAt: s.now(),
		token:     token,
		gate:      recommend.Gate{CoolDown: s.coolDown},
	}

	s.mu.Lock()
	s.pruneLocked(session.CreatedAt)
	s.sessions[id] = session
	s.mu.Unlock()

	return session, nil
}

// pruneLocked drops expired sessions that were never looked up again.
// The caller holds s.mu.
func (s *SessionStore) pruneLocked(now time.Time) {
	if now.Sub(s.lastPruned) < pruneInterval {
		return
	}
	s.lastPruned = now
	for id, session := range s.sessions {
		if now.Sub(session.CreatedAt) > sessionTTL {
			delete(s.sessions, id)
		}
	}
}

// Get retrieves a session by ID. Expired sessions are dropped.
func (s *SessionStore) Get(_ context.Context, id string) *Session {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	if s.now().Sub(session.CreatedAt) > sessionTTL {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return nil
	}

	return session
}

// Delete removes a session by ID.
func (s *SessionStore) Delete(_ context.Context, id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// GetFromRequest extracts the session from the request cookie.
func (s *SessionStore) GetFromRequest(r *http.Request) *Session {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil
	}
	return s.Get(r.Context(), cookie.Value)
}

// SetCookie sets the session cookie on the response.
func (s *SessionStore) SetCookie(w http.ResponseWriter, session *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionTTL.Seconds()),
	})
}

// ClearCookie removes the session cookie from the response.
func (s *SessionStore) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// generateSessionID creates a cryptographically random session ID.
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

var _ SessionManager = (*SessionStore)(nil)
