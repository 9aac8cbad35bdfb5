package main

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// pendingLoginTTL bounds the time between the authorization redirect and the callback
	pendingLoginTTL = 10 * time.Minute
	sessionTTL      = 8 * time.Hour
)

// Session is a logged in user
type Session struct {
	ID           string
	Subject      string
	AccessToken  string
	IDToken      string
	RefreshToken string
	TokenExpiry  time.Time
	UserInfo     map[string]interface{}
	ExpiresAt    time.Time
}

// pendingLogin keeps the PKCE verifier of an authorization attempt, keyed by state
type pendingLogin struct {
	CodeVerifier string
	CreatedAt    time.Time
}

// SessionStore keeps sessions and pending logins in memory
type SessionStore struct {
	mutex    sync.RWMutex
	sessions map[string]*Session
	pending  map[string]*pendingLogin
	now      func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		pending:  make(map[string]*pendingLogin),
		now:      time.Now,
	}
}

// BeginLogin keeps the verifier of the authorization attempt identified by state
func (s *SessionStore) BeginLogin(state, codeVerifier string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.pending[state] = &pendingLogin{CodeVerifier: codeVerifier, CreatedAt: s.now()}
}

// ConsumeLogin returns the verifier for state exactly once
func (s *SessionStore) ConsumeLogin(state string) (string, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	login, ok := s.pending[state]
	if !ok {
		return "", false
	}
	delete(s.pending, state)
	if s.now().Sub(login.CreatedAt) > pendingLoginTTL {
		return "", false
	}
	return login.CodeVerifier, true
}

// Create stores session under a new id
func (s *SessionStore) Create(session *Session) string {
	session.ID = uuid.New().String()
	session.ExpiresAt = s.now().Add(sessionTTL)

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.sessions[session.ID] = session
	return session.ID
}

// Get returns a copy of an unexpired session
func (s *SessionStore) Get(id string) (Session, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	session, ok := s.sessions[id]
	if !ok || !session.ExpiresAt.After(s.now()) {
		return Session{}, false
	}
	return *session, true
}

// UpdateTokens replaces the tokens of a session after a refresh
func (s *SessionStore) UpdateTokens(id, accessToken, refreshToken string, expiry time.Time) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return false
	}
	session.AccessToken = accessToken
	if refreshToken != "" {
		session.RefreshToken = refreshToken
	}
	session.TokenExpiry = expiry
	return true
}

func (s *SessionStore) Delete(id string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.sessions, id)
}

// Sweep drops expired sessions and abandoned logins
func (s *SessionStore) Sweep() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	removed := 0
	for id, session := range s.sessions {
		if !session.ExpiresAt.After(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	for state, login := range s.pending {
		if now.Sub(login.CreatedAt) > pendingLoginTTL {
			delete(s.pending, state)
			removed++
		}
	}
	return removed
}
