package web

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"sync"
	"time"
)

const sessionCookie = "applytrack_session"

// SessionStore keeps login sessions on the server. The cookie only carries
// an opaque ID.
type SessionStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	ttl      time.Duration
	stop     chan struct{}
}

type Session struct {
	ID        string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// NewSessionStore creates a session store that expires idle sessions after ttl
func NewSessionStore(ttl time.Duration) *SessionStore {
	store := &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		stop:     make(chan struct{}),
	}

	go store.cleanupLoop()

	return store
}

func generateSessionID() (string, error) {
	bytes := make([]byte, 32) // 256 bits
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// Create creates a new session and returns its ID
func (s *SessionStore) Create() (string, error) {
	id, err := generateSessionID()
	if err != nil {
		return "", err
	}

	now := time.Now()
	s.mu.Lock()
	s.sessions[id] = &Session{ID: id, CreatedAt: now, ExpiresAt: now.Add(s.ttl)}
	s.mu.Unlock()

	return id, nil
}

// Touch reports whether id is a live session and extends it
func (s *SessionStore) Touch(id string) bool {
	if id == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[id]
	if !exists {
		return false
	}
	if time.Now().After(session.ExpiresAt) {
		delete(s.sessions, id)
		return false
	}
	session.ExpiresAt = time.Now().Add(s.ttl)
	return true
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Count returns the number of live sessions
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) Close() {
	close(s.stop)
}

func (s *SessionStore) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stop:
			return
		}
	}
}

func (s *SessionStore) cleanup() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, id)
		}
	}
}

// authRequired reports whether the API sits behind the app password
func (s *Server) authRequired() bool {
	return s.config.Server.AppPassword != ""
}

func (s *Server) authenticated(r *http.Request) bool {
	if !s.authRequired() {
		return true
	}
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return false
	}
	return s.sessions.Touch(cookie.Value)
}

// requireAuth rejects API calls without a live session when a password is set
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticated(r) {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.rateLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, "too many login attempts, try again later")
		return
	}
	if !s.authRequired() {
		writeJSON(w, http.StatusOK, map[string]interface{}{"authenticated": true})
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.config.Server.AppPassword)) != 1 {
		writeError(w, http.StatusUnauthorized, "invalid password")
		return
	}

	id, err := s.sessions.Create()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(defaultSessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{"authenticated": true})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		s.sessions.Delete(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{"authenticated": false})
}

func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"auth_required": s.authRequired(),
		"authenticated": s.authenticated(r),
	})
}
