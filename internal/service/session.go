package service

import (
	"context"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"coursepocket/internal/domain"
)

// TokenStore is the slice of the token store the session manager needs.
type TokenStore interface {
	Read(ctx context.Context) (string, bool)
	Erase(ctx context.Context)
}

// SessionValidator probes whether a bearer token is still accepted upstream.
// False covers both a rejected token and an unreachable server.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) bool
}

// SessionService owns the in-memory authentication state machine: Loading
// at construction, then Authenticated or Anonymous after Initialize, moving
// between the two on Login/Logout/CheckAuth.
type SessionService interface {
	Initialize(ctx context.Context)
	Login(user domain.User, token string)
	Logout(ctx context.Context)
	CheckAuth(ctx context.Context)
	Current() domain.Session
	Subscribe(fn func(domain.Session))
}

type sessionService struct {
	tokens    TokenStore
	validator SessionValidator
	log       *logrus.Logger

	mu          sync.Mutex
	user        *domain.User
	token       string
	status      domain.SessionStatus
	subscribers []func(domain.Session)
}

func NewSessionService(tokens TokenStore, validator SessionValidator, log *logrus.Logger) SessionService {
	return &sessionService{
		tokens:    tokens,
		validator: validator,
		log:       log,
		status:    domain.SessionLoading,
	}
}

// Initialize resolves the Loading state from storage and one validation
// round-trip. It always terminates in Authenticated or Anonymous.
func (s *sessionService) Initialize(ctx context.Context) {
	s.CheckAuth(ctx)
}

// CheckAuth re-derives the session on demand, recovering from external
// token invalidation. Overlapping calls are not serialized end to end; the
// last one to finish wins.
func (s *sessionService) CheckAuth(ctx context.Context) {
	stored, ok := s.tokens.Read(ctx)
	if ok && s.validator.ValidateSession(ctx, stored) {
		user := restoredUser(stored)
		s.transition(func() {
			s.user = &user
			s.token = stored
			s.status = domain.SessionAuthenticated
		})
		s.log.Infof("session restored for %s", user.Username)
		return
	}
	s.Logout(ctx)
}

// Login records a caller-authenticated identity. Persisting the token is
// the caller's responsibility and must already have happened.
func (s *sessionService) Login(user domain.User, token string) {
	s.transition(func() {
		u := user
		s.user = &u
		s.token = token
		s.status = domain.SessionAuthenticated
	})
}

// Logout clears the in-memory identity and erases the persisted token.
// Idempotent.
func (s *sessionService) Logout(ctx context.Context) {
	s.transition(func() {
		s.user = nil
		s.token = ""
		s.status = domain.SessionAnonymous
	})
	s.tokens.Erase(ctx)
}

func (s *sessionService) Current() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers a listener invoked synchronously after every state
// transition with the new snapshot.
func (s *sessionService) Subscribe(fn func(domain.Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *sessionService) transition(apply func()) {
	s.mu.Lock()
	apply()
	snap := s.snapshotLocked()
	subs := make([]func(domain.Session), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func (s *sessionService) snapshotLocked() domain.Session {
	var user *domain.User
	if s.user != nil {
		u := *s.user
		user = &u
	}
	return domain.Session{User: user, Token: s.token, Status: s.status}
}

// restoredUser builds the identity for a session restored from a stored
// token. The API has no profile endpoint, so the best available source is
// the token's own claims, read without verification (the /me probe remains
// the authority); otherwise a fixed placeholder.
func restoredUser(token string) domain.User {
	user := domain.User{ID: "1", Username: "User", Email: "user@example.com"}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return user
	}

	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		user.ID = sub
	}
	if v, ok := claims["username"].(string); ok && v != "" {
		user.Username = v
	}
	if v, ok := claims["email"].(string); ok && v != "" {
		user.Email = v
	}
	return user
}
