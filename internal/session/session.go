// Package session holds the authentication state of one client: the state
// machine, the current user and the persisted token.
//
// The Token Store is the source of truth for the token. Every read goes back
// to the store so a logout or expiry in one place is seen by the next request
// everywhere.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"zurura-client/internal/event"
	"zurura-client/internal/model"
	"zurura-client/internal/token"
	"zurura-client/internal/tokenstore"
)

type State string

const (
	StateAnonymous      State = "anonymous"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
	StateError          State = "error"
)

type Session struct {
	mu      sync.Mutex
	store   tokenstore.Store
	bus     event.Bus
	logger  *slog.Logger
	now     func() time.Time
	state   State
	user    *model.User
	lastErr error
}

type Option func(*Session)

func WithBus(bus event.Bus) Option {
	return func(s *Session) {
		s.bus = bus
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// New rehydrates the session from the store. A stored token whose expiry has
// passed is discarded.
func New(ctx context.Context, store tokenstore.Store, opts ...Option) *Session {
	s := &Session{
		store:  store,
		bus:    event.Nop{},
		logger: slog.Default(),
		now:    time.Now,
		state:  StateAnonymous,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if raw := s.tokenLocked(ctx); raw != "" {
		s.state = StateAuthenticated
		var user model.User
		if s.store.Get(ctx, tokenstore.KeyUser, &user) {
			s.user = &user
		}
		s.logger.Debug("session restored", "user_id", s.userIDLocked())
	}

	return s
}

// Token returns the stored token, or "" when there is none or it has expired.
func (s *Session) Token(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokenLocked(ctx)
}

func (s *Session) User(ctx context.Context) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user != nil {
		return *s.user, true
	}

	var user model.User
	if s.store.Get(ctx, tokenstore.KeyUser, &user) {
		s.user = &user
		return user, true
	}
	return model.User{}, false
}

// Role is the signed-in user's role, falling back to the token's role claim.
// It is empty without a session.
func (s *Session) Role(ctx context.Context) model.Role {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw := s.tokenLocked(ctx)
	if raw == "" {
		return ""
	}
	if s.user != nil && s.user.Role != "" {
		return s.user.Role
	}
	var user model.User
	if s.store.Get(ctx, tokenstore.KeyUser, &user) && user.Role != "" {
		return user.Role
	}
	return model.Role(token.Role(raw))
}

// Remaining is how long the current token stays valid. ok is false without
// a session or when the token carries no readable expiry.
func (s *Session) Remaining(ctx context.Context) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw := s.tokenLocked(ctx)
	if raw == "" {
		return 0, false
	}
	if _, ok := token.ExpiresAt(raw); !ok {
		return 0, false
	}
	return token.RemainingTime(raw, s.now()), true
}

// SetUser replaces the cached and persisted user, e.g. after a profile edit.
func (s *Session) SetUser(ctx context.Context, user model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAuthenticated {
		return
	}
	s.user = &user
	if err := s.store.Set(ctx, tokenstore.KeyUser, user); err != nil {
		s.logger.Warn("persist user failed", "error", err)
	}
}

// IsAuthenticated is true while a token is stored and, when its expiry can be
// read, has not expired. Opaque tokens count as valid.
func (s *Session) IsAuthenticated(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tokenLocked(ctx) != "" {
		return true
	}
	if s.state == StateAuthenticated {
		s.state = StateAnonymous
		s.user = nil
	}
	return false
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err is the failure recorded by the last Fail, if the session is in the
// error state.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateError {
		return nil
	}
	return s.lastErr
}

// Begin enters authenticating. A failed previous attempt is reset first.
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateAuthenticating {
		return model.ErrAuthInProgress
	}
	s.state = StateAuthenticating
	s.lastErr = nil
	return nil
}

// Establish persists a successful authentication.
func (s *Session) Establish(ctx context.Context, raw string, user model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Set(ctx, tokenstore.KeyToken, raw); err != nil {
		s.state = StateError
		s.lastErr = err
		return err
	}
	if err := s.store.Set(ctx, tokenstore.KeyUser, user); err != nil {
		s.store.Remove(ctx, tokenstore.KeyToken)
		s.state = StateError
		s.lastErr = err
		return err
	}

	s.state = StateAuthenticated
	s.user = &user
	s.lastErr = nil
	s.bus.Publish(event.New(event.TypeSessionAuthenticated, user.ID, nil))
	return nil
}

// Fail records a failed attempt. The Token Store is not touched.
func (s *Session) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateError
	s.lastErr = err
}

// End clears the local session. It is safe to call without a session.
func (s *Session) End(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID := s.userIDLocked()
	s.clearLocked(ctx)
	s.bus.Publish(event.New(event.TypeSessionLoggedOut, userID, nil))
}

// Expire clears the session after the backend rejected usedToken. It only
// acts when usedToken is still the stored token, so of several requests
// failing with the same token exactly one call returns true.
func (s *Session) Expire(ctx context.Context, usedToken string) bool {
	if usedToken == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var stored string
	if !s.store.Get(ctx, tokenstore.KeyToken, &stored) || stored != usedToken {
		return false
	}

	userID := s.userIDLocked()
	s.clearLocked(ctx)
	s.logger.Info("session expired", "user_id", userID)
	s.bus.Publish(event.New(event.TypeSessionExpired, userID, nil))
	return true
}

func (s *Session) tokenLocked(ctx context.Context) string {
	var raw string
	if !s.store.Get(ctx, tokenstore.KeyToken, &raw) || raw == "" {
		return ""
	}

	if exp, ok := token.ExpiresAt(raw); ok && !s.now().Before(exp) {
		s.logger.Debug("stored token expired", "expired_at", exp)
		s.store.Remove(ctx, tokenstore.KeyToken)
		s.store.Remove(ctx, tokenstore.KeyUser)
		if s.state == StateAuthenticated {
			s.state = StateAnonymous
			s.user = nil
		}
		return ""
	}
	return raw
}

func (s *Session) clearLocked(ctx context.Context) {
	s.store.Remove(ctx, tokenstore.KeyToken)
	s.store.Remove(ctx, tokenstore.KeyUser)
	s.state = StateAnonymous
	s.user = nil
	s.lastErr = nil
}

func (s *Session) userIDLocked() string {
	if s.user == nil {
		return ""
	}
	return s.user.ID
}
