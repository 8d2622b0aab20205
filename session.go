package douyin

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Session is a point-in-time view of the authenticated identity.
type Session struct {
	Token  string
	UserID string
	User   *User
}

// IsAuthenticated is true iff both the token and the user id are present.
func (s Session) IsAuthenticated() bool {
	return s.Token != "" && s.UserID != ""
}

// ProfileLoader fetches a user profile. *Client satisfies it.
type ProfileLoader interface {
	GetUser(ctx context.Context, userID int64) (User, error)
}

// SessionStore holds the current credential pair, mirrors it to Storage and is
// the only place that mutates it. Safe for concurrent use.
type SessionStore struct {
	storage Storage
	log     *zap.Logger
	now     func() time.Time

	mu     sync.RWMutex
	token  string
	userID string
	user   *User
	// gen changes on every login/logout so late profile lookups can tell
	// they belong to a session that no longer exists.
	gen uint64
}

// SessionOption configures a SessionStore.
type SessionOption func(*SessionStore)

// WithSessionLogger sets the logger used for background validation failures.
func WithSessionLogger(log *zap.Logger) SessionOption {
	return func(s *SessionStore) {
		if log != nil {
			s.log = log
		}
	}
}

// NewSessionStore creates an empty, unauthenticated store backed by storage.
func NewSessionStore(storage Storage, opts ...SessionOption) *SessionStore {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	s := &SessionStore{
		storage: storage,
		log:     zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current session.
func (s *SessionStore) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := Session{Token: s.token, UserID: s.userID}
	if s.user != nil {
		u := *s.user
		out.User = &u
	}
	return out
}

// Token returns the current token or "".
func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// UserID returns the current user id or "".
func (s *SessionStore) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// IsAuthenticated reports whether a credential pair is held.
func (s *SessionStore) IsAuthenticated() bool {
	return s.Snapshot().IsAuthenticated()
}

// Restore loads a persisted credential pair. When one is found the session is
// marked authenticated right away and the profile is fetched in the background;
// if that lookup fails the session is cleared. The returned channel yields the
// validation outcome once and is nil when nothing was restored.
func (s *SessionStore) Restore(ctx context.Context, loader ProfileLoader) <-chan error {
	token, userID, err := s.readPersisted()
	if err != nil {
		s.log.Warn("session restore: read storage", zap.Error(err))
		return nil
	}
	if token == "" || userID == "" {
		return nil
	}
	if tokenExpired(token, s.now()) {
		s.log.Info("session restore: persisted token expired", zap.String("user_id", userID))
		if err := s.Logout(); err != nil {
			s.log.Warn("session restore: clear expired token", zap.Error(err))
		}
		return nil
	}

	gen := s.set(token, userID)
	if loader == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		defer close(done)
		err := s.attachProfile(ctx, loader, userID, gen)
		if err != nil {
			s.log.Warn("session restore: validation failed, logging out",
				zap.String("user_id", userID), zap.Error(err))
			s.clearIfGen(gen)
		}
		done <- err
	}()
	return done
}

// Login persists the pair, marks the session authenticated and fetches the
// profile in the background. A failed profile fetch keeps the session.
func (s *SessionStore) Login(ctx context.Context, userID, token string, loader ProfileLoader) (<-chan error, error) {
	if userID == "" || token == "" {
		return nil, fmt.Errorf("login: %w: user id and token are required", ErrInvalidArgument)
	}
	if err := s.storage.Set(KeyToken, token); err != nil {
		return nil, fmt.Errorf("login: persist token: %w", err)
	}
	if err := s.storage.Set(KeyUserID, userID); err != nil {
		return nil, fmt.Errorf("login: persist user id: %w", err)
	}

	gen := s.set(token, userID)
	if loader == nil {
		return nil, nil
	}

	done := make(chan error, 1)
	go func() {
		defer close(done)
		err := s.attachProfile(ctx, loader, userID, gen)
		if err != nil {
			s.log.Warn("login: fetch profile", zap.String("user_id", userID), zap.Error(err))
		}
		done <- err
	}()
	return done, nil
}

// Logout clears the persisted keys and the in-memory session.
func (s *SessionStore) Logout() error {
	s.mu.Lock()
	s.clearLocked()
	s.mu.Unlock()

	if err := s.storage.Delete(KeyToken, KeyUserID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Invalidate clears the session if token is still the current one. Of many
// callers holding the same rejected token exactly one gets true.
func (s *SessionStore) Invalidate(token string) bool {
	s.mu.Lock()
	if token == "" || s.token != token {
		s.mu.Unlock()
		return false
	}
	s.clearLocked()
	s.mu.Unlock()

	if err := s.storage.Delete(KeyToken, KeyUserID); err != nil {
		s.log.Warn("invalidate session: clear storage", zap.Error(err))
	}
	return true
}

func (s *SessionStore) set(token, userID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.userID = userID
	s.user = nil
	s.gen++
	return s.gen
}

func (s *SessionStore) clearLocked() {
	s.token = ""
	s.userID = ""
	s.user = nil
	s.gen++
}

func (s *SessionStore) clearIfGen(gen uint64) {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	s.clearLocked()
	s.mu.Unlock()

	if err := s.storage.Delete(KeyToken, KeyUserID); err != nil {
		s.log.Warn("clear session: storage", zap.Error(err))
	}
}

func (s *SessionStore) attachProfile(ctx context.Context, loader ProfileLoader, userID string, gen uint64) error {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: user id %q", ErrInvalidArgument, userID)
	}
	user, err := loader.GetUser(ctx, id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen {
		s.user = &user
	}
	return nil
}

func (s *SessionStore) readPersisted() (token, userID string, err error) {
	token, _, err = s.storage.Get(KeyToken)
	if err != nil {
		return "", "", err
	}
	userID, _, err = s.storage.Get(KeyUserID)
	if err != nil {
		return "", "", err
	}
	return token, userID, nil
}

// tokenExpired reports whether token is a JWT whose exp claim has passed.
// Opaque tokens are never considered expired here; the server decides.
func tokenExpired(token string, now time.Time) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && now.After(claims.ExpiresAt.Time)
}
