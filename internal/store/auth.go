package store

import (
	"context"
	"sync"

	"github.com/helicode/ambassador-console-go/internal/domain"
	"github.com/helicode/ambassador-console-go/internal/infra/observability"
	"github.com/helicode/ambassador-console-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var authTracer = otel.Tracer("store/auth")

// sessionSnapshotName keys the persisted session file. Only the fields
// in sessionSnapshot survive restarts; loading flags and errors are
// transient.
const sessionSnapshotName = "auth-store"

type sessionSnapshot struct {
	User          *domain.User `json:"user"`
	AccessToken   string       `json:"accessToken"`
	Role          domain.Role  `json:"role"`
	Authenticated bool         `json:"isAuthenticated"`
}

// AuthStore owns the authenticated identity, access token and role.
// It is the source of truth consulted by the gateway (for the bearer
// token) and by the route guard (for the role).
type AuthStore struct {
	mu      sync.RWMutex
	api     port.AuthAPI
	snap    port.Snapshotter
	metrics *observability.Metrics
	logger  *zap.Logger

	user          *domain.User
	accessToken   string
	role          domain.Role
	authenticated bool
	loading       bool
	errMsg        string
}

// NewAuthStore builds the session store and restores any persisted
// session. A restored snapshot that violates the session invariant
// (authenticated without a token or user) is discarded.
func NewAuthStore(api port.AuthAPI, snap port.Snapshotter, metrics *observability.Metrics, logger *zap.Logger) *AuthStore {
	s := &AuthStore{
		api:     api,
		snap:    snap,
		metrics: metrics,
		logger:  logger,
	}

	var persisted sessionSnapshot
	if snap.Load(sessionSnapshotName, &persisted) {
		if persisted.Authenticated && (persisted.AccessToken == "" || persisted.User == nil) {
			logger.Warn("auth: discarding inconsistent persisted session")
		} else {
			s.user = persisted.User
			s.accessToken = persisted.AccessToken
			s.role = persisted.Role
			s.authenticated = persisted.Authenticated
		}
	}
	return s
}

// Login authenticates against the remote API. On success the whole
// session is set atomically; on failure no partial session remains and
// the error is returned for the caller's own notification.
func (s *AuthStore) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	ctx, span := authTracer.Start(ctx, "AuthStore.Login")
	defer span.End()

	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()

	data, err := s.api.Login(ctx, email, password)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		s.user = nil
		s.accessToken = ""
		s.role = domain.RoleUnset
		s.authenticated = false
		s.errMsg = domain.ErrorMessage(err)
		s.persistLocked()
		s.metrics.IncrStoreOp("auth", "login", "error")
		s.logger.Warn("auth: login failed", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	user := data.User
	s.user = &user
	s.accessToken = data.Token
	s.role = domain.ParseRole(user.Role)
	s.authenticated = true
	s.persistLocked()
	s.metrics.IncrStoreOp("auth", "login", "success")
	s.logger.Info("auth: logged in",
		zap.String("email", user.Email),
		zap.String("role", string(s.role)),
	)

	return s.sessionLocked(), nil
}

// Logout synchronously resets every session field to its empty default.
// Safe to call when already logged out.
func (s *AuthStore) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = nil
	s.accessToken = ""
	s.role = domain.RoleUnset
	s.authenticated = false
	s.loading = false
	s.errMsg = ""
	s.persistLocked()
	s.logger.Info("auth: logged out")
}

// Token implements gateway.TokenSource.
func (s *AuthStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// Role returns the canonical session role; it drives the route guard.
func (s *AuthStore) Role() domain.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

// IsAuthenticated reports whether a session is active.
func (s *AuthStore) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// Session returns a copy of the current session state.
func (s *AuthStore) Session() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.sessionLocked()
}

// Loading reports an in-flight login.
func (s *AuthStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the last login error message, empty when none.
func (s *AuthStore) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

func (s *AuthStore) sessionLocked() *domain.Session {
	var user *domain.User
	if s.user != nil {
		u := *s.user
		user = &u
	}
	return &domain.Session{
		User:          user,
		AccessToken:   s.accessToken,
		Role:          s.role,
		Authenticated: s.authenticated,
	}
}

func (s *AuthStore) persistLocked() {
	snap := sessionSnapshot{
		User:          s.user,
		AccessToken:   s.accessToken,
		Role:          s.role,
		Authenticated: s.authenticated,
	}
	if err := s.snap.Save(sessionSnapshotName, snap); err != nil {
		s.logger.Warn("auth: failed to persist session", zap.Error(err))
	}
}
