package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	domainid "github.com/shopfront/identity/internal/domain/identity"
	"github.com/shopfront/identity/internal/ports"
)

// SessionOptions groups dependencies for Session.
type SessionOptions struct {
	Backend   ports.AuthBackend
	Store     ports.SessionStore
	Inspector *domainid.Inspector
	Logger    *slog.Logger
}

// Session is the authentication state machine. It owns the current principal,
// evaluates credential validity fresh on every read, and coordinates the
// login/refresh/logout transitions against the backend and the session store.
//
// States are Unauthenticated and Authenticated; "expired" is not a stored
// state: it is detected on read and immediately collapses to Unauthenticated
// via a forced logout.
type Session struct {
	backend   ports.AuthBackend
	store     ports.SessionStore
	inspector *domainid.Inspector
	logger    *slog.Logger

	mu  sync.Mutex
	rec *domainid.SessionRecord // nil when unauthenticated

	// gen is bumped when a login attempt is issued and on every logout. A
	// login continuation applies its result only if gen is unchanged since
	// issue time, so a logout that races a pending login always wins.
	gen uint64

	refresh singleflight.Group
}

// NewSession constructs a Session.
func NewSession(opts SessionOptions) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	inspector := opts.Inspector
	if inspector == nil {
		inspector = domainid.NewInspector()
	}
	return &Session{
		backend:   opts.Backend,
		store:     opts.Store,
		inspector: inspector,
		logger:    logger,
	}
}

// Rehydrate restores the session from the store at process start. A missing
// record, an inconsistent profile/credential pairing, or an expired
// credential all collapse to Unauthenticated with the store cleared; the
// operation is idempotent under repeated calls.
func (s *Session) Rehydrate(ctx context.Context) error {
	rec, err := s.store.Load(ctx)
	if err != nil {
		if errors.Is(err, domainid.ErrNoSession) {
			return s.forceLogout(ctx, "no persisted session")
		}
		return fmt.Errorf("load session record: %w", err)
	}

	if !rec.Complete() || s.inspector.IsExpired(rec.Credential) {
		return s.forceLogout(ctx, "persisted session invalid or expired")
	}

	rec.Profile.Roles = domainid.NormalizeRoles(rec.Profile.Roles)

	s.mu.Lock()
	s.rec = &rec
	s.mu.Unlock()

	s.logger.Info("session rehydrated", "user_id", rec.Profile.ID)
	return nil
}

// Login submits credentials to the backend and, on success, persists and
// adopts the authenticated principal. On any failure the state is unchanged.
// A logout or newer login issued while the request was in flight wins: the
// stale response is discarded and ErrLoginSuperseded returned.
func (s *Session) Login(ctx context.Context, userName, password string) (domainid.Principal, error) {
	s.mu.Lock()
	s.gen++
	issued := s.gen
	s.mu.Unlock()

	result, err := s.backend.Login(ctx, ports.LoginInput{UserName: userName, Password: password})
	if err != nil {
		return domainid.Anonymous, err
	}
	if result.Credential == "" || result.Profile.ID == "" {
		return domainid.Anonymous, fmt.Errorf("%w: missing token or profile", domainid.ErrMalformedResponse)
	}

	result.Profile.Roles = domainid.NormalizeRoles(result.Profile.Roles)
	rec := domainid.SessionRecord{Profile: result.Profile, Credential: result.Credential}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen != issued {
		s.logger.Info("discarding stale login response", "user_id", result.Profile.ID)
		return domainid.Anonymous, domainid.ErrLoginSuperseded
	}

	if err := s.store.Save(ctx, rec); err != nil {
		return domainid.Anonymous, fmt.Errorf("persist session: %w", err)
	}
	s.rec = &rec

	s.logger.Info("login succeeded", "user_id", rec.Profile.ID, "roles", rec.Profile.Roles)
	return s.principalLocked(), nil
}

// RefreshToken renews the current credential in place, leaving the profile
// untouched. It requires an authenticated session. Refresh failure is fatal
// to the session: the store is cleared, the state becomes Unauthenticated,
// and ErrRefreshFailed is returned; callers must treat it as "now logged
// out", never retry silently. Concurrent calls are collapsed so a single
// backend round-trip serves every waiter.
func (s *Session) RefreshToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.rec == nil {
		s.mu.Unlock()
		return "", domainid.ErrNotAuthenticated
	}
	current := s.rec.Credential
	issued := s.gen
	s.mu.Unlock()

	token, err, _ := s.refresh.Do("refresh-token", func() (any, error) {
		newToken, err := s.backend.Refresh(ctx, current)
		if err != nil {
			return "", err
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gen != issued || s.rec == nil {
			// Logged out (or re-logged-in) while the refresh was in flight;
			// the later transition owns the state now.
			return "", domainid.ErrLoginSuperseded
		}

		rec := *s.rec
		rec.Credential = newToken
		if err := s.store.Save(ctx, rec); err != nil {
			return "", fmt.Errorf("persist refreshed session: %w", err)
		}
		s.rec = &rec
		return newToken, nil
	})
	if err != nil {
		if errors.Is(err, domainid.ErrLoginSuperseded) {
			return "", domainid.ErrRefreshFailed
		}
		s.logger.Warn("token refresh failed, terminating session", "error", err)
		if logoutErr := s.forceLogout(ctx, "refresh failed"); logoutErr != nil {
			s.logger.Warn("forced logout after failed refresh did not clear store", "error", logoutErr)
		}
		return "", fmt.Errorf("%w: %w", domainid.ErrRefreshFailed, err)
	}
	return token.(string), nil
}

// Logout clears the store and transitions to Unauthenticated. Safe to call
// from any state; from Unauthenticated it is a no-op beyond store clearing.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	wasAuthenticated := s.rec != nil
	s.gen++
	s.rec = nil
	s.mu.Unlock()

	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session store: %w", err)
	}
	if wasAuthenticated {
		s.logger.Info("logged out")
	}
	return nil
}

// IsAuthenticated reports whether an authenticated, non-expired session is
// live. Expiry is evaluated fresh on every call; a credential that silently
// expired since the last check is detected here and collapses the session.
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	rec := s.rec
	s.mu.Unlock()

	if rec == nil {
		return false
	}
	if s.inspector.IsExpired(rec.Credential) {
		s.logger.Warn("session credential expired, terminating session", "user_id", rec.Profile.ID)
		if err := s.forceLogout(context.Background(), "credential expired"); err != nil {
			s.logger.Warn("forced logout after expiry did not clear store", "error", err)
		}
		return false
	}
	return true
}

// HasRole reports whether the live session's principal carries the role.
// Always false when unauthenticated; never an error.
func (s *Session) HasRole(role domainid.Role) bool {
	if !s.IsAuthenticated() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return false
	}
	return s.rec.Profile.HasRole(role)
}

// Current returns the resolved principal: the authenticated principal when
// the session is live, Anonymous otherwise.
func (s *Session) Current() domainid.Principal {
	if !s.IsAuthenticated() {
		return domainid.Anonymous
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.principalLocked()
}

// Credential returns the live bearer token for attaching to outbound calls.
func (s *Session) Credential() (string, bool) {
	if !s.IsAuthenticated() {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return "", false
	}
	return s.rec.Credential, true
}

func (s *Session) principalLocked() domainid.Principal {
	if s.rec == nil {
		return domainid.Anonymous
	}
	return domainid.Principal{
		Kind:    domainid.KindAuthenticated,
		ID:      s.rec.Profile.ID,
		Profile: s.rec.Profile,
	}
}

// forceLogout is the silent recovery path for expired or corrupt state: the
// user simply observes "logged out", no error surfaces.
func (s *Session) forceLogout(ctx context.Context, reason string) error {
	s.mu.Lock()
	wasAuthenticated := s.rec != nil
	s.gen++
	s.rec = nil
	s.mu.Unlock()

	if wasAuthenticated {
		s.logger.Info("session terminated", "reason", reason)
	}
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session store: %w", err)
	}
	return nil
}
