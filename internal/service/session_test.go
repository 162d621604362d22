package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainid "github.com/shopfront/identity/internal/domain/identity"
	idmocks "github.com/shopfront/identity/internal/mocks/identity"
	"github.com/shopfront/identity/internal/ports"
	"github.com/shopfront/identity/internal/testutil"
)

// sessionFixture wires a Session over doubles with a movable clock.
type sessionFixture struct {
	session *Session
	backend *idmocks.ScriptedBackend
	store   *idmocks.SessionStoreFuncs
	now     *time.Time
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	now := testutil.TestTime()
	backend := idmocks.NewScriptedBackend()
	backend.Credential = testutil.SignedToken(t, now.Add(time.Hour))
	store := idmocks.NewSessionStoreFuncs()

	session := NewSession(SessionOptions{
		Backend:   backend,
		Store:     store,
		Inspector: &domainid.Inspector{Now: func() time.Time { return now }},
	})

	return &sessionFixture{
		session: session,
		backend: backend,
		store:   store,
		now:     &now,
	}
}

func (f *sessionFixture) advance(d time.Duration) {
	*f.now = f.now.Add(d)
}

func (f *sessionFixture) storeRecord(t *testing.T) (domainid.SessionRecord, error) {
	t.Helper()
	return f.store.Load(context.Background())
}

func TestSession_Rehydrate_NoRecord(t *testing.T) {
	f := newSessionFixture(t)

	require.NoError(t, f.session.Rehydrate(context.Background()))
	assert.False(t, f.session.IsAuthenticated())
	assert.Equal(t, domainid.Anonymous, f.session.Current())
}

func TestSession_Rehydrate_ValidRecord(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	rec := testutil.NewProfile().SessionRecord(t, f.now.Add(time.Hour))
	require.NoError(t, f.store.Save(ctx, rec))

	require.NoError(t, f.session.Rehydrate(ctx))
	assert.True(t, f.session.IsAuthenticated())
	assert.Equal(t, "user-1", f.session.Current().ID)
}

func TestSession_Rehydrate_NormalizesEmptyRoles(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	rec := testutil.NewProfile().WithRoles().SessionRecord(t, f.now.Add(time.Hour))
	require.NoError(t, f.store.Save(ctx, rec))

	require.NoError(t, f.session.Rehydrate(ctx))
	assert.True(t, f.session.HasRole(domainid.RoleUser))
}

func TestSession_Rehydrate_ExpiredRecordClearsStore(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	rec := testutil.NewProfile().SessionRecord(t, f.now.Add(-time.Minute))
	require.NoError(t, f.store.Save(ctx, rec))

	require.NoError(t, f.session.Rehydrate(ctx))
	assert.False(t, f.session.IsAuthenticated())

	_, err := f.storeRecord(t)
	assert.ErrorIs(t, err, domainid.ErrNoSession)
}

func TestSession_Rehydrate_Idempotent(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	rec := testutil.NewProfile().SessionRecord(t, f.now.Add(-time.Minute))
	require.NoError(t, f.store.Save(ctx, rec))

	require.NoError(t, f.session.Rehydrate(ctx))
	require.NoError(t, f.session.Rehydrate(ctx))
	assert.False(t, f.session.IsAuthenticated())
}

func TestSession_Login_Success(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	principal, err := f.session.Login(ctx, "jane", "secret")
	require.NoError(t, err)
	assert.True(t, principal.IsAuthenticated())
	assert.Equal(t, "user-1", principal.ID)
	assert.True(t, f.session.IsAuthenticated())

	persisted, err := f.storeRecord(t)
	require.NoError(t, err)
	assert.Equal(t, "user-1", persisted.Profile.ID)
	assert.Equal(t, f.backend.Credential, persisted.Credential)
}

func TestSession_Login_InvalidCredentials(t *testing.T) {
	f := newSessionFixture(t)
	f.backend.LoginFunc = func(context.Context, ports.LoginInput) (ports.LoginResult, error) {
		return ports.LoginResult{}, domainid.ErrInvalidCredentials
	}

	_, err := f.session.Login(context.Background(), "jane", "wrong")
	assert.ErrorIs(t, err, domainid.ErrInvalidCredentials)
	assert.False(t, f.session.IsAuthenticated())

	_, err = f.storeRecord(t)
	assert.ErrorIs(t, err, domainid.ErrNoSession)
}

func TestSession_Login_MalformedResponseLeavesStateUntouched(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	// Establish a prior session, then make the next login malformed.
	prior := testutil.NewProfile().WithID("prior-user").SessionRecord(t, f.now.Add(time.Hour))
	require.NoError(t, f.store.Save(ctx, prior))
	require.NoError(t, f.session.Rehydrate(ctx))

	f.backend.LoginFunc = func(context.Context, ports.LoginInput) (ports.LoginResult, error) {
		return ports.LoginResult{Profile: domainid.Profile{ID: "user-2"}}, nil // no credential
	}

	_, err := f.session.Login(ctx, "jane", "secret")
	assert.ErrorIs(t, err, domainid.ErrMalformedResponse)

	// The store still holds the prior session; rehydrating finds it intact.
	require.NoError(t, f.session.Rehydrate(ctx))
	assert.Equal(t, "prior-user", f.session.Current().ID)
}

func TestSession_Login_LogoutWinsTheRace(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	token := testutil.SignedToken(t, f.now.Add(time.Hour))
	issued := make(chan struct{})
	release := make(chan struct{})
	f.backend.LoginFunc = func(context.Context, ports.LoginInput) (ports.LoginResult, error) {
		close(issued)
		<-release
		return ports.LoginResult{
			Profile:    testutil.NewProfile().Build(),
			Credential: token,
		}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.session.Login(ctx, "jane", "secret")
		done <- err
	}()

	<-issued
	require.NoError(t, f.session.Logout(ctx))
	close(release)

	err := <-done
	assert.ErrorIs(t, err, domainid.ErrLoginSuperseded)
	assert.False(t, f.session.IsAuthenticated())

	_, storeErr := f.storeRecord(t)
	assert.ErrorIs(t, storeErr, domainid.ErrNoSession)
}

func TestSession_Login_NewerLoginWins(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	token := testutil.SignedToken(t, f.now.Add(time.Hour))
	firstIssued := make(chan struct{})
	release := make(chan struct{})
	calls := 0
	f.backend.LoginFunc = func(_ context.Context, in ports.LoginInput) (ports.LoginResult, error) {
		calls++
		if calls == 1 {
			close(firstIssued)
			<-release
			return ports.LoginResult{
				Profile:    testutil.NewProfile().WithID("first-user").Build(),
				Credential: token,
			}, nil
		}
		return ports.LoginResult{
			Profile:    testutil.NewProfile().WithID("second-user").Build(),
			Credential: token,
		}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.session.Login(ctx, "jane", "secret")
		done <- err
	}()

	<-firstIssued
	_, err := f.session.Login(ctx, "jane", "secret")
	require.NoError(t, err)
	close(release)

	assert.ErrorIs(t, <-done, domainid.ErrLoginSuperseded)
	assert.Equal(t, "second-user", f.session.Current().ID)
}

func TestSession_RefreshToken_Success(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	_, err := f.session.Login(ctx, "jane", "secret")
	require.NoError(t, err)
	oldToken := f.backend.Credential

	newToken := testutil.SignedToken(t, f.now.Add(2*time.Hour))
	f.backend.RefreshFunc = func(_ context.Context, credential string) (string, error) {
		assert.Equal(t, oldToken, credential)
		return newToken, nil
	}

	got, err := f.session.RefreshToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, newToken, got)

	// Credential replaced, profile untouched.
	persisted, err := f.storeRecord(t)
	require.NoError(t, err)
	assert.Equal(t, newToken, persisted.Credential)
	assert.Equal(t, "user-1", persisted.Profile.ID)

	credential, ok := f.session.Credential()
	require.True(t, ok)
	assert.Equal(t, newToken, credential)
}

func TestSession_RefreshToken_FailureForcesLogout(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	_, err := f.session.Login(ctx, "jane", "secret")
	require.NoError(t, err)

	f.backend.RefreshFunc = func(context.Context, string) (string, error) {
		return "", domainid.ErrUnreachable
	}

	_, err = f.session.RefreshToken(ctx)
	assert.ErrorIs(t, err, domainid.ErrRefreshFailed)
	assert.False(t, f.session.IsAuthenticated())

	_, storeErr := f.storeRecord(t)
	assert.ErrorIs(t, storeErr, domainid.ErrNoSession)
}

func TestSession_RefreshToken_RequiresAuthentication(t *testing.T) {
	f := newSessionFixture(t)

	_, err := f.session.RefreshToken(context.Background())
	assert.ErrorIs(t, err, domainid.ErrNotAuthenticated)
}

func TestSession_Logout_Idempotent(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	require.NoError(t, f.session.Logout(ctx))
	require.NoError(t, f.session.Logout(ctx))
	assert.False(t, f.session.IsAuthenticated())
}

func TestSession_Logout_SurfacesStoreFailure(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	_, err := f.session.Login(ctx, "jane", "secret")
	require.NoError(t, err)

	f.store.ClearFunc = func(context.Context) error {
		return errors.New("disk full")
	}
	err = f.session.Logout(ctx)
	assert.Error(t, err)
	// In-memory state is dropped regardless.
	assert.False(t, f.session.IsAuthenticated())
}

func TestSession_IsAuthenticated_DetectsSilentExpiry(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	_, err := f.session.Login(ctx, "jane", "secret")
	require.NoError(t, err)
	require.True(t, f.session.IsAuthenticated())

	// The credential expires while the user idles; the next check catches it.
	f.advance(2 * time.Hour)
	assert.False(t, f.session.IsAuthenticated())

	_, storeErr := f.storeRecord(t)
	assert.ErrorIs(t, storeErr, domainid.ErrNoSession)
}

func TestSession_HasRole(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	f.backend.Profile.Roles = []domainid.Role{domainid.RoleUser}
	_, err := f.session.Login(ctx, "jane", "secret")
	require.NoError(t, err)

	assert.True(t, f.session.HasRole(domainid.RoleUser))
	assert.False(t, f.session.HasRole(domainid.RoleAdmin))
}

func TestSession_HasRole_FalseAfterExpiry(t *testing.T) {
	// Roles the last-known profile once had do not survive expiry.
	f := newSessionFixture(t)
	ctx := context.Background()

	f.backend.Profile.Roles = []domainid.Role{domainid.RoleAdmin}
	_, err := f.session.Login(ctx, "jane", "secret")
	require.NoError(t, err)
	require.True(t, f.session.HasRole(domainid.RoleAdmin))

	f.advance(2 * time.Hour)
	assert.False(t, f.session.HasRole(domainid.RoleAdmin))
}

func TestSession_Current_AnonymousWhenExpired(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	_, err := f.session.Login(ctx, "jane", "secret")
	require.NoError(t, err)

	f.advance(2 * time.Hour)
	assert.Equal(t, domainid.Anonymous, f.session.Current())

	_, ok := f.session.Credential()
	assert.False(t, ok)
}
