package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/domain/model"
	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/domain/rbac"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func instantAuthenticator() *MockAuthenticator {
	return NewMockAuthenticator(0, testLogger())
}

func TestNewSession_FromEmptySlotIsAnonymous(t *testing.T) {
	s := NewSession(context.Background(), NewMemorySlot(nil), instantAuthenticator(), testLogger())

	assert.Equal(t, StateAnonymous, s.State())
	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.Identity())
	assert.Equal(t, rbac.Role(""), s.Role())
	assert.Equal(t, "", s.DisplayName())
}

func TestNewSession_FromStoredIdentityIsAuthenticated(t *testing.T) {
	stored := model.NewIdentity("id-7", "sara", rbac.RoleSupervisor)
	s := NewSession(context.Background(), NewMemorySlot(stored), instantAuthenticator(), testLogger())

	assert.Equal(t, StateAuthenticated, s.State())
	assert.True(t, s.IsAuthenticated())
	assert.True(t, s.IsSupervisor())
	assert.False(t, s.IsStudent())
	assert.False(t, s.IsClub())
	assert.Equal(t, "sara", s.DisplayName())
}

// brokenSlot — слот, который не читается.
type brokenSlot struct {
	MemorySlot
	cleared bool
}

func (b *brokenSlot) Load(context.Context) (*model.Identity, error) {
	return nil, errors.New("повреждённый cookie")
}

func (b *brokenSlot) Clear(ctx context.Context) error {
	b.cleared = true
	return nil
}

func TestNewSession_BrokenSlotIsClearedAndAnonymous(t *testing.T) {
	slot := &brokenSlot{}
	s := NewSession(context.Background(), slot, instantAuthenticator(), testLogger())

	assert.False(t, s.IsAuthenticated())
	assert.True(t, slot.cleared)
}

func TestLogin_PersistsIdentityWithExactRole(t *testing.T) {
	for _, role := range []rbac.Role{rbac.RoleStudent, rbac.RoleClub, rbac.RoleSupervisor, "unknown-role"} {
		t.Run(string(role), func(t *testing.T) {
			slot := NewMemorySlot(nil)
			s := NewSession(context.Background(), slot, instantAuthenticator(), testLogger())

			identity, err := s.Login(context.Background(), Credentials{Username: "noor", Password: "anything", Role: role})
			require.NoError(t, err)

			assert.Equal(t, role, identity.Role)
			assert.NotEmpty(t, identity.ID)
			assert.Equal(t, "noor", identity.DisplayName)
			assert.Equal(t, StateAuthenticated, s.State())
			assert.True(t, s.IsAuthenticated())
			assert.False(t, s.IsLoading())
			assert.Empty(t, s.LastError())

			stored, err := slot.Load(context.Background())
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.Equal(t, *identity, *stored)
		})
	}
}

func TestLogin_GeneratesNewIDEachTime(t *testing.T) {
	s := NewSession(context.Background(), NewMemorySlot(nil), instantAuthenticator(), testLogger())

	first, err := s.Login(context.Background(), Credentials{Username: "a", Role: rbac.RoleClub})
	require.NoError(t, err)
	second, err := s.Login(context.Background(), Credentials{Username: "a", Role: rbac.RoleClub})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestLogin_IsLoadingWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	authn := AuthenticatorFunc(func(ctx context.Context, creds Credentials) (*model.Identity, error) {
		close(entered)
		<-release
		return model.NewIdentity("x", creds.Username, creds.Role), nil
	})

	s := NewSession(context.Background(), NewMemorySlot(nil), authn, testLogger())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = s.Login(context.Background(), Credentials{Username: "u", Role: rbac.RoleStudent})
	}()

	<-entered
	assert.True(t, s.IsLoading())
	assert.Equal(t, StateAuthenticating, s.State())
	assert.False(t, s.IsAuthenticated())

	close(release)
	wg.Wait()

	assert.False(t, s.IsLoading())
	assert.Equal(t, StateAuthenticated, s.State())
}

func TestLogin_FailureKeepsIdentityAndSetsLastError(t *testing.T) {
	failing := AuthenticatorFunc(func(context.Context, Credentials) (*model.Identity, error) {
		return nil, errors.New("backend down")
	})

	slot := NewMemorySlot(nil)
	s := NewSession(context.Background(), slot, failing, testLogger())

	identity, err := s.Login(context.Background(), Credentials{Username: "u", Role: rbac.RoleStudent})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoginFailed)
	assert.Nil(t, identity)

	assert.Equal(t, StateAnonymous, s.State())
	assert.False(t, s.IsAuthenticated())
	assert.False(t, s.IsLoading())
	assert.Equal(t, MsgLoginFailed, s.LastError())

	stored, _ := slot.Load(context.Background())
	assert.Nil(t, stored)
}

func TestLogin_FailureFromAuthenticatedKeepsPreviousIdentity(t *testing.T) {
	prev := model.NewIdentity("old", "old-user", rbac.RoleClub)
	failing := AuthenticatorFunc(func(context.Context, Credentials) (*model.Identity, error) {
		return nil, errors.New("boom")
	})

	s := NewSession(context.Background(), NewMemorySlot(prev), failing, testLogger())
	_, err := s.Login(context.Background(), Credentials{Username: "new", Role: rbac.RoleStudent})
	require.Error(t, err)

	assert.Equal(t, StateAuthenticated, s.State())
	assert.Equal(t, rbac.RoleClub, s.Role())
	assert.Equal(t, MsgLoginFailed, s.LastError())
}

func TestLogin_SlotSaveFailureIsLoginFailure(t *testing.T) {
	slot := NewMemorySlot(nil)
	slot.SaveErr = errors.New("disk full")

	s := NewSession(context.Background(), slot, instantAuthenticator(), testLogger())
	_, err := s.Login(context.Background(), Credentials{Username: "u", Role: rbac.RoleStudent})

	assert.ErrorIs(t, err, ErrLoginFailed)
	assert.False(t, s.IsAuthenticated())
}

func TestLogin_CancelledContext(t *testing.T) {
	authn := NewMockAuthenticator(time.Hour, testLogger())
	s := NewSession(context.Background(), NewMemorySlot(nil), authn, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Login(ctx, Credentials{Username: "u", Role: rbac.RoleStudent})
	assert.ErrorIs(t, err, ErrLoginFailed)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, s.IsAuthenticated())
}

func TestMockAuthenticator_WaitsForDelay(t *testing.T) {
	authn := NewMockAuthenticator(20*time.Millisecond, testLogger())

	start := time.Now()
	identity, err := authn.Authenticate(context.Background(), Credentials{Username: "", Role: rbac.RoleClub})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, model.DefaultDisplayName, identity.DisplayName)
	assert.Equal(t, rbac.RoleClub, identity.Role)
}

func TestLogout_ClearsIdentityAndSlot(t *testing.T) {
	slot := NewMemorySlot(nil)
	s := NewSession(context.Background(), slot, instantAuthenticator(), testLogger())

	_, err := s.Login(context.Background(), Credentials{Username: "u", Role: rbac.RoleStudent})
	require.NoError(t, err)

	s.Logout(context.Background())

	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.Identity())
	assert.Equal(t, StateAnonymous, s.State())

	// «Рестарт»: новая сессия из того же слота — анонимная
	restarted := NewSession(context.Background(), slot, instantAuthenticator(), testLogger())
	assert.Equal(t, StateAnonymous, restarted.State())
}

func TestSessionContext(t *testing.T) {
	assert.Nil(t, SessionFromContext(context.Background()))

	s := NewSession(context.Background(), NewMemorySlot(nil), instantAuthenticator(), testLogger())
	ctx := WithSession(context.Background(), s)
	assert.Same(t, s, SessionFromContext(ctx))
}
