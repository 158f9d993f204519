package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/consentforms/consentforms/internal/domain/auth"
	apperrors "github.com/consentforms/consentforms/internal/errors"
	"github.com/consentforms/consentforms/internal/mocks"
	fakes "github.com/consentforms/consentforms/internal/mocks/auth"
	"github.com/consentforms/consentforms/internal/testutil"
)

// mockSessionStore is a test helper for testing session store errors.
type mockSessionStore struct {
	saveFunc   func(context.Context, domainauth.Session) error
	getFunc    func(context.Context, string) (domainauth.Session, error)
	deleteFunc func(context.Context, string) error
}

func (m *mockSessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, sess)
	}
	return nil
}

func (m *mockSessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return domainauth.Session{}, nil
}

func (m *mockSessionStore) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

// authenticatorFunc adapts a function to Authenticator.
type authenticatorFunc func(ctx context.Context, username, password string) domainauth.AuthResult

func (f authenticatorFunc) AuthenticateAndAuthorise(ctx context.Context, username, password string) domainauth.AuthResult {
	return f(ctx, username, password)
}

func newDirectorySessionService(t *testing.T, sessions *fakes.MemorySessionStore, clock *testutil.TestTimeProvider) *SessionService {
	t.Helper()
	auth := newAuthFixture(t).svc
	return NewSessionService(SessionServiceOptions{
		Auth:     auth,
		Sessions: sessions,
		TTL:      time.Hour,
		Now:      clock.Now,
	})
}

func TestNewSessionService_Defaults(t *testing.T) {
	svc := NewSessionService(SessionServiceOptions{})
	assert.Equal(t, DefaultSessionTTL, svc.TTL())
	assert.NotNil(t, svc.now)
	assert.NotNil(t, svc.logger)
}

func TestSessionService_Login_Success(t *testing.T) {
	clock := testutil.NewTestTimeProvider(testutil.TestTime())
	sessions := fakes.NewMemorySessionStore()
	svc := newDirectorySessionService(t, sessions, clock)

	res, err := svc.Login(context.Background(), "asmith", "battery staple")

	require.NoError(t, err)
	require.True(t, res.OK, res.Reason)
	assert.NotEmpty(t, res.Session.ID)
	assert.Equal(t, "asmith", res.Session.Username)
	assert.Equal(t, testAsmithDN, res.Session.UserDN)
	assert.Equal(t, []domainauth.Role{domainauth.RoleRead, domainauth.RoleChange, domainauth.RoleFull}, res.Session.Roles)
	assert.Equal(t, testutil.TestTime().Add(time.Hour), res.Session.ExpiresAt)

	stored, err := sessions.Get(context.Background(), res.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Session, stored)
}

func TestSessionService_Login_UniqueIDs(t *testing.T) {
	clock := testutil.NewTestTimeProvider(testutil.TestTime())
	sessions := fakes.NewMemorySessionStore()
	svc := newDirectorySessionService(t, sessions, clock)

	a, err := svc.Login(context.Background(), "jdoe", "correct horse")
	require.NoError(t, err)
	b, err := svc.Login(context.Background(), "jdoe", "correct horse")
	require.NoError(t, err)

	assert.NotEqual(t, a.Session.ID, b.Session.ID)
	assert.Equal(t, 2, sessions.Len())
}

func TestSessionService_Login_Rejected(t *testing.T) {
	clock := testutil.NewTestTimeProvider(testutil.TestTime())
	sessions := fakes.NewMemorySessionStore()
	svc := newDirectorySessionService(t, sessions, clock)

	res, err := svc.Login(context.Background(), "jdoe", "wrong")

	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, apperrors.PublicInvalidLogin, res.Reason)
	assert.Zero(t, sessions.Len())
}

func TestSessionService_Login_NoRolesCreatesNoSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSessionStore(ctrl)
	// Save must not be called.

	svc := NewSessionService(SessionServiceOptions{
		Auth: authenticatorFunc(func(context.Context, string, string) domainauth.AuthResult {
			return domainauth.Succeeded("CN=Visitor,DC=example,DC=com", domainauth.NewRoleSet())
		}),
		Sessions: store,
	})

	res, err := svc.Login(context.Background(), "visitor", "pw")

	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, NoAccessReason, res.Reason)
}

func TestSessionService_Login_SaveError(t *testing.T) {
	sessions := &mockSessionStore{
		saveFunc: func(context.Context, domainauth.Session) error {
			return errors.New("redis down")
		},
	}
	svc := NewSessionService(SessionServiceOptions{
		Auth: authenticatorFunc(func(context.Context, string, string) domainauth.AuthResult {
			return domainauth.Succeeded("CN=x", domainauth.NewRoleSet(domainauth.RoleRead))
		}),
		Sessions: sessions,
	})

	_, err := svc.Login(context.Background(), "x", "pw")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "save session")
}

func TestSessionService_GetSession(t *testing.T) {
	clock := testutil.NewTestTimeProvider(testutil.TestTime())
	sessions := fakes.NewMemorySessionStore()
	svc := newDirectorySessionService(t, sessions, clock)

	res, err := svc.Login(context.Background(), "jdoe", "correct horse")
	require.NoError(t, err)

	got, err := svc.GetSession(context.Background(), res.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Session.ID, got.ID)

	clock.Advance(time.Hour)
	_, err = svc.GetSession(context.Background(), res.Session.ID)
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Zero(t, sessions.Len(), "expired session is removed")
}

func TestSessionService_GetSession_EmptyID(t *testing.T) {
	svc := NewSessionService(SessionServiceOptions{Sessions: fakes.NewMemorySessionStore()})

	_, err := svc.GetSession(context.Background(), "")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSessionService_GetSession_Missing(t *testing.T) {
	svc := NewSessionService(SessionServiceOptions{Sessions: fakes.NewMemorySessionStore()})

	_, err := svc.GetSession(context.Background(), "nope")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSessionService_GetSession_ExpiredDeleteError(t *testing.T) {
	sessions := &mockSessionStore{
		getFunc: func(context.Context, string) (domainauth.Session, error) {
			return domainauth.Session{ID: "s1", ExpiresAt: testutil.TestTime().Add(-time.Minute)}, nil
		},
		deleteFunc: func(context.Context, string) error {
			return errors.New("redis down")
		},
	}
	svc := NewSessionService(SessionServiceOptions{
		Sessions: sessions,
		Now:      testutil.FixedTimeFunc(testutil.TestTime()),
	})

	_, err := svc.GetSession(context.Background(), "s1")

	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Contains(t, err.Error(), "delete session")
}

func TestSessionService_Logout(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSessionStore(ctrl)
	store.EXPECT().Delete(gomock.Any(), "s1").Return(nil)
	store.EXPECT().Delete(gomock.Any(), "s2").Return(errors.New("redis down"))

	svc := NewSessionService(SessionServiceOptions{Sessions: store})

	require.NoError(t, svc.Logout(context.Background(), ""))
	require.NoError(t, svc.Logout(context.Background(), "s1"))
	assert.Error(t, svc.Logout(context.Background(), "s2"))
}
