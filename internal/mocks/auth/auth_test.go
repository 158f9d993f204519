package auth

import (
	"context"
	"testing"
	"time"

	domainauth "github.com/consentforms/consentforms/internal/domain/auth"
	apperrors "github.com/consentforms/consentforms/internal/errors"
	"github.com/consentforms/consentforms/internal/ldapfilter"
	"github.com/consentforms/consentforms/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDirectory() *FakeDirectory {
	return &FakeDirectory{
		ServiceDN:       "cn=svc,dc=example,dc=com",
		ServicePassword: "svc-pass",
		Users: []FakeUser{{
			SAMAccountName: "jdoe",
			DN:             "cn=John Doe,ou=Users,dc=example,dc=com",
			Password:       "pw",
			Groups:         []string{"cn=Readers,dc=example,dc=com"},
		}},
	}
}

func TestFakeDirectory_SearchRequiresServiceBind(t *testing.T) {
	ctx := context.Background()
	dir := testDirectory()
	sess, err := dir.Open(ctx, domainauth.DirectoryConfig{})
	require.NoError(t, err)

	_, err = sess.Search(ctx, ports.SearchRequest{BaseDN: "dc=example,dc=com", Filter: ldapfilter.UserLookup("jdoe")})
	assert.True(t, apperrors.IsDirectoryUnavailable(err))

	require.NoError(t, sess.Bind(ctx, dir.ServiceDN, dir.ServicePassword))
	entries, err := sess.Search(ctx, ports.SearchRequest{BaseDN: "dc=example,dc=com", Filter: ldapfilter.UserLookup("jdoe")})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cn=John Doe,ou=Users,dc=example,dc=com", entries[0].DN)
}

func TestFakeDirectory_MembershipAndBinds(t *testing.T) {
	ctx := context.Background()
	dir := testDirectory()
	sess, err := dir.Open(ctx, domainauth.DirectoryConfig{})
	require.NoError(t, err)
	require.NoError(t, sess.Bind(ctx, dir.ServiceDN, dir.ServicePassword))

	userDN := dir.Users[0].DN
	in, err := sess.Search(ctx, ports.SearchRequest{
		BaseDN: "dc=example,dc=com",
		Filter: ldapfilter.TransitiveMembership(userDN, "cn=Readers,dc=example,dc=com"),
	})
	require.NoError(t, err)
	assert.Len(t, in, 1)

	out, err := sess.Search(ctx, ports.SearchRequest{
		BaseDN: "dc=example,dc=com",
		Filter: ldapfilter.TransitiveMembership(userDN, "cn=Admins,dc=example,dc=com"),
	})
	require.NoError(t, err)
	assert.Empty(t, out)

	assert.True(t, apperrors.IsInvalidCredentials(sess.Bind(ctx, userDN, "wrong")))
	assert.True(t, apperrors.IsInvalidCredentials(sess.Bind(ctx, userDN, "")))
	require.NoError(t, sess.Bind(ctx, userDN, "pw"))

	require.NoError(t, sess.Close())
	fs := dir.Sessions()[0]
	assert.Equal(t, 1, fs.CloseCalls())
	assert.Len(t, fs.Binds(), 4)
	assert.Len(t, fs.Searches(), 2)
}

func TestFakeDirectory_OpenErr(t *testing.T) {
	dir := testDirectory()
	dir.OpenErr = apperrors.DirectoryUnavailable("down")
	_, err := dir.Open(context.Background(), domainauth.DirectoryConfig{})
	require.Error(t, err)
	assert.Zero(t, dir.OpenCount())
}

func TestMemorySessionStore_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()

	sess := domainauth.Session{
		ID:        "s1",
		Username:  "jdoe",
		Roles:     []domainauth.Role{domainauth.RoleRead},
		ExpiresAt: time.Now().Add(time.Hour),
	}

	require.NoError(t, store.Save(ctx, sess))
	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, sess.Username, got.Username)
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Get(ctx, "s1")
	require.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, store.Save(ctx, domainauth.Session{}))
}

func TestMemoryConfigStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryConfigStore(domainauth.DirectoryConfig{ServerURL: "ldaps://dc1"})

	cfg, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ldaps://dc1", cfg.ServerURL)

	cfg.BaseSearchDN = "dc=example,dc=com"
	require.NoError(t, store.Save(ctx, cfg))
	assert.Equal(t, 1, store.Saves())
	assert.Equal(t, 1, store.Loads())

	store.LoadErr = apperrors.Configuration("broken")
	_, err = store.Load(ctx)
	assert.True(t, apperrors.IsConfiguration(err))
}
