package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consentforms/consentforms/internal/data/cryptoutil"
	domainauth "github.com/consentforms/consentforms/internal/domain/auth"
	"github.com/consentforms/consentforms/internal/testutil"
)

func TestDirectoryConfigRepo_EmptyIsSetupMode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewDirectoryConfigRepo(db, cryptoutil.NoopEncryptor{})

	cfg, err := repo.Load(context.Background())

	require.NoError(t, err)
	assert.True(t, domainauth.IsSetupMode(cfg))
}

func TestDirectoryConfigRepo_SaveLoadEncryptsPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	key := make([]byte, 32)
	enc, err := cryptoutil.NewAESGCMEncryptor(key)
	require.NoError(t, err)
	repo := NewDirectoryConfigRepo(db, enc)
	ctx := context.Background()

	want := domainauth.DirectoryConfig{
		ServerURL:           "ldaps://dc.corp.local",
		BaseSearchDN:        "DC=corp,DC=local",
		ServiceBindDN:       "CN=svc,DC=corp,DC=local",
		ServiceBindPassword: "hunter2",
		GroupDNs:            domainauth.GroupDNs{Full: "CN=Full,DC=corp,DC=local"},
	}
	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	var stored string
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT service_bind_password_enc FROM directory_config WHERE id = 1`).Scan(&stored))
	assert.NotContains(t, stored, "hunter2")

	want.GroupDNs.Read = "CN=Read,DC=corp,DC=local"
	require.NoError(t, repo.Save(ctx, want))

	var history int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT count(*) FROM directory_config_history`).Scan(&history))
	assert.Equal(t, 2, history)
}
