package migrate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersions_SortedAndEmbedded(t *testing.T) {
	versions, err := Versions()
	require.NoError(t, err)
	require.NotEmpty(t, versions)

	assert.Equal(t, "0001_directory_config", versions[0])
	for i := 1; i < len(versions); i++ {
		assert.Less(t, versions[i-1], versions[i])
	}
}

func TestMigrations_NeverStorePlaintextPassword(t *testing.T) {
	versions, err := Versions()
	require.NoError(t, err)

	for _, v := range versions {
		body, err := migrationsFS.ReadFile("migrations/" + v + ".sql")
		require.NoError(t, err)
		for _, line := range strings.Split(string(body), "\n") {
			if strings.Contains(line, "password") {
				assert.Contains(t, line, "password_enc", "migration %s line %q", v, line)
			}
		}
	}
}
