package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationNames(t *testing.T) {
	names, err := migrationNames()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"000001_create_polls.down.sql",
		"000001_create_polls.up.sql",
		"000002_create_poll_comments.down.sql",
		"000002_create_poll_comments.up.sql",
	}, names)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	names, err := migrationNames()
	require.NoError(t, err)

	for _, name := range names {
		content, err := migrationFiles.ReadFile(migrationDir + "/" + name)
		require.NoError(t, err)
		assert.Contains(t, string(content), "IF", "%s should guard its DDL", name)
	}
}
