package migration

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMigrations(t *testing.T) {
	names, err := ListMigrations()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"000001_create_label_jobs",
		"000002_label_jobs_status_check",
	}, names)
}

func TestEmbeddedMigrations_Paired(t *testing.T) {
	names, err := ListMigrations()
	require.NoError(t, err)

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			up, err := fs.ReadFile(migrationFS, migrationDir+"/"+name+".up.sql")
			require.NoError(t, err)
			down, err := fs.ReadFile(migrationFS, migrationDir+"/"+name+".down.sql")
			require.NoError(t, err)

			assert.NotEmpty(t, strings.TrimSpace(string(up)))
			assert.NotEmpty(t, strings.TrimSpace(string(down)))
		})
	}
}

func TestEmbeddedMigrations_MatchJobStatuses(t *testing.T) {
	raw, err := fs.ReadFile(migrationFS, migrationDir+"/000002_label_jobs_status_check.up.sql")
	require.NoError(t, err)

	for _, status := range []string{"PENDING", "RENDERING", "COMPLETED", "FAILED"} {
		assert.Contains(t, string(raw), "'"+status+"'")
	}
}
