package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestPendingMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"002_values.up.sql": {Data: []byte("CREATE TABLE b ();")},
		"001_init.up.sql":   {Data: []byte("CREATE TABLE a ();")},
		"001_init.down.sql": {Data: []byte("DROP TABLE a;")},
		"003_runs.up.sql":   {Data: []byte("CREATE TABLE c ();")},
		"README.md":         {Data: []byte("notes")},
		"nested/004.up.sql": {Data: []byte("CREATE TABLE d ();")},
	}

	got, err := PendingMigrations(fsys, map[string]bool{"002_values.up.sql": true})
	require.NoError(t, err)
	require.Equal(t, []string{"001_init.up.sql", "003_runs.up.sql"}, got)
}

func TestPendingMigrations_AllApplied(t *testing.T) {
	fsys := fstest.MapFS{"001_init.up.sql": {Data: []byte("SELECT 1;")}}

	got, err := PendingMigrations(fsys, map[string]bool{"001_init.up.sql": true})
	require.NoError(t, err)
	require.Empty(t, got)
}
