package migrations

import (
	"io/fs"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPgxURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@h:5432/db?sslmode=disable", PgxURL("postgres://u:p@h:5432/db?sslmode=disable"))
	assert.Equal(t, "pgx5://h/db", PgxURL("postgresql://h/db"))
	assert.Equal(t, "pgx5://h/db", PgxURL("pgx://h/db"))
	assert.Equal(t, "pgx5://h/db", PgxURL("pgx5://h/db"))
}

func TestEveryUpHasDown(t *testing.T) {
	entries, err := fs.ReadDir(files, "sql")
	require.NoError(t, err)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	require.NotEmpty(t, ups)
	assert.Equal(t, ups, downs)

	var names []string
	for n := range ups {
		names = append(names, n)
	}
	sort.Strings(names)
	assert.True(t, strings.HasPrefix(names[0], "000001_"))
}
