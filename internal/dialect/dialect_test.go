package dialect

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	for _, name := range []string{"sqlite", "SQLite3", " postgres ", "postgresql", "mysql", "mariadb"} {
		d, err := Lookup(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, d.DriverName())
	}

	_, err := Lookup("oracle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql, postgres, sqlite")
}

func TestDriverNames(t *testing.T) {
	tests := map[string]string{SQLite: "sqlite3", Postgres: "postgres", MySQL: "mysql"}
	for name, driver := range tests {
		d, err := Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, name, d.Name())
		assert.Equal(t, driver, d.DriverName())
	}
}

func TestBinder_Named(t *testing.T) {
	b := NewBinder(sqliteDialect)

	assert.Equal(t, "@Cource", b.Marker("Cource"))
	assert.Equal(t, "@Letter", b.Marker("Letter"))
	assert.Equal(t, "@Cource", b.Marker("Cource"))
	assert.Equal(t, []string{"Cource", "Letter"}, b.Names())

	args, err := b.Args(map[string]any{"Cource": 1, "Letter": "A", "Unused": true})
	require.NoError(t, err)
	assert.Equal(t, []any{sql.Named("Cource", 1), sql.Named("Letter", "A")}, args)
}

func TestBinder_Numbered(t *testing.T) {
	b := NewBinder(postgresDialect)

	assert.Equal(t, "$1", b.Marker("Cource"))
	assert.Equal(t, "$2", b.Marker("Letter"))
	assert.Equal(t, "$1", b.Marker("Cource"))

	args, err := b.Args(map[string]any{"Cource": 1, "Letter": "A"})
	require.NoError(t, err)
	assert.Equal(t, []any{1, "A"}, args)
}

func TestBinder_Positional(t *testing.T) {
	b := NewBinder(mysqlDialect)

	assert.Equal(t, "?", b.Marker("Cource"))
	assert.Equal(t, "?", b.Marker("Letter"))
	assert.Equal(t, "?", b.Marker("Cource"))

	args, err := b.Args(map[string]any{"Cource": 1, "Letter": "A"})
	require.NoError(t, err)
	assert.Equal(t, []any{1, "A", 1}, args)
}

func TestBinder_MissingValue(t *testing.T) {
	b := NewBinder(postgresDialect)
	b.Marker("Cource")

	_, err := b.Args(map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Cource"`)
}

func TestLikeHelpers(t *testing.T) {
	assert.Equal(t, "Iv%", LikePrefix("Iv"))
	assert.Equal(t, "%ov", LikeSuffix("ov"))
	assert.Equal(t, "%an%", LikeContains("an"))
}
