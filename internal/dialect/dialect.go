package dialect

import (
	"fmt"
	"sort"
	"strings"
)

// Dialect names.
const (
	SQLite   = "sqlite"
	Postgres = "postgres"
	MySQL    = "mysql"
)

// MarkerStyle is the bind-marker syntax of a dialect.
type MarkerStyle int

const (
	// MarkerNamed renders @name and binds sql.Named arguments.
	MarkerNamed MarkerStyle = iota

	// MarkerNumbered renders $1, $2, ... with one index per distinct name.
	MarkerNumbered

	// MarkerPositional renders ? with one argument per occurrence.
	MarkerPositional
)

// Dialect is a pluggable set of statement rendering rules.
type Dialect interface {
	// Name is the dialect name used in configuration.
	Name() string

	// DriverName is the database/sql driver the dialect runs on.
	DriverName() string

	// MarkerStyle selects the Binder behavior.
	MarkerStyle() MarkerStyle

	// Returning reports whether INSERT returns the identity column inline.
	Returning() bool
}

type dialect struct {
	name      string
	driver    string
	style     MarkerStyle
	returning bool
}

func (d dialect) Name() string             { return d.name }
func (d dialect) DriverName() string       { return d.driver }
func (d dialect) MarkerStyle() MarkerStyle { return d.style }
func (d dialect) Returning() bool          { return d.returning }
func (d dialect) String() string           { return d.name }

var (
	sqliteDialect   = dialect{name: SQLite, driver: "sqlite3", style: MarkerNamed}
	postgresDialect = dialect{name: Postgres, driver: "postgres", style: MarkerNumbered, returning: true}
	mysqlDialect    = dialect{name: MySQL, driver: "mysql", style: MarkerPositional}
)

var registry = map[string]Dialect{
	SQLite:       sqliteDialect,
	"sqlite3":    sqliteDialect,
	Postgres:     postgresDialect,
	"postgresql": postgresDialect,
	MySQL:        mysqlDialect,
	"mariadb":    mysqlDialect,
}

// Lookup returns the dialect registered under name (case-insensitive).
func Lookup(name string) (Dialect, error) {
	d, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown dialect %q (valid: %s)", name, strings.Join(Names(), ", "))
	}
	return d, nil
}

// Names returns the canonical dialect names, sorted.
func Names() []string {
	names := []string{SQLite, Postgres, MySQL}
	sort.Strings(names)
	return names
}

// LikePrefix returns the parameter value matching strings starting with s.
// Pattern methods never add wildcards to bind parameters.
func LikePrefix(s string) string { return s + "%" }

// LikeSuffix returns the parameter value matching strings ending with s.
func LikeSuffix(s string) string { return "%" + s }

// LikeContains returns the parameter value matching strings containing s.
func LikeContains(s string) string { return "%" + s + "%" }
