// Package dialect assembles complete SQL statements from entity metadata and
// compiled expression fragments.
//
// A Dialect decides the bind-marker syntax and the few statement forms that
// differ between backends:
//
//	dialect.SQLite   = "sqlite"    @name markers, sql.Named arguments
//	dialect.Postgres = "postgres"  $n markers, one per distinct name, RETURNING
//	dialect.MySQL    = "mysql"     ? markers, one argument per occurrence
//
// Statements carry a Binder that maps named values onto driver arguments.
package dialect
