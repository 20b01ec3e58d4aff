// Package store executes assembled statements through database/sql.
//
// A Store pairs a database handle with a dialect and a metadata resolver.
// Table[T] is the typed repository over one mapped record type: bind values
// and scan destinations come from the meta.Mapping accessors, so rows move in
// and out of T without reflection.
//
// # Drivers
//
//   - sqlite:   github.com/mattn/go-sqlite3, single connection, WAL pragmas
//   - postgres: github.com/lib/pq, postgres:// URLs converted to key=value form
//   - mysql:    github.com/go-sql-driver/mysql, DSN validated and parseTime forced
//
// # SQLite Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
