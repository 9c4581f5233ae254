package pgsource

import (
	"database/sql"

	// registers the "postgres" database/sql driver.
	_ "github.com/lib/pq"
)

// Open opens a PostgreSQL connection pool for use with SQLBoiler model
// query functions wired into New. dsn is a standard libpq connection
// string.
func Open(dsn string) (*sql.DB, error) {
	return sql.Open("postgres", dsn)
}
