package sqlstore

import (
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

// Dialect captures the differences between the supported databases
type Dialect struct {
	Name   string
	Driver string
	// Numbered placeholders ($1, $2) instead of ?
	numbered bool
}

var (
	SQLite   = Dialect{Name: "sqlite", Driver: "sqlite"}
	Postgres = Dialect{Name: "postgres", Driver: "pgx", numbered: true}
)

// rebind rewrites ? placeholders for dialects that number them
func (d Dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS demand (
		period     INTEGER PRIMARY KEY,
		qty_single BIGINT NOT NULL,
		qty_double BIGINT NOT NULL,
		qty_king   BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS stock (
		period INTEGER PRIMARY KEY,
		cotton TEXT NOT NULL,
		fibre  TEXT NOT NULL,
		status TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS finished_goods (
		period     INTEGER PRIMARY KEY,
		qty_single BIGINT NOT NULL,
		qty_double BIGINT NOT NULL,
		qty_king   BIGINT NOT NULL
	)`,
}
