package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// MemoryDSN is a private in-memory database. It only survives as long as the
// single pooled connection does, which Open guarantees.
const MemoryDSN = "file::memory:"

type Config struct {
	DSN string
}

func dsn(cfg Config) string {
	d := cfg.DSN
	if d == "" {
		d = MemoryDSN
	}
	sep := "?"
	if strings.Contains(d, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout(5000)", d, sep)
}

// Open opens the SQLite database pinned to one connection so in-memory state
// is shared by every query.
func Open(cfg Config) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return conn, nil
}
