// Package migrations: схема Postgres для goose.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var FS embed.FS

func setup() error {
	goose.SetBaseFS(FS)
	return goose.SetDialect("postgres")
}

// Up применяет все миграции к db (драйвер pgx через database/sql).
func Up(db *sql.DB) error {
	return Run(db, "up")
}

// Run: команда goose: up, down, status, version.
func Run(db *sql.DB, command string) error {
	if err := setup(); err != nil {
		return err
	}
	switch command {
	case "up":
		return goose.Up(db, ".")
	case "down":
		return goose.Down(db, ".")
	case "status":
		return goose.Status(db, ".")
	case "version":
		return goose.Version(db, ".")
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
}
