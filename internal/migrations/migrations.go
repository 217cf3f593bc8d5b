// Package migrations ships the database schema as ordered SQL files for the ptah migrator.
package migrations

import (
	"embed"
	"io/fs"
	"log/slog"

	"github.com/stokaro/ptah/dbschema"
	"github.com/stokaro/ptah/migration/migrator"
)

//go:embed sql/*.sql
var files embed.FS

// Embedded returns the NNNNNNNNNN_name.{up,down}.sql files shipped with the binary.
func Embedded() fs.FS {
	sub, err := fs.Sub(files, "sql")
	if err != nil {
		panic(err)
	}
	return sub
}

func NewMigrator(conn *dbschema.DatabaseConnection, logger *slog.Logger) (*migrator.Migrator, error) {
	m, err := migrator.NewFSMigrator(conn, Embedded())
	if err != nil {
		return nil, err
	}
	if logger == nil {
		return m, nil
	}
	return m.WithLogger(logger), nil
}
