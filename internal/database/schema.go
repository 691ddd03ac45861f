package database

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// SchemaStatements returns the DDL statements for driver in file order.
func SchemaStatements(driver string) ([]string, error) {
	name := "schema/mysql.sql"
	if driver == "pgx" {
		name = "schema/postgres.sql"
	}
	raw, err := schemaFS.ReadFile(name)
	if err != nil {
		return nil, err
	}
	var stmts []string
	for _, s := range strings.Split(string(raw), ";") {
		if s = strings.TrimSpace(s); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts, nil
}

// EnsureSchema creates any missing tables.  Every statement is
// idempotent so it is safe to run on each start.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	stmts, err := SchemaStatements(db.DriverName())
	if err != nil {
		return err
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
