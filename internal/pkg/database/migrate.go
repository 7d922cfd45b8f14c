package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationsDir é o diretório (dentro do FS embutido) com os arquivos goose.
const MigrationsDir = "migrations"

func init() {
	goose.SetBaseFS(migrationsFS)
}

// Migrate aplica todas as migrações pendentes (goose up).
func Migrate(ctx context.Context, db *sql.DB) error {
	return RunMigrations(ctx, db, "up")
}

// RunMigrations executa um comando goose (up, down, status, version, redo, reset...)
// sobre as migrações embutidas no binário.
func RunMigrations(ctx context.Context, db *sql.DB, command string, args ...string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose: dialeto inválido: %w", err)
	}
	if err := goose.RunContext(ctx, command, db, MigrationsDir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}
