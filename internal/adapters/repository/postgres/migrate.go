package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationDir = "migrations"

// MigrateUp runs every *.up.sql script in name order. The scripts are
// idempotent, so running it against a migrated database is a no-op.
func MigrateUp(ctx context.Context, db *sql.DB) error {
	names, err := migrationNames()
	if err != nil {
		return err
	}
	for _, name := range names {
		if !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		if err := execMigration(ctx, db, name); err != nil {
			return err
		}
	}
	return nil
}

// RunMigration executes the first script whose file name matches migration,
// e.g. "create_polls.down" or "000002_create_poll_comments.up".
func RunMigration(ctx context.Context, db *sql.DB, migration string) (string, error) {
	regex, err := regexp.Compile(fmt.Sprintf(`^.*%s\.sql$`, regexp.QuoteMeta(migration)))
	if err != nil {
		return "", fmt.Errorf("invalid migration pattern: %w", err)
	}

	names, err := migrationNames()
	if err != nil {
		return "", err
	}
	for _, name := range names {
		if regex.MatchString(name) {
			return name, execMigration(ctx, db, name)
		}
	}
	return "", fmt.Errorf("migration file not found: %s", migration)
}

func migrationNames() ([]string, error) {
	entries, err := fs.ReadDir(migrationFiles, migrationDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func execMigration(ctx context.Context, db *sql.DB, name string) error {
	content, err := fs.ReadFile(migrationFiles, migrationDir+"/"+name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if _, err := db.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("failed to execute %s: %w", name, err)
	}
	return nil
}
