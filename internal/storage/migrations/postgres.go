package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"croak-assistant/internal/storage/postgres"
)

// RunPostgresMigrations creates the catalog and interaction tables. Every
// file uses IF NOT EXISTS, so running it against a live database is safe.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	scripts, err := loadScripts(PostgresFS, "postgres")
	if err != nil {
		return err
	}
	for _, s := range scripts {
		if _, err := pool.Exec(ctx, s.body); err != nil {
			return fmt.Errorf("apply postgres migration %s: %w", s.name, err)
		}
	}
	return nil
}

type script struct {
	name string
	body string
}

// loadScripts returns the non-empty .sql files of dir in name order.
func loadScripts(fsys fs.FS, dir string) ([]script, error) {
	names, err := fs.Glob(fsys, path.Join(dir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("list %s migrations: %w", dir, err)
	}
	sort.Strings(names)

	scripts := make([]script, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		body := strings.TrimSpace(string(data))
		if body == "" {
			continue
		}
		scripts = append(scripts, script{name: path.Base(name), body: body})
	}
	return scripts, nil
}
