package migrations

import (
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
)

const trackingTableSQL = `
create table if not exists scanner._migrations (
    pk         bigserial primary key,
    name       text not null unique,
    applied_at timestamptz not null default now()
);`

// Run applies every *.up.sql file under sql/ not yet recorded in
// scanner._migrations, in filename order. Migrations are append-only: once
// applied, a file's contents must never change.
func Run(db *sql.DB) error {
	if _, err := db.Exec("create schema if not exists scanner"); err != nil {
		return fmt.Errorf("create scanner schema: %w", err)
	}
	if _, err := db.Exec(trackingTableSQL); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	names, err := sortedMigrationNames()
	if err != nil {
		return err
	}

	for _, name := range names {
		applied, err := isApplied(db, name)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		sqlBytes, err := FS.ReadFile("sql/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(sqlBytes)); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := tx.Exec(`insert into scanner._migrations (name) values ($1)`, name); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", name, err)
		}
	}
	return nil
}

func sortedMigrationNames() ([]string, error) {
	entries, err := fs.ReadDir(FS, "sql")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func isApplied(db *sql.DB, name string) (bool, error) {
	var exists bool
	err := db.QueryRow(`select exists(select 1 from scanner._migrations where name = $1)`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check migration %s: %w", name, err)
	}
	return exists, nil
}
