package migrator

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

type Migrator struct {
	db            *sql.DB
	migrationsDir string
}

func NewMigrator(db *sql.DB, migrationsDir string) *Migrator {
	return &Migrator{
		db:            db,
		migrationsDir: migrationsDir,
	}
}

func (m *Migrator) Up() error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.Up(m.db, m.migrationsDir); err != nil {
		return err
	}
	return nil
}

// Status prints the applied/pending state of every migration.
func (m *Migrator) Status() error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Status(m.db, m.migrationsDir)
}

func (m *Migrator) Close() error {
	return m.db.Close()
}
