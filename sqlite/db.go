// Package sqlite is the on-disk dynsched.KeyValueStore
package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var Migrations embed.FS

type Database struct {
	conn *sql.DB
}

// Open creates the parent directory of url if needed.
func Open(url string) (*Database, error) {
	if dir := path.Dir(url); dir != "." {
		if err := os.MkdirAll(dir, 0o744); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	conn, err := sql.Open("sqlite", url)
	if err != nil {
		return nil, err
	}
	// one writer; keeps sqlite from returning SQLITE_BUSY between transactions
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &Database{
		conn: conn,
	}, nil
}

func (db *Database) DB() *sql.DB {
	return db.conn
}

// Migrate applies the *.sql files under migrations/ in fsys.
func (db *Database) Migrate(fsys fs.FS) error {
	src, err := iofs.New(fsys, "migrations")
	if err != nil {
		return err
	}
	d, err := migratesqlite.WithInstance(db.conn, &migratesqlite.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", d)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (db *Database) Close() error {
	return db.conn.Close()
}
