package db

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"embed"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var sqlFiles embed.FS

var (
	db       *sql.DB
	dbErr    error
	dbCreate sync.Once
)

// GetDB opens the database once, creating it if needed. A store that cannot
// be opened or pinged aborts the process; running with every write silently
// failing is worse than not starting.
func GetDB() *sql.DB {
	dbCreate.Do(func() {
		db, dbErr = Open(viper.GetString("database.path"))
		if dbErr != nil {
			log.Fatalf("error getting db: %v", dbErr)
		}
	})
	return db
}

// Open opens the sqlite database at path, creating the file and the message
// tables if needed. An empty path places the database in the XDG data dir.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		dir := filepath.Join(xdg.DataHome, "gabble")
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("error creating data dir (%s): %w", dir, err)
		}
		path = filepath.Join(dir, "gabble.sqlite")
	}

	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening db: %w", err)
	}

	// an in-memory database exists per connection; keep the pool at one so
	// every query sees the same tables
	if strings.Contains(path, ":memory:") {
		d.SetMaxOpenConns(1)
	}

	if err := d.Ping(); err != nil {
		return nil, fmt.Errorf("error pinging db: %w", err)
	}

	schema, _ := sqlFiles.ReadFile("schema.sql")
	if _, err := d.Exec(string(schema)); err != nil {
		return nil, fmt.Errorf("error creating tables: %w", err)
	}
	return d, nil
}
