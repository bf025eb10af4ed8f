package config

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/udovin/gosql"

	// Register SQL drivers.
	_ "github.com/jackc/pgx/v4/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

type DatabaseDriver string

const (
	SQLiteDriver   DatabaseDriver = "sqlite"
	PostgresDriver DatabaseDriver = "postgres"
)

type DatabaseOptions interface {
	Driver() DatabaseDriver
}

// SQLiteOptions stores SQLite connection options.
type SQLiteOptions struct {
	Path string `json:"path"`
}

func (o SQLiteOptions) Driver() DatabaseDriver {
	return SQLiteDriver
}

// PostgresOptions stores Postgres connection options.
type PostgresOptions struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password Secret `json:"password"`
	Name     string `json:"name"`
	SSLMode  string `json:"sslmode,omitempty"`
}

func (o PostgresOptions) Driver() DatabaseDriver {
	return PostgresDriver
}

// DB stores configuration for database connection.
type DB struct {
	Options DatabaseOptions `json:"options"`
}

// Driver returns driver of configured database.
func (c DB) Driver() DatabaseDriver {
	if c.Options == nil {
		return ""
	}
	return c.Options.Driver()
}

func (c DB) MarshalJSON() ([]byte, error) {
	cfg := struct {
		Driver  DatabaseDriver  `json:"driver"`
		Options DatabaseOptions `json:"options"`
	}{
		Driver:  c.Driver(),
		Options: c.Options,
	}
	return json.Marshal(cfg)
}

func (c *DB) UnmarshalJSON(bytes []byte) error {
	var cfg struct {
		Driver  DatabaseDriver  `json:"driver"`
		Options json.RawMessage `json:"options"`
	}
	if err := json.Unmarshal(bytes, &cfg); err != nil {
		return err
	}
	switch cfg.Driver {
	case SQLiteDriver:
		var options SQLiteOptions
		if err := json.Unmarshal(cfg.Options, &options); err != nil {
			return err
		}
		c.Options = options
	case PostgresDriver:
		var options PostgresOptions
		if err := json.Unmarshal(cfg.Options, &options); err != nil {
			return err
		}
		c.Options = options
	default:
		return fmt.Errorf("driver %q is not supported", cfg.Driver)
	}
	return nil
}

// Create creates database connection using current configuration.
func (c DB) Create() (*gosql.DB, error) {
	switch opts := c.Options.(type) {
	case SQLiteOptions:
		return createSQLiteDB(opts)
	case PostgresOptions:
		return createPostgresDB(opts)
	default:
		return nil, errors.New("unsupported database config type")
	}
}

func createSQLiteDB(opts SQLiteOptions) (*gosql.DB, error) {
	config := gosql.SQLiteConfig{Path: opts.Path}
	db, err := config.NewDB()
	if err != nil {
		return nil, err
	}
	// This can increase writes performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, err
	}
	// In-memory database lives as long as its single connection.
	db.SetMaxOpenConns(1)
	return db, nil
}

func createPostgresDB(opts PostgresOptions) (*gosql.DB, error) {
	password, err := opts.Password.GetValue()
	if err != nil {
		return nil, err
	}
	sslMode := opts.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}
	config := gosql.PostgresConfig{
		Hosts:    []string{fmt.Sprintf("%s:%d", opts.Host, opts.Port)},
		User:     opts.User,
		Password: password,
		Name:     opts.Name,
		SSLMode:  sslMode,
	}
	return config.NewDB()
}
