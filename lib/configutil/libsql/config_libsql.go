package configlibsql

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"

	devenv "cryptoscout/dev/env"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Struct configures a database that is either a local sqlite file or a
// remote libsql server.
type Struct struct {
	// File is a sqlite database path, it may start with <dev_state> or be
	// ":memory:".
	File string `json:"file"`
	// Url is a libsql server url, ex. libsql://db-org.turso.io, it takes
	// precedence over File.
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func (config Struct) Enabled() bool {
	return config.File != "" || config.Url != ""
}

func (config Struct) openRemote() (*sql.DB, error) {
	dsn, err := url.Parse(config.Url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if config.AuthToken != "" {
		query := dsn.Query()
		query.Set("authToken", config.AuthToken)
		dsn.RawQuery = query.Encode()
	}
	return sql.Open("libsql", dsn.String())
}

func (config Struct) OpenDB() (*sql.DB, error) {
	if config.Url != "" {
		return config.openRemote()
	}
	if config.File == "" {
		return nil, fmt.Errorf("a path was not specified")
	}

	if config.File == ":memory:" {
		db, err := sql.Open("sqlite", ":memory:")
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(1)
		return db, nil
	}

	dbpath, err := devenv.ResolvePath(config.File)
	if err != nil {
		return nil, err
	}

	_, statErr := os.Stat(dbpath)
	if os.IsNotExist(statErr) {
		f, err := os.Create(dbpath)
		if err != nil {
			return nil, err
		}
		f.Close()
	}

	db, err := sql.Open("sqlite", dbpath)
	if err != nil {
		return nil, err
	}
	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
