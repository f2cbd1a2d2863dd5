package testutil

import (
	"database/sql"
	"strings"
	"testing"

	configlibsql "cryptoscout/lib/configutil/libsql"
)

type DBParams struct {
	// if unspecified, the db is left empty
	Schema string
	// if unspecified, it will use `:memory:`
	Path string
}

// SetupDB opens a sqlite database that is closed when the test ends.
func SetupDB(t testing.TB, params DBParams) *sql.DB {
	path := params.Path
	if path == "" {
		path = ":memory:"
	}

	db, err := configlibsql.Struct{File: path}.OpenDB()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	if params.Schema != "" {
		_, err = db.Exec(params.Schema)
		if err != nil && !strings.Contains(err.Error(), "already exists") {
			t.Fatal(err)
		}
	}
	return db
}
