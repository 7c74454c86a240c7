package repository

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// NewSQLiteDB opens the sqlite database behind the given DSN and verifies
// connectivity. The DSN must enable foreign keys; cascade rules on questions,
// answers and history rely on it.
func NewSQLiteDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}

	// sqlite serializes writers; a single write connection avoids SQLITE_BUSY
	// under concurrent transactions.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	return db, nil
}
