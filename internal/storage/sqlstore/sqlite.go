package sqlstore

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

var sqliteDialect = dialect{
	name:       "sqlite",
	selectStmt: `SELECT record FROM user_records WHERE record_key = ?`,
	lockStmt:   `SELECT record FROM user_records WHERE record_key = ?`,
	upsertStmt: `
		INSERT INTO user_records (record_key, record, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(record_key) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at`,
}

// OpenSQLite opens (or creates) the database file at path.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// One writer at a time; sqlite locks the whole file anyway.
	db.SetMaxOpenConns(1)

	s, err := newStore(ctx, db, sqliteDialect)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}
