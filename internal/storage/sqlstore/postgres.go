package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

var postgresDialect = dialect{
	name:       "postgres",
	selectStmt: `SELECT record FROM user_records WHERE record_key = $1`,
	lockStmt:   `SELECT record FROM user_records WHERE record_key = $1 FOR UPDATE`,
	upsertStmt: `
		INSERT INTO user_records (record_key, record, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (record_key) DO UPDATE SET record = EXCLUDED.record, updated_at = EXCLUDED.updated_at`,
}

// OpenPostgres connects using a lib/pq DSN and ensures the schema exists.
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	s, err := newStore(ctx, db, postgresDialect)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}
