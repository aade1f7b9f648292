// Package sqlstore keeps the serialized user record in a single-row
// key-value table on SQLite or Postgres.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"paper_trading/internal/models"
	"paper_trading/internal/storage"
)

// RecordKey is the row key of the one user record.
const RecordKey = "user"

const schema = `
CREATE TABLE IF NOT EXISTS user_records (
	record_key TEXT PRIMARY KEY,
	record TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// dialect carries the statements that differ between drivers.
type dialect struct {
	name       string
	selectStmt string
	lockStmt   string // select used inside UpdateUser's transaction
	upsertStmt string
}

// Store implements storage.Store on database/sql.
type Store struct {
	db *sql.DB
	d  dialect
}

func newStore(ctx context.Context, db *sql.DB, d dialect) (*Store, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("%s: create schema: %w", d.name, err)
	}
	return &Store{db: db, d: d}, nil
}

func (s *Store) GetUser(ctx context.Context) (models.User, error) {
	return s.read(s.db.QueryRowContext(ctx, s.d.selectStmt, RecordKey))
}

func (s *Store) SaveUser(ctx context.Context, u models.User) error {
	b, err := encode(u)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.d.upsertStmt, RecordKey, string(b), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%s: save user record: %w", s.d.name, err)
	}
	return nil
}

// UpdateUser runs read-merge-write in one transaction.
func (s *Store) UpdateUser(ctx context.Context, up models.UserUpdate) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	u, err := s.read(tx.QueryRowContext(ctx, s.d.lockStmt, RecordKey))
	if err != nil {
		return err
	}

	b, err := encode(u.Merge(up))
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, s.d.upsertStmt, RecordKey, string(b), time.Now().UTC()); err != nil {
		return fmt.Errorf("%s: update user record: %w", s.d.name, err)
	}
	return tx.Commit()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) read(row *sql.Row) (models.User, error) {
	var raw string
	err := row.Scan(&raw)
	if err == sql.ErrNoRows {
		return storage.DefaultUser(), nil
	}
	if err != nil {
		return models.User{}, fmt.Errorf("%s: read user record: %w", s.d.name, err)
	}

	var u models.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return models.User{}, fmt.Errorf("%s: decode user record: %w", s.d.name, err)
	}
	if storage.Migrate(&u) {
		log.Printf("INFO: User record migrated to version %s (written on next save)", u.Version)
	}
	return u, nil
}

func encode(u models.User) ([]byte, error) {
	u.Version = storage.SchemaVersion
	if u.Portfolio == nil {
		u.Portfolio = []models.Position{}
	}
	b, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("marshal user record: %w", err)
	}
	return b, nil
}

var _ storage.Store = (*Store)(nil)
