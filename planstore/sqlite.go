package planstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/gridpls/cv"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps records in a SQLite database file.
type SQLiteStore struct {
	path string
	opts options

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore returns a store for the database at path. Call Init before use.
func NewSQLiteStore(path string, opts ...Option) *SQLiteStore {
	return &SQLiteStore{path: path, opts: applyOptions(opts)}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	// One connection keeps ":memory:" databases shared and writes serialized.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) Save(ctx context.Context, rec Record) (string, error) {
	db, err := s.getDB()
	if err != nil {
		return "", err
	}
	payload, err := s.opts.prepare(&rec)
	if err != nil {
		return "", err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO plans (id, label, scheme, seed, fold_count, created_at, codec, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			label = excluded.label,
			scheme = excluded.scheme,
			seed = excluded.seed,
			fold_count = excluded.fold_count,
			created_at = excluded.created_at,
			codec = excluded.codec,
			payload = excluded.payload
	`, rec.ID, rec.Label, int(rec.Plan.Scheme), int64(rec.Seed), rec.Plan.FoldCount,
		rec.CreatedAt.UnixNano(), s.opts.codec.Name(), payload)
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Record, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Record{}, false, err
	}

	var (
		codecName string
		payload   []byte
	)
	err = db.QueryRowContext(ctx, `SELECT codec, payload FROM plans WHERE id = ?`, id).Scan(&codecName, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, false, nil
		}
		return Record{}, false, err
	}

	rec, err := decode(codecName, payload)
	if err != nil {
		return Record{}, false, fmt.Errorf("decode plan %s: %w", id, err)
	}
	return rec, true, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, label, scheme, seed, fold_count, created_at
		FROM plans ORDER BY created_at, rowid
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum     Summary
			scheme  int
			seed    int64
			created int64
		)
		if err := rows.Scan(&sum.ID, &sum.Label, &scheme, &seed, &sum.FoldCount, &created); err != nil {
			return nil, err
		}
		sum.Scheme = cv.Scheme(scheme)
		sum.Seed = uint32(seed) //nolint:gosec // written from a uint32
		sum.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `DELETE FROM plans WHERE id = ?`, id)
	return err
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS plans (
			id TEXT PRIMARY KEY,
			label TEXT NOT NULL,
			scheme INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			fold_count INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			codec TEXT NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS plans_created_at ON plans (created_at);
	`)
	return err
}
