package effects

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	dnderr "github.com/KirkDiggler/spell-effects/internal/errors"
	"github.com/KirkDiggler/spell-effects/internal/repositories/effects/migrations"
)

// SQLiteRepository stores effect records in a single SQLite table
type SQLiteRepository struct {
	db    *sql.DB
	clock TimeProvider
}

// SQLiteOption customises OpenSQLite
type SQLiteOption func(*SQLiteRepository)

// WithTimeProvider sets the clock used for updated_at
func WithTimeProvider(clock TimeProvider) SQLiteOption {
	return func(r *SQLiteRepository) {
		r.clock = clock
	}
}

// OpenSQLite opens the database at path and applies the embedded migrations
func OpenSQLite(ctx context.Context, path string, opts ...SQLiteOption) (*SQLiteRepository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, dnderr.InvalidArgument("sqlite path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, dnderr.Wrap(err, "failed to open sqlite database")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, dnderr.Wrap(err, "failed to ping sqlite database")
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	repo := &SQLiteRepository{db: db, clock: systemClock{}}
	for _, opt := range opts {
		opt(repo)
	}
	return repo, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.FS)
	if err != nil {
		return dnderr.Wrap(err, "failed to load migrations")
	}
	if _, err := provider.Up(ctx); err != nil {
		return dnderr.Wrap(err, "failed to run migrations")
	}
	return nil
}

// Close closes the database handle
func (r *SQLiteRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *SQLiteRepository) Get(ctx context.Context, spellID string) ([]byte, error) {
	if err := checkSpellID(spellID); err != nil {
		return nil, err
	}

	var record string
	err := r.db.QueryRowContext(ctx,
		`SELECT record FROM effect_records WHERE spell_id = ?`, spellID,
	).Scan(&record)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, notFound(spellID)
		}
		return nil, dnderr.Wrapf(err, "failed to get effect record for spell %s", spellID).
			WithMeta("spell_id", spellID)
	}
	return []byte(record), nil
}

func (r *SQLiteRepository) Put(ctx context.Context, spellID string, record []byte) error {
	if err := checkSpellID(spellID); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO effect_records (spell_id, record, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(spell_id) DO UPDATE SET
		   record = excluded.record,
		   updated_at = excluded.updated_at`,
		spellID, string(record), r.clock.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return dnderr.Wrapf(err, "failed to store effect record for spell %s", spellID).
			WithMeta("spell_id", spellID)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, spellID string) error {
	if err := checkSpellID(spellID); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM effect_records WHERE spell_id = ?`, spellID)
	if err != nil {
		return dnderr.Wrapf(err, "failed to delete effect record for spell %s", spellID).
			WithMeta("spell_id", spellID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dnderr.Wrap(err, "failed to read deleted row count")
	}
	if n == 0 {
		return notFound(spellID)
	}
	return nil
}

func (r *SQLiteRepository) ListSpellIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT spell_id FROM effect_records ORDER BY spell_id`)
	if err != nil {
		return nil, dnderr.Wrap(err, "failed to list effect records")
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, dnderr.Wrap(err, "failed to scan spell id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, dnderr.Wrap(err, "failed to list effect records")
	}
	return ids, nil
}

// UpdatedAt returns when the record was last written
func (r *SQLiteRepository) UpdatedAt(ctx context.Context, spellID string) (int64, error) {
	var millis int64
	err := r.db.QueryRowContext(ctx,
		`SELECT updated_at FROM effect_records WHERE spell_id = ?`, spellID,
	).Scan(&millis)
	if err == sql.ErrNoRows {
		return 0, notFound(spellID)
	}
	if err != nil {
		return 0, dnderr.Wrap(err, "failed to read updated_at")
	}
	return millis, nil
}
