package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/lotline/property-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS records (
	id           TEXT PRIMARY KEY,
	address      TEXT NOT NULL,
	version      INTEGER NOT NULL DEFAULT 1,
	completeness REAL NOT NULL DEFAULT 0,
	quality      TEXT NOT NULL,
	data         TEXT NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS conflicts (
	id         TEXT PRIMARY KEY,
	record_id  TEXT NOT NULL REFERENCES records(id),
	field      TEXT NOT NULL,
	data       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS source_timings (
	id          TEXT PRIMARY KEY,
	record_id   TEXT NOT NULL REFERENCES records(id),
	source      TEXT NOT NULL,
	duration_ms INTEGER NOT NULL,
	ok          INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_records_address ON records(address);
CREATE INDEX IF NOT EXISTS idx_records_address_version ON records(address, version DESC);
CREATE INDEX IF NOT EXISTS idx_conflicts_record_id ON conflicts(record_id);
CREATE INDEX IF NOT EXISTS idx_conflicts_field ON conflicts(field);
CREATE INDEX IF NOT EXISTS idx_source_timings_record_id ON source_timings(record_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRecord persists a unified record along with its conflict rows.
// Records are immutable; saving the same ID twice is an error.
func (s *SQLiteStore) SaveRecord(ctx context.Context, rec *model.UnifiedPropertyRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal record")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO records (id, address, version, completeness, quality, data, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Address.Raw, rec.Version, rec.Metadata.Completeness,
		string(rec.Metadata.DataQuality), string(data), rec.CreatedAt.UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert record %s", rec.ID)
	}

	for _, c := range rec.Conflicts {
		conflictJSON, err := json.Marshal(c)
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal conflict %s", c.Field)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO conflicts (id, record_id, field, data, created_at) VALUES (?, ?, ?, ?, ?)`,
			uuid.New().String(), rec.ID, c.Field, string(conflictJSON), rec.CreatedAt.UTC(),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert conflict %s", c.Field)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

func (s *SQLiteStore) GetRecord(ctx context.Context, id string) (*model.UnifiedPropertyRecord, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM records WHERE id = ?`, id).Scan(&data)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get record %s", id)
	}
	return unmarshalRecord(data)
}

// LatestRecord returns the highest-version record for an address, or nil
// if the address has never been reconciled.
func (s *SQLiteStore) LatestRecord(ctx context.Context, address string) (*model.UnifiedPropertyRecord, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM records WHERE address = ? ORDER BY version DESC LIMIT 1`,
		address,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: latest record %s", address)
	}
	return unmarshalRecord(data)
}

// NextVersion returns the version a new record for this address should carry.
func (s *SQLiteStore) NextVersion(ctx context.Context, address string) (int, error) {
	var max sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(version) FROM records WHERE address = ?`,
		address,
	).Scan(&max)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: next version %s", address)
	}
	return int(max.Int64) + 1, nil
}

func (s *SQLiteStore) ListRecords(ctx context.Context, filter RecordFilter) ([]model.UnifiedPropertyRecord, error) {
	query := `SELECT data FROM records WHERE 1=1`
	var args []any

	if filter.Address != "" {
		query += ` AND address = ?`
		args = append(args, filter.Address)
	}
	if filter.Quality != "" {
		query += ` AND quality = ?`
		args = append(args, string(filter.Quality))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list records")
	}
	defer rows.Close()

	var records []model.UnifiedPropertyRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		rec, err := unmarshalRecord(data)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: iterate records")
}

func (s *SQLiteStore) ListConflicts(ctx context.Context, recordID string) ([]model.ConflictRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM conflicts WHERE record_id = ? ORDER BY field`,
		recordID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list conflicts %s", recordID)
	}
	defer rows.Close()

	var conflicts []model.ConflictRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan conflict")
		}
		var c model.ConflictRecord
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal conflict")
		}
		conflicts = append(conflicts, c)
	}
	return conflicts, eris.Wrap(rows.Err(), "sqlite: iterate conflicts")
}

func (s *SQLiteStore) SaveTimings(ctx context.Context, recordID string, timings []model.SourceTiming) error {
	for _, tm := range timings {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO source_timings (id, record_id, source, duration_ms, ok) VALUES (?, ?, ?, ?, ?)`,
			uuid.New().String(), recordID, string(tm.Source),
			tm.Duration/time.Millisecond, boolToInt(tm.Succeeded),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert timing %s", tm.Source)
		}
	}
	return nil
}

func unmarshalRecord(data string) (*model.UnifiedPropertyRecord, error) {
	var rec model.UnifiedPropertyRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal record")
	}
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
