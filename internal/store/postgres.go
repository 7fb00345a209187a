package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/lotline/property-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_record":  `INSERT INTO records (id, address, version, completeness, quality, data, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
	"get_record":     `SELECT data FROM records WHERE id = $1`,
	"latest_record":  `SELECT data FROM records WHERE address = $1 ORDER BY version DESC LIMIT 1`,
	"next_version":   `SELECT COALESCE(MAX(version), 0) + 1 FROM records WHERE address = $1`,
	"insert_timing":  `INSERT INTO source_timings (id, record_id, source, duration_ms, ok) VALUES ($1, $2, $3, $4, $5)`,
	"list_conflicts": `SELECT data FROM conflicts WHERE record_id = $1 ORDER BY field`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS records (
	id           TEXT PRIMARY KEY,
	address      TEXT NOT NULL,
	version      INTEGER NOT NULL DEFAULT 1,
	completeness DOUBLE PRECISION NOT NULL DEFAULT 0,
	quality      TEXT NOT NULL,
	data         JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS conflicts (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	record_id  TEXT NOT NULL REFERENCES records(id),
	field      TEXT NOT NULL,
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS source_timings (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	record_id   TEXT NOT NULL REFERENCES records(id),
	source      TEXT NOT NULL,
	duration_ms BIGINT NOT NULL,
	ok          BOOLEAN NOT NULL DEFAULT true
);

CREATE INDEX IF NOT EXISTS idx_records_address ON records(address);
CREATE INDEX IF NOT EXISTS idx_records_address_version ON records(address, version DESC);
CREATE INDEX IF NOT EXISTS idx_conflicts_record_id ON conflicts(record_id);
CREATE INDEX IF NOT EXISTS idx_conflicts_field ON conflicts(field);
CREATE INDEX IF NOT EXISTS idx_source_timings_record_id ON source_timings(record_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveRecord(ctx context.Context, rec *model.UnifiedPropertyRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal record")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO records (id, address, version, completeness, quality, data, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.Address.Raw, rec.Version, rec.Metadata.Completeness,
		string(rec.Metadata.DataQuality), data, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert record %s", rec.ID)
	}

	for _, c := range rec.Conflicts {
		conflictJSON, err := json.Marshal(c)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal conflict %s", c.Field)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO conflicts (id, record_id, field, data, created_at) VALUES ($1, $2, $3, $4, $5)`,
			uuid.New().String(), rec.ID, c.Field, conflictJSON, rec.CreatedAt.UTC(),
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert conflict %s", c.Field)
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit")
}

func (s *PostgresStore) GetRecord(ctx context.Context, id string) (*model.UnifiedPropertyRecord, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM records WHERE id = $1`, id).Scan(&data)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get record %s", id)
	}
	var rec model.UnifiedPropertyRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal record")
	}
	return &rec, nil
}

func (s *PostgresStore) LatestRecord(ctx context.Context, address string) (*model.UnifiedPropertyRecord, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM records WHERE address = $1 ORDER BY version DESC LIMIT 1`,
		address,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: latest record %s", address)
	}
	var rec model.UnifiedPropertyRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal record")
	}
	return &rec, nil
}

func (s *PostgresStore) NextVersion(ctx context.Context, address string) (int, error) {
	var version int
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM records WHERE address = $1`,
		address,
	).Scan(&version)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: next version %s", address)
	}
	return version, nil
}

func (s *PostgresStore) ListRecords(ctx context.Context, filter RecordFilter) ([]model.UnifiedPropertyRecord, error) {
	query := `SELECT data FROM records WHERE 1=1`
	var args []any

	if filter.Address != "" {
		args = append(args, filter.Address)
		query += ` AND address = $` + strconv.Itoa(len(args))
	}
	if filter.Quality != "" {
		args = append(args, string(filter.Quality))
		query += ` AND quality = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list records")
	}
	defer rows.Close()

	var records []model.UnifiedPropertyRecord
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		var rec model.UnifiedPropertyRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal record")
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: iterate records")
}

func (s *PostgresStore) ListConflicts(ctx context.Context, recordID string) ([]model.ConflictRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM conflicts WHERE record_id = $1 ORDER BY field`,
		recordID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list conflicts %s", recordID)
	}
	defer rows.Close()

	var conflicts []model.ConflictRecord
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan conflict")
		}
		var c model.ConflictRecord
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal conflict")
		}
		conflicts = append(conflicts, c)
	}
	return conflicts, eris.Wrap(rows.Err(), "postgres: iterate conflicts")
}

func (s *PostgresStore) SaveTimings(ctx context.Context, recordID string, timings []model.SourceTiming) error {
	for _, tm := range timings {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO source_timings (id, record_id, source, duration_ms, ok) VALUES ($1, $2, $3, $4, $5)`,
			uuid.New().String(), recordID, string(tm.Source),
			int64(tm.Duration/time.Millisecond), tm.Succeeded,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert timing %s", tm.Source)
		}
	}
	return nil
}
