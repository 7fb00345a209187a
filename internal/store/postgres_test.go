package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotline/property-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_GetRecord_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT data FROM records WHERE id = \$1`).
		WithArgs("nonexistent-record").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRecord(context.Background(), "nonexistent-record")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get record")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRecord(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rec := testRecord("123 Main St, Austin, TX 78704", 1)
	data, err := json.Marshal(rec)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT data FROM records WHERE id = \$1`).
		WithArgs(rec.ID).
		WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow(data))

	got, err := s.GetRecord(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Address.Raw, got.Address.Raw)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LatestRecord_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT data FROM records WHERE address = \$1`).
		WithArgs("never reconciled").
		WillReturnError(pgx.ErrNoRows)

	got, err := s.LatestRecord(context.Background(), "never reconciled")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_NextVersion(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT COALESCE\(MAX\(version\), 0\) \+ 1 FROM records WHERE address = \$1`).
		WithArgs("456 Oak Ave, Austin, TX 78745").
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(3))

	v, err := s.NextVersion(context.Background(), "456 Oak Ave, Austin, TX 78745")
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRecord(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rec := testRecord("123 Main St, Austin, TX 78704", 1)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO records`).
		WithArgs(rec.ID, rec.Address.Raw, rec.Version, rec.Metadata.Completeness,
			string(rec.Metadata.DataQuality), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO conflicts`).
		WithArgs(pgxmock.AnyArg(), rec.ID, "year_built", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, s.SaveRecord(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRecord_InsertFails(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rec := testRecord("123 Main St, Austin, TX 78704", 1)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO records`).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := s.SaveRecord(context.Background(), rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert record")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListConflicts(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	conflict := model.ConflictRecord{
		Field: "list_price",
		Candidates: []model.CandidateValue{
			{Source: model.SourceZenlist, Value: 450000.0, Confidence: 0.85},
			{Source: model.SourceHomescout, Value: 499000.0, Confidence: 0.8},
		},
		Resolved: model.CandidateValue{Source: model.SourceZenlist, Value: 450000.0, Confidence: 0.85},
		Strategy: model.ResolveHighestPriority,
	}
	data, err := json.Marshal(conflict)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT data FROM conflicts WHERE record_id = \$1`).
		WithArgs("rec-1").
		WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow(data))

	got, err := s.ListConflicts(context.Background(), "rec-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "list_price", got[0].Field)
	assert.NoError(t, mock.ExpectationsWereMet())
}
