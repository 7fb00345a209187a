package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotline/property-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testRecord(address string, version int) *model.UnifiedPropertyRecord {
	return &model.UnifiedPropertyRecord{
		ID:        uuid.New().String(),
		Version:   version,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Address:   model.Address{Raw: address, City: "Austin", State: "TX", Zip: "78704"},
		Structural: model.Structural{
			YearBuilt:  1998,
			LivingArea: 2150,
			Bedrooms:   3,
		},
		Fields: map[string]model.ResolvedField{
			"year_built": {Value: 1998, Source: model.SourceCounty, Confidence: 0.9},
		},
		Conflicts: []model.ConflictRecord{
			{
				Field: "year_built",
				Candidates: []model.CandidateValue{
					{Source: model.SourceCounty, Value: 1998, Confidence: 0.9},
					{Source: model.SourceZenlist, Value: 1995, Confidence: 0.8},
				},
				Resolved: model.CandidateValue{Source: model.SourceCounty, Value: 1998, Confidence: 0.9},
				Strategy: model.ResolveHighestPriority,
			},
		},
		Metadata: model.Metadata{
			Completeness: 72.2,
			DataQuality:  model.QualityScraped,
		},
	}
}

func TestSQLite_SaveAndGetRecord(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	rec := testRecord("123 Main St, Austin, TX 78704", 1)
	require.NoError(t, st.SaveRecord(ctx, rec))

	got, err := st.GetRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Address.Raw, got.Address.Raw)
	assert.Equal(t, 1998, got.Structural.YearBuilt)
	assert.Equal(t, model.QualityScraped, got.Metadata.DataQuality)
}

func TestSQLite_GetRecord_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetRecord(context.Background(), "no-such-id")
	require.Error(t, err)
}

func TestSQLite_SaveRecord_DuplicateID(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	rec := testRecord("123 Main St, Austin, TX 78704", 1)
	require.NoError(t, st.SaveRecord(ctx, rec))
	require.Error(t, st.SaveRecord(ctx, rec))
}

func TestSQLite_LatestRecord_PicksHighestVersion(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	addr := "456 Oak Ave, Austin, TX 78745"

	v1 := testRecord(addr, 1)
	v2 := testRecord(addr, 2)
	require.NoError(t, st.SaveRecord(ctx, v1))
	require.NoError(t, st.SaveRecord(ctx, v2))

	got, err := st.LatestRecord(ctx, addr)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, v2.ID, got.ID)
}

func TestSQLite_LatestRecord_MissingAddress(t *testing.T) {
	st := newTestSQLiteStore(t)

	got, err := st.LatestRecord(context.Background(), "never reconciled")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_NextVersion(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	addr := "789 Pine Rd, Austin, TX 78702"

	v, err := st.NextVersion(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	require.NoError(t, st.SaveRecord(ctx, testRecord(addr, 1)))

	v, err = st.NextVersion(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestSQLite_ListRecords_FilterByQuality(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	scraped := testRecord("1 A St, Austin, TX 78701", 1)
	estimated := testRecord("2 B St, Austin, TX 78701", 1)
	estimated.Metadata.DataQuality = model.QualityEstimated
	require.NoError(t, st.SaveRecord(ctx, scraped))
	require.NoError(t, st.SaveRecord(ctx, estimated))

	got, err := st.ListRecords(ctx, RecordFilter{Quality: model.QualityEstimated})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, estimated.ID, got[0].ID)
}

func TestSQLite_ListRecords_Limit(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, st.SaveRecord(ctx, testRecord("3 C St, Austin, TX 78701", i+1)))
	}

	got, err := st.ListRecords(ctx, RecordFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSQLite_ListConflicts(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	rec := testRecord("10 D St, Austin, TX 78701", 1)
	require.NoError(t, st.SaveRecord(ctx, rec))

	conflicts, err := st.ListConflicts(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "year_built", conflicts[0].Field)
	assert.Equal(t, model.SourceCounty, conflicts[0].Resolved.Source)
	assert.Len(t, conflicts[0].Candidates, 2)
}

func TestSQLite_SaveTimings(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	rec := testRecord("11 E St, Austin, TX 78701", 1)
	require.NoError(t, st.SaveRecord(ctx, rec))

	timings := []model.SourceTiming{
		{Source: model.SourceZenlist, Duration: 410 * time.Millisecond, Succeeded: true, FieldCount: 12},
		{Source: model.SourceGrounded, Duration: 2 * time.Second, Succeeded: false},
	}
	require.NoError(t, st.SaveTimings(ctx, rec.ID, timings))
}
