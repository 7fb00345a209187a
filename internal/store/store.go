package store

import (
	"context"

	"github.com/lotline/property-cli/internal/model"
)

// RecordFilter specifies criteria for listing unified records.
type RecordFilter struct {
	Address string                `json:"address,omitempty"`
	Quality model.DataQualityTier `json:"quality,omitempty"`
	Limit   int                   `json:"limit,omitempty"`
	Offset  int                   `json:"offset,omitempty"`
}

// Store defines the persistence interface for reconciled property records.
type Store interface {
	// Records
	SaveRecord(ctx context.Context, rec *model.UnifiedPropertyRecord) error
	GetRecord(ctx context.Context, id string) (*model.UnifiedPropertyRecord, error)
	LatestRecord(ctx context.Context, address string) (*model.UnifiedPropertyRecord, error)
	ListRecords(ctx context.Context, filter RecordFilter) ([]model.UnifiedPropertyRecord, error)
	NextVersion(ctx context.Context, address string) (int, error)

	// Conflict audit trail
	ListConflicts(ctx context.Context, recordID string) ([]model.ConflictRecord, error)

	// Source timings
	SaveTimings(ctx context.Context, recordID string, timings []model.SourceTiming) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
