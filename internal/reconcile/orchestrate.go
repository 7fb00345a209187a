package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lotline/property-cli/internal/layout"
	"github.com/lotline/property-cli/internal/model"
	"github.com/lotline/property-cli/internal/source"
)

// ErrNoData is returned when every requested source failed or returned
// nothing. It is the only terminal failure the orchestrator produces;
// individual source failures are captured as data in the result.
var ErrNoData = errors.New("reconcile: no source returned data")

// Result is the outcome of one reconciliation call. Record is nil when the
// call failed entirely; Errors and Timings are always populated.
type Result struct {
	Record  *model.UnifiedPropertyRecord `json:"record,omitempty"`
	Errors  []model.SourceError          `json:"errors,omitempty"`
	Timings []model.SourceTiming         `json:"timings"`
	Total   time.Duration                `json:"total"`
}

// Orchestrator fans one reconciliation request out to every configured
// source concurrently, joins all of them regardless of individual failure,
// and runs the reconciler and synthesizer strictly after the join.
type Orchestrator struct {
	sources    []source.Source
	reconciler *Reconciler
	synth      *layout.Synthesizer
	timeout    time.Duration
}

// NewOrchestrator creates an Orchestrator. A zero timeout means the caller's
// context bounds the call.
func NewOrchestrator(sources []source.Source, reconciler *Reconciler, synth *layout.Synthesizer, timeout time.Duration) *Orchestrator {
	return &Orchestrator{
		sources:    sources,
		reconciler: reconciler,
		synth:      synth,
		timeout:    timeout,
	}
}

// Reconcile fetches the address from every source, merges whatever arrived,
// and synthesizes room layouts over the merged record. Proceeds whenever at
// least one source succeeded; otherwise returns ErrNoData with the collected
// per-source errors in the result.
func (o *Orchestrator) Reconcile(ctx context.Context, address string) (*Result, error) {
	if len(o.sources) == 0 {
		return nil, eris.New("reconcile: no sources configured")
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	start := time.Now()

	// Each task writes only its own slot; no shared state crosses the join.
	type slot struct {
		record   *model.SourceFactRecord
		err      error
		duration time.Duration
	}
	slots := make([]slot, len(o.sources))

	g, gCtx := errgroup.WithContext(ctx)
	for i, src := range o.sources {
		g.Go(func() error {
			fetchStart := time.Now()
			rec, err := src.Fetch(gCtx, address)
			slots[i] = slot{record: rec, err: err, duration: time.Since(fetchStart)}
			// Failures are captured as data, never propagated: one bad
			// source must not cancel the siblings.
			return nil
		})
	}
	_ = g.Wait()

	result := &Result{Total: time.Since(start)}
	var records []model.SourceFactRecord
	for i, src := range o.sources {
		s := slots[i]
		timing := model.SourceTiming{
			Source:    src.Name(),
			Duration:  s.duration,
			Succeeded: s.err == nil && s.record != nil,
		}
		switch {
		case s.err != nil:
			result.Errors = append(result.Errors, model.SourceError{
				Source: src.Name(),
				Err:    s.err.Error(),
			})
			zap.L().Warn("reconcile: source failed",
				zap.String("source", string(src.Name())),
				zap.String("address", address),
				zap.Duration("duration", s.duration),
				zap.Error(s.err),
			)
		case s.record != nil:
			timing.FieldCount = len(s.record.FieldNames())
			records = append(records, *s.record)
		}
		result.Timings = append(result.Timings, timing)
	}

	if len(records) == 0 {
		return result, eris.Wrapf(ErrNoData, "reconcile: all %d sources failed for %q", len(o.sources), address)
	}

	fields, conflicts := o.reconciler.Reconcile(records)
	rec := Assemble(address, fields, conflicts, records, 1)
	if o.synth != nil {
		o.synth.Apply(rec)
	}
	result.Record = rec

	zap.L().Info("reconcile: complete",
		zap.String("address", address),
		zap.String("record_id", rec.ID),
		zap.Int("sources_ok", len(records)),
		zap.Int("conflicts", len(conflicts)),
		zap.Float64("completeness", rec.Metadata.Completeness),
		zap.Duration("total", result.Total),
	)
	return result, nil
}
