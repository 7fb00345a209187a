// Package reconcile merges per-provider property fact records into a single
// unified record with field-level provenance, confidence, and conflict audit.
package reconcile

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/lotline/property-cli/internal/model"
)

// numericTolerance is the relative deviation from the group mean above which
// a numeric field is flagged as conflicted.
const numericTolerance = 0.05

// Reconciler resolves each target field to a single value using an injected
// source-priority table. Authority dominates confidence: a low-confidence
// county value beats a high-confidence listing value wherever the county is
// listed first for that field.
type Reconciler struct {
	table *model.FieldPriorityTable
}

// NewReconciler creates a Reconciler with the given priority table.
func NewReconciler(table *model.FieldPriorityTable) *Reconciler {
	if table == nil {
		table = model.DefaultPriorityTable()
	}
	return &Reconciler{table: table}
}

// ResolveField picks the winning value for one field. Candidates with nil
// values are dropped; if none remain the field is unresolved (nil value,
// confidence 0). Remaining candidates sort by priority-list position, then
// by descending confidence for candidates of equal rank.
func (r *Reconciler) ResolveField(field string, candidates []model.CandidateValue) model.ResolvedField {
	live := make([]model.CandidateValue, 0, len(candidates))
	for _, c := range candidates {
		if c.Value != nil {
			live = append(live, c)
		}
	}
	if len(live) == 0 {
		return model.ResolvedField{}
	}

	sort.SliceStable(live, func(i, j int) bool {
		ri, rj := r.table.Rank(field, live[i].Source), r.table.Rank(field, live[j].Source)
		if ri != rj {
			return ri < rj
		}
		return live[i].Confidence > live[j].Confidence
	})

	winner := live[0]
	return model.ResolvedField{
		Value:      winner.Value,
		Source:     winner.Source,
		Confidence: winner.Confidence,
	}
}

// DetectConflict flags a field where providers disagree beyond tolerance.
// Runs independently of resolution: the winner is already chosen, and the
// returned record is informational. Returns nil when fewer than two non-nil
// candidates exist or all values agree.
func (r *Reconciler) DetectConflict(field string, candidates []model.CandidateValue, winner model.ResolvedField) *model.ConflictRecord {
	live := make([]model.CandidateValue, 0, len(candidates))
	for _, c := range candidates {
		if c.Value != nil {
			live = append(live, c)
		}
	}
	if len(live) < 2 {
		return nil
	}

	if !valuesDisagree(live) {
		return nil
	}

	return &model.ConflictRecord{
		Field:      field,
		Candidates: live,
		Resolved: model.CandidateValue{
			Source:     winner.Source,
			Value:      winner.Value,
			Confidence: winner.Confidence,
		},
		Strategy: r.strategy(field, live),
	}
}

// Reconcile resolves every field populated by at least one record and
// returns the field map plus all flagged conflicts, sorted by field name.
func (r *Reconciler) Reconcile(records []model.SourceFactRecord) (map[string]model.ResolvedField, []model.ConflictRecord) {
	byField := make(map[string][]model.CandidateValue)
	for i := range records {
		rec := &records[i]
		for key, val := range rec.Facts {
			if val == nil {
				continue
			}
			byField[key] = append(byField[key], model.CandidateValue{
				Source:     rec.Source,
				Value:      val,
				Confidence: rec.Confidence,
			})
		}
	}

	fields := make(map[string]model.ResolvedField, len(byField))
	var conflicts []model.ConflictRecord
	for key, candidates := range byField {
		resolved := r.ResolveField(key, candidates)
		fields[key] = resolved
		if c := r.DetectConflict(key, candidates, resolved); c != nil {
			conflicts = append(conflicts, *c)
		}
	}

	sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].Field < conflicts[j].Field })
	return fields, conflicts
}

// strategy reports how the winner was chosen: highest-confidence when the
// top candidates share a priority rank, highest-priority otherwise.
func (r *Reconciler) strategy(field string, live []model.CandidateValue) model.ResolutionStrategy {
	best := math.MaxInt
	count := 0
	for _, c := range live {
		rank := r.table.Rank(field, c.Source)
		switch {
		case rank < best:
			best, count = rank, 1
		case rank == best:
			count++
		}
	}
	if count > 1 {
		return model.ResolveHighestConfidence
	}
	return model.ResolveHighestPriority
}

// valuesDisagree applies the numeric 5% mean-deviation rule when every value
// coerces to a number, and the case-insensitive distinct-count rule otherwise.
func valuesDisagree(live []model.CandidateValue) bool {
	nums := make([]float64, 0, len(live))
	allNumeric := true
	for _, c := range live {
		n, ok := toFloat(c.Value)
		if !ok {
			allNumeric = false
			break
		}
		nums = append(nums, n)
	}

	if allNumeric {
		var sum float64
		for _, n := range nums {
			sum += n
		}
		mean := sum / float64(len(nums))
		if mean == 0 {
			for _, n := range nums {
				if n != 0 {
					return true
				}
			}
			return false
		}
		for _, n := range nums {
			if math.Abs(n-mean)/math.Abs(mean) > numericTolerance {
				return true
			}
		}
		return false
	}

	seen := make(map[string]struct{}, len(live))
	for _, c := range live {
		seen[normalizeText(c.Value)] = struct{}{}
	}
	return len(seen) > 1
}

func normalizeText(v any) string {
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	return strings.ToLower(strings.TrimSpace(s))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	default:
		return 0, false
	}
}
