package model

// ResolutionStrategy names how a conflicted field's winner was chosen.
type ResolutionStrategy string

const (
	ResolveHighestPriority   ResolutionStrategy = "highest-priority"
	ResolveHighestConfidence ResolutionStrategy = "highest-confidence"
)

// CandidateValue is one provider's offering for a contested field.
type CandidateValue struct {
	Source     SourceName `json:"source"`
	Value      any        `json:"value"`
	Confidence float64    `json:"confidence"`
}

// ConflictRecord documents a field where two or more providers disagreed
// beyond tolerance. The field still resolves to a single winner; conflicts
// are informational and surfaced for audit, never treated as errors.
type ConflictRecord struct {
	Field      string             `json:"field"`
	Candidates []CandidateValue   `json:"candidates"`
	Resolved   CandidateValue     `json:"resolved"`
	Strategy   ResolutionStrategy `json:"strategy"`
}
