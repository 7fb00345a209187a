package model

import "time"

// SourceName identifies an external fact provider.
type SourceName string

const (
	SourceZenlist   SourceName = "zenlist"
	SourceHomescout SourceName = "homescout"
	SourceCounty    SourceName = "county"
	SourceGrounded  SourceName = "grounded"
)

// SourceFactRecord is the raw payload returned by one provider for one
// property. Facts is a sparse bag: providers populate only the keys they
// know, and absence of a key is legitimate absence rather than an error.
type SourceFactRecord struct {
	Source     SourceName     `json:"source"`
	Facts      map[string]any `json:"facts"`
	Confidence float64        `json:"confidence"`
	ScrapedAt  time.Time      `json:"scraped_at"`
	OriginURL  string         `json:"origin_url,omitempty"`
}

// Has reports whether the provider populated the given fact key with a
// non-nil value.
func (r *SourceFactRecord) Has(key string) bool {
	if r == nil || r.Facts == nil {
		return false
	}
	v, ok := r.Facts[key]
	return ok && v != nil
}

// Get returns the fact value for key, or nil when absent.
func (r *SourceFactRecord) Get(key string) any {
	if r == nil || r.Facts == nil {
		return nil
	}
	return r.Facts[key]
}

// FieldNames returns the keys this provider populated, in no particular order.
func (r *SourceFactRecord) FieldNames() []string {
	if r == nil || len(r.Facts) == 0 {
		return nil
	}
	names := make([]string, 0, len(r.Facts))
	for k, v := range r.Facts {
		if v != nil {
			names = append(names, k)
		}
	}
	return names
}

// SourceError records a provider that failed or timed out during a fetch.
type SourceError struct {
	Source SourceName `json:"source"`
	Err    string     `json:"error"`
}

// SourceTiming records per-provider wall-clock for one reconciliation call.
type SourceTiming struct {
	Source     SourceName    `json:"source"`
	Duration   time.Duration `json:"duration"`
	Succeeded  bool          `json:"succeeded"`
	FieldCount int           `json:"field_count"`
}
