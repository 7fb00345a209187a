// Package source adapts external property-data providers to a common fact
// record shape. Each adapter returns either a SourceFactRecord with a
// per-record confidence or an error; the orchestrator treats both uniformly.
package source

import (
	"context"

	"github.com/lotline/property-cli/internal/model"
)

// Source is one external fact provider.
type Source interface {
	Name() model.SourceName
	Fetch(ctx context.Context, address string) (*model.SourceFactRecord, error)
}

// coverageConfidence derives a per-record confidence from how much of the
// provider's schema the record populated: a half-populated record is worth
// less than a full one, floored so any successful fetch carries some weight.
func coverageConfidence(populated, schema int) float64 {
	if schema <= 0 {
		return 0.5
	}
	c := 0.5 + 0.5*float64(populated)/float64(schema)
	if c > 1 {
		c = 1
	}
	return c
}

// putIfSet stores a fact only when it has a usable value, keeping the bag
// sparse: absent keys mean the provider did not know.
func putIfSet(facts map[string]any, key string, value any) {
	switch v := value.(type) {
	case string:
		if v != "" {
			facts[key] = v
		}
	case int:
		if v != 0 {
			facts[key] = v
		}
	case float64:
		if v != 0 {
			facts[key] = v
		}
	case []string:
		if len(v) > 0 {
			facts[key] = v
		}
	default:
		if v != nil {
			facts[key] = v
		}
	}
}
