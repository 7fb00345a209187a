package model

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// FieldPriorityTable maps target field names to an ordered provider list,
// most authoritative first. Fields is keyed by target field name; fields not
// listed use Default. The table is immutable process-wide configuration and
// is injected into the reconciler so tests can substitute alternates.
type FieldPriorityTable struct {
	Default []SourceName            `yaml:"default"`
	Fields  map[string][]SourceName `yaml:"fields"`
}

// Priority returns the provider ordering for a field, falling back to the
// default ordering for unlisted fields.
func (t *FieldPriorityTable) Priority(field string) []SourceName {
	if order, ok := t.Fields[field]; ok {
		return order
	}
	return t.Default
}

// Rank returns the position of source in the field's priority list, or
// len(list) when the source is unlisted so it sorts after all listed ones.
func (t *FieldPriorityTable) Rank(field string, source SourceName) int {
	order := t.Priority(field)
	for i, s := range order {
		if s == source {
			return i
		}
	}
	return len(order)
}

// DefaultPriorityTable returns the built-in source-priority ordering. County
// records are canonical for regulatory and assessment facts; listing sites
// win on market-facing facts; the grounded search ranks last everywhere
// because its answers are synthesized rather than observed.
func DefaultPriorityTable() *FieldPriorityTable {
	return &FieldPriorityTable{
		Default: []SourceName{SourceZenlist, SourceHomescout, SourceCounty, SourceGrounded},
		Fields: map[string][]SourceName{
			"parcel_number":  {SourceCounty, SourceZenlist, SourceHomescout, SourceGrounded},
			"zoning":         {SourceCounty, SourceGrounded, SourceZenlist, SourceHomescout},
			"assessed_value": {SourceCounty, SourceGrounded, SourceZenlist, SourceHomescout},
			"tax_annual":     {SourceCounty, SourceZenlist, SourceHomescout, SourceGrounded},
			"year_built":     {SourceCounty, SourceZenlist, SourceHomescout, SourceGrounded},
			"lot_size":       {SourceCounty, SourceZenlist, SourceHomescout, SourceGrounded},
			"flood_zone":     {SourceGrounded, SourceCounty, SourceZenlist, SourceHomescout},
			"walk_score":     {SourceGrounded, SourceZenlist, SourceHomescout, SourceCounty},
			"schools":        {SourceGrounded, SourceZenlist, SourceHomescout, SourceCounty},
			"list_price":     {SourceZenlist, SourceHomescout, SourceGrounded, SourceCounty},
		},
	}
}

// LoadPriorityTable reads a priority table from a YAML file. Missing default
// ordering falls back to the built-in default.
func LoadPriorityTable(path string) (*FieldPriorityTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "model: read priority table %s", path)
	}

	var wrapper struct {
		Priority FieldPriorityTable `yaml:"priority"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "model: parse priority table")
	}

	table := &wrapper.Priority
	if len(table.Default) == 0 {
		table.Default = DefaultPriorityTable().Default
	}
	return table, nil
}
