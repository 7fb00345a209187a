package reconcile

import (
	"time"

	"github.com/google/uuid"

	"github.com/lotline/property-cli/internal/model"
)

// Assemble combines resolved fields, conflicts, and the provenance records
// into one versioned UnifiedPropertyRecord. Completeness and quality tier
// are recomputed from the assembled record. Rooms are attached separately by
// the orchestrator after synthesis.
func Assemble(rawAddress string, fields map[string]model.ResolvedField, conflicts []model.ConflictRecord, records []model.SourceFactRecord, version int) *model.UnifiedPropertyRecord {
	rec := &model.UnifiedPropertyRecord{
		ID:         uuid.NewString(),
		Version:    version,
		CreatedAt:  time.Now().UTC(),
		Fields:     fields,
		Conflicts:  conflicts,
		Provenance: records,
	}

	rec.Address = assembleAddress(rawAddress, fields)
	rec.Geolocation = assembleGeolocation(fields)
	rec.Structural = assembleStructural(fields)
	rec.Regulatory = assembleRegulatory(fields)
	rec.Valuation = assembleValuation(fields)
	rec.Neighborhood = assembleNeighborhood(fields)

	rec.Metadata = model.Metadata{
		SourceConfidence: make(map[model.SourceName]float64, len(records)),
	}
	for i := range records {
		rec.Metadata.SourceConfidence[records[i].Source] = records[i].Confidence
	}
	rec.Metadata.Completeness = Completeness(rec)
	rec.Metadata.DataQuality = QualityTier(rec.Metadata.Completeness)

	return rec
}

func assembleAddress(rawAddress string, fields map[string]model.ResolvedField) model.Address {
	raw := fieldString(fields, "address")
	if raw == "" {
		raw = rawAddress
	}
	addr := ParseAddress(raw)

	// Provider-supplied components win over the positional parse.
	if city := fieldString(fields, "city"); city != "" {
		addr.City = city
	}
	if state := fieldString(fields, "state"); state != "" {
		addr.State = state
	}
	if zip := fieldString(fields, "zip"); zip != "" {
		addr.Zip = zip
	}
	return addr
}

func assembleGeolocation(fields map[string]model.ResolvedField) *model.Geolocation {
	lat := fieldFloat(fields, "latitude")
	lng := fieldFloat(fields, "longitude")
	if lat == 0 && lng == 0 {
		return nil
	}
	return &model.Geolocation{Latitude: lat, Longitude: lng}
}

func assembleStructural(fields map[string]model.ResolvedField) model.Structural {
	s := model.Structural{
		YearBuilt:    fieldInt(fields, "year_built"),
		LivingArea:   fieldFloat(fields, "living_area"),
		Stories:      fieldInt(fields, "stories"),
		Bedrooms:     fieldInt(fields, "bedrooms"),
		Bathrooms:    fieldFloat(fields, "bathrooms"),
		PropertyType: fieldString(fields, "property_type"),
	}

	// Lot size arrives as free text from most providers.
	if f, ok := fields["lot_size"]; ok && f.Resolved() {
		switch v := f.Value.(type) {
		case string:
			if sqft, ok := ParseArea(v); ok {
				s.LotSizeSqft = sqft
			}
		default:
			if n, ok := toFloat(v); ok {
				s.LotSizeSqft = n
			}
		}
	}
	return s
}

func assembleRegulatory(fields map[string]model.ResolvedField) model.Regulatory {
	return model.Regulatory{
		ParcelNumber: fieldString(fields, "parcel_number"),
		Zoning:       fieldString(fields, "zoning"),
		FloodZone:    fieldString(fields, "flood_zone"),
		Permits:      fieldStrings(fields, "permits"),
	}
}

func assembleValuation(fields map[string]model.ResolvedField) model.Valuation {
	return model.Valuation{
		ListPrice:     fieldFloat(fields, "list_price"),
		AssessedValue: fieldFloat(fields, "assessed_value"),
		TaxAnnual:     fieldFloat(fields, "tax_annual"),
		LastSalePrice: fieldFloat(fields, "last_sale_price"),
		LastSaleDate:  fieldString(fields, "last_sale_date"),
	}
}

func assembleNeighborhood(fields map[string]model.ResolvedField) model.Neighborhood {
	return model.Neighborhood{
		Schools:   fieldStrings(fields, "schools"),
		WalkScore: fieldInt(fields, "walk_score"),
	}
}

func fieldString(fields map[string]model.ResolvedField, key string) string {
	if f, ok := fields[key]; ok {
		if s, ok := f.Value.(string); ok {
			return s
		}
	}
	return ""
}

func fieldFloat(fields map[string]model.ResolvedField, key string) float64 {
	if f, ok := fields[key]; ok {
		if n, ok := toFloat(f.Value); ok {
			return n
		}
	}
	return 0
}

func fieldInt(fields map[string]model.ResolvedField, key string) int {
	return int(fieldFloat(fields, key))
}

func fieldStrings(fields map[string]model.ResolvedField, key string) []string {
	f, ok := fields[key]
	if !ok {
		return nil
	}
	switch v := f.Value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		return nil
	}
}
