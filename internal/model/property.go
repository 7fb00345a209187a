package model

import "time"

// DataQualityTier classifies how complete a unified record is.
type DataQualityTier string

const (
	QualityScraped   DataQualityTier = "scraped"   // completeness above threshold
	QualityEstimated DataQualityTier = "estimated" // sparse record, treat values as rough
)

// Address holds the normalized components of a property address.
type Address struct {
	Raw    string `json:"raw"`
	Street string `json:"street,omitempty"`
	City   string `json:"city,omitempty"`
	State  string `json:"state,omitempty"`
	Zip    string `json:"zip,omitempty"`
}

// Geolocation is a WGS84 point.
type Geolocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Structural holds the physical characteristics of the property.
type Structural struct {
	YearBuilt    int     `json:"year_built,omitempty"`
	LivingArea   float64 `json:"living_area_sqft,omitempty"`
	LotSizeSqft  float64 `json:"lot_size_sqft,omitempty"`
	Stories      int     `json:"stories,omitempty"`
	Bedrooms     int     `json:"bedrooms,omitempty"`
	Bathrooms    float64 `json:"bathrooms,omitempty"`
	PropertyType string  `json:"property_type,omitempty"`
}

// Regulatory holds zoning and permitting facts.
type Regulatory struct {
	ParcelNumber string   `json:"parcel_number,omitempty"`
	Zoning       string   `json:"zoning,omitempty"`
	FloodZone    string   `json:"flood_zone,omitempty"`
	Permits      []string `json:"permits,omitempty"`
}

// Valuation holds pricing and assessment facts.
type Valuation struct {
	ListPrice     float64 `json:"list_price,omitempty"`
	AssessedValue float64 `json:"assessed_value,omitempty"`
	TaxAnnual     float64 `json:"tax_annual,omitempty"`
	LastSalePrice float64 `json:"last_sale_price,omitempty"`
	LastSaleDate  string  `json:"last_sale_date,omitempty"`
}

// Neighborhood holds area context facts.
type Neighborhood struct {
	Schools   []string `json:"schools,omitempty"`
	WalkScore int      `json:"walk_score,omitempty"`
}

// ResolvedField is the per-field outcome of reconciliation: the winning
// value, which provider supplied it, and that provider's confidence.
type ResolvedField struct {
	Value      any        `json:"value"`
	Source     SourceName `json:"source,omitempty"`
	Confidence float64    `json:"confidence"`
}

// Resolved reports whether reconciliation produced a value for this field.
func (f ResolvedField) Resolved() bool { return f.Value != nil }

// Metadata summarizes the quality of an assembled record.
type Metadata struct {
	Completeness     float64                `json:"completeness"` // 0-100
	DataQuality      DataQualityTier        `json:"data_quality"`
	SourceConfidence map[SourceName]float64 `json:"source_confidence"`
}

// UnifiedPropertyRecord is the assembled output of one reconciliation call.
// A record is immutable once assembled; re-reconciling produces a new record
// with a bumped version.
type UnifiedPropertyRecord struct {
	ID        string    `json:"id"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`

	Address      Address      `json:"address"`
	Geolocation  *Geolocation `json:"geolocation,omitempty"`
	Structural   Structural   `json:"structural"`
	Regulatory   Regulatory   `json:"regulatory"`
	Valuation    Valuation    `json:"valuation"`
	Neighborhood Neighborhood `json:"neighborhood"`

	Rooms []RoomContext `json:"rooms,omitempty"`

	Fields     map[string]ResolvedField `json:"fields"`
	Conflicts  []ConflictRecord         `json:"conflicts,omitempty"`
	Provenance []SourceFactRecord       `json:"provenance"`
	Metadata   Metadata                 `json:"metadata"`
}
