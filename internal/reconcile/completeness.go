package reconcile

import "github.com/lotline/property-cli/internal/model"

// scrapedThreshold is the completeness percentage above which a record is
// tiered as scraped rather than estimated.
const scrapedThreshold = 70.0

// checklistFields is the fixed set of key fields that completeness is scored
// against. Order is stable for reporting.
var checklistFields = []string{
	"address",
	"city",
	"state",
	"zip",
	"latitude",
	"longitude",
	"year_built",
	"living_area",
	"lot_size",
	"stories",
	"bedrooms",
	"bathrooms",
	"parcel_number",
	"zoning",
	"list_price",
	"assessed_value",
	"tax_annual",
	"schools",
}

// Completeness returns the percentage of checklist fields populated in the
// assembled record. Always in [0,100] and recomputed from the final record,
// never carried over from a partial state.
func Completeness(rec *model.UnifiedPropertyRecord) float64 {
	populated := 0
	for _, field := range checklistFields {
		if checklistPopulated(rec, field) {
			populated++
		}
	}
	return float64(populated) / float64(len(checklistFields)) * 100
}

// QualityTier maps a completeness percentage to a data-quality tier.
func QualityTier(completeness float64) model.DataQualityTier {
	if completeness > scrapedThreshold {
		return model.QualityScraped
	}
	return model.QualityEstimated
}

func checklistPopulated(rec *model.UnifiedPropertyRecord, field string) bool {
	switch field {
	case "address":
		return rec.Address.Street != ""
	case "city":
		return rec.Address.City != ""
	case "state":
		return rec.Address.State != ""
	case "zip":
		return rec.Address.Zip != ""
	case "latitude":
		return rec.Geolocation != nil && rec.Geolocation.Latitude != 0
	case "longitude":
		return rec.Geolocation != nil && rec.Geolocation.Longitude != 0
	case "year_built":
		return rec.Structural.YearBuilt != 0
	case "living_area":
		return rec.Structural.LivingArea != 0
	case "lot_size":
		return rec.Structural.LotSizeSqft != 0
	case "stories":
		return rec.Structural.Stories != 0
	case "bedrooms":
		return rec.Structural.Bedrooms != 0
	case "bathrooms":
		return rec.Structural.Bathrooms != 0
	case "parcel_number":
		return rec.Regulatory.ParcelNumber != ""
	case "zoning":
		return rec.Regulatory.Zoning != ""
	case "list_price":
		return rec.Valuation.ListPrice != 0
	case "assessed_value":
		return rec.Valuation.AssessedValue != 0
	case "tax_annual":
		return rec.Valuation.TaxAnnual != 0
	case "schools":
		return len(rec.Neighborhood.Schools) > 0
	}
	return false
}
