package source

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/lotline/property-cli/internal/county"
	"github.com/lotline/property-cli/internal/model"
)

// countyConfidence is the fixed per-record confidence for assessment-roll
// data. Rolls are authoritative for the fields they carry but refresh
// annually, so not 1.0.
const countyConfidence = 0.9

// RollLookup is the subset of the county index the adapter needs.
type RollLookup interface {
	Lookup(address string) (*county.RollEntry, bool)
	Centroid(parcelNumber string) (lat, lng float64, ok bool)
}

// CountyAdapter answers from a locally indexed county assessment roll.
type CountyAdapter struct {
	index RollLookup
}

// NewCountyAdapter creates the adapter over a loaded roll index.
func NewCountyAdapter(index RollLookup) *CountyAdapter {
	return &CountyAdapter{index: index}
}

// Name implements Source.
func (a *CountyAdapter) Name() model.SourceName { return model.SourceCounty }

// Fetch implements Source.
func (a *CountyAdapter) Fetch(_ context.Context, address string) (*model.SourceFactRecord, error) {
	entry, ok := a.index.Lookup(address)
	if !ok {
		return nil, eris.Errorf("source: county roll has no entry for %q", address)
	}

	facts := make(map[string]any, 16)
	putIfSet(facts, "address", entry.SitusAddress)
	putIfSet(facts, "city", entry.City)
	putIfSet(facts, "state", entry.State)
	putIfSet(facts, "zip", entry.Zip)
	putIfSet(facts, "parcel_number", entry.ParcelNumber)
	putIfSet(facts, "year_built", entry.YearBuilt)
	putIfSet(facts, "living_area", entry.LivingArea)
	putIfSet(facts, "lot_size", entry.LotSize)
	putIfSet(facts, "stories", entry.Stories)
	putIfSet(facts, "bedrooms", entry.Bedrooms)
	putIfSet(facts, "bathrooms", entry.Bathrooms)
	putIfSet(facts, "zoning", entry.Zoning)
	putIfSet(facts, "assessed_value", entry.AssessedValue)
	putIfSet(facts, "tax_annual", entry.TaxAnnual)
	putIfSet(facts, "last_sale_price", entry.LastSalePrice)
	putIfSet(facts, "last_sale_date", entry.LastSaleDate)

	if lat, lng, ok := a.index.Centroid(entry.ParcelNumber); ok {
		facts["latitude"] = lat
		facts["longitude"] = lng
	}

	return &model.SourceFactRecord{
		Source:     model.SourceCounty,
		Facts:      facts,
		Confidence: countyConfidence,
		ScrapedAt:  time.Now().UTC(),
	}, nil
}
