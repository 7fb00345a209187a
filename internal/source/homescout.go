package source

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/lotline/property-cli/internal/model"
	"github.com/lotline/property-cli/pkg/homescout"
)

const homescoutSchemaSize = 16

// HomescoutAdapter flattens HomeScout's nested records into fact bags.
type HomescoutAdapter struct {
	client homescout.Client
}

// NewHomescoutAdapter creates the adapter.
func NewHomescoutAdapter(client homescout.Client) *HomescoutAdapter {
	return &HomescoutAdapter{client: client}
}

// Name implements Source.
func (a *HomescoutAdapter) Name() model.SourceName { return model.SourceHomescout }

// Fetch implements Source.
func (a *HomescoutAdapter) Fetch(ctx context.Context, address string) (*model.SourceFactRecord, error) {
	prop, err := a.client.Search(ctx, address)
	if err != nil {
		return nil, eris.Wrap(err, "source: homescout fetch")
	}

	facts := make(map[string]any, homescoutSchemaSize)
	putIfSet(facts, "address", prop.FullStreet)
	putIfSet(facts, "city", prop.Locality)
	putIfSet(facts, "state", prop.Region)
	putIfSet(facts, "zip", prop.PostalCode)
	putIfSet(facts, "list_price", prop.Price)
	putIfSet(facts, "bedrooms", prop.Detail.Beds)
	putIfSet(facts, "bathrooms", prop.Detail.Baths)
	putIfSet(facts, "living_area", prop.Detail.FinishedSqft)
	putIfSet(facts, "lot_size", prop.Detail.LotDescriptor)
	putIfSet(facts, "year_built", prop.Detail.BuiltYear)
	putIfSet(facts, "stories", prop.Detail.Levels)
	putIfSet(facts, "property_type", prop.Detail.HomeType)
	putIfSet(facts, "assessed_value", prop.Detail.TaxAssessed)
	putIfSet(facts, "tax_annual", prop.Detail.AnnualTax)
	putIfSet(facts, "schools", prop.Detail.SchoolNames)
	if prop.Geo != nil {
		putIfSet(facts, "latitude", prop.Geo.Lat)
		putIfSet(facts, "longitude", prop.Geo.Lng)
	}

	return &model.SourceFactRecord{
		Source:     model.SourceHomescout,
		Facts:      facts,
		Confidence: coverageConfidence(len(facts), homescoutSchemaSize),
		ScrapedAt:  time.Now().UTC(),
		OriginURL:  prop.PageURL,
	}, nil
}
