package source

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/lotline/property-cli/internal/model"
	"github.com/lotline/property-cli/pkg/zenlist"
)

// zenlistSchemaSize is the number of facts a fully populated listing yields.
const zenlistSchemaSize = 15

// ZenlistAdapter maps Zenlist listings to fact records.
type ZenlistAdapter struct {
	client zenlist.Client
}

// NewZenlistAdapter creates the adapter.
func NewZenlistAdapter(client zenlist.Client) *ZenlistAdapter {
	return &ZenlistAdapter{client: client}
}

// Name implements Source.
func (a *ZenlistAdapter) Name() model.SourceName { return model.SourceZenlist }

// Fetch implements Source.
func (a *ZenlistAdapter) Fetch(ctx context.Context, address string) (*model.SourceFactRecord, error) {
	listing, err := a.client.Listing(ctx, address)
	if err != nil {
		return nil, eris.Wrap(err, "source: zenlist fetch")
	}

	facts := make(map[string]any, zenlistSchemaSize)
	putIfSet(facts, "address", listing.Address)
	putIfSet(facts, "city", listing.City)
	putIfSet(facts, "state", listing.State)
	putIfSet(facts, "zip", listing.Zip)
	putIfSet(facts, "list_price", listing.ListPrice)
	putIfSet(facts, "bedrooms", listing.Bedrooms)
	putIfSet(facts, "bathrooms", listing.Bathrooms)
	putIfSet(facts, "living_area", listing.LivingArea)
	putIfSet(facts, "lot_size", listing.LotSize)
	putIfSet(facts, "year_built", listing.YearBuilt)
	putIfSet(facts, "stories", listing.Stories)
	putIfSet(facts, "property_type", listing.PropertyType)
	putIfSet(facts, "latitude", listing.Latitude)
	putIfSet(facts, "longitude", listing.Longitude)
	putIfSet(facts, "schools", listing.Schools)

	return &model.SourceFactRecord{
		Source:     model.SourceZenlist,
		Facts:      facts,
		Confidence: coverageConfidence(len(facts), zenlistSchemaSize),
		ScrapedAt:  time.Now().UTC(),
		OriginURL:  listing.ListingURL,
	}, nil
}
