package source

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/lotline/property-cli/internal/model"
	"github.com/lotline/property-cli/pkg/grounded"
)

// groundedDefaultConfidence applies when the model omits its own estimate.
const groundedDefaultConfidence = 0.5

// GroundedAdapter maps AI-grounded web lookups to fact records. Grounded
// answers are synthesized rather than observed, so the priority table ranks
// this source last for most fields.
type GroundedAdapter struct {
	client grounded.Client
}

// NewGroundedAdapter creates the adapter.
func NewGroundedAdapter(client grounded.Client) *GroundedAdapter {
	return &GroundedAdapter{client: client}
}

// Name implements Source.
func (a *GroundedAdapter) Name() model.SourceName { return model.SourceGrounded }

// Fetch implements Source.
func (a *GroundedAdapter) Fetch(ctx context.Context, address string) (*model.SourceFactRecord, error) {
	facts, err := a.client.PropertyFacts(ctx, address)
	if err != nil {
		return nil, eris.Wrap(err, "source: grounded fetch")
	}

	bag := make(map[string]any, 8)
	putIfSet(bag, "address", facts.Address)
	putIfSet(bag, "zoning", facts.Zoning)
	putIfSet(bag, "flood_zone", facts.FloodZone)
	putIfSet(bag, "assessed_value", facts.AssessedValue)
	putIfSet(bag, "list_price", facts.MarketValue)
	putIfSet(bag, "walk_score", facts.WalkScore)
	putIfSet(bag, "schools", facts.Schools)

	confidence := facts.Confidence
	if confidence <= 0 || confidence > 1 {
		confidence = groundedDefaultConfidence
	}

	return &model.SourceFactRecord{
		Source:     model.SourceGrounded,
		Facts:      bag,
		Confidence: confidence,
		ScrapedAt:  time.Now().UTC(),
	}, nil
}
