// Package layout synthesizes heuristic room layouts from aggregate property
// statistics so downstream rendering always has geometry to work with.
package layout

import (
	"fmt"

	"github.com/lotline/property-cli/internal/model"
)

// Weights holds the relative area weight for each catalog room type. The
// table is immutable configuration injected at construction so tests can
// substitute alternates.
type Weights struct {
	LivingRoom     float64 `yaml:"living_room"`
	Kitchen        float64 `yaml:"kitchen"`
	Dining         float64 `yaml:"dining"`
	Entry          float64 `yaml:"entry"`
	PowderRoom     float64 `yaml:"powder_room"`
	PrimaryBedroom float64 `yaml:"primary_bedroom"`
	Bedroom        float64 `yaml:"bedroom"`
	PrimaryBath    float64 `yaml:"primary_bath"`
	Bathroom       float64 `yaml:"bathroom"`
}

// DefaultWeights returns the built-in room-type weight table.
func DefaultWeights() Weights {
	return Weights{
		LivingRoom:     0.35,
		Kitchen:        0.25,
		Dining:         0.15,
		Entry:          0.10,
		PowderRoom:     0.10,
		PrimaryBedroom: 0.35,
		Bedroom:        0.20,
		PrimaryBath:    0.20,
		Bathroom:       0.15,
	}
}

// entry is one room slot in the synthesis catalog.
type entry struct {
	name    string
	typ     model.RoomType
	weight  float64
	primary bool
}

// buildCatalog assembles the room slots for a property: the fixed common
// areas, one bedroom per requested bedroom, one bathroom per full bathroom.
// The powder room is included only on multi-story properties; single-story
// properties omit it. That asymmetry matches the long-observed behavior of
// the production heuristic and is kept on purpose.
func buildCatalog(w Weights, stories, bedrooms, bathrooms int) []entry {
	catalog := []entry{
		{name: "Living Room", typ: model.RoomLiving, weight: w.LivingRoom},
		{name: "Kitchen", typ: model.RoomKitchen, weight: w.Kitchen},
		{name: "Dining Room", typ: model.RoomDining, weight: w.Dining},
		{name: "Entry", typ: model.RoomEntry, weight: w.Entry},
	}
	if stories > 1 {
		catalog = append(catalog, entry{name: "Powder Room", typ: model.RoomPowder, weight: w.PowderRoom})
	}

	for i := 0; i < bedrooms; i++ {
		e := entry{typ: model.RoomBedroom, weight: w.Bedroom}
		if i == 0 {
			e.name = "Primary Bedroom"
			e.weight = w.PrimaryBedroom
			e.primary = true
		} else {
			e.name = fmt.Sprintf("Bedroom %d", i+1)
		}
		catalog = append(catalog, e)
	}

	for i := 0; i < bathrooms; i++ {
		e := entry{typ: model.RoomBathroom, weight: w.Bathroom}
		if i == 0 {
			e.name = "Primary Bathroom"
			e.weight = w.PrimaryBath
			e.primary = true
		} else {
			e.name = fmt.Sprintf("Bathroom %d", i+1)
		}
		catalog = append(catalog, e)
	}

	return catalog
}

// assignStories maps catalog entries to 1-based story indexes. Single-story
// properties place everything on story 1. Multi-story properties keep common
// areas on story 1 and spread bedrooms and bathrooms round-robin across the
// upper stories, preserving catalog order within each story.
func assignStories(catalog []entry, stories int) map[int][]entry {
	byStory := make(map[int][]entry)
	if stories <= 1 {
		byStory[1] = catalog
		return byStory
	}

	upper := 0
	for _, e := range catalog {
		switch e.typ {
		case model.RoomBedroom, model.RoomBathroom:
			story := 2 + upper%(stories-1)
			byStory[story] = append(byStory[story], e)
			upper++
		default:
			byStory[1] = append(byStory[1], e)
		}
	}
	return byStory
}
