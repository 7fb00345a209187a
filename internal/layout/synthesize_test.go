package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotline/property-cli/internal/model"
)

func newTestSynthesizer() *Synthesizer {
	return NewSynthesizer(DefaultWeights(), DefaultOptions())
}

func TestSynthesize_SingleStory(t *testing.T) {
	s := newTestSynthesizer()

	rooms := s.Synthesize("prop-1", Details{LivingArea: 2000, Stories: 1, Bedrooms: 3, Bathrooms: 2})

	// 4 common areas (no powder room on one story) + 3 bedrooms + 2 baths.
	require.Len(t, rooms, 9)

	for _, room := range rooms {
		assert.Equal(t, 1, room.Floor, room.Name)
		assert.Zero(t, room.Position.Z, room.Name)
	}

	var total float64
	for _, room := range rooms {
		total += room.Area
	}
	assert.InDelta(t, 2000, total, 1e-6)
}

func TestSynthesize_MultiStoryAddsPowderRoom(t *testing.T) {
	s := newTestSynthesizer()

	rooms := s.Synthesize("prop-1", Details{LivingArea: 3000, Stories: 2, Bedrooms: 3, Bathrooms: 2})

	names := make(map[string]bool, len(rooms))
	for _, room := range rooms {
		names[room.Name] = true
	}
	assert.True(t, names["Powder Room"])

	single := s.Synthesize("prop-1", Details{LivingArea: 3000, Stories: 1, Bedrooms: 3, Bathrooms: 2})
	for _, room := range single {
		assert.NotEqual(t, "Powder Room", room.Name)
	}
}

func TestSynthesize_MultiStoryDistribution(t *testing.T) {
	s := newTestSynthesizer()

	rooms := s.Synthesize("prop-1", Details{LivingArea: 3000, Stories: 2, Bedrooms: 2, Bathrooms: 1})

	for _, room := range rooms {
		switch room.Type {
		case model.RoomBedroom, model.RoomBathroom:
			assert.Equal(t, 2, room.Floor, room.Name)
			assert.InDelta(t, DefaultOptions().CeilingHeight, room.Position.Z, 1e-9, room.Name)
		default:
			assert.Equal(t, 1, room.Floor, room.Name)
		}
	}
}

func TestSynthesize_Deterministic(t *testing.T) {
	s := newTestSynthesizer()
	d := Details{LivingArea: 2000, Stories: 1, Bedrooms: 3, Bathrooms: 2}

	a := s.Synthesize("prop-1", d)
	b := s.Synthesize("prop-1", d)

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].ID, b[i].ID)
		assert.Equal(t, a[i].Position, b[i].Position)
		assert.Equal(t, a[i].Layout.Walls, b[i].Layout.Walls)
	}
}

func TestSynthesize_DifferentPropertyDifferentIDs(t *testing.T) {
	s := newTestSynthesizer()
	d := Details{LivingArea: 2000, Stories: 1, Bedrooms: 1, Bathrooms: 1}

	a := s.Synthesize("prop-1", d)
	b := s.Synthesize("prop-2", d)

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.NotEqual(t, a[i].ID, b[i].ID)
	}
}

func TestSynthesize_NoArea(t *testing.T) {
	s := newTestSynthesizer()
	assert.Nil(t, s.Synthesize("prop-1", Details{LivingArea: 0, Stories: 1, Bedrooms: 3}))
	assert.Nil(t, s.Synthesize("prop-1", Details{LivingArea: -100, Stories: 1}))
}

func TestSynthesize_ZeroStoriesTreatedAsOne(t *testing.T) {
	s := newTestSynthesizer()

	rooms := s.Synthesize("prop-1", Details{LivingArea: 1200, Stories: 0, Bedrooms: 1, Bathrooms: 1})
	require.NotEmpty(t, rooms)
	for _, room := range rooms {
		assert.Equal(t, 1, room.Floor)
	}
}

func TestSynthesize_WallLoopsClosed(t *testing.T) {
	s := newTestSynthesizer()

	rooms := s.Synthesize("prop-1", Details{LivingArea: 2400, Stories: 2, Bedrooms: 3, Bathrooms: 2})
	require.NotEmpty(t, rooms)

	for _, room := range rooms {
		require.Len(t, room.Layout.Walls, 4, room.Name)
		assert.True(t, room.Layout.Closed(), room.Name)

		for _, wall := range room.Layout.Walls {
			assert.InDelta(t, 0.5, wall.Thickness, 1e-9)
			assert.InDelta(t, 9, wall.Height, 1e-9)
		}

		require.Len(t, room.Layout.Openings, 1, room.Name)
		door := room.Layout.Openings[0]
		assert.Equal(t, model.OpeningDoor, door.Type)
		assert.Equal(t, 0, door.WallIndex)
		// Door is centered on wall 0.
		assert.InDelta(t, room.Width/2, door.Offset+door.Width/2, 1e-9)

		assert.InDelta(t, HeuristicConfidence, room.Layout.Confidence, 1e-9)
		assert.Equal(t, model.LayoutHeuristic, room.Layout.Source)
	}
}

func TestSynthesize_AreasFollowWeights(t *testing.T) {
	s := newTestSynthesizer()

	rooms := s.Synthesize("prop-1", Details{LivingArea: 1000, Stories: 1, Bedrooms: 1, Bathrooms: 1})

	byName := make(map[string]model.RoomContext, len(rooms))
	for _, room := range rooms {
		byName[room.Name] = room
	}

	// Weights: living .35, kitchen .25, dining .15, entry .10,
	// primary bed .35, primary bath .20; sum 1.40.
	living := byName["Living Room"]
	assert.InDelta(t, 1000*0.35/1.40, living.Area, 1e-6)
	bath := byName["Primary Bathroom"]
	assert.InDelta(t, 1000*0.20/1.40, bath.Area, 1e-6)

	assert.Greater(t, byName["Primary Bedroom"].Area, byName["Primary Bathroom"].Area)
}

func TestApply_AuthoritativeRoomsPreserved(t *testing.T) {
	s := newTestSynthesizer()

	measured := model.RoomContext{
		ID:   "user-room-1",
		Name: "Primary Bedroom",
		Type: model.RoomBedroom,
		Area: 400,
		Layout: model.RoomLayout{
			Source:     model.LayoutUserMeasured,
			Confidence: 1.0,
		},
	}

	rec := &model.UnifiedPropertyRecord{
		ID: "prop-1",
		Structural: model.Structural{
			LivingArea: 2000,
			Stories:    1,
			Bedrooms:   2,
			Bathrooms:  1,
		},
		Rooms: []model.RoomContext{measured},
	}

	s.Apply(rec)
	require.NotEmpty(t, rec.Rooms)

	var found model.RoomContext
	for _, room := range rec.Rooms {
		if room.Name == "Primary Bedroom" {
			found = room
		}
	}
	assert.Equal(t, "user-room-1", found.ID)
	assert.Equal(t, model.LayoutUserMeasured, found.Layout.Source)
	assert.InDelta(t, 400, found.Area, 1e-9)
}

func TestApply_UnmatchedAuthoritativeCarriedThrough(t *testing.T) {
	s := newTestSynthesizer()

	scanned := model.RoomContext{
		ID:     "scan-room-1",
		Name:   "Wine Cellar",
		Type:   model.RoomOther,
		Layout: model.RoomLayout{Source: model.LayoutScan},
	}

	rec := &model.UnifiedPropertyRecord{
		ID:         "prop-1",
		Structural: model.Structural{LivingArea: 1500, Stories: 1, Bedrooms: 1, Bathrooms: 1},
		Rooms:      []model.RoomContext{scanned},
	}

	s.Apply(rec)

	names := make(map[string]bool, len(rec.Rooms))
	for _, room := range rec.Rooms {
		names[room.Name] = true
	}
	assert.True(t, names["Wine Cellar"])
	assert.True(t, names["Living Room"])
}

func TestApply_NoStructuralData(t *testing.T) {
	s := newTestSynthesizer()

	rec := &model.UnifiedPropertyRecord{ID: "prop-1"}
	s.Apply(rec)
	assert.Empty(t, rec.Rooms)
}

func TestApply_StaleHeuristicReplaced(t *testing.T) {
	s := newTestSynthesizer()

	rec := &model.UnifiedPropertyRecord{
		ID:         "prop-1",
		Structural: model.Structural{LivingArea: 1500, Stories: 1, Bedrooms: 1, Bathrooms: 1},
		Rooms: []model.RoomContext{{
			ID:     "old-heuristic",
			Name:   "Living Room",
			Layout: model.RoomLayout{Source: model.LayoutHeuristic},
		}},
	}

	s.Apply(rec)

	for _, room := range rec.Rooms {
		assert.NotEqual(t, "old-heuristic", room.ID)
	}
}
