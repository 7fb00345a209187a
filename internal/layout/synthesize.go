package layout

import (
	"math"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lotline/property-cli/internal/model"
)

// HeuristicConfidence tags every synthesized layout. Heuristic geometry is a
// placeholder until vision- or user-sourced measurements replace it.
const HeuristicConfidence = 0.4

// Options holds the fixed geometry parameters for synthesis.
type Options struct {
	WallThickness float64 `yaml:"wall_thickness"`
	CeilingHeight float64 `yaml:"ceiling_height"`
	DoorWidth     float64 `yaml:"door_width"`
	DoorHeight    float64 `yaml:"door_height"`
}

// DefaultOptions returns the standard geometry parameters (feet).
func DefaultOptions() Options {
	return Options{
		WallThickness: 0.5,
		CeilingHeight: 9,
		DoorWidth:     3,
		DoorHeight:    7,
	}
}

// Details are the reconciled scalar statistics synthesis runs over.
type Details struct {
	LivingArea float64 `json:"living_area"`
	Stories    int     `json:"stories"`
	Bedrooms   int     `json:"bedrooms"`
	Bathrooms  int     `json:"bathrooms"`
}

// Synthesizer turns scalar property statistics into render-ready room
// layouts. Fully deterministic: identical inputs always produce identical
// room counts, names, areas, and wall coordinates.
type Synthesizer struct {
	weights Weights
	opts    Options
}

// NewSynthesizer creates a Synthesizer with the given weight table and
// geometry options.
func NewSynthesizer(weights Weights, opts Options) *Synthesizer {
	if opts.WallThickness == 0 {
		opts = DefaultOptions()
	}
	return &Synthesizer{weights: weights, opts: opts}
}

// Synthesize allocates the property's living area across the room catalog
// and emits a closed rectangular wall loop per room. Returns nil when the
// statistics are insufficient (no area or no rooms).
func (s *Synthesizer) Synthesize(propertyID string, d Details) []model.RoomContext {
	if d.LivingArea <= 0 {
		return nil
	}
	stories := d.Stories
	if stories < 1 {
		stories = 1
	}

	catalog := buildCatalog(s.weights, stories, d.Bedrooms, d.Bathrooms)
	if len(catalog) == 0 {
		return nil
	}
	byStory := assignStories(catalog, stories)
	perStoryArea := d.LivingArea / float64(stories)

	storyIdxs := make([]int, 0, len(byStory))
	for idx := range byStory {
		storyIdxs = append(storyIdxs, idx)
	}
	sort.Ints(storyIdxs)

	var rooms []model.RoomContext
	for _, story := range storyIdxs {
		rooms = append(rooms, s.layoutStory(propertyID, story, perStoryArea, byStory[story])...)
	}

	zap.L().Debug("layout: synthesized rooms",
		zap.String("property_id", propertyID),
		zap.Int("rooms", len(rooms)),
		zap.Int("stories", stories),
		zap.Float64("living_area", d.LivingArea),
	)
	return rooms
}

// layoutStory packs one story's rooms into two parallel columns of fixed
// width, alternating column assignment by catalog order. Rooms stack along
// each column by accumulating prior lengths; this is a running-offset
// bin-pack, not collision-aware packing.
func (s *Synthesizer) layoutStory(propertyID string, story int, storyArea float64, entries []entry) []model.RoomContext {
	if len(entries) == 0 {
		return nil
	}

	var weightSum float64
	for _, e := range entries {
		weightSum += e.weight
	}
	if weightSum <= 0 {
		return nil
	}

	colWidth := math.Sqrt(math.Ceil(storyArea)) / 2
	baseZ := float64(story-1) * s.opts.CeilingHeight

	offsets := [2]float64{}
	rooms := make([]model.RoomContext, 0, len(entries))
	for i, e := range entries {
		targetArea := storyArea * (e.weight / weightSum)
		length := targetArea / colWidth

		col := i % 2
		x0 := float64(col) * colWidth
		y0 := offsets[col]
		offsets[col] += length

		room := model.RoomContext{
			ID:         roomID(propertyID, story, e.name),
			PropertyID: propertyID,
			Name:       e.name,
			Type:       e.typ,
			Floor:      story,
			Length:     length,
			Width:      colWidth,
			Height:     s.opts.CeilingHeight,
			Area:       targetArea,
			Position:   model.Position{X: x0, Y: y0, Z: baseZ},
			Layout:     s.wallLoop(x0, y0, colWidth, length),
		}
		rooms = append(rooms, room)
	}
	return rooms
}

// wallLoop emits the four-wall rectangular loop for a room footprint with a
// placeholder door centered on the first wall.
func (s *Synthesizer) wallLoop(x0, y0, w, l float64) model.RoomLayout {
	corners := []model.Point{
		{X: x0, Y: y0},
		{X: x0 + w, Y: y0},
		{X: x0 + w, Y: y0 + l},
		{X: x0, Y: y0 + l},
	}

	walls := make([]model.Wall, 4)
	for i := range corners {
		walls[i] = model.Wall{
			Start:     corners[i],
			End:       corners[(i+1)%4],
			Thickness: s.opts.WallThickness,
			Height:    s.opts.CeilingHeight,
		}
	}

	doorWidth := s.opts.DoorWidth
	if doorWidth > w {
		doorWidth = w / 2
	}

	return model.RoomLayout{
		Walls: walls,
		Openings: []model.Opening{{
			Type:      model.OpeningDoor,
			WallIndex: 0,
			Offset:    w/2 - doorWidth/2,
			Width:     doorWidth,
			Height:    s.opts.DoorHeight,
		}},
		CeilingHeight: s.opts.CeilingHeight,
		Confidence:    HeuristicConfidence,
		Source:        model.LayoutHeuristic,
	}
}

// Apply attaches synthesized rooms to a unified record. Rooms whose existing
// layout came from an authoritative source (vision, user-measured, scan) are
// never overwritten: the existing room wins over the synthesized one with
// the same name, and unmatched authoritative rooms are carried through.
func (s *Synthesizer) Apply(rec *model.UnifiedPropertyRecord) {
	d := Details{
		LivingArea: rec.Structural.LivingArea,
		Stories:    rec.Structural.Stories,
		Bedrooms:   rec.Structural.Bedrooms,
		Bathrooms:  int(rec.Structural.Bathrooms),
	}

	authoritative := make(map[string]model.RoomContext)
	for _, room := range rec.Rooms {
		if room.Layout.Source != model.LayoutHeuristic && room.Layout.Source != "" {
			authoritative[room.Name] = room
		}
	}

	synthesized := s.Synthesize(rec.ID, d)
	merged := make([]model.RoomContext, 0, len(synthesized)+len(authoritative))
	claimed := make(map[string]bool, len(synthesized))
	for _, room := range synthesized {
		if existing, ok := authoritative[room.Name]; ok {
			merged = append(merged, existing)
			claimed[room.Name] = true
			continue
		}
		merged = append(merged, room)
	}
	for _, room := range rec.Rooms {
		if room.Layout.Source != model.LayoutHeuristic && room.Layout.Source != "" && !claimed[room.Name] {
			merged = append(merged, room)
		}
	}

	rec.Rooms = merged
}

// roomID derives a stable UUID from the property id, story, and room name so
// repeated synthesis yields identical output.
func roomID(propertyID string, story int, name string) string {
	seed := propertyID + "/" + strconv.Itoa(story) + "/" + name
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}
