package model

// LayoutSource tags where a room layout came from. Heuristic layouts are
// regenerable from the parent record's scalar statistics; all other sources
// are authoritative and never overwritten by the synthesizer.
type LayoutSource string

const (
	LayoutHeuristic    LayoutSource = "heuristic"
	LayoutVision       LayoutSource = "vision"
	LayoutUserMeasured LayoutSource = "user-measured"
	LayoutScan         LayoutSource = "scan"
)

// RoomType tags a room's function.
type RoomType string

const (
	RoomLiving   RoomType = "living_room"
	RoomKitchen  RoomType = "kitchen"
	RoomDining   RoomType = "dining_room"
	RoomEntry    RoomType = "entry"
	RoomPowder   RoomType = "powder_room"
	RoomBedroom  RoomType = "bedroom"
	RoomBathroom RoomType = "bathroom"
	RoomOther    RoomType = "other"
)

// Point is a 2-D coordinate in feet, relative to the story origin.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Position is a 3-D placement for the room within the property.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Wall is one segment of a room's wall loop.
type Wall struct {
	Start     Point   `json:"start"`
	End       Point   `json:"end"`
	Thickness float64 `json:"thickness"`
	Height    float64 `json:"height"`
}

// OpeningType tags a wall opening.
type OpeningType string

const (
	OpeningDoor   OpeningType = "door"
	OpeningWindow OpeningType = "window"
)

// Opening is a door or window cut into one wall of the loop.
type Opening struct {
	Type      OpeningType `json:"type"`
	WallIndex int         `json:"wall_index"`
	Offset    float64     `json:"offset"` // distance along the wall from its start
	Width     float64     `json:"width"`
	Height    float64     `json:"height"`
}

// RoomLayout is the renderable geometry for one room. Walls form a closed
// loop: each wall's end is the next wall's start, and the last wall ends at
// the first wall's start.
type RoomLayout struct {
	Walls         []Wall       `json:"walls"`
	Openings      []Opening    `json:"openings,omitempty"`
	CeilingHeight float64      `json:"ceiling_height"`
	Confidence    float64      `json:"confidence"`
	Source        LayoutSource `json:"source"`
}

// Closed reports whether the wall list forms a closed loop.
func (l *RoomLayout) Closed() bool {
	if l == nil || len(l.Walls) < 3 {
		return false
	}
	for i := range l.Walls {
		next := l.Walls[(i+1)%len(l.Walls)]
		if l.Walls[i].End != next.Start {
			return false
		}
	}
	return true
}

// RoomContext is one room of a property, with its synthesized or measured
// layout embedded.
type RoomContext struct {
	ID         string     `json:"id"`
	PropertyID string     `json:"property_id"`
	Name       string     `json:"name"`
	Type       RoomType   `json:"type"`
	Floor      int        `json:"floor"` // 1-based story index
	Length     float64    `json:"length"`
	Width      float64    `json:"width"`
	Height     float64    `json:"height"`
	Area       float64    `json:"area"`
	Position   Position   `json:"position"`
	Layout     RoomLayout `json:"layout"`
}
