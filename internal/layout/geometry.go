package layout

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/lotline/property-cli/internal/model"
)

// ringTolerance absorbs floating-point drift when comparing ring area to the
// room's nominal footprint.
const ringTolerance = 1e-6

// LoopRing converts a wall loop into a go-geom linear ring. Returns an error
// when the loop is open or has fewer than three walls.
func LoopRing(walls []model.Wall) (*geom.LinearRing, error) {
	if len(walls) < 3 {
		return nil, eris.Errorf("layout: wall loop needs at least 3 walls, got %d", len(walls))
	}

	flat := make([]float64, 0, (len(walls)+1)*2)
	for i, w := range walls {
		flat = append(flat, w.Start.X, w.Start.Y)
		next := walls[(i+1)%len(walls)]
		if w.End != next.Start {
			return nil, eris.Errorf("layout: wall loop open at segment %d", i)
		}
	}
	// Close the ring back to the first wall's start.
	flat = append(flat, walls[0].Start.X, walls[0].Start.Y)

	return geom.NewLinearRingFlat(geom.XY, flat), nil
}

// LoopArea returns the enclosed area of a closed wall loop, or 0 when the
// loop is malformed.
func LoopArea(walls []model.Wall) float64 {
	ring, err := LoopRing(walls)
	if err != nil {
		return 0
	}
	return math.Abs(ring.Area())
}

// ValidateLoop checks the heuristic-layout invariants: the walls form a
// closed loop enclosing positive area, and no two non-adjacent segments
// intersect.
func ValidateLoop(walls []model.Wall) error {
	ring, err := LoopRing(walls)
	if err != nil {
		return err
	}
	if math.Abs(ring.Area()) < ringTolerance {
		return eris.New("layout: wall loop encloses no area")
	}

	for i := range walls {
		for j := i + 1; j < len(walls); j++ {
			if adjacentSegments(i, j, len(walls)) {
				continue
			}
			if segmentsIntersect(walls[i], walls[j]) {
				return eris.Errorf("layout: walls %d and %d intersect", i, j)
			}
		}
	}
	return nil
}

func adjacentSegments(i, j, n int) bool {
	return (i+1)%n == j || (j+1)%n == i
}

// segmentsIntersect reports whether two wall segments cross, using the
// standard orientation test.
func segmentsIntersect(a, b model.Wall) bool {
	d1 := cross(b.Start, b.End, a.Start)
	d2 := cross(b.Start, b.End, a.End)
	d3 := cross(a.Start, a.End, b.Start)
	d4 := cross(a.Start, a.End, b.End)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return false
}

func cross(o, a, b model.Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}
