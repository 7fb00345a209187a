package county

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// ParcelIndex maps parcel numbers to parcel centroids loaded from a county
// GIS shapefile.
type ParcelIndex struct {
	centroids map[string][2]float64 // lat, lng
}

// Centroid returns the centroid for a parcel number.
func (p *ParcelIndex) Centroid(parcelNumber string) (lat, lng float64, ok bool) {
	c, ok := p.centroids[strings.TrimSpace(parcelNumber)]
	if !ok {
		return 0, 0, false
	}
	return c[0], c[1], true
}

// Len returns the number of indexed parcels.
func (p *ParcelIndex) Len() int { return len(p.centroids) }

// LoadParcelShapefile reads parcel polygons from a shapefile and indexes
// their centroids by the given attribute field (usually APN or PARCEL_ID).
// Malformed shapes are skipped, not fatal: county GIS exports routinely
// carry a few degenerate rings.
func LoadParcelShapefile(path, parcelField string) (*ParcelIndex, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "county: open shapefile %s", path)
	}
	defer reader.Close()

	fieldIdx := -1
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(string(f.Name[:]), "\x00"), parcelField) {
			fieldIdx = i
			break
		}
	}
	if fieldIdx < 0 {
		return nil, eris.Errorf("county: shapefile has no field %q", parcelField)
	}

	ix := &ParcelIndex{centroids: make(map[string][2]float64)}
	skipped := 0
	for reader.Next() {
		n, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}

		g := polygonToGeom(poly)
		if g == nil {
			skipped++
			continue
		}

		parcel := strings.TrimSpace(reader.ReadAttribute(n, fieldIdx))
		if parcel == "" {
			skipped++
			continue
		}

		b := g.Bounds()
		lng := (b.Min(0) + b.Max(0)) / 2
		lat := (b.Min(1) + b.Max(1)) / 2
		ix.centroids[parcel] = [2]float64{lat, lng}
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrap(err, "county: read shapefile")
	}

	zap.L().Info("county: loaded parcel shapefile",
		zap.String("path", path),
		zap.Int("parcels", ix.Len()),
		zap.Int("skipped", skipped),
	)
	return ix, nil
}

// polygonToGeom converts a shapefile polygon to a go-geom polygon, keeping
// only well-formed rings.
func polygonToGeom(p *shp.Polygon) *geom.Polygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	poly := geom.NewPolygon(geom.XY).SetSRID(4326)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("county: skipping malformed parcel ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if poly.NumLinearRings() == 0 {
		return nil
	}
	return poly
}
