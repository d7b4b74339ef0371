package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkt"
)

// GeoJSONPolygon represents a field boundary for API input/output.
// Coordinates are [lon, lat] rings, WGS84.
type GeoJSONPolygon struct {
	Type        string        `json:"type"`
	Coordinates [][][]float64 `json:"coordinates"`
}

// BoundingBox is the axis-aligned envelope of a boundary, used to request
// imagery for a field.
type BoundingBox struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// Value converts the boundary to WKT with an SRID prefix for a
// PostGIS GEOMETRY(Polygon, 4326) column.
func (g *GeoJSONPolygon) Value() (driver.Value, error) {
	if g == nil || g.Type == "" {
		return nil, nil
	}

	polygon, err := g.toGeom()
	if err != nil {
		return nil, err
	}

	wktString, err := wkt.Marshal(polygon)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal boundary to WKT: %w", err)
	}

	return fmt.Sprintf("SRID=%d;%s", polygon.SRID(), wktString), nil
}

// Scan converts a PostGIS EWKB geometry back into GeoJSON.
func (g *GeoJSONPolygon) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan GeoJSONPolygon: expected []byte, got %T", value)
	}

	geometry, err := ewkb.Unmarshal(bytes)
	if err != nil {
		return fmt.Errorf("failed to unmarshal EWKB: %w", err)
	}

	polygon, ok := geometry.(*geom.Polygon)
	if !ok {
		return fmt.Errorf("scanned geometry is not a Polygon")
	}

	geoJSONBytes, err := geojson.Marshal(polygon)
	if err != nil {
		return fmt.Errorf("failed to marshal boundary to GeoJSON: %w", err)
	}

	return json.Unmarshal(geoJSONBytes, g)
}

// Validate checks the boundary is a closed ring with at least four points and
// coordinates within WGS84 ranges.
func (g *GeoJSONPolygon) Validate() error {
	if g == nil || g.Type != "Polygon" || len(g.Coordinates) == 0 {
		return fmt.Errorf("%w: boundary must be a GeoJSON Polygon", ErrInvalidInput)
	}

	ring := g.Coordinates[0]
	if len(ring) < 4 {
		return fmt.Errorf("%w: boundary ring needs at least 4 points, got %d", ErrInvalidInput, len(ring))
	}

	first, last := ring[0], ring[len(ring)-1]
	if len(first) < 2 || len(last) < 2 || first[0] != last[0] || first[1] != last[1] {
		return fmt.Errorf("%w: boundary ring is not closed", ErrInvalidInput)
	}

	for _, coord := range ring {
		if len(coord) < 2 {
			return fmt.Errorf("%w: coordinate needs [lon, lat]", ErrInvalidInput)
		}
		lon, lat := coord[0], coord[1]
		if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
			return fmt.Errorf("%w: coordinate (%f, %f) outside WGS84 range", ErrInvalidInput, lon, lat)
		}
	}

	return nil
}

// Bounds returns the bounding box of the boundary ring.
func (g *GeoJSONPolygon) Bounds() (BoundingBox, error) {
	if err := g.Validate(); err != nil {
		return BoundingBox{}, err
	}

	bb := BoundingBox{MinLon: 180, MinLat: 90, MaxLon: -180, MaxLat: -90}
	for _, coord := range g.Coordinates[0] {
		bb.MinLon = math.Min(bb.MinLon, coord[0])
		bb.MaxLon = math.Max(bb.MaxLon, coord[0])
		bb.MinLat = math.Min(bb.MinLat, coord[1])
		bb.MaxLat = math.Max(bb.MaxLat, coord[1])
	}
	return bb, nil
}

// Centroid returns the average of the ring vertices (lon, lat). Good enough
// for weather lookups on field-sized polygons.
func (g *GeoJSONPolygon) Centroid() (lon, lat float64, err error) {
	if err := g.Validate(); err != nil {
		return 0, 0, err
	}

	ring := g.Coordinates[0]
	// Skip the closing vertex so it is not counted twice.
	n := len(ring) - 1
	for i := 0; i < n; i++ {
		lon += ring[i][0]
		lat += ring[i][1]
	}
	return lon / float64(n), lat / float64(n), nil
}

// AreaHectares computes the ring area via the shoelace formula with an
// equirectangular projection scaled at the centroid latitude.
func (g *GeoJSONPolygon) AreaHectares() (float64, error) {
	if err := g.Validate(); err != nil {
		return 0, err
	}

	_, centLat, err := g.Centroid()
	if err != nil {
		return 0, err
	}

	const metersPerDegLat = 110540.0
	metersPerDegLon := 111320.0 * math.Cos(centLat*math.Pi/180)

	ring := g.Coordinates[0]
	var sum float64
	for i := 0; i < len(ring)-1; i++ {
		x1 := ring[i][0] * metersPerDegLon
		y1 := ring[i][1] * metersPerDegLat
		x2 := ring[i+1][0] * metersPerDegLon
		y2 := ring[i+1][1] * metersPerDegLat
		sum += x1*y2 - x2*y1
	}

	areaM2 := math.Abs(sum) / 2
	if areaM2 == 0 {
		return 0, fmt.Errorf("%w: degenerate boundary with zero area", ErrComputation)
	}
	return areaM2 / 10000, nil
}

func (g *GeoJSONPolygon) toGeom() (*geom.Polygon, error) {
	geoJSONBytes, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GeoJSON: %w", err)
	}

	var geometry geom.T
	if err := geojson.Unmarshal(geoJSONBytes, &geometry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal GeoJSON: %w", err)
	}

	polygon, ok := geometry.(*geom.Polygon)
	if !ok {
		return nil, fmt.Errorf("geometry is not a Polygon")
	}

	polygon.SetSRID(4326)
	return polygon, nil
}

// GeoJSONPoint represents a point location (lon, lat), WGS84.
type GeoJSONPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// Value converts the point to WKT with an SRID prefix for PostGIS.
func (g *GeoJSONPoint) Value() (driver.Value, error) {
	if g == nil || g.Type == "" {
		return nil, nil
	}

	geoJSONBytes, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GeoJSON: %w", err)
	}

	var geometry geom.T
	if err := geojson.Unmarshal(geoJSONBytes, &geometry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal GeoJSON: %w", err)
	}

	point, ok := geometry.(*geom.Point)
	if !ok {
		return nil, fmt.Errorf("geometry is not a Point")
	}

	point.SetSRID(4326)

	wktString, err := wkt.Marshal(point)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal point to WKT: %w", err)
	}

	return fmt.Sprintf("SRID=%d;%s", point.SRID(), wktString), nil
}

// Scan converts a PostGIS EWKB geometry back into GeoJSON.
func (g *GeoJSONPoint) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan GeoJSONPoint: expected []byte, got %T", value)
	}

	geometry, err := ewkb.Unmarshal(bytes)
	if err != nil {
		return fmt.Errorf("failed to unmarshal EWKB: %w", err)
	}

	point, ok := geometry.(*geom.Point)
	if !ok {
		return fmt.Errorf("scanned geometry is not a Point")
	}

	geoJSONBytes, err := geojson.Marshal(point)
	if err != nil {
		return fmt.Errorf("failed to marshal point to GeoJSON: %w", err)
	}

	return json.Unmarshal(geoJSONBytes, g)
}
