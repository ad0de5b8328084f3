package predicate

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// GeometryKind classifies spatial operands.
type GeometryKind int

const (
	UnknownGeometry GeometryKind = iota
	Envelope
	Point
	LineString
	Polygon
	MultiPoint
	MultiLineString
	MultiPolygon
)

func (k GeometryKind) String() string {
	switch k {
	case Envelope:
		return "Envelope"
	case Point:
		return "Point"
	case LineString:
		return "LineString"
	case Polygon:
		return "Polygon"
	case MultiPoint:
		return "MultiPoint"
	case MultiLineString:
		return "MultiLineString"
	case MultiPolygon:
		return "MultiPolygon"
	default:
		return "Unknown"
	}
}

// Geometry is a spatial operand in a given reference system. SRID 0 means the
// database reference system.
type Geometry struct {
	Geom orb.Geometry
	SRID int
}

// NewEnvelope builds an envelope operand.
func NewEnvelope(b orb.Bound, srid int) Geometry {
	return Geometry{Geom: b, SRID: srid}
}

// Kind returns the operand kind. Rings and collections are not valid
// operands and report UnknownGeometry.
func (g Geometry) Kind() GeometryKind {
	switch g.Geom.(type) {
	case orb.Bound:
		return Envelope
	case orb.Point:
		return Point
	case orb.LineString:
		return LineString
	case orb.Polygon:
		return Polygon
	case orb.MultiPoint:
		return MultiPoint
	case orb.MultiLineString:
		return MultiLineString
	case orb.MultiPolygon:
		return MultiPolygon
	default:
		return UnknownGeometry
	}
}

// WKT renders the operand as well-known text. Envelopes render as their
// rectangle polygon.
func (g Geometry) WKT() (string, error) {
	switch geom := g.Geom.(type) {
	case nil:
		return "", fmt.Errorf("empty geometry operand")
	case orb.Bound:
		return wkt.MarshalString(geom.ToPolygon()), nil
	default:
		if g.Kind() == UnknownGeometry {
			return "", fmt.Errorf("unsupported geometry type %T", geom)
		}
		return wkt.MarshalString(geom), nil
	}
}

// Canonical renders the operand for structural keys.
func (g Geometry) Canonical() string {
	text, err := g.WKT()
	if err != nil {
		text = g.Kind().String()
	}
	return fmt.Sprintf("SRID=%d;%s", g.SRID, text)
}

// ParseWKT decodes a well-known text operand.
func ParseWKT(text string, srid int) (Geometry, error) {
	geom, err := wkt.Unmarshal(text)
	if err != nil {
		return Geometry{}, fmt.Errorf("parsing WKT: %w", err)
	}
	g := Geometry{Geom: geom, SRID: srid}
	if g.Kind() == UnknownGeometry {
		return Geometry{}, fmt.Errorf("unsupported geometry type %s", geom.GeoJSONType())
	}
	return g, nil
}
