// Package dialect describes what the selection compiler may assume about the
// target database.
//
// Capabilities values are immutable and shared by all compilations. The
// built-in dialects register the matching goqu SQL dialects on import.
package dialect

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	// goqu dialects rendered by PostGIS and SpatiaLite.
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"

	"github.com/roach88/cityq/internal/predicate"
)

// Capabilities are the dialect-specific facts the compiler consults.
type Capabilities interface {
	// Name identifies the dialect ("postgis", "spatialite").
	Name() string

	// GoquDialect is the goqu dialect used to render SQL.
	GoquDialect() string

	// MaxInListSize is the largest number of items allowed in one IN list.
	MaxInListSize() int

	// SpatialFunction returns the function evaluating op.
	SpatialFunction(op predicate.SpatialOperator) (string, error)

	// EnvelopeFunction builds a rectangle from (minx, miny, maxx, maxy, srid).
	EnvelopeFunction() string

	// GeometryFromTextFunction builds a geometry from (wkt, srid).
	GeometryFromTextFunction() string

	// TransformFunction reprojects a geometry to (geom, srid).
	TransformFunction() string

	// SpatialHint is an optimizer hint attached to selections that use a
	// spatial index, or "" when the dialect has none.
	SpatialHint() string

	// Placeholder is the bind parameter marker of the n-th argument,
	// counting from 1.
	Placeholder(n int) string

	// UnboundedLimit is the LIMIT rendered with an OFFSET that has no upper
	// bound, or 0 when OFFSET may stand alone.
	UnboundedLimit() uint
}

// ogcFunctions are the OGC simple-feature function names shared by PostGIS
// and SpatiaLite. Distance operators are evaluated as ST_Distance comparisons.
var ogcFunctions = map[predicate.SpatialOperator]string{
	predicate.Intersects: "ST_Intersects",
	predicate.Disjoint:   "ST_Disjoint",
	predicate.Within:     "ST_Within",
	predicate.Contains:   "ST_Contains",
	predicate.Equals:     "ST_Equals",
	predicate.Touches:    "ST_Touches",
	predicate.Crosses:    "ST_Crosses",
	predicate.Overlaps:   "ST_Overlaps",
	predicate.DWithin:    "ST_Distance",
	predicate.Beyond:     "ST_Distance",
}

func spatialFunction(dialect, bbox string, op predicate.SpatialOperator) (string, error) {
	if op == predicate.BBox {
		return bbox, nil
	}
	if fn, ok := ogcFunctions[op]; ok {
		return fn, nil
	}
	return "", fmt.Errorf("%s: unsupported spatial operator %s", dialect, op)
}

// PostGIS is PostgreSQL with the PostGIS extension.
type PostGIS struct {
	// InListSize overrides the default IN list limit when positive.
	InListSize int

	// SpatialIndexHint is a pg_hint_plan hint, such as "BitmapScan(t0)",
	// attached to selections with spatial conditions.
	SpatialIndexHint string
}

func (PostGIS) Name() string        { return "postgis" }
func (PostGIS) GoquDialect() string { return "postgres" }

func (d PostGIS) MaxInListSize() int {
	if d.InListSize > 0 {
		return d.InListSize
	}
	return 1000
}

func (PostGIS) SpatialFunction(op predicate.SpatialOperator) (string, error) {
	return spatialFunction("postgis", "ST_Intersects", op)
}

func (PostGIS) EnvelopeFunction() string         { return "ST_MakeEnvelope" }
func (PostGIS) GeometryFromTextFunction() string { return "ST_GeomFromText" }
func (PostGIS) TransformFunction() string        { return "ST_Transform" }
func (d PostGIS) SpatialHint() string            { return d.SpatialIndexHint }
func (PostGIS) UnboundedLimit() uint             { return 0 }
func (PostGIS) Placeholder(n int) string         { return "$" + strconv.Itoa(n) }

// SpatiaLite is SQLite with the SpatiaLite extension.
type SpatiaLite struct {
	InListSize int
}

func (SpatiaLite) Name() string        { return "spatialite" }
func (SpatiaLite) GoquDialect() string { return "sqlite3" }

func (d SpatiaLite) MaxInListSize() int {
	if d.InListSize > 0 {
		return d.InListSize
	}
	return 500
}

func (SpatiaLite) SpatialFunction(op predicate.SpatialOperator) (string, error) {
	return spatialFunction("spatialite", "MbrIntersects", op)
}

func (SpatiaLite) EnvelopeFunction() string         { return "BuildMbr" }
func (SpatiaLite) GeometryFromTextFunction() string { return "ST_GeomFromText" }
func (SpatiaLite) TransformFunction() string        { return "ST_Transform" }
func (SpatiaLite) SpatialHint() string              { return "" }
func (SpatiaLite) Placeholder(int) string           { return "?" }

// UnboundedLimit is the largest SQLite LIMIT; SQLite rejects OFFSET without
// LIMIT.
func (SpatiaLite) UnboundedLimit() uint { return math.MaxInt }

var builtin = map[string]Capabilities{
	"postgis":    PostGIS{},
	"spatialite": SpatiaLite{},
}

// ByName returns a built-in dialect.
func ByName(name string) (Capabilities, error) {
	if d, ok := builtin[strings.ToLower(name)]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("unknown dialect %q (available: %s)", name, strings.Join(Names(), ", "))
}

// Names lists the built-in dialects in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for n := range builtin {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
