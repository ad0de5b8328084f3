// Package config defines the query document accepted by the compiler and
// loads it from YAML, JSON or CUE files.
//
// The document is a plain data structure. It carries no validation beyond
// what decoding enforces: names, paths and ranges are checked when the
// compiler package assembles the query.
package config

// Query is a query document.
type Query struct {
	// Namespaces bind prefixes used in type names and value references.
	Namespaces map[string]string `yaml:"namespaces,omitempty" json:"namespaces,omitempty"`

	FeatureTypes []string         `yaml:"featureTypes" json:"featureTypes"`
	TargetSRS    *SRS             `yaml:"targetSRS,omitempty" json:"targetSRS,omitempty"`
	Selection    *Predicate       `yaml:"selection,omitempty" json:"selection,omitempty"`
	Projection   []TypeProjection `yaml:"projection,omitempty" json:"projection,omitempty"`
	Counter      *Counter         `yaml:"counter,omitempty" json:"counter,omitempty"`
	Lod          *Lod             `yaml:"lod,omitempty" json:"lod,omitempty"`
	Appearance   *Appearance      `yaml:"appearance,omitempty" json:"appearance,omitempty"`
	Tiling       *Tiling          `yaml:"tiling,omitempty" json:"tiling,omitempty"`
}

// SRS names a spatial reference system.
type SRS struct {
	SRID int    `yaml:"srid" json:"srid"`
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
}

// Predicate is a node of the selection tree in op/args form.
//
// Logical nodes (and, or, not) use Args. Comparisons name a Property and
// carry a Value (Values for between). Spatial nodes carry a Geometry and, for
// dwithin and beyond, a Distance. resourceId and databaseId nodes list ids.
type Predicate struct {
	Op   string      `yaml:"op" json:"op"`
	Args []Predicate `yaml:"args,omitempty" json:"args,omitempty"`

	Property string `yaml:"property,omitempty" json:"property,omitempty"`
	Value    any    `yaml:"value,omitempty" json:"value,omitempty"`
	Values   []any  `yaml:"values,omitempty" json:"values,omitempty"`

	// Like options.
	MatchCase       *bool  `yaml:"matchCase,omitempty" json:"matchCase,omitempty"`
	WildCard        string `yaml:"wildCard,omitempty" json:"wildCard,omitempty"`
	SingleCharacter string `yaml:"singleCharacter,omitempty" json:"singleCharacter,omitempty"`
	EscapeCharacter string `yaml:"escapeCharacter,omitempty" json:"escapeCharacter,omitempty"`

	Geometry *Geometry `yaml:"geometry,omitempty" json:"geometry,omitempty"`
	Distance *float64  `yaml:"distance,omitempty" json:"distance,omitempty"`

	IDs         []string `yaml:"ids,omitempty" json:"ids,omitempty"`
	DatabaseIDs []int64  `yaml:"databaseIds,omitempty" json:"databaseIds,omitempty"`
}

// Geometry is a spatial operand: an envelope or well-known text.
type Geometry struct {
	Envelope *Envelope `yaml:"envelope,omitempty" json:"envelope,omitempty"`
	WKT      string    `yaml:"wkt,omitempty" json:"wkt,omitempty"`
	SRID     int       `yaml:"srid,omitempty" json:"srid,omitempty"`
}

// Envelope is an axis-aligned box given by its lower and upper corners.
type Envelope struct {
	Lower []float64 `yaml:"lower" json:"lower"`
	Upper []float64 `yaml:"upper" json:"upper"`
}

// TypeProjection shapes the output of one type.
type TypeProjection struct {
	Type              string             `yaml:"type" json:"type"`
	Mode              string             `yaml:"mode,omitempty" json:"mode,omitempty"`
	Properties        []string           `yaml:"properties,omitempty" json:"properties,omitempty"`
	GenericAttributes []GenericAttribute `yaml:"genericAttributes,omitempty" json:"genericAttributes,omitempty"`
}

type GenericAttribute struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type,omitempty" json:"type,omitempty"`
}

// Counter limits the result by position, 1-based and inclusive.
type Counter struct {
	From int64 `yaml:"from,omitempty" json:"from,omitempty"`
	To   int64 `yaml:"to,omitempty" json:"to,omitempty"`
}

type Lod struct {
	Levels []int  `yaml:"levels" json:"levels"`
	Mode   string `yaml:"mode,omitempty" json:"mode,omitempty"`
	Search string `yaml:"search,omitempty" json:"search,omitempty"`
	Depth  int    `yaml:"depth,omitempty" json:"depth,omitempty"`
}

type Appearance struct {
	Themes          []string `yaml:"themes,omitempty" json:"themes,omitempty"`
	IncludeUntagged bool     `yaml:"includeUntagged,omitempty" json:"includeUntagged,omitempty"`
}

// Tiling splits the extent into a grid given either by Rows and Columns or
// by SideLength.
type Tiling struct {
	Extent       Extent  `yaml:"extent" json:"extent"`
	Rows         int     `yaml:"rows,omitempty" json:"rows,omitempty"`
	Columns      int     `yaml:"columns,omitempty" json:"columns,omitempty"`
	SideLength   float64 `yaml:"sideLength,omitempty" json:"sideLength,omitempty"`
	ActiveRow    int     `yaml:"activeRow" json:"activeRow"`
	ActiveColumn int     `yaml:"activeColumn" json:"activeColumn"`
}

type Extent struct {
	Lower []float64 `yaml:"lower" json:"lower"`
	Upper []float64 `yaml:"upper" json:"upper"`
	SRID  int       `yaml:"srid,omitempty" json:"srid,omitempty"`
}
