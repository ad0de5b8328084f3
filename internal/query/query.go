// Package query holds the compiled, validated request model.
//
// A Query is produced by the compiler package and is read-only afterwards. It
// carries the compiled selection statement plus the facets that shape what
// is exported (feature types, projection, counter, LOD, appearance, tiling).
package query

import (
	"github.com/roach88/cityq/internal/predicate"
	"github.com/roach88/cityq/internal/schema"
)

// SRS is a spatial reference system.
type SRS struct {
	SRID int    `json:"srid"`
	Name string `json:"name,omitempty"`
}

// Statement is a compiled SQL statement. Implementations are immutable and
// render fresh SQL on every call, so one Statement can serve as a template
// for any number of concurrent readers.
type Statement interface {
	// ToSQL renders the statement. Prepared statements use dialect
	// placeholders and return the arguments in order.
	ToSQL(prepared bool) (string, []any, error)

	// Explain renders the statement structure for diagnostics.
	Explain() string
}

// Query is the compiled request.
type Query struct {
	TargetSRS    SRS
	Version      string
	FeatureTypes FeatureTypeFilter

	// Predicate is the selection tree; Selection its compiled form. Both are
	// nil when nothing is filtered.
	Predicate predicate.Predicate
	Selection Statement

	Projection ProjectionFilter
	Counter    *CounterFilter
	Lod        *LodFilter
	Appearance *AppearanceFilter
	Tiling     *Tiling
}

// FeatureTypeFilter is the ordered set of selected concrete feature types.
type FeatureTypeFilter struct {
	Types []*schema.Type
}

// IDs returns the object class identifiers of the selected types.
func (f FeatureTypeFilter) IDs() []int { return schema.IDs(f.Types) }

// Contains reports whether t is selected.
func (f FeatureTypeFilter) Contains(t *schema.Type) bool {
	for _, ft := range f.Types {
		if ft == t {
			return true
		}
	}
	return false
}

// Len returns the number of selected types.
func (f FeatureTypeFilter) Len() int { return len(f.Types) }
