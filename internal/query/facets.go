package query

import (
	"fmt"

	"github.com/roach88/cityq/internal/schema"
)

// ProjectionMode decides how a projection's property list is interpreted.
type ProjectionMode int

const (
	Keep   ProjectionMode = iota // export only the listed properties
	Remove                       // export everything except the listed properties
)

func (m ProjectionMode) String() string {
	if m == Remove {
		return "remove"
	}
	return "keep"
}

// GenericAttributeType is the value type of a generic attribute.
type GenericAttributeType string

const (
	GenericString  GenericAttributeType = "string"
	GenericInt     GenericAttributeType = "int"
	GenericDouble  GenericAttributeType = "double"
	GenericDate    GenericAttributeType = "date"
	GenericURI     GenericAttributeType = "uri"
	GenericMeasure GenericAttributeType = "measure"
	GenericBlob    GenericAttributeType = "blob"
	GenericSet     GenericAttributeType = "set"
)

// ParseGenericAttributeType validates a generic attribute type name.
func ParseGenericAttributeType(s string) (GenericAttributeType, error) {
	switch t := GenericAttributeType(s); t {
	case GenericString, GenericInt, GenericDouble, GenericDate,
		GenericURI, GenericMeasure, GenericBlob, GenericSet:
		return t, nil
	}
	return "", fmt.Errorf("unknown generic attribute type %q", s)
}

// GenericAttribute names a generic attribute. An empty Type matches any type.
type GenericAttribute struct {
	Name string
	Type GenericAttributeType
}

func (g GenericAttribute) matches(name string, typ GenericAttributeType) bool {
	return g.Name == name && (g.Type == "" || g.Type == typ)
}

// TypeProjection shapes the output of one object type.
type TypeProjection struct {
	Type              *schema.Type
	Mode              ProjectionMode
	Properties        []*schema.Property
	GenericAttributes []GenericAttribute
}

// ProjectionFilter holds the per-type projections in configuration order.
type ProjectionFilter struct {
	Types []TypeProjection
}

// For returns the projection of t, if any.
func (f ProjectionFilter) For(t *schema.Type) (TypeProjection, bool) {
	for _, p := range f.Types {
		if p.Type == t {
			return p, true
		}
	}
	return TypeProjection{}, false
}

// Keeps reports whether prop is exported for objects of type t.
func (f ProjectionFilter) Keeps(t *schema.Type, prop *schema.Property) bool {
	p, ok := f.For(t)
	if !ok {
		return true
	}
	listed := false
	for _, candidate := range p.Properties {
		if candidate == prop {
			listed = true
			break
		}
	}
	return listed == (p.Mode == Keep)
}

// KeepsGenericAttribute reports whether the generic attribute is exported for
// objects of type t.
func (f ProjectionFilter) KeepsGenericAttribute(t *schema.Type, name string, typ GenericAttributeType) bool {
	p, ok := f.For(t)
	if !ok {
		return true
	}
	listed := false
	for _, g := range p.GenericAttributes {
		if g.matches(name, typ) {
			listed = true
			break
		}
	}
	return listed == (p.Mode == Keep)
}

// CounterFilter bounds the result by position: From and To are 1-based and
// inclusive. To == 0 leaves the upper end open.
type CounterFilter struct {
	From int64
	To   int64
}

// NewCounterFilter validates the bounds. A zero from defaults to 1.
func NewCounterFilter(from, to int64) (*CounterFilter, error) {
	if from == 0 {
		from = 1
	}
	if from < 1 {
		return nil, Errorf(CodeInvalidCounter, "from must be at least 1, got %d", from)
	}
	if to < 0 || (to != 0 && to < from) {
		return nil, Errorf(CodeInvalidCounter, "to (%d) must be 0 or not less than from (%d)", to, from)
	}
	return &CounterFilter{From: from, To: to}, nil
}

// Contains reports whether the 1-based result position pos is selected.
func (c CounterFilter) Contains(pos int64) bool {
	return pos >= c.From && (c.To == 0 || pos <= c.To)
}

// Offset is the number of leading results to skip.
func (c CounterFilter) Offset() int64 { return c.From - 1 }

// Limit is the maximum number of results, if bounded.
func (c CounterFilter) Limit() (int64, bool) {
	if c.To == 0 {
		return 0, false
	}
	return c.To - c.From + 1, true
}

// MaxLod is the highest level of detail.
const MaxLod = 4

// LodMode combines the enabled levels.
type LodMode int

const (
	LodOr  LodMode = iota // geometry in any enabled level
	LodAnd                // geometry in every enabled level
)

func (m LodMode) String() string {
	if m == LodAnd {
		return "and"
	}
	return "or"
}

// LodSearch controls descent into nested objects.
type LodSearch int

const (
	SearchNone  LodSearch = iota // only the feature's own geometry
	SearchDepth                  // nested objects up to Depth levels
	SearchAll                    // nested objects at any depth the schema allows
)

func (s LodSearch) String() string {
	switch s {
	case SearchDepth:
		return "depth"
	case SearchAll:
		return "all"
	default:
		return "none"
	}
}

// LodFilter selects features by the levels of detail they carry geometry in.
type LodFilter struct {
	Levels [MaxLod + 1]bool
	Mode   LodMode
	Search LodSearch
	Depth  int
}

// EnabledLevels returns the enabled levels in ascending order.
func (f LodFilter) EnabledLevels() []int {
	var out []int
	for lod, on := range f.Levels {
		if on {
			out = append(out, lod)
		}
	}
	return out
}

// SearchDepth returns the nesting bound for feature type t.
func (f LodFilter) SearchDepth(m *schema.Mapping, t *schema.Type) int {
	switch f.Search {
	case SearchDepth:
		return f.Depth
	case SearchAll:
		return m.ContainmentDepth(t)
	default:
		return 0
	}
}

// AppearanceFilter selects appearances by theme.
type AppearanceFilter struct {
	Themes          []string
	IncludeUntagged bool
}

// Accepts reports whether an appearance with the given theme is exported. A
// nil theme is an appearance without theme.
func (f AppearanceFilter) Accepts(theme *string) bool {
	if theme == nil {
		return f.IncludeUntagged
	}
	for _, t := range f.Themes {
		if t == *theme {
			return true
		}
	}
	return false
}
