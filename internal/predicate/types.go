package predicate

import (
	"fmt"

	"github.com/roach88/cityq/internal/schema"
)

// Predicate is a node of the selection tree.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// ComparisonOperator enumerates attribute comparisons.
type ComparisonOperator int

const (
	EqualTo ComparisonOperator = iota
	NotEqualTo
	LessThan
	LessThanOrEqualTo
	GreaterThan
	GreaterThanOrEqualTo
	Like
	Between
	IsNull
)

var comparisonNames = [...]string{
	EqualTo:              "equalTo",
	NotEqualTo:           "notEqualTo",
	LessThan:             "lessThan",
	LessThanOrEqualTo:    "lessThanOrEqualTo",
	GreaterThan:          "greaterThan",
	GreaterThanOrEqualTo: "greaterThanOrEqualTo",
	Like:                 "like",
	Between:              "between",
	IsNull:               "isNull",
}

func (o ComparisonOperator) String() string {
	if int(o) >= 0 && int(o) < len(comparisonNames) {
		return comparisonNames[o]
	}
	return fmt.Sprintf("ComparisonOperator(%d)", int(o))
}

// Arity returns the number of literals the operator takes.
func (o ComparisonOperator) Arity() int {
	switch o {
	case IsNull:
		return 0
	case Between:
		return 2
	default:
		return 1
	}
}

// ParseComparisonOperator parses the configuration name of an operator.
func ParseComparisonOperator(s string) (ComparisonOperator, bool) {
	for i, name := range comparisonNames {
		if name == s {
			return ComparisonOperator(i), true
		}
	}
	return 0, false
}

// Default LIKE pattern characters.
const (
	DefaultWildCard   = '*'
	DefaultSingleChar = '.'
	DefaultEscape     = '\\'
)

// Comparison compares the value at Ref with literal Values.
//
//	Ref <op> Values[0]                  (binary operators)
//	Ref BETWEEN Values[0] AND Values[1] (Between)
//	Ref IS NULL                         (IsNull, no values)
type Comparison struct {
	Operator  ComparisonOperator
	Ref       schema.Path
	Values    []Value
	MatchCase bool // Like only

	// Like pattern characters.
	WildCard   rune
	SingleChar rune
	Escape     rune
}

func (Comparison) predicateNode() {}

// Compare builds a binary comparison.
func Compare(op ComparisonOperator, ref schema.Path, v Value) Comparison {
	return Comparison{Operator: op, Ref: ref, Values: []Value{v}, MatchCase: true}
}

// InRange builds a Between comparison.
func InRange(ref schema.Path, lower, upper Value) Comparison {
	return Comparison{Operator: Between, Ref: ref, Values: []Value{lower, upper}, MatchCase: true}
}

// Null builds an IsNull comparison.
func Null(ref schema.Path) Comparison {
	return Comparison{Operator: IsNull, Ref: ref}
}

// Matches builds a Like comparison with the default pattern characters.
func Matches(ref schema.Path, pattern string, matchCase bool) Comparison {
	return Comparison{
		Operator:   Like,
		Ref:        ref,
		Values:     []Value{NewString(pattern)},
		MatchCase:  matchCase,
		WildCard:   DefaultWildCard,
		SingleChar: DefaultSingleChar,
		Escape:     DefaultEscape,
	}
}

// SpatialOperator enumerates geometric relations.
type SpatialOperator int

const (
	BBox SpatialOperator = iota
	Intersects
	Disjoint
	Within
	Contains
	Equals
	Touches
	Crosses
	Overlaps
	DWithin
	Beyond
)

var spatialNames = [...]string{
	BBox:       "bbox",
	Intersects: "intersects",
	Disjoint:   "disjoint",
	Within:     "within",
	Contains:   "contains",
	Equals:     "equals",
	Touches:    "touches",
	Crosses:    "crosses",
	Overlaps:   "overlaps",
	DWithin:    "dwithin",
	Beyond:     "beyond",
}

func (o SpatialOperator) String() string {
	if int(o) >= 0 && int(o) < len(spatialNames) {
		return spatialNames[o]
	}
	return fmt.Sprintf("SpatialOperator(%d)", int(o))
}

// IsDistance reports whether the operator takes a distance.
func (o SpatialOperator) IsDistance() bool { return o == DWithin || o == Beyond }

// ParseSpatialOperator parses the configuration name of an operator.
func ParseSpatialOperator(s string) (SpatialOperator, bool) {
	for i, name := range spatialNames {
		if name == s {
			return SpatialOperator(i), true
		}
	}
	return 0, false
}

// Spatial relates the geometry at Ref to Operand. Distance is used by DWithin
// and Beyond and is expressed in units of the database reference system.
type Spatial struct {
	Operator SpatialOperator
	Ref      schema.Path
	Operand  Geometry
	Distance float64
}

func (Spatial) predicateNode() {}

// LogicalOperator enumerates boolean connectives.
type LogicalOperator int

const (
	And LogicalOperator = iota
	Or
	Not
)

func (o LogicalOperator) String() string {
	switch o {
	case And:
		return "and"
	case Or:
		return "or"
	case Not:
		return "not"
	default:
		return fmt.Sprintf("LogicalOperator(%d)", int(o))
	}
}

// Logical combines operands. And and Or take any number of operands; Not
// takes exactly one.
type Logical struct {
	Operator LogicalOperator
	Operands []Predicate
}

func (Logical) predicateNode() {}

// AllOf builds an AND node.
func AllOf(operands ...Predicate) Logical {
	return Logical{Operator: And, Operands: append([]Predicate{}, operands...)}
}

// AnyOf builds an OR node.
func AnyOf(operands ...Predicate) Logical {
	return Logical{Operator: Or, Operands: append([]Predicate{}, operands...)}
}

// Negate builds a NOT node.
func Negate(operand Predicate) Logical {
	return Logical{Operator: Not, Operands: []Predicate{operand}}
}

// IdentifierKind selects the identifier an Identifier predicate matches.
type IdentifierKind int

const (
	ResourceID IdentifierKind = iota // external feature identifier (gml:id)
	DatabaseID                       // internal row identifier
)

func (k IdentifierKind) String() string {
	if k == DatabaseID {
		return "databaseId"
	}
	return "resourceId"
}

// Identifier matches features whose identifier is in a set.
type Identifier struct {
	Kind        IdentifierKind
	ResourceIDs []string
	DatabaseIDs []int64
}

func (Identifier) predicateNode() {}

// Len returns the number of identifiers in the set.
func (i Identifier) Len() int {
	if i.Kind == DatabaseID {
		return len(i.DatabaseIDs)
	}
	return len(i.ResourceIDs)
}

// ResourceIDs builds a resource identifier predicate. Duplicates are dropped
// and strings are NFC-normalized; order of first occurrence is kept.
func ResourceIDs(ids ...string) Identifier {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = normalize(id)
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return Identifier{Kind: ResourceID, ResourceIDs: out}
}

// DatabaseIDs builds a database identifier predicate. Duplicates are dropped;
// order of first occurrence is kept.
func DatabaseIDs(ids ...int64) Identifier {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return Identifier{Kind: DatabaseID, DatabaseIDs: out}
}
