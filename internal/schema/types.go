package schema

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// QName is a namespace-qualified name.
type QName struct {
	Namespace string
	Local     string
}

// String renders the name in Clark notation ({namespace}local).
func (q QName) String() string {
	if q.Namespace == "" {
		return q.Local
	}
	return "{" + q.Namespace + "}" + q.Local
}

// Matches reports whether q names other. A name without a namespace matches
// on the local part only.
func (q QName) Matches(other QName) bool {
	if q.Local != other.Local {
		return false
	}
	return q.Namespace == "" || q.Namespace == other.Namespace
}

// Namespaces maps prefixes to namespace URIs.
type Namespaces map[string]string

// Merge returns a new context in which bindings from other override n.
func (n Namespaces) Merge(other Namespaces) Namespaces {
	out := make(Namespaces, len(n)+len(other))
	for k, v := range n {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Parse resolves a prefixed ("bldg:Building"), Clark ("{uri}Building") or
// bare ("Building") name. Names are NFC-normalized.
func (n Namespaces) Parse(name string) (QName, error) {
	name = norm.NFC.String(strings.TrimSpace(name))
	if name == "" {
		return QName{}, fmt.Errorf("empty name")
	}

	if strings.HasPrefix(name, "{") {
		end := strings.Index(name, "}")
		if end < 0 || end == len(name)-1 {
			return QName{}, fmt.Errorf("malformed qualified name %q", name)
		}
		return QName{Namespace: name[1:end], Local: name[end+1:]}, nil
	}

	prefix, local, ok := strings.Cut(name, ":")
	if !ok {
		return QName{Local: name}, nil
	}
	if local == "" {
		return QName{}, fmt.Errorf("malformed qualified name %q", name)
	}
	uri, ok := n[prefix]
	if !ok {
		return QName{}, fmt.Errorf("unbound namespace prefix %q in %q", prefix, name)
	}
	return QName{Namespace: uri, Local: local}, nil
}

// DataType is the value type of a simple property.
type DataType int

const (
	StringType DataType = iota
	IntegerType
	DoubleType
	BooleanType
	DateType
	TimestampType
)

var dataTypeNames = map[DataType]string{
	StringType:    "string",
	IntegerType:   "integer",
	DoubleType:    "double",
	BooleanType:   "boolean",
	DateType:      "date",
	TimestampType: "timestamp",
}

func (d DataType) String() string {
	if s, ok := dataTypeNames[d]; ok {
		return s
	}
	return fmt.Sprintf("DataType(%d)", int(d))
}

// ParseDataType parses the lower-case name of a data type.
func ParseDataType(s string) (DataType, error) {
	for d, name := range dataTypeNames {
		if name == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown data type %q", s)
}

// PropertyKind classifies a property.
type PropertyKind int

const (
	SimpleProperty   PropertyKind = iota // scalar column
	GeometryProperty                     // geometry column
	ObjectProperty                       // reference to a nested object or feature
)

func (k PropertyKind) String() string {
	switch k {
	case SimpleProperty:
		return "simple"
	case GeometryProperty:
		return "geometry"
	case ObjectProperty:
		return "object"
	default:
		return fmt.Sprintf("PropertyKind(%d)", int(k))
	}
}

// Join describes how an object property reaches its target table.
//
// Without a join table, FromColumn lives in the owning table and ToColumn in
// the target table. With a join table, FromColumn and ToColumn are both
// columns of the join table referencing the owner id and the target id.
type Join struct {
	Table      string
	FromColumn string
	ToColumn   string
}

// Property is a mapped property of a Type.
type Property struct {
	Name     QName
	Kind     PropertyKind
	DataType DataType // simple properties only
	Column   string   // simple and geometry properties
	LOD      int      // geometry properties; -1 when not bound to a level of detail
	Target   QName    // object properties
	Join     *Join    // object properties
}

// Type is a mapped feature or object type.
type Type struct {
	ID         int
	Name       QName
	Version    string
	Table      string
	Abstract   bool
	TopLevel   bool // selectable as a feature type
	Untyped    bool // table has no type discriminator column
	Properties []*Property

	super    *Type
	subtypes []*Type
}

// Super returns the direct supertype, or nil.
func (t *Type) Super() *Type { return t.super }

// IsSubtypeOf reports whether t equals other or inherits from it.
func (t *Type) IsSubtypeOf(other *Type) bool {
	for cur := t; cur != nil; cur = cur.super {
		if cur == other {
			return true
		}
	}
	return false
}

func (t *Type) String() string {
	return t.Name.Local
}

// declared returns the property declared directly on t.
func (t *Type) declared(name QName) (*Property, bool) {
	for _, p := range t.Properties {
		if name.Matches(p.Name) {
			return p, true
		}
	}
	return nil, false
}

// sortTypesByID sorts in place and returns the slice.
func sortTypesByID(types []*Type) []*Type {
	sort.Slice(types, func(i, j int) bool { return types[i].ID < types[j].ID })
	return types
}

// IDs returns the identifiers of types in order.
func IDs(types []*Type) []int {
	ids := make([]int, len(types))
	for i, t := range types {
		ids[i] = t.ID
	}
	return ids
}
