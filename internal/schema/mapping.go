package schema

import (
	"fmt"
	"strings"
)

// Default column names used when a Definition leaves them empty.
const (
	DefaultTypeColumn     = "objectclass_id"
	DefaultIDColumn       = "id"
	DefaultEnvelopeColumn = "envelope"
)

// Mapping is the immutable schema mapping. It is safe for concurrent use.
type Mapping struct {
	types  []*Type
	byName map[QName]*Type
	byID   map[int]*Type

	root       *Type
	resourceID *Property
	databaseID *Property

	typeColumn     string
	idColumn       string
	envelopeColumn string
	namespaces     Namespaces
}

// NewMapping validates def and builds a Mapping from it.
func NewMapping(def Definition) (*Mapping, error) {
	m := &Mapping{
		byName:         make(map[QName]*Type),
		byID:           make(map[int]*Type),
		typeColumn:     orDefault(def.TypeColumn, DefaultTypeColumn),
		idColumn:       orDefault(def.IDColumn, DefaultIDColumn),
		envelopeColumn: orDefault(def.EnvelopeColumn, DefaultEnvelopeColumn),
		namespaces:     Namespaces{}.Merge(def.Namespaces),
	}

	supers := make(map[*Type]QName)
	for i, td := range def.Types {
		t, super, err := m.buildType(td)
		if err != nil {
			return nil, fmt.Errorf("types[%d]: %w", i, err)
		}
		if _, dup := m.byName[t.Name]; dup {
			return nil, fmt.Errorf("types[%d]: duplicate type %s", i, t.Name)
		}
		if _, dup := m.byID[t.ID]; dup {
			return nil, fmt.Errorf("types[%d]: duplicate type id %d", i, t.ID)
		}
		m.types = append(m.types, t)
		m.byName[t.Name] = t
		m.byID[t.ID] = t
		if super != (QName{}) {
			supers[t] = super
		}
	}

	// Link the hierarchy in definition order so subtype lists are stable.
	for _, t := range m.types {
		name, ok := supers[t]
		if !ok {
			continue
		}
		super, ok := m.byName[name]
		if !ok {
			return nil, fmt.Errorf("type %s: unknown supertype %s", t.Name, name)
		}
		t.super = super
		super.subtypes = append(super.subtypes, t)
	}

	for _, t := range m.types {
		if err := m.checkType(t); err != nil {
			return nil, err
		}
	}

	if def.Root == "" {
		return nil, fmt.Errorf("mapping has no root type")
	}
	rootName, err := m.namespaces.Parse(def.Root)
	if err != nil {
		return nil, fmt.Errorf("root: %w", err)
	}
	root, ok := m.byName[rootName]
	if !ok {
		return nil, fmt.Errorf("root: unknown type %s", def.Root)
	}
	m.root = root

	if m.resourceID, err = m.identifierProperty(def.ResourceIDProperty); err != nil {
		return nil, fmt.Errorf("resourceIdProperty: %w", err)
	}
	if m.databaseID, err = m.identifierProperty(def.DatabaseIDProperty); err != nil {
		return nil, fmt.Errorf("databaseIdProperty: %w", err)
	}

	return m, nil
}

func (m *Mapping) buildType(td TypeDefinition) (*Type, QName, error) {
	name, err := m.namespaces.Parse(td.Name)
	if err != nil {
		return nil, QName{}, err
	}
	if td.Table == "" {
		return nil, QName{}, fmt.Errorf("type %s: table is required", td.Name)
	}

	t := &Type{
		ID:       td.ID,
		Name:     name,
		Version:  td.Version,
		Table:    td.Table,
		Abstract: td.Abstract,
		TopLevel: td.TopLevel,
		Untyped:  td.Untyped,
	}

	var super QName
	if td.Extends != "" {
		if super, err = m.namespaces.Parse(td.Extends); err != nil {
			return nil, QName{}, fmt.Errorf("type %s: extends: %w", td.Name, err)
		}
	}

	for j, pd := range td.Properties {
		p, err := m.buildProperty(name.Namespace, pd)
		if err != nil {
			return nil, QName{}, fmt.Errorf("type %s: properties[%d]: %w", td.Name, j, err)
		}
		t.Properties = append(t.Properties, p)
	}
	return t, super, nil
}

func (m *Mapping) buildProperty(defaultNS string, pd PropertyDefinition) (*Property, error) {
	name, err := m.namespaces.Parse(pd.Name)
	if err != nil {
		return nil, err
	}
	if name.Namespace == "" {
		name.Namespace = defaultNS
	}

	p := &Property{Name: name, LOD: -1}
	switch pd.Kind {
	case "", "simple":
		p.Kind = SimpleProperty
		dt := pd.Type
		if dt == "" {
			dt = "string"
		}
		if p.DataType, err = ParseDataType(dt); err != nil {
			return nil, err
		}
		p.Column = pd.Column
	case "geometry":
		p.Kind = GeometryProperty
		p.Column = pd.Column
		if pd.LOD != nil {
			if *pd.LOD < 0 || *pd.LOD > 4 {
				return nil, fmt.Errorf("property %s: lod %d out of range", pd.Name, *pd.LOD)
			}
			p.LOD = *pd.LOD
		}
	case "object":
		p.Kind = ObjectProperty
		if p.Target, err = m.namespaces.Parse(pd.Target); err != nil {
			return nil, fmt.Errorf("property %s: target: %w", pd.Name, err)
		}
		if pd.Join == nil {
			return nil, fmt.Errorf("property %s: object property needs a join", pd.Name)
		}
		p.Join = &Join{Table: pd.Join.Table, FromColumn: pd.Join.From, ToColumn: pd.Join.To}
	default:
		return nil, fmt.Errorf("property %s: unknown kind %q", pd.Name, pd.Kind)
	}

	if p.Kind != ObjectProperty && p.Column == "" {
		return nil, fmt.Errorf("property %s: column is required", pd.Name)
	}
	return p, nil
}

// checkType validates references that need the whole type set.
func (m *Mapping) checkType(t *Type) error {
	seen := map[*Type]bool{}
	for cur := t; cur != nil; cur = cur.super {
		if seen[cur] {
			return fmt.Errorf("type %s: inheritance cycle", t.Name)
		}
		seen[cur] = true
	}
	for _, p := range t.Properties {
		if p.Kind != ObjectProperty {
			continue
		}
		if _, ok := m.byName[p.Target]; !ok {
			return fmt.Errorf("type %s: property %s: unknown target type %s", t.Name, p.Name.Local, p.Target)
		}
	}
	return nil
}

func (m *Mapping) identifierProperty(name string) (*Property, error) {
	if name == "" {
		return nil, nil
	}
	q, err := m.namespaces.Parse(name)
	if err != nil {
		return nil, err
	}
	p, _, ok := m.Property(m.root, q)
	if !ok || p.Kind != SimpleProperty {
		return nil, fmt.Errorf("root type %s has no simple property %s", m.root.Name, name)
	}
	return p, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Namespaces returns a copy of the mapping's default prefix bindings.
func (m *Mapping) Namespaces() Namespaces { return Namespaces{}.Merge(m.namespaces) }

// Types returns all types in definition order.
func (m *Mapping) Types() []*Type {
	out := make([]*Type, len(m.types))
	copy(out, m.types)
	return out
}

// Root returns the common root type of all features.
func (m *Mapping) Root() *Type { return m.root }

// TypeColumn returns the name of the type discriminator column.
func (m *Mapping) TypeColumn() string { return m.typeColumn }

// IDColumn returns the name of the row identifier column shared by all tables.
func (m *Mapping) IDColumn() string { return m.idColumn }

// EnvelopeColumn returns the root table's envelope geometry column.
func (m *Mapping) EnvelopeColumn() string { return m.envelopeColumn }

// Lookup finds a type by qualified name. A name without namespace matches
// when exactly one type carries that local name.
func (m *Mapping) Lookup(name QName) (*Type, bool) {
	c := m.Candidates(name)
	if len(c) != 1 {
		return nil, false
	}
	return c[0], true
}

// Candidates returns every type name may refer to: at most one for a
// qualified name, all types with the local name otherwise.
func (m *Mapping) Candidates(name QName) []*Type {
	if name.Namespace != "" {
		if t, ok := m.byName[name]; ok {
			return []*Type{t}
		}
		return nil
	}
	var out []*Type
	for _, t := range m.types {
		if t.Name.Local == name.Local {
			out = append(out, t)
		}
	}
	return out
}

// UnresolvedType describes why name, written as written, does not resolve
// to a single type.
func (m *Mapping) UnresolvedType(name QName, written string) string {
	c := m.Candidates(name)
	if len(c) < 2 {
		return fmt.Sprintf("unknown type %s", written)
	}
	names := make([]string, len(c))
	for i, t := range c {
		names[i] = t.Name.String()
	}
	return fmt.Sprintf("ambiguous type name %s: %s", name.Local, strings.Join(names, ", "))
}

// TypeByID finds a type by object class identifier.
func (m *Mapping) TypeByID(id int) (*Type, bool) {
	t, ok := m.byID[id]
	return t, ok
}

// ConcreteSubtypes returns t (when concrete) and all concrete descendants,
// ordered by identifier.
func (m *Mapping) ConcreteSubtypes(t *Type) []*Type {
	var out []*Type
	var walk func(*Type)
	walk = func(cur *Type) {
		if !cur.Abstract {
			out = append(out, cur)
		}
		for _, sub := range cur.subtypes {
			walk(sub)
		}
	}
	walk(t)
	return sortTypesByID(out)
}

// Property finds a property on t or one of its supertypes and returns it
// together with the declaring type.
func (m *Mapping) Property(t *Type, name QName) (*Property, *Type, bool) {
	for cur := t; cur != nil; cur = cur.super {
		if p, ok := cur.declared(name); ok {
			return p, cur, true
		}
	}
	return nil, nil, false
}

// DeclaredProperty pairs a property with the type that declares it.
type DeclaredProperty struct {
	Property *Property
	Owner    *Type
}

// AllProperties returns the properties of t including inherited ones,
// supertype properties first.
func (m *Mapping) AllProperties(t *Type) []DeclaredProperty {
	var chain []*Type
	for cur := t; cur != nil; cur = cur.super {
		chain = append(chain, cur)
	}
	var out []DeclaredProperty
	for i := len(chain) - 1; i >= 0; i-- {
		for _, p := range chain[i].Properties {
			out = append(out, DeclaredProperty{Property: p, Owner: chain[i]})
		}
	}
	return out
}

// Target returns the declared target type of an object property.
func (m *Mapping) Target(p *Property) (*Type, bool) {
	if p.Kind != ObjectProperty {
		return nil, false
	}
	t, ok := m.byName[p.Target]
	return t, ok
}

// ContainmentDepth returns the length of the longest chain of object
// properties starting at t. A type already on the current chain ends it, so
// recursive containment (parts of parts) counts once.
func (m *Mapping) ContainmentDepth(t *Type) int {
	return m.containmentDepth(t, map[*Type]bool{})
}

func (m *Mapping) containmentDepth(t *Type, onChain map[*Type]bool) int {
	onChain[t] = true
	defer delete(onChain, t)

	depth := 0
	for _, dp := range m.AllProperties(t) {
		target, ok := m.Target(dp.Property)
		if !ok {
			continue
		}
		d := 1
		if !onChain[target] {
			d += m.containmentDepth(target, onChain)
		}
		if d > depth {
			depth = d
		}
	}
	return depth
}
