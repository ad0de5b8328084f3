package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Node is one property step of a Path.
type Node struct {
	Property *Property
	Owner    *Type // type the property is read from at this step
	Target   *Type // object properties: the (possibly narrowed) target type
}

func (n Node) equal(o Node) bool {
	return n.Property == o.Property && n.Target == o.Target
}

// Path is a rooted property path. Path values are never mutated; every
// method that derives a path returns a new one.
type Path struct {
	Root  *Type
	Nodes []Node
}

// NewPath builds a path from a root type and property steps.
func NewPath(root *Type, nodes ...Node) Path {
	return Path{Root: root, Nodes: append([]Node(nil), nodes...)}
}

// Len returns the number of property steps.
func (p Path) Len() int { return len(p.Nodes) }

// Leaf returns the trailing property, or nil for an empty path.
func (p Path) Leaf() *Property {
	if len(p.Nodes) == 0 {
		return nil
	}
	return p.Nodes[len(p.Nodes)-1].Property
}

// Parent returns the path to the object owning the trailing property.
func (p Path) Parent() Path {
	if len(p.Nodes) == 0 {
		return NewPath(p.Root)
	}
	return NewPath(p.Root, p.Nodes[:len(p.Nodes)-1]...)
}

// HasPrefix reports whether q is a prefix of p: same root and the same
// leading steps.
func (p Path) HasPrefix(q Path) bool {
	if p.Root != q.Root || len(q.Nodes) > len(p.Nodes) {
		return false
	}
	for i, n := range q.Nodes {
		if !p.Nodes[i].equal(n) {
			return false
		}
	}
	return true
}

// Equal reports structural equality.
func (p Path) Equal(q Path) bool {
	return len(p.Nodes) == len(q.Nodes) && p.HasPrefix(q)
}

// Key returns a structural key built from type identifiers and qualified
// property names.
func (p Path) Key() string {
	var b strings.Builder
	if p.Root != nil {
		b.WriteString(strconv.Itoa(p.Root.ID))
	}
	for _, n := range p.Nodes {
		b.WriteByte('/')
		b.WriteString(n.Property.Name.String())
		if n.Target != nil {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(n.Target.ID))
			b.WriteByte(']')
		}
	}
	return b.String()
}

// String renders the path with local names.
func (p Path) String() string {
	var parts []string
	if p.Root != nil {
		parts = append(parts, p.Root.Name.Local)
	}
	for _, n := range p.Nodes {
		parts = append(parts, n.Property.Name.Local)
		if n.Target != nil {
			parts = append(parts, n.Target.Name.Local)
		}
	}
	return strings.Join(parts, "/")
}

// ParsePath parses a slash-separated value reference. The first step names
// the root type; an object property may be followed by a type step that
// narrows its target.
func (m *Mapping) ParsePath(expr string, ns Namespaces) (Path, error) {
	steps := strings.Split(expr, "/")
	if strings.TrimSpace(expr) == "" {
		return Path{}, &PathError{Path: expr, Message: "empty path"}
	}

	rootName, err := ns.Parse(steps[0])
	if err != nil {
		return Path{}, &PathError{Path: expr, Message: err.Error()}
	}
	root, ok := m.Lookup(rootName)
	if !ok {
		return Path{}, &PathError{Path: expr, Message: m.UnresolvedType(rootName, steps[0])}
	}

	var nodes []Node
	cur := root
	for i := 1; i < len(steps); i++ {
		name, err := ns.Parse(steps[i])
		if err != nil {
			return Path{}, &PathError{Path: expr, Message: err.Error()}
		}
		prop, _, ok := m.Property(cur, name)
		if !ok {
			return Path{}, &PathError{Path: expr, Message: fmt.Sprintf("type %s has no property %s", cur, steps[i])}
		}
		node := Node{Property: prop, Owner: cur}

		if prop.Kind == ObjectProperty {
			target, _ := m.Target(prop)
			if i+1 < len(steps) {
				if cast, ok := m.lookupStep(steps[i+1], ns); ok {
					if !cast.IsSubtypeOf(target) {
						return Path{}, &PathError{Path: expr, Message: fmt.Sprintf("%s is not a subtype of %s", cast, target)}
					}
					target = cast
					i++
				}
			}
			node.Target = target
			cur = target
		} else if i != len(steps)-1 {
			return Path{}, &PathError{Path: expr, Message: fmt.Sprintf("%s property %s cannot be followed by further steps", prop.Kind, steps[i])}
		}
		nodes = append(nodes, node)
	}

	if len(nodes) == 0 {
		return Path{}, &PathError{Path: expr, Message: "path has no property step"}
	}
	return Path{Root: root, Nodes: nodes}, nil
}

func (m *Mapping) lookupStep(step string, ns Namespaces) (*Type, bool) {
	name, err := ns.Parse(step)
	if err != nil {
		return nil, false
	}
	return m.Lookup(name)
}

// ResourceIDPath returns the path to the root type's resource identifier.
func (m *Mapping) ResourceIDPath() (Path, error) {
	if m.resourceID == nil {
		return Path{}, &PathError{Path: m.root.Name.Local, Message: "mapping defines no resource identifier property"}
	}
	return NewPath(m.root, Node{Property: m.resourceID, Owner: m.root}), nil
}

// DatabaseIDPath returns the path to the root type's database identifier.
func (m *Mapping) DatabaseIDPath() (Path, error) {
	if m.databaseID == nil {
		return Path{}, &PathError{Path: m.root.Name.Local, Message: "mapping defines no database identifier property"}
	}
	return NewPath(m.root, Node{Property: m.databaseID, Owner: m.root}), nil
}
