package schema

import (
	"fmt"
)

// PathError reports a value reference that cannot be resolved against the
// mapping.
type PathError struct {
	Path    string
	Message string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("invalid schema path %q: %s", e.Path, e.Message)
}

// Table is an aliased table reference.
type Table struct {
	Name  string
	Alias string
}

// Column is an aliased column reference.
type Column struct {
	Alias string
	Name  string
}

func (c Column) String() string { return c.Alias + "." + c.Name }

// JoinRef joins Table on Left = Right, where Left is a column of Table.
type JoinRef struct {
	Table Table
	Left  Column
	Right Column
}

// Restriction limits the rows of an aliased table to a set of object classes.
type Restriction struct {
	Column  Column
	TypeIDs []int
}

// Resolution is the relational form of a resolved Path.
type Resolution struct {
	From         Table   // root table (alias t0)
	To           Table   // table holding the target column
	Target       Column  // column the path ends at
	RowID        Column  // row identifier of the root table
	Property     *Property
	Joins        []JoinRef
	Restrictions []Restriction
}

// Resolve computes the join chain for path. allowed limits the root type to
// the given concrete object classes; an empty intersection is an error.
func (m *Mapping) Resolve(path Path, allowed []int) (*Resolution, error) {
	if path.Root == nil || len(path.Nodes) == 0 {
		return nil, &PathError{Path: path.String(), Message: "path has no property step"}
	}

	root := path.Root
	rootIDs := intersectIDs(IDs(m.ConcreteSubtypes(root)), allowed)
	if len(rootIDs) == 0 {
		return nil, &PathError{Path: path.String(), Message: fmt.Sprintf("no selected feature type is a %s", root)}
	}

	from := Table{Name: root.Table, Alias: "t0"}
	res := &Resolution{
		From:  from,
		RowID: Column{Alias: from.Alias, Name: m.idColumn},
	}
	if !root.Untyped {
		res.Restrictions = append(res.Restrictions, Restriction{
			Column:  Column{Alias: from.Alias, Name: m.typeColumn},
			TypeIDs: rootIDs,
		})
	}

	cur, curTable := root, from
	for i, node := range path.Nodes {
		prop := node.Property
		last := i == len(path.Nodes)-1

		_, decl, ok := m.Property(cur, prop.Name)
		if !ok {
			return nil, &PathError{Path: path.String(), Message: fmt.Sprintf("type %s has no property %s", cur, prop.Name.Local)}
		}
		owner := curTable
		if decl.Table != cur.Table {
			owner = Table{Name: decl.Table, Alias: fmt.Sprintf("t%d_%s", i, decl.Table)}
			res.Joins = append(res.Joins, JoinRef{
				Table: owner,
				Left:  Column{Alias: owner.Alias, Name: m.idColumn},
				Right: Column{Alias: curTable.Alias, Name: m.idColumn},
			})
		}

		switch prop.Kind {
		case SimpleProperty, GeometryProperty:
			if !last {
				return nil, &PathError{Path: path.String(), Message: fmt.Sprintf("%s property %s is not the last step", prop.Kind, prop.Name.Local)}
			}
			res.To = owner
			res.Target = Column{Alias: owner.Alias, Name: prop.Column}
			res.Property = prop

		case ObjectProperty:
			target := node.Target
			if target == nil {
				if target, ok = m.Target(prop); !ok {
					return nil, &PathError{Path: path.String(), Message: fmt.Sprintf("unknown target of %s", prop.Name.Local)}
				}
			}
			next := Table{Name: target.Table, Alias: fmt.Sprintf("t%d", i+1)}
			res.Joins = append(res.Joins, m.objectJoins(prop.Join, owner, next, i+1)...)

			if !target.Untyped {
				ids := IDs(m.ConcreteSubtypes(target))
				if len(ids) == 0 {
					return nil, &PathError{Path: path.String(), Message: fmt.Sprintf("%s has no concrete subtype", target)}
				}
				res.Restrictions = append(res.Restrictions, Restriction{
					Column:  Column{Alias: next.Alias, Name: m.typeColumn},
					TypeIDs: ids,
				})
			}

			cur, curTable = target, next
			if last {
				res.To = next
				res.Target = Column{Alias: next.Alias, Name: m.idColumn}
				res.Property = prop
			}
		}
	}
	return res, nil
}

func (m *Mapping) objectJoins(j *Join, owner, next Table, step int) []JoinRef {
	if j.Table == "" {
		return []JoinRef{{
			Table: next,
			Left:  Column{Alias: next.Alias, Name: j.ToColumn},
			Right: Column{Alias: owner.Alias, Name: j.FromColumn},
		}}
	}
	link := Table{Name: j.Table, Alias: fmt.Sprintf("t%d_%s", step, j.Table)}
	return []JoinRef{
		{
			Table: link,
			Left:  Column{Alias: link.Alias, Name: j.FromColumn},
			Right: Column{Alias: owner.Alias, Name: m.idColumn},
		},
		{
			Table: next,
			Left:  Column{Alias: next.Alias, Name: m.idColumn},
			Right: Column{Alias: link.Alias, Name: j.ToColumn},
		},
	}
}

// intersectIDs keeps the members of ids that are also in allowed, preserving
// the order of ids.
func intersectIDs(ids, allowed []int) []int {
	set := make(map[int]bool, len(allowed))
	for _, id := range allowed {
		set[id] = true
	}
	var out []int
	for _, id := range ids {
		if set[id] {
			out = append(out, id)
		}
	}
	return out
}
