package querysql

import (
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/roach88/cityq/internal/query"
	"github.com/roach88/cityq/internal/schema"
)

// lodBuilder renders the LOD filter as correlated EXISTS subqueries.
//
// A feature has geometry in a level when one of its geometry columns of that
// level is set, or, within the search depth, when one of the objects it
// contains has. Enabled levels are combined with the filter mode.
type lodBuilder struct {
	d      goqu.DialectWrapper
	m      *schema.Mapping
	filter query.LodFilter
}

// condition restricts the rows of the root alias to features with geometry
// in the enabled levels, per selected feature type.
func (b *lodBuilder) condition(root schema.Table, types []*schema.Type) clause {
	typeCol := column(schema.Column{Alias: root.Alias, Name: b.m.TypeColumn()})
	rowID := column(schema.Column{Alias: root.Alias, Name: b.m.IDColumn()})

	var perType []exp.Expression
	for _, t := range types {
		alias := "l0"
		levels := b.levels(t, alias, b.filter.SearchDepth(b.m, t), 1)
		sub := b.d.From(goqu.T(t.Table).As(alias)).
			Select(goqu.L("1")).
			Where(goqu.I(alias+"."+b.m.IDColumn()).Eq(rowID), levels)
		perType = append(perType, goqu.And(typeCol.Eq(t.ID), goqu.L("EXISTS ?", sub)))
	}

	var expr exp.Expression
	if len(perType) == 1 {
		expr = perType[0]
	} else {
		expr = goqu.Or(perType...)
	}
	return clause{key: b.key(), expr: expr}
}

func (b *lodBuilder) key() string {
	levels := make([]string, 0, query.MaxLod+1)
	for _, l := range b.filter.EnabledLevels() {
		levels = append(levels, fmt.Sprint(l))
	}
	key := fmt.Sprintf("lod %s [%s] search %s", b.filter.Mode, strings.Join(levels, " "), b.filter.Search)
	if b.filter.Search == query.SearchDepth {
		key += fmt.Sprintf(" %d", b.filter.Depth)
	}
	return key
}

func (b *lodBuilder) levels(t *schema.Type, alias string, depth, nest int) exp.Expression {
	var conds []exp.Expression
	for _, lod := range b.filter.EnabledLevels() {
		cond, ok := b.atLevel(t, alias, lod, depth, nest)
		if !ok {
			if b.filter.Mode == query.LodAnd {
				return never()
			}
			continue
		}
		conds = append(conds, cond)
	}
	switch {
	case len(conds) == 0:
		return never()
	case len(conds) == 1:
		return conds[0]
	case b.filter.Mode == query.LodAnd:
		return goqu.And(conds...)
	default:
		return goqu.Or(conds...)
	}
}

// atLevel is the condition for geometry of object t (rows of alias) in one
// level. It reports false when no such geometry is reachable.
func (b *lodBuilder) atLevel(t *schema.Type, alias string, lod, depth, nest int) (exp.Expression, bool) {
	var ors []exp.Expression
	for _, dp := range b.m.AllProperties(t) {
		p := dp.Property
		switch {
		case p.Kind == schema.GeometryProperty && p.LOD == lod:
			ors = append(ors, b.notNull(t, dp.Owner, alias, p.Column))

		case p.Kind == schema.ObjectProperty && depth > 0:
			target, ok := b.m.Target(p)
			if !ok || !b.reaches(target, lod, depth-1) {
				continue
			}
			sub := fmt.Sprintf("l%d", nest)
			inner, _ := b.atLevel(target, sub, lod, depth-1, nest+1)
			ors = append(ors, goqu.L("EXISTS ?", b.nested(t, dp.Owner, p, alias, target, sub, inner)))
		}
	}
	switch len(ors) {
	case 0:
		return nil, false
	case 1:
		return ors[0], true
	default:
		return goqu.Or(ors...), true
	}
}

// reaches reports whether t or an object nested in t within depth steps has
// geometry in level lod.
func (b *lodBuilder) reaches(t *schema.Type, lod, depth int) bool {
	for _, dp := range b.m.AllProperties(t) {
		p := dp.Property
		if p.Kind == schema.GeometryProperty && p.LOD == lod {
			return true
		}
		if p.Kind == schema.ObjectProperty && depth > 0 {
			if target, ok := b.m.Target(p); ok && b.reaches(target, lod, depth-1) {
				return true
			}
		}
	}
	return false
}

// notNull tests a geometry column of t. Columns of a supertype table are
// reached through the shared row identifier.
func (b *lodBuilder) notNull(t, owner *schema.Type, alias, col string) exp.Expression {
	if owner.Table == t.Table {
		return goqu.I(alias + "." + col).IsNotNull()
	}
	ownerAlias := alias + "_" + owner.Table
	id := b.m.IDColumn()
	sub := b.d.From(goqu.T(owner.Table).As(ownerAlias)).
		Select(goqu.L("1")).
		Where(
			goqu.I(ownerAlias+"."+id).Eq(goqu.I(alias+"."+id)),
			goqu.I(ownerAlias+"."+col).IsNotNull(),
		)
	return goqu.L("EXISTS ?", sub)
}

// nested selects the objects referenced by p from rows of alias.
func (b *lodBuilder) nested(t, owner *schema.Type, p *schema.Property, alias string, target *schema.Type, sub string, inner exp.Expression) *goqu.SelectDataset {
	id := b.m.IDColumn()
	ownerAlias := alias
	var ds *goqu.SelectDataset
	var where []exp.Expression

	if owner.Table != t.Table {
		// The join column lives in the supertype table.
		ownerAlias = alias + "_" + owner.Table
	}

	j := p.Join
	if j.Table == "" {
		ds = b.d.From(goqu.T(target.Table).As(sub))
		if ownerAlias != alias {
			ds = ds.Join(goqu.T(owner.Table).As(ownerAlias),
				goqu.On(goqu.I(ownerAlias+"."+id).Eq(goqu.I(alias+"."+id))))
		}
		where = append(where, goqu.I(sub+"."+j.ToColumn).Eq(goqu.I(ownerAlias+"."+j.FromColumn)))
	} else {
		link := sub + "_" + j.Table
		ds = b.d.From(goqu.T(target.Table).As(sub)).
			Join(goqu.T(j.Table).As(link), goqu.On(goqu.I(link+"."+j.ToColumn).Eq(goqu.I(sub+"."+id))))
		where = append(where, goqu.I(link+"."+j.FromColumn).Eq(goqu.I(alias+"."+id)))
	}

	if !target.Untyped {
		where = append(where, goqu.I(sub+"."+b.m.TypeColumn()).In(schema.IDs(b.m.ConcreteSubtypes(target))))
	}
	where = append(where, inner)
	return ds.Select(goqu.L("1")).Where(where...)
}

func never() exp.Expression { return goqu.L("1 = 0") }
