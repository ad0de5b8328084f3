package querysql

import (
	"fmt"
	"slices"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/roach88/cityq/internal/schema"
)

// sqlContext is the compiled form of one predicate node.
type sqlContext struct {
	stmt   statement
	target schema.Column

	// path is the filtered schema path of a leaf, backup the path to the
	// object owning its property. Both are nil for combined contexts.
	path   *schema.Path
	backup *schema.Path
}

// statement is a SELECT projecting a single row identifier column.
type statement interface {
	dataset(d goqu.DialectWrapper) *goqu.SelectDataset
	explain(b *strings.Builder, indent string)
}

// clause is one WHERE condition. key identifies the condition structurally;
// refsTarget marks conditions on the projected row identifier itself.
type clause struct {
	key        string
	expr       exp.Expression
	refsTarget bool
}

type join struct {
	table schema.Table
	left  schema.Column
	right schema.Column
}

type selectStmt struct {
	from   schema.Table
	target schema.Column
	joins  []join
	where  []clause
	hints  []string
}

func (s *selectStmt) clone() *selectStmt {
	return &selectStmt{
		from:   s.from,
		target: s.target,
		joins:  slices.Clone(s.joins),
		where:  slices.Clone(s.where),
		hints:  slices.Clone(s.hints),
	}
}

func (s *selectStmt) joinByAlias(alias string) (join, bool) {
	for _, j := range s.joins {
		if j.table.Alias == alias {
			return j, true
		}
	}
	return join{}, false
}

func (s *selectStmt) hasClause(key string) bool {
	for _, c := range s.where {
		if c.key == key {
			return true
		}
	}
	return false
}

func (s *selectStmt) dataset(d goqu.DialectWrapper) *goqu.SelectDataset {
	ds := d.From(goqu.T(s.from.Name).As(s.from.Alias)).Select(s.selection())
	for _, j := range s.joins {
		ds = ds.Join(
			goqu.T(j.table.Name).As(j.table.Alias),
			goqu.On(column(j.left).Eq(column(j.right))),
		)
	}
	if len(s.where) > 0 {
		exprs := make([]exp.Expression, len(s.where))
		for i, c := range s.where {
			exprs[i] = c.expr
		}
		ds = ds.Where(exprs...)
	}
	return ds
}

func (s *selectStmt) selection() any {
	if len(s.hints) == 0 {
		return column(s.target)
	}
	return goqu.L("/*+ "+strings.Join(s.hints, " ")+" */ ?", column(s.target))
}

func (s *selectStmt) explain(b *strings.Builder, indent string) {
	fmt.Fprintf(b, "%sselect %s from %s %s\n", indent, s.target, s.from.Name, s.from.Alias)
	for _, j := range s.joins {
		fmt.Fprintf(b, "%s  join %s %s on %s = %s\n", indent, j.table.Name, j.table.Alias, j.left, j.right)
	}
	for _, c := range s.where {
		fmt.Fprintf(b, "%s  where %s\n", indent, c.key)
	}
	for _, h := range s.hints {
		fmt.Fprintf(b, "%s  hint %s\n", indent, h)
	}
}

type setOperator int

const (
	intersect setOperator = iota
	union
)

func (o setOperator) String() string {
	if o == union {
		return "union"
	}
	return "intersect"
}

// setOpStmt combines child statements and projects the shared identifier
// column through an aliased derived table.
type setOpStmt struct {
	op       setOperator
	alias    string
	column   string
	children []statement
}

func (s *setOpStmt) dataset(d goqu.DialectWrapper) *goqu.SelectDataset {
	inner := s.children[0].dataset(d)
	for _, c := range s.children[1:] {
		if s.op == union {
			inner = inner.Union(c.dataset(d))
		} else {
			inner = inner.Intersect(c.dataset(d))
		}
	}
	return d.From(inner.As(s.alias)).Select(goqu.I(s.alias + "." + s.column))
}

func (s *setOpStmt) explain(b *strings.Builder, indent string) {
	fmt.Fprintf(b, "%s%s as %s (%s)\n", indent, s.op, s.alias, s.column)
	for _, c := range s.children {
		c.explain(b, indent+"  ")
	}
}

func column(c schema.Column) exp.IdentifierExpression {
	return goqu.I(c.Alias + "." + c.Name)
}
