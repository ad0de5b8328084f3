package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/roach88/cityq/internal/dialect"
	"github.com/roach88/cityq/internal/query"
	"github.com/roach88/cityq/internal/schema"
)

// rootAlias is the alias of the root table in export statements.
const rootAlias = "r0"

// BuildOptions configure Build.
type BuildOptions struct {
	// DatabaseSRID is the reference system of stored envelopes. A tiling in
	// another reference system compares transformed envelopes.
	DatabaseSRID int
}

// Statement is the export statement of a compiled query: the identifiers of
// all selected features, ordered and windowed by the counter.
type Statement struct {
	dialect   string
	unbounded uint // LIMIT paired with an open-ended OFFSET
	root      schema.Table
	rowID     schema.Column
	where     []clause
	selection *Selection
	counter   *query.CounterFilter
}

// Build finalizes q into its export statement.
func Build(q *query.Query, m *schema.Mapping, caps dialect.Capabilities, opts BuildOptions) (*Statement, error) {
	if q.FeatureTypes.Len() == 0 {
		return nil, query.Errorf(query.CodeEmptyFeatureTypeFilter, "no feature type selected")
	}

	d := goqu.Dialect(caps.GoquDialect())
	root := schema.Table{Name: m.Root().Table, Alias: rootAlias}
	s := &Statement{
		dialect:   caps.GoquDialect(),
		unbounded: caps.UnboundedLimit(),
		root:      root,
		rowID:     schema.Column{Alias: rootAlias, Name: m.IDColumn()},
		counter:   q.Counter,
	}

	s.where = append(s.where, restriction(schema.Restriction{
		Column:  schema.Column{Alias: rootAlias, Name: m.TypeColumn()},
		TypeIDs: q.FeatureTypes.IDs(),
	}))

	if q.Selection != nil {
		sel, ok := q.Selection.(*Selection)
		if !ok {
			return nil, fmt.Errorf("selection of type %T cannot be embedded", q.Selection)
		}
		s.selection = sel
	}

	if q.Lod != nil {
		b := &lodBuilder{d: d, m: m, filter: *q.Lod}
		s.where = append(s.where, b.condition(root, q.FeatureTypes.Types))
	}

	if q.Tiling != nil {
		envelope := schema.Column{Alias: rootAlias, Name: m.EnvelopeColumn()}
		s.where = append(s.where, tileCondition(q.Tiling, envelope, caps, opts.DatabaseSRID))
	}
	return s, nil
}

// Dataset returns the goqu dataset of the statement.
func (s *Statement) Dataset() *goqu.SelectDataset {
	d := goqu.Dialect(s.dialect)
	rowID := column(s.rowID)

	exprs := make([]exp.Expression, 0, len(s.where)+1)
	exprs = append(exprs, s.where[0].expr)
	if s.selection != nil {
		exprs = append(exprs, rowID.In(s.selection.stmt.dataset(d)))
	}
	for _, c := range s.where[1:] {
		exprs = append(exprs, c.expr)
	}

	ds := d.From(goqu.T(s.root.Name).As(s.root.Alias)).
		Select(rowID).
		Where(exprs...).
		Order(rowID.Asc())
	if s.counter != nil {
		if off := s.counter.Offset(); off > 0 {
			ds = ds.Offset(uint(off))
		}
		if limit, ok := s.counter.Limit(); ok {
			ds = ds.Limit(uint(limit))
		} else if s.counter.Offset() > 0 && s.unbounded > 0 {
			ds = ds.Limit(s.unbounded)
		}
	}
	return ds
}

// ToSQL renders the statement.
func (s *Statement) ToSQL(prepared bool) (string, []any, error) {
	return s.Dataset().Prepared(prepared).ToSQL()
}

// Explain renders the statement structure, one clause per line.
func (s *Statement) Explain() string {
	var b strings.Builder
	fmt.Fprintf(&b, "select %s from %s %s\n", s.rowID, s.root.Name, s.root.Alias)
	fmt.Fprintf(&b, "  where %s\n", s.where[0].key)
	if s.selection != nil {
		fmt.Fprintf(&b, "  where %s in\n", s.rowID)
		s.selection.stmt.explain(&b, "    ")
	}
	for _, c := range s.where[1:] {
		fmt.Fprintf(&b, "  where %s\n", c.key)
	}
	fmt.Fprintf(&b, "  order by %s\n", s.rowID)
	if s.counter != nil {
		if off := s.counter.Offset(); off > 0 {
			fmt.Fprintf(&b, "  offset %d\n", off)
		}
		if limit, ok := s.counter.Limit(); ok {
			fmt.Fprintf(&b, "  limit %d\n", limit)
		}
	}
	return b.String()
}

var _ query.Statement = (*Statement)(nil)

// tileCondition keeps features whose envelope centroid lies in the active
// tile. Tiles are closed at their minimum edges and open at their maximum
// edges, except along the outer boundary of the extent.
func tileCondition(t *query.Tiling, envelope schema.Column, caps dialect.Capabilities, dbSRID int) clause {
	var geom exp.Expression = column(envelope)
	key := envelope.String()
	if t.SRID != 0 && dbSRID != 0 && t.SRID != dbSRID {
		geom = goqu.Func(caps.TransformFunction(), geom, t.SRID)
		key = fmt.Sprintf("transform(%s, %d)", key, t.SRID)
	}
	centroid := goqu.Func("ST_Centroid", geom)
	x := goqu.Func("ST_X", centroid)
	y := goqu.Func("ST_Y", centroid)

	b := t.ActiveExtent()
	conds := []exp.Expression{x.Gte(b.Min.X()), y.Gte(b.Min.Y())}
	xEnd, yEnd := ")", ")"
	if t.ClosedRight() {
		conds = append(conds, x.Lte(b.Max.X()))
		xEnd = "]"
	} else {
		conds = append(conds, x.Lt(b.Max.X()))
	}
	if t.ClosedTop() {
		conds = append(conds, y.Lte(b.Max.Y()))
		yEnd = "]"
	} else {
		conds = append(conds, y.Lt(b.Max.Y()))
	}

	return clause{
		key: fmt.Sprintf("tile (%d,%d) of %dx%d centroid(%s) x [%s, %s%s y [%s, %s%s",
			t.ActiveRow, t.ActiveColumn, t.Rows, t.Columns, key,
			num(b.Min.X()), num(b.Max.X()), xEnd,
			num(b.Min.Y()), num(b.Max.Y()), yEnd),
		expr: goqu.And(conds...),
	}
}

func num(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }
