package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/roach88/cityq/internal/predicate"
	"github.com/roach88/cityq/internal/query"
	"github.com/roach88/cityq/internal/schema"
)

// compileIdentifier matches the identifier column against the id set. Sets
// larger than the dialect's IN list limit are split into chunks: OR-ed IN
// lists, or AND-ed NOT IN lists when negated.
func (c *Compiler) compileIdentifier(p predicate.Identifier, negate bool) (*sqlContext, error) {
	if p.Len() == 0 {
		return nil, query.Errorf(query.CodeEmptyIDSet, "%s has no identifiers", p.Kind)
	}

	var (
		path   schema.Path
		err    error
		values []any
		keys   []string
	)
	switch p.Kind {
	case predicate.ResourceID:
		path, err = c.resolver.ResourceIDPath()
		for _, id := range p.ResourceIDs {
			values = append(values, id)
			keys = append(keys, strconv.Quote(id))
		}
	case predicate.DatabaseID:
		path, err = c.resolver.DatabaseIDPath()
		for _, id := range p.DatabaseIDs {
			values = append(values, id)
			keys = append(keys, strconv.FormatInt(id, 10))
		}
	default:
		return nil, query.Errorf(query.CodeInvalidPredicate, "unsupported identifier kind %s", p.Kind)
	}
	if err != nil {
		return nil, query.Wrap(query.CodeInvalidSchemaPath, err, "%s", p.Kind)
	}

	res, err := c.resolve(path)
	if err != nil {
		return nil, err
	}

	size := c.caps.MaxInListSize()
	if size < 1 {
		size = 1
	}
	col := column(res.Target)
	word, join := "in", " or "
	if negate {
		word, join = "not in", " and "
	}

	var exprs []exp.Expression
	var parts []string
	for start := 0; start < len(values); start += size {
		end := min(start+size, len(values))
		if negate {
			exprs = append(exprs, col.NotIn(values[start:end]))
		} else {
			exprs = append(exprs, col.In(values[start:end]))
		}
		parts = append(parts, fmt.Sprintf("%s %s (%s)", res.Target, word, strings.Join(keys[start:end], ", ")))
	}

	cond := clause{key: strings.Join(parts, join), refsTarget: res.Target == res.RowID}
	switch {
	case len(exprs) == 1:
		cond.expr = exprs[0]
	case negate:
		cond.expr = goqu.And(exprs...)
	default:
		cond.expr = goqu.Or(exprs...)
	}
	return c.leaf(path, res, cond), nil
}
