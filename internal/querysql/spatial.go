package querysql

import (
	"fmt"
	"strconv"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/paulmach/orb"

	"github.com/roach88/cityq/internal/predicate"
	"github.com/roach88/cityq/internal/query"
	"github.com/roach88/cityq/internal/schema"
)

// inverseSpatial pairs operators whose complements are themselves operators.
// Other operators are negated with NOT.
var inverseSpatial = map[predicate.SpatialOperator]predicate.SpatialOperator{
	predicate.Intersects: predicate.Disjoint,
	predicate.Disjoint:   predicate.Intersects,
	predicate.DWithin:    predicate.Beyond,
	predicate.Beyond:     predicate.DWithin,
}

func (c *Compiler) compileSpatial(p predicate.Spatial, negate bool) (*sqlContext, error) {
	kind := p.Operand.Kind()
	if kind == predicate.UnknownGeometry {
		return nil, query.Errorf(query.CodeUnsupportedOperand, "%s: %s needs a geometry operand", p.Ref, p.Operator)
	}
	if p.Operator == predicate.BBox && kind != predicate.Envelope {
		return nil, query.Errorf(query.CodeUnsupportedOperand, "%s: bbox needs an envelope operand, got %s", p.Ref, kind)
	}
	if p.Operator.IsDistance() && !(p.Distance >= 0) {
		return nil, query.Errorf(query.CodeInvalidPredicate, "%s: distance must not be negative, got %v", p.Ref, p.Distance)
	}

	res, err := c.resolve(p.Ref)
	if err != nil {
		return nil, err
	}
	if res.Property.Kind != schema.GeometryProperty {
		return nil, query.Errorf(query.CodeInvalidSchemaPath, "%s: %s is a %s property, spatial operators need a geometry property",
			p.Ref, res.Property.Name.Local, res.Property.Kind)
	}

	operand, operandKey, err := c.geometry(p.Operand)
	if err != nil {
		return nil, query.Wrap(query.CodeUnsupportedOperand, err, "%s", p.Ref)
	}

	op := p.Operator
	wrapNot := false
	if negate {
		if inv, ok := inverseSpatial[op]; ok {
			op = inv
		} else {
			wrapNot = true
		}
	}
	fn, err := c.caps.SpatialFunction(op)
	if err != nil {
		return nil, query.Wrap(query.CodeUnsupportedOperand, err, "%s", p.Ref)
	}

	col := column(res.Target)
	call := goqu.Func(fn, col, operand)
	callKey := fmt.Sprintf("%s(%s, %s)", fn, res.Target, operandKey)
	dist := strconv.FormatFloat(p.Distance, 'g', -1, 64)

	var cond clause
	switch {
	case op == predicate.DWithin:
		cond = clause{key: callKey + " <= " + dist, expr: call.Lte(p.Distance)}
	case op == predicate.Beyond:
		cond = clause{key: callKey + " > " + dist, expr: call.Gt(p.Distance)}
	case wrapNot:
		cond = clause{key: "not " + callKey, expr: goqu.L("NOT ?", call)}
	default:
		cond = clause{key: callKey, expr: call}
	}

	ctx := c.leaf(p.Ref, res, cond)
	if hint := c.caps.SpatialHint(); hint != "" {
		ctx.stmt.(*selectStmt).hints = []string{hint}
	}
	return ctx, nil
}

// geometry renders an operand as a geometry constructor, transformed into
// the database reference system when it differs.
func (c *Compiler) geometry(g predicate.Geometry) (exp.Expression, string, error) {
	srid := g.SRID
	if srid == 0 {
		srid = c.opts.DatabaseSRID
	}

	var expr exp.Expression
	if b, ok := g.Geom.(orb.Bound); ok {
		expr = goqu.Func(c.caps.EnvelopeFunction(), b.Min.X(), b.Min.Y(), b.Max.X(), b.Max.Y(), srid)
	} else {
		text, err := g.WKT()
		if err != nil {
			return nil, "", err
		}
		expr = goqu.Func(c.caps.GeometryFromTextFunction(), text, srid)
	}

	key := predicate.Geometry{Geom: g.Geom, SRID: srid}.Canonical()
	if c.opts.DatabaseSRID != 0 && srid != c.opts.DatabaseSRID {
		expr = goqu.Func(c.caps.TransformFunction(), expr, c.opts.DatabaseSRID)
		key = fmt.Sprintf("transform(%s, %d)", key, c.opts.DatabaseSRID)
	}
	return expr, key, nil
}
