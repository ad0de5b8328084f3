package compiler

import (
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/paulmach/orb"

	"github.com/roach88/cityq/internal/config"
	"github.com/roach88/cityq/internal/predicate"
	"github.com/roach88/cityq/internal/query"
	"github.com/roach88/cityq/internal/querysql"
)

// selection converts the document's selection tree and compiles it against
// the selected feature types.
func (a *assembler) selection(cfg config.Predicate) (predicate.Predicate, query.Statement, error) {
	p, err := a.predicate(cfg)
	if err != nil {
		return nil, nil, err
	}

	c := querysql.NewCompiler(a.env.Mapping, a.env.Dialect, querysql.Options{
		AllowedTypes: a.allowed,
		DatabaseSRID: a.env.DatabaseSRS.SRID,
		Logger:       a.logger,
	})
	sel, err := c.Compile(p)
	if err != nil {
		return nil, nil, err
	}
	return p, sel, nil
}

// predicate converts one node of the op/args tree.
func (a *assembler) predicate(cfg config.Predicate) (predicate.Predicate, error) {
	switch cfg.Op {
	case "and", "or", "not":
		return a.logical(cfg)
	case "resourceId":
		return predicate.ResourceIDs(cfg.IDs...), nil
	case "databaseId":
		return predicate.DatabaseIDs(cfg.DatabaseIDs...), nil
	case "":
		return nil, query.Errorf(query.CodeInvalidPredicate, "missing operator")
	}

	if op, ok := predicate.ParseComparisonOperator(cfg.Op); ok {
		return a.comparison(op, cfg)
	}
	if op, ok := predicate.ParseSpatialOperator(cfg.Op); ok {
		return a.spatial(op, cfg)
	}
	return nil, query.Errorf(query.CodeInvalidPredicate, "unknown operator %q", cfg.Op)
}

func (a *assembler) logical(cfg config.Predicate) (predicate.Predicate, error) {
	operands := make([]predicate.Predicate, 0, len(cfg.Args))
	for i, arg := range cfg.Args {
		p, err := a.predicate(arg)
		if err != nil {
			return nil, at(err, fmt.Sprintf("args[%d]", i))
		}
		operands = append(operands, p)
	}

	// Arity is checked by the SQL compiler.
	switch cfg.Op {
	case "and":
		return predicate.AllOf(operands...), nil
	case "or":
		return predicate.AnyOf(operands...), nil
	default:
		return predicate.Logical{Operator: predicate.Not, Operands: operands}, nil
	}
}

func (a *assembler) comparison(op predicate.ComparisonOperator, cfg config.Predicate) (predicate.Predicate, error) {
	ref, err := a.env.Mapping.ParsePath(cfg.Property, a.ns)
	if err != nil {
		return nil, query.Wrap(query.CodeInvalidSchemaPath, err, "invalid value reference").At("property")
	}

	c := predicate.Comparison{Operator: op, Ref: ref, MatchCase: true}
	switch op.Arity() {
	case 0:
	case 2:
		if len(cfg.Values) != 2 {
			return nil, query.Errorf(query.CodeInvalidPredicate, "%s takes two values, got %d", op, len(cfg.Values)).At("values")
		}
		for i, raw := range cfg.Values {
			v, err := literal(raw)
			if err != nil {
				return nil, at(err, fmt.Sprintf("values[%d]", i))
			}
			c.Values = append(c.Values, v)
		}
	default:
		if cfg.Value == nil {
			return nil, query.Errorf(query.CodeInvalidPredicate, "%s needs a value", op).At("value")
		}
		v, err := literal(cfg.Value)
		if err != nil {
			return nil, at(err, "value")
		}
		c.Values = []predicate.Value{v}
	}

	if op == predicate.Like {
		if _, ok := c.Values[0].(predicate.String); !ok {
			return nil, query.Errorf(query.CodeInvalidLiteral, "like pattern must be a string").At("value")
		}
		if cfg.MatchCase != nil {
			c.MatchCase = *cfg.MatchCase
		}
		if c.WildCard, err = patternChar(cfg.WildCard, predicate.DefaultWildCard); err != nil {
			return nil, at(err, "wildCard")
		}
		if c.SingleChar, err = patternChar(cfg.SingleCharacter, predicate.DefaultSingleChar); err != nil {
			return nil, at(err, "singleCharacter")
		}
		if c.Escape, err = patternChar(cfg.EscapeCharacter, predicate.DefaultEscape); err != nil {
			return nil, at(err, "escapeCharacter")
		}
	}
	return c, nil
}

func patternChar(s string, def rune) (rune, error) {
	if s == "" {
		return def, nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, query.Errorf(query.CodeInvalidPredicate, "pattern character must be a single character, got %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

func (a *assembler) spatial(op predicate.SpatialOperator, cfg config.Predicate) (predicate.Predicate, error) {
	ref, err := a.env.Mapping.ParsePath(cfg.Property, a.ns)
	if err != nil {
		return nil, query.Wrap(query.CodeInvalidSchemaPath, err, "invalid value reference").At("property")
	}
	if cfg.Geometry == nil {
		return nil, query.Errorf(query.CodeUnsupportedOperand, "%s needs a geometry operand", op).At("geometry")
	}
	operand, err := a.geometry(*cfg.Geometry)
	if err != nil {
		return nil, at(err, "geometry")
	}

	s := predicate.Spatial{Operator: op, Ref: ref, Operand: operand}
	if op.IsDistance() {
		if cfg.Distance == nil {
			return nil, query.Errorf(query.CodeInvalidPredicate, "%s needs a distance", op).At("distance")
		}
		s.Distance = *cfg.Distance
	}
	return s, nil
}

// geometry converts a spatial operand. Operands without SRID are in the
// database reference system.
func (a *assembler) geometry(cfg config.Geometry) (predicate.Geometry, error) {
	srid := cfg.SRID
	if srid == 0 {
		srid = a.env.DatabaseSRS.SRID
	}

	switch {
	case cfg.Envelope != nil && cfg.WKT != "":
		return predicate.Geometry{}, query.Errorf(query.CodeInvalidPredicate, "geometry has both an envelope and WKT")
	case cfg.Envelope != nil:
		b, err := bound(cfg.Envelope.Lower, cfg.Envelope.Upper)
		if err != nil {
			return predicate.Geometry{}, query.Wrap(query.CodeInvalidPredicate, err, "invalid envelope").At("envelope")
		}
		return predicate.NewEnvelope(b, srid), nil
	case cfg.WKT != "":
		g, err := predicate.ParseWKT(cfg.WKT, srid)
		if err != nil {
			return predicate.Geometry{}, query.Wrap(query.CodeUnsupportedOperand, err, "invalid geometry").At("wkt")
		}
		return g, nil
	default:
		return predicate.Geometry{}, query.Errorf(query.CodeUnsupportedOperand, "geometry has neither an envelope nor WKT")
	}
}

// bound builds a 2D box from its corners.
func bound(lower, upper []float64) (orb.Bound, error) {
	if len(lower) != 2 || len(upper) != 2 {
		return orb.Bound{}, fmt.Errorf("corners must have two coordinates, got %d and %d", len(lower), len(upper))
	}
	if lower[0] > upper[0] || lower[1] > upper[1] {
		return orb.Bound{}, fmt.Errorf("lower corner %v exceeds upper corner %v", lower, upper)
	}
	return orb.Bound{Min: orb.Point{lower[0], lower[1]}, Max: orb.Point{upper[0], upper[1]}}, nil
}

// literal converts a decoded document value. YAML yields native numbers,
// JSON and CUE documents yield json.Number.
func literal(v any) (predicate.Value, error) {
	switch x := v.(type) {
	case string:
		return predicate.NewString(x), nil
	case bool:
		return predicate.Bool(x), nil
	case int:
		return predicate.Int(x), nil
	case int64:
		return predicate.Int(x), nil
	case uint64:
		if x > 1<<63-1 {
			return nil, query.Errorf(query.CodeInvalidLiteral, "integer %d out of range", x)
		}
		return predicate.Int(int64(x)), nil
	case float64:
		return predicate.Double(x), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return predicate.Int(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, query.Wrap(query.CodeInvalidLiteral, err, "invalid number %s", x)
		}
		return predicate.Double(f), nil
	case time.Time:
		return predicate.Timestamp(x), nil
	case nil:
		return nil, query.Errorf(query.CodeInvalidLiteral, "missing literal")
	default:
		return nil, query.Errorf(query.CodeInvalidLiteral, "unsupported literal of type %T", v)
	}
}
