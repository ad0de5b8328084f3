package querysql

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/roach88/cityq/internal/predicate"
	"github.com/roach88/cityq/internal/query"
	"github.com/roach88/cityq/internal/schema"
)

// binaryForms lists the SQL form of each binary operator and of its
// complement.
var binaryForms = map[predicate.ComparisonOperator][2]string{
	predicate.EqualTo:              {"=", "<>"},
	predicate.NotEqualTo:           {"<>", "="},
	predicate.LessThan:             {"<", ">="},
	predicate.LessThanOrEqualTo:    {"<=", ">"},
	predicate.GreaterThan:          {">", "<="},
	predicate.GreaterThanOrEqualTo: {">=", "<"},
}

func (c *Compiler) compileComparison(p predicate.Comparison, negate bool) (*sqlContext, error) {
	if want := p.Operator.Arity(); len(p.Values) != want {
		return nil, query.Errorf(query.CodeInvalidPredicate, "%s takes %d literal(s), got %d", p.Operator, want, len(p.Values))
	}
	res, err := c.resolve(p.Ref)
	if err != nil {
		return nil, err
	}
	if res.Property.Kind != schema.SimpleProperty {
		return nil, query.Errorf(query.CodeInvalidSchemaPath, "%s: %s is a %s property, comparisons need a simple property",
			p.Ref, res.Property.Name.Local, res.Property.Kind)
	}

	dt := res.Property.DataType
	if p.Operator == predicate.Like {
		// Patterns are matched against the text form of the column.
		dt = schema.StringType
	}
	values := make([]any, len(p.Values))
	for i, v := range p.Values {
		if values[i], err = coerce(v, dt); err != nil {
			return nil, query.Wrap(query.CodeInvalidLiteral, err, "%s", p.Ref)
		}
	}

	cond, err := comparisonClause(p, res.Target, values, negate)
	if err != nil {
		return nil, err
	}
	cond.refsTarget = res.Target == res.RowID
	return c.leaf(p.Ref, res, cond), nil
}

func comparisonClause(p predicate.Comparison, target schema.Column, values []any, negate bool) (clause, error) {
	col := column(target)

	if forms, ok := binaryForms[p.Operator]; ok {
		sym := forms[0]
		if negate {
			sym = forms[1]
		}
		return clause{
			key:  fmt.Sprintf("%s %s %s", target, sym, literal(values[0])),
			expr: binary(col, sym, values[0]),
		}, nil
	}

	switch p.Operator {
	case predicate.Between:
		key := fmt.Sprintf("%s between %s and %s", target, literal(values[0]), literal(values[1]))
		if negate {
			return clause{key: "not " + key, expr: col.NotBetween(goqu.Range(values[0], values[1]))}, nil
		}
		return clause{key: key, expr: col.Between(goqu.Range(values[0], values[1]))}, nil

	case predicate.IsNull:
		if negate {
			return clause{key: fmt.Sprintf("%s is not null", target), expr: col.IsNotNull()}, nil
		}
		return clause{key: fmt.Sprintf("%s is null", target), expr: col.IsNull()}, nil

	case predicate.Like:
		s, ok := values[0].(string)
		if !ok {
			return clause{}, query.Errorf(query.CodeInvalidLiteral, "%s: like needs a text literal", p.Ref)
		}
		pattern := likePattern(s, p.WildCard, p.SingleChar, p.Escape)
		var lhs any = col
		lhsKey := target.String()
		if !p.MatchCase {
			lhs = goqu.Func("LOWER", col)
			lhsKey = "lower(" + lhsKey + ")"
			pattern = strings.ToLower(pattern)
		}
		form, word := "? LIKE ? ESCAPE ?", "like"
		if negate {
			form, word = "? NOT LIKE ? ESCAPE ?", "not like"
		}
		return clause{
			key:  fmt.Sprintf("%s %s %s", lhsKey, word, strconv.Quote(pattern)),
			expr: goqu.L(form, lhs, pattern, `\`),
		}, nil
	}
	return clause{}, query.Errorf(query.CodeInvalidPredicate, "unsupported comparison operator %s", p.Operator)
}

func binary(col exp.IdentifierExpression, sym string, v any) exp.Expression {
	switch sym {
	case "=":
		return col.Eq(v)
	case "<>":
		return col.Neq(v)
	case "<":
		return col.Lt(v)
	case "<=":
		return col.Lte(v)
	case ">":
		return col.Gt(v)
	default:
		return col.Gte(v)
	}
}

// likePattern translates a pattern with configurable wildcard, single
// character and escape characters into an SQL LIKE pattern escaped with
// backslash.
func likePattern(s string, wildCard, singleChar, escape rune) string {
	if wildCard == 0 {
		wildCard = predicate.DefaultWildCard
	}
	if singleChar == 0 {
		singleChar = predicate.DefaultSingleChar
	}
	if escape == 0 {
		escape = predicate.DefaultEscape
	}

	var b strings.Builder
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
			writeLiteral(&b, r)
		case r == escape:
			escaped = true
		case r == wildCard:
			b.WriteByte('%')
		case r == singleChar:
			b.WriteByte('_')
		default:
			writeLiteral(&b, r)
		}
	}
	if escaped {
		writeLiteral(&b, escape)
	}
	return b.String()
}

func writeLiteral(b *strings.Builder, r rune) {
	if r == '%' || r == '_' || r == '\\' {
		b.WriteByte('\\')
	}
	b.WriteRune(r)
}

// coerce converts a literal to the Go value bound for a column of type dt.
func coerce(v predicate.Value, dt schema.DataType) (any, error) {
	if v == nil {
		return nil, fmt.Errorf("missing literal")
	}
	switch dt {
	case schema.StringType:
		switch v := v.(type) {
		case predicate.String:
			return string(v), nil
		case predicate.Int:
			return strconv.FormatInt(int64(v), 10), nil
		case predicate.Double:
			return strconv.FormatFloat(float64(v), 'g', -1, 64), nil
		case predicate.Bool:
			return strconv.FormatBool(bool(v)), nil
		}

	case schema.IntegerType:
		switch v := v.(type) {
		case predicate.Int:
			return int64(v), nil
		case predicate.Double:
			f := float64(v)
			if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
				return int64(f), nil
			}
		case predicate.String:
			if n, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64); err == nil {
				return n, nil
			}
		}

	case schema.DoubleType:
		switch v := v.(type) {
		case predicate.Double:
			return float64(v), nil
		case predicate.Int:
			return float64(v), nil
		case predicate.String:
			if f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64); err == nil {
				return f, nil
			}
		}

	case schema.BooleanType:
		switch v := v.(type) {
		case predicate.Bool:
			return bool(v), nil
		case predicate.Int:
			if v == 0 || v == 1 {
				return v == 1, nil
			}
		case predicate.String:
			if b, err := strconv.ParseBool(strings.TrimSpace(string(v))); err == nil {
				return b, nil
			}
		}

	case schema.DateType, schema.TimestampType:
		switch v := v.(type) {
		case predicate.Timestamp:
			return time.Time(v).UTC(), nil
		case predicate.String:
			if ts, err := parseTime(string(v)); err == nil {
				return ts, nil
			}
		}
	}
	return nil, fmt.Errorf("%s literal %s is not a valid %s", kindOf(v), v.Canonical(), dt)
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func kindOf(v predicate.Value) string {
	switch v.(type) {
	case predicate.String:
		return "string"
	case predicate.Int:
		return "integer"
	case predicate.Double:
		return "double"
	case predicate.Bool:
		return "boolean"
	case predicate.Timestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// literal renders a coerced value for structural keys.
func literal(v any) string {
	switch v := v.(type) {
	case string:
		return strconv.Quote(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return "@" + v.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(v)
	}
}
