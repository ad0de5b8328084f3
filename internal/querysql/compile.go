package querysql

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/doug-martin/goqu/v9"

	"github.com/roach88/cityq/internal/dialect"
	"github.com/roach88/cityq/internal/predicate"
	"github.com/roach88/cityq/internal/query"
	"github.com/roach88/cityq/internal/schema"
)

// Resolver maps schema paths to joins and columns. *schema.Mapping
// implements it.
type Resolver interface {
	Resolve(path schema.Path, allowed []int) (*schema.Resolution, error)
	ResourceIDPath() (schema.Path, error)
	DatabaseIDPath() (schema.Path, error)
}

// Options configure a Compiler.
type Options struct {
	// AllowedTypes are the object classes selected by the feature type
	// filter. Root types of value references are restricted to them.
	AllowedTypes []int

	// DatabaseSRID is the reference system of stored geometries. Operands
	// in another reference system are transformed into it.
	DatabaseSRID int

	Logger *slog.Logger
}

// Compiler compiles a predicate tree into a Selection.
//
// A Compiler holds per-compilation state and must not be shared between
// goroutines. Build a new one for every compilation.
type Compiler struct {
	resolver Resolver
	caps     dialect.Capabilities
	opts     Options
	logger   *slog.Logger

	setOps int // derived table counter
}

// NewCompiler creates a Compiler for one compilation.
func NewCompiler(r Resolver, caps dialect.Capabilities, opts Options) *Compiler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Compiler{resolver: r, caps: caps, opts: opts, logger: logger}
}

// Compile converts a predicate tree into its selection statement.
//
// The result is deterministic: the same tree, mapping and dialect always
// render the same SQL.
func (c *Compiler) Compile(p predicate.Predicate) (*Selection, error) {
	c.setOps = 0
	ctx, err := c.compile(p, false)
	if err != nil {
		return nil, err
	}
	return &Selection{stmt: ctx.stmt, target: ctx.target, dialect: c.caps.GoquDialect()}, nil
}

// compile dispatches on the node type. negate is the number of enclosing NOT
// nodes modulo two.
func (c *Compiler) compile(p predicate.Predicate, negate bool) (*sqlContext, error) {
	switch node := p.(type) {
	case predicate.Logical:
		return c.compileLogical(node, negate)
	case *predicate.Logical:
		if node == nil {
			return nil, query.Errorf(query.CodeInvalidPredicate, "nil predicate")
		}
		return c.compileLogical(*node, negate)
	case predicate.Comparison:
		return c.compileComparison(node, negate)
	case *predicate.Comparison:
		if node == nil {
			return nil, query.Errorf(query.CodeInvalidPredicate, "nil predicate")
		}
		return c.compileComparison(*node, negate)
	case predicate.Spatial:
		return c.compileSpatial(node, negate)
	case *predicate.Spatial:
		if node == nil {
			return nil, query.Errorf(query.CodeInvalidPredicate, "nil predicate")
		}
		return c.compileSpatial(*node, negate)
	case predicate.Identifier:
		return c.compileIdentifier(node, negate)
	case *predicate.Identifier:
		if node == nil {
			return nil, query.Errorf(query.CodeInvalidPredicate, "nil predicate")
		}
		return c.compileIdentifier(*node, negate)
	case nil:
		return nil, query.Errorf(query.CodeInvalidPredicate, "nil predicate")
	default:
		return nil, query.Errorf(query.CodeInvalidPredicate, "unsupported predicate type: %T", p)
	}
}

func (c *Compiler) compileLogical(l predicate.Logical, negate bool) (*sqlContext, error) {
	switch l.Operator {
	case predicate.Not:
		switch len(l.Operands) {
		case 0:
			return nil, query.Errorf(query.CodeEmptyOperator, "not has no operand")
		case 1:
			ctx, err := c.compile(l.Operands[0], !negate)
			if err != nil {
				return nil, at(err, "args[0]")
			}
			return ctx, nil
		default:
			return nil, query.Errorf(query.CodeInvalidPredicate, "not takes exactly one operand, got %d", len(l.Operands))
		}

	case predicate.And, predicate.Or:
		if len(l.Operands) == 0 {
			return nil, query.Errorf(query.CodeEmptyOperator, "%s has no operands", l.Operator)
		}
		children := make([]*sqlContext, 0, len(l.Operands))
		for i, operand := range l.Operands {
			ctx, err := c.compile(operand, negate)
			if err != nil {
				return nil, at(err, fmt.Sprintf("args[%d]", i))
			}
			children = append(children, ctx)
		}

		// De Morgan: a negated AND is a union, a negated OR an intersection.
		op := union
		if (l.Operator == predicate.And) != negate {
			op = intersect
		}
		if op == intersect {
			merged := mergeContexts(children)
			if len(merged) < len(children) {
				c.logger.Debug("merged intersection operands",
					"operands", len(children),
					"statements", len(merged))
			}
			children = merged
		}
		if len(children) == 1 {
			return children[0], nil
		}
		return c.combine(op, children), nil

	default:
		return nil, query.Errorf(query.CodeInvalidPredicate, "unsupported logical operator %s", l.Operator)
	}
}

// combine wraps children in a set operation. The result projects the column
// of the first child under a fresh derived table alias.
func (c *Compiler) combine(op setOperator, children []*sqlContext) *sqlContext {
	c.setOps++
	alias := fmt.Sprintf("s%d", c.setOps)
	stmts := make([]statement, len(children))
	for i, ch := range children {
		stmts[i] = ch.stmt
	}
	name := children[0].target.Name
	return &sqlContext{
		stmt:   &setOpStmt{op: op, alias: alias, column: name, children: stmts},
		target: schema.Column{Alias: alias, Name: name},
	}
}

func (c *Compiler) resolve(path schema.Path) (*schema.Resolution, error) {
	res, err := c.resolver.Resolve(path, c.opts.AllowedTypes)
	if err != nil {
		return nil, query.Wrap(query.CodeInvalidSchemaPath, err, "cannot resolve %s", path)
	}
	return res, nil
}

// leaf builds the context of a leaf predicate: the resolved join chain with
// its type restrictions, plus cond.
func (c *Compiler) leaf(path schema.Path, res *schema.Resolution, cond clause) *sqlContext {
	stmt := &selectStmt{from: res.From, target: res.RowID}
	for _, j := range res.Joins {
		stmt.joins = append(stmt.joins, join{table: j.Table, left: j.Left, right: j.Right})
	}
	for _, r := range res.Restrictions {
		stmt.where = append(stmt.where, restriction(r))
	}
	stmt.where = append(stmt.where, cond)

	backup := path.Parent()
	return &sqlContext{stmt: stmt, target: res.RowID, path: &path, backup: &backup}
}

func restriction(r schema.Restriction) clause {
	ids := make([]string, len(r.TypeIDs))
	for i, id := range r.TypeIDs {
		ids[i] = fmt.Sprint(id)
	}
	return clause{
		key:  fmt.Sprintf("%s in (%s)", r.Column, strings.Join(ids, ", ")),
		expr: column(r.Column).In(r.TypeIDs),
	}
}

// at attributes a compilation error to a predicate argument.
func at(err error, field string) error {
	var qe *query.Error
	if errors.As(err, &qe) {
		return qe.At(field)
	}
	return err
}

// Selection is a compiled selection predicate.
type Selection struct {
	stmt    statement
	target  schema.Column
	dialect string
}

// Dataset returns the goqu dataset of the selection.
func (s *Selection) Dataset() *goqu.SelectDataset {
	return s.stmt.dataset(goqu.Dialect(s.dialect))
}

// ToSQL renders the selection.
func (s *Selection) ToSQL(prepared bool) (string, []any, error) {
	return s.Dataset().Prepared(prepared).ToSQL()
}

// Explain renders the statement tree, one clause per line.
func (s *Selection) Explain() string {
	var b strings.Builder
	s.stmt.explain(&b, "")
	return b.String()
}

// Target is the column the selection projects.
func (s *Selection) Target() schema.Column { return s.target }

// Combined reports whether the selection is a set operation.
func (s *Selection) Combined() bool {
	_, ok := s.stmt.(*setOpStmt)
	return ok
}

var _ query.Statement = (*Selection)(nil)
