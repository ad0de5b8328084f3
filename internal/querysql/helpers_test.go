package querysql

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/cityq/internal/dialect"
	"github.com/roach88/cityq/internal/predicate"
	"github.com/roach88/cityq/internal/schema"
	"github.com/roach88/cityq/internal/testutil"
)

// fixture bundles the mapping and the compiler settings shared by a test.
type fixture struct {
	t       *testing.T
	m       *schema.Mapping
	caps    dialect.Capabilities
	allowed []int
	srid    int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		t:       t,
		m:       testutil.Mapping(t),
		caps:    dialect.PostGIS{},
		allowed: []int{testutil.BuildingID, testutil.RoadID},
	}
}

func (f *fixture) path(expr string) schema.Path {
	return testutil.Path(f.t, f.m, expr)
}

func (f *fixture) compiler() *Compiler {
	return NewCompiler(f.m, f.caps, Options{
		AllowedTypes: f.allowed,
		DatabaseSRID: f.srid,
		Logger:       testutil.DiscardLogger(),
	})
}

func (f *fixture) compile(p predicate.Predicate) *Selection {
	f.t.Helper()
	sel, err := f.compiler().Compile(p)
	require.NoError(f.t, err)
	return sel
}

func (f *fixture) sql(p predicate.Predicate) string {
	f.t.Helper()
	sql, _, err := f.compile(p).ToSQL(false)
	require.NoError(f.t, err)
	return sql
}

func (f *fixture) height(op predicate.ComparisonOperator, v float64) predicate.Comparison {
	return predicate.Compare(op, f.path("bldg:Building/measuredHeight"), predicate.Double(v))
}

func (f *fixture) roof(op predicate.ComparisonOperator, v string) predicate.Comparison {
	return predicate.Compare(op, f.path("bldg:Building/roofType"), predicate.NewString(v))
}

// part compares a property of the building parts.
func (f *fixture) part(property string, op predicate.ComparisonOperator, v predicate.Value) predicate.Comparison {
	return predicate.Compare(op, f.path("bldg:Building/consistsOfBuildingPart/BuildingPart/"+property), v)
}

// whereKeys lists the condition keys of a single-select selection.
func whereKeys(t *testing.T, sel *Selection) []string {
	t.Helper()
	stmt, ok := sel.stmt.(*selectStmt)
	require.True(t, ok, "selection is a %T", sel.stmt)
	keys := make([]string, len(stmt.where))
	for i, c := range stmt.where {
		keys[i] = c.key
	}
	return keys
}
