package querysql

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cityq/internal/dialect"
	"github.com/roach88/cityq/internal/predicate"
	"github.com/roach88/cityq/internal/query"
)

func bbox() predicate.Geometry {
	return predicate.NewEnvelope(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{10, 10}}, 4326)
}

func TestCompileSpatial_BBox(t *testing.T) {
	f := newFixture(t)

	sel := f.compile(predicate.Spatial{Operator: predicate.BBox, Ref: f.path("bldg:Building/envelope"), Operand: bbox()})

	assert.Contains(t, whereKeys(t, sel),
		"ST_Intersects(t0_cityobject.envelope, SRID=4326;POLYGON((0 0,10 0,10 10,0 10,0 0)))")
	sql, _, err := sel.ToSQL(false)
	require.NoError(t, err)
	assert.Contains(t, sql, `ST_Intersects("t0_cityobject"."envelope", ST_MakeEnvelope(`)
}

func TestCompileSpatial_SpatiaLiteBBox(t *testing.T) {
	f := newFixture(t)
	f.caps = dialect.SpatiaLite{}

	sql := f.sql(predicate.Spatial{Operator: predicate.BBox, Ref: f.path("bldg:Building/envelope"), Operand: bbox()})

	assert.Contains(t, sql, "MbrIntersects(")
	assert.Contains(t, sql, "BuildMbr(")
	assert.Contains(t, sql, "`t0_cityobject`.`envelope`")
}

func TestCompileSpatial_BBoxNeedsEnvelope(t *testing.T) {
	f := newFixture(t)
	point, err := predicate.ParseWKT("POINT(1 2)", 4326)
	require.NoError(t, err)

	_, err = f.compiler().Compile(predicate.Spatial{Operator: predicate.BBox, Ref: f.path("bldg:Building/envelope"), Operand: point})
	require.Error(t, err)
	assert.True(t, query.IsCode(err, query.CodeUnsupportedOperand))
}

func TestCompileSpatial_MissingOperand(t *testing.T) {
	f := newFixture(t)

	_, err := f.compiler().Compile(predicate.Spatial{Operator: predicate.Within, Ref: f.path("bldg:Building/envelope")})
	require.Error(t, err)
	assert.True(t, query.IsCode(err, query.CodeUnsupportedOperand))
}

func TestCompileSpatial_NeedsGeometryProperty(t *testing.T) {
	f := newFixture(t)

	_, err := f.compiler().Compile(predicate.Spatial{Operator: predicate.BBox, Ref: f.path("bldg:Building/roofType"), Operand: bbox()})
	require.Error(t, err)
	assert.True(t, query.IsCode(err, query.CodeInvalidSchemaPath))
}

func TestCompileSpatial_Negation(t *testing.T) {
	f := newFixture(t)
	ref := f.path("bldg:Building/lod2Solid")
	poly, err := predicate.ParseWKT("POLYGON((0 0,4 0,4 4,0 4,0 0))", 0)
	require.NoError(t, err)
	f.srid = 25832

	tests := []struct {
		op   predicate.SpatialOperator
		want string
	}{
		{predicate.Intersects, "ST_Disjoint(t0.lod2_solid, SRID=25832;POLYGON((0 0,4 0,4 4,0 4,0 0)))"},
		{predicate.Disjoint, "ST_Intersects(t0.lod2_solid, SRID=25832;POLYGON((0 0,4 0,4 4,0 4,0 0)))"},
		{predicate.Within, "not ST_Within(t0.lod2_solid, SRID=25832;POLYGON((0 0,4 0,4 4,0 4,0 0)))"},
		{predicate.DWithin, "ST_Distance(t0.lod2_solid, SRID=25832;POLYGON((0 0,4 0,4 4,0 4,0 0))) > 2.5"},
		{predicate.Beyond, "ST_Distance(t0.lod2_solid, SRID=25832;POLYGON((0 0,4 0,4 4,0 4,0 0))) <= 2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			p := predicate.Spatial{Operator: tt.op, Ref: ref, Operand: poly, Distance: 2.5}
			sel := f.compile(predicate.Negate(p))
			assert.Contains(t, whereKeys(t, sel), tt.want)
		})
	}
}

func TestCompileSpatial_NegatedWithinUsesNot(t *testing.T) {
	f := newFixture(t)
	poly, err := predicate.ParseWKT("POLYGON((0 0,4 0,4 4,0 4,0 0))", 0)
	require.NoError(t, err)

	sql := f.sql(predicate.Negate(predicate.Spatial{Operator: predicate.Within, Ref: f.path("bldg:Building/lod2Solid"), Operand: poly}))

	assert.Contains(t, sql, `NOT ST_Within("t0"."lod2_solid", ST_GeomFromText(`)
}

func TestCompileSpatial_TransformsForeignSRS(t *testing.T) {
	f := newFixture(t)
	f.srid = 25832

	sel := f.compile(predicate.Spatial{Operator: predicate.Intersects, Ref: f.path("bldg:Building/envelope"), Operand: bbox()})

	sql, _, err := sel.ToSQL(false)
	require.NoError(t, err)
	assert.Contains(t, sql, "ST_Transform(ST_MakeEnvelope(")
	assert.Contains(t, whereKeys(t, sel),
		"ST_Intersects(t0_cityobject.envelope, transform(SRID=4326;POLYGON((0 0,10 0,10 10,0 10,0 0)), 25832))")
}

func TestCompileSpatial_NegativeDistance(t *testing.T) {
	f := newFixture(t)
	point, err := predicate.ParseWKT("POINT(1 2)", 0)
	require.NoError(t, err)

	_, err = f.compiler().Compile(predicate.Spatial{Operator: predicate.DWithin, Ref: f.path("bldg:Building/envelope"), Operand: point, Distance: -1})
	require.Error(t, err)
	assert.True(t, query.IsCode(err, query.CodeInvalidPredicate))
}

func TestCompileSpatial_Hint(t *testing.T) {
	f := newFixture(t)
	f.caps = dialect.PostGIS{SpatialIndexHint: "IndexScan(t0_cityobject)"}

	sel := f.compile(predicate.AllOf(
		predicate.Spatial{Operator: predicate.BBox, Ref: f.path("bldg:Building/envelope"), Operand: bbox()},
		f.height(predicate.GreaterThan, 10),
	))

	sql, _, err := sel.ToSQL(false)
	require.NoError(t, err)
	assert.Contains(t, sql, `SELECT /*+ IndexScan(t0_cityobject) */ "t0"."id"`)
}
