package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/cityq/internal/schema"
)

// Object class identifiers of the fixture mapping.
const (
	CityObjectID       = 1
	AbstractBuildingID = 24
	BuildingPartID     = 25
	BuildingID         = 26
	BoundarySurfaceID  = 29
	RoofSurfaceID      = 33
	WallSurfaceID      = 34
	RoadID             = 45
	AddressID          = 58
	BuildingV1ID       = 1026
)

// Namespace URIs of the fixture mapping.
const (
	CoreNS  = "http://www.opengis.net/citygml/2.0"
	BldgNS  = "http://www.opengis.net/citygml/building/2.0"
	TranNS  = "http://www.opengis.net/citygml/transportation/2.0"
	Bldg1NS = "http://www.opengis.net/citygml/building/1.0"
)

func lod(n int) *int { return &n }

// MappingDefinition returns a small city-model mapping: buildings with parts,
// boundary surfaces and addresses, roads, and a version 1.0 building.
func MappingDefinition() schema.Definition {
	return schema.Definition{
		Root:               "core:_CityObject",
		ResourceIDProperty: "core:identifier",
		DatabaseIDProperty: "core:id",
		Namespaces: map[string]string{
			"core":  CoreNS,
			"bldg":  BldgNS,
			"tran":  TranNS,
			"bldg1": Bldg1NS,
		},
		Types: []schema.TypeDefinition{
			{
				ID: CityObjectID, Name: "core:_CityObject", Version: "2.0", Table: "cityobject", Abstract: true,
				Properties: []schema.PropertyDefinition{
					{Name: "id", Type: "integer", Column: "id"},
					{Name: "identifier", Column: "gmlid"},
					{Name: "name", Column: "name"},
					{Name: "creationDate", Type: "date", Column: "creation_date"},
					{Name: "envelope", Kind: "geometry", Column: "envelope"},
				},
			},
			{
				ID: AbstractBuildingID, Name: "bldg:_AbstractBuilding", Version: "2.0", Table: "building",
				Extends: "core:_CityObject", Abstract: true,
				Properties: []schema.PropertyDefinition{
					{Name: "measuredHeight", Type: "double", Column: "measured_height"},
					{Name: "storeysAboveGround", Type: "integer", Column: "storeys_above_ground"},
					{Name: "roofType", Column: "roof_type"},
					{Name: "function", Column: "function"},
					{Name: "lod0FootPrint", Kind: "geometry", Column: "lod0_footprint", LOD: lod(0)},
					{Name: "lod1Solid", Kind: "geometry", Column: "lod1_solid", LOD: lod(1)},
					{Name: "lod2Solid", Kind: "geometry", Column: "lod2_solid", LOD: lod(2)},
					{
						Name: "consistsOfBuildingPart", Kind: "object", Target: "bldg:BuildingPart",
						Join: &schema.JoinDefinition{From: "id", To: "building_parent_id"},
					},
					{
						Name: "boundedBy", Kind: "object", Target: "bldg:_BoundarySurface",
						Join: &schema.JoinDefinition{From: "id", To: "building_id"},
					},
					{
						Name: "address", Kind: "object", Target: "core:Address",
						Join: &schema.JoinDefinition{Table: "address_to_building", From: "building_id", To: "address_id"},
					},
				},
			},
			{ID: BuildingPartID, Name: "bldg:BuildingPart", Version: "2.0", Table: "building", Extends: "bldg:_AbstractBuilding"},
			{ID: BuildingID, Name: "bldg:Building", Version: "2.0", Table: "building", Extends: "bldg:_AbstractBuilding", TopLevel: true},
			{
				ID: BoundarySurfaceID, Name: "bldg:_BoundarySurface", Version: "2.0", Table: "thematic_surface",
				Extends: "core:_CityObject", Abstract: true,
				Properties: []schema.PropertyDefinition{
					{Name: "lod2MultiSurface", Kind: "geometry", Column: "lod2_multi_surface", LOD: lod(2)},
					{Name: "lod3MultiSurface", Kind: "geometry", Column: "lod3_multi_surface", LOD: lod(3)},
				},
			},
			{ID: RoofSurfaceID, Name: "bldg:RoofSurface", Version: "2.0", Table: "thematic_surface", Extends: "bldg:_BoundarySurface"},
			{ID: WallSurfaceID, Name: "bldg:WallSurface", Version: "2.0", Table: "thematic_surface", Extends: "bldg:_BoundarySurface"},
			{
				ID: RoadID, Name: "tran:Road", Version: "2.0", Table: "transportation_complex",
				Extends: "core:_CityObject", TopLevel: true,
				Properties: []schema.PropertyDefinition{
					{Name: "function", Column: "function"},
					{Name: "lod1MultiSurface", Kind: "geometry", Column: "lod1_multi_surface", LOD: lod(1)},
				},
			},
			{
				ID: AddressID, Name: "core:Address", Version: "2.0", Table: "address", Untyped: true,
				Properties: []schema.PropertyDefinition{
					{Name: "street", Column: "street"},
					{Name: "city", Column: "city"},
				},
			},
			{
				ID: BuildingV1ID, Name: "bldg1:Building", Version: "1.0", Table: "building",
				Extends: "core:_CityObject", TopLevel: true,
				Properties: []schema.PropertyDefinition{
					{Name: "measuredHeight", Type: "double", Column: "measured_height"},
				},
			},
		},
	}
}

// Mapping builds the fixture mapping.
func Mapping(t testing.TB) *schema.Mapping {
	t.Helper()
	m, err := schema.NewMapping(MappingDefinition())
	require.NoError(t, err)
	return m
}

// Namespaces returns the fixture's prefix bindings.
func Namespaces() schema.Namespaces {
	return schema.Namespaces(MappingDefinition().Namespaces)
}

// Path parses a value reference against m with the fixture namespaces.
func Path(t testing.TB, m *schema.Mapping, expr string) schema.Path {
	t.Helper()
	p, err := m.ParsePath(expr, Namespaces())
	require.NoError(t, err)
	return p
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
