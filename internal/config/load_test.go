package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queriesDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join("..", "..", "testdata", "queries")
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Skip("testdata/queries directory not found")
	}
	return dir
}

func TestLoad_Formats(t *testing.T) {
	dir := queriesDir(t)

	for _, name := range []string{"buildings.yaml", "buildings.json", "buildings.cue"} {
		t.Run(name, func(t *testing.T) {
			q, err := Load(filepath.Join(dir, name))
			require.NoError(t, err)

			assert.Equal(t, []string{"bldg:Building"}, q.FeatureTypes)
			assert.Equal(t, "http://www.opengis.net/citygml/building/2.0", q.Namespaces["bldg"])
			require.NotNil(t, q.TargetSRS)
			assert.Equal(t, 25832, q.TargetSRS.SRID)

			require.NotNil(t, q.Selection)
			assert.Equal(t, "and", q.Selection.Op)
			require.Len(t, q.Selection.Args, 4)

			cmp := q.Selection.Args[0]
			assert.Equal(t, "greaterThan", cmp.Op)
			assert.Equal(t, "bldg:Building/bldg:measuredHeight", cmp.Property)
			assert.NotNil(t, cmp.Value)

			bbox := q.Selection.Args[1]
			require.NotNil(t, bbox.Geometry)
			require.NotNil(t, bbox.Geometry.Envelope)
			assert.Equal(t, []float64{0, 0}, bbox.Geometry.Envelope.Lower)
			assert.Equal(t, []float64{100, 100}, bbox.Geometry.Envelope.Upper)
			assert.Equal(t, 25832, bbox.Geometry.SRID)

			assert.Equal(t, []string{"a", "b"}, q.Selection.Args[2].IDs)
			assert.Equal(t, "isNull", q.Selection.Args[3].Args[0].Op)

			require.Len(t, q.Projection, 1)
			assert.Equal(t, "keep", q.Projection[0].Mode)
			assert.Equal(t, []GenericAttribute{{Name: "owner", Type: "string"}}, q.Projection[0].GenericAttributes)

			assert.Equal(t, &Counter{From: 1, To: 100}, q.Counter)
			assert.Equal(t, &Lod{Levels: []int{1, 2}, Mode: "or", Search: "depth", Depth: 1}, q.Lod)
			assert.Equal(t, &Appearance{Themes: []string{"summer"}, IncludeUntagged: true}, q.Appearance)

			require.NotNil(t, q.Tiling)
			assert.Equal(t, 2, q.Tiling.Rows)
			assert.Equal(t, 1, q.Tiling.ActiveColumn)
			assert.Equal(t, 25832, q.Tiling.Extent.SRID)
		})
	}
}

func TestLoad_NumberTypes(t *testing.T) {
	q, err := ParseYAML([]byte("featureTypes: [a]\nselection: {op: equalTo, property: p, value: 10}\n"))
	require.NoError(t, err)
	assert.Equal(t, 10, q.Selection.Value)

	q, err = ParseJSON([]byte(`{"featureTypes": ["a"], "selection": {"op": "equalTo", "property": "p", "value": 10.5}}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("10.5"), q.Selection.Value)
}

func TestLoad_Errors(t *testing.T) {
	dir := queriesDir(t)

	tests := []struct {
		name string
		path string
		code string
	}{
		{"missing file", filepath.Join(dir, "missing.yaml"), ErrCodeNotFound},
		{"unknown field", filepath.Join(dir, "unknown_field.yaml"), ErrCodeDecodeFailed},
		{"cue conflict", filepath.Join(dir, "conflict.cue"), ErrCodeBuildFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			require.Error(t, err)

			var le *LoadError
			require.True(t, errors.As(err, &le), "got %T", err)
			assert.Equal(t, tt.code, le.Code)
		})
	}
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "query.toml")
	require.NoError(t, os.WriteFile(path, []byte("featureTypes = []"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeUnsupportedFormat, le.Code)
	assert.Contains(t, err.Error(), "query.toml")
}

func TestParseCUE_ReportsPosition(t *testing.T) {
	_, err := ParseCUE([]byte("featureTypes: [\"a\"]\ncounter: from: 1\ncounter: from: 2\n"), "inline.cue")
	require.Error(t, err)

	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeBuildFailed, le.Code)
	assert.True(t, le.Pos.IsValid())
	assert.Contains(t, err.Error(), "inline.cue")
}

func TestParseCUE_Incomplete(t *testing.T) {
	_, err := ParseCUE([]byte("featureTypes: [string]\n"), "incomplete.cue")
	require.Error(t, err)
	var le *LoadError
	require.ErrorAs(t, err, &le)
}

func TestParseYAML_Empty(t *testing.T) {
	_, err := ParseYAML(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty query document")
}
