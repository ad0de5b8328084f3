package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testdata returns a path below the repository testdata directory.
func testdata(t *testing.T, parts ...string) string {
	t.Helper()
	path := filepath.Join(append([]string{"..", "..", "testdata"}, parts...)...)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skipf("%s not found", path)
	}
	return path
}

// testOptions returns root options using the testdata mapping.
func testOptions(t *testing.T, format string) *RootOptions {
	return &RootOptions{
		Format:  format,
		Mapping: testdata(t, "mapping", "citygml.yaml"),
		Dialect: "postgis",
		SRID:    25832,
	}
}

// writeQuery writes a query document to a temporary file.
func writeQuery(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCompileQuery(t *testing.T) {
	query := testdata(t, "queries", "buildings.yaml")

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(testOptions(t, "text"))
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{query})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, `SELECT "r0"."id" FROM "cityobject" AS "r0"`)
	assert.Contains(t, output, `"t0"."measured_height" > 10`)
	assert.NotContains(t, output, "Arguments:")
}

func TestCompileQuery_Formats(t *testing.T) {
	var outputs []string
	for _, name := range []string{"buildings.yaml", "buildings.json", "buildings.cue"} {
		query := testdata(t, "queries", name)

		buf := &bytes.Buffer{}
		cmd := NewCompileCommand(testOptions(t, "text"))
		cmd.SetOut(buf)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{query})

		require.NoError(t, cmd.Execute(), name)
		outputs = append(outputs, buf.String())
	}

	assert.Equal(t, outputs[0], outputs[1])
	assert.Equal(t, outputs[0], outputs[2])
}

func TestCompileQueryJSON(t *testing.T) {
	query := testdata(t, "queries", "buildings.yaml")

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(testOptions(t, "json"))
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{query})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   CompileResult `json:"data"`
	}
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "2.0", resp.Data.Version)
	assert.Equal(t, []string{"{http://www.opengis.net/citygml/building/2.0}Building"}, resp.Data.FeatureTypes)
	assert.Equal(t, 25832, resp.Data.TargetSRID)
	assert.Contains(t, resp.Data.SQL, "SELECT")
	assert.Empty(t, resp.Data.Args)
}

func TestCompileQuery_Prepared(t *testing.T) {
	query := testdata(t, "queries", "buildings.yaml")

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(testOptions(t, "text"))
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{query, "--prepared"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "$1")
	assert.Contains(t, output, "Arguments:")
	assert.NotContains(t, output, `"t0"."measured_height" > 10`)
}

func TestCompileQuery_PreparedSpatiaLite(t *testing.T) {
	query := testdata(t, "queries", "buildings.yaml")

	opts := testOptions(t, "text")
	opts.Dialect = "spatialite"

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{query, "--prepared"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Arguments:")
	assert.Contains(t, output, "\n  ? = ")
	assert.NotContains(t, output, "$1")
}

func TestCompileQuery_SpatialHint(t *testing.T) {
	query := testdata(t, "queries", "buildings.yaml")

	opts := testOptions(t, "text")
	opts.Hint = "BitmapScan(t0)"

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{query})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "/*+ BitmapScan(t0) */")
}

func TestCompileQuery_SpatialHintNeedsPostGIS(t *testing.T) {
	query := testdata(t, "queries", "buildings.yaml")

	opts := testOptions(t, "json")
	opts.Dialect = "spatialite"
	opts.Hint = "BitmapScan(t0)"

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{query})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, ErrCodeInvalidDialect, resp.Error.Code)
}

func TestCompileOutputToFile(t *testing.T) {
	query := testdata(t, "queries", "buildings.yaml")
	outputFile := filepath.Join(t.TempDir(), "buildings.sql")

	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd := NewCompileCommand(testOptions(t, "text"))
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{query, "--output", outputFile})

	err := cmd.Execute()
	require.NoError(t, err)

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), string(bytes.TrimSpace(data)))
	assert.Contains(t, errBuf.String(), "Wrote SQL to")
}

func TestCompileOutputToFile_WriteFails(t *testing.T) {
	query := testdata(t, "queries", "buildings.yaml")
	outputFile := filepath.Join(t.TempDir(), "missing", "buildings.sql")

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(testOptions(t, "json"))
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{query, "-o", outputFile})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, ErrCodeWriteFailed, resp.Error.Code)
}

func TestCompileQuery_SpatiaLite(t *testing.T) {
	query := testdata(t, "queries", "buildings.yaml")

	opts := testOptions(t, "text")
	opts.Dialect = "spatialite"

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{query})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "BuildMbr(")
	assert.NotContains(t, buf.String(), "ST_MakeEnvelope(")
}

func TestCompileQuery_CompileError(t *testing.T) {
	query := writeQuery(t, "unknown.yaml", `
featureTypes:
  - bldg:Building
  - bldg:Castle
`)

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(testOptions(t, "json"))
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{query})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string `json:"status"`
		Error  struct {
			Code    string       `json:"code"`
			Message string       `json:"message"`
			Details ErrorDetails `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E202", resp.Error.Code)
	assert.Equal(t, "UnknownTypeName", resp.Error.Details.Name)
	assert.Equal(t, "featureTypes[1]", resp.Error.Details.Field)
}

func TestCompileQuery_DocumentError(t *testing.T) {
	query := testdata(t, "queries", "unknown_field.yaml")

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(testOptions(t, "text"))
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{query})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [E008]")
}

func TestCompileQuery_MissingFiles(t *testing.T) {
	buildings := testdata(t, "queries", "buildings.yaml")
	mapping := testdata(t, "mapping", "citygml.yaml")
	missing := filepath.Join(t.TempDir(), "nonexistent.yaml")

	tests := []struct {
		name    string
		mapping string
		query   string
	}{
		{"no mapping flag", "", buildings},
		{"missing mapping", missing, buildings},
		{"missing query", mapping, missing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions(t, "json")
			opts.Mapping = tt.mapping

			buf := &bytes.Buffer{}
			cmd := NewCompileCommand(opts)
			cmd.SetOut(buf)
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs([]string{tt.query})

			err := cmd.Execute()
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
			assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
		})
	}
}

func TestCompileQuery_BadMapping(t *testing.T) {
	query := testdata(t, "queries", "buildings.yaml")
	opts := testOptions(t, "text")
	opts.Mapping = writeQuery(t, "mapping.yaml", "types: [\n")

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{query})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [E004]")
}

func TestCompileCommand_RequiresArg(t *testing.T) {
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	assert.Error(t, err)
}
