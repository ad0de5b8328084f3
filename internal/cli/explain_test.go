package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplainQuery(t *testing.T) {
	query := testdata(t, "queries", "buildings.yaml")

	buf := &bytes.Buffer{}
	cmd := NewExplainCommand(testOptions(t, "text"))
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{query})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "select r0.id from cityobject r0")
	assert.Contains(t, output, "where r0.id in")
	assert.Contains(t, output, "order by r0.id")
}

func TestExplainQueryJSON(t *testing.T) {
	query := testdata(t, "queries", "buildings.yaml")

	buf := &bytes.Buffer{}
	cmd := NewExplainCommand(testOptions(t, "json"))
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{query})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   ExplainResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Contains(t, resp.Data.Explain, "select r0.id")
}

func TestExplainQuery_CompileError(t *testing.T) {
	query := writeQuery(t, "empty.yaml", "featureTypes: []\n")

	buf := &bytes.Buffer{}
	cmd := NewExplainCommand(testOptions(t, "text"))
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{query})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [E201]")
}
