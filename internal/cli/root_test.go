package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "cityq", cmd.Use)
	assert.Contains(t, cmd.Long, "query document")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"compile", "explain", "validate"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	mappingFlag := cmd.PersistentFlags().Lookup("mapping")
	require.NotNil(t, mappingFlag)
	assert.Equal(t, "m", mappingFlag.Shorthand)
	assert.Equal(t, "", mappingFlag.DefValue)

	dialectFlag := cmd.PersistentFlags().Lookup("dialect")
	require.NotNil(t, dialectFlag)
	assert.Equal(t, "postgis", dialectFlag.DefValue)

	sridFlag := cmd.PersistentFlags().Lookup("srid")
	require.NotNil(t, sridFlag)
	assert.Equal(t, "0", sridFlag.DefValue)

	hintFlag := cmd.PersistentFlags().Lookup("spatial-hint")
	require.NotNil(t, hintFlag)
	assert.Empty(t, hintFlag.DefValue)
}

func TestCompileCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	compileCmd, _, err := cmd.Find([]string{"compile"})
	require.NoError(t, err)

	outputFlag := compileCmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)

	preparedFlag := compileCmd.Flags().Lookup("prepared")
	require.NotNil(t, preparedFlag)
	assert.Equal(t, "false", preparedFlag.DefValue)
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	query := testdata(t, "queries", "buildings.yaml")
	mapping := testdata(t, "mapping", "citygml.yaml")

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"compile", "--format", "xml", "--mapping", mapping, query})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRootCommand_InvalidDialect(t *testing.T) {
	query := testdata(t, "queries", "buildings.yaml")
	mapping := testdata(t, "mapping", "citygml.yaml")

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"compile", "--dialect", "oracle", "--mapping", mapping, query})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestRootCommand_Compile(t *testing.T) {
	query := testdata(t, "queries", "buildings.yaml")
	mapping := testdata(t, "mapping", "citygml.yaml")

	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"compile", "-m", mapping, "--srid", "25832", query})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"t0"."measured_height" > 10`)
	assert.Equal(t, ExitSuccess, GetExitCode(err))
}

func TestFormatValidation(t *testing.T) {
	// Test valid formats
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	// Test invalid formats
	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}
