package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cityq/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid        bool     `json:"valid"`
	Version      string   `json:"version"`
	FeatureTypes []string `json:"featureTypes"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <query-file>",
		Short: "Validate a query document without rendering SQL",
		Long: `Validate a query document against the schema mapping.

Reports the first compilation error with the document field it was found
in. Recursive containment in the mapping, which limits how deep LOD
searches can reach, is reported as a warning.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	c, err := compileDocument(opts, path, cmd)
	if err != nil {
		return formatter.Fail(err)
	}

	var warnings []CLIWarning
	for _, w := range compiler.AnalyzeContainment(c.load.Env.Mapping) {
		formatter.Warn("%s", w.Message)
		warnings = append(warnings, CLIWarning{Message: w.Message, Path: w.Path})
	}

	result := &ValidationResult{
		Valid:        true,
		Version:      c.query.Version,
		FeatureTypes: typeNames(c.query),
	}
	return outputValidateSuccess(formatter, result, warnings)
}

// outputValidateSuccess outputs successful validation.
func outputValidateSuccess(formatter *OutputFormatter, result *ValidationResult, warnings []CLIWarning) error {
	if formatter.Format == "json" {
		return json.NewEncoder(formatter.Writer).Encode(CLIResponse{
			Status:   "ok",
			Data:     result,
			Warnings: warnings,
		})
	}

	fmt.Fprintf(formatter.Writer, "✓ Query is valid (CityGML %s, %d feature type(s))\n",
		result.Version, len(result.FeatureTypes))
	for _, name := range result.FeatureTypes {
		formatter.VerboseLog("  %s", name)
	}
	return nil
}
