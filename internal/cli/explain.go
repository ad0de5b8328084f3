package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ExplainResult is the JSON payload of the explain command.
type ExplainResult struct {
	Explain string `json:"explain"`
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain <query-file>",
		Short: "Show the structure of the compiled statement",
		Long: `Show the compiled statement one clause per line: the type restriction,
the nested selection with its joins and set operations, and the LOD,
tiling and counter conditions.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runExplain(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	c, err := compileDocument(opts, path, cmd)
	if err != nil {
		return formatter.Fail(err)
	}

	if formatter.Format == "json" {
		return formatter.Success(&ExplainResult{Explain: c.stmt.Explain()})
	}
	fmt.Fprint(formatter.Writer, c.stmt.Explain())
	return nil
}
