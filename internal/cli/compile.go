package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/cityq/internal/compiler"
	"github.com/roach88/cityq/internal/dialect"
	"github.com/roach88/cityq/internal/query"
	"github.com/roach88/cityq/internal/querysql"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Prepared bool   // render placeholders and arguments
	Output   string // output file path
}

// CompileResult is the JSON payload of the compile command.
type CompileResult struct {
	Version      string   `json:"version"`
	FeatureTypes []string `json:"featureTypes"`
	TargetSRID   int      `json:"targetSrid,omitempty"`
	SQL          string   `json:"sql"`
	Args         []any    `json:"args,omitempty"`
}

// compiled is a query document taken through the whole pipeline.
type compiled struct {
	load  *LoadResult
	query *query.Query
	stmt  *querysql.Statement
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <query-file>",
		Short: "Compile a query document to SQL",
		Long: `Compile a query document to the SQL statement selecting the
identifiers of all matching features.

The document is checked against the schema mapping. Unknown types or
properties, mixed schema versions and malformed predicates are reported
with the field of the document they were found in.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Prepared, "prepared", false, "render placeholders and list arguments separately")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the SQL to a file")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	c, err := compileDocument(opts.RootOptions, path, cmd)
	if err != nil {
		return formatter.Fail(err)
	}

	sql, args, err := c.stmt.ToSQL(opts.Prepared)
	if err != nil {
		return formatter.Fail(err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(sql+"\n"), 0644); err != nil {
			return formatter.Fail(&LoadError{
				Code:    ErrCodeWriteFailed,
				Message: fmt.Sprintf("writing output file: %v", err),
				File:    opts.Output,
			})
		}
		formatter.VerboseLog("Wrote SQL to %s", opts.Output)
	}

	result := &CompileResult{
		Version:      c.query.Version,
		FeatureTypes: typeNames(c.query),
		TargetSRID:   c.query.TargetSRS.SRID,
		SQL:          sql,
		Args:         args,
	}
	return outputCompileSuccess(formatter, result, c.load.Env.Dialect, opts.Output)
}

// compileDocument loads, compiles and builds the query document at path.
func compileDocument(opts *RootOptions, path string, cmd *cobra.Command) (*compiled, error) {
	load, err := LoadQuery(opts, path, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	q, err := compiler.Compile(load.Query, nil, load.Env)
	if err != nil {
		return nil, err
	}
	stmt, err := querysql.Build(q, load.Env.Mapping, load.Env.Dialect, querysql.BuildOptions{
		DatabaseSRID: load.Env.DatabaseSRS.SRID,
	})
	if err != nil {
		return nil, err
	}
	return &compiled{load: load, query: q, stmt: stmt}, nil
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

func typeNames(q *query.Query) []string {
	names := make([]string, len(q.FeatureTypes.Types))
	for i, t := range q.FeatureTypes.Types {
		names[i] = t.Name.String()
	}
	return names
}

// outputCompileSuccess outputs the compiled statement.
func outputCompileSuccess(formatter *OutputFormatter, result *CompileResult, caps dialect.Capabilities, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	// Human-readable text output
	fmt.Fprintln(formatter.Writer, result.SQL)
	if len(result.Args) > 0 {
		fmt.Fprintln(formatter.Writer)
		fmt.Fprintln(formatter.Writer, "Arguments:")
		for i, arg := range result.Args {
			fmt.Fprintf(formatter.Writer, "  %s = %v\n", caps.Placeholder(i+1), arg)
		}
	}
	if outputFile != "" {
		fmt.Fprintf(formatter.GetErrWriter(), "✓ Wrote SQL to %s\n", outputFile)
	}
	return nil
}
