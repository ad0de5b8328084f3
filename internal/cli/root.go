package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/cityq/internal/dialect"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	Mapping string // schema mapping file
	Dialect string // "postgis" | "spatialite"
	SRID    int    // reference system of stored geometries
	Hint    string // pg_hint_plan hint for spatial selections

	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the cityq CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "cityq",
		Short: "cityq - city model query compiler",
		Long: `Compile declarative queries over 3D city models into SQL.

A query document (YAML, JSON or CUE) selects feature types, filters them
with a predicate tree and shapes the export with projection, counter, LOD,
appearance and tiling facets. The schema mapping tells the compiler how
types and properties are laid out in the database.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if _, err := dialect.ByName(opts.Dialect); err != nil {
				return err
			}
			opts.Logger = newLogger(cmd.ErrOrStderr(), opts.Verbose)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Mapping, "mapping", "m", "", "schema mapping file (YAML)")
	cmd.PersistentFlags().StringVar(&opts.Dialect, "dialect", "postgis", fmt.Sprintf("SQL dialect %v", dialect.Names()))
	cmd.PersistentFlags().IntVar(&opts.SRID, "srid", 0, "SRID of stored geometries")
	cmd.PersistentFlags().StringVar(&opts.Hint, "spatial-hint", "", "optimizer hint for spatial selections (postgis only)")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewExplainCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))

	return cmd
}

// newLogger logs to w as text, at debug level when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// logger returns the configured logger. Commands run without the root
// command log to w.
func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return newLogger(w, o.Verbose)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
