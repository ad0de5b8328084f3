package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/roach88/cityq/internal/compiler"
	"github.com/roach88/cityq/internal/config"
	"github.com/roach88/cityq/internal/dialect"
	"github.com/roach88/cityq/internal/query"
	"github.com/roach88/cityq/internal/schema"
)

// CLI error codes (E000-E099). Query document errors reuse the codes of
// config.LoadError from the same range.
const (
	ErrCodeGeneric        = "E001" // Generic/unknown error
	ErrCodeLoadFailed     = "E004" // Mapping does not load
	ErrCodeNotFound       = "E005" // Path not found
	ErrCodeWriteFailed    = "E007" // File write error
	ErrCodeInvalidDialect = "E010" // Unknown SQL dialect
)

// LoadError represents an error that occurred while preparing the
// compilation environment.
type LoadError struct {
	Code    string
	Message string
	File    string
}

func (e *LoadError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadResult is a loaded query document with its compilation environment.
type LoadResult struct {
	Query *config.Query
	Env   compiler.Env
}

// LoadEnv loads the mapping and dialect named by the root options.
func LoadEnv(opts *RootOptions, logs io.Writer) (compiler.Env, error) {
	if opts.Mapping == "" {
		return compiler.Env{}, &LoadError{Code: ErrCodeNotFound, Message: "no mapping file given (use --mapping)"}
	}
	m, err := schema.LoadMappingFile(opts.Mapping)
	if errors.Is(err, fs.ErrNotExist) {
		return compiler.Env{}, &LoadError{Code: ErrCodeNotFound, Message: "mapping file not found", File: opts.Mapping}
	}
	if err != nil {
		return compiler.Env{}, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error(), File: opts.Mapping}
	}

	name := opts.Dialect
	if name == "" {
		name = "postgis"
	}
	caps, err := dialect.ByName(name)
	if err != nil {
		return compiler.Env{}, &LoadError{Code: ErrCodeInvalidDialect, Message: err.Error()}
	}
	if opts.Hint != "" {
		pg, ok := caps.(dialect.PostGIS)
		if !ok {
			return compiler.Env{}, &LoadError{Code: ErrCodeInvalidDialect, Message: fmt.Sprintf("dialect %s does not take optimizer hints", caps.Name())}
		}
		pg.SpatialIndexHint = opts.Hint
		caps = pg
	}

	return compiler.Env{
		Mapping:     m,
		Dialect:     caps,
		DatabaseSRS: query.SRS{SRID: opts.SRID},
		Logger:      opts.logger(logs),
	}, nil
}

// LoadQuery loads a query document and the environment to compile it in.
func LoadQuery(opts *RootOptions, path string, logs io.Writer) (*LoadResult, error) {
	env, err := LoadEnv(opts, logs)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: "query file not found", File: path}
	}
	q, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return &LoadResult{Query: q, Env: env}, nil
}
