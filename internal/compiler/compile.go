// Package compiler assembles query documents into compiled queries.
//
// Compile resolves the feature type filter first, since every other facet
// depends on the selected types and their schema version, then builds the
// counter, LOD, projection, appearance, selection and tiling facets in that
// order. The first failure aborts the compilation; no partial Query is ever
// returned.
//
// Errors are *query.Error values attributed to the document field that
// caused them, e.g. "selection.args[1]" or "projection[0].properties[2]".
package compiler

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/roach88/cityq/internal/config"
	"github.com/roach88/cityq/internal/dialect"
	"github.com/roach88/cityq/internal/query"
	"github.com/roach88/cityq/internal/schema"
)

// Env is the shared, read-only environment of compilations. One Env may be
// used by any number of concurrent Compile calls.
type Env struct {
	Mapping *schema.Mapping
	Dialect dialect.Capabilities

	// DatabaseSRS is the reference system of stored geometries. It is the
	// default target SRS and the default SRS of spatial operands and tiling
	// extents.
	DatabaseSRS query.SRS

	Logger *slog.Logger
}

// assembler holds the state of one compilation.
type assembler struct {
	env    Env
	ns     schema.Namespaces
	logger *slog.Logger

	version string
	allowed []int
}

// Compile assembles cfg into a Query.
//
// Type names and value references are resolved against the mapping's
// namespaces, overridden by the document's namespaces, overridden by ns.
func Compile(cfg *config.Query, ns schema.Namespaces, env Env) (*query.Query, error) {
	if env.Mapping == nil || env.Dialect == nil {
		return nil, errors.New("compiler: environment needs a mapping and a dialect")
	}
	if cfg == nil {
		return nil, query.Errorf(query.CodeEmptyFeatureTypeFilter, "no query document")
	}

	logger := env.Logger
	if logger == nil {
		logger = slog.Default()
	}
	a := &assembler{
		env:    env,
		ns:     env.Mapping.Namespaces().Merge(schema.Namespaces(cfg.Namespaces)).Merge(ns),
		logger: logger.With("compilation", compilationID()),
	}
	return a.assemble(cfg)
}

func (a *assembler) assemble(cfg *config.Query) (*query.Query, error) {
	types, err := a.featureTypes(cfg.FeatureTypes)
	if err != nil {
		return nil, err
	}
	a.version = types[0].Version
	a.allowed = schema.IDs(types)
	a.logger.Debug("feature types resolved", "types", typeNames(types), "version", a.version)

	q := &query.Query{
		TargetSRS:    a.env.DatabaseSRS,
		Version:      a.version,
		FeatureTypes: query.FeatureTypeFilter{Types: types},
	}
	if cfg.TargetSRS != nil && cfg.TargetSRS.SRID > 0 {
		q.TargetSRS = query.SRS{SRID: cfg.TargetSRS.SRID, Name: cfg.TargetSRS.Name}
	}

	if cfg.Counter != nil {
		q.Counter, err = query.NewCounterFilter(cfg.Counter.From, cfg.Counter.To)
		if err != nil {
			return nil, at(err, "counter")
		}
		a.logger.Debug("counter built", "from", q.Counter.From, "to", q.Counter.To)
	}

	if cfg.Lod != nil {
		q.Lod, err = lodFilter(*cfg.Lod)
		if err != nil {
			return nil, at(err, "lod")
		}
		a.logger.Debug("lod filter built", "levels", q.Lod.EnabledLevels(), "mode", q.Lod.Mode, "search", q.Lod.Search)
	}

	if len(cfg.Projection) > 0 {
		q.Projection, err = a.projection(cfg.Projection)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("projection built", "types", len(q.Projection.Types))
	}

	if cfg.Appearance != nil {
		q.Appearance = appearanceFilter(*cfg.Appearance)
		a.logger.Debug("appearance filter built", "themes", q.Appearance.Themes)
	}

	if cfg.Selection != nil {
		q.Predicate, q.Selection, err = a.selection(*cfg.Selection)
		if err != nil {
			return nil, at(err, "selection")
		}
		a.logger.Debug("selection compiled")
	}

	if cfg.Tiling != nil {
		q.Tiling, err = a.tiling(*cfg.Tiling)
		if err != nil {
			return nil, at(err, "tiling")
		}
		a.logger.Debug("tiling built", "rows", q.Tiling.Rows, "columns", q.Tiling.Columns)
	}
	return q, nil
}

// at attributes err to a document field.
func at(err error, field string) error {
	var qe *query.Error
	if errors.As(err, &qe) {
		return qe.At(field)
	}
	return fmt.Errorf("%s: %w", field, err)
}

func compilationID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func typeNames(types []*schema.Type) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.Name.String()
	}
	return out
}
