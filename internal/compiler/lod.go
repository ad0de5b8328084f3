package compiler

import (
	"fmt"

	"github.com/roach88/cityq/internal/config"
	"github.com/roach88/cityq/internal/query"
)

// lodFilter validates the LOD facet. Without an explicit search mode a
// positive depth selects depth search.
func lodFilter(cfg config.Lod) (*query.LodFilter, error) {
	if len(cfg.Levels) == 0 {
		return nil, query.Errorf(query.CodeInvalidLodFilter, "no level of detail selected").At("levels")
	}

	f := &query.LodFilter{Depth: cfg.Depth}
	for i, lod := range cfg.Levels {
		if lod < 0 || lod > query.MaxLod {
			return nil, query.Errorf(query.CodeInvalidLodFilter, "level %d outside 0..%d", lod, query.MaxLod).At(fmt.Sprintf("levels[%d]", i))
		}
		f.Levels[lod] = true
	}

	switch cfg.Mode {
	case "", "or":
		f.Mode = query.LodOr
	case "and":
		f.Mode = query.LodAnd
	default:
		return nil, query.Errorf(query.CodeInvalidLodFilter, "unknown mode %q (use or, and)", cfg.Mode).At("mode")
	}

	if cfg.Depth < 0 {
		return nil, query.Errorf(query.CodeInvalidLodFilter, "depth must not be negative, got %d", cfg.Depth).At("depth")
	}
	switch cfg.Search {
	case "":
		if cfg.Depth > 0 {
			f.Search = query.SearchDepth
		}
	case "none":
		f.Search = query.SearchNone
	case "depth":
		f.Search = query.SearchDepth
	case "all":
		f.Search = query.SearchAll
	default:
		return nil, query.Errorf(query.CodeInvalidLodFilter, "unknown search mode %q (use none, depth, all)", cfg.Search).At("search")
	}
	return f, nil
}
