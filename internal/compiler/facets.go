package compiler

import (
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/cityq/internal/config"
	"github.com/roach88/cityq/internal/query"
)

func appearanceFilter(cfg config.Appearance) *query.AppearanceFilter {
	f := &query.AppearanceFilter{IncludeUntagged: cfg.IncludeUntagged}
	seen := make(map[string]bool, len(cfg.Themes))
	for _, theme := range cfg.Themes {
		theme = norm.NFC.String(theme)
		if seen[theme] {
			continue
		}
		seen[theme] = true
		f.Themes = append(f.Themes, theme)
	}
	return f
}

// tiling builds an explicit grid when rows or columns are given, otherwise
// derives the grid from the side length. An extent without SRID is in the
// database reference system.
func (a *assembler) tiling(cfg config.Tiling) (*query.Tiling, error) {
	extent, err := bound(cfg.Extent.Lower, cfg.Extent.Upper)
	if err != nil {
		return nil, query.Wrap(query.CodeInvalidTiling, err, "invalid extent").At("extent")
	}
	srid := cfg.Extent.SRID
	if srid == 0 {
		srid = a.env.DatabaseSRS.SRID
	}

	grid := cfg.Rows != 0 || cfg.Columns != 0
	switch {
	case grid && cfg.SideLength != 0:
		return nil, query.Errorf(query.CodeInvalidTiling, "rows and columns exclude sideLength")
	case grid:
		return query.NewGridTiling(extent, srid, cfg.Rows, cfg.Columns, cfg.ActiveRow, cfg.ActiveColumn)
	case cfg.SideLength != 0:
		return query.NewAutoTiling(extent, srid, cfg.SideLength, cfg.ActiveRow, cfg.ActiveColumn)
	default:
		return nil, query.Errorf(query.CodeInvalidTiling, "tiling needs rows and columns or a sideLength")
	}
}
