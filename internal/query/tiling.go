package query

import (
	"math"

	"github.com/paulmach/orb"
)

// Tiling partitions an extent into a grid and marks one tile as active.
// Rows count upwards from the extent's minimum Y, columns rightwards from its
// minimum X.
type Tiling struct {
	Extent  orb.Bound
	SRID    int
	Rows    int
	Columns int

	// SideLength is the requested tile side length in automatic mode, 0 for
	// an explicit grid.
	SideLength float64

	ActiveRow    int
	ActiveColumn int
}

// NewGridTiling builds an explicit rows x columns tiling.
func NewGridTiling(extent orb.Bound, srid, rows, columns, activeRow, activeColumn int) (*Tiling, error) {
	if err := checkExtent(extent); err != nil {
		return nil, err
	}
	if rows < 1 || columns < 1 {
		return nil, Errorf(CodeInvalidTiling, "grid must have at least one row and column, got %dx%d", rows, columns)
	}
	t := &Tiling{Extent: extent, SRID: srid, Rows: rows, Columns: columns}
	return t.activate(activeRow, activeColumn)
}

// NewAutoTiling derives the grid from a target side length. Tiles are no
// larger than sideLength in either direction.
func NewAutoTiling(extent orb.Bound, srid int, sideLength float64, activeRow, activeColumn int) (*Tiling, error) {
	if err := checkExtent(extent); err != nil {
		return nil, err
	}
	if !(sideLength > 0) || math.IsInf(sideLength, 0) {
		return nil, Errorf(CodeInvalidTiling, "side length must be positive, got %v", sideLength)
	}
	t := &Tiling{
		Extent:     extent,
		SRID:       srid,
		Rows:       max(1, int(math.Ceil((extent.Max.Y()-extent.Min.Y())/sideLength))),
		Columns:    max(1, int(math.Ceil((extent.Max.X()-extent.Min.X())/sideLength))),
		SideLength: sideLength,
	}
	return t.activate(activeRow, activeColumn)
}

func checkExtent(b orb.Bound) error {
	for _, v := range []float64{b.Min.X(), b.Min.Y(), b.Max.X(), b.Max.Y()} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Errorf(CodeInvalidTiling, "extent has non-finite coordinates")
		}
	}
	if b.Max.X() <= b.Min.X() || b.Max.Y() <= b.Min.Y() {
		return Errorf(CodeInvalidTiling, "extent must have positive width and height")
	}
	return nil
}

func (t *Tiling) activate(row, column int) (*Tiling, error) {
	if row < 0 || row >= t.Rows || column < 0 || column >= t.Columns {
		return nil, Errorf(CodeInvalidTiling, "active tile (%d,%d) outside %dx%d grid", row, column, t.Rows, t.Columns)
	}
	t.ActiveRow, t.ActiveColumn = row, column
	return t, nil
}

// TileCount returns the number of tiles.
func (t *Tiling) TileCount() int { return t.Rows * t.Columns }

// Tile returns the bounds of the tile at (row, column).
func (t *Tiling) Tile(row, column int) (orb.Bound, error) {
	if row < 0 || row >= t.Rows || column < 0 || column >= t.Columns {
		return orb.Bound{}, Errorf(CodeInvalidTiling, "tile (%d,%d) outside %dx%d grid", row, column, t.Rows, t.Columns)
	}
	w := (t.Extent.Max.X() - t.Extent.Min.X()) / float64(t.Columns)
	h := (t.Extent.Max.Y() - t.Extent.Min.Y()) / float64(t.Rows)

	minX := t.Extent.Min.X() + float64(column)*w
	minY := t.Extent.Min.Y() + float64(row)*h
	maxX, maxY := minX+w, minY+h
	// Pin the outer edges to the extent so rounding never loses a sliver.
	if column == t.Columns-1 {
		maxX = t.Extent.Max.X()
	}
	if row == t.Rows-1 {
		maxY = t.Extent.Max.Y()
	}
	return orb.Bound{Min: orb.Point{minX, minY}, Max: orb.Point{maxX, maxY}}, nil
}

// ActiveExtent returns the bounds of the active tile.
func (t *Tiling) ActiveExtent() orb.Bound {
	b, _ := t.Tile(t.ActiveRow, t.ActiveColumn)
	return b
}

// ClosedRight reports whether the active tile includes its maximum X edge.
// Only the last column does; other tiles leave it to their neighbour.
func (t *Tiling) ClosedRight() bool { return t.ActiveColumn == t.Columns-1 }

// ClosedTop reports whether the active tile includes its maximum Y edge.
func (t *Tiling) ClosedTop() bool { return t.ActiveRow == t.Rows-1 }

// TileOf returns the tile containing p under the half-open containment rule,
// or false when p lies outside the extent.
func (t *Tiling) TileOf(p orb.Point) (row, column int, ok bool) {
	if p.X() < t.Extent.Min.X() || p.X() > t.Extent.Max.X() ||
		p.Y() < t.Extent.Min.Y() || p.Y() > t.Extent.Max.Y() {
		return 0, 0, false
	}
	w := (t.Extent.Max.X() - t.Extent.Min.X()) / float64(t.Columns)
	h := (t.Extent.Max.Y() - t.Extent.Min.Y()) / float64(t.Rows)
	column = min(t.Columns-1, int((p.X()-t.Extent.Min.X())/w))
	row = min(t.Rows-1, int((p.Y()-t.Extent.Min.Y())/h))
	return row, column, true
}
