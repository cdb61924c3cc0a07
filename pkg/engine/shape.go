// Package engine implements the propagation core of a Sudoku-family
// constraint solver: packed bitmask candidate grids, the constraint
// handler protocol, cell-exclusion metadata, and the depth-first
// search that solves, counts, enumerates, or analyzes puzzles.
//
// The package is laid out as one flat set of files the way the
// teacher module keeps every FD constraint side by side in a single
// package: shape.go, lookup.go, cellstate.go, exclusions.go,
// handler*.go, scheduler.go, search.go, stats.go. Lowering a constraint
// tree into handlers lives in pkg/puzzle (builder.go, lowering.go).
package engine

import (
	"fmt"
)

// MaxValues is the largest supported num_values (grids go up to 16x16).
const MaxValues = 16

// GridShape is the immutable dimensional descriptor for a puzzle grid.
// BoxHeight/BoxWidth may both be zero when the grid has no box tiling
// (e.g. a non-factorable NumValues, or noBoxes variants).
type GridShape struct {
	NumRows    int
	NumCols    int
	NumValues  int
	BoxHeight  int
	BoxWidth   int
}

// NewGridShape validates and constructs a GridShape.
func NewGridShape(numRows, numCols, numValues, boxHeight, boxWidth int) (*GridShape, error) {
	if numRows <= 0 || numCols <= 0 {
		return nil, fmt.Errorf("engine: grid dimensions must be positive, got %dx%d", numRows, numCols)
	}
	if numValues < numRows || numValues < numCols {
		return nil, fmt.Errorf("engine: numValues %d must be >= max(rows,cols)", numValues)
	}
	if numValues > MaxValues {
		return nil, fmt.Errorf("engine: numValues %d exceeds max supported %d", numValues, MaxValues)
	}
	if (boxHeight == 0) != (boxWidth == 0) {
		return nil, fmt.Errorf("engine: boxHeight and boxWidth must both be zero or both be positive")
	}
	if boxHeight > 0 {
		if boxHeight*boxWidth != numValues {
			return nil, fmt.Errorf("engine: box tiling %dx%d does not cover numValues %d", boxHeight, boxWidth, numValues)
		}
		if numRows%boxHeight != 0 || numCols%boxWidth != 0 {
			return nil, fmt.Errorf("engine: grid %dx%d is not evenly tiled by boxes %dx%d", numRows, numCols, boxHeight, boxWidth)
		}
	}
	return &GridShape{
		NumRows:   numRows,
		NumCols:   numCols,
		NumValues: numValues,
		BoxHeight: boxHeight,
		BoxWidth:  boxWidth,
	}, nil
}

// NumCells returns rows*cols.
func (s *GridShape) NumCells() int { return s.NumRows * s.NumCols }

// HasBoxes reports whether the shape defines box regions.
func (s *GridShape) HasBoxes() bool { return s.BoxHeight > 0 && s.BoxWidth > 0 }

// CellIndex returns the row-major index of (row, col), both 0-based.
func (s *GridShape) CellIndex(row, col int) int { return row*s.NumCols + col }

// RowCol returns the (row, col) for a cell index, both 0-based.
func (s *GridShape) RowCol(cell int) (row, col int) {
	return cell / s.NumCols, cell % s.NumCols
}

// BoxIndex returns the box region index (row-major over the box grid)
// for a cell, or -1 if the shape has no boxes.
func (s *GridShape) BoxIndex(cell int) int {
	if !s.HasBoxes() {
		return -1
	}
	row, col := s.RowCol(cell)
	boxRow := row / s.BoxHeight
	boxCol := col / s.BoxWidth
	boxesPerRow := s.NumCols / s.BoxWidth
	return boxRow*boxesPerRow + boxCol
}

// CellID renders a cell index as "R{row+1}C{col+1}".
func (s *GridShape) CellID(cell int) string {
	row, col := s.RowCol(cell)
	return fmt.Sprintf("R%dC%d", row+1, col+1)
}

// ParseCellID parses a "R{row}C{col}" identifier (1-based) into a
// 0-based cell index.
func (s *GridShape) ParseCellID(id string) (int, error) {
	var row, col int
	n, err := fmt.Sscanf(id, "R%dC%d", &row, &col)
	if err != nil || n != 2 {
		return 0, fmt.Errorf("engine: invalid cell id %q", id)
	}
	if row < 1 || row > s.NumRows || col < 1 || col > s.NumCols {
		return 0, fmt.Errorf("engine: cell id %q out of bounds for %dx%d grid", id, s.NumRows, s.NumCols)
	}
	return s.CellIndex(row-1, col-1), nil
}

// Rows returns the cell indices of every row, in row-major order.
func (s *GridShape) Rows() [][]int {
	out := make([][]int, s.NumRows)
	for r := 0; r < s.NumRows; r++ {
		row := make([]int, s.NumCols)
		for c := 0; c < s.NumCols; c++ {
			row[c] = s.CellIndex(r, c)
		}
		out[r] = row
	}
	return out
}

// Cols returns the cell indices of every column, in column-major order.
func (s *GridShape) Cols() [][]int {
	out := make([][]int, s.NumCols)
	for c := 0; c < s.NumCols; c++ {
		col := make([]int, s.NumRows)
		for r := 0; r < s.NumRows; r++ {
			col[r] = s.CellIndex(r, c)
		}
		out[c] = col
	}
	return out
}

// Boxes returns the cell indices of every box region, or nil if the
// shape has no boxes.
func (s *GridShape) Boxes() [][]int {
	if !s.HasBoxes() {
		return nil
	}
	boxesPerRow := s.NumCols / s.BoxWidth
	boxesPerCol := s.NumRows / s.BoxHeight
	out := make([][]int, boxesPerRow*boxesPerCol)
	for br := 0; br < boxesPerCol; br++ {
		for bc := 0; bc < boxesPerRow; bc++ {
			cells := make([]int, 0, s.NumValues)
			for r := 0; r < s.BoxHeight; r++ {
				for c := 0; c < s.BoxWidth; c++ {
					cells = append(cells, s.CellIndex(br*s.BoxHeight+r, bc*s.BoxWidth+c))
				}
			}
			out[br*boxesPerRow+bc] = cells
		}
	}
	return out
}

// Houses returns rows, columns, and (if present) boxes concatenated —
// the classic "all-different" regions of a standard layout.
func (s *GridShape) Houses() [][]int {
	houses := append(s.Rows(), s.Cols()...)
	if s.HasBoxes() {
		houses = append(houses, s.Boxes()...)
	}
	return houses
}
