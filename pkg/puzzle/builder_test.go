package puzzle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hexvalor/sudokucore/pkg/engine"
)

// fourByFourShape returns a classic 4x4 sudoku shape (2x2 boxes).
func fourByFourShape(t *testing.T) *engine.GridShape {
	t.Helper()
	shape, err := engine.NewGridShape(4, 4, 4, 2, 2)
	require.NoError(t, err)
	return shape
}

func TestBuildPinsGivensAndAddsHouses(t *testing.T) {
	shape := fourByFourShape(t)
	given := Given{Cell: 0, Value: 1}
	fixed := FixedValues{Cells: []int{1, 4}, Values: []int{2, 3}}

	built, err := Build(shape, []Constraint{given, fixed})
	require.NoError(t, err)

	lt := built.LT
	require.Equal(t, lt.FromValue(1), built.Grid.Get(0))
	require.Equal(t, lt.FromValue(2), built.Grid.Get(1))
	require.Equal(t, lt.FromValue(3), built.Grid.Get(4))
}

func TestBuildSolvesAFourByFourRespectingGivens(t *testing.T) {
	shape := fourByFourShape(t)
	givens := FixedValues{
		Cells:  []int{0, 1, 4, 5, 8, 12},
		Values: []int{1, 2, 3, 4, 2, 4},
	}
	built, err := Build(shape, []Constraint{givens})
	require.NoError(t, err)

	eng := engine.NewEngine(built.Shape, built.LT, built.Grid, built.Handlers, built.Excl, engine.NewSearchStats())
	sol, found, err := eng.FindSolution(context.Background(), 0)
	require.NoError(t, err)
	require.True(t, found)

	for i, v := range givens.Cells {
		require.Equal(t, givens.Values[i], sol[v])
	}
	for _, house := range shape.Houses() {
		seen := make(map[int]bool, len(house))
		for _, c := range house {
			require.False(t, seen[sol[c]], "house %v repeats value %d", house, sol[c])
			seen[sol[c]] = true
		}
	}
}

func TestBuildSurfacesUnsatisfiableGivensAtSearchTime(t *testing.T) {
	shape := fourByFourShape(t)
	givens := FixedValues{Cells: []int{0, 1}, Values: []int{1, 1}}

	built, err := Build(shape, []Constraint{givens})
	require.NoError(t, err, "two givens sharing a value is not statically detectable at build time")

	eng := engine.NewEngine(built.Shape, built.LT, built.Grid, built.Handlers, built.Excl, engine.NewSearchStats())
	ok, err := eng.IsSatisfiable(context.Background())
	require.NoError(t, err)
	require.False(t, ok, "cells 0 and 1 share a row and cannot both hold 1")
}

func TestBuildDeduplicatesIdenticalHandlers(t *testing.T) {
	shape := fourByFourShape(t)
	dup := AllDifferent{Cells: []int{0, 1, 2, 3}}

	built, err := Build(shape, []Constraint{dup, dup})
	require.NoError(t, err)
	// the two identical explicit AllDifferent constraints share an
	// IDString and collapse into one handler; the default row pass adds
	// a second, distinctly-IDed handler over the same cells.
	count := 0
	for _, h := range built.Handlers.Handlers() {
		if ad, ok := h.(*engine.AllDifferentHandler); ok {
			cells := ad.Cells()
			if len(cells) == 4 && cells[0] == 0 && cells[1] == 1 && cells[2] == 2 && cells[3] == 3 {
				count++
			}
		}
	}
	require.Equal(t, 2, count)
}

func TestBuildFlattensSetConstraints(t *testing.T) {
	shape := fourByFourShape(t)
	set := Set{Name: "center", Children: []Constraint{
		Given{Cell: 5, Value: 4},
	}}
	built, err := Build(shape, []Constraint{set})
	require.NoError(t, err)
	require.Equal(t, built.LT.FromValue(4), built.Grid.Get(5))
}

func TestBuildRenbanRejectsNonConsecutiveRun(t *testing.T) {
	shape := fourByFourShape(t)
	// Three cells in one row/box that cannot hold a 3-value contiguous
	// run once 1 and 4 are pinned in the same row (span would be 3).
	givens := FixedValues{Cells: []int{0, 3}, Values: []int{1, 4}}
	renban := Renban{Cells: []int{0, 1, 3}}
	built, err := Build(shape, []Constraint{givens, renban})
	require.NoError(t, err)

	eng := engine.NewEngine(built.Shape, built.LT, built.Grid, built.Handlers, built.Excl, engine.NewSearchStats())
	ok, err := eng.IsSatisfiable(context.Background())
	require.NoError(t, err)
	require.False(t, ok, "1,4 and a third cell can never form 3 consecutive values")
}

func TestBuildRenbanAcceptsAConsecutiveRun(t *testing.T) {
	shape := fourByFourShape(t)
	renban := Renban{Cells: []int{0, 1}}
	built, err := Build(shape, []Constraint{renban})
	require.NoError(t, err)

	eng := engine.NewEngine(built.Shape, built.LT, built.Grid, built.Handlers, built.Excl, engine.NewSearchStats())
	sol, found, err := eng.FindSolution(context.Background(), 0)
	require.NoError(t, err)
	require.True(t, found)
	diff := sol[0] - sol[1]
	if diff < 0 {
		diff = -diff
	}
	require.Equal(t, 1, diff, "a 2-cell Renban run must hold consecutive values")
}

func TestBuildQuadrupleEnforcesRequiredValuePresence(t *testing.T) {
	shape := fourByFourShape(t)
	// Quadruple only covers 3 of row0's 4 cells, so the row's own
	// AllDifferent alone does not pin which of the two free cells
	// carries value 1 — only the Quadruple handler does.
	givens := FixedValues{Cells: []int{1, 2}, Values: []int{2, 3}}
	quad := Quadruple{Cells: []int{0, 1, 2}, Values: []int{1}}
	built, err := Build(shape, []Constraint{givens, quad})
	require.NoError(t, err)

	eng := engine.NewEngine(built.Shape, built.LT, built.Grid, built.Handlers, built.Excl, engine.NewSearchStats())
	sol, found, err := eng.FindSolution(context.Background(), 0)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 1, sol[0], "the required value 1 can only land in cell 0 among the quad's cells")
}

func TestBuildQuadrupleRejectsWhenNoCellCanHoldRequiredValue(t *testing.T) {
	shape := fourByFourShape(t)
	// Pin all three quad cells to values other than 1; the row's
	// fourth cell (outside the quad) is forced to 1 instead, which
	// satisfies the row's AllDifferent but not the quad's requirement.
	givens := FixedValues{Cells: []int{0, 1, 2}, Values: []int{2, 3, 4}}
	quad := Quadruple{Cells: []int{0, 1, 2}, Values: []int{1}}
	built, err := Build(shape, []Constraint{givens, quad})
	require.NoError(t, err, "the conflict isn't statically detectable at build time")

	eng := engine.NewEngine(built.Shape, built.LT, built.Grid, built.Handlers, built.Excl, engine.NewSearchStats())
	ok, err := eng.IsSatisfiable(context.Background())
	require.NoError(t, err)
	require.False(t, ok, "none of the quad's cells can hold the required value 1")
}

func TestBuildModularLineForbidsSharedResidueWithinWindow(t *testing.T) {
	shape := fourByFourShape(t)
	modular := ModularLine{Cells: []int{0, 1}, Modulus: 2}
	givens := FixedValues{Cells: []int{0}, Values: []int{1}}
	built, err := Build(shape, []Constraint{givens, modular})
	require.NoError(t, err)

	eng := engine.NewEngine(built.Shape, built.LT, built.Grid, built.Handlers, built.Excl, engine.NewSearchStats())
	sol, found, err := eng.FindSolution(context.Background(), 0)
	require.NoError(t, err)
	require.True(t, found)
	require.NotEqual(t, sol[0]%2, sol[1]%2, "window cells must land in distinct residue classes mod 2")
}

func TestBuildRegionSumLineRequiresEqualSegmentTotals(t *testing.T) {
	shape := fourByFourShape(t)
	// Row 0 spans both 2x2 boxes: cells {0,1} in the left box, {2,3} in
	// the right box, two segments of equal length. Left unfixed so the
	// search itself must find a split where both segments total the
	// same (each half of a 1..4 row must sum to 5).
	line := RegionSumLine{Cells: []int{0, 1, 2, 3}}
	built, err := Build(shape, []Constraint{line})
	require.NoError(t, err)

	eng := engine.NewEngine(built.Shape, built.LT, built.Grid, built.Handlers, built.Excl, engine.NewSearchStats())
	sol, found, err := eng.FindSolution(context.Background(), 0)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, sol[0]+sol[1], sol[2]+sol[3], "both box segments of the region-sum line must total the same")
}

func TestBuildZipperLineRequiresEqualFoldedSums(t *testing.T) {
	shape := fourByFourShape(t)
	zipper := ZipperLine{Cells: []int{0, 1, 2, 3}}
	built, err := Build(shape, []Constraint{zipper})
	require.NoError(t, err)

	eng := engine.NewEngine(built.Shape, built.LT, built.Grid, built.Handlers, built.Excl, engine.NewSearchStats())
	sol, found, err := eng.FindSolution(context.Background(), 0)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, sol[0]+sol[3], sol[1]+sol[2], "folded pairs of a zipper line must share the same sum")
}

func TestBuildCountingCirclesWiresIndexingHandlers(t *testing.T) {
	shape := fourByFourShape(t)
	// Cell 15 (row3/col3/box3) and cells 0,4,8 (column 0, rows 0-2)
	// share no house, so the only interaction between circ and its
	// table runs through the Indexing handler itself.
	cc := CountingCircles{Cells: []int{0, 4, 8}, CircledCells: []int{15}}
	givens := FixedValues{Cells: []int{4}, Values: []int{2}}
	built, err := Build(shape, []Constraint{givens, cc})
	require.NoError(t, err)

	hasIndexing := false
	for _, h := range built.Handlers.Handlers() {
		if _, ok := h.(*engine.IndexingHandler); ok {
			hasIndexing = true
		}
	}
	require.True(t, hasIndexing, "CountingCircles must wire at least one IndexingHandler")

	eng := engine.NewEngine(built.Shape, built.LT, built.Grid, built.Handlers, built.Excl, engine.NewSearchStats())
	sol, found, err := eng.FindSolution(context.Background(), 0)
	require.NoError(t, err)
	require.True(t, found)

	idx := sol[15]
	table := []int{0, 4, 8}
	if idx >= 1 && idx <= len(table) {
		require.Equal(t, idx, sol[table[idx-1]], "circled cell's value must equal table[value-1]'s value")
	}
}
