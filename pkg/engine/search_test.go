package engine

import (
	"context"
	"testing"
)

// buildLatin2 builds a 2x2 Latin-square engine (rows and columns
// all-different, values 1..2, no boxes) — small enough to enumerate by
// hand: exactly two solutions exist.
func buildLatin2(t *testing.T) *Engine {
	t.Helper()
	shape, err := NewGridShape(2, 2, 2, 0, 0)
	if err != nil {
		t.Fatalf("NewGridShape: %v", err)
	}
	lt := NewLookupTables(2)
	grid := NewCellState(shape.NumCells(), lt.AllValues)
	excl := NewCellExclusions(shape.NumCells())

	var handlers []Handler
	for i, row := range shape.Rows() {
		h, err := NewAllDifferentHandler(row, "row")
		if err != nil {
			t.Fatalf("row %d: %v", i, err)
		}
		handlers = append(handlers, h)
	}
	for i, col := range shape.Cols() {
		h, err := NewAllDifferentHandler(col, "col")
		if err != nil {
			t.Fatalf("col %d: %v", i, err)
		}
		handlers = append(handlers, h)
	}
	for _, h := range handlers {
		if ok, err := h.Initialize(grid, excl, shape, lt); !ok || err != nil {
			t.Fatalf("Initialize: ok=%v err=%v", ok, err)
		}
	}

	set := NewHandlerSet(handlers, shape.NumCells())
	return NewEngine(shape, lt, grid, set, excl, NewSearchStats())
}

func TestEngineFindSolution(t *testing.T) {
	eng := buildLatin2(t)
	sol, found, err := eng.FindSolution(context.Background(), 0)
	if err != nil {
		t.Fatalf("FindSolution: %v", err)
	}
	if !found {
		t.Fatalf("expected a solution")
	}
	if sol[0] == sol[1] || sol[0] == sol[2] || sol[1] == sol[3] || sol[2] == sol[3] {
		t.Fatalf("solution violates row/col all-different: %v", sol)
	}
}

func TestEngineCountSolutions(t *testing.T) {
	eng := buildLatin2(t)
	n, err := eng.CountSolutions(context.Background(), 0)
	if err != nil {
		t.Fatalf("CountSolutions: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected exactly 2 Latin squares of order 2, got %d", n)
	}
}

func TestEngineSolveAllPossibilities(t *testing.T) {
	eng := buildLatin2(t)
	support, err := eng.SolveAllPossibilities(context.Background(), 0)
	if err != nil {
		t.Fatalf("SolveAllPossibilities: %v", err)
	}
	for i, m := range support {
		if m != eng.LT.AllValues {
			t.Fatalf("cell %d: expected both values to be true candidates, got mask %v", i, m)
		}
	}
}

func TestEngineIsSatisfiable(t *testing.T) {
	eng := buildLatin2(t)
	ok, err := eng.IsSatisfiable(context.Background())
	if err != nil {
		t.Fatalf("IsSatisfiable: %v", err)
	}
	if !ok {
		t.Fatalf("expected satisfiable")
	}
}

func TestEngineStepIsResumable(t *testing.T) {
	eng := buildLatin2(t)
	steps := 0
	for !eng.Done() {
		if _, err := eng.Step(context.Background()); err != nil {
			t.Fatalf("Step: %v", err)
		}
		steps++
		if steps > 1000 {
			t.Fatalf("search did not terminate")
		}
	}
	if steps == 0 {
		t.Fatalf("expected at least one step")
	}
}

func TestEngineCancellation(t *testing.T) {
	eng := buildLatin2(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := eng.Step(ctx)
	if err != ErrCancelled {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}
