package engine

import "testing"

func TestSameValuesHandlerIntersectsUnions(t *testing.T) {
	lt := NewLookupTables(4)
	grid := NewCellState(4, lt.AllValues)
	excl := NewCellExclusions(4)

	// set A = {0,1}, set B = {2,3}; restrict set A's union to {1,2}.
	grid.Set(0, lt.FromValue(1))
	grid.Set(1, lt.FromValue(2))

	h, err := NewSameValuesHandler([][]int{{0, 1}, {2, 3}}, "t")
	if err != nil {
		t.Fatalf("NewSameValuesHandler: %v", err)
	}
	if ok, err := h.Initialize(grid, excl, nil, lt); !ok || err != nil {
		t.Fatalf("Initialize: ok=%v err=%v", ok, err)
	}

	sink := &discardAccumulator{}
	if !h.EnforceConsistency(grid, lt, sink) {
		t.Fatalf("expected consistent propagation")
	}
	want := lt.FromValue(1) | lt.FromValue(2)
	if grid.Get(2) != want || grid.Get(3) != want {
		t.Fatalf("expected set B restricted to {1,2}, got %v %v", grid.Get(2), grid.Get(3))
	}
}

func TestSameValuesHandlerRejectsSizeMismatch(t *testing.T) {
	if _, err := NewSameValuesHandler([][]int{{0, 1}, {2}}, "t"); err == nil {
		t.Fatalf("expected an error for mismatched set sizes")
	}
}

func TestSameValuesHandlerRejectsOverlappingSets(t *testing.T) {
	if _, err := NewSameValuesHandler([][]int{{0, 1}, {1, 2}}, "t"); err == nil {
		t.Fatalf("expected an error for overlapping sets")
	}
}

func TestSameValuesHandlerHiddenSinglePinning(t *testing.T) {
	lt := NewLookupTables(4)
	grid := NewCellState(4, lt.AllValues)
	excl := NewCellExclusions(4)

	// Both sets internally all-different.
	excl.AddAllDifferent([]int{0, 1})
	excl.AddAllDifferent([]int{2, 3})

	grid.Set(0, lt.FromValue(1)|lt.FromValue(2))
	grid.Set(1, lt.FromValue(1)|lt.FromValue(2))
	grid.Set(2, lt.FromValue(1))
	grid.Set(3, lt.FromValue(1)|lt.FromValue(2))

	h, err := NewSameValuesHandler([][]int{{0, 1}, {2, 3}}, "t")
	if err != nil {
		t.Fatalf("NewSameValuesHandler: %v", err)
	}
	if ok, err := h.Initialize(grid, excl, nil, lt); !ok || err != nil {
		t.Fatalf("Initialize: ok=%v err=%v", ok, err)
	}

	sink := &discardAccumulator{}
	if !h.EnforceConsistency(grid, lt, sink) {
		t.Fatalf("expected consistent propagation")
	}
	// common mask is {1,2} (size 2 = set size); value 2 hosts only in
	// cell 3 within set B, so it must pin there.
	if grid.Get(3) != lt.FromValue(2) {
		t.Fatalf("expected hidden single to pin cell 3 to {2}, got %v", grid.Get(3))
	}
}
