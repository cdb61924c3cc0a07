package engine

import "testing"

func TestSumHandlerBoundsPruning(t *testing.T) {
	lt := NewLookupTables(9)
	grid := NewCellState(2, lt.AllValues)
	excl := NewCellExclusions(2)
	if err := excl.AddMutualExclusion(0, 1); err != nil {
		t.Fatalf("AddMutualExclusion: %v", err)
	}

	h, err := NewSumHandler([]int{0, 1}, 4, nil, "t")
	if err != nil {
		t.Fatalf("NewSumHandler: %v", err)
	}
	if ok, err := h.Initialize(grid, excl, nil, lt); !ok || err != nil {
		t.Fatalf("Initialize failed: ok=%v err=%v", ok, err)
	}

	sink := &discardAccumulator{}
	if !h.EnforceConsistency(grid, lt, sink) {
		t.Fatalf("expected consistent propagation")
	}

	// Two distinct cells summing to 4 with values in [1,9]: only {1,3} pairs.
	want := lt.FromValue(1) | lt.FromValue(3)
	if grid.Get(0) != want || grid.Get(1) != want {
		t.Fatalf("expected bounds/exact pruning to {1,3}, got %v %v", grid.Get(0), grid.Get(1))
	}
}

func TestSumHandlerUnreachableTargetRejectedAtInit(t *testing.T) {
	lt := NewLookupTables(4)
	grid := NewCellState(1, lt.AllValues)
	excl := NewCellExclusions(1)

	h, err := NewSumHandler([]int{0}, 100, nil, "t")
	if err != nil {
		t.Fatalf("NewSumHandler: %v", err)
	}
	if ok, err := h.Initialize(grid, excl, nil, lt); ok || err == nil {
		t.Fatalf("expected Initialize to reject an unreachable target")
	}
}

func TestSumHandlerComplement(t *testing.T) {
	lt := NewLookupTables(4)
	grid := NewCellState(4, lt.AllValues)
	excl := NewCellExclusions(4)

	h, err := NewSumHandler([]int{0, 1}, 3, nil, "t")
	if err != nil {
		t.Fatalf("NewSumHandler: %v", err)
	}
	h.SetComplementCells([]int{2, 3})
	h.SetHouseSum(10) // 1+2+3+4
	if ok, err := h.Initialize(grid, excl, nil, lt); !ok || err != nil {
		t.Fatalf("Initialize failed: ok=%v err=%v", ok, err)
	}

	sink := &discardAccumulator{}
	if !h.EnforceConsistency(grid, lt, sink) {
		t.Fatalf("expected consistent propagation")
	}
	// complement cells {2,3} must sum to 10-3=7, so within [1,4] that's {3,4}.
	want := lt.FromValue(3) | lt.FromValue(4)
	if grid.Get(2) != want || grid.Get(3) != want {
		t.Fatalf("expected complement cells pruned to {3,4}, got %v %v", grid.Get(2), grid.Get(3))
	}
}
