package engine

import "testing"

func TestCellStateSetAndRestore(t *testing.T) {
	lt := NewLookupTables(9)
	grid := NewCellState(3, lt.AllValues)

	cp := grid.Checkpoint()
	if contradiction := grid.Set(0, lt.FromValue(5)); contradiction {
		t.Fatalf("unexpected contradiction setting cell 0 to 5")
	}
	if grid.Get(0) != lt.FromValue(5) {
		t.Fatalf("cell 0 not set to singleton 5")
	}

	grid.RestoreTo(cp)
	if grid.Get(0) != lt.AllValues {
		t.Fatalf("restore did not undo the set")
	}
}

func TestCellStateContradiction(t *testing.T) {
	lt := NewLookupTables(9)
	grid := NewCellState(1, lt.AllValues)

	if contradiction := grid.Set(0, EmptyMask); !contradiction {
		t.Fatalf("expected contradiction when setting empty mask")
	}
}

func TestCellStateAllSingleton(t *testing.T) {
	lt := NewLookupTables(4)
	grid := NewCellState(2, lt.AllValues)

	if grid.AllSingleton(lt) {
		t.Fatalf("fresh grid should not be all-singleton")
	}
	grid.Set(0, lt.FromValue(1))
	grid.Set(1, lt.FromValue(2))
	if !grid.AllSingleton(lt) {
		t.Fatalf("grid with every cell pinned should be all-singleton")
	}
}

func TestCellStateCloneIsIndependent(t *testing.T) {
	lt := NewLookupTables(9)
	grid := NewCellState(2, lt.AllValues)
	grid.Set(0, lt.FromValue(3))

	clone := grid.Clone()
	clone.Set(1, lt.FromValue(7))

	if grid.Get(1) == lt.FromValue(7) {
		t.Fatalf("mutating a clone must not affect the original")
	}
	if clone.Get(0) != lt.FromValue(3) {
		t.Fatalf("clone should start with the original's masks")
	}
}
