package engine

import "fmt"

// IndexingHandler enforces result = table[index], where index is a
// cell whose value (1-based) selects a position in table (a fixed
// list of cells), and result is the cell constrained to equal the
// selected cell's value. Covers both surface forms the builder lowers
// to it — cell-indexing or value-indexing a row/column.
//
// Clamps the index mask to positions that are still in range and
// prunes both ways: result's candidates are narrowed to what the
// currently-possible table slots can hold, and each table slot's
// candidates are narrowed by result whenever index is pinned to it.
type IndexingHandler struct {
	index  int
	table  []int
	result int
	cells  []int
	id     string
}

// NewIndexingHandler constructs an Indexing handler. table must be
// non-empty; index's value range is clamped to [1, len(table)] by
// Initialize.
func NewIndexingHandler(index int, table []int, result int, idSuffix string) (*IndexingHandler, error) {
	if len(table) == 0 {
		return nil, fmt.Errorf("%w: Indexing table is empty", ErrInvalidConstraint)
	}
	cells := append([]int{index, result}, table...)
	return &IndexingHandler{
		index:  index,
		table:  append([]int(nil), table...),
		result: result,
		cells:  cells,
		id:     fmt.Sprintf("Indexing:%d:%v:%d:%s", index, table, result, idSuffix),
	}, nil
}

func (h *IndexingHandler) Cells() []int   { return h.cells }
func (h *IndexingHandler) Priority() int  { return 25 }
func (h *IndexingHandler) IDString() string { return h.id }

func (h *IndexingHandler) Initialize(grid *CellState, excl *CellExclusions, shape *GridShape, lt *LookupTables) (bool, error) {
	n := len(h.table)
	clamp := EmptyMask
	for v := 1; v <= n && v <= lt.NumValues; v++ {
		clamp |= lt.FromValue(v)
	}
	m := grid.Get(h.index)
	newM := m.Intersect(clamp)
	if newM == 0 {
		return false, fmt.Errorf("%w: Indexing index domain incompatible with table size %d", ErrInvalidConstraint, n)
	}
	if newM != m {
		grid.Set(h.index, newM)
	}
	return true, nil
}

func (h *IndexingHandler) EnforceConsistency(grid *CellState, lt *LookupTables, acc Accumulator) bool {
	idxMask := grid.Get(h.index)
	resultMask := grid.Get(h.result)

	// Forward: result must be supported by some index choice whose
	// selected table cell can produce a matching value.
	var supportedResult Mask
	var supportedIndex Mask
	lt.ValueIter(idxMask, func(pos int) {
		if pos < 1 || pos > len(h.table) {
			return
		}
		slotMask := grid.Get(h.table[pos-1])
		if slotMask&resultMask != 0 {
			supportedIndex |= lt.FromValue(pos)
			supportedResult |= slotMask & resultMask
		}
	})

	if supportedIndex == 0 || supportedResult == 0 {
		return false
	}
	if supportedIndex != idxMask {
		if grid.Set(h.index, supportedIndex) {
			return false
		}
		acc.AddForCell(h.index)
	}
	if supportedResult != resultMask {
		if grid.Set(h.result, supportedResult) {
			return false
		}
		acc.AddForCell(h.result)
	}

	// When the index is pinned, the selected slot must agree with
	// result in both directions.
	if supportedIndex.IsSingleton() {
		pos := lt.MinValue(supportedIndex)
		slot := h.table[pos-1]
		slotMask := grid.Get(slot)
		newSlot := slotMask.Intersect(supportedResult)
		if newSlot == 0 {
			return false
		}
		if newSlot != slotMask {
			if grid.Set(slot, newSlot) {
				return false
			}
			acc.AddForCell(slot)
		}
	}
	return true
}
