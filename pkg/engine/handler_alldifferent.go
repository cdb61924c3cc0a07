package engine

import "fmt"

// AllDifferentHandler enforces that its cells hold pairwise distinct
// values. Initialize detects overflow (more cells than available
// values, an immediate InvalidConstraintError case) and registers the
// all-pairs mutual exclusion; EnforceConsistency removes singleton
// values from their mutually-exclusive neighbors (naked-single
// elimination).
//
// Most of the heavy lifting is delegated to CellExclusions and the
// generic handlers that consult it; this handler itself stays thin.
type AllDifferentHandler struct {
	cells []int
	id    string
}

// NewAllDifferentHandler constructs the handler over cells, rejecting
// an empty cell list. The case where more cells are present than the
// grid has values for is rejected later, by Initialize.
func NewAllDifferentHandler(cells []int, idSuffix string) (*AllDifferentHandler, error) {
	if len(cells) == 0 {
		return nil, fmt.Errorf("%w: AllDifferent has no cells", ErrInvalidConstraint)
	}
	return &AllDifferentHandler{cells: append([]int(nil), cells...), id: "AllDifferent:" + idSuffix}, nil
}

func (h *AllDifferentHandler) Cells() []int   { return h.cells }
func (h *AllDifferentHandler) Priority() int  { return 50 }
func (h *AllDifferentHandler) IDString() string { return h.id }

func (h *AllDifferentHandler) Initialize(grid *CellState, excl *CellExclusions, shape *GridShape, lt *LookupTables) (bool, error) {
	if len(h.cells) > lt.NumValues {
		return false, fmt.Errorf("%w: AllDifferent over %d cells exceeds %d values", ErrInvalidConstraint, len(h.cells), lt.NumValues)
	}
	if err := excl.AddAllDifferent(h.cells); err != nil {
		return false, err
	}
	return true, nil
}

func (h *AllDifferentHandler) EnforceConsistency(grid *CellState, lt *LookupTables, acc Accumulator) bool {
	for _, c := range h.cells {
		m := grid.Get(c)
		if !m.IsSingleton() {
			continue
		}
		for _, other := range h.cells {
			if other == c {
				continue
			}
			om := grid.Get(other)
			if om&m == 0 {
				continue
			}
			if grid.Set(other, om.Without(m)) {
				return false
			}
			acc.AddForCell(other)
		}
	}
	return true
}
