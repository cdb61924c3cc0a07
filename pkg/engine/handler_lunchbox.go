package engine

import "fmt"

// LunchboxHandler is a line whose two extreme-value "bread" cells
// bound a contiguous interior summing to a target. Two sub-cases are
// distinguished by whether the line is a full house (cells ==
// numValues, bread values are the fixed 1 and NumValues) or a short
// non-house line (bread values are whatever pair of candidates can
// bound the required interior sum).
//
// Propagation enumerates candidate bread placements directly — bread
// *positions* in the house case, bread *value pairs* in the short-line
// case — the same combinatorial-enumeration shape SumHandler uses for
// exact cage sums, applied here to bread placement instead of a full
// value assignment.
type LunchboxHandler struct {
	cells    []int
	target   int
	isHouse  bool
	id       string
}

// NewLunchboxHandler constructs a Lunchbox handler. isHouse marks the
// cells==numValues case where bread values are fixed at 1 and
// numValues; otherwise bread values are derived from candidates.
func NewLunchboxHandler(cells []int, target int, isHouse bool, idSuffix string) (*LunchboxHandler, error) {
	if len(cells) < 2 {
		return nil, fmt.Errorf("%w: Lunchbox needs at least two cells", ErrInvalidConstraint)
	}
	if target < 0 {
		return nil, fmt.Errorf("%w: Lunchbox target must be non-negative, got %d", ErrInvalidConstraint, target)
	}
	return &LunchboxHandler{cells: append([]int(nil), cells...), target: target, isHouse: isHouse, id: fmt.Sprintf("Lunchbox:%s:%d", idSuffix, target)}, nil
}

func (h *LunchboxHandler) Cells() []int   { return h.cells }
func (h *LunchboxHandler) Priority() int  { return 8 }
func (h *LunchboxHandler) IDString() string { return h.id }

func (h *LunchboxHandler) Initialize(grid *CellState, excl *CellExclusions, shape *GridShape, lt *LookupTables) (bool, error) {
	n := len(h.cells)
	maxInterior := 0
	for i := 1; i < n-1; i++ {
		maxInterior += lt.NumValues
	}
	if h.target > maxInterior && n > 2 {
		return false, fmt.Errorf("%w: Lunchbox target %d exceeds max interior sum %d", ErrInvalidConstraint, h.target, maxInterior)
	}
	if n == 2 && h.target != 0 {
		return false, fmt.Errorf("%w: Lunchbox with two cells must have target 0 (no interior)", ErrInvalidConstraint)
	}
	return true, nil
}

func (h *LunchboxHandler) EnforceConsistency(grid *CellState, lt *LookupTables, acc Accumulator) bool {
	n := len(h.cells)
	doms := make([]Mask, n)
	for i, c := range h.cells {
		doms[i] = grid.Get(c)
	}

	// Handle the degenerate 2-cell, sum=0 case directly: the two cells
	// are the bread ends with nothing between them, no sum constraint.
	if n == 2 {
		return true
	}

	var breadLo, breadHi Mask
	if h.isHouse {
		breadLo = lt.FromValue(1)
		breadHi = lt.FromValue(lt.NumValues)
	} else {
		// Short non-house line: bread values are simply the two
		// extremal values actually taken by the line's cells; any
		// pair of candidate values across any two positions may serve
		// as bread, so we enumerate over value pairs rather than a
		// fixed lo/hi mask.
		breadLo = 0
		breadHi = 0
	}

	supported := make([]Mask, n)
	found := false

	tryPositions := func(leftPos, rightPos, loVal, hiVal int) {
		sumMin, sumMax := 0, 0
		for p := leftPos + 1; p < rightPos; p++ {
			sumMin += lt.MinValue(doms[p])
			sumMax += lt.MaxValue(doms[p])
		}
		if h.target < sumMin || h.target > sumMax {
			return
		}
		// Exact enumeration of the interior when small enough;
		// otherwise accept the bounds check as sufficient support.
		interior := rightPos - leftPos - 1
		if interior == 0 {
			if h.target != 0 {
				return
			}
			found = true
			supported[leftPos] |= lt.FromValue(loVal)
			supported[rightPos] |= lt.FromValue(hiVal)
			return
		}
		if interior > shortCageLimit {
			found = true
			supported[leftPos] |= lt.FromValue(loVal)
			supported[rightPos] |= lt.FromValue(hiVal)
			for p := leftPos + 1; p < rightPos; p++ {
				supported[p] |= doms[p]
			}
			return
		}
		cells := make([]int, interior)
		for i := range cells {
			cells[i] = leftPos + 1 + i
		}
		innerMasks := make([]Mask, interior)
		for i, p := range cells {
			innerMasks[i] = doms[p]
		}
		var used Mask
		assignment := make([]int, interior)
		var rec func(pos, remaining int)
		rec = func(pos, remaining int) {
			if pos == interior {
				if remaining == 0 {
					found = true
					supported[leftPos] |= lt.FromValue(loVal)
					supported[rightPos] |= lt.FromValue(hiVal)
					for i, v := range assignment {
						supported[cells[i]] |= lt.FromValue(v)
					}
				}
				return
			}
			lt.ValueIter(innerMasks[pos], func(v int) {
				bit := lt.FromValue(v)
				if used&bit != 0 || remaining-v < 0 {
					return
				}
				used |= bit
				assignment[pos] = v
				rec(pos+1, remaining-v)
				used &^= bit
			})
		}
		rec(0, h.target)
	}

	if h.isHouse {
		for lp := 0; lp < n; lp++ {
			if doms[lp]&breadLo == 0 {
				continue
			}
			for rp := 0; rp < n; rp++ {
				if rp == lp || doms[rp]&breadHi == 0 {
					continue
				}
				lo, hi := lp, rp
				if lo > hi {
					lo, hi = hi, lo
				}
				tryPositions(lo, hi, 1, lt.NumValues)
			}
		}
	} else {
		for lp := 0; lp < n; lp++ {
			for rp := lp + 1; rp < n; rp++ {
				lt.ValueIter(doms[lp], func(loVal int) {
					lt.ValueIter(doms[rp], func(hiVal int) {
						if loVal >= hiVal {
							return
						}
						tryPositions(lp, rp, loVal, hiVal)
					})
				})
			}
		}
	}

	if !found {
		return false
	}
	for i, c := range h.cells {
		if supported[i] == 0 {
			return false
		}
		if supported[i] != doms[i] {
			newMask := doms[i].Intersect(supported[i])
			if newMask == 0 {
				return false
			}
			if grid.Set(c, newMask) {
				return false
			}
			acc.AddForCell(c)
		}
	}
	return true
}
