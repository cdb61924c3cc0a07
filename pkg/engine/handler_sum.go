package engine

import "fmt"

// shortCageLimit is the cell count at or below which SumHandler adds
// exact combination enumeration to bounds-only inference.
const shortCageLimit = 8

// SumHandler is the Sum/Cage constraint: cells, each with a
// coefficient (default 1), must sum to a target. Bounds consistency
// runs on every cage size; exact combination enumeration additionally
// runs on cages at or below shortCageLimit when every pair of cells is
// known mutually exclusive (the classic killer-cage case). An optional
// complement (the rest of the enclosing house) gets the mirrored sum
// constraint houseSum - sum.
//
// The bounds-tightening arithmetic (sign-aware admissible-interval
// computation) is extended here with combination enumeration and
// complement handling for the cage case: a cage propagates directly
// against its own target rather than an explicit total variable.
type SumHandler struct {
	cells      []int
	coeffs     []int
	sum        int
	complement []int
	houseSum   int
	id         string

	exclusive bool // every pair of cells[i] is mutually exclusive
}

// NewSumHandler constructs a Sum/Cage handler. coeffs may be nil,
// meaning every cell has coefficient 1.
func NewSumHandler(cells []int, sum int, coeffs []int, idSuffix string) (*SumHandler, error) {
	if len(cells) == 0 {
		return nil, fmt.Errorf("%w: Sum has no cells", ErrInvalidConstraint)
	}
	if coeffs == nil {
		coeffs = make([]int, len(cells))
		for i := range coeffs {
			coeffs[i] = 1
		}
	}
	if len(coeffs) != len(cells) {
		return nil, fmt.Errorf("%w: Sum coeffs length %d != cells length %d", ErrInvalidConstraint, len(coeffs), len(cells))
	}
	return &SumHandler{
		cells:  append([]int(nil), cells...),
		coeffs: append([]int(nil), coeffs...),
		sum:    sum,
		id:     fmt.Sprintf("Sum:%v:%d", cells, sum),
	}, nil
}

// SetComplementCells registers the rest of an enclosing house. The
// house's fixed total (e.g. NumValues*(NumValues+1)/2 for a row) is
// set separately with SetHouseSum.
func (h *SumHandler) SetComplementCells(cells []int) { h.complement = append([]int(nil), cells...) }

// SetHouseSum records the target total for the complement's implied
// sum (houseSum - sum).
func (h *SumHandler) SetHouseSum(houseSum int) { h.houseSum = houseSum }

// Target returns the cage's required sum (before any complement
// adjustment), used by the builder's redundancy-elimination pass.
func (h *SumHandler) Target() int { return h.sum }

func (h *SumHandler) Cells() []int {
	if len(h.complement) == 0 {
		return h.cells
	}
	return append(append([]int(nil), h.cells...), h.complement...)
}
func (h *SumHandler) Priority() int    { return 20 }
func (h *SumHandler) IDString() string { return h.id }

func (h *SumHandler) Initialize(grid *CellState, excl *CellExclusions, shape *GridShape, lt *LookupTables) (bool, error) {
	minSum, maxSum := h.bounds(grid, lt, h.cells, h.coeffs)
	if h.sum < minSum || h.sum > maxSum {
		return false, fmt.Errorf("%w: Sum target %d unreachable (range [%d,%d])", ErrInvalidConstraint, h.sum, minSum, maxSum)
	}
	h.exclusive = true
	for i := 0; i < len(h.cells) && h.exclusive; i++ {
		for j := i + 1; j < len(h.cells); j++ {
			if !excl.IsMutuallyExclusive(h.cells[i], h.cells[j]) {
				h.exclusive = false
				break
			}
		}
	}
	return true, nil
}

// bounds computes the min/max achievable weighted sum given current
// candidate masks, sign-aware per coefficient.
func (h *SumHandler) bounds(grid *CellState, lt *LookupTables, cells, coeffs []int) (minSum, maxSum int) {
	for i, c := range cells {
		coeff := coeffs[i]
		m := grid.Get(c)
		lo, hi := lt.MinValue(m), lt.MaxValue(m)
		if coeff >= 0 {
			minSum += coeff * lo
			maxSum += coeff * hi
		} else {
			minSum += coeff * hi
			maxSum += coeff * lo
		}
	}
	return
}

func (h *SumHandler) EnforceConsistency(grid *CellState, lt *LookupTables, acc Accumulator) bool {
	if !h.enforceGroup(grid, lt, acc, h.cells, h.coeffs, h.sum, h.exclusive) {
		return false
	}
	if len(h.complement) > 0 {
		coeffs := make([]int, len(h.complement))
		for i := range coeffs {
			coeffs[i] = 1
		}
		if !h.enforceGroup(grid, lt, acc, h.complement, coeffs, h.houseSum-h.sum, false) {
			return false
		}
	}
	return true
}

func (h *SumHandler) enforceGroup(grid *CellState, lt *LookupTables, acc Accumulator, cells, coeffs []int, target int, exclusive bool) bool {
	minSum, maxSum := h.bounds(grid, lt, cells, coeffs)
	if target < minSum || target > maxSum {
		return false
	}

	for i, c := range cells {
		coeff := coeffs[i]
		if coeff == 0 {
			continue
		}
		otherMin, otherMax := 0, 0
		for j, c2 := range cells {
			if j == i {
				continue
			}
			coeff2 := coeffs[j]
			m := grid.Get(c2)
			lo, hi := lt.MinValue(m), lt.MaxValue(m)
			if coeff2 >= 0 {
				otherMin += coeff2 * lo
				otherMax += coeff2 * hi
			} else {
				otherMin += coeff2 * hi
				otherMax += coeff2 * lo
			}
		}
		// coeff*value(c) must land in [target-otherMax, target-otherMin]
		lowBound := target - otherMax
		highBound := target - otherMin

		m := grid.Get(c)
		var newMask Mask
		lt.ValueIter(m, func(v int) {
			term := coeff * v
			if term >= lowBound && term <= highBound {
				newMask |= lt.FromValue(v)
			}
		})
		if newMask != m {
			if grid.Set(c, newMask) {
				return false
			}
			acc.AddForCell(c)
		}
	}

	if exclusive && len(cells) <= shortCageLimit {
		newMasks, ok := h.exactCombinations(grid, lt, cells, coeffs, target)
		if !ok {
			return false
		}
		for i, c := range cells {
			if newMasks[i] != grid.Get(c) {
				if grid.Set(c, newMasks[i]) {
					return false
				}
				acc.AddForCell(c)
			}
		}
	}
	return true
}

// exactCombinations enumerates every assignment of distinct values to
// cells (each drawn from its current mask) whose coefficient-weighted
// sum equals target, and returns the per-position union of values that
// appear in at least one valid combination. ok is false iff no
// combination exists.
func (h *SumHandler) exactCombinations(grid *CellState, lt *LookupTables, cells, coeffs []int, target int) ([]Mask, bool) {
	n := len(cells)
	masks := make([]Mask, n)
	for i, c := range cells {
		masks[i] = grid.Get(c)
	}
	nonNeg := true
	for _, k := range coeffs {
		if k < 0 {
			nonNeg = false
		}
	}
	supported := make([]Mask, n)
	found := false

	var used Mask
	assignment := make([]int, n)

	var rec func(pos, remaining int)
	rec = func(pos, remaining int) {
		if pos == n {
			if remaining == 0 {
				found = true
				for i, v := range assignment {
					supported[i] |= lt.FromValue(v)
				}
			}
			return
		}
		lt.ValueIter(masks[pos], func(v int) {
			bit := lt.FromValue(v)
			if used&bit != 0 {
				return
			}
			term := coeffs[pos] * v
			if nonNeg && remaining-term < 0 {
				return
			}
			used |= bit
			assignment[pos] = v
			rec(pos+1, remaining-term)
			used &^= bit
		})
	}
	rec(0, target)
	return supported, found
}
