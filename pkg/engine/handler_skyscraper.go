package engine

import "fmt"

// SkyscraperHandler enforces a visibility clue along an ordered line
// of cells: the number of left-to-right prefix maxima must equal a
// required count v, and the line's achievable maximum value must be
// at least the line length.
//
// Propagation uses forward/backward reachability over a state space of
// (currentMax, visibleCount) pairs — the same two-pass filtering shape
// as DFALineHandler's (state, position) reachability, since
// "visible-count so far, max so far" is itself a small automaton over
// the line.
type SkyscraperHandler struct {
	cells      []int
	visibility int
	id         string
}

// NewSkyscraperHandler constructs a Skyscraper handler over an ordered
// line of cells, requiring exactly `visibility` prefix maxima.
func NewSkyscraperHandler(cells []int, visibility int, idSuffix string) (*SkyscraperHandler, error) {
	if len(cells) == 0 {
		return nil, fmt.Errorf("%w: Skyscraper has no cells", ErrInvalidConstraint)
	}
	if visibility < 1 || visibility > len(cells) {
		return nil, fmt.Errorf("%w: Skyscraper visibility %d out of range [1,%d]", ErrInvalidConstraint, visibility, len(cells))
	}
	return &SkyscraperHandler{cells: append([]int(nil), cells...), visibility: visibility, id: fmt.Sprintf("Skyscraper:%v:%d", cells, visibility)}, nil
}

func (h *SkyscraperHandler) Cells() []int   { return h.cells }
func (h *SkyscraperHandler) Priority() int  { return 5 }
func (h *SkyscraperHandler) IDString() string { return h.id }

func (h *SkyscraperHandler) Initialize(grid *CellState, excl *CellExclusions, shape *GridShape, lt *LookupTables) (bool, error) {
	if lt.NumValues < len(h.cells) {
		return false, fmt.Errorf("%w: Skyscraper line of %d cells needs numValues >= %d", ErrInvalidConstraint, len(h.cells), len(h.cells))
	}
	return true, nil
}

func (h *SkyscraperHandler) EnforceConsistency(grid *CellState, lt *LookupTables, acc Accumulator) bool {
	k := len(h.cells)
	v := h.visibility

	// v == 1: the first cell must be the line's global maximum.
	if v == 1 {
		m := grid.Get(h.cells[0])
		top := lt.FromValue(lt.NumValues)
		if m&top == 0 {
			return false
		}
		if m != top {
			if grid.Set(h.cells[0], top) {
				return false
			}
			acc.AddForCell(h.cells[0])
		}
	}

	// v == k: the line is strictly ascending; enforce pairwise ordering.
	if v == k {
		for i := 0; i+1 < k; i++ {
			a, b := h.cells[i], h.cells[i+1]
			ma, mb := grid.Get(a), grid.Get(b)
			var newA, newB Mask
			lt.ValueIter(ma, func(val int) {
				if val < lt.MaxValue(mb) {
					newA |= lt.FromValue(val)
				}
			})
			lt.ValueIter(mb, func(val int) {
				if val > lt.MinValue(ma) {
					newB |= lt.FromValue(val)
				}
			})
			if newA != ma {
				if grid.Set(a, newA) {
					return false
				}
				acc.AddForCell(a)
			}
			if newB != mb {
				if grid.Set(b, newB) {
					return false
				}
				acc.AddForCell(b)
			}
		}
	}

	// Once the line maximum is pinned at some position p, no later cell
	// may hold it.
	top := lt.FromValue(lt.NumValues)
	for i := 0; i < k; i++ {
		if grid.Get(h.cells[i]) != top {
			continue
		}
		for j := i + 1; j < k; j++ {
			m := grid.Get(h.cells[j])
			if m&top == 0 {
				continue
			}
			if grid.Set(h.cells[j], m.Without(top)) {
				return false
			}
			acc.AddForCell(h.cells[j])
		}
		break
	}

	doms := make([]Mask, k)
	for i, c := range h.cells {
		doms[i] = grid.Get(c)
	}
	maxVal := lt.NumValues

	// Forward reachable (currentMax, visibleCount) states.
	type state struct{ m, c int }
	F := make([][]bool, k+1) // F[i][m*(v+1)+c]
	width := v + 1
	for i := range F {
		F[i] = make([]bool, (maxVal+1)*width)
	}
	idx := func(m, c int) int { return m*width + c }
	F[0][idx(0, 0)] = true

	for i := 1; i <= k; i++ {
		lt.ValueIter(doms[i-1], func(val int) {
			for m := 0; m <= maxVal; m++ {
				for c := 0; c <= v; c++ {
					if !F[i-1][idx(m, c)] {
						continue
					}
					newM := m
					newC := c
					if val > m {
						newM = val
						newC = c + 1
					}
					if newC > v {
						continue
					}
					F[i][idx(newM, newC)] = true
				}
			}
		})
		if !anyTrue(F[i]) {
			return false
		}
	}
	if !hasAnyMaxAtCount(F[k], maxVal, v, width) {
		return false
	}

	// Backward acceptable states: end states with count==v; max can be
	// any value that the remaining domains were able to reach (the
	// forward pass already restricts reachable max to <= maxVal).
	B := make([][]bool, k+1)
	for i := range B {
		B[i] = make([]bool, (maxVal+1)*width)
	}
	anyAccept := false
	for m := 0; m <= maxVal; m++ {
		if F[k][idx(m, v)] {
			B[k][idx(m, v)] = true
			anyAccept = true
		}
	}
	if !anyAccept {
		return false
	}

	for i := k; i >= 1; i-- {
		var supported Mask
		for m := 0; m <= maxVal; m++ {
			for c := 0; c <= v; c++ {
				if !F[i-1][idx(m, c)] {
					continue
				}
				lt.ValueIter(doms[i-1], func(val int) {
					newM := m
					newC := c
					if val > m {
						newM = val
						newC = c + 1
					}
					if newC > v || newM > maxVal {
						return
					}
					if B[i][idx(newM, newC)] {
						supported |= lt.FromValue(val)
						B[i-1][idx(m, c)] = true
					}
				})
			}
		}
		if supported == 0 {
			return false
		}
		pruned := doms[i-1].Intersect(supported)
		if pruned == 0 {
			return false
		}
		if pruned != doms[i-1] {
			c := h.cells[i-1]
			if grid.Set(c, pruned) {
				return false
			}
			acc.AddForCell(c)
			doms[i-1] = pruned
		}
		if !anyTrue(B[i-1]) {
			return false
		}
	}
	return true
}

func hasAnyMaxAtCount(f []bool, maxVal, v, width int) bool {
	for m := 0; m <= maxVal; m++ {
		if f[m*width+v] {
			return true
		}
	}
	return false
}
