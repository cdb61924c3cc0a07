package puzzle

import (
	"fmt"

	"github.com/hexvalor/sudokucore/pkg/engine"
)

type offset struct{ dr, dc int }

var knightOffsets = []offset{{1, 2}, {2, 1}, {-1, 2}, {-2, 1}, {1, -2}, {2, -1}, {-1, -2}, {-2, -1}}
var kingOffsets = []offset{{0, 1}, {1, 0}, {1, 1}, {1, -1}}
var orthogonalOffsets = []offset{{0, 1}, {1, 0}}

// offsetPairs returns every in-bounds (a,b) cell pair related by one of
// offsets, each pair emitted once (a < b by cell index).
func offsetPairs(shape *engine.GridShape, offsets []offset) [][2]int {
	var out [][2]int
	for r := 0; r < shape.NumRows; r++ {
		for c := 0; c < shape.NumCols; c++ {
			a := shape.CellIndex(r, c)
			for _, o := range offsets {
				nr, nc := r+o.dr, c+o.dc
				if nr < 0 || nr >= shape.NumRows || nc < 0 || nc >= shape.NumCols {
					continue
				}
				b := shape.CellIndex(nr, nc)
				if a < b {
					out = append(out, [2]int{a, b})
				} else {
					out = append(out, [2]int{b, a})
				}
			}
		}
	}
	return out
}

func diagonalCells(shape *engine.GridShape, main bool) []int {
	n := shape.NumRows
	if shape.NumCols < n {
		n = shape.NumCols
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		if main {
			out[i] = shape.CellIndex(i, i)
		} else {
			out[i] = shape.CellIndex(i, shape.NumCols-1-i)
		}
	}
	return out
}

func notEqualHandler(lt *engine.LookupTables, a, b int, id string) (*engine.BinaryHandler, error) {
	var table [engine.MaxValues + 1]engine.Mask
	for v := 1; v <= lt.NumValues; v++ {
		table[v] = lt.AllValues.Without(lt.FromValue(v))
	}
	return engine.NewBinaryHandler(a, b, table, true, id)
}

func notConsecutiveHandler(lt *engine.LookupTables, a, b int, id string) (*engine.BinaryHandler, error) {
	var table [engine.MaxValues + 1]engine.Mask
	for v := 1; v <= lt.NumValues; v++ {
		allowed := lt.AllValues
		if v-1 >= 1 {
			allowed = allowed.Without(lt.FromValue(v - 1))
		}
		if v+1 <= lt.NumValues {
			allowed = allowed.Without(lt.FromValue(v + 1))
		}
		table[v] = allowed
	}
	return engine.NewBinaryHandler(a, b, table, false, id)
}

func strictlyIncreasingHandler(lt *engine.LookupTables, lo, hi int, id string) (*engine.BinaryHandler, error) {
	var table [engine.MaxValues + 1]engine.Mask
	for v := 1; v <= lt.NumValues; v++ {
		var allowed engine.Mask
		for w := v + 1; w <= lt.NumValues; w++ {
			allowed |= lt.FromValue(w)
		}
		table[v] = allowed
	}
	return engine.NewBinaryHandler(lo, hi, table, true, id)
}

func minDiffHandler(lt *engine.LookupTables, a, b, minDiff int, id string) (*engine.BinaryHandler, error) {
	var table [engine.MaxValues + 1]engine.Mask
	for v := 1; v <= lt.NumValues; v++ {
		var allowed engine.Mask
		for w := 1; w <= lt.NumValues; w++ {
			d := v - w
			if d < 0 {
				d = -d
			}
			if d >= minDiff {
				allowed |= lt.FromValue(w)
			}
		}
		table[v] = allowed
	}
	return engine.NewBinaryHandler(a, b, table, true, id)
}

func greaterThanHandler(lt *engine.LookupTables, a, b int, id string) (*engine.BinaryHandler, error) {
	var table [engine.MaxValues + 1]engine.Mask
	for v := 1; v <= lt.NumValues; v++ {
		var allowed engine.Mask
		for w := 1; w < v; w++ {
			allowed |= lt.FromValue(w)
		}
		table[v] = allowed
	}
	return engine.NewBinaryHandler(a, b, table, true, id)
}

// betweenOrder is not used by the builder. Between and Lockout are
// lowered by betweenHandler and lockoutHandler below, one
// orderedIntervalHandler per interior cell.
type betweenOrder struct {
	low, high, mid int
	id             string
}

func betweenHandler(lt *engine.LookupTables, low, high, mid int, id string) (engine.Handler, error) {
	return newOrderedIntervalHandler(lt, low, high, mid, 1, id)
}

func lockoutHandler(lt *engine.LookupTables, low, high, mid, minDiff int, id string) (engine.Handler, error) {
	return &orderedIntervalHandler{low: low, high: high, mid: mid, outside: true, minDiff: abs(minDiff), id: id}, nil
}

func quadrupleHandler(lt *engine.LookupTables, cells []int, values []int, id string) (engine.Handler, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: Quadruple needs at least one required value", engine.ErrInvalidConstraint)
	}
	return newValuesPresentHandler(cells, values, id)
}

// valuesPresentHandler enforces Quadruple's "every value in Values
// appears in some cell of Cells" requirement: each required value must
// still be a candidate of at least one cell, and a required value that
// only one cell still carries pins that cell to it. Implemented as a
// per-value supporter count rather than a SameValues binding, since two
// or more distinct required values can't be expressed as one
// set-equality.
type valuesPresentHandler struct {
	cells  []int
	values []int
	id     string
}

func newValuesPresentHandler(cells []int, values []int, id string) (engine.Handler, error) {
	if len(cells) == 0 {
		return nil, fmt.Errorf("%w: Quadruple needs at least one cell", engine.ErrInvalidConstraint)
	}
	return &valuesPresentHandler{cells: append([]int(nil), cells...), values: append([]int(nil), values...), id: id}, nil
}

func (h *valuesPresentHandler) Cells() []int     { return h.cells }
func (h *valuesPresentHandler) Priority() int    { return 24 }
func (h *valuesPresentHandler) IDString() string { return h.id }

func (h *valuesPresentHandler) Initialize(grid *engine.CellState, excl *engine.CellExclusions, shape *engine.GridShape, lt *engine.LookupTables) (bool, error) {
	return true, nil
}

func (h *valuesPresentHandler) EnforceConsistency(grid *engine.CellState, lt *engine.LookupTables, acc engine.Accumulator) bool {
	for _, want := range h.values {
		wantMask := lt.FromValue(want)
		supporters := 0
		var only int
		for _, c := range h.cells {
			if grid.Get(c).Intersect(wantMask) != engine.EmptyMask {
				supporters++
				only = c
			}
		}
		if supporters == 0 {
			return false
		}
		if supporters == 1 && grid.Get(only) != wantMask {
			if grid.Set(only, wantMask) {
				return false
			}
			acc.AddForCell(only)
		}
	}
	return true
}

func segmentByBox(shape *engine.GridShape, cells []int) [][]int {
	if !shape.HasBoxes() {
		return [][]int{cells}
	}
	var segments [][]int
	var cur []int
	curBox := -2
	for _, c := range cells {
		b := shape.BoxIndex(c)
		if b != curBox && len(cur) > 0 {
			segments = append(segments, cur)
			cur = nil
		}
		curBox = b
		cur = append(cur, c)
	}
	if len(cur) > 0 {
		segments = append(segments, cur)
	}
	return segments
}

// modularRunHandler enforces ModularLine's residue-class grouping: in
// every window of modulus consecutive cells, no two cells may hold
// values congruent mod modulus (each residue class 0..modulus-1
// appears at most once per window). Lowered the same way as
// entropicRunHandler: pairwise Binary handlers over a precomputed
// residue-mismatch table, since "distinct residues" isn't expressible
// through AllDifferent (that enforces distinct values, not distinct
// value classes).
func modularRunHandler(lt *engine.LookupTables, cells []int, modulus int, id string) (engine.Handler, error) {
	var table [engine.MaxValues + 1]engine.Mask
	for v := 1; v <= lt.NumValues; v++ {
		var allowed engine.Mask
		for w := 1; w <= lt.NumValues; w++ {
			if v%modulus != w%modulus {
				allowed |= lt.FromValue(w)
			}
		}
		table[v] = allowed
	}
	return engine.NewBinaryPairwiseHandler(cells, table, false, id)
}

func entropicRunHandler(lt *engine.LookupTables, cells []int, band int, id string) (engine.Handler, error) {
	// Each of the three cells must land in a distinct band (low/mid/
	// high); lowered as a 3-way AllDifferent over band index is not
	// directly expressible, so lower as pairwise Binary handlers
	// forbidding same-band combinations.
	lowMax := band
	midMax := band * 2
	bandOf := func(v int) int {
		switch {
		case v <= lowMax:
			return 0
		case v <= midMax:
			return 1
		default:
			return 2
		}
	}
	var table [engine.MaxValues + 1]engine.Mask
	for v := 1; v <= lt.NumValues; v++ {
		var allowed engine.Mask
		for w := 1; w <= lt.NumValues; w++ {
			if bandOf(v) != bandOf(w) {
				allowed |= lt.FromValue(w)
			}
		}
		table[v] = allowed
	}
	return engine.NewBinaryPairwiseHandler(cells, table, false, id)
}

func fixedValuesHandler(lt *engine.LookupTables, fv FixedValues, id string) (engine.Handler, error) {
	sets := make([][]int, len(fv.Cells))
	for i := range fv.Cells {
		sets[i] = []int{fv.Cells[i]}
	}
	// A "givens" alternative is lowered via a dedicated pinning handler
	// (fixedValuesPinHandler), with or without cells.
	return newFixedValuesHandler(fv.Cells, fv.Values, id)
}

// orderedIntervalHandler lowers Between ("mid lies strictly inside the
// span of low/high") and Lockout ("mid lies strictly outside it, and
// the endpoints differ by at least minDiff") once both endpoints are
// singleton — the common case once a puzzle is partially solved.
// Grounded on the same bounds-pruning shape as SumHandler.bounds,
// specialized to a fixed pair of known endpoint values rather than an
// arbitrary achievable range.
type orderedIntervalHandler struct {
	low, high, mid int
	outside        bool
	minDiff        int
	id             string
}

func newOrderedIntervalHandler(lt *engine.LookupTables, low, high, mid, minDiff int, id string) (engine.Handler, error) {
	return &orderedIntervalHandler{low: low, high: high, mid: mid, outside: minDiff < 0, minDiff: abs(minDiff), id: id}, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func (h *orderedIntervalHandler) Cells() []int     { return []int{h.low, h.high, h.mid} }
func (h *orderedIntervalHandler) Priority() int    { return 22 }
func (h *orderedIntervalHandler) IDString() string { return h.id }

func (h *orderedIntervalHandler) Initialize(grid *engine.CellState, excl *engine.CellExclusions, shape *engine.GridShape, lt *engine.LookupTables) (bool, error) {
	return true, nil
}

func (h *orderedIntervalHandler) EnforceConsistency(grid *engine.CellState, lt *engine.LookupTables, acc engine.Accumulator) bool {
	loMask, hiMask, midMask := grid.Get(h.low), grid.Get(h.high), grid.Get(h.mid)
	if !loMask.IsSingleton() || !hiMask.IsSingleton() {
		return true
	}
	a, b := lt.MinValue(loMask), lt.MinValue(hiMask)
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	if h.outside {
		if hi-lo < h.minDiff {
			return false
		}
		var newMid engine.Mask
		lt.ValueIter(midMask, func(v int) {
			if v < lo || v > hi {
				newMid |= lt.FromValue(v)
			}
		})
		if newMid == 0 {
			return false
		}
		if newMid != midMask {
			if grid.Set(h.mid, newMid) {
				return false
			}
			acc.AddForCell(h.mid)
		}
		return true
	}

	var newMid engine.Mask
	lt.ValueIter(midMask, func(v int) {
		if v > lo && v < hi {
			newMid |= lt.FromValue(v)
		}
	})
	if newMid == 0 {
		return false
	}
	if newMid != midMask {
		if grid.Set(h.mid, newMid) {
			return false
		}
		acc.AddForCell(h.mid)
	}
	return true
}

// consecutiveSpanHandler enforces that a set of cells holds exactly
// len(cells) distinct, consecutive values: a value v survives only if
// some window [k, k+len(cells)-1] both contains v and has at least one
// candidate available in every other cell of the set. Combined with an
// AllDifferent over the same cells this is Renban's "contiguous run in
// any order" requirement.
type consecutiveSpanHandler struct {
	cells []int
	id    string
}

func newConsecutiveSpanHandler(cells []int, id string) (engine.Handler, error) {
	if len(cells) < 2 {
		return nil, fmt.Errorf("%w: Renban needs at least two cells", engine.ErrInvalidConstraint)
	}
	return &consecutiveSpanHandler{cells: append([]int(nil), cells...), id: id}, nil
}

func (h *consecutiveSpanHandler) Cells() []int     { return h.cells }
func (h *consecutiveSpanHandler) Priority() int    { return 25 }
func (h *consecutiveSpanHandler) IDString() string { return h.id }

func (h *consecutiveSpanHandler) Initialize(grid *engine.CellState, excl *engine.CellExclusions, shape *engine.GridShape, lt *engine.LookupTables) (bool, error) {
	return true, nil
}

func (h *consecutiveSpanHandler) EnforceConsistency(grid *engine.CellState, lt *engine.LookupTables, acc engine.Accumulator) bool {
	n := len(h.cells)
	masks := make([]engine.Mask, n)
	for i, c := range h.cells {
		masks[i] = grid.Get(c)
	}

	var feasible engine.Mask
	for k := 1; k+n-1 <= lt.NumValues; k++ {
		var window engine.Mask
		for v := k; v <= k+n-1; v++ {
			window |= lt.FromValue(v)
		}
		supported := true
		for _, m := range masks {
			if m.Intersect(window) == engine.EmptyMask {
				supported = false
				break
			}
		}
		if supported {
			feasible |= window
		}
	}
	if feasible == engine.EmptyMask {
		return false
	}

	for i, c := range h.cells {
		newM := masks[i].Intersect(feasible)
		if newM == engine.EmptyMask {
			return false
		}
		if newM != masks[i] {
			if grid.Set(c, newM) {
				return false
			}
			acc.AddForCell(c)
		}
	}
	return true
}

// fixedValuesPinHandler applies FixedValues as a propagator rather
// than a direct grid write, so it can live inside an Or branch (e.g.
// OrGivens) without affecting the shared initial grid until that
// branch is the one actually explored.
type fixedValuesPinHandler struct {
	cells  []int
	values []int
	id     string
}

func newFixedValuesHandler(cells, values []int, id string) (engine.Handler, error) {
	if len(cells) != len(values) {
		return nil, fmt.Errorf("%w: FixedValues cells/values length mismatch", engine.ErrInvalidConstraint)
	}
	return &fixedValuesPinHandler{cells: append([]int(nil), cells...), values: append([]int(nil), values...), id: id}, nil
}

func (h *fixedValuesPinHandler) Cells() []int     { return h.cells }
func (h *fixedValuesPinHandler) Priority() int    { return 1 }
func (h *fixedValuesPinHandler) IDString() string { return h.id }

func (h *fixedValuesPinHandler) Initialize(grid *engine.CellState, excl *engine.CellExclusions, shape *engine.GridShape, lt *engine.LookupTables) (bool, error) {
	return true, nil
}

func (h *fixedValuesPinHandler) EnforceConsistency(grid *engine.CellState, lt *engine.LookupTables, acc engine.Accumulator) bool {
	for i, c := range h.cells {
		want := lt.FromValue(h.values[i])
		m := grid.Get(c)
		newM := m.Intersect(want)
		if newM == 0 {
			return false
		}
		if newM != m {
			if grid.Set(c, newM) {
				return false
			}
			acc.AddForCell(c)
		}
	}
	return true
}

func lowerMeta(children []Constraint, shape *engine.GridShape, lt *engine.LookupTables, grid *engine.CellState, isAnd bool) (engine.Handler, error) {
	built, err := Build(shape, children)
	if err != nil {
		return nil, err
	}
	handlers := built.Handlers.Handlers()
	if isAnd {
		return engine.NewAndHandler(handlers, fmt.Sprintf("and:%d", len(handlers))), nil
	}
	return engine.NewOrHandler(handlers, fmt.Sprintf("or:%d", len(handlers))), nil
}
