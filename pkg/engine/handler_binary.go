package engine

import "fmt"

// BinaryHandler enforces an arbitrary relation over two cells, encoded
// as a per-value support table: Allowed[v] is the mask of values the
// other cell may hold when this cell holds v. Used to lower Kropki
// (white/black dot), XV, GreaterThan, Thermo-adjacent pairs, and
// little-killer diagonal steps.
//
// Filtering runs both directions — from a's remaining candidates to
// prune b, then from b's remaining candidates to prune a — since the
// table is supplied symmetric by the caller.
type BinaryHandler struct {
	a, b    int
	allowed [MaxValues + 1]Mask // allowed[v] = mask of values b may hold when a holds v (and vice versa, since the table is supplied symmetric by the caller)
	id      string

	// pairExclusionCells are cells mutually exclusive with both a and b
	// (populated during Initialize); when the relation is irreflexive
	// and non-transitive, values required in the pair get removed from
	// these cells too.
	pairExclusionCells []int
	irreflexive        bool
}

// NewBinaryHandler constructs a BinaryHandler over cells a, b. allowed
// must be indexed 1..numValues and symmetric: allowed[v] is the set of
// values the other cell may hold given this cell holds v.
func NewBinaryHandler(a, b int, allowed [MaxValues + 1]Mask, irreflexive bool, idSuffix string) (*BinaryHandler, error) {
	if a == b {
		return nil, fmt.Errorf("%w: BinaryHandler requires two distinct cells", ErrInvalidConstraint)
	}
	return &BinaryHandler{a: a, b: b, allowed: allowed, irreflexive: irreflexive, id: "Binary:" + idSuffix}, nil
}

func (h *BinaryHandler) Cells() []int   { return []int{h.a, h.b} }
func (h *BinaryHandler) Priority() int  { return 10 }
func (h *BinaryHandler) IDString() string { return h.id }

func (h *BinaryHandler) Initialize(grid *CellState, excl *CellExclusions, shape *GridShape, lt *LookupTables) (bool, error) {
	h.pairExclusionCells = excl.GetPairExclusions(h.a, h.b)
	return true, nil
}

func (h *BinaryHandler) EnforceConsistency(grid *CellState, lt *LookupTables, acc Accumulator) bool {
	ma, mb := grid.Get(h.a), grid.Get(h.b)

	var supportForB, supportForA Mask
	lt.ValueIter(ma, func(v int) { supportForB |= h.allowed[v] })
	lt.ValueIter(mb, func(v int) { supportForA |= h.allowed[v] })

	newB := mb.Intersect(supportForB)
	newA := ma.Intersect(supportForA)

	if newB != mb {
		if grid.Set(h.b, newB) {
			return false
		}
		acc.AddForCell(h.b)
		mb = newB
	}
	if newA != ma {
		if grid.Set(h.a, newA) {
			return false
		}
		acc.AddForCell(h.a)
		ma = newA
	}

	if h.irreflexive && ma.IsSingleton() && mb.IsSingleton() && len(h.pairExclusionCells) > 0 {
		required := ma.Union(mb)
		for _, c := range h.pairExclusionCells {
			m := grid.Get(c)
			if m&required == 0 {
				continue
			}
			if grid.Set(c, m.Without(required)) {
				return false
			}
			acc.AddForCell(c)
		}
	}
	return true
}

// BinaryPairwiseHandler applies the same binary relation to every pair
// among a list of cells (e.g. "no two orthogonally adjacent cells
// differ by exactly 5" across a whole region). It is a thin fan-out
// over BinaryHandler instances sharing one allowed table, grounded the
// same way AllDifferent fans a single pairwise rule out across a
// house.
type BinaryPairwiseHandler struct {
	cells   []int
	allowed [MaxValues + 1]Mask
	pairs   []*BinaryHandler
	id      string
}

// NewBinaryPairwiseHandler builds the constraint over every pair in
// cells.
func NewBinaryPairwiseHandler(cells []int, allowed [MaxValues + 1]Mask, irreflexive bool, idSuffix string) (*BinaryPairwiseHandler, error) {
	if len(cells) < 2 {
		return nil, fmt.Errorf("%w: BinaryPairwise needs at least two cells", ErrInvalidConstraint)
	}
	h := &BinaryPairwiseHandler{cells: append([]int(nil), cells...), allowed: allowed, id: "BinaryPairwise:" + idSuffix}
	for i := 0; i < len(cells); i++ {
		for j := i + 1; j < len(cells); j++ {
			bh, err := NewBinaryHandler(cells[i], cells[j], allowed, irreflexive, fmt.Sprintf("%s:%d:%d", idSuffix, cells[i], cells[j]))
			if err != nil {
				return nil, err
			}
			h.pairs = append(h.pairs, bh)
		}
	}
	return h, nil
}

func (h *BinaryPairwiseHandler) Cells() []int   { return h.cells }
func (h *BinaryPairwiseHandler) Priority() int  { return 15 }
func (h *BinaryPairwiseHandler) IDString() string { return h.id }

func (h *BinaryPairwiseHandler) Initialize(grid *CellState, excl *CellExclusions, shape *GridShape, lt *LookupTables) (bool, error) {
	for _, p := range h.pairs {
		if ok, err := p.Initialize(grid, excl, shape, lt); !ok {
			return false, err
		}
	}
	return true, nil
}

func (h *BinaryPairwiseHandler) EnforceConsistency(grid *CellState, lt *LookupTables, acc Accumulator) bool {
	for _, p := range h.pairs {
		if !p.EnforceConsistency(grid, lt, acc) {
			return false
		}
	}
	return true
}
