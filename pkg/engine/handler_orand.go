package engine

// orAndFixedDepth bounds how many times a single branch re-runs its
// child handler's EnforceConsistency while exploring an Or branch,
// since child handlers may need more than one pass to reach a fixed
// point themselves.
const orAndFixedDepth = 8

// discardAccumulator swallows AddForCell calls made while exploring an
// Or branch on a cloned grid — the branch's watched handlers are not
// re-triggered by writes local to the clone.
type discardAccumulator struct{}

func (discardAccumulator) AddForCell(cell int) {}

// AndHandler is the conjunction meta-handler: every child handler must
// hold. Simply runs each child's Initialize/EnforceConsistency in turn
// against the shared live grid.
type AndHandler struct {
	children []Handler
	cells    []int
	id       string
}

// NewAndHandler constructs an And handler over child handlers.
func NewAndHandler(children []Handler, idSuffix string) *AndHandler {
	h := &AndHandler{children: children, id: "And:" + idSuffix}
	seen := make(map[int]bool)
	for _, c := range children {
		for _, cell := range c.Cells() {
			if !seen[cell] {
				seen[cell] = true
				h.cells = append(h.cells, cell)
			}
		}
	}
	return h
}

func (h *AndHandler) Cells() []int   { return h.cells }
func (h *AndHandler) Priority() int  { return 45 }
func (h *AndHandler) IDString() string { return h.id }

func (h *AndHandler) Initialize(grid *CellState, excl *CellExclusions, shape *GridShape, lt *LookupTables) (bool, error) {
	for _, c := range h.children {
		ok, err := c.Initialize(grid, excl, shape, lt)
		if !ok {
			return false, err
		}
	}
	return true, nil
}

func (h *AndHandler) EnforceConsistency(grid *CellState, lt *LookupTables, acc Accumulator) bool {
	for _, c := range h.children {
		if !c.EnforceConsistency(grid, lt, acc) {
			return false
		}
	}
	return true
}

// OrHandler is the disjunction meta-handler: at least one child must
// hold. Propagation may only remove a value from a cell if every
// satisfiable branch would also remove it. Implemented by cloning the
// grid once per child, running that child's EnforceConsistency to a
// fixed depth on the clone, discarding branches that contradict, and
// intersecting the clone's cells back in as a union of the surviving
// branches' masks.
type OrHandler struct {
	children []Handler
	cells    []int
	id       string
}

// NewOrHandler constructs an Or handler over child handlers.
func NewOrHandler(children []Handler, idSuffix string) *OrHandler {
	h := &OrHandler{children: children, id: "Or:" + idSuffix}
	seen := make(map[int]bool)
	for _, c := range children {
		for _, cell := range c.Cells() {
			if !seen[cell] {
				seen[cell] = true
				h.cells = append(h.cells, cell)
			}
		}
	}
	return h
}

func (h *OrHandler) Cells() []int   { return h.cells }
func (h *OrHandler) Priority() int  { return 50 }
func (h *OrHandler) IDString() string { return h.id }

func (h *OrHandler) Initialize(grid *CellState, excl *CellExclusions, shape *GridShape, lt *LookupTables) (bool, error) {
	// Each branch must independently be a well-formed constraint; a
	// child that rejects the puzzle statically makes that branch
	// impossible but does not make the whole disjunction impossible
	// unless every branch rejects.
	anyOK := false
	for _, c := range h.children {
		ok, _ := c.Initialize(grid, excl, shape, lt)
		if ok {
			anyOK = true
		}
	}
	if !anyOK {
		return false, nil
	}
	return true, nil
}

func (h *OrHandler) EnforceConsistency(grid *CellState, lt *LookupTables, acc Accumulator) bool {
	unioned := make(map[int]Mask, len(h.cells))

	survivedAny := false
	for _, child := range h.children {
		branch := grid.Clone()
		ok := true
		for pass := 0; pass < orAndFixedDepth && ok; pass++ {
			if !child.EnforceConsistency(branch, lt, discardAccumulator{}) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		survivedAny = true
		for _, cell := range h.cells {
			unioned[cell] |= branch.Get(cell)
		}
	}

	if !survivedAny {
		return false
	}

	for _, cell := range h.cells {
		m := grid.Get(cell)
		newM := m.Intersect(unioned[cell])
		if newM == 0 {
			return false
		}
		if newM != m {
			if grid.Set(cell, newM) {
				return false
			}
			acc.AddForCell(cell)
		}
	}
	return true
}
