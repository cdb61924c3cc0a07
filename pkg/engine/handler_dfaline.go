package engine

import "fmt"

// DFALineHandler enforces that the sequence of values along an ordered
// list of cells forms a word accepted by an opaque DFA. The DFA itself
// is consumed as a transition table; building one from a regex/NFA is
// the caller's concern, not this handler's.
//
// Propagation runs two passes per position: forward-reachable (which
// states can be entered by some prefix of allowed values) and
// backward-acceptable (which states can still reach an accept state
// given some suffix of allowed values). A value survives only if some
// state pair compatible with both passes has a transition through it.
type DFALineHandler struct {
	cells  []int
	states int
	start  int
	accept []bool // 1-based, length states+1
	deltaI [][]int
	id     string
}

// NewDFALineHandler constructs a DFA-line handler. delta must have
// `states` rows, each indexed 1..alphabetMax (index 0 unused), with
// delta[s][v] giving the next state or 0 for "no transition".
func NewDFALineHandler(cells []int, states, start int, acceptStates []int, delta [][]int, idSuffix string) (*DFALineHandler, error) {
	if len(cells) == 0 {
		return nil, fmt.Errorf("%w: DFALine has no cells", ErrInvalidConstraint)
	}
	if states < 1 || start < 1 || start > states {
		return nil, fmt.Errorf("%w: DFALine invalid state count/start", ErrInvalidConstraint)
	}
	if len(delta) != states {
		return nil, fmt.Errorf("%w: DFALine delta must have %d rows", ErrInvalidConstraint, states)
	}
	accept := make([]bool, states+1)
	for _, a := range acceptStates {
		if a < 1 || a > states {
			return nil, fmt.Errorf("%w: DFALine accept state %d out of range", ErrInvalidConstraint, a)
		}
		accept[a] = true
	}
	return &DFALineHandler{
		cells:  append([]int(nil), cells...),
		states: states,
		start:  start,
		accept: accept,
		deltaI: delta,
		id:     "DFALine:" + idSuffix,
	}, nil
}

func (h *DFALineHandler) Cells() []int   { return h.cells }
func (h *DFALineHandler) Priority() int  { return 30 }
func (h *DFALineHandler) IDString() string { return h.id }

func (h *DFALineHandler) Initialize(grid *CellState, excl *CellExclusions, shape *GridShape, lt *LookupTables) (bool, error) {
	return true, nil
}

// EnforceConsistency returns false iff any position's allowed mask
// becomes empty.
func (h *DFALineHandler) EnforceConsistency(grid *CellState, lt *LookupTables, acc Accumulator) bool {
	n := len(h.cells)
	doms := make([]Mask, n)
	for i, c := range h.cells {
		doms[i] = grid.Get(c)
	}

	// Forward reachable states F[i][s], 0 <= i <= n, 1 <= s <= states.
	F := make([][]bool, n+1)
	for i := range F {
		F[i] = make([]bool, h.states+1)
	}
	F[0][h.start] = true
	for i := 1; i <= n; i++ {
		lt.ValueIter(doms[i-1], func(sym int) {
			if sym >= len(h.deltaI[0]) {
				return
			}
			for s := 1; s <= h.states; s++ {
				if !F[i-1][s] {
					continue
				}
				ns := h.deltaI[s-1][sym]
				if ns != 0 {
					F[i][ns] = true
				}
			}
		})
		if !anyTrue(F[i]) {
			return false
		}
	}

	// Backward acceptable states B[i][s], seeded from accepting states
	// that are forward reachable at n.
	B := make([][]bool, n+1)
	for i := range B {
		B[i] = make([]bool, h.states+1)
	}
	anyAccept := false
	for s := 1; s <= h.states; s++ {
		if h.accept[s] && F[n][s] {
			B[n][s] = true
			anyAccept = true
		}
	}
	if !anyAccept {
		return false
	}

	for i := n; i >= 1; i-- {
		var supported Mask
		for s := 1; s <= h.states; s++ {
			if !F[i-1][s] {
				continue
			}
			lt.ValueIter(doms[i-1], func(sym int) {
				if sym >= len(h.deltaI[0]) {
					return
				}
				ns := h.deltaI[s-1][sym]
				if ns != 0 && B[i][ns] {
					supported |= lt.FromValue(sym)
					B[i-1][s] = true
				}
			})
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

func anyTrue(bs []bool) bool {
	for _, b := range bs {
		if b {
			return true
		}
	}
	return false
}
