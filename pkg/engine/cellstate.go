package engine

// cellChange records a single trailed mutation: cell c held priorMask
// before being overwritten.
type cellChange struct {
	cell      int
	priorMask Mask
}

// CellState is the dense packed-bitmask grid plus its undo trail. All
// mutation flows through Set so every write is trailed; Checkpoint and
// RestoreTo give O(1)/O(k) chronological backtracking.
type CellState struct {
	masks []Mask
	trail []cellChange
}

// NewCellState allocates a grid of n cells, all initialized to
// allValues (the caller passes LookupTables.AllValues).
func NewCellState(n int, allValues Mask) *CellState {
	masks := make([]Mask, n)
	for i := range masks {
		masks[i] = allValues
	}
	return &CellState{masks: masks, trail: make([]cellChange, 0, n*4)}
}

// Len returns the number of cells.
func (g *CellState) Len() int { return len(g.masks) }

// Get returns the current candidate mask of a cell.
func (g *CellState) Get(cell int) Mask { return g.masks[cell] }

// Set writes newMask to cell. If it differs from the current mask the
// prior value is trailed first. Returns true iff the resulting mask is
// empty (a contradiction) — the caller is responsible for aborting
// propagation/search on a true return; RestoreTo still works correctly
// because the empty mask itself was trailed.
func (g *CellState) Set(cell int, newMask Mask) (contradiction bool) {
	if newMask == g.masks[cell] {
		return newMask == EmptyMask
	}
	g.trail = append(g.trail, cellChange{cell: cell, priorMask: g.masks[cell]})
	g.masks[cell] = newMask
	return newMask == EmptyMask
}

// Intersect narrows cell's mask to its intersection with m. Returns
// true iff the result is empty.
func (g *CellState) Intersect(cell int, m Mask) (contradiction bool) {
	return g.Set(cell, g.masks[cell].Intersect(m))
}

// Remove clears value v from cell's mask. Returns true iff the result
// is empty.
func (g *CellState) Remove(cell int, v int, lt *LookupTables) (contradiction bool) {
	return g.Set(cell, g.masks[cell].Without(lt.FromValue(v)))
}

// Checkpoint returns a token recording the current trail length.
func (g *CellState) Checkpoint() int { return len(g.trail) }

// RestoreTo undoes every trailed mutation recorded since checkpoint,
// restoring the grid to its state at that checkpoint. Complexity is
// O(k) in the number of mutations undone.
func (g *CellState) RestoreTo(checkpoint int) {
	for i := len(g.trail) - 1; i >= checkpoint; i-- {
		ch := g.trail[i]
		g.masks[ch.cell] = ch.priorMask
	}
	g.trail = g.trail[:checkpoint]
}

// AllSingleton reports whether every cell currently holds exactly one
// candidate (a complete, contradiction-free assignment).
func (g *CellState) AllSingleton(lt *LookupTables) bool {
	for _, m := range g.masks {
		if !m.IsSingleton() {
			return false
		}
	}
	return true
}

// Snapshot copies the current mask array (used to seed true-candidates
// unions and to report solutions without aliasing live state).
func (g *CellState) Snapshot() []Mask {
	out := make([]Mask, len(g.masks))
	copy(out, g.masks)
	return out
}

// Clone produces an independent CellState with the same masks and an
// empty trail — used when a handler (Or/And) needs to explore a branch
// without disturbing the caller's trail discipline.
func (g *CellState) Clone() *CellState {
	return &CellState{masks: g.Snapshot(), trail: make([]cellChange, 0, 16)}
}
