package engine

import "fmt"

// SameValuesHandler enforces that k disjoint equal-size cell sets take
// the same multiset of values: intersect the union-of-candidates across
// sets first, then, when every set is internally all-different (checked
// via CellExclusions), require that a value pinned to exactly one cell
// in one set is pinned somewhere in every other set too.
//
// The internally-all-different check is a one-time, possibly expensive
// determination, so Initialize computes it once into uniform rather
// than recomputing it on every EnforceConsistency call. Once a call
// leaves every cell singleton, allPinned makes later calls return true
// immediately.
type SameValuesHandler struct {
	sets       [][]int
	cells      []int
	id         string
	uniform    bool // every set internally all-different
	allPinned  bool // one-shot: sets have already been fully resolved
}

// NewSameValuesHandler constructs a SameValues handler over k disjoint
// equal-size sets. Initialize rejects a size mismatch.
func NewSameValuesHandler(sets [][]int, idSuffix string) (*SameValuesHandler, error) {
	if len(sets) < 2 {
		return nil, fmt.Errorf("%w: SameValues needs at least two sets", ErrInvalidConstraint)
	}
	m := len(sets[0])
	if m == 0 {
		return nil, fmt.Errorf("%w: SameValues sets must be non-empty", ErrInvalidConstraint)
	}
	var all []int
	seen := make(map[int]bool)
	for _, s := range sets {
		if len(s) != m {
			return nil, fmt.Errorf("%w: SameValues set size mismatch (%d vs %d)", ErrInvalidConstraint, len(s), m)
		}
		for _, c := range s {
			if seen[c] {
				return nil, fmt.Errorf("%w: SameValues sets must be disjoint (cell %d repeated)", ErrInvalidConstraint, c)
			}
			seen[c] = true
			all = append(all, c)
		}
	}
	return &SameValuesHandler{
		sets:  sets,
		cells: all,
		id:    fmt.Sprintf("SameValues:%s", idSuffix),
	}, nil
}

func (h *SameValuesHandler) Cells() []int   { return h.cells }
func (h *SameValuesHandler) Priority() int  { return 40 }
func (h *SameValuesHandler) IDString() string { return h.id }

func (h *SameValuesHandler) Initialize(grid *CellState, excl *CellExclusions, shape *GridShape, lt *LookupTables) (bool, error) {
	h.uniform = true
	for _, s := range h.sets {
		for i := 0; i < len(s) && h.uniform; i++ {
			for j := i + 1; j < len(s); j++ {
				if !excl.IsMutuallyExclusive(s[i], s[j]) {
					h.uniform = false
					break
				}
			}
		}
	}
	return true, nil
}

func (h *SameValuesHandler) EnforceConsistency(grid *CellState, lt *LookupTables, acc Accumulator) bool {
	if h.allPinned {
		return true
	}

	// Union of candidates per set, then intersect across sets: no value
	// absent from any set's union may appear in any set.
	unions := make([]Mask, len(h.sets))
	for si, s := range h.sets {
		var u Mask
		for _, c := range s {
			u |= grid.Get(c)
		}
		unions[si] = u
	}
	var common Mask = unions[0]
	for _, u := range unions[1:] {
		common = common.Intersect(u)
	}
	if common == 0 {
		return false
	}

	allSingleton := true
	for _, s := range h.sets {
		for _, c := range s {
			m := grid.Get(c)
			newM := m.Intersect(common)
			if newM == 0 {
				return false
			}
			if newM != m {
				if grid.Set(c, newM) {
					return false
				}
				acc.AddForCell(c)
			}
			if !newM.IsSingleton() {
				allSingleton = false
			}
		}
	}

	// When every set is internally all-different and the common mask
	// has shrunk to exactly m values, every such value is required
	// somewhere in every set (a Hall-style exact cover over m cells and
	// m values). Within each set, a value with only one hosting
	// candidate is then a hidden single: pin it.
	m := len(h.sets[0])
	if h.uniform && lt.Popcount(common) == m {
		contradiction := false
		for _, s := range h.sets {
			lt.ValueIter(common, func(v int) {
				if contradiction {
					return
				}
				bit := lt.FromValue(v)
				hostCell, hostCount := -1, 0
				for _, c := range s {
					if grid.Get(c)&bit != 0 {
						hostCount++
						hostCell = c
					}
				}
				if hostCount == 1 {
					cur := grid.Get(hostCell)
					if cur != bit {
						if grid.Set(hostCell, bit) {
							contradiction = true
							return
						}
						acc.AddForCell(hostCell)
					}
				}
			})
			if contradiction {
				return false
			}
		}
	}

	if allSingleton {
		h.allPinned = true
	}
	return true
}
