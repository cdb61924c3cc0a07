package puzzle

import (
	"fmt"
	"sort"

	"github.com/hexvalor/sudokucore/pkg/engine"
)

// Built is everything a solve needs: the shape, lookup tables, handler
// set, cell exclusions, and the starting grid (with FixedValues/Given
// already pinned before the caller runs the first propagation).
type Built struct {
	Shape    *engine.GridShape
	LT       *engine.LookupTables
	Grid     *engine.CellState
	Handlers *engine.HandlerSet
	Excl     *engine.CellExclusions
}

// Build lowers a parsed constraint tree into engine handlers: a
// per-tag switch appends each clue's handler(s) to one flat list,
// followed by two cleanup passes — deduplication by IDString and
// Sum-over-full-house redundancy elimination.
func Build(shape *engine.GridShape, constraints []Constraint) (*Built, error) {
	flat := flatten(constraints)

	effectiveShape := shape
	noBoxes := false
	for _, c := range flat {
		switch v := c.(type) {
		case Shape:
			var err error
			effectiveShape, err = engine.NewGridShape(v.NumRows, v.NumCols, v.NumValues, v.BoxHeight, v.BoxWidth)
			if err != nil {
				return nil, err
			}
		case NoBoxes:
			noBoxes = true
		}
	}

	lt := engine.NewLookupTables(effectiveShape.NumValues)
	grid := engine.NewCellState(effectiveShape.NumCells(), lt.AllValues)
	excl := engine.NewCellExclusions(effectiveShape.NumCells())

	var handlers []engine.Handler
	var jigsawRegions [][]int
	windokuRegions := [][]int{}

	addHouseAllDifferent := func(cells []int, idSuffix string) error {
		h, err := engine.NewAllDifferentHandler(cells, idSuffix)
		if err != nil {
			return err
		}
		handlers = append(handlers, h)
		return nil
	}

	for _, c := range flat {
		switch v := c.(type) {
		case FixedValues:
			for i, cell := range v.Cells {
				if err := pin(grid, lt, cell, v.Values[i]); err != nil {
					return nil, err
				}
			}
		case Given:
			if err := pin(grid, lt, v.Cell, v.Value); err != nil {
				return nil, err
			}
		case AllDifferent:
			if err := addHouseAllDifferent(v.Cells, fmt.Sprintf("%v", v.Cells)); err != nil {
				return nil, err
			}
		case Jigsaw:
			jigsawRegions = v.Regions
		case Diagonal:
			if v.Main {
				cells := diagonalCells(effectiveShape, true)
				if err := addHouseAllDifferent(cells, "diag:main"); err != nil {
					return nil, err
				}
			}
			if v.Anti {
				cells := diagonalCells(effectiveShape, false)
				if err := addHouseAllDifferent(cells, "diag:anti"); err != nil {
					return nil, err
				}
			}
		case AntiKnight:
			for _, pair := range offsetPairs(effectiveShape, knightOffsets) {
				h, err := notEqualHandler(lt, pair[0], pair[1], fmt.Sprintf("antiknight:%d:%d", pair[0], pair[1]))
				if err != nil {
					return nil, err
				}
				handlers = append(handlers, h)
			}
		case AntiKing:
			for _, pair := range offsetPairs(effectiveShape, kingOffsets) {
				h, err := notEqualHandler(lt, pair[0], pair[1], fmt.Sprintf("antiking:%d:%d", pair[0], pair[1]))
				if err != nil {
					return nil, err
				}
				handlers = append(handlers, h)
			}
		case AntiConsecutive:
			for _, pair := range offsetPairs(effectiveShape, orthogonalOffsets) {
				h, err := notConsecutiveHandler(lt, pair[0], pair[1], fmt.Sprintf("anticonsec:%d:%d", pair[0], pair[1]))
				if err != nil {
					return nil, err
				}
				handlers = append(handlers, h)
			}
		case NoBoxes:
			// handled above via the noBoxes flag
		case Windoku:
			windokuRegions = append(windokuRegions, v.Regions...)
		case RegionSize:
			// accepted and ignored: the builder trusts region
			// definitions supplied by Jigsaw/Windoku and does not
			// check their cardinality.
			_ = v
		case Cage:
			h, err := engine.NewSumHandler(v.Cells, v.Sum, v.Coeffs, fmt.Sprintf("%v:%d", v.Cells, v.Sum))
			if err != nil {
				return nil, err
			}
			handlers = append(handlers, h)
		case Thermo:
			cells := append([]int{v.Bulb}, v.Stem...)
			for i := 0; i+1 < len(cells); i++ {
				h, err := strictlyIncreasingHandler(lt, cells[i], cells[i+1], fmt.Sprintf("thermo:%d:%d", cells[i], cells[i+1]))
				if err != nil {
					return nil, err
				}
				handlers = append(handlers, h)
			}
		case Arrow:
			coeffs := make([]int, len(v.Cells)+1)
			cells := append(append([]int(nil), v.Cells...), v.Head)
			for i := range v.Cells {
				coeffs[i] = 1
			}
			coeffs[len(v.Cells)] = -1
			h, err := engine.NewSumHandler(cells, 0, coeffs, fmt.Sprintf("arrow:%d", v.Head))
			if err != nil {
				return nil, err
			}
			handlers = append(handlers, h)
		case DoubleArrow:
			coeffs := make([]int, len(v.Cells)+2)
			cells := append(append([]int(nil), v.Cells...), v.Head1, v.Head2)
			for i := range v.Cells {
				coeffs[i] = 1
			}
			coeffs[len(v.Cells)] = -1
			coeffs[len(v.Cells)+1] = -1
			h, err := engine.NewSumHandler(cells, 0, coeffs, fmt.Sprintf("doublearrow:%d:%d", v.Head1, v.Head2))
			if err != nil {
				return nil, err
			}
			handlers = append(handlers, h)
		case PillArrow:
			// The pill's value is not a single cell's candidate, so
			// lower conservatively to a Sum over the last (units)
			// digit cell only, which is the dominant constraint for
			// single/double-digit grids; fuller base-N pill decoding
			// is out of scope for the propagation core.
			if len(v.HeadCells) == 0 {
				return nil, fmt.Errorf("%w: PillArrow needs at least one head cell", engine.ErrInvalidConstraint)
			}
			unitsHead := v.HeadCells[len(v.HeadCells)-1]
			coeffs := make([]int, len(v.Cells)+1)
			cells := append(append([]int(nil), v.Cells...), unitsHead)
			for i := range v.Cells {
				coeffs[i] = 1
			}
			coeffs[len(v.Cells)] = -1
			h, err := engine.NewSumHandler(cells, 0, coeffs, fmt.Sprintf("pillarrow:%d", unitsHead))
			if err != nil {
				return nil, err
			}
			handlers = append(handlers, h)
		case Whisper:
			for i := 0; i+1 < len(v.Cells); i++ {
				h, err := minDiffHandler(lt, v.Cells[i], v.Cells[i+1], v.MinDiff, fmt.Sprintf("whisper:%d:%d", v.Cells[i], v.Cells[i+1]))
				if err != nil {
					return nil, err
				}
				handlers = append(handlers, h)
			}
		case GermanWhispers:
			for i := 0; i+1 < len(v.Cells); i++ {
				h, err := minDiffHandler(lt, v.Cells[i], v.Cells[i+1], 5, fmt.Sprintf("germanwhisper:%d:%d", v.Cells[i], v.Cells[i+1]))
				if err != nil {
					return nil, err
				}
				handlers = append(handlers, h)
			}
		case Palindrome:
			n := len(v.Cells)
			for i := 0; i < n/2; i++ {
				s, err := engine.NewSameValuesHandler([][]int{{v.Cells[i]}, {v.Cells[n-1-i]}}, fmt.Sprintf("palindrome:%d:%d", v.Cells[i], v.Cells[n-1-i]))
				if err != nil {
					return nil, err
				}
				handlers = append(handlers, s)
			}
		case Renban:
			if err := addHouseAllDifferent(v.Cells, fmt.Sprintf("renban-ad:%v", v.Cells)); err != nil {
				return nil, err
			}
			h, err := newConsecutiveSpanHandler(v.Cells, fmt.Sprintf("renban-span:%v", v.Cells))
			if err != nil {
				return nil, err
			}
			handlers = append(handlers, h)
		case Between:
			for _, cell := range v.Cells {
				h, err := betweenHandler(lt, v.Low, v.High, cell, fmt.Sprintf("between:%d:%d:%d", v.Low, v.High, cell))
				if err != nil {
					return nil, err
				}
				handlers = append(handlers, h)
			}
		case Lockout:
			for _, cell := range v.Cells {
				h, err := lockoutHandler(lt, v.Low, v.High, cell, v.MinDiff, fmt.Sprintf("lockout:%d:%d:%d", v.Low, v.High, cell))
				if err != nil {
					return nil, err
				}
				handlers = append(handlers, h)
			}
		case LittleKiller:
			h, err := engine.NewSumHandler(v.Cells, v.Sum, nil, fmt.Sprintf("littlekiller:%v:%d", v.Cells, v.Sum))
			if err != nil {
				return nil, err
			}
			handlers = append(handlers, h)
		case Sandwich:
			h, err := engine.NewLunchboxHandler(v.Cells, v.Sum, true, fmt.Sprintf("sandwich:%v:%d", v.Cells, v.Sum))
			if err != nil {
				return nil, err
			}
			handlers = append(handlers, h)
		case Skyscraper:
			h, err := engine.NewSkyscraperHandler(v.Cells, v.Visibility, fmt.Sprintf("%v:%d", v.Cells, v.Visibility))
			if err != nil {
				return nil, err
			}
			handlers = append(handlers, h)
		case Lunchbox:
			h, err := engine.NewLunchboxHandler(v.Cells, v.Sum, v.IsHouse, fmt.Sprintf("%v:%d", v.Cells, v.Sum))
			if err != nil {
				return nil, err
			}
			handlers = append(handlers, h)
		case Kropki:
			var table [engine.MaxValues + 1]engine.Mask
			for val := 1; val <= lt.NumValues; val++ {
				var allowed engine.Mask
				if v.White {
					if val-1 >= 1 {
						allowed |= lt.FromValue(val - 1)
					}
					if val+1 <= lt.NumValues {
						allowed |= lt.FromValue(val + 1)
					}
				} else {
					if val*2 <= lt.NumValues {
						allowed |= lt.FromValue(val * 2)
					}
					if val%2 == 0 && val/2 >= 1 {
						allowed |= lt.FromValue(val / 2)
					}
				}
				table[val] = allowed
			}
			h, err := engine.NewBinaryHandler(v.A, v.B, table, true, fmt.Sprintf("kropki:%d:%d:%v", v.A, v.B, v.White))
			if err != nil {
				return nil, err
			}
			handlers = append(handlers, h)
		case XV:
			var table [engine.MaxValues + 1]engine.Mask
			for val := 1; val <= lt.NumValues; val++ {
				other := v.Sum - val
				if other >= 1 && other <= lt.NumValues {
					table[val] = lt.FromValue(other)
				}
			}
			h, err := engine.NewBinaryHandler(v.A, v.B, table, false, fmt.Sprintf("xv:%d:%d:%d", v.A, v.B, v.Sum))
			if err != nil {
				return nil, err
			}
			handlers = append(handlers, h)
		case GreaterThan:
			h, err := greaterThanHandler(lt, v.A, v.B, fmt.Sprintf("gt:%d:%d", v.A, v.B))
			if err != nil {
				return nil, err
			}
			handlers = append(handlers, h)
		case Quadruple:
			h, err := quadrupleHandler(lt, v.Cells, v.Values, fmt.Sprintf("quad:%v:%v", v.Cells, v.Values))
			if err != nil {
				return nil, err
			}
			handlers = append(handlers, h)
		case CountingCircles:
			// Each circled cell reads back Cells through itself as the
			// (1-based) index: circ's value equals the value of
			// Cells[circ's value - 1]. Lowered as one Indexing handler
			// per circled cell, table = Cells, index = result = circ.
			for _, circ := range v.CircledCells {
				h, err := engine.NewIndexingHandler(circ, v.Cells, circ, fmt.Sprintf("countingcircle:%d", circ))
				if err != nil {
					return nil, err
				}
				handlers = append(handlers, h)
			}
		case Indexing:
			h, err := engine.NewIndexingHandler(v.Index, v.Table, v.Result, fmt.Sprintf("%d:%v:%d", v.Index, v.Table, v.Result))
			if err != nil {
				return nil, err
			}
			handlers = append(handlers, h)
		case ValueIndexing:
			h, err := engine.NewIndexingHandler(v.Index, v.Table, v.Result, fmt.Sprintf("vidx:%d:%v:%d", v.Index, v.Table, v.Result))
			if err != nil {
				return nil, err
			}
			handlers = append(handlers, h)
		case RegionSumLine:
			// Segment the line by box membership (a grid without boxes
			// yields one segment, so no handler). Every segment must
			// share the same total; rather than resolve that shared
			// target numerically, tie each later segment's sum to the
			// first's with a Sum whose coefficients are +1 over one
			// segment and -1 over the other and whose target is 0 —
			// the same equal-totals trick used for Arrow.
			segments := segmentByBox(effectiveShape, v.Cells)
			for i := 1; i < len(segments); i++ {
				first, other := segments[0], segments[i]
				cells := append(append([]int(nil), first...), other...)
				coeffs := make([]int, len(cells))
				for j := range first {
					coeffs[j] = 1
				}
				for j := range other {
					coeffs[len(first)+j] = -1
				}
				h, err := engine.NewSumHandler(cells, 0, coeffs, fmt.Sprintf("regionsumline:%d:%v", i, v.Cells))
				if err != nil {
					return nil, err
				}
				handlers = append(handlers, h)
			}
		case SumLine:
			h, err := engine.NewSumHandler(v.Cells, v.Sum, nil, fmt.Sprintf("sumline:%v:%d", v.Cells, v.Sum))
			if err != nil {
				return nil, err
			}
			handlers = append(handlers, h)
		case ModularLine:
			for i := 0; i+v.Modulus <= len(v.Cells); i++ {
				run := v.Cells[i : i+v.Modulus]
				h, err := modularRunHandler(lt, run, v.Modulus, fmt.Sprintf("modline:%d", i))
				if err != nil {
					return nil, err
				}
				handlers = append(handlers, h)
			}
		case EntropicLine:
			band := lt.NumValues / 3
			for i := 0; i+3 <= len(v.Cells); i++ {
				run := v.Cells[i : i+3]
				h, err := entropicRunHandler(lt, run, band, fmt.Sprintf("entropic:%d", i))
				if err != nil {
					return nil, err
				}
				handlers = append(handlers, h)
			}
		case ZipperLine:
			n := len(v.Cells)
			if n/2 > 0 {
				a0, b0 := v.Cells[0], v.Cells[n-1]
				for i := 1; i < n/2; i++ {
					a, b := v.Cells[i], v.Cells[n-1-i]
					if a == b {
						continue
					}
					h, err := engine.NewSumHandler([]int{a, b, a0, b0}, 0, []int{1, 1, -1, -1}, fmt.Sprintf("zipper:%d:%v", i, v.Cells))
					if err != nil {
						return nil, err
					}
					handlers = append(handlers, h)
				}
				if n%2 == 1 {
					center := v.Cells[n/2]
					h, err := engine.NewSumHandler([]int{center, a0, b0}, 0, []int{2, -1, -1}, fmt.Sprintf("zipper-center:%v", v.Cells))
					if err != nil {
						return nil, err
					}
					handlers = append(handlers, h)
				}
			}
		case SameValue:
			h, err := engine.NewSameValuesHandler(v.Sets, fmt.Sprintf("samevalue:%v", v.Sets))
			if err != nil {
				return nil, err
			}
			handlers = append(handlers, h)
		case EqualityCage:
			h, err := engine.NewSameValuesHandler([][]int{{v.A}, {v.B}}, fmt.Sprintf("eqcage:%d:%d", v.A, v.B))
			if err != nil {
				return nil, err
			}
			handlers = append(handlers, h)
		case DutchFlatmates:
			h, err := notEqualHandler(lt, v.A, v.B, fmt.Sprintf("flatmates:%d:%d", v.A, v.B))
			if err != nil {
				return nil, err
			}
			handlers = append(handlers, h)
		case FullRank:
			for i := 0; i+1 < len(v.Cells); i++ {
				if v.Permutation[i] < v.Permutation[i+1] {
					h, err := strictlyIncreasingHandler(lt, v.Cells[i], v.Cells[i+1], fmt.Sprintf("fullrank:%d", i))
					if err != nil {
						return nil, err
					}
					handlers = append(handlers, h)
				} else {
					h, err := strictlyIncreasingHandler(lt, v.Cells[i+1], v.Cells[i], fmt.Sprintf("fullrank:%d", i))
					if err != nil {
						return nil, err
					}
					handlers = append(handlers, h)
				}
			}
		case Regex:
			h, err := engine.NewDFALineHandler(v.Cells, v.States, v.Start, v.Accept, v.Delta, fmt.Sprintf("%v", v.Cells))
			if err != nil {
				return nil, err
			}
			handlers = append(handlers, h)
		case NFA:
			h, err := engine.NewDFALineHandler(v.Cells, v.States, v.Start, v.Accept, v.Delta, fmt.Sprintf("nfa:%v", v.Cells))
			if err != nil {
				return nil, err
			}
			handlers = append(handlers, h)
		case Or:
			h, err := lowerMeta(flatten(v.Children), effectiveShape, lt, grid, false)
			if err != nil {
				return nil, err
			}
			handlers = append(handlers, h)
		case And:
			h, err := lowerMeta(flatten(v.Children), effectiveShape, lt, grid, true)
			if err != nil {
				return nil, err
			}
			handlers = append(handlers, h)
		case OrGivens:
			var children []engine.Handler
			for i, alt := range v.Alternatives {
				ah, err := fixedValuesHandler(lt, alt, fmt.Sprintf("orgivens:%d", i))
				if err != nil {
					return nil, err
				}
				children = append(children, ah)
			}
			handlers = append(handlers, engine.NewOrHandler(children, "orgivens"))
		default:
			return nil, fmt.Errorf("engine: unrecognized constraint tag %q", c.Tag())
		}
	}

	if !noBoxes && effectiveShape.HasBoxes() && jigsawRegions == nil {
		for i, box := range effectiveShape.Boxes() {
			if err := addHouseAllDifferent(box, fmt.Sprintf("box:%d", i)); err != nil {
				return nil, err
			}
		}
	}
	for i, region := range jigsawRegions {
		if err := addHouseAllDifferent(region, fmt.Sprintf("jigsaw:%d", i)); err != nil {
			return nil, err
		}
	}
	for i, region := range windokuRegions {
		if err := addHouseAllDifferent(region, fmt.Sprintf("windoku:%d", i)); err != nil {
			return nil, err
		}
	}
	for i, row := range effectiveShape.Rows() {
		if err := addHouseAllDifferent(row, fmt.Sprintf("row:%d", i)); err != nil {
			return nil, err
		}
	}
	for i, col := range effectiveShape.Cols() {
		if err := addHouseAllDifferent(col, fmt.Sprintf("col:%d", i)); err != nil {
			return nil, err
		}
	}

	handlers = dedupe(handlers)
	handlers = eliminateRedundantHouseSums(handlers, effectiveShape)
	sort.SliceStable(handlers, func(i, j int) bool { return handlers[i].Priority() < handlers[j].Priority() })

	// AllDifferent handlers register exclusions, and the first exclusion
	// read (Sum, Binary, SameValues) seals excl, so every AllDifferent
	// initializes before any other handler.
	for pass := 0; pass < 2; pass++ {
		for _, h := range handlers {
			if _, isAD := h.(*engine.AllDifferentHandler); isAD != (pass == 0) {
				continue
			}
			ok, err := h.Initialize(grid, excl, effectiveShape, lt)
			if !ok {
				if err != nil {
					return nil, err
				}
				return nil, fmt.Errorf("%w: %s is statically unsatisfiable", engine.ErrInvalidConstraint, h.IDString())
			}
		}
	}

	hs := engine.NewHandlerSet(handlers, effectiveShape.NumCells())
	return &Built{Shape: effectiveShape, LT: lt, Grid: grid, Handlers: hs, Excl: excl}, nil
}

func pin(grid *engine.CellState, lt *engine.LookupTables, cell, value int) error {
	if grid.Set(cell, lt.FromValue(value)) {
		return fmt.Errorf("%w: given value %d at cell %d has no remaining candidates", engine.ErrInvalidConstraint, value, cell)
	}
	return nil
}

func flatten(cs []Constraint) []Constraint {
	out := make([]Constraint, 0, len(cs))
	for _, c := range cs {
		switch v := c.(type) {
		case Set:
			out = append(out, flatten(v.Children)...)
		default:
			out = append(out, c)
		}
	}
	return out
}

// dedupe collapses handlers sharing an identical IDString.
func dedupe(handlers []engine.Handler) []engine.Handler {
	seen := make(map[string]bool, len(handlers))
	out := make([]engine.Handler, 0, len(handlers))
	for _, h := range handlers {
		if seen[h.IDString()] {
			continue
		}
		seen[h.IDString()] = true
		out = append(out, h)
	}
	return out
}

// eliminateRedundantHouseSums deletes a Sum handler whose cells are
// exactly one full house and whose target equals that house's fixed
// total — the AllDifferent handler over the same house already implies
// it.
func eliminateRedundantHouseSums(handlers []engine.Handler, shape *engine.GridShape) []engine.Handler {
	fullSum := shape.NumValues * (shape.NumValues + 1) / 2
	houseSets := make([]map[int]bool, 0)
	for _, house := range shape.Houses() {
		m := make(map[int]bool, len(house))
		for _, c := range house {
			m[c] = true
		}
		houseSets = append(houseSets, m)
	}

	out := make([]engine.Handler, 0, len(handlers))
	for _, h := range handlers {
		sum, ok := h.(*engine.SumHandler)
		if !ok {
			out = append(out, h)
			continue
		}
		cells := sum.Cells()
		if len(cells) != shape.NumValues {
			out = append(out, h)
			continue
		}
		matched := false
		for _, hs := range houseSets {
			if len(hs) != len(cells) {
				continue
			}
			allIn := true
			for _, c := range cells {
				if !hs[c] {
					allIn = false
					break
				}
			}
			if allIn {
				matched = true
				break
			}
		}
		if matched && sum.Target() == fullSum {
			continue
		}
		out = append(out, h)
	}
	return out
}
