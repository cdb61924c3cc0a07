// Package puzzle defines the constraint tree the engine consumes: a
// tagged union of JSON-serializable constraint nodes, one struct per
// recognized type, plus the builder that lowers them into engine
// handlers.
package puzzle

// Constraint is the tagged-union interface every node implements: a
// Tag() method doubling as the JSON discriminator the CLI reads
// fixtures with.
type Constraint interface {
	Tag() string
}

// CellRef is a 0-based cell index used throughout constraint payloads.
type CellRef = int

// FixedValues pins cells to given values (the puzzle's givens).
type FixedValues struct {
	Cells  []CellRef `json:"cells"`
	Values []int     `json:"values"`
}

func (FixedValues) Tag() string { return "FixedValues" }

// Given is a single-cell alias of FixedValues, matching common puzzle
// fixture formats that specify givens one cell at a time.
type Given struct {
	Cell  CellRef `json:"cell"`
	Value int     `json:"value"`
}

func (Given) Tag() string { return "Given" }

// AllDifferent requires pairwise distinct values across cells.
type AllDifferent struct {
	Cells []CellRef `json:"cells"`
}

func (AllDifferent) Tag() string { return "AllDifferent" }

// Jigsaw replaces the default box regions with arbitrary same-size
// regions, each all-different.
type Jigsaw struct {
	Regions [][]CellRef `json:"regions"`
}

func (Jigsaw) Tag() string { return "Jigsaw" }

// Diagonal requires the given diagonal(s) (main and/or anti) be
// all-different.
type Diagonal struct {
	Main bool `json:"main"`
	Anti bool `json:"anti"`
}

func (Diagonal) Tag() string { return "Diagonal" }

// AntiKnight forbids any two cells a chess knight's move apart from
// sharing a value.
type AntiKnight struct{}

func (AntiKnight) Tag() string { return "AntiKnight" }

// AntiKing forbids any two cells a chess king's move apart (including
// diagonal adjacency) from sharing a value.
type AntiKing struct{}

func (AntiKing) Tag() string { return "AntiKing" }

// AntiConsecutive forbids orthogonally adjacent cells from holding
// consecutive values.
type AntiConsecutive struct{}

func (AntiConsecutive) Tag() string { return "AntiConsecutive" }

// NoBoxes disables the grid's default box houses (the builder skips
// emitting box AllDifferent handlers).
type NoBoxes struct{}

func (NoBoxes) Tag() string { return "NoBoxes" }

// Windoku adds extra same-size "shaded" regions beyond rows/cols/boxes
// (the classic windoku pattern, or any caller-supplied extra regions).
type Windoku struct {
	Regions [][]CellRef `json:"regions"`
}

func (Windoku) Tag() string { return "Windoku" }

// Shape overrides grid dimensions and box tiling.
type Shape struct {
	NumRows   int `json:"num_rows"`
	NumCols   int `json:"num_cols"`
	NumValues int `json:"num_values"`
	BoxHeight int `json:"box_height"`
	BoxWidth  int `json:"box_width"`
}

func (Shape) Tag() string { return "Shape" }

// RegionSize states that every jigsaw/box region has Size cells. Build
// accepts it without a handler and does not check region sizes.
type RegionSize struct {
	Size int `json:"size"`
}

func (RegionSize) Tag() string { return "RegionSize" }

// Cage is the killer-cage / Sum constraint: cells sum to Sum, optional
// per-cell Coeffs (default 1 each).
type Cage struct {
	Cells  []CellRef `json:"cells"`
	Sum    int       `json:"sum"`
	Coeffs []int     `json:"coeffs,omitempty"`
}

func (Cage) Tag() string { return "Cage" }

// Thermo requires strictly increasing values from Bulb along Stem.
type Thermo struct {
	Bulb CellRef   `json:"bulb"`
	Stem []CellRef `json:"stem"`
}

func (Thermo) Tag() string { return "Thermo" }

// Arrow requires the sum of Cells to equal the value in Head.
type Arrow struct {
	Head  CellRef   `json:"head"`
	Cells []CellRef `json:"cells"`
}

func (Arrow) Tag() string { return "Arrow" }

// DoubleArrow requires the two Heads plus the sum of the interior
// Cells to be consistent: Head1 + Head2 = sum(Cells)... actually the
// classic double-arrow line has two circle ends summing to the total
// of the cells between them.
type DoubleArrow struct {
	Head1 CellRef   `json:"head1"`
	Head2 CellRef   `json:"head2"`
	Cells []CellRef `json:"cells"`
}

func (DoubleArrow) Tag() string { return "DoubleArrow" }

// PillArrow is an Arrow variant where Head is itself a multi-cell
// "pill" read as a concatenated number (2-3 cells); lowered specially
// by the builder.
type PillArrow struct {
	HeadCells []CellRef `json:"head_cells"`
	Cells     []CellRef `json:"cells"`
}

func (PillArrow) Tag() string { return "PillArrow" }

// Whisper (German Whispers) requires adjacent cells along Cells to
// differ by at least MinDiff.
type Whisper struct {
	Cells   []CellRef `json:"cells"`
	MinDiff int       `json:"min_diff"`
}

func (Whisper) Tag() string { return "Whisper" }

// GermanWhispers is the canonical Whisper with MinDiff fixed at 5,
// offered as its own tag for fixture compatibility.
type GermanWhispers struct {
	Cells []CellRef `json:"cells"`
}

func (GermanWhispers) Tag() string { return "GermanWhispers" }

// Palindrome requires Cells to read the same forwards and backwards.
type Palindrome struct {
	Cells []CellRef `json:"cells"`
}

func (Palindrome) Tag() string { return "Palindrome" }

// Renban requires Cells to contain a contiguous run of values in some
// order (all-different plus max-min == len-1).
type Renban struct {
	Cells []CellRef `json:"cells"`
}

func (Renban) Tag() string { return "Renban" }

// Between requires interior Cells to lie strictly between the values
// of the two endpoint cells Low and High (order not fixed in value,
// only in position).
type Between struct {
	Low   CellRef   `json:"low"`
	High  CellRef   `json:"high"`
	Cells []CellRef `json:"cells"`
}

func (Between) Tag() string { return "Between" }

// Lockout is a Between variant: the two endpoints must differ by at
// least MinDiff and interior cells must lie strictly outside the
// endpoints' range.
type Lockout struct {
	Low     CellRef   `json:"low"`
	High    CellRef   `json:"high"`
	Cells   []CellRef `json:"cells"`
	MinDiff int       `json:"min_diff"`
}

func (Lockout) Tag() string { return "Lockout" }

// LittleKiller is a diagonal Sum constraint read off-grid: Cells along
// a diagonal ray must sum to Sum.
type LittleKiller struct {
	Cells []CellRef `json:"cells"`
	Sum   int       `json:"sum"`
}

func (LittleKiller) Tag() string { return "LittleKiller" }

// Sandwich constrains the sum of cells strictly between the 1 and the
// NumValues within Cells (a house) to equal Sum.
type Sandwich struct {
	Cells []CellRef `json:"cells"`
	Sum   int       `json:"sum"`
}

func (Sandwich) Tag() string { return "Sandwich" }

// Skyscraper is the visibility-count clue along an ordered line.
type Skyscraper struct {
	Cells      []CellRef `json:"cells"`
	Visibility int       `json:"visibility"`
}

func (Skyscraper) Tag() string { return "Skyscraper" }

// Lunchbox is the bread/interior-sum constraint.
type Lunchbox struct {
	Cells   []CellRef `json:"cells"`
	Sum     int       `json:"sum"`
	IsHouse bool      `json:"is_house"`
}

func (Lunchbox) Tag() string { return "Lunchbox" }

// Kropki is a dot constraint between two adjacent cells: White means
// consecutive values, Black means one is double the other.
type Kropki struct {
	A     CellRef `json:"a"`
	B     CellRef `json:"b"`
	White bool    `json:"white"`
}

func (Kropki) Tag() string { return "Kropki" }

// XV places a sum-target dot between two cells (X=10, V=5; any target
// is accepted via Sum for generality).
type XV struct {
	A   CellRef `json:"a"`
	B   CellRef `json:"b"`
	Sum int     `json:"sum"`
}

func (XV) Tag() string { return "XV" }

// GreaterThan constrains A's value to be greater than B's.
type GreaterThan struct {
	A CellRef `json:"a"`
	B CellRef `json:"b"`
}

func (GreaterThan) Tag() string { return "GreaterThan" }

// Quadruple requires every value in Values to appear somewhere among
// Cells (the four cells meeting at a grid intersection, classically).
type Quadruple struct {
	Cells  []CellRef `json:"cells"`
	Values []int     `json:"values"`
}

func (Quadruple) Tag() string { return "Quadruple" }

// CountingCircles marks CircledCells along Cells such that each
// circled cell's own value, read as a 1-based index into Cells, names
// the cell whose value must equal the circled cell's own value —
// lowered one Indexing handler per circled cell (index = result =
// the circled cell, table = Cells).
type CountingCircles struct {
	Cells         []CellRef `json:"cells"`
	CircledCells  []CellRef `json:"circled_cells"`
}

func (CountingCircles) Tag() string { return "CountingCircles" }

// Indexing: result = table[index].
type Indexing struct {
	Index  CellRef   `json:"index"`
	Table  []CellRef `json:"table"`
	Result CellRef   `json:"result"`
}

func (Indexing) Tag() string { return "Indexing" }

// ValueIndexing is Indexing restricted to a single house's row/column
// position lookup (e.g. "the cell at the position given by this row's
// digit N holds value N"); lowered the same way as Indexing once the
// table is resolved to concrete cells.
type ValueIndexing struct {
	Index  CellRef   `json:"index"`
	Table  []CellRef `json:"table"`
	Result CellRef   `json:"result"`
}

func (ValueIndexing) Tag() string { return "ValueIndexing" }

// RegionSumLine requires every contiguous run of the line that lies
// within one house to sum to the same (unspecified but consistent)
// total. The builder splits the line at box boundaries and ties each
// later segment's total to the first's without resolving the total to
// a number; SumLine is the variant with a fixed total.
type RegionSumLine struct {
	Cells []CellRef `json:"cells"`
}

func (RegionSumLine) Tag() string { return "RegionSumLine" }

// SumLine requires the entire line to sum to a fixed Sum.
type SumLine struct {
	Cells []CellRef `json:"cells"`
	Sum   int       `json:"sum"`
}

func (SumLine) Tag() string { return "SumLine" }

// ModularLine requires every run of Modulus consecutive cells along
// the line to contain one value from each residue class mod Modulus.
type ModularLine struct {
	Cells   []CellRef `json:"cells"`
	Modulus int       `json:"modulus"`
}

func (ModularLine) Tag() string { return "ModularLine" }

// EntropicLine requires every run of 3 consecutive cells along the
// line to contain one low, one mid, and one high value (the grid's
// value range split into three equal bands).
type EntropicLine struct {
	Cells []CellRef `json:"cells"`
}

func (EntropicLine) Tag() string { return "EntropicLine" }

// ZipperLine requires cells equidistant from the line's center to sum
// to the same total (the center cell, if the line has odd length,
// equals that total on its own).
type ZipperLine struct {
	Cells []CellRef `json:"cells"`
}

func (ZipperLine) Tag() string { return "ZipperLine" }

// SameValue / EqualityCage declare two disjoint equal-size cell sets
// must take identical value multisets.
type SameValue struct {
	Sets [][]CellRef `json:"sets"`
}

func (SameValue) Tag() string { return "SameValue" }

// EqualityCage is an alias of SameValue for two single-cell sets that
// must be literally equal, matching common fixture naming.
type EqualityCage struct {
	A CellRef `json:"a"`
	B CellRef `json:"b"`
}

func (EqualityCage) Tag() string { return "EqualityCage" }

// DutchFlatmates requires two adjacent cells to differ (the Dutch
// whisper-adjacent "flatmates never share a value" constraint) —
// lowered to a Binary handler with an irreflexive not-equal table.
type DutchFlatmates struct {
	A CellRef `json:"a"`
	B CellRef `json:"b"`
}

func (DutchFlatmates) Tag() string { return "DutchFlatmates" }

// FullRank requires Cells, read in order, to be ranked as Permutation
// says (Permutation[i] is the rank of Cells[i]); lowered to one
// strictly-increasing Binary handler per adjacent pair of cells.
type FullRank struct {
	Cells       []CellRef `json:"cells"`
	Permutation []int     `json:"permutation"`
}

func (FullRank) Tag() string { return "FullRank" }

// Regex constrains Cells (an ordered line) to values whose sequence is
// accepted by a DFA compiled upstream into States/Start/Accept/Delta.
// The DFA is consumed as an opaque transition table; compiling a
// regex/NFA down to one is the caller's job.
type Regex struct {
	Cells  []CellRef `json:"cells"`
	States int       `json:"states"`
	Start  int       `json:"start"`
	Accept []int     `json:"accept"`
	Delta  [][]int   `json:"delta"`
}

func (Regex) Tag() string { return "Regex" }

// NFA is an alias of Regex for fixtures that already determinized
// their automaton under that name.
type NFA struct {
	Cells  []CellRef `json:"cells"`
	States int       `json:"states"`
	Start  int       `json:"start"`
	Accept []int     `json:"accept"`
	Delta  [][]int   `json:"delta"`
}

func (NFA) Tag() string { return "NFA" }

// Or is the disjunction meta-constraint over child constraints.
type Or struct {
	Children []Constraint `json:"children"`
}

func (Or) Tag() string { return "Or" }

// And is the conjunction meta-constraint over child constraints
// (mostly redundant with a flat list, offered for symmetry with Or and
// for fixtures that group constraints explicitly).
type And struct {
	Children []Constraint `json:"children"`
}

func (And) Tag() string { return "And" }

// Set composes a named group of constraints as a single reusable unit
// (e.g. "the standard Sudoku rule set"); the builder simply flattens
// its Children.
type Set struct {
	Name     string       `json:"name"`
	Children []Constraint `json:"children"`
}

func (Set) Tag() string { return "Set" }

// Clone duplicates a constraint's shape onto a different cell mapping
// (used by fixtures that define one cage pattern and stamp it at
// several offsets). Build does not lower Clone: it returns an
// unrecognized-tag error for it, and ParseConstraints does not decode
// the Clone tag.
type Clone struct {
	Source  Constraint `json:"-"`
	CellMap map[CellRef]CellRef `json:"cell_map"`
}

func (Clone) Tag() string { return "Clone" }

// OrGivens offers a set of alternative FixedValues, at least one of
// which must hold — lowered as an Or whose children each pin one
// alternative's cells to its values.
type OrGivens struct {
	Alternatives []FixedValues `json:"alternatives"`
}

func (OrGivens) Tag() string { return "OrGivens" }
