package puzzle

import (
	"fmt"
	"strings"

	"github.com/hexvalor/sudokucore/pkg/engine"
)

// valueDigits are the short-solution string's per-value characters:
// 1..9 then A..G for values 10..16.
const valueDigits = "123456789ABCDEFG"

// EncodeShortSolution renders grid as a length-NumCells string, one
// character per cell in row-major order: the value's digit when the
// cell's candidate mask is a singleton, '.' otherwise.
func EncodeShortSolution(shape *engine.GridShape, lt *engine.LookupTables, grid []engine.Mask) (string, error) {
	if len(grid) != shape.NumCells() {
		return "", fmt.Errorf("%w: grid has %d cells, shape wants %d", engine.ErrInvalidConstraint, len(grid), shape.NumCells())
	}
	var b strings.Builder
	b.Grow(shape.NumCells())
	for _, m := range grid {
		if !m.IsSingleton() {
			b.WriteByte('.')
			continue
		}
		v := lt.MinValue(m)
		if v < 1 || v > len(valueDigits) {
			return "", fmt.Errorf("%w: value %d has no short-solution digit", engine.ErrInvalidConstraint, v)
		}
		b.WriteByte(valueDigits[v-1])
	}
	return b.String(), nil
}

// EncodeShortSolutionValues is the single-valued-cell convenience form
// used once a search has produced a full assignment (every cell is a
// definite 1..num_values value, not a mask).
func EncodeShortSolutionValues(values []int) (string, error) {
	var b strings.Builder
	b.Grow(len(values))
	for _, v := range values {
		if v < 1 || v > len(valueDigits) {
			return "", fmt.Errorf("%w: value %d has no short-solution digit", engine.ErrInvalidConstraint, v)
		}
		b.WriteByte(valueDigits[v-1])
	}
	return b.String(), nil
}

// DecodeShortSolution parses a short-solution string back into a
// per-cell mask slice ('.' becomes the cell's full candidate mask,
// everything else becomes that value's singleton mask). Used by tests
// and fixtures to seed expected-solution comparisons.
func DecodeShortSolution(shape *engine.GridShape, lt *engine.LookupTables, s string) ([]engine.Mask, error) {
	if len(s) != shape.NumCells() {
		return nil, fmt.Errorf("%w: short-solution string has length %d, shape wants %d", engine.ErrInvalidConstraint, len(s), shape.NumCells())
	}
	out := make([]engine.Mask, shape.NumCells())
	full := lt.AllValues
	for i, ch := range s {
		if ch == '.' {
			out[i] = full
			continue
		}
		idx := strings.IndexRune(valueDigits, ch)
		if idx < 0 || idx >= shape.NumValues {
			return nil, fmt.Errorf("%w: short-solution char %q invalid for %d values", engine.ErrInvalidConstraint, ch, shape.NumValues)
		}
		out[i] = lt.FromValue(idx + 1)
	}
	return out, nil
}
