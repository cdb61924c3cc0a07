package puzzle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hexvalor/sudokucore/pkg/engine"
)

func TestSolveAllPossibilitiesParallelMatchesSerial(t *testing.T) {
	shape := fourByFourShape(t)
	givens := FixedValues{
		Cells:  []int{0, 1, 4, 5, 8, 12},
		Values: []int{1, 2, 3, 4, 2, 4},
	}

	builtForParallel, err := Build(shape, []Constraint{givens})
	require.NoError(t, err)
	parallelSupport, err := SolveAllPossibilitiesParallel(context.Background(), builtForParallel, 4, 0)
	require.NoError(t, err)

	builtForSerial, err := Build(shape, []Constraint{givens})
	require.NoError(t, err)
	eng := engine.NewEngine(builtForSerial.Shape, builtForSerial.LT, builtForSerial.Grid, builtForSerial.Handlers, builtForSerial.Excl, engine.NewSearchStats())
	serialSupport, err := eng.SolveAllPossibilities(context.Background(), 0)
	require.NoError(t, err)

	require.Equal(t, serialSupport, parallelSupport)
}

func TestSolveAllPossibilitiesParallelDetectsUnsatisfiable(t *testing.T) {
	shape := fourByFourShape(t)
	givens := FixedValues{Cells: []int{0, 1}, Values: []int{1, 1}}

	built, err := Build(shape, []Constraint{givens})
	require.NoError(t, err)

	support, err := SolveAllPossibilitiesParallel(context.Background(), built, 2, 0)
	require.NoError(t, err)
	for _, m := range support {
		require.Equal(t, engine.EmptyMask, m)
	}
}

func TestSolveAllPossibilitiesParallelRespectsSupportThreshold(t *testing.T) {
	shape := fourByFourShape(t)

	built, err := Build(shape, nil)
	require.NoError(t, err)

	support, err := SolveAllPossibilitiesParallel(context.Background(), built, 4, 1)
	require.NoError(t, err)
	require.Len(t, support, 16)
	// with no givens every cell should still show at least one true
	// candidate once at least one branch completes.
	nonEmpty := 0
	for _, m := range support {
		if m != engine.EmptyMask {
			nonEmpty++
		}
	}
	require.Greater(t, nonEmpty, 0)
}
