package puzzle

import (
	"context"
	"sync"

	"github.com/hexvalor/sudokucore/internal/parallel"
	"github.com/hexvalor/sudokucore/pkg/engine"
)

// SolveAllPossibilitiesParallel fans the true-candidates sweep out
// across the root decision cell's candidate values, one worker-pool
// task per value, each exploring its disjoint subtree with its own
// cloned grid and handler scheduler. Results are merged under a mutex.
func SolveAllPossibilitiesParallel(ctx context.Context, built *Built, workers int, supportThreshold int) ([]engine.Mask, error) {
	n := built.Grid.Len()
	seed := engine.NewEngine(built.Shape, built.LT, built.Grid.Clone(), built.Handlers, built.Excl, engine.NewSearchStats())

	res, err := seed.Step(ctx)
	if err != nil {
		return nil, err
	}
	if res.Classification == engine.ClassificationConflict {
		return make([]engine.Mask, n), nil
	}
	if res.Classification == engine.ClassificationSolution {
		support := make([]engine.Mask, n)
		for cell, v := range res.Solution {
			support[cell] |= built.LT.FromValue(v)
		}
		return support, nil
	}

	branches := seed.RootBranches()
	if len(branches) == 0 {
		return seed.SolveAllPossibilities(ctx, supportThreshold)
	}

	pool := parallel.NewWorkerPool(workers)
	defer pool.Shutdown()

	support := make([]engine.Mask, n)
	counts := make([]map[int]int, n)
	for i := range counts {
		counts[i] = make(map[int]int)
	}
	var mu sync.Mutex
	var wg sync.WaitGroup
	var firstErr error

	for _, branch := range branches {
		branch := branch
		wg.Add(1)
		task := func() {
			defer wg.Done()
			grid := built.Grid.Clone()
			if grid.Set(branch.Cell, built.LT.FromValue(branch.Value)) {
				return
			}
			handlers := engine.NewHandlerSet(built.Handlers.Handlers(), n)
			handlers.EnqueueWatchersOf(branch.Cell, -1)
			eng := engine.NewEngine(built.Shape, built.LT, grid, handlers, built.Excl, engine.NewSearchStats())
			branchSupport, err := eng.SolveAllPossibilities(ctx, supportThreshold)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			mu.Lock()
			defer mu.Unlock()
			for cell, m := range branchSupport {
				built.LT.ValueIter(m, func(v int) {
					c := counts[cell][v]
					if supportThreshold > 0 && c >= supportThreshold {
						return
					}
					counts[cell][v] = c + 1
					support[cell] |= built.LT.FromValue(v)
				})
			}
		}
		if err := pool.Submit(ctx, task); err != nil {
			wg.Done()
			return support, err
		}
	}
	wg.Wait()
	return support, firstErr
}
