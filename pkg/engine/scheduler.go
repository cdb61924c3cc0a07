package engine

// HandlerSet is the ordered collection of handlers plus, for each
// cell, the indices of handlers watching it — and the dirty-bit FIFO
// scheduler that drives propagation to quiescence: a handler whose
// watched cell changed gets re-queued, and the queue drains until no
// handler has pending work or a contradiction is found.
type HandlerSet struct {
	handlers  []Handler
	watchers  [][]int // cell -> handler indices watching it
	dirty     []bool
	queue     []int // FIFO of dirty handler indices
	sink      *accumulatorSink
}

// NewHandlerSet builds a scheduler over handlers and numCells cells.
func NewHandlerSet(handlers []Handler, numCells int) *HandlerSet {
	hs := &HandlerSet{
		handlers: handlers,
		watchers: make([][]int, numCells),
		dirty:    make([]bool, len(handlers)),
		queue:    make([]int, 0, len(handlers)),
	}
	for i, h := range handlers {
		for _, c := range h.Cells() {
			hs.watchers[c] = append(hs.watchers[c], i)
		}
	}
	hs.sink = &accumulatorSink{set: hs}
	return hs
}

// Handlers returns the underlying handler slice (read-only use).
func (hs *HandlerSet) Handlers() []Handler { return hs.handlers }

// EnqueueAll marks every handler dirty — used once after Initialize to
// run the first propagation pass.
func (hs *HandlerSet) EnqueueAll() {
	for i := range hs.handlers {
		hs.enqueue(i)
	}
}

// EnqueueWatchersOf marks every handler watching cell dirty, except
// excludeIdx (the handler currently executing, which must not re-queue
// itself for its own write). Pass excludeIdx = -1 to exclude none.
func (hs *HandlerSet) EnqueueWatchersOf(cell int, excludeIdx int) {
	for _, idx := range hs.watchers[cell] {
		if idx == excludeIdx {
			continue
		}
		hs.enqueue(idx)
	}
}

func (hs *HandlerSet) enqueue(idx int) {
	if hs.dirty[idx] {
		return
	}
	hs.dirty[idx] = true
	hs.queue = append(hs.queue, idx)
}

// Propagate dequeues dirty handlers until the queue drains or a
// handler reports inconsistency, incrementing constraintsProcessed
// once per EnforceConsistency call. Returns false iff propagation
// detected a contradiction, in which case the caller must backtrack.
func (hs *HandlerSet) Propagate(grid *CellState, lt *LookupTables, stats *SearchStats) bool {
	for len(hs.queue) > 0 {
		idx := hs.queue[0]
		hs.queue = hs.queue[1:]
		hs.dirty[idx] = false

		hs.sink.current = idx
		stats.ConstraintsProcessed++
		if !hs.handlers[idx].EnforceConsistency(grid, lt, hs.sink) {
			hs.queue = hs.queue[:0]
			for i := range hs.dirty {
				hs.dirty[i] = false
			}
			return false
		}
	}
	return true
}

// Reset clears the dirty queue without touching handler state —
// used when a backtrack needs to discard in-flight propagation.
func (hs *HandlerSet) Reset() {
	hs.queue = hs.queue[:0]
	for i := range hs.dirty {
		hs.dirty[i] = false
	}
}

// accumulatorSink implements Accumulator by forwarding AddForCell into
// the owning HandlerSet's dirty queue, skipping the handler currently
// executing.
type accumulatorSink struct {
	set     *HandlerSet
	current int
}

func (s *accumulatorSink) AddForCell(cell int) {
	s.set.EnqueueWatchersOf(cell, s.current)
}
