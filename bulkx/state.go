package bulkx

import "sync"

type phase int

const (
	phaseIdle phase = iota
	phaseDispatching
	phaseDraining
	phaseDone
)

func (p phase) String() string {
	switch p {
	case phaseIdle:
		return "idle"
	case phaseDispatching:
		return "dispatching"
	case phaseDraining:
		return "draining"
	case phaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// batchState is owned by a single Execute call. Chunk goroutines write their outcome into the
// slot of their chunk position. The aggregator reads it once the phase is done.
type batchState struct {
	mu sync.Mutex

	ordered  bool
	total    int
	ranges   []IndexRange
	outcomes []ChunkOutcome

	halted     bool
	dispatched int
	completed  int
	failed     int
	phase      phase
}

func newBatchState(total, chunkSize int, ordered bool) *batchState {
	ranges := chunkRanges(total, chunkSize)
	return &batchState{
		ordered:  ordered,
		total:    total,
		ranges:   ranges,
		outcomes: make([]ChunkOutcome, len(ranges)),
		phase:    phaseIdle,
	}
}

func (s *batchState) setPhase(p phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = p
}

func (s *batchState) currentPhase() phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// tryDispatch marks chunk i as dispatched unless an ordered batch already failed.
func (s *batchState) tryDispatch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.halted {
		return false
	}
	s.dispatched++
	return true
}

// record stores the outcome of chunk i. A failure halts an ordered batch.
func (s *batchState) record(i int, o ChunkOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes[i] = o
	s.completed++
	if _, ok := o.(*ChunkFailure); ok {
		s.failed++
		if s.ordered {
			s.halted = true
		}
	}
}

type batchStats struct {
	chunks     int
	dispatched int
	completed  int
	failed     int
}

func (s *batchState) stats() batchStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return batchStats{
		chunks:     len(s.ranges),
		dispatched: s.dispatched,
		completed:  s.completed,
		failed:     s.failed,
	}
}
