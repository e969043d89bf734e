package memory

import "sync"

// Stream orders asynchronous buffer copies the way an accelerator stream
// would: copies are issued without blocking the caller and Synchronize joins
// them all. One stream belongs to one worker; it is never shared between
// concurrent pipeline invocations.
type Stream struct {
	mu      sync.Mutex
	pending []copyOp
}

type copyOp struct {
	src []byte
	dst []byte
}

func NewStream() *Stream {
	return &Stream{}
}

func (s *Stream) enqueue(src, dst []byte) {
	s.mu.Lock()
	s.pending = append(s.pending, copyOp{src: src, dst: dst})
	s.mu.Unlock()
}

// Synchronize executes every pending copy in issue order and blocks until
// all are complete. It is safe to call with nothing pending.
func (s *Stream) Synchronize() {
	s.mu.Lock()
	ops := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, op := range ops {
		copy(op.dst, op.src)
	}
}

// PendingCount reports how many copies are waiting, used by tests to assert
// that device copies were actually deferred.
func (s *Stream) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
