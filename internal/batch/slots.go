package batch

import (
	"github.com/rs/zerolog/log"

	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/request"
)

// Slots tracks one response per in-flight request. A nil slot means the
// request already received an error response and is excluded from all later
// stages; its byte ranges in the batch still count so that offsets for the
// remaining requests stay correct.
type Slots struct {
	requests  []request.Request
	responses []request.Response
}

// NewSlots creates a response for every request. A creation failure degrades
// that request to a nil slot without affecting the rest of the batch.
func NewSlots(requests []request.Request) *Slots {
	s := &Slots{
		requests:  requests,
		responses: make([]request.Response, len(requests)),
	}
	for i, req := range requests {
		resp, err := req.CreateResponse()
		if err != nil {
			log.Error().Msgf("Fail to create response for request '%s': %v", req.ID(), err)
			continue
		}
		s.responses[i] = resp
	}
	return s
}

func (s *Slots) Len() int { return len(s.responses) }

// Alive reports whether the i-th request can still receive a success
// response.
func (s *Slots) Alive(i int) bool { return s.responses[i] != nil }

// Response returns the live response for slot i, nil when degraded.
func (s *Slots) Response(i int) request.Response { return s.responses[i] }

// Fail sends an error response on slot i and degrades it. A slot already
// degraded is left alone, so the first error for a request wins.
func (s *Slots) Fail(i int, err error) {
	if s.responses[i] == nil {
		return
	}
	if sendErr := s.responses[i].Send(err); sendErr != nil {
		log.Error().Msgf("failed to send error response: %v", sendErr)
	}
	s.responses[i] = nil
}

// FailAll degrades every live slot with the same error.
func (s *Slots) FailAll(err error) {
	for i := range s.responses {
		s.Fail(i, err)
	}
}

// SendRemaining completes every still-live slot successfully. Slots stay
// non-nil so the caller can distinguish succeeded requests afterwards.
func (s *Slots) SendRemaining() {
	for _, resp := range s.responses {
		if resp == nil {
			continue
		}
		if err := resp.Send(nil); err != nil {
			log.Error().Msgf("failed to send response: %v", err)
		}
	}
}

// ReleaseAll gives every request back to the runtime, exactly once each.
func (s *Slots) ReleaseAll() {
	for _, req := range s.requests {
		req.Release()
	}
}
