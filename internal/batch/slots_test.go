package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/errors"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/request"
)

func TestSlotsFirstErrorWins(t *testing.T) {
	req := request.NewMemRequest("a", nil)
	slots := NewSlots([]request.Request{req})

	first := errors.InvalidArgumentf("first")
	slots.Fail(0, first)
	slots.Fail(0, errors.InvalidArgumentf("second"))

	assert.False(t, slots.Alive(0))
	assert.True(t, req.Response().Sent())
	assert.Equal(t, first, req.Response().SendErr())
}

func TestSlotsSendRemainingSkipsFailed(t *testing.T) {
	reqs := []*request.MemRequest{
		request.NewMemRequest("ok", nil),
		request.NewMemRequest("bad", nil),
	}
	slots := NewSlots([]request.Request{reqs[0], reqs[1]})

	slots.Fail(1, errors.Internalf("boom"))
	slots.SendRemaining()

	assert.NoError(t, reqs[0].Response().SendErr())
	assert.Error(t, reqs[1].Response().SendErr())
	// Succeeded slots stay distinguishable after the final send.
	assert.True(t, slots.Alive(0))
	assert.False(t, slots.Alive(1))
}

func TestSlotsReleaseAll(t *testing.T) {
	reqs := []*request.MemRequest{
		request.NewMemRequest("a", nil),
		request.NewMemRequest("b", nil),
	}
	slots := NewSlots([]request.Request{reqs[0], reqs[1]})
	slots.FailAll(errors.Internalf("boom"))
	slots.ReleaseAll()

	for _, req := range reqs {
		assert.True(t, req.Released())
		assert.True(t, req.Response().Sent())
	}
}

func TestSlotsDegradedCreation(t *testing.T) {
	req := request.NewMemRequest("a", nil)
	req.FailResponseCreate = true
	slots := NewSlots([]request.Request{req})

	assert.False(t, slots.Alive(0))
	// Failing a dead slot is a no-op, not a panic.
	slots.Fail(0, errors.Internalf("boom"))
}
