package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from    State
		to      State
		allowed bool
	}{
		{StatePending, StateAwaitingGateway, true},
		{StatePending, StateCancelled, true},
		{StateAwaitingGateway, StateVerifying, true},
		{StateAwaitingGateway, StatePaid, false},
		{StateVerifying, StatePaid, true},
		{StateVerifying, StateFailed, true},
		{StateFailed, StateVerifying, true},
		{StateCancelled, StateVerifying, true},
		{StateFailed, StatePaid, false},
		{StatePaid, StateFailed, false},
		{StatePaid, StateVerifying, false},
		{StatePaid, StateCancelled, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(StatePaid))

	// Failed and cancelled stay re-enterable so a replayed gateway callback
	// can still confirm a payment that actually went through.
	assert.False(t, IsTerminal(StateFailed))
	assert.False(t, IsTerminal(StateCancelled))
	assert.False(t, IsTerminal(StateVerifying))
}

func TestIsValidReference(t *testing.T) {
	assert.True(t, IsValidReference("6f1c2f4e-9a1b-4c3d-8e5f-112233445566"))
	assert.True(t, IsValidReference("order_12345"))

	assert.False(t, IsValidReference(""))
	assert.False(t, IsValidReference("{order_id}"))
	assert.False(t, IsValidReference("{cf_order_id}"))
}
