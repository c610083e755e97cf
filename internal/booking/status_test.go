package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusReserved, StatusServiceStarted, true},
		{StatusReserved, StatusCancelled, true},
		{StatusReserved, StatusCompleted, true},
		{StatusReservedBySupportAgent, StatusServiceStarted, true},
		{StatusReservedBySupportAgent, StatusCancelled, true},
		{StatusServiceStarted, StatusServiceCompleted, true},
		{StatusServiceStarted, StatusCompleted, true},
		{StatusServiceStarted, StatusCancelled, true},
		{StatusServiceCompleted, StatusCompleted, true},

		{StatusServiceCompleted, StatusCancelled, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusReserved, false},
		{StatusCancelled, StatusCancelled, false},
		{StatusCompleted, StatusCompleted, false},
		{StatusServiceStarted, StatusReserved, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestStatusActiveSet(t *testing.T) {
	assert.True(t, StatusReserved.IsActive())
	assert.True(t, StatusReservedBySupportAgent.IsActive())
	assert.True(t, StatusServiceStarted.IsActive())

	assert.False(t, StatusServiceCompleted.IsActive())
	assert.False(t, StatusCompleted.IsActive())
	assert.False(t, StatusCancelled.IsActive())
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusReserved.IsTerminal())
	assert.False(t, StatusServiceCompleted.IsTerminal())
}

func TestStatusIsValid(t *testing.T) {
	assert.True(t, StatusReserved.IsValid())
	assert.False(t, Status("confirmed").IsValid())
	assert.False(t, Status("").IsValid())
}
