package booking

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("invalid booking status transition")

// TransitionError reports a rejected status change along with the
// booking's current status, so API responses can include it.
type TransitionError struct {
	Current Status
	Target  Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move booking from %s to %s", e.Current, e.Target)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// Status is the lifecycle state of a booking.
type Status string

const (
	// StatusReserved is a booking created by the customer themselves.
	StatusReserved Status = "reserved"
	// StatusReservedBySupportAgent is a booking created by staff on a
	// customer's behalf.
	StatusReservedBySupportAgent Status = "reserved_by_support_agent"
	// StatusServiceStarted means the rental period has begun.
	StatusServiceStarted Status = "service_started"
	// StatusServiceCompleted means the rental period has ended but the
	// booking has not been closed out yet.
	StatusServiceCompleted Status = "service_completed"
	// StatusCompleted is a closed booking: car returned, mileage recorded.
	StatusCompleted Status = "completed"
	// StatusCancelled is a booking cancelled before completion.
	StatusCancelled Status = "cancelled"
)

// IsValid returns true if the status is a recognized booking status.
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// IsActive reports whether the booking still occupies its car for
// availability purposes.
func (s Status) IsActive() bool {
	switch s {
	case StatusReserved, StatusReservedBySupportAgent, StatusServiceStarted:
		return true
	}
	return false
}

// ActiveStatuses lists the statuses that block other bookings of the same car.
func ActiveStatuses() []Status {
	return []Status{StatusReserved, StatusReservedBySupportAgent, StatusServiceStarted}
}

// transitions maps each status to the statuses it may move to.
// Terminal statuses map to an empty set.
var transitions = map[Status][]Status{
	StatusReserved:               {StatusServiceStarted, StatusServiceCompleted, StatusCompleted, StatusCancelled},
	StatusReservedBySupportAgent: {StatusServiceStarted, StatusServiceCompleted, StatusCompleted, StatusCancelled},
	StatusServiceStarted:         {StatusServiceCompleted, StatusCompleted, StatusCancelled},
	StatusServiceCompleted:       {StatusCompleted},
	StatusCompleted:              {},
	StatusCancelled:              {},
}

// CanTransitionTo reports whether moving from s to target is allowed.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions exist from s.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}
