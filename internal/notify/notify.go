package notify

import (
	"context"
	"time"
)

// BookingCompleted carries everything the completion email needs.
type BookingCompleted struct {
	ToEmail      string
	ToName       string
	OrderSummary string
	CarLabel     string
	TotalPrice   float64
	CompletedAt  time.Time
}

// Sink delivers customer notifications. Delivery is best effort: callers
// log failures but never fail the triggering operation.
type Sink interface {
	SendBookingCompleted(ctx context.Context, msg BookingCompleted) error
}

// NoopSink discards all notifications. Used when no email provider is
// configured and in tests.
type NoopSink struct{}

func (NoopSink) SendBookingCompleted(ctx context.Context, msg BookingCompleted) error {
	return nil
}
