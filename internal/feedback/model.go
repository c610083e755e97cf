package feedback

import (
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("feedback not found")
	ErrAlreadySubmitted = errors.New("feedback already submitted for this booking")
	ErrNotEligible      = errors.New("booking is not eligible for feedback")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
)

// Feedback is a customer's rating of a finished rental. One per booking;
// the average over a car's feedback lands on the car as its rating.
type Feedback struct {
	ID        string // UUID
	BookingID string
	CarID     string
	UserID    string
	Rating    int // 1..5
	Comment   *string
	CreatedAt time.Time
}
