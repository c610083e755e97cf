package dto

import (
	"time"

	"github.com/drivehub/car-rental-backend/internal/feedback"
)

// SubmitFeedbackRequest is the request body for rating a finished rental.
type SubmitFeedbackRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"omitempty,max=1000"`
}

// FeedbackResponse is the public representation of a feedback entry.
type FeedbackResponse struct {
	ID        string    `json:"id"`
	BookingID string    `json:"booking_id"`
	CarID     string    `json:"car_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewFeedbackResponse converts a feedback model to its response form.
func NewFeedbackResponse(f *feedback.Feedback) FeedbackResponse {
	return FeedbackResponse{
		ID:        f.ID,
		BookingID: f.BookingID,
		CarID:     f.CarID,
		UserID:    f.UserID,
		Rating:    f.Rating,
		Comment:   f.Comment,
		CreatedAt: f.CreatedAt,
	}
}
