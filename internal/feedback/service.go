package feedback

import (
	"context"

	"go.uber.org/zap"

	"github.com/drivehub/car-rental-backend/internal/booking"
)

// BookingSource provides the booking a feedback submission refers to.
type BookingSource interface {
	GetByID(ctx context.Context, id string) (*booking.Booking, error)
}

// Service implements feedback submission and listing.
type Service struct {
	repo     Repository
	bookings BookingSource
	logger   *zap.Logger
}

// NewService creates a feedback Service.
func NewService(repo Repository, bookings BookingSource, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		bookings: bookings,
		logger:   logger,
	}
}

// Submit records the customer's rating of their finished rental and folds
// it into the car's aggregate rating. Only the booking's own customer may
// submit, and only once the rental period has ended.
func (s *Service) Submit(ctx context.Context, actor booking.Actor, bookingID string, rating int, comment string) (*Feedback, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != actor.UserID {
		return nil, booking.ErrForbidden
	}
	switch b.Status {
	case booking.StatusServiceCompleted, booking.StatusCompleted:
	default:
		return nil, ErrNotEligible
	}

	f := &Feedback{
		BookingID: b.ID,
		CarID:     b.CarID,
		UserID:    actor.UserID,
		Rating:    rating,
	}
	if comment != "" {
		f.Comment = &comment
	}

	if err := s.repo.Create(ctx, f); err != nil {
		return nil, err
	}

	s.logger.Info("feedback submitted",
		zap.String("booking_id", b.ID),
		zap.String("car_id", b.CarID),
		zap.Int("rating", rating),
	)

	return f, nil
}

// ListByCar returns a car's feedback, newest first.
func (s *Service) ListByCar(ctx context.Context, carID string, page, pageSize int) ([]*Feedback, int, error) {
	return s.repo.ListByCar(ctx, carID, page, pageSize)
}
