package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/drivehub/car-rental-backend/internal/car"
	"github.com/drivehub/car-rental-backend/internal/notify"
	"github.com/drivehub/car-rental-backend/internal/user"
)

// maxNumberAttempts bounds regeneration when a generated booking number
// collides with an existing one.
const maxNumberAttempts = 3

// Actor identifies who is performing a booking operation.
type Actor struct {
	UserID string
	Role   user.Role
}

// IsStaff reports whether the actor may manage bookings of other users.
func (a Actor) IsStaff() bool {
	return a.Role.IsStaff()
}

// CreateParams are the inputs for creating a booking.
type CreateParams struct {
	UserID   string // target customer; staff may book for others
	CarID    string
	Start    time.Time
	End      time.Time
	Services []ExtraService
}

// Availability is the result of an availability check.
type Availability struct {
	Available bool
	Conflict  *Booking // first conflicting booking, nil when available
}

// SweepSummary reports what a lifecycle sweep did.
type SweepSummary struct {
	Started   int // reservations moved to service_started
	Ended     int // bookings moved to service_completed
	Skipped   int // bookings another writer advanced first
	Errors    []error
	StartedAt time.Time
}

// Service implements the booking lifecycle: availability checks, creation,
// status transitions, completion and the periodic sweep.
type Service struct {
	repo     Repository
	cars     car.Repository
	users    user.Repository
	notifier notify.Sink
	logger   *zap.Logger

	now     func() time.Time
	randInt func(n int) int
}

// NewService creates a booking Service.
func NewService(
	repo Repository,
	cars car.Repository,
	users user.Repository,
	notifier notify.Sink,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:     repo,
		cars:     cars,
		users:    users,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		randInt:  defaultRandInt,
	}
}

// CheckAvailability reports whether the car is free for [start, end).
func (s *Service) CheckAvailability(ctx context.Context, carID string, start, end time.Time) (*Availability, error) {
	start, end = normalizeDates(start, end)
	if !end.After(start) {
		return nil, ErrInvalidPeriod
	}
	if _, err := s.cars.GetByID(ctx, carID); err != nil {
		return nil, err
	}

	conflict, err := s.repo.FindOverlapping(ctx, carID, start, end)
	if err != nil {
		return nil, err
	}

	return &Availability{
		Available: conflict == nil,
		Conflict:  conflict,
	}, nil
}

// Create books a car for a user. Customers book for themselves; staff may
// book on a customer's behalf, which marks the reservation accordingly.
func (s *Service) Create(ctx context.Context, actor Actor, params CreateParams) (*Booking, error) {
	if params.UserID == "" {
		params.UserID = actor.UserID
	}
	if params.UserID != actor.UserID && !actor.IsStaff() {
		return nil, ErrForbidden
	}

	start, end := normalizeDates(params.Start, params.End)
	if !end.After(start) {
		return nil, ErrInvalidPeriod
	}
	if start.Before(today(s.now())) {
		return nil, ErrStartInPast
	}

	vehicle, err := s.cars.GetByID(ctx, params.CarID)
	if err != nil {
		return nil, err
	}
	// A car pulled from the fleet cannot be booked at all; the booked
	// flag is advisory and overlap checks decide the rest.
	if vehicle.Status == car.StatusUnavailable {
		return nil, ErrCarUnavailable
	}

	status := StatusReserved
	if actor.IsStaff() {
		status = StatusReservedBySupportAgent
	}

	b := &Booking{
		UserID:    params.UserID,
		CarID:     params.CarID,
		StartDate: start,
		EndDate:   end,
		Status:    status,
		Services:  params.Services,
	}
	b.TotalPrice = vehicle.PricePerDay * float64(b.Days())
	for _, svc := range b.Services {
		b.TotalPrice += svc.Price
	}

	// The number is unique by construction most of the time; the DB
	// constraint catches the rest and we regenerate.
	for attempt := 0; ; attempt++ {
		b.BookingNumber = newBookingNumber(s.now(), s.randInt)

		err = s.repo.Create(ctx, b)
		if err == nil {
			break
		}
		if errors.Is(err, ErrNumberCollision) && attempt < maxNumberAttempts-1 {
			continue
		}
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", b.ID),
		zap.String("booking_number", b.BookingNumber),
		zap.String("car_id", b.CarID),
		zap.String("user_id", b.UserID),
		zap.String("status", string(b.Status)),
	)

	// Mark the car as booked. This lives outside the transaction and is
	// best effort; availability is always decided by booking rows.
	if err := s.cars.SetStatus(ctx, b.CarID, car.StatusBooked); err != nil {
		s.logger.Warn("failed to mark car as booked",
			zap.String("car_id", b.CarID), zap.Error(err))
	}

	return b, nil
}

// GetByID returns the booking if the actor owns it or is staff.
func (s *Service) GetByID(ctx context.Context, actor Actor, id string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.UserID != actor.UserID && !actor.IsStaff() {
		return nil, ErrForbidden
	}
	return b, nil
}

// List returns bookings matching the filter. Non-staff actors only ever
// see their own bookings.
func (s *Service) List(ctx context.Context, actor Actor, filter Filter) ([]*Booking, int, error) {
	if !actor.IsStaff() {
		filter.UserID = actor.UserID
	}
	return s.repo.List(ctx, filter)
}

// UpdateStatus sets a booking to any valid status. Staff only. This is an
// administrative override and deliberately bypasses the transition table,
// so support can repair a wrongly cancelled or completed booking; Cancel,
// Complete and the sweep keep following the table. Every change is logged
// with the acting user.
func (s *Service) UpdateStatus(ctx context.Context, actor Actor, id string, target Status) (*Booking, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	if !target.IsValid() {
		return nil, ErrInvalidTransition
	}

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status == target {
		return b, nil
	}

	if err := s.repo.UpdateStatus(ctx, id, b.Status, target); err != nil {
		return nil, err
	}

	s.logger.Info("booking status updated",
		zap.String("booking_id", b.ID),
		zap.String("booking_number", b.BookingNumber),
		zap.String("from", string(b.Status)),
		zap.String("to", string(target)),
		zap.String("actor_id", actor.UserID),
	)

	from := b.Status
	b.Status = target
	s.syncCarStatus(ctx, b, from)

	return b, nil
}

// Cancel cancels a booking. Customers may cancel their own bookings; staff
// may cancel any. Completed and already-cancelled bookings stay as they are.
func (s *Service) Cancel(ctx context.Context, actor Actor, id string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.UserID != actor.UserID && !actor.IsStaff() {
		return nil, ErrForbidden
	}
	if !b.Status.CanTransitionTo(StatusCancelled) {
		return nil, &TransitionError{Current: b.Status, Target: StatusCancelled}
	}

	if err := s.repo.UpdateStatus(ctx, id, b.Status, StatusCancelled); err != nil {
		return nil, err
	}

	s.logger.Info("booking cancelled",
		zap.String("booking_id", b.ID),
		zap.String("booking_number", b.BookingNumber),
		zap.String("actor_id", actor.UserID),
	)

	from := b.Status
	b.Status = StatusCancelled
	s.syncCarStatus(ctx, b, from)

	return b, nil
}

// Complete closes out a booking: optionally records the returned car's
// mileage, appends staff notes, marks the booking completed and emails the
// customer a summary. Staff only.
func (s *Service) Complete(ctx context.Context, actor Actor, id string, mileage *int, notes string) (*Booking, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.Status.CanTransitionTo(StatusCompleted) {
		return nil, &TransitionError{Current: b.Status, Target: StatusCompleted}
	}

	// Record mileage first so an odometer rollback rejects the whole
	// operation before the booking is closed.
	if mileage != nil {
		if err := s.cars.UpdateMileage(ctx, b.CarID, *mileage); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateStatus(ctx, id, b.Status, StatusCompleted); err != nil {
		return nil, err
	}

	if notes != "" {
		if err := s.repo.AppendNote(ctx, id, notes); err != nil {
			s.logger.Warn("failed to append completion note",
				zap.String("booking_id", b.ID), zap.Error(err))
		} else {
			if b.Notes == nil {
				b.Notes = &notes
			} else {
				joined := *b.Notes + "\n" + notes
				b.Notes = &joined
			}
		}
	}

	s.logger.Info("booking completed",
		zap.String("booking_id", b.ID),
		zap.String("booking_number", b.BookingNumber),
		zap.Intp("mileage", mileage),
		zap.String("actor_id", actor.UserID),
	)

	from := b.Status
	b.Status = StatusCompleted
	s.syncCarStatus(ctx, b, from)

	s.sendCompletionEmail(ctx, b)

	return b, nil
}

// RunSweep advances bookings whose dates have passed: reservations whose
// start arrived become service_started, bookings whose end passed become
// service_completed. Each booking is handled independently so one failure
// never blocks the rest; the sweep is idempotent because every update is a
// compare-and-set on status.
func (s *Service) RunSweep(ctx context.Context) (SweepSummary, error) {
	now := s.now()
	summary := SweepSummary{StartedAt: now}

	due, err := s.repo.ListDueToStart(ctx, now)
	if err != nil {
		return summary, fmt.Errorf("list bookings due to start: %w", err)
	}
	for _, b := range due {
		if err := s.repo.UpdateStatus(ctx, b.ID, b.Status, StatusServiceStarted); err != nil {
			if errors.Is(err, ErrStatusChanged) || errors.Is(err, ErrNotFound) {
				summary.Skipped++
				continue
			}
			summary.Errors = append(summary.Errors,
				fmt.Errorf("start booking %s: %w", b.BookingNumber, err))
			continue
		}
		summary.Started++

		if err := s.cars.SetStatus(ctx, b.CarID, car.StatusBooked); err != nil {
			s.logger.Warn("sweep: failed to mark car as booked",
				zap.String("car_id", b.CarID), zap.Error(err))
		}
	}

	ended, err := s.repo.ListDueToComplete(ctx, now)
	if err != nil {
		return summary, fmt.Errorf("list bookings due to complete: %w", err)
	}
	for _, b := range ended {
		if err := s.repo.UpdateStatus(ctx, b.ID, b.Status, StatusServiceCompleted); err != nil {
			if errors.Is(err, ErrStatusChanged) || errors.Is(err, ErrNotFound) {
				summary.Skipped++
				continue
			}
			summary.Errors = append(summary.Errors,
				fmt.Errorf("end booking %s: %w", b.BookingNumber, err))
			continue
		}
		summary.Ended++

		from := b.Status
		b.Status = StatusServiceCompleted
		s.syncCarStatus(ctx, b, from)
	}

	return summary, nil
}

// syncCarStatus keeps the car's coarse status flag in line with its
// bookings after a transition. Best effort: the flag is advisory, booking
// rows remain the source of truth for availability.
func (s *Service) syncCarStatus(ctx context.Context, b *Booking, from Status) {
	if b.Status.IsActive() {
		return
	}

	busy, err := s.repo.HasOtherActiveBookingOn(ctx, b.CarID, b.ID, today(s.now()))
	if err != nil {
		s.logger.Warn("failed to check remaining bookings for car",
			zap.String("car_id", b.CarID), zap.Error(err))
		return
	}
	if busy {
		return
	}

	if err := s.cars.SetStatus(ctx, b.CarID, car.StatusAvailable); err != nil {
		s.logger.Warn("failed to release car",
			zap.String("car_id", b.CarID), zap.Error(err))
	}
}

// sendCompletionEmail delivers the completion summary to the customer.
// Failures are logged, never returned.
func (s *Service) sendCompletionEmail(ctx context.Context, b *Booking) {
	u, err := s.users.GetByID(ctx, b.UserID)
	if err != nil {
		s.logger.Warn("completion email: failed to load user",
			zap.String("user_id", b.UserID), zap.Error(err))
		return
	}

	carLabel := b.CarID
	if vehicle, err := s.cars.GetByID(ctx, b.CarID); err == nil {
		carLabel = vehicle.DisplayModel()
	}

	name := u.Email
	if u.DisplayName != nil {
		name = *u.DisplayName
	}

	msg := notify.BookingCompleted{
		ToEmail:      u.Email,
		ToName:       name,
		OrderSummary: b.OrderSummary(),
		CarLabel:     carLabel,
		TotalPrice:   b.TotalPrice,
		CompletedAt:  s.now(),
	}

	if err := s.notifier.SendBookingCompleted(ctx, msg); err != nil {
		s.logger.Warn("completion email delivery failed",
			zap.String("booking_number", b.BookingNumber), zap.Error(err))
	}
}

// normalizeDates truncates both ends of the period to UTC midnight.
func normalizeDates(start, end time.Time) (time.Time, time.Time) {
	return dateOf(start), dateOf(end)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func today(now time.Time) time.Time {
	return dateOf(now)
}
