package booking

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound         = errors.New("booking not found")
	ErrInvalidPeriod    = errors.New("end date must be after start date")
	ErrStartInPast      = errors.New("start date is in the past")
	ErrCarUnavailable   = errors.New("car is not available for booking")
	ErrDuplicateBooking = errors.New("an identical active booking already exists")
	ErrNumberCollision  = errors.New("booking number already taken")
	ErrStatusChanged    = errors.New("booking status changed concurrently")
	ErrForbidden        = errors.New("not allowed to access this booking")
)

// OverlapError reports a conflicting active booking for the same car.
type OverlapError struct {
	ConflictingID string
	Start         time.Time
	End           time.Time
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("car already booked from %s to %s",
		e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"))
}

// Period formats the conflicting range for API responses, e.g. "Jun 1 - Jun 3".
func (e *OverlapError) Period() string {
	return FormatPeriod(e.Start, e.End)
}

// FormatPeriod renders a date range in the short human form used by
// conflict responses.
func FormatPeriod(start, end time.Time) string {
	return start.Format("Jan 2") + " - " + end.Format("Jan 2")
}

// ExtraService is an add-on purchased with a booking (child seat, GPS, ...).
type ExtraService struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Booking represents a car rental reservation.
//
// StartDate and EndDate are date-granular and the rented range is half-open:
// a booking occupies [StartDate, EndDate), so a booking ending June 3 does
// not conflict with one starting June 3.
type Booking struct {
	ID            string // UUID
	BookingNumber string
	UserID        string
	CarID         string
	StartDate     time.Time
	EndDate       time.Time
	Status        Status
	Services      []ExtraService
	TotalPrice    float64
	Notes         *string // completion notes appended by staff
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Days returns the number of billable rental days. The range is half-open,
// and any non-empty period bills at least one day.
func (b *Booking) Days() int {
	days := int(b.EndDate.Sub(b.StartDate).Hours() / 24)
	if days < 1 {
		days = 1
	}
	return days
}

// OrderSummary is the short label shown in emails and support tooling,
// e.g. "#1234567 (01.06.26)" from booking number "260601-1234567".
func (b *Booking) OrderSummary() string {
	suffix := b.BookingNumber
	if i := strings.IndexByte(suffix, '-'); i >= 0 {
		suffix = suffix[i+1:]
	}
	return "#" + suffix + " (" + b.CreatedAt.Format("02.01.06") + ")"
}

// Filter defines filter options for listing bookings. From/To select
// bookings whose period intersects the given range; either may be zero.
type Filter struct {
	UserID string
	CarID  string
	Status string
	From   time.Time
	To     time.Time

	Page     int
	PageSize int
}
