package dto

import (
	"fmt"
	"time"

	"github.com/drivehub/car-rental-backend/internal/booking"
)

// DateOnly is the wire format for booking dates.
const DateOnly = "2006-01-02"

// ExtraServiceDTO is an add-on purchased with a booking.
type ExtraServiceDTO struct {
	Name  string  `json:"name" binding:"required,max=100"`
	Price float64 `json:"price" binding:"min=0"`
}

// CreateBookingRequest is the request body for creating a booking.
type CreateBookingRequest struct {
	CarID     string            `json:"car_id" binding:"required,uuid"`
	UserID    string            `json:"user_id" binding:"omitempty,uuid"`
	StartDate string            `json:"start_date" binding:"required"`
	EndDate   string            `json:"end_date" binding:"required"`
	Services  []ExtraServiceDTO `json:"services" binding:"omitempty,dive"`
}

// Dates parses and returns the requested period.
func (r *CreateBookingRequest) Dates() (time.Time, time.Time, error) {
	start, err := time.Parse(DateOnly, r.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date: %w", err)
	}
	end, err := time.Parse(DateOnly, r.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date: %w", err)
	}
	return start, end, nil
}

// CreateBookingResponse is returned on successful creation.
type CreateBookingResponse struct {
	BookingID     string `json:"booking_id"`
	BookingNumber string `json:"booking_number"`
	Message       string `json:"message"`
}

// ConflictResponse is returned when the requested period overlaps an
// existing active booking.
type ConflictResponse struct {
	Error                string `json:"error"`
	ConflictingBookingID string `json:"conflicting_booking_id,omitempty"`
	ConflictingPeriod    string `json:"conflicting_period,omitempty"`
}

// UpdateStatusRequest is the request body for a manual status change.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=reserved reserved_by_support_agent service_started service_completed completed cancelled"`
}

// CompleteBookingRequest is the request body for closing out a booking.
// Both fields are optional: mileage is skipped when the odometer was not
// read, notes are appended to the booking when present.
type CompleteBookingRequest struct {
	Mileage *int   `json:"final_mileage" binding:"omitempty,min=0"`
	Notes   string `json:"notes" binding:"omitempty,max=1000"`
}

// TransitionConflictResponse is returned when a requested status change is
// not allowed from the booking's current status.
type TransitionConflictResponse struct {
	Error         string `json:"error"`
	CurrentStatus string `json:"current_status"`
}

// AvailabilityResponse is the result of an availability check.
type AvailabilityResponse struct {
	Available            bool   `json:"available"`
	ConflictingBookingID string `json:"conflicting_booking_id,omitempty"`
	ConflictingPeriod    string `json:"conflicting_period,omitempty"`
}

// BookingResponse is the public representation of a booking.
type BookingResponse struct {
	ID            string            `json:"id"`
	BookingNumber string            `json:"booking_number"`
	OrderSummary  string            `json:"order_summary"`
	UserID        string            `json:"user_id"`
	CarID         string            `json:"car_id"`
	StartDate     string            `json:"start_date"`
	EndDate       string            `json:"end_date"`
	Status        string            `json:"status"`
	Services      []ExtraServiceDTO `json:"services"`
	TotalPrice    float64           `json:"total_price"`
	Notes         *string           `json:"notes,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// NewBookingResponse converts a booking model to its response form.
func NewBookingResponse(b *booking.Booking) BookingResponse {
	services := make([]ExtraServiceDTO, 0, len(b.Services))
	for _, svc := range b.Services {
		services = append(services, ExtraServiceDTO{Name: svc.Name, Price: svc.Price})
	}

	return BookingResponse{
		ID:            b.ID,
		BookingNumber: b.BookingNumber,
		OrderSummary:  b.OrderSummary(),
		UserID:        b.UserID,
		CarID:         b.CarID,
		StartDate:     b.StartDate.Format(DateOnly),
		EndDate:       b.EndDate.Format(DateOnly),
		Status:        string(b.Status),
		Services:      services,
		TotalPrice:    b.TotalPrice,
		Notes:         b.Notes,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}
