package car

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound        = errors.New("car not found")
	ErrInvalidStatus   = errors.New("invalid car status")
	ErrMileageDecrease = errors.New("mileage cannot decrease")
)

// Status is the fleet availability status of a car.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusBooked      Status = "booked"
	StatusUnavailable Status = "unavailable"
)

// IsValid returns true if the status is a recognized car status.
func (s Status) IsValid() bool {
	switch s {
	case StatusAvailable, StatusBooked, StatusUnavailable:
		return true
	}
	return false
}

// FuelType enumerates supported fuel types.
type FuelType string

const (
	FuelPetrol   FuelType = "petrol"
	FuelDiesel   FuelType = "diesel"
	FuelHybrid   FuelType = "hybrid"
	FuelElectric FuelType = "electric"
)

// GearboxType enumerates supported gearbox types.
type GearboxType string

const (
	GearboxManual    GearboxType = "manual"
	GearboxAutomatic GearboxType = "automatic"
)

// Car represents a rentable vehicle in the fleet.
type Car struct {
	ID                string // UUID
	Make              string
	Model             string
	Year              int
	Status            Status
	FuelType          FuelType
	Gearbox           GearboxType
	EngineCapacity    string // e.g. "1.8L"
	PassengerCapacity int
	ClimateControl    bool
	PricePerDay       float64
	Category          string
	Location          string
	Mileage           int
	Rating            float64 // aggregate customer rating, 0 when unrated
	Images            []Image
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// DisplayModel returns the human-readable label used in listings
// and notification emails, e.g. "Toyota Corolla (2022)".
func (c *Car) DisplayModel() string {
	return fmt.Sprintf("%s %s (%d)", c.Make, c.Model, c.Year)
}

// Image is a stored photo of a car.
type Image struct {
	ID        string // UUID
	CarID     string
	Path      string // relative path in storage
	ThumbPath string
	CreatedAt time.Time
}

// Filter defines filter options for listing cars.
type Filter struct {
	Make     string
	Model    string
	Category string
	Location string
	Status   string
	Gearbox  string
	FuelType string
	MaxPrice float64

	Page     int
	PageSize int
}
