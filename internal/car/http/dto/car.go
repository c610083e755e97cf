package dto

import (
	"time"

	"github.com/drivehub/car-rental-backend/internal/car"
)

// CreateCarRequest is the request body for adding a car to the fleet.
type CreateCarRequest struct {
	Make              string  `json:"make" binding:"required,max=50"`
	Model             string  `json:"model" binding:"required,max=50"`
	Year              int     `json:"year" binding:"required,min=1950,max=2100"`
	FuelType          string  `json:"fuel_type" binding:"required,oneof=petrol diesel hybrid electric"`
	Gearbox           string  `json:"gearbox" binding:"required,oneof=manual automatic"`
	EngineCapacity    string  `json:"engine_capacity" binding:"omitempty,max=20"`
	PassengerCapacity int     `json:"passenger_capacity" binding:"omitempty,min=1,max=12"`
	ClimateControl    bool    `json:"climate_control"`
	PricePerDay       float64 `json:"price_per_day" binding:"required,gt=0"`
	Category          string  `json:"category" binding:"required,max=50"`
	Location          string  `json:"location" binding:"required,max=100"`
	Mileage           int     `json:"mileage" binding:"omitempty,min=0"`
}

// UpdateCarRequest is the request body for editing a car.
type UpdateCarRequest struct {
	Make              string  `json:"make" binding:"required,max=50"`
	Model             string  `json:"model" binding:"required,max=50"`
	Year              int     `json:"year" binding:"required,min=1950,max=2100"`
	FuelType          string  `json:"fuel_type" binding:"required,oneof=petrol diesel hybrid electric"`
	Gearbox           string  `json:"gearbox" binding:"required,oneof=manual automatic"`
	EngineCapacity    string  `json:"engine_capacity" binding:"omitempty,max=20"`
	PassengerCapacity int     `json:"passenger_capacity" binding:"omitempty,min=1,max=12"`
	ClimateControl    bool    `json:"climate_control"`
	PricePerDay       float64 `json:"price_per_day" binding:"required,gt=0"`
	Category          string  `json:"category" binding:"required,max=50"`
	Location          string  `json:"location" binding:"required,max=100"`
}

// SetStatusRequest is the request body for changing a car's status.
type SetStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=available booked unavailable"`
}

// UpdateMileageRequest is the request body for recording a new odometer value.
type UpdateMileageRequest struct {
	Mileage int `json:"mileage" binding:"required,min=0"`
}

// ImageResponse is the public representation of a car image.
type ImageResponse struct {
	ID        string `json:"id"`
	Path      string `json:"path"`
	ThumbPath string `json:"thumb_path"`
}

// CarResponse is the public representation of a car.
type CarResponse struct {
	ID                string          `json:"id"`
	Make              string          `json:"make"`
	Model             string          `json:"model"`
	Year              int             `json:"year"`
	DisplayModel      string          `json:"display_model"`
	Status            string          `json:"status"`
	FuelType          string          `json:"fuel_type"`
	Gearbox           string          `json:"gearbox"`
	EngineCapacity    string          `json:"engine_capacity,omitempty"`
	PassengerCapacity int             `json:"passenger_capacity,omitempty"`
	ClimateControl    bool            `json:"climate_control"`
	PricePerDay       float64         `json:"price_per_day"`
	Category          string          `json:"category"`
	Location          string          `json:"location"`
	Mileage           int             `json:"mileage"`
	Rating            float64         `json:"rating"`
	Images            []ImageResponse `json:"images"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// NewCarResponse converts a car model to its response form.
func NewCarResponse(c *car.Car) CarResponse {
	images := make([]ImageResponse, 0, len(c.Images))
	for _, img := range c.Images {
		images = append(images, ImageResponse{
			ID:        img.ID,
			Path:      img.Path,
			ThumbPath: img.ThumbPath,
		})
	}

	return CarResponse{
		ID:                c.ID,
		Make:              c.Make,
		Model:             c.Model,
		Year:              c.Year,
		DisplayModel:      c.DisplayModel(),
		Status:            string(c.Status),
		FuelType:          string(c.FuelType),
		Gearbox:           string(c.Gearbox),
		EngineCapacity:    c.EngineCapacity,
		PassengerCapacity: c.PassengerCapacity,
		ClimateControl:    c.ClimateControl,
		PricePerDay:       c.PricePerDay,
		Category:          c.Category,
		Location:          c.Location,
		Mileage:           c.Mileage,
		Rating:            c.Rating,
		Images:            images,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}
