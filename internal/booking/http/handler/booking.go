package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/drivehub/car-rental-backend/internal/auth"
	"github.com/drivehub/car-rental-backend/internal/booking"
	"github.com/drivehub/car-rental-backend/internal/booking/http/dto"
	"github.com/drivehub/car-rental-backend/internal/car"
	"github.com/drivehub/car-rental-backend/internal/pkg/apperror"
	"github.com/drivehub/car-rental-backend/internal/pkg/request"
	"github.com/drivehub/car-rental-backend/internal/pkg/response"
	"github.com/drivehub/car-rental-backend/internal/user"
)

// BookingHandler handles booking-related HTTP requests.
type BookingHandler struct {
	service *booking.Service
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *booking.Service) *BookingHandler {
	return &BookingHandler{service: service}
}

func actorFrom(c *gin.Context) booking.Actor {
	return booking.Actor{
		UserID: auth.GetUserID(c),
		Role:   user.Role(auth.GetUserRole(c)),
	}
}

// Create handles POST /bookings.
func (h *BookingHandler) Create(c *gin.Context) {
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "invalid request body"))
		return
	}

	start, end, err := req.Dates()
	if err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, err.Error()))
		return
	}

	services := make([]booking.ExtraService, 0, len(req.Services))
	for _, svc := range req.Services {
		services = append(services, booking.ExtraService{Name: svc.Name, Price: svc.Price})
	}

	b, err := h.service.Create(c.Request.Context(), actorFrom(c), booking.CreateParams{
		UserID:   req.UserID,
		CarID:    req.CarID,
		Start:    start,
		End:      end,
		Services: services,
	})
	if err != nil {
		var overlap *booking.OverlapError
		if errors.As(err, &overlap) {
			c.JSON(http.StatusConflict, dto.ConflictResponse{
				Error:                "car is not available for the requested period",
				ConflictingBookingID: overlap.ConflictingID,
				ConflictingPeriod:    overlap.Period(),
			})
			return
		}
		response.Error(c, mapBookingError(err))
		return
	}

	c.JSON(http.StatusCreated, dto.CreateBookingResponse{
		BookingID:     b.ID,
		BookingNumber: b.BookingNumber,
		Message:       "booking created",
	})
}

// CheckAvailability handles GET /cars/:id/availability.
func (h *BookingHandler) CheckAvailability(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "invalid car id"))
		return
	}

	start, err := time.Parse(dto.DateOnly, c.Query("start_date"))
	if err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "invalid start_date"))
		return
	}
	end, err := time.Parse(dto.DateOnly, c.Query("end_date"))
	if err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "invalid end_date"))
		return
	}

	avail, err := h.service.CheckAvailability(c.Request.Context(), uri.ID, start, end)
	if err != nil {
		response.Error(c, mapBookingError(err))
		return
	}

	resp := dto.AvailabilityResponse{Available: avail.Available}
	if avail.Conflict != nil {
		resp.ConflictingBookingID = avail.Conflict.ID
		resp.ConflictingPeriod = booking.FormatPeriod(avail.Conflict.StartDate, avail.Conflict.EndDate)
	}

	c.JSON(http.StatusOK, resp)
}

// List handles GET /bookings. Customers see their own bookings; staff may
// filter across all users.
func (h *BookingHandler) List(c *gin.Context) {
	var params request.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "invalid query parameters"))
		return
	}

	filter := booking.Filter{
		UserID:   c.Query("user_id"),
		CarID:    c.Query("car_id"),
		Status:   c.Query("status"),
		Page:     params.Page,
		PageSize: params.PageSize,
	}

	if v := c.Query("from"); v != "" {
		from, err := time.Parse(dto.DateOnly, v)
		if err != nil {
			response.Error(c, apperror.New(http.StatusBadRequest, "invalid from date"))
			return
		}
		filter.From = from
	}
	if v := c.Query("to"); v != "" {
		to, err := time.Parse(dto.DateOnly, v)
		if err != nil {
			response.Error(c, apperror.New(http.StatusBadRequest, "invalid to date"))
			return
		}
		filter.To = to
	}

	bookings, total, err := h.service.List(c.Request.Context(), actorFrom(c), filter)
	if err != nil {
		response.Error(c, mapBookingError(err))
		return
	}

	items := make([]dto.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, dto.NewBookingResponse(b))
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, filter.Page, filter.PageSize, total))
}

// ListForUser handles GET /users/:id/bookings (staff only).
func (h *BookingHandler) ListForUser(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "invalid user id"))
		return
	}

	var params request.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "invalid query parameters"))
		return
	}

	filter := booking.Filter{
		UserID:   uri.ID,
		Status:   c.Query("status"),
		Page:     params.Page,
		PageSize: params.PageSize,
	}

	bookings, total, err := h.service.List(c.Request.Context(), actorFrom(c), filter)
	if err != nil {
		response.Error(c, mapBookingError(err))
		return
	}

	items := make([]dto.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, dto.NewBookingResponse(b))
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, filter.Page, filter.PageSize, total))
}

// Get handles GET /bookings/:id.
func (h *BookingHandler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "invalid booking id"))
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), actorFrom(c), uri.ID)
	if err != nil {
		response.Error(c, mapBookingError(err))
		return
	}

	c.JSON(http.StatusOK, dto.NewBookingResponse(b))
}

// UpdateStatus handles PATCH /bookings/:id/status (staff only).
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "invalid booking id"))
		return
	}

	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "invalid request body"))
		return
	}

	b, err := h.service.UpdateStatus(c.Request.Context(), actorFrom(c), uri.ID, booking.Status(req.Status))
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBookingResponse(b))
}

// Cancel handles POST /bookings/:id/cancel.
func (h *BookingHandler) Cancel(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "invalid booking id"))
		return
	}

	b, err := h.service.Cancel(c.Request.Context(), actorFrom(c), uri.ID)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBookingResponse(b))
}

// Complete handles POST /bookings/:id/complete (staff only).
func (h *BookingHandler) Complete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "invalid booking id"))
		return
	}

	// The body is optional; an empty POST completes without mileage or notes.
	var req dto.CompleteBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, apperror.New(http.StatusBadRequest, "invalid request body"))
			return
		}
	}

	b, err := h.service.Complete(c.Request.Context(), actorFrom(c), uri.ID, req.Mileage, req.Notes)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBookingResponse(b))
}

// respondBookingError renders err, giving rejected status transitions a 400
// response that names the booking's current status.
func respondBookingError(c *gin.Context, err error) {
	var transition *booking.TransitionError
	if errors.As(err, &transition) {
		c.JSON(http.StatusBadRequest, dto.TransitionConflictResponse{
			Error:         transition.Error(),
			CurrentStatus: string(transition.Current),
		})
		return
	}
	response.Error(c, mapBookingError(err))
}

func mapBookingError(err error) error {
	switch {
	case errors.Is(err, booking.ErrNotFound):
		return apperror.Wrap(err, http.StatusNotFound, "booking not found")
	case errors.Is(err, car.ErrNotFound):
		return apperror.Wrap(err, http.StatusNotFound, "car not found")
	case errors.Is(err, booking.ErrForbidden):
		return apperror.Wrap(err, http.StatusForbidden, "not allowed")
	case errors.Is(err, booking.ErrInvalidPeriod),
		errors.Is(err, booking.ErrStartInPast):
		return apperror.Wrap(err, http.StatusBadRequest, err.Error())
	case errors.Is(err, booking.ErrCarUnavailable):
		return apperror.Wrap(err, http.StatusConflict, "car is unavailable")
	case errors.Is(err, booking.ErrInvalidTransition):
		return apperror.Wrap(err, http.StatusConflict, "status transition not allowed")
	case errors.Is(err, booking.ErrDuplicateBooking):
		return apperror.Wrap(err, http.StatusConflict, "an identical active booking already exists")
	case errors.Is(err, booking.ErrStatusChanged):
		return apperror.Wrap(err, http.StatusConflict, "booking was modified concurrently, retry")
	case errors.Is(err, car.ErrMileageDecrease):
		return apperror.Wrap(err, http.StatusConflict, "mileage cannot decrease")
	default:
		return apperror.Internal(err)
	}
}
