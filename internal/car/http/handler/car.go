package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/drivehub/car-rental-backend/internal/car"
	"github.com/drivehub/car-rental-backend/internal/car/http/dto"
	"github.com/drivehub/car-rental-backend/internal/pkg/apperror"
	"github.com/drivehub/car-rental-backend/internal/pkg/request"
	"github.com/drivehub/car-rental-backend/internal/pkg/response"
)

// maxImageUploadBytes caps car image uploads at 10 MiB.
const maxImageUploadBytes = 10 << 20

// CarHandler handles car-related HTTP requests.
type CarHandler struct {
	service car.Service
}

// NewCarHandler creates a new CarHandler.
func NewCarHandler(service car.Service) *CarHandler {
	return &CarHandler{service: service}
}

// List handles GET /cars.
func (h *CarHandler) List(c *gin.Context) {
	var params request.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "invalid query parameters"))
		return
	}

	maxPrice, _ := strconv.ParseFloat(c.Query("max_price"), 64)

	filter := car.Filter{
		Make:     c.Query("make"),
		Model:    c.Query("model"),
		Category: c.Query("category"),
		Location: c.Query("location"),
		Status:   c.Query("status"),
		Gearbox:  c.Query("gearbox"),
		FuelType: c.Query("fuel_type"),
		MaxPrice: maxPrice,
		Page:     params.Page,
		PageSize: params.PageSize,
	}

	cars, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, mapCarError(err))
		return
	}

	items := make([]dto.CarResponse, 0, len(cars))
	for _, v := range cars {
		items = append(items, dto.NewCarResponse(v))
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, filter.Page, filter.PageSize, total))
}

// Get handles GET /cars/:id.
func (h *CarHandler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "invalid car id"))
		return
	}

	v, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, mapCarError(err))
		return
	}

	c.JSON(http.StatusOK, dto.NewCarResponse(v))
}

// Create handles POST /cars (admin only).
func (h *CarHandler) Create(c *gin.Context) {
	var req dto.CreateCarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "invalid request body"))
		return
	}

	v := &car.Car{
		Make:              req.Make,
		Model:             req.Model,
		Year:              req.Year,
		FuelType:          car.FuelType(req.FuelType),
		Gearbox:           car.GearboxType(req.Gearbox),
		EngineCapacity:    req.EngineCapacity,
		PassengerCapacity: req.PassengerCapacity,
		ClimateControl:    req.ClimateControl,
		PricePerDay:       req.PricePerDay,
		Category:          req.Category,
		Location:          req.Location,
		Mileage:           req.Mileage,
	}

	if err := h.service.Create(c.Request.Context(), v); err != nil {
		response.Error(c, mapCarError(err))
		return
	}

	c.JSON(http.StatusCreated, dto.NewCarResponse(v))
}

// Update handles PUT /cars/:id (admin only).
func (h *CarHandler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "invalid car id"))
		return
	}

	var req dto.UpdateCarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "invalid request body"))
		return
	}

	v, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, mapCarError(err))
		return
	}

	v.Make = req.Make
	v.Model = req.Model
	v.Year = req.Year
	v.FuelType = car.FuelType(req.FuelType)
	v.Gearbox = car.GearboxType(req.Gearbox)
	v.EngineCapacity = req.EngineCapacity
	v.PassengerCapacity = req.PassengerCapacity
	v.ClimateControl = req.ClimateControl
	v.PricePerDay = req.PricePerDay
	v.Category = req.Category
	v.Location = req.Location

	if err := h.service.Update(c.Request.Context(), v); err != nil {
		response.Error(c, mapCarError(err))
		return
	}

	c.JSON(http.StatusOK, dto.NewCarResponse(v))
}

// Delete handles DELETE /cars/:id (admin only).
func (h *CarHandler) Delete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "invalid car id"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), uri.ID); err != nil {
		response.Error(c, mapCarError(err))
		return
	}

	c.Status(http.StatusNoContent)
}

// SetStatus handles PATCH /cars/:id/status (staff only).
func (h *CarHandler) SetStatus(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "invalid car id"))
		return
	}

	var req dto.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "invalid request body"))
		return
	}

	if err := h.service.SetStatus(c.Request.Context(), uri.ID, car.Status(req.Status)); err != nil {
		response.Error(c, mapCarError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "status updated"})
}

// UpdateMileage handles PATCH /cars/:id/mileage (staff only).
func (h *CarHandler) UpdateMileage(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "invalid car id"))
		return
	}

	var req dto.UpdateMileageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "invalid request body"))
		return
	}

	if err := h.service.UpdateMileage(c.Request.Context(), uri.ID, req.Mileage); err != nil {
		response.Error(c, mapCarError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "mileage updated"})
}

// UploadImage handles POST /cars/:id/images (admin only).
func (h *CarHandler) UploadImage(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "invalid car id"))
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "missing image file"))
		return
	}
	if fileHeader.Size > maxImageUploadBytes {
		response.Error(c, apperror.New(http.StatusRequestEntityTooLarge, "image too large"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, apperror.Wrap(err, http.StatusInternalServerError, "failed to read upload"))
		return
	}
	defer file.Close()

	img, err := h.service.UploadImage(c.Request.Context(), uri.ID, fileHeader.Filename, file)
	if err != nil {
		response.Error(c, mapCarError(err))
		return
	}

	c.JSON(http.StatusCreated, dto.ImageResponse{
		ID:        img.ID,
		Path:      img.Path,
		ThumbPath: img.ThumbPath,
	})
}

// DeleteImage handles DELETE /cars/images/:id (admin only).
func (h *CarHandler) DeleteImage(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "invalid image id"))
		return
	}

	if err := h.service.DeleteImage(c.Request.Context(), uri.ID); err != nil {
		response.Error(c, mapCarError(err))
		return
	}

	c.Status(http.StatusNoContent)
}

func mapCarError(err error) error {
	switch {
	case errors.Is(err, car.ErrNotFound):
		return apperror.Wrap(err, http.StatusNotFound, "car not found")
	case errors.Is(err, car.ErrInvalidStatus):
		return apperror.Wrap(err, http.StatusBadRequest, "invalid car status")
	case errors.Is(err, car.ErrMileageDecrease):
		return apperror.Wrap(err, http.StatusConflict, "mileage cannot decrease")
	case errors.Is(err, car.ErrUnsupportedImageType):
		return apperror.Wrap(err, http.StatusBadRequest, "unsupported image type")
	default:
		return apperror.Internal(err)
	}
}
