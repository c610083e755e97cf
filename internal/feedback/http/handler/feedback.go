package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/drivehub/car-rental-backend/internal/auth"
	"github.com/drivehub/car-rental-backend/internal/booking"
	"github.com/drivehub/car-rental-backend/internal/feedback"
	"github.com/drivehub/car-rental-backend/internal/feedback/http/dto"
	"github.com/drivehub/car-rental-backend/internal/pkg/apperror"
	"github.com/drivehub/car-rental-backend/internal/pkg/request"
	"github.com/drivehub/car-rental-backend/internal/pkg/response"
	"github.com/drivehub/car-rental-backend/internal/user"
)

// FeedbackHandler handles feedback-related HTTP requests.
type FeedbackHandler struct {
	service *feedback.Service
}

// NewFeedbackHandler creates a new FeedbackHandler.
func NewFeedbackHandler(service *feedback.Service) *FeedbackHandler {
	return &FeedbackHandler{service: service}
}

// Submit handles POST /bookings/:id/feedback.
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "invalid booking id"))
		return
	}

	var req dto.SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "invalid request body"))
		return
	}

	actor := booking.Actor{
		UserID: auth.GetUserID(c),
		Role:   user.Role(auth.GetUserRole(c)),
	}

	f, err := h.service.Submit(c.Request.Context(), actor, uri.ID, req.Rating, req.Comment)
	if err != nil {
		response.Error(c, mapFeedbackError(err))
		return
	}

	c.JSON(http.StatusCreated, dto.NewFeedbackResponse(f))
}

// ListForCar handles GET /cars/:id/feedbacks.
func (h *FeedbackHandler) ListForCar(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "invalid car id"))
		return
	}

	var params request.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "invalid query parameters"))
		return
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = 20
	}

	feedbacks, total, err := h.service.ListByCar(c.Request.Context(), uri.ID, params.Page, params.PageSize)
	if err != nil {
		response.Error(c, mapFeedbackError(err))
		return
	}

	items := make([]dto.FeedbackResponse, 0, len(feedbacks))
	for _, f := range feedbacks {
		items = append(items, dto.NewFeedbackResponse(f))
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, params.Page, params.PageSize, total))
}

func mapFeedbackError(err error) error {
	switch {
	case errors.Is(err, booking.ErrNotFound):
		return apperror.Wrap(err, http.StatusNotFound, "booking not found")
	case errors.Is(err, booking.ErrForbidden):
		return apperror.Wrap(err, http.StatusForbidden, "not allowed")
	case errors.Is(err, feedback.ErrInvalidRating):
		return apperror.Wrap(err, http.StatusBadRequest, err.Error())
	case errors.Is(err, feedback.ErrNotEligible):
		return apperror.Wrap(err, http.StatusConflict, "booking is not finished yet")
	case errors.Is(err, feedback.ErrAlreadySubmitted):
		return apperror.Wrap(err, http.StatusConflict, "feedback already submitted")
	default:
		return apperror.Internal(err)
	}
}
