package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/drivehub/car-rental-backend/internal/auth"
	"github.com/drivehub/car-rental-backend/internal/pkg/apperror"
	"github.com/drivehub/car-rental-backend/internal/pkg/request"
	"github.com/drivehub/car-rental-backend/internal/pkg/response"
	"github.com/drivehub/car-rental-backend/internal/user"
	"github.com/drivehub/car-rental-backend/internal/user/http/dto"
)

// UserHandler handles user-related HTTP requests.
type UserHandler struct {
	service user.Service
	jwt     *auth.JWTManager
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service user.Service, jwt *auth.JWTManager) *UserHandler {
	return &UserHandler{
		service: service,
		jwt:     jwt,
	}
}

// Register handles POST /auth/register.
func (h *UserHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "invalid request body"))
		return
	}

	u, err := h.service.Register(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		response.Error(c, mapUserError(err))
		return
	}

	c.JSON(http.StatusCreated, dto.NewUserResponse(u))
}

// Login handles POST /auth/login.
func (h *UserHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "invalid request body"))
		return
	}

	u, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, mapUserError(err))
		return
	}

	token, err := h.jwt.GenerateAccessToken(u.ID, u.Email, string(u.Role))
	if err != nil {
		response.Error(c, apperror.Wrap(err, http.StatusInternalServerError, "failed to issue token"))
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{
		AccessToken: token,
		User:        dto.NewUserResponse(u),
	})
}

// Me handles GET /users/me for the authenticated user.
func (h *UserHandler) Me(c *gin.Context) {
	userID := auth.GetUserID(c)
	if userID == "" {
		response.Error(c, apperror.New(http.StatusUnauthorized, "not authenticated"))
		return
	}

	u, err := h.service.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, mapUserError(err))
		return
	}

	c.JSON(http.StatusOK, dto.NewUserResponse(u))
}

// List handles GET /users (admin only).
func (h *UserHandler) List(c *gin.Context) {
	var params request.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "invalid query parameters"))
		return
	}

	filter := user.Filter{
		Email:    c.Query("email"),
		Role:     c.Query("role"),
		Page:     params.Page,
		PageSize: params.PageSize,
	}

	users, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, mapUserError(err))
		return
	}

	items := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, dto.NewUserResponse(u))
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, filter.Page, filter.PageSize, total))
}

// Update handles PATCH /users/:id (admin only).
func (h *UserHandler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "invalid user id"))
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "invalid request body"))
		return
	}

	u, err := h.service.Update(c.Request.Context(), uri.ID, user.UpdateRequest{
		DisplayName: req.DisplayName,
		Role:        req.Role,
		IsActive:    req.IsActive,
	})
	if err != nil {
		response.Error(c, mapUserError(err))
		return
	}

	c.JSON(http.StatusOK, dto.NewUserResponse(u))
}

func mapUserError(err error) error {
	switch {
	case errors.Is(err, user.ErrNotFound):
		return apperror.Wrap(err, http.StatusNotFound, "user not found")
	case errors.Is(err, user.ErrEmailAlreadyUsed):
		return apperror.Wrap(err, http.StatusConflict, "email already used")
	case errors.Is(err, user.ErrInvalidCredentials):
		return apperror.Wrap(err, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, user.ErrInactiveUser):
		return apperror.Wrap(err, http.StatusForbidden, "user account is inactive")
	case errors.Is(err, user.ErrEmailRequired),
		errors.Is(err, user.ErrPasswordTooShort),
		errors.Is(err, user.ErrInvalidRole):
		return apperror.Wrap(err, http.StatusBadRequest, err.Error())
	default:
		return apperror.Internal(err)
	}
}
