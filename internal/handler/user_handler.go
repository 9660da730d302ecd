package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/openverse/campus-api/internal/dto"
	"github.com/openverse/campus-api/internal/middleware"
	"github.com/openverse/campus-api/internal/models"
	"github.com/openverse/campus-api/internal/service"
	appErrors "github.com/openverse/campus-api/pkg/errors"
	"github.com/openverse/campus-api/pkg/response"
)

// UserHandler exposes user directory, profile and leaderboard routes.
type UserHandler struct {
	users  *service.UserService
	ledger *service.LedgerService
}

// NewUserHandler constructs the handler.
func NewUserHandler(users *service.UserService, ledger *service.LedgerService) *UserHandler {
	return &UserHandler{users: users, ledger: ledger}
}

// List godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Param branch query string false "Filter by branch"
// @Param role query string false "Filter by role"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	filter := models.UserFilter{Branch: c.Query("branch")}
	if role := c.Query("role"); role != "" {
		r := models.UserRole(role)
		filter.Role = &r
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	users, pagination, err := h.users.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, pagination)
}

// Me godoc
// @Summary Get the caller's user record
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	user, err := h.ledger.Get(c.Request.Context(), claims.EnrollmentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// Get godoc
// @Summary Get a user by enrollment id
// @Tags Users
// @Produce json
// @Param enrollmentId path string true "Enrollment id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/{enrollmentId} [get]
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.ledger.Get(c.Request.Context(), c.Param("enrollmentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// UpdateProfile godoc
// @Summary Update profile fields
// @Tags Users
// @Accept json
// @Produce json
// @Param enrollmentId path string true "Enrollment id"
// @Param payload body dto.UpdateProfileRequest true "Profile changes"
// @Success 200 {object} response.Envelope
// @Router /users/{enrollmentId}/profile [patch]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	user, err := h.ledger.UpdateProfile(c.Request.Context(), c.Param("enrollmentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// Leaderboard godoc
// @Summary Karma leaderboard
// @Tags Users
// @Produce json
// @Param branch query string false "Scope to a branch"
// @Param limit query int false "Row limit"
// @Success 200 {object} response.Envelope
// @Router /leaderboard [get]
func (h *UserHandler) Leaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, cached, err := h.users.Leaderboard(c.Request.Context(), c.Query("branch"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cached)
	response.JSON(c, http.StatusOK, entries, nil, middleware.ExtractMeta(c))
}
