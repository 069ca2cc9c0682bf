package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "moneta/internal/errors"
	"moneta/internal/middleware"
	"moneta/internal/models"
	"moneta/internal/services"
)

// AuthHandler handles authentication and profile requests
type AuthHandler struct {
	userService      services.UserServicer
	profileService   services.ProfileServicer
	auditService     services.AuditServicer
	defaultAnchorDay int
}

// NewAuthHandler creates a new AuthHandler. defaultAnchorDay is used for
// registrations that do not pick one.
func NewAuthHandler(
	userService services.UserServicer,
	profileService services.ProfileServicer,
	auditService services.AuditServicer,
	defaultAnchorDay int,
) *AuthHandler {
	return &AuthHandler{
		userService:      userService,
		profileService:   profileService,
		auditService:     auditService,
		defaultAnchorDay: defaultAnchorDay,
	}
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Email          string `json:"email" binding:"required,email,max=255"`
	Password       string `json:"password" binding:"required,min=8,max=128"`
	Name           string `json:"name" binding:"max=100"`
	CycleAnchorDay *int   `json:"cycle_anchor_day" binding:"omitempty,anchor_day"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest carries the profile fields to change. Omitted
// fields are left as they are.
type UpdateProfileRequest struct {
	Name           *string `json:"name" binding:"omitempty,max=100"`
	Email          *string `json:"email" binding:"omitempty,email,max=255"`
	Password       *string `json:"password" binding:"omitempty,min=8,max=128"`
	CycleAnchorDay *int    `json:"cycle_anchor_day" binding:"omitempty,anchor_day"`
}

// UserResponse represents the user data in the response
type UserResponse struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	CycleAnchorDay int    `json:"cycle_anchor_day"`
}

// AuthResponse represents the authentication response with token
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// ProfileResponse is returned after a profile update.
type ProfileResponse struct {
	User            UserResponse `json:"user"`
	MigratedBudgets int          `json:"migrated_budgets"`
}

func newUserResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:             user.ID,
		Email:          user.Email,
		Name:           user.Name,
		CycleAnchorDay: user.CycleAnchorDay,
	}
}

// Register handles user registration
// @Summary     Register a new user
// @Description Register a new user with email and password. The budget cycle anchor day defaults to the server setting.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RegisterRequest true "User registration data"
// @Success     201 {object} AuthResponse "User registered and token generated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Email already registered"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	anchorDay := h.defaultAnchorDay
	if req.CycleAnchorDay != nil {
		anchorDay = *req.CycleAnchorDay
	}

	user, err := h.userService.CreateUser(c.Request.Context(), req.Email, req.Password, req.Name, anchorDay)
	if err != nil {
		respondWithError(c, err)
		return
	}

	token, err := middleware.GenerateAccessToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{Token: token, User: newUserResponse(user)})
}

// Login handles user login
// @Summary     Login user
// @Description Authenticate a user and get a token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "User login credentials"
// @Success     200 {object} AuthResponse "User authenticated and token generated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid credentials"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		respondWithError(c, apperrors.ErrInvalidCredentials)
		return
	}

	if !h.userService.VerifyPassword(user, req.Password) {
		respondWithError(c, apperrors.ErrInvalidCredentials)
		return
	}

	token, err := middleware.GenerateAccessToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.JSON(http.StatusOK, AuthResponse{Token: token, User: newUserResponse(user)})
}

// GetProfile returns the user's profile
// @Summary     Get user profile
// @Description Get the authenticated user's profile information
// @Tags        user
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} UserResponse "User profile"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}

// UpdateProfile changes the user's profile
// @Summary     Update user profile
// @Description Update name, email, password or cycle anchor day. Changing the anchor day re-anchors every budget whose cycle has not ended yet.
// @Tags        user
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateProfileRequest true "Profile fields to change"
// @Success     200 {object} ProfileResponse "Updated profile"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     409 {object} ErrorResponse "Email already registered"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /profile [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.profileService.UpdateProfile(c.Request.Context(), userID, services.ProfileUpdate{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		CycleAnchorDay: req.CycleAnchorDay,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	changes := map[string]interface{}{}
	if req.Name != nil {
		changes["name"] = *req.Name
	}
	if req.Email != nil {
		changes["email"] = *req.Email
	}
	if req.Password != nil {
		changes["password"] = "changed"
	}
	if req.CycleAnchorDay != nil {
		changes["cycle_anchor_day"] = *req.CycleAnchorDay
	}
	h.auditService.Log(userID, services.AuditUpdateProfile, "user", userID, c.ClientIP(), changes)
	if result.MigratedBudgets > 0 {
		h.auditService.Log(userID, services.AuditMigrateCycle, "user", userID, c.ClientIP(),
			map[string]interface{}{
				"cycle_anchor_day": result.User.CycleAnchorDay,
				"migrated_budgets": result.MigratedBudgets,
			})
	}

	c.JSON(http.StatusOK, ProfileResponse{
		User:            newUserResponse(result.User),
		MigratedBudgets: result.MigratedBudgets,
	})
}
