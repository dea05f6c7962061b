package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/authdeck/authdeck/internal/auth"
	"github.com/authdeck/authdeck/internal/forms"
	"github.com/authdeck/authdeck/internal/models"
)

var (
	errInvalidRefresh = errors.New("invalid refresh token")
	errRefreshReuse   = errors.New("refresh token reused")
	errEmailTaken     = errors.New("email already registered")
)

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// RegisterRequest represents a sign-up request
type RegisterRequest struct {
	FirstName string `json:"firstName" binding:"required,min=2"`
	LastName  string `json:"lastName" binding:"required,min=2"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,strongpassword"`
}

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// UpdateProfileRequest represents a partial profile update
type UpdateProfileRequest struct {
	FirstName *string `json:"firstName" binding:"omitempty,min=2"`
	LastName  *string `json:"lastName" binding:"omitempty,min=2"`
	Email     *string `json:"email" binding:"omitempty,email"`
}

// AuthResponse is returned by login, register and refresh
type AuthResponse struct {
	User         *UserDetail `json:"user"`
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
}

// UserResponse wraps a single user
type UserResponse struct {
	User *UserDetail `json:"user"`
}

// UserDetail represents user information returned in responses
type UserDetail struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	CreatedAt time.Time `json:"createdAt"`
}

func newUserDetail(u *models.User) *UserDetail {
	return &UserDetail{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// bindJSON binds the request body and responds 400 with readable messages
// on failure
func (s *Server) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		message := "Invalid request body"
		var fieldErrs forms.ValidationErrors
		if errors.As(forms.Translate(err), &fieldErrs) {
			message = fieldErrs.Error()
		}
		respondWithError(c, s.logger, http.StatusBadRequest, err, message)
		return false
	}
	return true
}

// issueSession signs an access token and stores a new refresh token for user
func (s *Server) issueSession(tx *gorm.DB, user *models.User) (*AuthResponse, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	refreshToken, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	record := models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: time.Now().UTC().Add(s.config.Tokens.RefreshTTL),
	}
	if err := tx.Create(&record).Error; err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:         newUserDetail(user),
		Token:        token,
		RefreshToken: refreshToken,
	}, nil
}

// @Summary Register
// @Description Creates an account and signs it in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/auth/register [post]
func (s *Server) register(c *gin.Context) {
	var req RegisterRequest
	if !s.bindJSON(c, &req) {
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to hash password")
		return
	}

	user := models.User{
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
	}

	var resp *AuthResponse
	err = s.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errEmailTaken
		}

		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		resp, err = s.issueSession(tx, &user)
		return err
	})
	if errors.Is(err, errEmailTaken) {
		respondWithError(c, s.logger, http.StatusConflict, err, "Email already registered")
		return
	}
	if err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to create user")
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User registered")
	c.JSON(http.StatusCreated, resp)
}

// @Summary Login
// @Description Authenticates with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/login [post]
func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if !s.bindJSON(c, &req) {
		return
	}

	db := s.db.WithContext(c.Request.Context())

	var user models.User
	if err := db.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
		respondWithError(c, s.logger, http.StatusUnauthorized, err, "Invalid email or password")
		return
	}

	if err := auth.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		respondWithError(c, s.logger, http.StatusUnauthorized, err, "Invalid email or password")
		return
	}

	resp, err := s.issueSession(db, &user)
	if err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to issue session")
		return
	}

	s.logger.Info().Str("user_id", user.ID).Msg("User logged in")
	c.JSON(http.StatusOK, resp)
}

// @Summary Refresh session
// @Description Exchanges a refresh token for a new access and refresh token.
// @Description Refresh tokens are single use; presenting a revoked one revokes
// @Description every session of its user.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh token"
// @Success 200 {object} AuthResponse
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/refresh [post]
func (s *Server) refresh(c *gin.Context) {
	var req RefreshRequest
	if !s.bindJSON(c, &req) {
		return
	}

	db := s.db.WithContext(c.Request.Context())
	now := time.Now().UTC()
	hash := auth.HashRefreshToken(req.RefreshToken)

	var (
		resp   *AuthResponse
		userID string
	)
	err := db.Transaction(func(tx *gorm.DB) error {
		var current models.RefreshToken
		if err := tx.Where("token_hash = ?", hash).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errInvalidRefresh
			}
			return err
		}
		userID = current.UserID

		if current.RevokedAt != nil {
			return errRefreshReuse
		}
		if !now.Before(current.ExpiresAt) {
			return errInvalidRefresh
		}

		// Conditional update so concurrent refreshes cannot both rotate
		result := tx.Model(&models.RefreshToken{}).
			Where("id = ? AND revoked_at IS NULL", current.ID).
			Update("revoked_at", now)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errRefreshReuse
		}

		var user models.User
		if err := models.FindByID(tx, current.UserID, &user); err != nil {
			return err
		}

		var err error
		resp, err = s.issueSession(tx, &user)
		return err
	})

	switch {
	case err == nil:
		c.JSON(http.StatusOK, resp)
	case errors.Is(err, errRefreshReuse):
		if revokeErr := revokeAllRefreshTokens(db, userID, now); revokeErr != nil {
			s.logger.Error().Err(revokeErr).Str("user_id", userID).Msg("Failed to revoke sessions")
		}
		respondWithError(c, s.logger, http.StatusUnauthorized, err, "Invalid or expired refresh token")
	case errors.Is(err, errInvalidRefresh), errors.Is(err, gorm.ErrRecordNotFound):
		respondWithError(c, s.logger, http.StatusUnauthorized, err, "Invalid or expired refresh token")
	default:
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to refresh session")
	}
}

func revokeAllRefreshTokens(db *gorm.DB, userID string, now time.Time) error {
	return db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", now).Error
}

// @Summary Get current user
// @Tags auth
// @Produce json
// @Success 200 {object} UserResponse
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/me [get]
// @Security BearerAuth
func (s *Server) getCurrentUser(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var user models.User
	if err := models.FindByID(s.db.WithContext(c.Request.Context()), sessionData.UserID, &user); err != nil {
		respondWithError(c, s.logger, http.StatusNotFound, err, "User not found")
		return
	}

	c.JSON(http.StatusOK, UserResponse{User: newUserDetail(&user)})
}

// @Summary Update current user
// @Description Updates any of first name, last name and email
// @Tags users
// @Accept json
// @Produce json
// @Param request body UpdateProfileRequest true "Profile fields"
// @Success 200 {object} UserResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/users/me [patch]
// @Security BearerAuth
func (s *Server) updateCurrentUser(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var req UpdateProfileRequest
	if !s.bindJSON(c, &req) {
		return
	}

	var user models.User
	err := s.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := models.FindByID(tx, sessionData.UserID, &user); err != nil {
			return err
		}

		if req.FirstName != nil {
			user.FirstName = strings.TrimSpace(*req.FirstName)
		}
		if req.LastName != nil {
			user.LastName = strings.TrimSpace(*req.LastName)
		}
		if req.Email != nil {
			email := normalizeEmail(*req.Email)
			if email != user.Email {
				var count int64
				if err := tx.Model(&models.User{}).Where("email = ? AND id <> ?", email, user.ID).Count(&count).Error; err != nil {
					return err
				}
				if count > 0 {
					return errEmailTaken
				}
				user.Email = email
			}
		}

		return tx.Select("first_name", "last_name", "email", "updated_at").Updates(&user).Error
	})
	if errors.Is(err, errEmailTaken) {
		respondWithError(c, s.logger, http.StatusConflict, err, "Email already registered")
		return
	}
	if err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to update profile")
		return
	}

	s.logger.Info().Str("user_id", user.ID).Msg("Profile updated")
	c.JSON(http.StatusOK, UserResponse{User: newUserDetail(&user)})
}
