package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/clivefinesse/jobtracker/internal/auth"
	"github.com/clivefinesse/jobtracker/internal/models"
	"github.com/clivefinesse/jobtracker/internal/services"
	appErrors "github.com/clivefinesse/jobtracker/pkg/errors"
	"github.com/clivefinesse/jobtracker/pkg/metrics"
	"github.com/clivefinesse/jobtracker/pkg/response"
)

// AccountHandler exposes registration, login, verification, password reset
// and profile endpoints.
type AccountHandler struct {
	accounts    *services.AccountService
	frontendURL string
}

// NewAccountHandler configures an account handler.
func NewAccountHandler(accounts *services.AccountService, frontendURL string) *AccountHandler {
	return &AccountHandler{
		accounts:    accounts,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

type registerRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=150"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"omitempty,max=150"`
	LastName  string `json:"last_name" validate:"omitempty,max=150"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type passwordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type passwordResetConfirmRequest struct {
	UID         string `json:"uid" validate:"required"`
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type updateProfileRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,max=150"`
}

// POST /api/users/register
func (h *AccountHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, pair, err := h.accounts.Register(requestContext(c), services.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	metrics.Registrations.Inc()

	response.OK(c, http.StatusCreated, "Registration successful. Verification email sent.", gin.H{
		"user":   profilePayload(user),
		"tokens": tokenPayload(pair),
	})
}

// POST /api/users/token
func (h *AccountHandler) Token(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, pair, err := h.accounts.Authenticate(requestContext(c), req.Username, req.Password)
	if err != nil {
		if appErr := appErrors.FromError(err); appErr.StatusCode == http.StatusBadRequest {
			metrics.AuthAttempts.WithLabelValues("unverified").Inc()
		} else {
			metrics.AuthAttempts.WithLabelValues("failure").Inc()
		}
		response.Error(c, err)
		return
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()

	response.OK(c, http.StatusOK, "Login successful", gin.H{
		"user":   profilePayload(user),
		"tokens": tokenPayload(pair),
	})
}

// GET /api/users/verify-email
//
// Failures never surface as errors here: browsers follow the link directly,
// so every outcome is a redirect with the result in the query string.
func (h *AccountHandler) VerifyEmail(c *gin.Context) {
	uidb64 := c.Query("uidb64")
	token := c.Query("token")

	_, pair, err := h.accounts.VerifyEmail(requestContext(c), uidb64, token)
	if err != nil {
		metrics.EmailVerifications.WithLabelValues("failure").Inc()
		c.Redirect(http.StatusFound, fmt.Sprintf("%s/error?message=%s",
			h.frontendURL, url.QueryEscape("Invalid verification link")))
		return
	}

	metrics.EmailVerifications.WithLabelValues("success").Inc()
	c.Redirect(http.StatusFound, fmt.Sprintf("%s/login?verified=true&refresh=%s&access=%s",
		h.frontendURL, url.QueryEscape(pair.Refresh), url.QueryEscape(pair.Access)))
}

// POST /api/users/password-reset
func (h *AccountHandler) PasswordReset(c *gin.Context) {
	var req passwordResetRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.accounts.RequestPasswordReset(requestContext(c), req.Email); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "If this email exists in our system, you'll receive a password reset link", nil)
}

// POST /api/users/password-reset-confirm
func (h *AccountHandler) PasswordResetConfirm(c *gin.Context) {
	var req passwordResetConfirmRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, pair, err := h.accounts.ConfirmPasswordReset(requestContext(c), req.UID, req.Token, req.NewPassword)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Password reset successfully", gin.H{
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		},
		"tokens": tokenPayload(pair),
	})
}

// GET /api/users/profile
func (h *AccountHandler) GetProfile(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	user, err := h.accounts.GetProfile(requestContext(c), caller.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Profile retrieved successfully", profilePayload(user))
}

// PUT /api/users/profile
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req updateProfileRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.accounts.UpdateProfile(requestContext(c), caller.UserID, services.UpdateProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Profile updated successfully", profilePayload(user))
}

func profilePayload(user *models.User) gin.H {
	return gin.H{
		"id":             user.ID,
		"username":       user.Username,
		"email":          user.Email,
		"first_name":     user.FirstName,
		"last_name":      user.LastName,
		"email_verified": user.EmailVerified,
		"date_joined":    user.CreatedAt,
	}
}

func tokenPayload(pair iauth.TokenPair) gin.H {
	return gin.H{
		"refresh": pair.Refresh,
		"access":  pair.Access,
	}
}
