package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/clivefinesse/jobtracker/internal/auth"
	"github.com/clivefinesse/jobtracker/internal/models"
	"github.com/clivefinesse/jobtracker/pkg/crypto"
	apperrors "github.com/clivefinesse/jobtracker/pkg/errors"
	"github.com/clivefinesse/jobtracker/pkg/logger"
	"github.com/clivefinesse/jobtracker/pkg/mail"
)

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	// ErrInvalidVerificationLink covers every verification failure mode: bad
	// uid encoding, unknown user, tampered or expired token, reuse after the
	// verified flag flipped. Callers redirect instead of rendering it.
	ErrInvalidVerificationLink = errors.New("account service: invalid verification link")
)

// Validation messages surfaced to clients on account flows.
const (
	msgEmailTaken      = "A user with this email already exists."
	msgUsernameTaken   = "A user with this username already exists."
	msgEmailUnverified = "Email not verified. Please check your inbox."
	msgEmailUnknown    = "No account found with this email."
	msgBadResetUID     = "Invalid user identifier"
	msgBadResetToken   = "Invalid or expired token"
)

// RegisterInput describes the fields accepted when registering an account.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// UpdateProfileInput enumerates the mutable profile attributes. Identity
// fields (username, email) and the verified flag are read-only.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
}

// AccountServiceConfig wires the collaborators and link destinations.
type AccountServiceConfig struct {
	FrontendURL string
	BackendURL  string
	Clock       func() time.Time
}

// AccountService owns user identity: registration, credential verification,
// email verification and password-reset tokens, and profile access.
type AccountService struct {
	db          *gorm.DB
	jwt         *auth.JWTService
	tokens      *auth.AccountTokenService
	mailer      mail.Mailer
	frontendURL string
	backendURL  string
	now         func() time.Time
	log         *zap.Logger
}

// NewAccountService constructs an account service with the provided dependencies.
func NewAccountService(db *gorm.DB, jwtSvc *auth.JWTService, tokens *auth.AccountTokenService, mailer mail.Mailer, cfg AccountServiceConfig) (*AccountService, error) {
	if db == nil {
		return nil, errors.New("account service: db is required")
	}
	if jwtSvc == nil {
		return nil, errors.New("account service: jwt service is required")
	}
	if tokens == nil {
		return nil, errors.New("account service: account token service is required")
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &AccountService{
		db:          db,
		jwt:         jwtSvc,
		tokens:      tokens,
		mailer:      mailer,
		frontendURL: strings.TrimRight(cfg.FrontendURL, "/"),
		backendURL:  strings.TrimRight(cfg.BackendURL, "/"),
		now:         now,
		log:         logger.WithModule("accounts"),
	}, nil
}

// Register creates a new unverified account, dispatches the verification
// email, and returns the user with a freshly issued token pair.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*models.User, auth.TokenPair, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if fields, err := s.checkTaken(ctx, username, email); err != nil {
		return nil, auth.TokenPair{}, err
	} else if len(fields) > 0 {
		return nil, auth.TokenPair{}, apperrors.NewValidation("Validation failed", fields)
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, auth.TokenPair{}, fmt.Errorf("account service: hash password: %w", err)
	}

	user := &models.User{
		Username:  username,
		Email:     email,
		Password:  hashed,
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		IsActive:  true,
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			// Lost the race against a concurrent registration. Surface the
			// same validation error the pre-flight check would have produced.
			if fields, checkErr := s.checkTaken(ctx, username, email); checkErr == nil && len(fields) > 0 {
				return nil, auth.TokenPair{}, apperrors.NewValidation("Validation failed", fields)
			}
			return nil, auth.TokenPair{}, apperrors.NewValidation("Validation failed", map[string]string{
				"username": msgUsernameTaken,
				"email":    msgEmailTaken,
			})
		}
		return nil, auth.TokenPair{}, fmt.Errorf("account service: create user: %w", err)
	}

	s.sendVerificationEmail(ctx, user)

	pair, err := s.jwt.GeneratePair(user)
	if err != nil {
		return nil, auth.TokenPair{}, fmt.Errorf("account service: issue tokens: %w", err)
	}

	return user, pair, nil
}

// Authenticate verifies credentials and issues a token pair. Accounts with an
// unverified email are rejected with a validation error even when the
// credentials are correct.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*models.User, auth.TokenPair, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		crypto.DummyCompare(password)
		return nil, auth.TokenPair{}, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, auth.TokenPair{}, fmt.Errorf("account service: load user: %w", err)
	}

	if !crypto.VerifyPassword(user.Password, password) || !user.IsActive {
		return nil, auth.TokenPair{}, apperrors.ErrInvalidCredentials
	}

	if !user.EmailVerified {
		return nil, auth.TokenPair{}, apperrors.NewValidation("Validation failed", map[string]string{
			"email": msgEmailUnverified,
		})
	}

	now := s.now()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, auth.TokenPair{}, fmt.Errorf("account service: record login: %w", err)
	}
	user.LastLoginAt = &now

	pair, err := s.jwt.GeneratePair(&user)
	if err != nil {
		return nil, auth.TokenPair{}, fmt.Errorf("account service: issue tokens: %w", err)
	}

	return &user, pair, nil
}

// VerifyEmail redeems a verification link. The flag flips true exactly once;
// because the token is bound to the pre-flip account state, replaying the same
// link afterwards fails the check and reports an invalid link.
func (s *AccountService) VerifyEmail(ctx context.Context, uidb64, token string) (*models.User, auth.TokenPair, error) {
	userID, err := auth.DecodeUID(uidb64)
	if err != nil {
		return nil, auth.TokenPair{}, ErrInvalidVerificationLink
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, auth.TokenPair{}, ErrInvalidVerificationLink
	}

	if !s.tokens.Check(&user, token) {
		return nil, auth.TokenPair{}, ErrInvalidVerificationLink
	}

	if !user.EmailVerified {
		if err := s.db.WithContext(ctx).Model(&user).Update("email_verified", true).Error; err != nil {
			return nil, auth.TokenPair{}, fmt.Errorf("account service: mark verified: %w", err)
		}
		user.EmailVerified = true
	}

	pair, err := s.jwt.GeneratePair(&user)
	if err != nil {
		return nil, auth.TokenPair{}, fmt.Errorf("account service: issue tokens: %w", err)
	}

	return &user, pair, nil
}

// RequestPasswordReset emails a reset link to a known address. Unknown
// addresses produce a validation error rather than a silent success.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NewValidation("Validation failed", map[string]string{
			"email": msgEmailUnknown,
		})
	}
	if err != nil {
		return fmt.Errorf("account service: load user: %w", err)
	}

	token, err := s.tokens.Make(&user)
	if err != nil {
		return fmt.Errorf("account service: make reset token: %w", err)
	}

	link := fmt.Sprintf("%s/password-reset-confirm?uid=%s&token=%s",
		s.frontendURL, url.QueryEscape(auth.EncodeUID(user.ID)), url.QueryEscape(token))

	s.sendMail(ctx, user.Email, "Reset your password",
		fmt.Sprintf("You requested a password reset.\n\nUse the link below to choose a new password:\n%s\n\nIf you did not request this, you can ignore this message.\n", link))

	return nil
}

// ConfirmPasswordReset applies a new password when the uid/token pair is
// valid, then issues a fresh token pair. Nothing is mutated on failure.
func (s *AccountService) ConfirmPasswordReset(ctx context.Context, uid, token, newPassword string) (*models.User, auth.TokenPair, error) {
	userID, err := auth.DecodeUID(uid)
	if err != nil {
		return nil, auth.TokenPair{}, apperrors.NewValidation("Validation failed", map[string]string{
			"uid": msgBadResetUID,
		})
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.TokenPair{}, apperrors.NewValidation("Validation failed", map[string]string{
				"uid": msgBadResetUID,
			})
		}
		return nil, auth.TokenPair{}, fmt.Errorf("account service: load user: %w", err)
	}

	if !s.tokens.Check(&user, token) {
		return nil, auth.TokenPair{}, apperrors.NewValidation("Validation failed", map[string]string{
			"token": msgBadResetToken,
		})
	}

	hashed, err := crypto.HashPassword(newPassword)
	if err != nil {
		return nil, auth.TokenPair{}, fmt.Errorf("account service: hash password: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&user).Update("password", hashed).Error; err != nil {
		return nil, auth.TokenPair{}, fmt.Errorf("account service: update password: %w", err)
	}
	user.Password = hashed

	pair, err := s.jwt.GeneratePair(&user)
	if err != nil {
		return nil, auth.TokenPair{}, fmt.Errorf("account service: issue tokens: %w", err)
	}

	return &user, pair, nil
}

// GetProfile loads the caller's own record.
func (s *AccountService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("account service: load user: %w", err)
	}
	return &user, nil
}

// UpdateProfile persists mutable profile attributes on the caller's record.
func (s *AccountService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*models.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*input.LastName)
	}

	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("account service: update profile: %w", err)
	}

	return s.GetProfile(ctx, userID)
}

// checkTaken reports which identity fields already belong to another account.
func (s *AccountService) checkTaken(ctx context.Context, username, email string) (map[string]string, error) {
	fields := map[string]string{}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("account service: check username: %w", err)
	}
	if count > 0 {
		fields["username"] = msgUsernameTaken
	}

	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("account service: check email: %w", err)
	}
	if count > 0 {
		fields["email"] = msgEmailTaken
	}

	return fields, nil
}

func (s *AccountService) sendVerificationEmail(ctx context.Context, user *models.User) {
	token, err := s.tokens.Make(user)
	if err != nil {
		s.log.Warn("make verification token", zap.Error(err))
		return
	}

	link := fmt.Sprintf("%s/api/users/verify-email?uidb64=%s&token=%s",
		s.backendURL, url.QueryEscape(auth.EncodeUID(user.ID)), url.QueryEscape(token))

	s.sendMail(ctx, user.Email, "Verify Your Email Address",
		fmt.Sprintf("Welcome!\n\nPlease verify your email address by visiting the link below:\n%s\n\nIf you did not create an account, you can ignore this message.\n", link))
}

// sendMail delivers best-effort: failures are logged, never surfaced, so a
// broken SMTP relay cannot block registration or reset flows.
func (s *AccountService) sendMail(ctx context.Context, to, subject, body string) {
	if s.mailer == nil {
		return
	}

	err := s.mailer.Send(ctx, mail.Message{
		To:      []string{to},
		Subject: subject,
		Body:    body,
	})
	if err != nil && !errors.Is(err, mail.ErrSMTPDisabled) {
		s.log.Warn("send email", zap.String("to", to), zap.Error(err))
	}
}
