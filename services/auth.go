package services

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/itsmessk/infoziant-courses/errors"
	"github.com/itsmessk/infoziant-courses/logger"
	"github.com/itsmessk/infoziant-courses/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	verificationTokenTTL = 24 * time.Hour
	resetTokenTTL        = 10 * time.Minute
	sessionTokenTTL      = 72 * time.Hour
)

// UserAccounts is the account storage the auth service needs.
type UserAccounts interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*models.User, error)
	GetByResetToken(ctx context.Context, token string) (*models.User, error)
	MarkVerified(ctx context.Context, id int) error
	SetVerificationToken(ctx context.Context, id int, token string, expires time.Time) error
	SetResetToken(ctx context.Context, id int, token string, expires time.Time) error
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
}

// AccountNotifier sends the verification and reset emails.
type AccountNotifier interface {
	SendVerificationEmail(name, email, verificationURL string) error
	SendPasswordResetEmail(name, email, resetURL string) error
}

// AuthService handles registration, email verification, login and password
// resets.
type AuthService struct {
	users     UserAccounts
	notifier  AccountNotifier
	jwtSecret string
	baseURL   string
}

func NewAuthService(users UserAccounts, notifier AccountNotifier, jwtSecret, baseURL string) *AuthService {
	return &AuthService{
		users:     users,
		notifier:  notifier,
		jwtSecret: jwtSecret,
		baseURL:   baseURL,
	}
}

// Register creates an unverified account and queues the verification email.
// Email delivery is best-effort: a failed send is logged and registration
// still succeeds; the user can request a resend.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.E(apperrors.Internal, "Error hashing password", err)
	}

	token := uuid.NewString()
	expires := time.Now().Add(verificationTokenTTL)

	user := &models.User{
		Name:                name,
		Email:               email,
		PasswordHash:        string(hash),
		Role:                models.RoleUser,
		VerificationToken:   token,
		VerificationExpires: &expires,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.sendVerification(user.Name, user.Email, token)

	return user, nil
}

// VerifyEmail redeems a verification token.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	user, err := s.users.GetByVerificationToken(ctx, token)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.NotFound {
			return apperrors.NewInvalidParamsError("Invalid or expired verification token")
		}
		return err
	}

	if user.VerificationExpires == nil || time.Now().After(*user.VerificationExpires) {
		return apperrors.NewInvalidParamsError("Invalid or expired verification token")
	}

	return s.users.MarkVerified(ctx, user.ID)
}

// ResendVerification issues a fresh verification token. Whether the account
// exists or is already verified is not revealed to the caller.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.NotFound {
			return nil
		}
		return err
	}
	if user.IsVerified {
		return nil
	}

	token := uuid.NewString()
	expires := time.Now().Add(verificationTokenTTL)
	if err := s.users.SetVerificationToken(ctx, user.ID, token, expires); err != nil {
		return err
	}

	s.sendVerification(user.Name, user.Email, token)
	return nil
}

// Login checks credentials and issues a session token. Unverified accounts
// cannot log in.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.NotFound {
			return "", nil, apperrors.NewUnauthorizedError("Invalid email or password")
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperrors.NewUnauthorizedError("Invalid email or password")
	}

	if !user.IsVerified {
		return "", nil, apperrors.NewForbiddenError("Please verify your email before logging in")
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// IssueToken signs a session JWT for the user.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  user.Role,
		"exp":   time.Now().Add(sessionTokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", apperrors.E(apperrors.Internal, "Error signing token", err)
	}
	return signed, nil
}

// Session is the identity carried by a valid token.
type Session struct {
	UserID int
	Email  string
	Role   string
}

// ParseToken validates a session JWT and returns the identity it carries.
func (s *AuthService) ParseToken(tokenStr string) (*Session, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.NewUnauthorizedError("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperrors.NewUnauthorizedError("Invalid token claims")
	}

	sub, ok := claims["sub"].(float64)
	if !ok {
		return nil, apperrors.NewUnauthorizedError("Invalid token claims")
	}

	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)

	return &Session{UserID: int(sub), Email: email, Role: role}, nil
}

// ChangePassword verifies the current password and replaces it.
func (s *AuthService) ChangePassword(ctx context.Context, userID int, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return apperrors.NewUnauthorizedError("Current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.E(apperrors.Internal, "Error hashing password", err)
	}

	return s.users.UpdatePassword(ctx, userID, string(hash))
}

// ForgotPassword issues a short-lived reset token and mails the reset link.
// The response never reveals whether the account exists.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.NotFound {
			return nil
		}
		return err
	}

	token := uuid.NewString()
	expires := time.Now().Add(resetTokenTTL)
	if err := s.users.SetResetToken(ctx, user.ID, token, expires); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/reset-password/%s", s.baseURL, token)
	go func() {
		if err := s.notifier.SendPasswordResetEmail(user.Name, user.Email, resetURL); err != nil {
			logger.Warn("Failed to send password reset email to %s: %v", user.Email, err)
		}
	}()

	return nil
}

// ValidateResetToken checks a reset token without consuming it.
func (s *AuthService) ValidateResetToken(ctx context.Context, token string) error {
	_, err := s.resetTokenUser(ctx, token)
	return err
}

// ResetPassword consumes a valid reset token and sets the new password.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := s.resetTokenUser(ctx, token)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.E(apperrors.Internal, "Error hashing password", err)
	}

	return s.users.UpdatePassword(ctx, user.ID, string(hash))
}

func (s *AuthService) resetTokenUser(ctx context.Context, token string) (*models.User, error) {
	user, err := s.users.GetByResetToken(ctx, token)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.NotFound {
			return nil, apperrors.NewInvalidParamsError("Invalid or expired reset token")
		}
		return nil, err
	}

	if user.ResetExpires == nil || time.Now().After(*user.ResetExpires) {
		return nil, apperrors.NewInvalidParamsError("Invalid or expired reset token")
	}

	return user, nil
}

func (s *AuthService) sendVerification(name, email, token string) {
	verificationURL := fmt.Sprintf("%s/verify-email/%s", s.baseURL, token)
	go func() {
		if err := s.notifier.SendVerificationEmail(name, email, verificationURL); err != nil {
			logger.Warn("Failed to send verification email to %s: %v", email, err)
		}
	}()
}
