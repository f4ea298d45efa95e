package db

import (
	"context"
	"database/sql"
	"time"

	apperrors "github.com/itsmessk/infoziant-courses/errors"
	"github.com/itsmessk/infoziant-courses/models"

	"github.com/lib/pq"
)

// UserStore persists accounts and the enrollment set.
type UserStore struct {
	db *sql.DB
}

func NewUserStore(database *sql.DB) *UserStore {
	return &UserStore{db: database}
}

const userColumns = `id, name, email, password_hash, role, is_verified,
	COALESCE(verification_token, ''), verification_expires,
	COALESCE(reset_token, ''), reset_expires, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsVerified,
		&u.VerificationToken, &u.VerificationExpires, &u.ResetToken, &u.ResetExpires,
		&u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("User not found")
	}
	if err != nil {
		return nil, apperrors.E(apperrors.Internal, "Error loading user", err)
	}
	return &u, nil
}

// Create inserts a new account. Duplicate emails map to Conflict.
func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	query := `INSERT INTO users (name, email, password_hash, role, is_verified, verification_token, verification_expires)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := s.db.QueryRowContext(ctx, query, u.Name, u.Email, u.PasswordHash, u.Role,
		u.IsVerified, u.VerificationToken, u.VerificationExpires).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if apperrors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return apperrors.NewConflictError("An account with this email already exists")
		}
		return apperrors.E(apperrors.Internal, "Error creating user", err)
	}
	return nil
}

// GetByID loads one account.
func (s *UserStore) GetByID(ctx context.Context, id int) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail loads one account by email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// GetByVerificationToken loads the account holding an email verification token.
func (s *UserStore) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE verification_token = $1`, token))
}

// GetByResetToken loads the account holding a password reset token.
func (s *UserStore) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE reset_token = $1`, token))
}

// MarkVerified flags the account verified and clears the token.
func (s *UserStore) MarkVerified(ctx context.Context, id int) error {
	query := `UPDATE users
		SET is_verified = TRUE, verification_token = NULL, verification_expires = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return apperrors.E(apperrors.Internal, "Error verifying user", err)
	}
	return nil
}

// SetVerificationToken stores a fresh verification token and its expiry.
func (s *UserStore) SetVerificationToken(ctx context.Context, id int, token string, expires time.Time) error {
	query := `UPDATE users
		SET verification_token = $1, verification_expires = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3`
	if _, err := s.db.ExecContext(ctx, query, token, expires, id); err != nil {
		return apperrors.E(apperrors.Internal, "Error saving verification token", err)
	}
	return nil
}

// SetResetToken stores a fresh password reset token and its expiry.
func (s *UserStore) SetResetToken(ctx context.Context, id int, token string, expires time.Time) error {
	query := `UPDATE users
		SET reset_token = $1, reset_expires = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3`
	if _, err := s.db.ExecContext(ctx, query, token, expires, id); err != nil {
		return apperrors.E(apperrors.Internal, "Error saving reset token", err)
	}
	return nil
}

// UpdatePassword replaces the password hash and clears any reset token.
func (s *UserStore) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	query := `UPDATE users
		SET password_hash = $1, reset_token = NULL, reset_expires = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2`
	if _, err := s.db.ExecContext(ctx, query, passwordHash, id); err != nil {
		return apperrors.E(apperrors.Internal, "Error updating password", err)
	}
	return nil
}

// UpdateProfile changes name and email. Duplicate emails map to Conflict.
func (s *UserStore) UpdateProfile(ctx context.Context, id int, name, email string) error {
	query := `UPDATE users SET name = $1, email = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3`
	if _, err := s.db.ExecContext(ctx, query, name, email, id); err != nil {
		var pqErr *pq.Error
		if apperrors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return apperrors.NewConflictError("An account with this email already exists")
		}
		return apperrors.E(apperrors.Internal, "Error updating profile", err)
	}
	return nil
}

// HasCourse reports whether the user already holds the course.
func (s *UserStore) HasCourse(ctx context.Context, userID, courseID int) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM user_courses WHERE user_id = $1 AND course_id = $2)`,
		userID, courseID).Scan(&exists)
	if err != nil {
		return false, apperrors.E(apperrors.Internal, "Error checking enrollment", err)
	}
	return exists, nil
}

// AddCourse grants course access. The insert is idempotent; re-granting an
// already held course is a no-op.
func (s *UserStore) AddCourse(ctx context.Context, userID, courseID int) error {
	query := `INSERT INTO user_courses (user_id, course_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, course_id) DO NOTHING`
	if _, err := s.db.ExecContext(ctx, query, userID, courseID); err != nil {
		return apperrors.E(apperrors.Internal, "Error granting course access", err)
	}
	return nil
}
