package db

import (
	"context"
	"database/sql"

	apperrors "github.com/itsmessk/infoziant-courses/errors"
	"github.com/itsmessk/infoziant-courses/models"

	"github.com/lib/pq"
)

// PaymentStore persists payment records and their status transitions.
type PaymentStore struct {
	db *sql.DB
}

func NewPaymentStore(database *sql.DB) *PaymentStore {
	return &PaymentStore{db: database}
}

// Create inserts a pending payment and fills in its id and timestamps.
// A second pending attempt for the same (user, course) trips the partial
// unique index and is reported as Conflict.
func (s *PaymentStore) Create(ctx context.Context, p *models.Payment) error {
	query := `INSERT INTO payments (user_id, course_id, amount, currency, razorpay_order_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := s.db.QueryRowContext(ctx, query, p.UserID, p.CourseID, p.Amount, p.Currency, p.RazorpayOrderID, p.Status).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if apperrors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return apperrors.NewConflictError("A payment for this course is already in progress")
		}
		return apperrors.E(apperrors.Internal, "Error saving payment", err)
	}
	return nil
}

// GetByID loads one payment record.
func (s *PaymentStore) GetByID(ctx context.Context, id int) (*models.Payment, error) {
	query := `SELECT id, user_id, course_id, amount, currency, razorpay_order_id,
		COALESCE(razorpay_payment_id, ''), COALESCE(razorpay_signature, ''), status, created_at, updated_at
		FROM payments WHERE id = $1`

	var p models.Payment
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.UserID, &p.CourseID, &p.Amount, &p.Currency, &p.RazorpayOrderID,
		&p.RazorpayPaymentID, &p.RazorpaySignature, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("Payment not found")
	}
	if err != nil {
		return nil, apperrors.E(apperrors.Internal, "Error loading payment", err)
	}
	return &p, nil
}

// MarkCompleted records the gateway ids on the row and moves it to
// completed. The WHERE clause keeps the transition pending-only even if two
// verify calls race.
func (s *PaymentStore) MarkCompleted(ctx context.Context, id int, razorpayPaymentID, signature string) error {
	query := `UPDATE payments
		SET status = $1, razorpay_payment_id = $2, razorpay_signature = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $4 AND status = $5`

	result, err := s.db.ExecContext(ctx, query, models.PaymentStatusCompleted, razorpayPaymentID, signature, id, models.PaymentStatusPending)
	if err != nil {
		return apperrors.E(apperrors.Internal, "Error updating payment", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.E(apperrors.Internal, "Error updating payment", err)
	}
	if rows == 0 {
		return apperrors.NewConflictError("Payment is not pending")
	}
	return nil
}

// MarkFailed moves a pending payment to failed.
func (s *PaymentStore) MarkFailed(ctx context.Context, id int) error {
	query := `UPDATE payments
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND status = $3`

	result, err := s.db.ExecContext(ctx, query, models.PaymentStatusFailed, id, models.PaymentStatusPending)
	if err != nil {
		return apperrors.E(apperrors.Internal, "Error updating payment", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.E(apperrors.Internal, "Error updating payment", err)
	}
	if rows == 0 {
		return apperrors.NewConflictError("Payment is not pending")
	}
	return nil
}

// ListByUser returns the caller's payment history, newest first, joined with
// course display fields. Failed attempts are included.
func (s *PaymentStore) ListByUser(ctx context.Context, userID int) ([]models.PaymentHistoryEntry, error) {
	query := `SELECT c.title, COALESCE(c.image, ''), COALESCE(c.instructor, ''),
		p.amount, p.status, p.created_at, COALESCE(p.razorpay_payment_id, '')
		FROM payments p
		JOIN courses c ON c.id = p.course_id
		WHERE p.user_id = $1
		ORDER BY p.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, apperrors.E(apperrors.Internal, "Error fetching payment history", err)
	}
	defer rows.Close()

	entries := []models.PaymentHistoryEntry{}
	for rows.Next() {
		var e models.PaymentHistoryEntry
		if err := rows.Scan(&e.Course.Title, &e.Course.Image, &e.Course.Instructor,
			&e.Amount, &e.Status, &e.CreatedAt, &e.RazorpayPaymentID); err != nil {
			return nil, apperrors.E(apperrors.Internal, "Error reading payment history", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.E(apperrors.Internal, "Error reading payment history", err)
	}
	return entries, nil
}

// ReconcileEnrollments re-derives the enrollment table from completed
// payments. The completed payment row is the durable fact; a crash between
// the payment write and the enrollment write is repaired here.
func (s *PaymentStore) ReconcileEnrollments(ctx context.Context) (int64, error) {
	query := `INSERT INTO user_courses (user_id, course_id)
		SELECT user_id, course_id FROM payments WHERE status = $1
		ON CONFLICT (user_id, course_id) DO NOTHING`

	result, err := s.db.ExecContext(ctx, query, models.PaymentStatusCompleted)
	if err != nil {
		return 0, apperrors.E(apperrors.Internal, "Error reconciling enrollments", err)
	}
	return result.RowsAffected()
}
