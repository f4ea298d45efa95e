package services

import (
	"context"
	"fmt"
	"time"

	"github.com/itsmessk/infoziant-courses/config"
	apperrors "github.com/itsmessk/infoziant-courses/errors"
	"github.com/itsmessk/infoziant-courses/logger"
	"github.com/itsmessk/infoziant-courses/models"
)

// PaymentRecords persists payment attempts and their status transitions.
type PaymentRecords interface {
	Create(ctx context.Context, p *models.Payment) error
	GetByID(ctx context.Context, id int) (*models.Payment, error)
	MarkCompleted(ctx context.Context, id int, razorpayPaymentID, signature string) error
	MarkFailed(ctx context.Context, id int) error
	ListByUser(ctx context.Context, userID int) ([]models.PaymentHistoryEntry, error)
	ReconcileEnrollments(ctx context.Context) (int64, error)
}

// CourseCatalog resolves courses for pricing and display.
type CourseCatalog interface {
	GetByID(ctx context.Context, id int) (*models.Course, error)
}

// EnrollmentSet is the user-side view the orchestrator needs: who holds
// which course, and the idempotent grant.
type EnrollmentSet interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
	HasCourse(ctx context.Context, userID, courseID int) (bool, error)
	AddCourse(ctx context.Context, userID, courseID int) error
}

// EventPublisher publishes a JSON event to a topic; nil disables eventing.
type EventPublisher func(topic, key string, value interface{}) error

// EnrollmentNotifier sends the post-enrollment confirmation email.
type EnrollmentNotifier interface {
	SendEnrollmentConfirmation(name, email string, course *models.Course, payment *models.Payment) error
}

// EnrollmentConfig carries the gateway credentials and signature mode. It is
// built once in main from config.Load and injected here; the orchestrator
// never consults ambient state.
type EnrollmentConfig struct {
	KeyID     string
	KeySecret string
	Currency  string
	Mode      config.Mode
}

// EnrollmentService drives the payment/enrollment state machine: it checks
// eligibility, mints the gateway order, records the pending attempt, and on
// verification moves the record to its terminal status and grants access.
type EnrollmentService struct {
	cfg      EnrollmentConfig
	payments PaymentRecords
	courses  CourseCatalog
	users    EnrollmentSet
	gateway  OrderCreator
	publish  EventPublisher
	notifier EnrollmentNotifier
}

func NewEnrollmentService(cfg EnrollmentConfig, payments PaymentRecords, courses CourseCatalog,
	users EnrollmentSet, gateway OrderCreator, publish EventPublisher, notifier EnrollmentNotifier) *EnrollmentService {
	return &EnrollmentService{
		cfg:      cfg,
		payments: payments,
		courses:  courses,
		users:    users,
		gateway:  gateway,
		publish:  publish,
		notifier: notifier,
	}
}

// OrderDetails is returned to the client so it can complete the payment
// out-of-band and later submit the verification payload.
type OrderDetails struct {
	ID         string `json:"id"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	Receipt    string `json:"receipt"`
	PaymentID  int    `json:"paymentId"`
	KeyID      string `json:"key_id"`
	IsTestMode bool   `json:"isTestMode"`
}

// CreateOrder checks enrollment eligibility, creates the gateway order and
// persists a pending payment record. The charged amount is the course price
// converted to minor units.
func (s *EnrollmentService) CreateOrder(ctx context.Context, userID, courseID int) (*OrderDetails, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	enrolled, err := s.users.HasCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if enrolled {
		return nil, apperrors.NewConflictError("You are already enrolled in this course")
	}

	amount := course.Price * 100 // minor units (paise)
	receipt := fmt.Sprintf("receipt_order_%d_%d", courseID, time.Now().UnixMilli())

	orderID, err := s.gateway.CreateOrder(amount, s.cfg.Currency, receipt)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		UserID:          userID,
		CourseID:        courseID,
		Amount:          amount,
		Currency:        s.cfg.Currency,
		RazorpayOrderID: orderID,
		Status:          models.PaymentStatusPending,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}

	s.publishEvent("payments", fmt.Sprintf("user-%d", userID), map[string]interface{}{
		"event":     "payment.initiated",
		"user_id":   userID,
		"course_id": courseID,
		"order_id":  orderID,
		"amount":    amount,
		"currency":  s.cfg.Currency,
		"status":    models.PaymentStatusPending,
		"ts":        time.Now().UTC().Format(time.RFC3339),
	})

	return &OrderDetails{
		ID:         orderID,
		Amount:     amount,
		Currency:   s.cfg.Currency,
		Receipt:    receipt,
		PaymentID:  payment.ID,
		KeyID:      s.cfg.KeyID,
		IsTestMode: s.cfg.Mode == config.ModeSandbox,
	}, nil
}

// VerifyRequest is the client-submitted verification payload.
type VerifyRequest struct {
	RazorpayOrderID   string `json:"razorpayOrderId"`
	RazorpayPaymentID string `json:"razorpayPaymentId"`
	RazorpaySignature string `json:"razorpaySignature"`
	PaymentID         int    `json:"paymentId"`
}

// VerifyResult is the outcome of a verification attempt. A signature
// mismatch is a business outcome, not an error: the record is marked failed
// and Success is false.
type VerifyResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// VerifyPayment confirms a payment's authenticity and settles the record.
// Authentic: the payment-record write happens strictly before the
// enrollment grant, so a crash in between leaves a completed payment that
// reconciliation repairs rather than a silently lost one. Terminal records
// are not rewritten: a completed payment re-verifies as an idempotent
// success, a failed one stays failed.
func (s *EnrollmentService) VerifyPayment(ctx context.Context, userID int, req VerifyRequest) (*VerifyResult, error) {
	payment, err := s.payments.GetByID(ctx, req.PaymentID)
	if err != nil {
		return nil, err
	}
	if payment.UserID != userID {
		return nil, apperrors.NewNotFoundError("Payment not found")
	}

	switch payment.Status {
	case models.PaymentStatusCompleted:
		// Re-assert the grant so a retry after a partial failure heals it.
		if err := s.users.AddCourse(ctx, payment.UserID, payment.CourseID); err != nil {
			return nil, err
		}
		return &VerifyResult{Success: true, Message: "Payment already verified"}, nil
	case models.PaymentStatusFailed:
		return &VerifyResult{Success: false, Message: "Payment verification failed"}, nil
	}

	authentic := req.RazorpayOrderID == payment.RazorpayOrderID
	if authentic && s.cfg.Mode == config.ModeProduction {
		authentic = VerifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature, s.cfg.KeySecret)
	}

	if !authentic {
		if err := s.payments.MarkFailed(ctx, payment.ID); err != nil {
			return nil, err
		}
		s.publishEvent("payments", fmt.Sprintf("user-%d", userID), map[string]interface{}{
			"event":      "payment.failed",
			"user_id":    userID,
			"course_id":  payment.CourseID,
			"order_id":   payment.RazorpayOrderID,
			"payment_id": req.RazorpayPaymentID,
			"status":     models.PaymentStatusFailed,
			"ts":         time.Now().UTC().Format(time.RFC3339),
		})
		return &VerifyResult{Success: false, Message: "Payment verification failed"}, nil
	}

	if err := s.payments.MarkCompleted(ctx, payment.ID, req.RazorpayPaymentID, req.RazorpaySignature); err != nil {
		return nil, err
	}

	if err := s.users.AddCourse(ctx, payment.UserID, payment.CourseID); err != nil {
		// The completed payment row is the durable fact; the grant is
		// idempotent and recovered by reconciliation.
		logger.Error("Payment %d completed but enrollment grant failed: %v", payment.ID, err)
	}

	s.publishEvent("payments", fmt.Sprintf("user-%d", userID), map[string]interface{}{
		"event":      "payment.verified",
		"user_id":    userID,
		"course_id":  payment.CourseID,
		"order_id":   payment.RazorpayOrderID,
		"payment_id": req.RazorpayPaymentID,
		"status":     models.PaymentStatusCompleted,
		"ts":         time.Now().UTC().Format(time.RFC3339),
	})

	s.sendConfirmation(payment, req)

	return &VerifyResult{Success: true, Message: "Payment verified successfully"}, nil
}

// History returns the caller's payments, newest first, including failed
// attempts.
func (s *EnrollmentService) History(ctx context.Context, userID int) ([]models.PaymentHistoryEntry, error) {
	return s.payments.ListByUser(ctx, userID)
}

// Reconcile re-derives the enrollment set from completed payments and
// returns how many grants were repaired.
func (s *EnrollmentService) Reconcile(ctx context.Context) (int64, error) {
	repaired, err := s.payments.ReconcileEnrollments(ctx)
	if err != nil {
		return 0, err
	}
	if repaired > 0 {
		logger.Info("Reconciliation repaired %d enrollment grants", repaired)
	}
	return repaired, nil
}

func (s *EnrollmentService) publishEvent(topic, key string, value map[string]interface{}) {
	if s.publish == nil {
		return
	}
	go func() {
		if err := s.publish(topic, key, value); err != nil {
			logger.Warn("Failed to publish %v event: %v", value["event"], err)
		}
	}()
}

// sendConfirmation fires the enrollment confirmation email in the
// background. Delivery is best-effort and never affects the verify result.
func (s *EnrollmentService) sendConfirmation(payment *models.Payment, req VerifyRequest) {
	if s.notifier == nil {
		return
	}

	settled := *payment
	settled.Status = models.PaymentStatusCompleted
	settled.RazorpayPaymentID = req.RazorpayPaymentID
	settled.RazorpaySignature = req.RazorpaySignature

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		user, err := s.users.GetByID(ctx, settled.UserID)
		if err != nil {
			logger.Warn("Could not load user %d for confirmation email: %v", settled.UserID, err)
			return
		}
		course, err := s.courses.GetByID(ctx, settled.CourseID)
		if err != nil {
			logger.Warn("Could not load course %d for confirmation email: %v", settled.CourseID, err)
			return
		}
		if err := s.notifier.SendEnrollmentConfirmation(user.Name, user.Email, course, &settled); err != nil {
			logger.Warn("Failed to send enrollment confirmation to %s: %v", user.Email, err)
		}
	}()
}
