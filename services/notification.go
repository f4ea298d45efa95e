package services

import (
	"fmt"
	"time"

	"github.com/itsmessk/infoziant-courses/logger"
	"github.com/itsmessk/infoziant-courses/models"
	"github.com/itsmessk/infoziant-courses/services/kafka"
)

// Dispatcher sends templated transactional email. When Kafka brokers are
// configured it queues email.send events and the consumer delivers them;
// otherwise it falls back to direct SMTP. Delivery is best-effort either
// way: callers fire and forget, and a lost email never fails the operation
// that triggered it.
type Dispatcher struct {
	mailer       *Mailer
	kafkaEnabled bool
}

func NewDispatcher(mailer *Mailer, kafkaEnabled bool) *Dispatcher {
	return &Dispatcher{mailer: mailer, kafkaEnabled: kafkaEnabled}
}

func (d *Dispatcher) dispatch(to, subject, body string, attachment ...string) error {
	if !d.kafkaEnabled {
		return d.mailer.Send(to, subject, body, attachment...)
	}

	payload := map[string]interface{}{
		"event":     "email.send",
		"recipient": to,
		"subject":   subject,
		"body":      body,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if len(attachment) > 0 && attachment[0] != "" {
		payload["attachment"] = attachment[0]
	}

	if err := kafka.Publish("emails", fmt.Sprintf("email-%s", to), payload); err != nil {
		return fmt.Errorf("failed to queue email: %w", err)
	}
	return nil
}

// ProcessEmailEvent delivers a queued email.send event. Registered as the
// Kafka consumer's email processor.
func (d *Dispatcher) ProcessEmailEvent(event map[string]interface{}) error {
	recipient, _ := event["recipient"].(string)
	subject, _ := event["subject"].(string)
	body, _ := event["body"].(string)

	var attachment []string
	if att, ok := event["attachment"].(string); ok && att != "" {
		attachment = append(attachment, att)
	}

	return d.mailer.Send(recipient, subject, body, attachment...)
}

// SendVerificationEmail mails the email-verification link to a new account.
func (d *Dispatcher) SendVerificationEmail(name, email, verificationURL string) error {
	body := fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #ddd; border-radius: 5px;">
  <div style="text-align: center; margin-bottom: 20px;">
    <h1 style="color: #0069b4;">Virtual Training Academy</h1>
  </div>
  <div style="margin-bottom: 30px;">
    <h2 style="color: #333;">Verify Your Email</h2>
    <p>Hello %s,</p>
    <p>Thank you for registering with Virtual Training Academy. To complete your registration, please verify your email address by clicking the button below:</p>
    <div style="text-align: center; margin: 30px 0;">
      <a href="%s" style="background-color: #0069b4; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; font-weight: bold;">Verify Email Address</a>
    </div>
    <p>If the button doesn't work, you can also copy and paste this link into your browser:</p>
    <p><a href="%s">%s</a></p>
    <p>This link will expire in 24 hours.</p>
  </div>
  <div style="border-top: 1px solid #ddd; padding-top: 20px; color: #777; font-size: 12px;">
    <p>If you did not create an account, please ignore this email.</p>
    <p>&copy; %d Virtual Training Academy. All rights reserved.</p>
  </div>
</div>`, name, verificationURL, verificationURL, verificationURL, time.Now().Year())

	return d.dispatch(email, "Email Verification - Virtual Training Academy", body)
}

// SendPasswordResetEmail mails a password reset link.
func (d *Dispatcher) SendPasswordResetEmail(name, email, resetURL string) error {
	body := fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #ddd; border-radius: 5px;">
  <div style="text-align: center; margin-bottom: 20px;">
    <h1 style="color: #0069b4;">Virtual Training Academy</h1>
  </div>
  <div style="margin-bottom: 30px;">
    <h2 style="color: #333;">Reset Your Password</h2>
    <p>Hello %s,</p>
    <p>We received a request to reset your password. Click the button below to create a new password:</p>
    <div style="text-align: center; margin: 30px 0;">
      <a href="%s" style="background-color: #0069b4; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; font-weight: bold;">Reset Password</a>
    </div>
    <p>If the button doesn't work, you can also copy and paste this link into your browser:</p>
    <p><a href="%s">%s</a></p>
    <p>This link will expire in 10 minutes.</p>
    <p>If you didn't request this password reset, please ignore this email or contact support if you have concerns.</p>
  </div>
  <div style="border-top: 1px solid #ddd; padding-top: 20px; color: #777; font-size: 12px;">
    <p>&copy; %d Virtual Training Academy. All rights reserved.</p>
  </div>
</div>`, name, resetURL, resetURL, resetURL, time.Now().Year())

	return d.dispatch(email, "Password Reset - Virtual Training Academy", body)
}

// SendEnrollmentConfirmation mails the course-access confirmation after a
// verified payment, attaching the generated receipt when one exists.
func (d *Dispatcher) SendEnrollmentConfirmation(name, email string, course *models.Course, payment *models.Payment) error {
	receiptPath, err := GenerateReceipt(name, course, payment)
	if err != nil {
		logger.Warn("Could not generate payment receipt for %s: %v", email, err)
		receiptPath = ""
	}

	body := fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #ddd; border-radius: 5px;">
  <div style="text-align: center; margin-bottom: 20px;">
    <h1 style="color: #0069b4;">Virtual Training Academy</h1>
  </div>
  <div style="margin-bottom: 30px;">
    <h2 style="color: #333;">You're Enrolled!</h2>
    <p>Hello %s,</p>
    <p>Your payment has been verified and you now have full access to <strong>%s</strong>.</p>
    <p><strong>Amount paid:</strong> %s %d</p>
    <p><strong>Payment reference:</strong> %s</p>
    <p>Your receipt is attached. Happy learning!</p>
  </div>
  <div style="border-top: 1px solid #ddd; padding-top: 20px; color: #777; font-size: 12px;">
    <p>&copy; %d Virtual Training Academy. All rights reserved.</p>
  </div>
</div>`, name, course.Title, payment.Currency, payment.Amount/100, payment.RazorpayPaymentID, time.Now().Year())

	subject := fmt.Sprintf("Enrollment Confirmed - %s", course.Title)
	return d.dispatch(email, subject, body, receiptPath)
}
