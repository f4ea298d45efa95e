package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "github.com/itsmessk/infoziant-courses/errors"
	"github.com/itsmessk/infoziant-courses/models"
)

type fakeAccounts struct {
	mu     sync.Mutex
	nextID int
	byID   map[int]*models.User
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{nextID: 1, byID: map[int]*models.User{}}
}

func (f *fakeAccounts) Create(ctx context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return apperrors.NewConflictError("An account with this email already exists")
		}
	}
	u.ID = f.nextID
	f.nextID++
	stored := *u
	f.byID[u.ID] = &stored
	return nil
}

func (f *fakeAccounts) GetByID(ctx context.Context, id int) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("User not found")
	}
	copied := *u
	return &copied, nil
}

func (f *fakeAccounts) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperrors.NewNotFoundError("User not found")
}

func (f *fakeAccounts) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.VerificationToken == token && token != "" {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperrors.NewNotFoundError("User not found")
}

func (f *fakeAccounts) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.ResetToken == token && token != "" {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperrors.NewNotFoundError("User not found")
}

func (f *fakeAccounts) MarkVerified(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.byID[id]
	u.IsVerified = true
	u.VerificationToken = ""
	u.VerificationExpires = nil
	return nil
}

func (f *fakeAccounts) SetVerificationToken(ctx context.Context, id int, token string, expires time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.byID[id]
	u.VerificationToken = token
	u.VerificationExpires = &expires
	return nil
}

func (f *fakeAccounts) SetResetToken(ctx context.Context, id int, token string, expires time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.byID[id]
	u.ResetToken = token
	u.ResetExpires = &expires
	return nil
}

func (f *fakeAccounts) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.byID[id]
	u.PasswordHash = passwordHash
	u.ResetToken = ""
	u.ResetExpires = nil
	return nil
}

func (f *fakeAccounts) get(id int) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.byID[id]
}

// sentMail captures one notification delivered by the fake notifier.
type sentMail struct {
	kind  string
	email string
	link  string
}

type fakeAccountNotifier struct {
	sent chan sentMail
}

func newFakeAccountNotifier() *fakeAccountNotifier {
	return &fakeAccountNotifier{sent: make(chan sentMail, 8)}
}

func (f *fakeAccountNotifier) SendVerificationEmail(name, email, verificationURL string) error {
	f.sent <- sentMail{kind: "verify", email: email, link: verificationURL}
	return nil
}

func (f *fakeAccountNotifier) SendPasswordResetEmail(name, email, resetURL string) error {
	f.sent <- sentMail{kind: "reset", email: email, link: resetURL}
	return nil
}

func (f *fakeAccountNotifier) waitForMail(t *testing.T) sentMail {
	t.Helper()
	select {
	case m := <-f.sent:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
		return sentMail{}
	}
}

func newAuthFixture() (*AuthService, *fakeAccounts, *fakeAccountNotifier) {
	accounts := newFakeAccounts()
	notifier := newFakeAccountNotifier()
	auth := NewAuthService(accounts, notifier, "test-jwt-secret", "http://localhost:3000")
	return auth, accounts, notifier
}

func TestRegisterAndVerify(t *testing.T) {
	ctx := context.Background()

	t.Run("registration stores a hash and mails the verification link", func(t *testing.T) {
		auth, accounts, notifier := newAuthFixture()

		user, err := auth.Register(ctx, "Asha", "asha@example.com", "hunter2hunter2")
		if err != nil {
			t.Fatalf("Register: %v", err)
		}
		stored := accounts.get(user.ID)
		if stored.PasswordHash == "hunter2hunter2" || stored.PasswordHash == "" {
			t.Error("password must be stored hashed")
		}
		if stored.IsVerified {
			t.Error("new account must start unverified")
		}
		if stored.VerificationToken == "" || stored.VerificationExpires == nil {
			t.Error("new account must carry a verification token")
		}

		mail := notifier.waitForMail(t)
		if mail.kind != "verify" || mail.email != "asha@example.com" {
			t.Errorf("mail = %+v, want verification to the new address", mail)
		}
		if !strings.Contains(mail.link, stored.VerificationToken) {
			t.Errorf("verification link %q should carry the token", mail.link)
		}
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		auth, _, notifier := newAuthFixture()
		if _, err := auth.Register(ctx, "Asha", "asha@example.com", "hunter2hunter2"); err != nil {
			t.Fatalf("Register: %v", err)
		}
		notifier.waitForMail(t)

		_, err := auth.Register(ctx, "Impostor", "asha@example.com", "password123")
		if apperrors.KindOf(err) != apperrors.Conflict {
			t.Fatalf("err = %v, want Conflict", err)
		}
	})

	t.Run("verification marks the account and consumes the token", func(t *testing.T) {
		auth, accounts, notifier := newAuthFixture()
		user, err := auth.Register(ctx, "Asha", "asha@example.com", "hunter2hunter2")
		if err != nil {
			t.Fatalf("Register: %v", err)
		}
		notifier.waitForMail(t)
		token := accounts.get(user.ID).VerificationToken

		if err := auth.VerifyEmail(ctx, token); err != nil {
			t.Fatalf("VerifyEmail: %v", err)
		}
		if !accounts.get(user.ID).IsVerified {
			t.Error("account should be verified")
		}
		if err := auth.VerifyEmail(ctx, token); apperrors.KindOf(err) != apperrors.Invalid {
			t.Errorf("reusing the token: err = %v, want Invalid", err)
		}
	})

	t.Run("expired verification token is rejected", func(t *testing.T) {
		auth, accounts, notifier := newAuthFixture()
		user, err := auth.Register(ctx, "Asha", "asha@example.com", "hunter2hunter2")
		if err != nil {
			t.Fatalf("Register: %v", err)
		}
		notifier.waitForMail(t)

		expired := time.Now().Add(-time.Hour)
		token := accounts.get(user.ID).VerificationToken
		if err := accounts.SetVerificationToken(ctx, user.ID, token, expired); err != nil {
			t.Fatal(err)
		}

		if err := auth.VerifyEmail(ctx, token); apperrors.KindOf(err) != apperrors.Invalid {
			t.Errorf("err = %v, want Invalid for expired token", err)
		}
	})

	t.Run("resend issues a fresh token for unverified accounts only", func(t *testing.T) {
		auth, accounts, notifier := newAuthFixture()
		user, err := auth.Register(ctx, "Asha", "asha@example.com", "hunter2hunter2")
		if err != nil {
			t.Fatalf("Register: %v", err)
		}
		notifier.waitForMail(t)
		oldToken := accounts.get(user.ID).VerificationToken

		if err := auth.ResendVerification(ctx, "asha@example.com"); err != nil {
			t.Fatalf("ResendVerification: %v", err)
		}
		mail := notifier.waitForMail(t)
		newToken := accounts.get(user.ID).VerificationToken
		if newToken == oldToken {
			t.Error("resend should rotate the token")
		}
		if !strings.Contains(mail.link, newToken) {
			t.Error("resent link should carry the new token")
		}

		// Unknown address stays silent.
		if err := auth.ResendVerification(ctx, "nobody@example.com"); err != nil {
			t.Errorf("unknown address should not error: %v", err)
		}
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	register := func(t *testing.T, auth *AuthService, accounts *fakeAccounts, notifier *fakeAccountNotifier, verified bool) *models.User {
		t.Helper()
		user, err := auth.Register(ctx, "Asha", "asha@example.com", "hunter2hunter2")
		if err != nil {
			t.Fatalf("Register: %v", err)
		}
		notifier.waitForMail(t)
		if verified {
			if err := auth.VerifyEmail(ctx, accounts.get(user.ID).VerificationToken); err != nil {
				t.Fatalf("VerifyEmail: %v", err)
			}
		}
		return user
	}

	t.Run("verified user gets a parseable session token", func(t *testing.T) {
		auth, accounts, notifier := newAuthFixture()
		user := register(t, auth, accounts, notifier, true)

		token, loggedIn, err := auth.Login(ctx, "asha@example.com", "hunter2hunter2")
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		if loggedIn.ID != user.ID {
			t.Errorf("logged in user id = %d, want %d", loggedIn.ID, user.ID)
		}

		session, err := auth.ParseToken(token)
		if err != nil {
			t.Fatalf("ParseToken: %v", err)
		}
		if session.UserID != user.ID || session.Email != "asha@example.com" || session.Role != models.RoleUser {
			t.Errorf("session = %+v", session)
		}
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		auth, accounts, notifier := newAuthFixture()
		register(t, auth, accounts, notifier, true)

		_, _, err := auth.Login(ctx, "asha@example.com", "wrong")
		if apperrors.KindOf(err) != apperrors.Unauthorized {
			t.Fatalf("err = %v, want Unauthorized", err)
		}
	})

	t.Run("unknown email is unauthorized, not revealed", func(t *testing.T) {
		auth, _, _ := newAuthFixture()
		_, _, err := auth.Login(ctx, "nobody@example.com", "whatever")
		if apperrors.KindOf(err) != apperrors.Unauthorized {
			t.Fatalf("err = %v, want Unauthorized", err)
		}
	})

	t.Run("unverified account cannot log in", func(t *testing.T) {
		auth, accounts, notifier := newAuthFixture()
		register(t, auth, accounts, notifier, false)

		_, _, err := auth.Login(ctx, "asha@example.com", "hunter2hunter2")
		if apperrors.KindOf(err) != apperrors.Forbidden {
			t.Fatalf("err = %v, want Forbidden", err)
		}
	})

	t.Run("tampered token does not parse", func(t *testing.T) {
		auth, accounts, notifier := newAuthFixture()
		register(t, auth, accounts, notifier, true)
		token, _, err := auth.Login(ctx, "asha@example.com", "hunter2hunter2")
		if err != nil {
			t.Fatalf("Login: %v", err)
		}

		if _, err := auth.ParseToken(token + "x"); apperrors.KindOf(err) != apperrors.Unauthorized {
			t.Errorf("err = %v, want Unauthorized for tampered token", err)
		}
	})
}

func TestPasswordReset(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*AuthService, *fakeAccounts, *fakeAccountNotifier, *models.User) {
		t.Helper()
		auth, accounts, notifier := newAuthFixture()
		user, err := auth.Register(ctx, "Asha", "asha@example.com", "hunter2hunter2")
		if err != nil {
			t.Fatalf("Register: %v", err)
		}
		notifier.waitForMail(t)
		if err := auth.VerifyEmail(ctx, accounts.get(user.ID).VerificationToken); err != nil {
			t.Fatalf("VerifyEmail: %v", err)
		}
		return auth, accounts, notifier, user
	}

	t.Run("forgot password mails a link and reset rotates the credential", func(t *testing.T) {
		auth, accounts, notifier, user := setup(t)

		if err := auth.ForgotPassword(ctx, "asha@example.com"); err != nil {
			t.Fatalf("ForgotPassword: %v", err)
		}
		mail := notifier.waitForMail(t)
		if mail.kind != "reset" {
			t.Fatalf("mail kind = %q, want reset", mail.kind)
		}
		token := accounts.get(user.ID).ResetToken
		if token == "" || !strings.Contains(mail.link, token) {
			t.Fatalf("reset link %q should carry the stored token", mail.link)
		}

		if err := auth.ValidateResetToken(ctx, token); err != nil {
			t.Fatalf("ValidateResetToken: %v", err)
		}
		if err := auth.ResetPassword(ctx, token, "newpassword123"); err != nil {
			t.Fatalf("ResetPassword: %v", err)
		}

		if _, _, err := auth.Login(ctx, "asha@example.com", "hunter2hunter2"); err == nil {
			t.Error("old password should no longer work")
		}
		if _, _, err := auth.Login(ctx, "asha@example.com", "newpassword123"); err != nil {
			t.Errorf("new password should work: %v", err)
		}

		// Token is single-use.
		if err := auth.ResetPassword(ctx, token, "another12345"); apperrors.KindOf(err) != apperrors.Invalid {
			t.Errorf("reused token: err = %v, want Invalid", err)
		}
	})

	t.Run("forgot password stays silent for unknown accounts", func(t *testing.T) {
		auth, _, _ := newAuthFixture()
		if err := auth.ForgotPassword(ctx, "nobody@example.com"); err != nil {
			t.Errorf("unknown address should not error: %v", err)
		}
	})

	t.Run("expired reset token is rejected", func(t *testing.T) {
		auth, accounts, notifier, user := setup(t)
		if err := auth.ForgotPassword(ctx, "asha@example.com"); err != nil {
			t.Fatalf("ForgotPassword: %v", err)
		}
		notifier.waitForMail(t)

		token := accounts.get(user.ID).ResetToken
		if err := accounts.SetResetToken(ctx, user.ID, token, time.Now().Add(-time.Minute)); err != nil {
			t.Fatal(err)
		}
		if err := auth.ValidateResetToken(ctx, token); apperrors.KindOf(err) != apperrors.Invalid {
			t.Errorf("err = %v, want Invalid for expired token", err)
		}
	})

	t.Run("change password requires the current one", func(t *testing.T) {
		auth, _, _, user := setup(t)

		if err := auth.ChangePassword(ctx, user.ID, "wrong", "newpassword123"); apperrors.KindOf(err) != apperrors.Unauthorized {
			t.Fatalf("err = %v, want Unauthorized", err)
		}
		if err := auth.ChangePassword(ctx, user.ID, "hunter2hunter2", "newpassword123"); err != nil {
			t.Fatalf("ChangePassword: %v", err)
		}
		if _, _, err := auth.Login(ctx, "asha@example.com", "newpassword123"); err != nil {
			t.Errorf("new password should work: %v", err)
		}
	})
}
