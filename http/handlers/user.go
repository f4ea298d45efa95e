package handlers

import (
	"net/http"
	"strings"

	"github.com/itsmessk/infoziant-courses/db"
	"github.com/itsmessk/infoziant-courses/http/middleware"
	"github.com/itsmessk/infoziant-courses/http/response"
	"github.com/itsmessk/infoziant-courses/services"
	"github.com/itsmessk/infoziant-courses/utils"
)

// UserHandler exposes registration, session and profile endpoints.
type UserHandler struct {
	auth  *services.AuthService
	users *db.UserStore
}

func NewUserHandler(auth *services.AuthService, users *db.UserStore) *UserHandler {
	return &UserHandler{auth: auth, users: users}
}

// Register handles POST /api/users/register.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := utils.ValidateName(req.Name); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := utils.ValidateEmail(req.Email); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		response.AppErrorResponse(w, err)
		return
	}

	response.SuccessResponse(w, http.StatusCreated,
		"Registration successful. Please check your email to verify your account.",
		map[string]interface{}{"id": user.ID, "name": user.Name, "email": user.Email})
}

// VerifyEmail handles GET /api/users/verify-email/{token}.
func (h *UserHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		response.ErrorResponse(w, http.StatusBadRequest, "Verification token is required")
		return
	}

	if err := h.auth.VerifyEmail(r.Context(), token); err != nil {
		response.AppErrorResponse(w, err)
		return
	}
	response.SuccessResponse(w, http.StatusOK, "Email verified successfully. You can now log in.", nil)
}

// ResendVerification handles POST /api/users/resend-verification. The reply
// does not reveal whether the account exists.
func (h *UserHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateEmail(req.Email); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.auth.ResendVerification(r.Context(), strings.ToLower(strings.TrimSpace(req.Email))); err != nil {
		response.AppErrorResponse(w, err)
		return
	}
	response.SuccessResponse(w, http.StatusOK,
		"If an unverified account exists for this email, a new verification link has been sent.", nil)
}

// Login handles POST /api/users/login.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		response.ErrorResponse(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	token, user, err := h.auth.Login(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if err != nil {
		response.AppErrorResponse(w, err)
		return
	}

	response.SuccessResponse(w, http.StatusOK, "Login successful", map[string]interface{}{
		"token": token,
		"user": map[string]interface{}{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

// Profile handles GET /api/users/profile.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())

	user, err := h.users.GetByID(r.Context(), session.UserID)
	if err != nil {
		response.AppErrorResponse(w, err)
		return
	}
	response.SuccessResponse(w, http.StatusOK, "", user)
}

// UpdateProfile handles PUT /api/users/profile.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())

	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := utils.ValidateName(req.Name); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := utils.ValidateEmail(req.Email); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.users.UpdateProfile(r.Context(), session.UserID, req.Name, req.Email); err != nil {
		response.AppErrorResponse(w, err)
		return
	}
	response.SuccessResponse(w, http.StatusOK, "Profile updated", nil)
}

// ChangePassword handles PUT /api/users/change-password.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidatePassword(req.NewPassword); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.auth.ChangePassword(r.Context(), session.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		response.AppErrorResponse(w, err)
		return
	}
	response.SuccessResponse(w, http.StatusOK, "Password changed", nil)
}

// ForgotPassword handles POST /api/users/forgot-password. The reply does not
// reveal whether the account exists.
func (h *UserHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateEmail(req.Email); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.auth.ForgotPassword(r.Context(), strings.ToLower(strings.TrimSpace(req.Email))); err != nil {
		response.AppErrorResponse(w, err)
		return
	}
	response.SuccessResponse(w, http.StatusOK,
		"If an account exists for this email, a password reset link has been sent.", nil)
}

// ValidateResetToken handles GET /api/users/reset-password/{token}/verify.
func (h *UserHandler) ValidateResetToken(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		response.ErrorResponse(w, http.StatusBadRequest, "Reset token is required")
		return
	}

	if err := h.auth.ValidateResetToken(r.Context(), token); err != nil {
		response.AppErrorResponse(w, err)
		return
	}
	response.SuccessResponse(w, http.StatusOK, "Reset token is valid", nil)
}

// ResetPassword handles POST /api/users/reset-password/{token}.
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		response.ErrorResponse(w, http.StatusBadRequest, "Reset token is required")
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.auth.ResetPassword(r.Context(), token, req.Password); err != nil {
		response.AppErrorResponse(w, err)
		return
	}
	response.SuccessResponse(w, http.StatusOK, "Password has been reset. You can now log in.", nil)
}
