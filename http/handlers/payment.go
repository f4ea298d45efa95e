package handlers

import (
	"net/http"

	"github.com/itsmessk/infoziant-courses/http/middleware"
	"github.com/itsmessk/infoziant-courses/http/response"
	"github.com/itsmessk/infoziant-courses/services"
	"github.com/itsmessk/infoziant-courses/utils"
)

// PaymentHandler exposes the order creation and verification endpoints.
type PaymentHandler struct {
	enrollments *services.EnrollmentService
}

func NewPaymentHandler(enrollments *services.EnrollmentService) *PaymentHandler {
	return &PaymentHandler{enrollments: enrollments}
}

// CreateOrder handles POST /api/payments/create-order.
func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())

	var req struct {
		CourseID int `json:"courseId"`
	}
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.CourseID <= 0 {
		response.ErrorResponse(w, http.StatusBadRequest, "courseId is required")
		return
	}

	order, err := h.enrollments.CreateOrder(r.Context(), session.UserID, req.CourseID)
	if err != nil {
		response.AppErrorResponse(w, err)
		return
	}

	response.SendJSON(w, http.StatusOK, order)
}

// VerifyPayment handles POST /api/payments/verify. A rejected signature is a
// business outcome, not a transport error, so it still returns 200 with
// success=false.
func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())

	var req services.VerifyRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PaymentID <= 0 || req.RazorpayOrderID == "" {
		response.ErrorResponse(w, http.StatusBadRequest, "paymentId and razorpayOrderId are required")
		return
	}

	result, err := h.enrollments.VerifyPayment(r.Context(), session.UserID, req)
	if err != nil {
		response.AppErrorResponse(w, err)
		return
	}

	response.SendJSON(w, http.StatusOK, result)
}

// History handles GET /api/payments/history.
func (h *PaymentHandler) History(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())

	history, err := h.enrollments.History(r.Context(), session.UserID)
	if err != nil {
		response.AppErrorResponse(w, err)
		return
	}

	response.SuccessResponse(w, http.StatusOK, "", history)
}

// Reconcile handles POST /api/admin/reconcile-enrollments.
func (h *PaymentHandler) Reconcile(w http.ResponseWriter, r *http.Request) {

	repaired, err := h.enrollments.Reconcile(r.Context())
	if err != nil {
		response.AppErrorResponse(w, err)
		return
	}

	response.SuccessResponse(w, http.StatusOK, "Reconciliation complete", map[string]interface{}{
		"enrollmentsRepaired": repaired,
	})
}
