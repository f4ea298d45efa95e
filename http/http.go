package http

import (
	"net/http"

	"github.com/itsmessk/infoziant-courses/http/handlers"
	"github.com/itsmessk/infoziant-courses/http/middleware"
)

// Handlers collects the handler structs the router wires up.
type Handlers struct {
	Auth     middleware.TokenParser
	Users    *handlers.UserHandler
	Courses  *handlers.CourseHandler
	Payments *handlers.PaymentHandler
}

// SetupRoutes configures all HTTP routes and middleware.
func SetupRoutes(h Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	// Preflight requests never reach the method-specific patterns below.
	mux.HandleFunc("OPTIONS /", middleware.EnableCORS(func(w http.ResponseWriter, r *http.Request) {}))

	// User / auth APIs
	mux.HandleFunc("POST /api/users/register", middleware.EnableCORS(h.Users.Register))
	mux.HandleFunc("GET /api/users/verify-email/{token}", middleware.EnableCORS(h.Users.VerifyEmail))
	mux.HandleFunc("POST /api/users/resend-verification", middleware.EnableCORS(h.Users.ResendVerification))
	mux.HandleFunc("POST /api/users/login", middleware.EnableCORS(h.Users.Login))
	mux.HandleFunc("GET /api/users/profile", middleware.EnableCORS(middleware.RequireAuth(h.Auth, h.Users.Profile)))
	mux.HandleFunc("PUT /api/users/profile", middleware.EnableCORS(middleware.RequireAuth(h.Auth, h.Users.UpdateProfile)))
	mux.HandleFunc("PUT /api/users/change-password", middleware.EnableCORS(middleware.RequireAuth(h.Auth, h.Users.ChangePassword)))
	mux.HandleFunc("POST /api/users/forgot-password", middleware.EnableCORS(h.Users.ForgotPassword))
	mux.HandleFunc("GET /api/users/reset-password/{token}/verify", middleware.EnableCORS(h.Users.ValidateResetToken))
	mux.HandleFunc("POST /api/users/reset-password/{token}", middleware.EnableCORS(h.Users.ResetPassword))

	// Course catalog APIs
	mux.HandleFunc("GET /api/courses", middleware.EnableCORS(h.Courses.List))
	mux.HandleFunc("GET /api/courses/user/enrolled", middleware.EnableCORS(middleware.RequireAuth(h.Auth, h.Courses.Enrolled)))
	mux.HandleFunc("GET /api/courses/{id}", middleware.EnableCORS(h.Courses.Get))
	mux.HandleFunc("POST /api/courses", middleware.EnableCORS(middleware.RequireAdmin(h.Auth, h.Courses.Create)))
	mux.HandleFunc("PUT /api/courses/{id}", middleware.EnableCORS(middleware.RequireAdmin(h.Auth, h.Courses.Update)))
	mux.HandleFunc("POST /api/courses/import", middleware.EnableCORS(middleware.RequireAdmin(h.Auth, h.Courses.Import)))

	// Payment APIs
	mux.HandleFunc("POST /api/payments/create-order", middleware.EnableCORS(middleware.RequireAuth(h.Auth, h.Payments.CreateOrder)))
	mux.HandleFunc("POST /api/payments/verify", middleware.EnableCORS(middleware.RequireAuth(h.Auth, h.Payments.VerifyPayment)))
	mux.HandleFunc("GET /api/payments/history", middleware.EnableCORS(middleware.RequireAuth(h.Auth, h.Payments.History)))

	// Admin APIs
	mux.HandleFunc("POST /api/admin/reconcile-enrollments", middleware.EnableCORS(middleware.RequireAdmin(h.Auth, h.Payments.Reconcile)))

	return mux
}
