package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/itsmessk/infoziant-courses/http/middleware"
	"github.com/itsmessk/infoziant-courses/http/response"
	"github.com/itsmessk/infoziant-courses/logger"
	"github.com/itsmessk/infoziant-courses/models"
	"github.com/itsmessk/infoziant-courses/services"
	"github.com/itsmessk/infoziant-courses/utils"
)

const maxImportSize = 10 << 20 // 10 MB upload cap

// CourseCatalogStore is the catalog storage the course endpoints need.
type CourseCatalogStore interface {
	List(ctx context.Context) ([]models.Course, error)
	GetByID(ctx context.Context, id int) (*models.Course, error)
	ListEnrolled(ctx context.Context, userID int) ([]models.Course, error)
	Create(ctx context.Context, c *models.Course) error
	Update(ctx context.Context, c *models.Course) error
	BulkCreate(ctx context.Context, courses []models.Course) (int, error)
}

// CourseHandler exposes the catalog endpoints.
type CourseHandler struct {
	courses CourseCatalogStore
}

func NewCourseHandler(courses CourseCatalogStore) *CourseHandler {
	return &CourseHandler{courses: courses}
}

// List handles GET /api/courses.
func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courses.List(r.Context())
	if err != nil {
		response.AppErrorResponse(w, err)
		return
	}
	response.SuccessResponse(w, http.StatusOK, "", courses)
}

// Get handles GET /api/courses/{id}.
func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid course id")
		return
	}

	course, err := h.courses.GetByID(r.Context(), id)
	if err != nil {
		response.AppErrorResponse(w, err)
		return
	}
	response.SuccessResponse(w, http.StatusOK, "", course)
}

// Enrolled handles GET /api/courses/user/enrolled.
func (h *CourseHandler) Enrolled(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())

	courses, err := h.courses.ListEnrolled(r.Context(), session.UserID)
	if err != nil {
		response.AppErrorResponse(w, err)
		return
	}
	response.SuccessResponse(w, http.StatusOK, "", courses)
}

// Create handles POST /api/courses.
func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var course models.Course
	if err := utils.DecodeJSONRequest(r, &course); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if course.Title == "" || course.Price < 0 {
		response.ErrorResponse(w, http.StatusBadRequest, "Course title and a non-negative price are required")
		return
	}
	if course.IsActive == 0 {
		course.IsActive = 1
	}

	if err := h.courses.Create(r.Context(), &course); err != nil {
		response.AppErrorResponse(w, err)
		return
	}
	response.SuccessResponse(w, http.StatusCreated, "Course created", course)
}

// Update handles PUT /api/courses/{id}.
func (h *CourseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid course id")
		return
	}

	var course models.Course
	if err := utils.DecodeJSONRequest(r, &course); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	course.ID = id
	if course.Title == "" || course.Price < 0 {
		response.ErrorResponse(w, http.StatusBadRequest, "Course title and a non-negative price are required")
		return
	}

	if err := h.courses.Update(r.Context(), &course); err != nil {
		response.AppErrorResponse(w, err)
		return
	}
	response.SuccessResponse(w, http.StatusOK, "Course updated", course)
}

// Import handles POST /api/courses/import, a multipart .xlsx upload.
func (h *CourseHandler) Import(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Could not parse upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Missing file upload")
		return
	}
	defer file.Close()

	courses, err := services.ParseCoursesWorkbook(file)
	if err != nil {
		response.AppErrorResponse(w, err)
		return
	}

	saved, err := h.courses.BulkCreate(r.Context(), courses)
	if err != nil {
		response.AppErrorResponse(w, err)
		return
	}

	logger.Info("Imported %d courses from %s", saved, header.Filename)
	response.SuccessResponse(w, http.StatusOK, "Courses imported", map[string]interface{}{
		"parsed": len(courses),
		"saved":  saved,
	})
}
