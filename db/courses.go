package db

import (
	"context"
	"database/sql"

	apperrors "github.com/itsmessk/infoziant-courses/errors"
	"github.com/itsmessk/infoziant-courses/models"
)

// CourseStore reads and writes catalog rows.
type CourseStore struct {
	db *sql.DB
}

func NewCourseStore(database *sql.DB) *CourseStore {
	return &CourseStore{db: database}
}

const courseColumns = `c.id, c.title, COALESCE(c.description, ''), COALESCE(c.instructor, ''),
	COALESCE(c.image, ''), COALESCE(c.level, ''), COALESCE(c.duration, ''), c.price, c.is_active,
	(SELECT COUNT(*) FROM user_courses uc WHERE uc.course_id = c.id), c.created_at, c.updated_at`

func scanCourse(row interface{ Scan(...interface{}) error }, c *models.Course) error {
	return row.Scan(&c.ID, &c.Title, &c.Description, &c.Instructor, &c.Image, &c.Level,
		&c.Duration, &c.Price, &c.IsActive, &c.EnrollmentCount, &c.CreatedAt, &c.UpdatedAt)
}

// List returns all active courses.
func (s *CourseStore) List(ctx context.Context) ([]models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses c WHERE c.is_active = 1 ORDER BY c.id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.E(apperrors.Internal, "Error fetching courses", err)
	}
	defer rows.Close()

	courses := []models.Course{}
	for rows.Next() {
		var c models.Course
		if err := scanCourse(rows, &c); err != nil {
			return nil, apperrors.E(apperrors.Internal, "Error reading courses", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.E(apperrors.Internal, "Error reading courses", err)
	}
	return courses, nil
}

// GetByID returns one active course. Inactive or missing ids are NotFound.
func (s *CourseStore) GetByID(ctx context.Context, id int) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses c WHERE c.id = $1 AND c.is_active = 1`

	var c models.Course
	err := scanCourse(s.db.QueryRowContext(ctx, query, id), &c)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("Course not found")
	}
	if err != nil {
		return nil, apperrors.E(apperrors.Internal, "Error loading course", err)
	}
	return &c, nil
}

// ListEnrolled returns the courses a user has been granted access to.
func (s *CourseStore) ListEnrolled(ctx context.Context, userID int) ([]models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses c
		JOIN user_courses uc ON uc.course_id = c.id
		WHERE uc.user_id = $1
		ORDER BY uc.enrolled_at DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, apperrors.E(apperrors.Internal, "Error fetching enrolled courses", err)
	}
	defer rows.Close()

	courses := []models.Course{}
	for rows.Next() {
		var c models.Course
		if err := scanCourse(rows, &c); err != nil {
			return nil, apperrors.E(apperrors.Internal, "Error reading enrolled courses", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.E(apperrors.Internal, "Error reading enrolled courses", err)
	}
	return courses, nil
}

// Create inserts a course and fills in its id.
func (s *CourseStore) Create(ctx context.Context, c *models.Course) error {
	query := `INSERT INTO courses (title, description, instructor, image, level, duration, price, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := s.db.QueryRowContext(ctx, query, c.Title, c.Description, c.Instructor, c.Image,
		c.Level, c.Duration, c.Price, c.IsActive).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return apperrors.E(apperrors.Internal, "Error creating course", err)
	}
	return nil
}

// Update rewrites a course row.
func (s *CourseStore) Update(ctx context.Context, c *models.Course) error {
	query := `UPDATE courses
		SET title = $1, description = $2, instructor = $3, image = $4, level = $5,
			duration = $6, price = $7, is_active = $8, updated_at = CURRENT_TIMESTAMP
		WHERE id = $9`

	result, err := s.db.ExecContext(ctx, query, c.Title, c.Description, c.Instructor, c.Image,
		c.Level, c.Duration, c.Price, c.IsActive, c.ID)
	if err != nil {
		return apperrors.E(apperrors.Internal, "Error updating course", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.E(apperrors.Internal, "Error updating course", err)
	}
	if rows == 0 {
		return apperrors.NewNotFoundError("Course not found")
	}
	return nil
}

// BulkCreate inserts imported catalog rows, returning how many were saved.
func (s *CourseStore) BulkCreate(ctx context.Context, courses []models.Course) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, apperrors.E(apperrors.Internal, "Error starting transaction", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO courses (title, description, instructor, image, level, duration, price, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1)`

	saved := 0
	for _, c := range courses {
		if _, err := tx.ExecContext(ctx, query, c.Title, c.Description, c.Instructor,
			c.Image, c.Level, c.Duration, c.Price); err != nil {
			return 0, apperrors.E(apperrors.Internal, "Error importing courses", err)
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.E(apperrors.Internal, "Error committing import", err)
	}
	return saved, nil
}
