package models

import "time"

// Course represents a course offered in the catalog
type Course struct {
	ID              int       `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Instructor      string    `json:"instructor"`
	Image           string    `json:"image"`
	Level           string    `json:"level"`
	Duration        string    `json:"duration"`
	Price           int64     `json:"price"`     // whole currency units
	IsActive        int       `json:"is_active"` // 0 = inactive, 1 = active
	EnrollmentCount int       `json:"enrollmentCount"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CourseSummary carries the display fields joined into payment history rows.
type CourseSummary struct {
	Title      string `json:"title"`
	Image      string `json:"image"`
	Instructor string `json:"instructor"`
}
