package db

import (
	"database/sql"
	"fmt"

	"github.com/itsmessk/infoziant-courses/config"

	_ "github.com/lib/pq"
)

// Open connects to Postgres and runs the schema migration.
func Open(cfg *config.Config) (*sql.DB, error) {
	database, err := sql.Open("postgres", cfg.DBConnString())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Test the connection
	if err := database.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	if err := createTables(database); err != nil {
		return nil, fmt.Errorf("error creating tables: %w", err)
	}

	return database, nil
}

func createTables(database *sql.DB) error {
	userTable := `
	CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user',
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		verification_token TEXT,
		verification_expires TIMESTAMP,
		reset_token TEXT,
		reset_expires TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	courseTable := `
	CREATE TABLE IF NOT EXISTS courses (
		id SERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		instructor TEXT,
		image TEXT,
		level TEXT,
		duration TEXT,
		price BIGINT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	paymentTable := `
	CREATE TABLE IF NOT EXISTS payments (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL,
		course_id INTEGER NOT NULL,
		amount BIGINT NOT NULL,
		currency TEXT NOT NULL,
		razorpay_order_id TEXT NOT NULL,
		razorpay_payment_id TEXT,
		razorpay_signature TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,

		CONSTRAINT fk_payment_user
			FOREIGN KEY (user_id)
			REFERENCES users(id)
			ON DELETE CASCADE,

		CONSTRAINT fk_payment_course
			FOREIGN KEY (course_id)
			REFERENCES courses(id)
			ON DELETE CASCADE
	);`

	// At most one open attempt per (user, course). Concurrent create-order
	// calls race on the read-check, so the constraint is enforced here.
	pendingIndex := `
	CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_pending
		ON payments (user_id, course_id)
		WHERE status = 'pending';`

	enrollmentTable := `
	CREATE TABLE IF NOT EXISTS user_courses (
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		course_id INTEGER NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
		enrolled_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, course_id)
	);`

	statements := []string{userTable, courseTable, paymentTable, pendingIndex, enrollmentTable}
	for _, stmt := range statements {
		if _, err := database.Exec(stmt); err != nil {
			return fmt.Errorf("error running migration: %w", err)
		}
	}

	return nil
}
