package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/stars-api/internal/models"
)

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindAll returns every student ordered by matric number.
func (r *StudentRepository) FindAll(ctx context.Context) ([]models.Student, error) {
	const query = `SELECT matric_no, first_name, last_name, username, gender, nationality, course_of_study, email, phone, contact_method, total_au, created_at, updated_at
        FROM students ORDER BY matric_no`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// Insert creates a new student record.
func (r *StudentRepository) Insert(ctx context.Context, student *models.Student) error {
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (matric_no, first_name, last_name, username, gender, nationality, course_of_study, email, phone, contact_method, total_au, created_at, updated_at)
        VALUES (:matric_no, :first_name, :last_name, :username, :gender, :nationality, :course_of_study, :email, :phone, :contact_method, :total_au, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

// UpdateTotalAU writes the derived credit total for a student.
func (r *StudentRepository) UpdateTotalAU(ctx context.Context, matricNo string, totalAU int) error {
	const query = `UPDATE students SET total_au = $2, updated_at = $3 WHERE matric_no = $1`
	if _, err := r.db.ExecContext(ctx, query, matricNo, totalAU, time.Now().UTC()); err != nil {
		return fmt.Errorf("update total au: %w", err)
	}
	return nil
}

// UpdateContact changes the notification channel preference.
func (r *StudentRepository) UpdateContact(ctx context.Context, matricNo string, method models.ContactMethod) error {
	const query = `UPDATE students SET contact_method = $2, updated_at = $3 WHERE matric_no = $1`
	if _, err := r.db.ExecContext(ctx, query, matricNo, method, time.Now().UTC()); err != nil {
		return fmt.Errorf("update contact method: %w", err)
	}
	return nil
}
