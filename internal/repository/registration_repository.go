package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/stars-api/internal/models"
)

// RegistrationRepository persists enrollment and waitlist membership rows.
// Creation order is significant: it is how waitlist positions survive a
// restart.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// FindAll returns every registration row ordered by creation time.
func (r *RegistrationRepository) FindAll(ctx context.Context) ([]models.Registration, error) {
	const query = `SELECT id, matric_no, course_code, section_index, status, created_at, updated_at
        FROM registrations ORDER BY created_at`
	var regs []models.Registration
	if err := r.db.SelectContext(ctx, &regs, query); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}

// Insert creates a registration row.
func (r *RegistrationRepository) Insert(ctx context.Context, reg *models.Registration) error {
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = now
	}
	reg.UpdatedAt = now
	const query = `INSERT INTO registrations (id, matric_no, course_code, section_index, status, created_at, updated_at)
        VALUES (:id, :matric_no, :course_code, :section_index, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, reg); err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

// UpdateStatus transitions one registration between waitlisted and enrolled.
func (r *RegistrationRepository) UpdateStatus(ctx context.Context, matricNo, courseCode string, index int, status models.RegistrationStatus) error {
	const query = `UPDATE registrations SET status = $4, updated_at = $5
        WHERE matric_no = $1 AND course_code = $2 AND section_index = $3`
	if _, err := r.db.ExecContext(ctx, query, matricNo, courseCode, index, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update registration status: %w", err)
	}
	return nil
}

// UpdateOwner reassigns one held seat to another student, used by swaps.
func (r *RegistrationRepository) UpdateOwner(ctx context.Context, courseCode string, index int, fromMatric, toMatric string) error {
	const query = `UPDATE registrations SET matric_no = $4, updated_at = $5
        WHERE course_code = $1 AND section_index = $2 AND matric_no = $3`
	if _, err := r.db.ExecContext(ctx, query, courseCode, index, fromMatric, toMatric, time.Now().UTC()); err != nil {
		return fmt.Errorf("update registration owner: %w", err)
	}
	return nil
}

// UpdateIndex cascades a section index rename to every registration on it.
func (r *RegistrationRepository) UpdateIndex(ctx context.Context, courseCode string, oldIndex, newIndex int) error {
	const query = `UPDATE registrations SET section_index = $3, updated_at = $4
        WHERE course_code = $1 AND section_index = $2`
	if _, err := r.db.ExecContext(ctx, query, courseCode, oldIndex, newIndex, time.Now().UTC()); err != nil {
		return fmt.Errorf("update registration index: %w", err)
	}
	return nil
}

// Delete removes one student's registration for a section.
func (r *RegistrationRepository) Delete(ctx context.Context, matricNo, courseCode string, index int) error {
	const query = `DELETE FROM registrations WHERE matric_no = $1 AND course_code = $2 AND section_index = $3`
	if _, err := r.db.ExecContext(ctx, query, matricNo, courseCode, index); err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	return nil
}
