package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/stars-api/internal/models"
)

// SectionRepository persists sections and their lesson rows. Lessons live in
// a child table keyed by (course_code, section_index) and are rewritten as a
// whole on every section update.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs a SectionRepository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

type lessonRow struct {
	CourseCode string `db:"course_code"`
	Index      int    `db:"section_index"`
	models.Lesson
}

// FindAll loads every section with its lessons attached.
func (r *SectionRepository) FindAll(ctx context.Context) ([]models.Section, error) {
	const sectionQuery = `SELECT course_code, section_index, school, course_type, credit_units, capacity, vacancy, created_at, updated_at
        FROM sections ORDER BY course_code, section_index`
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, sectionQuery); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}

	const lessonQuery = `SELECT course_code, section_index, lesson_type, venue, day_of_week, start_minute, end_minute
        FROM lessons ORDER BY course_code, section_index, day_of_week, start_minute`
	var lessons []lessonRow
	if err := r.db.SelectContext(ctx, &lessons, lessonQuery); err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}

	type key struct {
		code  string
		index int
	}
	byKey := make(map[key][]models.Lesson, len(sections))
	for _, row := range lessons {
		k := key{code: row.CourseCode, index: row.Index}
		byKey[k] = append(byKey[k], row.Lesson)
	}
	for i := range sections {
		sections[i].Lessons = byKey[key{code: sections[i].CourseCode, index: sections[i].Index}]
	}
	return sections, nil
}

// Insert creates a section and its lessons in one transaction.
func (r *SectionRepository) Insert(ctx context.Context, section *models.Section) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert section: %w", err)
	}
	defer tx.Rollback()

	const query = `INSERT INTO sections (course_code, section_index, school, course_type, credit_units, capacity, vacancy, created_at, updated_at)
        VALUES (:course_code, :section_index, :school, :course_type, :credit_units, :capacity, :vacancy, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("insert section: %w", err)
	}
	if err := insertLessons(ctx, tx, section.CourseCode, section.Index, section.Lessons); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert section: %w", err)
	}
	return nil
}

// Update rewrites a section row and its lessons. The old index identifies the
// row so index changes land on the right record.
func (r *SectionRepository) Update(ctx context.Context, courseCode string, oldIndex int, section *models.Section) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update section: %w", err)
	}
	defer tx.Rollback()

	const query = `UPDATE sections SET section_index = $3, school = $4, course_type = $5, credit_units = $6, capacity = $7, vacancy = $8, updated_at = $9
        WHERE course_code = $1 AND section_index = $2`
	if _, err := tx.ExecContext(ctx, query, courseCode, oldIndex,
		section.Index, section.School, section.CourseType, section.AU, section.Capacity, section.Vacancy, time.Now().UTC()); err != nil {
		return fmt.Errorf("update section: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM lessons WHERE course_code = $1 AND section_index = $2`, courseCode, oldIndex); err != nil {
		return fmt.Errorf("delete lessons: %w", err)
	}
	if err := insertLessons(ctx, tx, section.CourseCode, section.Index, section.Lessons); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update section: %w", err)
	}
	return nil
}

// UpdateVacancy writes the current seat count for one section.
func (r *SectionRepository) UpdateVacancy(ctx context.Context, courseCode string, index, vacancy int) error {
	const query = `UPDATE sections SET vacancy = $3, updated_at = $4 WHERE course_code = $1 AND section_index = $2`
	if _, err := r.db.ExecContext(ctx, query, courseCode, index, vacancy, time.Now().UTC()); err != nil {
		return fmt.Errorf("update vacancy: %w", err)
	}
	return nil
}

func insertLessons(ctx context.Context, tx *sqlx.Tx, courseCode string, index int, lessons []models.Lesson) error {
	const query = `INSERT INTO lessons (course_code, section_index, lesson_type, venue, day_of_week, start_minute, end_minute)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, l := range lessons {
		if _, err := tx.ExecContext(ctx, query, courseCode, index, l.Type, l.Venue, l.Day, l.StartMinute, l.EndMinute); err != nil {
			return fmt.Errorf("insert lesson: %w", err)
		}
	}
	return nil
}
