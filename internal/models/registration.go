package models

import "time"

// RegistrationStatus is the lifecycle state of a (student, section) pair.
type RegistrationStatus string

// Registration statuses. NotInterested and Withdrawn are implicit: no record
// exists for either.
const (
	RegistrationEnrolled   RegistrationStatus = "ENROLLED"
	RegistrationWaitlisted RegistrationStatus = "WAITLISTED"
)

// Registration is the persisted record of a student holding, or queuing for,
// a section. Waitlist order is recovered from CreatedAt at hydration.
type Registration struct {
	ID         string             `db:"id" json:"id"`
	MatricNo   string             `db:"matric_no" json:"matric_no"`
	CourseCode string             `db:"course_code" json:"course_code"`
	Index      int                `db:"section_index" json:"index"`
	Status     RegistrationStatus `db:"status" json:"status"`
	CreatedAt  time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `db:"updated_at" json:"updated_at"`
}
