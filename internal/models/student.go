package models

import "time"

// ContactMethod selects the notification channels for a student.
type ContactMethod string

// Supported contact methods.
const (
	ContactEmail ContactMethod = "email"
	ContactSMS   ContactMethod = "sms"
	ContactBoth  ContactMethod = "both"
)

// Student represents a learner registered with the institution, keyed by
// matriculation number.
type Student struct {
	MatricNo      string        `db:"matric_no" json:"matric_no"`
	FirstName     string        `db:"first_name" json:"first_name"`
	LastName      string        `db:"last_name" json:"last_name"`
	Username      string        `db:"username" json:"username"`
	Gender        string        `db:"gender" json:"gender"`
	Nationality   string        `db:"nationality" json:"nationality"`
	CourseOfStudy string        `db:"course_of_study" json:"course_of_study"`
	Email         string        `db:"email" json:"email"`
	Phone         string        `db:"phone" json:"phone"`
	Contact       ContactMethod `db:"contact_method" json:"contact_method"`
	TotalAU       int           `db:"total_au" json:"total_au"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// FullName joins the student's first and last name.
func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// StudentFilter encapsulates search parameters for listing students.
type StudentFilter struct {
	Search     string `form:"search"`
	CourseCode string `form:"course_code"`
	Index      int    `form:"index"`
}
