package models

import "time"

// Section represents one schedulable offering of a course: a course code plus
// a numeric index that is unique across live sections.
type Section struct {
	CourseCode string    `db:"course_code" json:"course_code"`
	Index      int       `db:"section_index" json:"index"`
	School     string    `db:"school" json:"school"`
	CourseType string    `db:"course_type" json:"course_type"`
	AU         int       `db:"credit_units" json:"au"`
	Capacity   int       `db:"capacity" json:"capacity"`
	Vacancy    int       `db:"vacancy" json:"vacancy"`
	Lessons    []Lesson  `db:"-" json:"lessons"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// SectionFilter describes query params for listing sections.
type SectionFilter struct {
	CourseCode string
	School     string
	SortBy     string // "code" or "index"
}

// SectionVacancy is the vacancy view returned by availability queries.
type SectionVacancy struct {
	CourseCode string `json:"course_code"`
	Index      int    `json:"index"`
	Vacancy    int    `json:"vacancy"`
	Capacity   int    `json:"capacity"`
	Waitlisted int    `json:"waitlisted"`
}
