package models

// TimetableEntry is one lesson of a student's weekly view, annotated with the
// section it belongs to.
type TimetableEntry struct {
	CourseCode string `json:"course_code"`
	Index      int    `json:"index"`
	Lesson     Lesson `json:"lesson"`
}

// LessonConflict is an unordered pair of overlapping lessons from two
// different held sections. Conflicts are reported, never enforced.
type LessonConflict struct {
	First  TimetableEntry `json:"first"`
	Second TimetableEntry `json:"second"`
}

// Timetable is a student's aggregated weekly view across held sections.
type Timetable struct {
	MatricNo  string           `json:"matric_no"`
	Entries   []TimetableEntry `json:"entries"`
	Conflicts []LessonConflict `json:"conflicts"`
	TotalAU   int              `json:"total_au"`
}
