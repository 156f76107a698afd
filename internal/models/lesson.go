package models

import "fmt"

// LessonType classifies a weekly meeting of a section.
type LessonType string

// Supported lesson types.
const (
	LessonLecture  LessonType = "LECTURE"
	LessonTutorial LessonType = "TUTORIAL"
	LessonLab      LessonType = "LAB"
)

// Lesson is an immutable meeting-time descriptor for one weekly session.
// Day follows ISO numbering (1=Monday .. 7=Sunday); times are minutes since
// midnight so interval math stays integral.
type Lesson struct {
	Type        LessonType `db:"lesson_type" json:"type"`
	Venue       string     `db:"venue" json:"venue"`
	Day         int        `db:"day_of_week" json:"day_of_week"`
	StartMinute int        `db:"start_minute" json:"start_minute"`
	EndMinute   int        `db:"end_minute" json:"end_minute"`
}

// NewLesson validates and constructs a Lesson from wall-clock strings.
func NewLesson(lessonType LessonType, venue string, day int, start, end string) (Lesson, error) {
	switch lessonType {
	case LessonLecture, LessonTutorial, LessonLab:
	default:
		return Lesson{}, fmt.Errorf("unknown lesson type %q", lessonType)
	}
	if day < 1 || day > 7 {
		return Lesson{}, fmt.Errorf("day of week %d out of range 1-7", day)
	}
	startMin, err := ParseClock(start)
	if err != nil {
		return Lesson{}, fmt.Errorf("start time: %w", err)
	}
	endMin, err := ParseClock(end)
	if err != nil {
		return Lesson{}, fmt.Errorf("end time: %w", err)
	}
	if startMin >= endMin {
		return Lesson{}, fmt.Errorf("lesson start %s must be before end %s", start, end)
	}
	return Lesson{Type: lessonType, Venue: venue, Day: day, StartMinute: startMin, EndMinute: endMin}, nil
}

// Overlaps reports whether two lessons collide. Intervals are half-open, so
// a lesson ending exactly when another starts does not overlap.
func (l Lesson) Overlaps(o Lesson) bool {
	if l.Day != o.Day {
		return false
	}
	return l.StartMinute < o.EndMinute && o.StartMinute < l.EndMinute
}

// Start returns the start time formatted as HH:MM.
func (l Lesson) Start() string { return Clock(l.StartMinute) }

// End returns the end time formatted as HH:MM.
func (l Lesson) End() string { return Clock(l.EndMinute) }

// ParseClock converts an HH:MM string to minutes since midnight.
func ParseClock(raw string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(raw, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock value %q", raw)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock value %q out of range", raw)
	}
	return h*60 + m, nil
}

// Clock formats minutes since midnight as HH:MM.
func Clock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}
