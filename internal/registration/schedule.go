package registration

import (
	"fmt"

	"github.com/noah-isme/stars-api/internal/models"
	appErrors "github.com/noah-isme/stars-api/pkg/errors"
)

// Schedule is the ordered set of lessons belonging to one section. Lessons
// within a schedule may never overlap; cross-section overlap is a student
// timetable concern, not a schedule one.
type Schedule struct {
	lessons []models.Lesson
}

// NewSchedule returns an empty schedule.
func NewSchedule() *Schedule {
	return &Schedule{}
}

// AddLesson appends a lesson unless it overlaps an existing one on the same
// day. On conflict the schedule is left untouched.
func (s *Schedule) AddLesson(l models.Lesson) error {
	for _, existing := range s.lessons {
		if existing.Overlaps(l) {
			return appErrors.Clone(appErrors.ErrScheduleConflict,
				fmt.Sprintf("lesson %s %s-%s overlaps %s %s-%s",
					l.Type, l.Start(), l.End(), existing.Type, existing.Start(), existing.End()))
		}
	}
	s.lessons = append(s.lessons, l)
	return nil
}

// RemoveAll clears the schedule. Used before a rebuild during an
// administrative section update.
func (s *Schedule) RemoveAll() {
	s.lessons = nil
}

// Lessons returns a copy of the schedule's lessons in insertion order.
func (s *Schedule) Lessons() []models.Lesson {
	out := make([]models.Lesson, len(s.lessons))
	copy(out, s.lessons)
	return out
}

// Len reports the number of lessons.
func (s *Schedule) Len() int {
	return len(s.lessons)
}

// buildSchedule validates a lesson list into a fresh schedule.
func buildSchedule(lessons []models.Lesson) (*Schedule, error) {
	sched := NewSchedule()
	for _, l := range lessons {
		if err := sched.AddLesson(l); err != nil {
			return nil, err
		}
	}
	return sched, nil
}
