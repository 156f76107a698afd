package registration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/stars-api/internal/models"
	appErrors "github.com/noah-isme/stars-api/pkg/errors"
)

func mustLesson(t *testing.T, lt models.LessonType, day int, start, end string) models.Lesson {
	t.Helper()
	l, err := models.NewLesson(lt, "LT1", day, start, end)
	require.NoError(t, err)
	return l
}

func TestScheduleAddLesson(t *testing.T) {
	t.Run("accepts non-overlapping lessons", func(t *testing.T) {
		s := NewSchedule()
		require.NoError(t, s.AddLesson(mustLesson(t, models.LessonLecture, 1, "09:00", "11:00")))
		require.NoError(t, s.AddLesson(mustLesson(t, models.LessonTutorial, 1, "11:00", "12:00")))
		require.NoError(t, s.AddLesson(mustLesson(t, models.LessonLab, 2, "09:00", "11:00")))
		assert.Equal(t, 3, s.Len())
	})

	t.Run("back to back lessons do not clash", func(t *testing.T) {
		s := NewSchedule()
		require.NoError(t, s.AddLesson(mustLesson(t, models.LessonLecture, 3, "10:00", "12:00")))
		assert.NoError(t, s.AddLesson(mustLesson(t, models.LessonTutorial, 3, "12:00", "13:00")))
	})

	t.Run("one minute of overlap clashes", func(t *testing.T) {
		s := NewSchedule()
		require.NoError(t, s.AddLesson(mustLesson(t, models.LessonLecture, 3, "10:00", "12:00")))
		err := s.AddLesson(mustLesson(t, models.LessonTutorial, 3, "11:59", "13:00"))
		require.Error(t, err)
		assert.True(t, appErrors.Is(err, appErrors.ErrScheduleConflict))
		assert.Equal(t, 1, s.Len(), "rejected lesson must not mutate the schedule")
	})

	t.Run("same times on different days do not clash", func(t *testing.T) {
		s := NewSchedule()
		require.NoError(t, s.AddLesson(mustLesson(t, models.LessonLecture, 4, "10:00", "12:00")))
		assert.NoError(t, s.AddLesson(mustLesson(t, models.LessonLecture, 5, "10:00", "12:00")))
	})

	t.Run("containment clashes", func(t *testing.T) {
		s := NewSchedule()
		require.NoError(t, s.AddLesson(mustLesson(t, models.LessonLecture, 1, "09:00", "17:00")))
		err := s.AddLesson(mustLesson(t, models.LessonLab, 1, "10:00", "11:00"))
		assert.True(t, appErrors.Is(err, appErrors.ErrScheduleConflict))
	})
}

func TestScheduleLessonsReturnsCopy(t *testing.T) {
	s := NewSchedule()
	require.NoError(t, s.AddLesson(mustLesson(t, models.LessonLecture, 1, "09:00", "10:00")))

	got := s.Lessons()
	got[0].Venue = "mutated"

	assert.Equal(t, "LT1", s.Lessons()[0].Venue)
}

func TestBuildScheduleRejectsInternalOverlap(t *testing.T) {
	_, err := buildSchedule([]models.Lesson{
		mustLesson(t, models.LessonLecture, 1, "09:00", "11:00"),
		mustLesson(t, models.LessonTutorial, 1, "10:00", "12:00"),
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrScheduleConflict))
}
