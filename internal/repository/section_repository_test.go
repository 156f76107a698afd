package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/stars-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSectionRepositoryFindAllAttachesLessons(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT course_code, section_index, school, course_type, credit_units, capacity, vacancy, created_at, updated_at").
		WillReturnRows(sqlmock.NewRows([]string{"course_code", "section_index", "school", "course_type", "credit_units", "capacity", "vacancy", "created_at", "updated_at"}).
			AddRow("CZ2001", 10001, "SCSE", "CORE", 3, 30, 5, now, now).
			AddRow("CZ2001", 10002, "SCSE", "CORE", 3, 30, 0, now, now))
	mock.ExpectQuery("SELECT course_code, section_index, lesson_type, venue, day_of_week, start_minute, end_minute").
		WillReturnRows(sqlmock.NewRows([]string{"course_code", "section_index", "lesson_type", "venue", "day_of_week", "start_minute", "end_minute"}).
			AddRow("CZ2001", 10001, "LECTURE", "LT1", 1, 540, 660).
			AddRow("CZ2001", 10001, "TUTORIAL", "TR5", 3, 600, 660))

	sections, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Len(t, sections[0].Lessons, 2)
	assert.Empty(t, sections[1].Lessons)
	assert.Equal(t, models.LessonLecture, sections[0].Lessons[0].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryInsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO sections").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO lessons").
		WithArgs("CZ2001", 10001, models.LessonLecture, "LT1", 1, 540, 660).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	lesson, err := models.NewLesson(models.LessonLecture, "LT1", 1, "09:00", "11:00")
	require.NoError(t, err)
	err = repo.Insert(context.Background(), &models.Section{
		CourseCode: "CZ2001", Index: 10001, School: "SCSE", CourseType: "CORE",
		AU: 3, Capacity: 30, Vacancy: 30,
		Lessons:   []models.Lesson{lesson},
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryUpdateRewritesLessons(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE sections SET section_index").
		WithArgs("CZ2001", 10001, 10005, "SCSE", "CORE", 3, 40, 10, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM lessons").
		WithArgs("CZ2001", 10001).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO lessons").
		WithArgs("CZ2001", 10005, models.LessonLecture, "LT1", 1, 540, 660).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	lesson, err := models.NewLesson(models.LessonLecture, "LT1", 1, "09:00", "11:00")
	require.NoError(t, err)
	err = repo.Update(context.Background(), "CZ2001", 10001, &models.Section{
		CourseCode: "CZ2001", Index: 10005, School: "SCSE", CourseType: "CORE",
		AU: 3, Capacity: 40, Vacancy: 10,
		Lessons: []models.Lesson{lesson},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryUpdateVacancy(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectExec("UPDATE sections SET vacancy").
		WithArgs("CZ2001", 10001, 4, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateVacancy(context.Background(), "CZ2001", 10001, 4))
	assert.NoError(t, mock.ExpectationsWereMet())
}
