package registration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/stars-api/internal/models"
	appErrors "github.com/noah-isme/stars-api/pkg/errors"
)

type mockSectionStore struct {
	sections     []models.Section
	insertCalls  int
	updateCalls  int
	vacancyCalls int
	lastVacancy  map[string]int
}

func (m *mockSectionStore) FindAll(_ context.Context) ([]models.Section, error) {
	return m.sections, nil
}

func (m *mockSectionStore) Insert(_ context.Context, _ *models.Section) error {
	m.insertCalls++
	return nil
}

func (m *mockSectionStore) Update(_ context.Context, _ string, _ int, _ *models.Section) error {
	m.updateCalls++
	return nil
}

func (m *mockSectionStore) UpdateVacancy(_ context.Context, courseCode string, index, vacancy int) error {
	m.vacancyCalls++
	if m.lastVacancy == nil {
		m.lastVacancy = make(map[string]int)
	}
	m.lastVacancy[sectionLabel(courseCode, index)] = vacancy
	return nil
}

type mockStudentStore struct {
	students    []models.Student
	insertCalls int
	totals      map[string]int
}

func (m *mockStudentStore) FindAll(_ context.Context) ([]models.Student, error) {
	return m.students, nil
}

func (m *mockStudentStore) Insert(_ context.Context, _ *models.Student) error {
	m.insertCalls++
	return nil
}

func (m *mockStudentStore) UpdateTotalAU(_ context.Context, matricNo string, totalAU int) error {
	if m.totals == nil {
		m.totals = make(map[string]int)
	}
	m.totals[matricNo] = totalAU
	return nil
}

func (m *mockStudentStore) UpdateContact(_ context.Context, _ string, _ models.ContactMethod) error {
	return nil
}

type mockRegStore struct {
	regs        []models.Registration
	insertErr   error
	insertCalls int
	deleteCalls int
	statusCalls int
	ownerCalls  int
	indexCalls  int
}

func (m *mockRegStore) FindAll(_ context.Context) ([]models.Registration, error) {
	return m.regs, nil
}

func (m *mockRegStore) Insert(_ context.Context, _ *models.Registration) error {
	m.insertCalls++
	return m.insertErr
}

func (m *mockRegStore) UpdateStatus(_ context.Context, _, _ string, _ int, _ models.RegistrationStatus) error {
	m.statusCalls++
	return nil
}

func (m *mockRegStore) UpdateOwner(_ context.Context, _ string, _ int, _, _ string) error {
	m.ownerCalls++
	return nil
}

func (m *mockRegStore) UpdateIndex(_ context.Context, _ string, _, _ int) error {
	m.indexCalls++
	return nil
}

func (m *mockRegStore) Delete(_ context.Context, _, _ string, _ int) error {
	m.deleteCalls++
	return nil
}

type mockNotifier struct {
	sent []models.Notification
}

func (m *mockNotifier) Notify(n models.Notification) {
	m.sent = append(m.sent, n)
}

type mockVerifier struct {
	ok    bool
	err   error
	calls []string
}

func (m *mockVerifier) Verify(_ context.Context, username, _ string, _ models.UserRole) (bool, error) {
	m.calls = append(m.calls, username)
	return m.ok, m.err
}

func sectionLabel(code string, index int) string {
	return fmt.Sprintf("%s/%d", code, index)
}

type engineFixture struct {
	engine   *Engine
	sections *mockSectionStore
	students *mockStudentStore
	regs     *mockRegStore
	notifier *mockNotifier
	verifier *mockVerifier
}

func newFixture(t *testing.T, sections []models.Section, students []models.Student, regs []models.Registration) *engineFixture {
	t.Helper()
	f := &engineFixture{
		sections: &mockSectionStore{sections: sections},
		students: &mockStudentStore{students: students},
		regs:     &mockRegStore{regs: regs},
		notifier: &mockNotifier{},
		verifier: &mockVerifier{ok: true},
	}
	f.engine = NewEngine(f.sections, f.students, f.regs, f.notifier, f.verifier, zap.NewNop(), 0)
	require.NoError(t, f.engine.Hydrate(context.Background()))
	return f
}

func testSection(t *testing.T, code string, index, au, capacity, day int, start, end string) models.Section {
	t.Helper()
	lesson := mustLesson(t, models.LessonLecture, day, start, end)
	return models.Section{
		CourseCode: code,
		Index:      index,
		School:     "SCSE",
		CourseType: "CORE",
		AU:         au,
		Capacity:   capacity,
		Vacancy:    capacity,
		Lessons:    []models.Lesson{lesson},
	}
}

func testStudent(matricNo, username string) models.Student {
	return models.Student{
		MatricNo:      matricNo,
		FirstName:     "Test",
		LastName:      matricNo,
		Username:      username,
		Gender:        "F",
		Nationality:   "SG",
		CourseOfStudy: "CS",
		Email:         username + "@example.edu",
		Contact:       models.ContactEmail,
	}
}

func TestAddEnrollsWhenSeatFree(t *testing.T) {
	f := newFixture(t,
		[]models.Section{testSection(t, "CZ2001", 10001, 3, 2, 1, "09:00", "11:00")},
		[]models.Student{testStudent("U001", "alice")},
		nil,
	)

	res, err := f.engine.Add(context.Background(), "U001", "CZ2001", 10001)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationEnrolled, res.Status)
	assert.Zero(t, res.Position)

	v, err := f.engine.Vacancy("CZ2001", 10001)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Vacancy)
	assert.Equal(t, 0, v.Waitlisted)

	st, err := f.engine.Student("U001")
	require.NoError(t, err)
	assert.Equal(t, 3, st.TotalAU)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, models.EventRegistered, f.notifier.sent[0].Event)
	assert.Equal(t, 1, f.regs.insertCalls)
	assert.Equal(t, 1, f.regs.statusCalls)
}

func TestWaitlistPromotesInArrivalOrder(t *testing.T) {
	f := newFixture(t,
		[]models.Section{testSection(t, "CZ2001", 10001, 3, 1, 1, "09:00", "11:00")},
		[]models.Student{
			testStudent("U001", "alice"),
			testStudent("U002", "bob"),
			testStudent("U003", "carol"),
		},
		nil,
	)
	ctx := context.Background()

	res, err := f.engine.Add(ctx, "U001", "CZ2001", 10001)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationEnrolled, res.Status)

	res, err = f.engine.Add(ctx, "U002", "CZ2001", 10001)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationWaitlisted, res.Status)
	assert.Equal(t, 1, res.Position)

	res, err = f.engine.Add(ctx, "U003", "CZ2001", 10001)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Position)

	drop, err := f.engine.Drop(ctx, "U001", "CZ2001", 10001)
	require.NoError(t, err)
	assert.True(t, drop.WasEnrolled)
	assert.Equal(t, "U002", drop.Promoted)

	v, err := f.engine.Vacancy("CZ2001", 10001)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Vacancy, "freed seat is backfilled in the same operation")
	assert.Equal(t, 1, v.Waitlisted)

	waiting, err := f.engine.Waitlisted("CZ2001", 10001)
	require.NoError(t, err)
	require.Len(t, waiting, 1)
	assert.Equal(t, "U003", waiting[0].MatricNo)

	promotedStudent, err := f.engine.Student("U002")
	require.NoError(t, err)
	assert.Equal(t, 3, promotedStudent.TotalAU)

	dropped, err := f.engine.Student("U001")
	require.NoError(t, err)
	assert.Zero(t, dropped.TotalAU)
}

func TestAddRejectsOverload(t *testing.T) {
	f := newFixture(t,
		[]models.Section{
			testSection(t, "CZ1001", 10001, 18, 5, 1, "09:00", "11:00"),
			testSection(t, "CZ2001", 20001, 4, 5, 2, "09:00", "11:00"),
		},
		[]models.Student{testStudent("U001", "alice")},
		nil,
	)
	ctx := context.Background()

	_, err := f.engine.Add(ctx, "U001", "CZ1001", 10001)
	require.NoError(t, err)

	_, err = f.engine.Add(ctx, "U001", "CZ2001", 20001)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrOverload))

	v, err := f.engine.Vacancy("CZ2001", 20001)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Waitlisted, "rejected request must not join the queue")
}

func TestAddAtExactCeilingAllowed(t *testing.T) {
	f := newFixture(t,
		[]models.Section{
			testSection(t, "CZ1001", 10001, 18, 5, 1, "09:00", "11:00"),
			testSection(t, "CZ2001", 20001, 3, 5, 2, "09:00", "11:00"),
		},
		[]models.Student{testStudent("U001", "alice")},
		nil,
	)
	ctx := context.Background()

	_, err := f.engine.Add(ctx, "U001", "CZ1001", 10001)
	require.NoError(t, err)
	_, err = f.engine.Add(ctx, "U001", "CZ2001", 20001)
	require.NoError(t, err)

	st, err := f.engine.Student("U001")
	require.NoError(t, err)
	assert.Equal(t, 21, st.TotalAU)
}

func TestAddRejectsSecondIndexOfSameCourse(t *testing.T) {
	f := newFixture(t,
		[]models.Section{
			testSection(t, "CZ2001", 10001, 3, 5, 1, "09:00", "11:00"),
			testSection(t, "CZ2001", 10002, 3, 5, 2, "09:00", "11:00"),
		},
		[]models.Student{testStudent("U001", "alice")},
		nil,
	)
	ctx := context.Background()

	_, err := f.engine.Add(ctx, "U001", "CZ2001", 10001)
	require.NoError(t, err)

	_, err = f.engine.Add(ctx, "U001", "CZ2001", 10002)
	assert.True(t, appErrors.Is(err, appErrors.ErrAlreadyEnrolled))
}

func TestAddAllowsClashingSchedules(t *testing.T) {
	// Overlapping lessons across courses are reported, not prevented.
	f := newFixture(t,
		[]models.Section{
			testSection(t, "CZ2001", 10001, 3, 5, 1, "09:00", "11:00"),
			testSection(t, "CZ3001", 30001, 3, 5, 1, "10:00", "12:00"),
		},
		[]models.Student{testStudent("U001", "alice")},
		nil,
	)
	ctx := context.Background()

	_, err := f.engine.Add(ctx, "U001", "CZ2001", 10001)
	require.NoError(t, err)
	_, err = f.engine.Add(ctx, "U001", "CZ3001", 30001)
	require.NoError(t, err)

	tt, err := f.engine.Timetable("U001")
	require.NoError(t, err)
	require.Len(t, tt.Conflicts, 1)
	assert.Equal(t, "CZ2001", tt.Conflicts[0].First.CourseCode)
	assert.Equal(t, "CZ3001", tt.Conflicts[0].Second.CourseCode)
	assert.Equal(t, 6, tt.TotalAU)
}

func TestTimetableBackToBackIsNotAConflict(t *testing.T) {
	f := newFixture(t,
		[]models.Section{
			testSection(t, "CZ2001", 10001, 3, 5, 1, "09:00", "11:00"),
			testSection(t, "CZ3001", 30001, 3, 5, 1, "11:00", "13:00"),
		},
		[]models.Student{testStudent("U001", "alice")},
		nil,
	)
	ctx := context.Background()

	_, err := f.engine.Add(ctx, "U001", "CZ2001", 10001)
	require.NoError(t, err)
	_, err = f.engine.Add(ctx, "U001", "CZ3001", 30001)
	require.NoError(t, err)

	tt, err := f.engine.Timetable("U001")
	require.NoError(t, err)
	assert.Empty(t, tt.Conflicts)
	assert.Len(t, tt.Entries, 2)
}

func TestDropWaitlistedWithdrawsWithoutPromotion(t *testing.T) {
	f := newFixture(t,
		[]models.Section{testSection(t, "CZ2001", 10001, 3, 1, 1, "09:00", "11:00")},
		[]models.Student{testStudent("U001", "alice"), testStudent("U002", "bob")},
		nil,
	)
	ctx := context.Background()

	_, err := f.engine.Add(ctx, "U001", "CZ2001", 10001)
	require.NoError(t, err)
	_, err = f.engine.Add(ctx, "U002", "CZ2001", 10001)
	require.NoError(t, err)

	drop, err := f.engine.Drop(ctx, "U002", "CZ2001", 10001)
	require.NoError(t, err)
	assert.False(t, drop.WasEnrolled)
	assert.Empty(t, drop.Promoted)

	// Only the enrollment notification from U001's add.
	assert.Len(t, f.notifier.sent, 1)

	_, err = f.engine.Drop(ctx, "U002", "CZ2001", 10001)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestChangeIndexMovesSeat(t *testing.T) {
	f := newFixture(t,
		[]models.Section{
			testSection(t, "CZ2001", 10001, 3, 5, 1, "09:00", "11:00"),
			testSection(t, "CZ2001", 10002, 3, 5, 2, "09:00", "11:00"),
		},
		[]models.Student{testStudent("U001", "alice")},
		nil,
	)
	ctx := context.Background()

	_, err := f.engine.Add(ctx, "U001", "CZ2001", 10001)
	require.NoError(t, err)

	res, err := f.engine.ChangeIndex(ctx, "U001", "CZ2001", 10001, 10002)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationEnrolled, res.Status)

	held, _, err := f.engine.Courses("U001")
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, 10002, held[0].Index)

	st, err := f.engine.Student("U001")
	require.NoError(t, err)
	assert.Equal(t, 3, st.TotalAU)
}

func TestChangeIndexToFullSectionLeavesStudentWaitlisted(t *testing.T) {
	// The drop and the re-add are two steps. When the target is full the
	// student ends queued for it and the old seat is already gone.
	f := newFixture(t,
		[]models.Section{
			testSection(t, "CZ2001", 10001, 3, 5, 1, "09:00", "11:00"),
			testSection(t, "CZ2001", 10002, 3, 1, 2, "09:00", "11:00"),
		},
		[]models.Student{testStudent("U001", "alice"), testStudent("U002", "bob")},
		nil,
	)
	ctx := context.Background()

	_, err := f.engine.Add(ctx, "U001", "CZ2001", 10001)
	require.NoError(t, err)
	_, err = f.engine.Add(ctx, "U002", "CZ2001", 10002)
	require.NoError(t, err)

	res, err := f.engine.ChangeIndex(ctx, "U001", "CZ2001", 10001, 10002)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationWaitlisted, res.Status)
	assert.Equal(t, 1, res.Position)

	v, err := f.engine.Vacancy("CZ2001", 10001)
	require.NoError(t, err)
	assert.Equal(t, 5, v.Vacancy, "dropped seat is not restored")

	st, err := f.engine.Student("U001")
	require.NoError(t, err)
	assert.Zero(t, st.TotalAU)
}

func TestChangeIndexValidatesTargetBeforeDropping(t *testing.T) {
	f := newFixture(t,
		[]models.Section{testSection(t, "CZ2001", 10001, 3, 5, 1, "09:00", "11:00")},
		[]models.Student{testStudent("U001", "alice")},
		nil,
	)
	ctx := context.Background()

	_, err := f.engine.Add(ctx, "U001", "CZ2001", 10001)
	require.NoError(t, err)

	_, err = f.engine.ChangeIndex(ctx, "U001", "CZ2001", 10001, 99999)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	held, _, err := f.engine.Courses("U001")
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, 10001, held[0].Index, "seat kept when the target does not exist")
}

func TestSwapTradesSeatsAfterPeerVerification(t *testing.T) {
	f := newFixture(t,
		[]models.Section{
			testSection(t, "CZ2001", 10001, 3, 1, 1, "09:00", "11:00"),
			testSection(t, "CZ2001", 10002, 3, 1, 2, "09:00", "11:00"),
		},
		[]models.Student{testStudent("U001", "alice"), testStudent("U002", "bob")},
		nil,
	)
	ctx := context.Background()

	_, err := f.engine.Add(ctx, "U001", "CZ2001", 10001)
	require.NoError(t, err)
	_, err = f.engine.Add(ctx, "U002", "CZ2001", 10002)
	require.NoError(t, err)

	err = f.engine.Swap(ctx, SwapRequest{
		MatricNo:     "U001",
		CourseCode:   "CZ2001",
		MyIndex:      10001,
		PeerMatricNo: "U002",
		PeerIndex:    10002,
		PeerPassword: "secret",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"bob"}, f.verifier.calls)

	held, _, err := f.engine.Courses("U001")
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, 10002, held[0].Index)

	held, _, err = f.engine.Courses("U002")
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, 10001, held[0].Index)

	// Both sections were full before the swap and stay full after.
	for _, index := range []int{10001, 10002} {
		v, err := f.engine.Vacancy("CZ2001", index)
		require.NoError(t, err)
		assert.Equal(t, 0, v.Vacancy)
	}
	assert.Equal(t, 2, f.regs.ownerCalls)
}

func TestSwapRejectsFailedPeerVerification(t *testing.T) {
	f := newFixture(t,
		[]models.Section{
			testSection(t, "CZ2001", 10001, 3, 1, 1, "09:00", "11:00"),
			testSection(t, "CZ2001", 10002, 3, 1, 2, "09:00", "11:00"),
		},
		[]models.Student{testStudent("U001", "alice"), testStudent("U002", "bob")},
		nil,
	)
	ctx := context.Background()
	f.verifier.ok = false

	_, err := f.engine.Add(ctx, "U001", "CZ2001", 10001)
	require.NoError(t, err)
	_, err = f.engine.Add(ctx, "U002", "CZ2001", 10002)
	require.NoError(t, err)

	err = f.engine.Swap(ctx, SwapRequest{
		MatricNo: "U001", CourseCode: "CZ2001", MyIndex: 10001,
		PeerMatricNo: "U002", PeerIndex: 10002, PeerPassword: "wrong",
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrAuthentication))

	held, _, err := f.engine.Courses("U001")
	require.NoError(t, err)
	assert.Equal(t, 10001, held[0].Index, "failed verification must not move anyone")
	assert.Zero(t, f.regs.ownerCalls)
}

func TestUpdateSectionRejectsCapacityBelowEnrollment(t *testing.T) {
	f := newFixture(t,
		[]models.Section{testSection(t, "CZ2001", 10001, 3, 3, 1, "09:00", "11:00")},
		[]models.Student{testStudent("U001", "alice"), testStudent("U002", "bob")},
		nil,
	)
	ctx := context.Background()

	_, err := f.engine.Add(ctx, "U001", "CZ2001", 10001)
	require.NoError(t, err)
	_, err = f.engine.Add(ctx, "U002", "CZ2001", 10001)
	require.NoError(t, err)

	_, err = f.engine.UpdateSection(ctx, "CZ2001", 10001, SectionUpdate{
		NewIndex: 10001, School: "SCSE", CourseType: "CORE", AU: 3, Capacity: 1,
		Lessons: []models.Lesson{mustLesson(t, models.LessonLecture, 1, "09:00", "11:00")},
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrCapacityViolation))
}

func TestUpdateSectionCapacityGrowthPromotesQueue(t *testing.T) {
	f := newFixture(t,
		[]models.Section{testSection(t, "CZ2001", 10001, 3, 1, 1, "09:00", "11:00")},
		[]models.Student{
			testStudent("U001", "alice"),
			testStudent("U002", "bob"),
			testStudent("U003", "carol"),
		},
		nil,
	)
	ctx := context.Background()

	for _, m := range []string{"U001", "U002", "U003"} {
		_, err := f.engine.Add(ctx, m, "CZ2001", 10001)
		require.NoError(t, err)
	}

	sec, err := f.engine.UpdateSection(ctx, "CZ2001", 10001, SectionUpdate{
		NewIndex: 10001, School: "SCSE", CourseType: "CORE", AU: 3, Capacity: 3,
		Lessons: []models.Lesson{mustLesson(t, models.LessonLecture, 1, "09:00", "11:00")},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, sec.Vacancy)

	roster, err := f.engine.Roster("CZ2001", 10001)
	require.NoError(t, err)
	require.Len(t, roster, 3)

	for _, m := range []string{"U002", "U003"} {
		st, err := f.engine.Student(m)
		require.NoError(t, err)
		assert.Equal(t, 3, st.TotalAU, m)
	}
}

func TestUpdateSectionIndexChangeCascades(t *testing.T) {
	f := newFixture(t,
		[]models.Section{testSection(t, "CZ2001", 10001, 3, 1, 1, "09:00", "11:00")},
		[]models.Student{testStudent("U001", "alice"), testStudent("U002", "bob")},
		nil,
	)
	ctx := context.Background()

	_, err := f.engine.Add(ctx, "U001", "CZ2001", 10001)
	require.NoError(t, err)
	_, err = f.engine.Add(ctx, "U002", "CZ2001", 10001)
	require.NoError(t, err)

	_, err = f.engine.UpdateSection(ctx, "CZ2001", 10001, SectionUpdate{
		NewIndex: 10005, School: "SCSE", CourseType: "CORE", AU: 3, Capacity: 1,
		Lessons: []models.Lesson{mustLesson(t, models.LessonLecture, 1, "09:00", "11:00")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.regs.indexCalls)

	_, err = f.engine.Section("CZ2001", 10001)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	held, _, err := f.engine.Courses("U001")
	require.NoError(t, err)
	assert.Equal(t, 10005, held[0].Index)

	// The waitlisted student follows the renamed index too.
	drop, err := f.engine.Drop(ctx, "U002", "CZ2001", 10005)
	require.NoError(t, err)
	assert.False(t, drop.WasEnrolled)
}

func TestCreateSectionRejectsDuplicateAndClash(t *testing.T) {
	f := newFixture(t,
		[]models.Section{testSection(t, "CZ2001", 10001, 3, 1, 1, "09:00", "11:00")},
		nil, nil,
	)
	ctx := context.Background()

	_, err := f.engine.CreateSection(ctx, testSection(t, "CZ2001", 10001, 3, 1, 2, "09:00", "11:00"))
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	bad := testSection(t, "CZ2001", 10002, 3, 1, 1, "09:00", "11:00")
	bad.Lessons = append(bad.Lessons, mustLesson(t, models.LessonTutorial, 1, "10:00", "12:00"))
	_, err = f.engine.CreateSection(ctx, bad)
	assert.True(t, appErrors.Is(err, appErrors.ErrScheduleConflict))

	created, err := f.engine.CreateSection(ctx, testSection(t, "CZ3001", 30001, 4, 10, 2, "09:00", "11:00"))
	require.NoError(t, err)
	assert.Equal(t, 10, created.Vacancy)
	assert.Equal(t, 1, f.sections.insertCalls)
}

func TestHydrateReplaysWaitlistOrder(t *testing.T) {
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	regs := []models.Registration{
		{ID: "r3", MatricNo: "U003", CourseCode: "CZ2001", Index: 10001, Status: models.RegistrationWaitlisted, CreatedAt: base.Add(2 * time.Minute)},
		{ID: "r1", MatricNo: "U001", CourseCode: "CZ2001", Index: 10001, Status: models.RegistrationEnrolled, CreatedAt: base},
		{ID: "r2", MatricNo: "U002", CourseCode: "CZ2001", Index: 10001, Status: models.RegistrationWaitlisted, CreatedAt: base.Add(time.Minute)},
	}
	f := newFixture(t,
		[]models.Section{testSection(t, "CZ2001", 10001, 3, 1, 1, "09:00", "11:00")},
		[]models.Student{
			testStudent("U001", "alice"),
			testStudent("U002", "bob"),
			testStudent("U003", "carol"),
		},
		regs,
	)

	v, err := f.engine.Vacancy("CZ2001", 10001)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Vacancy)
	assert.Equal(t, 2, v.Waitlisted)

	st, err := f.engine.Student("U001")
	require.NoError(t, err)
	assert.Equal(t, 3, st.TotalAU)

	// Replay must not promote anyone; only the drop does.
	assert.Empty(t, f.notifier.sent)

	drop, err := f.engine.Drop(context.Background(), "U001", "CZ2001", 10001)
	require.NoError(t, err)
	assert.Equal(t, "U002", drop.Promoted)
}

func TestAddSucceedsWhenWriteThroughFails(t *testing.T) {
	f := newFixture(t,
		[]models.Section{testSection(t, "CZ2001", 10001, 3, 2, 1, "09:00", "11:00")},
		[]models.Student{testStudent("U001", "alice")},
		nil,
	)
	f.regs.insertErr = errors.New("connection refused")

	res, err := f.engine.Add(context.Background(), "U001", "CZ2001", 10001)
	require.NoError(t, err, "persistence failure must not fail the registration")
	assert.Equal(t, models.RegistrationEnrolled, res.Status)
}

func TestAddStudentAndContact(t *testing.T) {
	f := newFixture(t, nil, nil, nil)
	ctx := context.Background()

	created, err := f.engine.AddStudent(ctx, testStudent("U001", "alice"))
	require.NoError(t, err)
	assert.Zero(t, created.TotalAU)
	assert.Equal(t, 1, f.students.insertCalls)

	_, err = f.engine.AddStudent(ctx, testStudent("U001", "other"))
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	dup := testStudent("U002", "alice")
	_, err = f.engine.AddStudent(ctx, dup)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	require.NoError(t, f.engine.SetContact(ctx, "U001", models.ContactSMS))
	st, err := f.engine.Student("U001")
	require.NoError(t, err)
	assert.Equal(t, models.ContactSMS, st.Contact)

	assert.True(t, appErrors.Is(f.engine.SetContact(ctx, "U999", models.ContactEmail), appErrors.ErrNotFound))
}

func TestSectionsFilterAndSort(t *testing.T) {
	f := newFixture(t,
		[]models.Section{
			testSection(t, "CZ3001", 30002, 3, 5, 1, "09:00", "11:00"),
			testSection(t, "CZ2001", 10001, 3, 5, 2, "09:00", "11:00"),
			testSection(t, "CZ3001", 30001, 3, 5, 3, "09:00", "11:00"),
		},
		nil, nil,
	)

	byCode := f.engine.Sections(models.SectionFilter{})
	require.Len(t, byCode, 3)
	assert.Equal(t, "CZ2001", byCode[0].CourseCode)
	assert.Equal(t, 30001, byCode[1].Index)

	onlyCourse := f.engine.Sections(models.SectionFilter{CourseCode: "CZ3001", SortBy: "index"})
	require.Len(t, onlyCourse, 2)
	assert.Equal(t, 30001, onlyCourse[0].Index)

	vacancies, err := f.engine.CourseVacancies("CZ3001")
	require.NoError(t, err)
	assert.Len(t, vacancies, 2)

	_, err = f.engine.CourseVacancies("CZ9999")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestSectionsIndexSortBreaksTiesByCourse(t *testing.T) {
	f := newFixture(t,
		[]models.Section{
			testSection(t, "CZ2001", 10001, 3, 5, 1, "09:00", "11:00"),
			testSection(t, "CZ1001", 10001, 3, 5, 2, "09:00", "11:00"),
			testSection(t, "CZ1001", 10000, 3, 5, 3, "09:00", "11:00"),
		},
		nil, nil,
	)

	byIndex := f.engine.Sections(models.SectionFilter{SortBy: "index"})
	require.Len(t, byIndex, 3)
	assert.Equal(t, 10000, byIndex[0].Index)
	assert.Equal(t, "CZ1001", byIndex[1].CourseCode)
	assert.Equal(t, "CZ2001", byIndex[2].CourseCode)
}

func TestConcurrentMutationsHoldCreditCeiling(t *testing.T) {
	courses := make([]models.Section, 0, 8)
	for i := 0; i < 8; i++ {
		courses = append(courses, testSection(t, fmt.Sprintf("CZ%d001", i), 10001+i, 6, 5, 1+i%7, "09:00", "11:00"))
	}
	f := newFixture(t, courses, []models.Student{testStudent("U001", "alice")}, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	var enrolled int64
	for _, sec := range courses {
		wg.Add(1)
		go func(code string, index int) {
			defer wg.Done()
			res, err := f.engine.Add(ctx, "U001", code, index)
			if err == nil && res.Status == models.RegistrationEnrolled {
				atomic.AddInt64(&enrolled, 1)
			}
		}(sec.CourseCode, sec.Index)
	}
	newSec := testSection(t, "MH9001", 90001, 3, 5, 1, "13:00", "15:00")
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := f.engine.CreateSection(ctx, newSec)
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		f.engine.Sections(models.SectionFilter{})
		_, _ = f.engine.Timetable("U001")
	}()
	wg.Wait()

	// 6 AU per course against the 21 AU ceiling admits exactly three adds.
	assert.EqualValues(t, 3, enrolled)
	student, err := f.engine.Student("U001")
	require.NoError(t, err)
	assert.Equal(t, 18, student.TotalAU)
	held, _, err := f.engine.Courses("U001")
	require.NoError(t, err)
	assert.Len(t, held, 3)
}
