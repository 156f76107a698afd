package registration

import "github.com/noah-isme/stars-api/internal/models"

// studentState tracks a student's held and waitlisted sections, keyed by
// course code: a student holds at most one section per course and can never
// hold and queue for the same course at once.
type studentState struct {
	rec        models.Student
	held       map[string]sectionKey
	waitlisted map[string]sectionKey
	timetable  models.Timetable
}

func newStudentState(rec models.Student) *studentState {
	rec.TotalAU = 0
	return &studentState{
		rec:        rec,
		held:       make(map[string]sectionKey),
		waitlisted: make(map[string]sectionKey),
	}
}

func (st *studentState) holdsCourse(code string) bool {
	_, ok := st.held[code]
	return ok
}

func (st *studentState) heldKey(code string) (sectionKey, bool) {
	k, ok := st.held[code]
	return k, ok
}

func (st *studentState) waitlistedKey(code string) (sectionKey, bool) {
	k, ok := st.waitlisted[code]
	return k, ok
}

// confirm moves a course from waitlisted to held and adds its credit weight.
func (st *studentState) confirm(key sectionKey, au int) {
	delete(st.waitlisted, key.code)
	st.held[key.code] = key
	st.rec.TotalAU += au
}

// release drops a held course and subtracts its credit weight.
func (st *studentState) release(key sectionKey, au int) {
	delete(st.held, key.code)
	st.rec.TotalAU -= au
}

func (st *studentState) heldKeys() []sectionKey {
	out := make([]sectionKey, 0, len(st.held))
	for _, k := range st.held {
		out = append(out, k)
	}
	return out
}
