package registration

import (
	"sync"
	"time"

	"github.com/noah-isme/stars-api/internal/models"
)

type sectionKey struct {
	code  string
	index int
}

// sectionState is the live state of one section: seat count, roster and
// waitlist. The seat count and queue are only ever mutated together under mu,
// which keeps vacancy and queue length mutually consistent even if callers
// overlap.
type sectionState struct {
	mu       sync.Mutex
	rec      models.Section
	schedule *Schedule
	roster   map[string]struct{}
	wait     *waitlist
}

func newSectionState(rec models.Section) (*sectionState, error) {
	sched, err := buildSchedule(rec.Lessons)
	if err != nil {
		return nil, err
	}
	rec.Lessons = nil
	return &sectionState{
		rec:      rec,
		schedule: sched,
		roster:   make(map[string]struct{}),
		wait:     newWaitlist(),
	}, nil
}

func (s *sectionState) key() sectionKey {
	return sectionKey{code: s.rec.CourseCode, index: s.rec.Index}
}

// enqueue appends a student to the waitlist tail and, if a seat is free,
// immediately promotes the queue head. The promoted student is not
// necessarily the one enqueueing.
func (s *sectionState) enqueue(matricNo string) (promoted string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wait.enqueue(matricNo)
	return s.promoteLocked()
}

// unenroll frees the student's seat and promotes the waitlist head
// synchronously, so a freed seat is backfilled within the same operation.
func (s *sectionState) unenroll(matricNo string) (promoted string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, held := s.roster[matricNo]; !held {
		return "", false
	}
	delete(s.roster, matricNo)
	s.rec.Vacancy++
	return s.promoteLocked()
}

// queueOnly appends to the waitlist without promoting. Used only at
// hydration so replaying persisted state never changes it.
func (s *sectionState) queueOnly(matricNo string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wait.enqueue(matricNo)
}

// withdraw removes a student from the waitlist if queued.
func (s *sectionState) withdraw(matricNo string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wait.remove(matricNo)
}

// promote pops the waitlist head into the roster when a seat is free.
func (s *sectionState) promote() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.promoteLocked()
}

func (s *sectionState) promoteLocked() (string, bool) {
	if s.rec.Vacancy <= 0 || s.wait.len() == 0 {
		return "", false
	}
	head, _ := s.wait.dequeue()
	s.roster[head] = struct{}{}
	s.rec.Vacancy--
	return head, true
}

// register seats a student directly, bypassing the waitlist. Used only at
// hydration when replaying persisted enrollments.
func (s *sectionState) register(matricNo string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roster[matricNo] = struct{}{}
	if s.rec.Vacancy > 0 {
		s.rec.Vacancy--
	}
}

// swapOccupant replaces one roster member with another without touching the
// seat count.
func (s *sectionState) swapOccupant(from, to string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.roster, from)
	s.roster[to] = struct{}{}
}

func (s *sectionState) holds(matricNo string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.roster[matricNo]
	return ok
}

func (s *sectionState) rosterSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.roster)
}

// waitPosition returns the 1-based queue position, or 0 when not queued.
func (s *sectionState) waitPosition(matricNo string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wait.position(matricNo)
}

func (s *sectionState) waitMembers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wait.members()
}

// applyUpdate swaps in the edited fields and a pre-validated schedule,
// recomputing vacancy from the roster size. Promotion after a capacity
// increase is the caller's responsibility.
func (s *sectionState) applyUpdate(upd SectionUpdate, sched *Schedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.Index = upd.NewIndex
	s.rec.School = upd.School
	s.rec.CourseType = upd.CourseType
	s.rec.AU = upd.AU
	s.rec.Capacity = upd.Capacity
	s.rec.Vacancy = upd.Capacity - len(s.roster)
	s.rec.UpdatedAt = time.Now().UTC()
	s.schedule = sched
}

func (s *sectionState) rosterMembers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.roster))
	for m := range s.roster {
		out = append(out, m)
	}
	return out
}

// record snapshots the section with its lessons for callers outside the
// engine.
func (s *sectionState) record() models.Section {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.rec
	rec.Lessons = s.schedule.Lessons()
	return rec
}

func (s *sectionState) vacancyView() models.SectionVacancy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.SectionVacancy{
		CourseCode: s.rec.CourseCode,
		Index:      s.rec.Index,
		Vacancy:    s.rec.Vacancy,
		Capacity:   s.rec.Capacity,
		Waitlisted: s.wait.len(),
	}
}
