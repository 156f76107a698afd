package registration

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/stars-api/internal/models"
	appErrors "github.com/noah-isme/stars-api/pkg/errors"
)

// DefaultMaxCreditLoad is the overload ceiling in academic units.
const DefaultMaxCreditLoad = 21

// AddResult reports the terminal state of an add request.
type AddResult struct {
	Status   models.RegistrationStatus `json:"status"`
	Position int                       `json:"position,omitempty"`
}

// DropResult reports the outcome of a drop request.
type DropResult struct {
	WasEnrolled bool   `json:"was_enrolled"`
	Promoted    string `json:"promoted,omitempty"`
}

// SwapRequest describes a peer section trade within one course.
type SwapRequest struct {
	MatricNo     string
	CourseCode   string
	MyIndex      int
	PeerMatricNo string
	PeerIndex    int
	PeerPassword string
}

// SectionUpdate carries the editable fields of an administrative update.
type SectionUpdate struct {
	NewIndex   int
	School     string
	CourseType string
	AU         int
	Capacity   int
	Lessons    []models.Lesson
}

// Engine is the registration coordinator. It owns the authoritative
// in-memory model of sections, waitlists and students, applies every
// registration rule, and mirrors committed transitions to the stores.
// One engine-wide RWMutex serializes mutations across handler goroutines;
// each section additionally guards its seat count and queue under its own
// lock.
type Engine struct {
	mu sync.RWMutex

	sections map[sectionKey]*sectionState
	byCourse map[string][]*sectionState
	students map[string]*studentState

	sectionStore SectionStore
	studentStore StudentStore
	regStore     RegistrationStore
	notifier     Notifier
	verifier     CredentialVerifier

	logger        *zap.Logger
	maxCreditLoad int
}

// NewEngine constructs an empty engine. Call Hydrate before serving.
func NewEngine(sections SectionStore, students StudentStore, regs RegistrationStore,
	notifier Notifier, verifier CredentialVerifier, logger *zap.Logger, maxCreditLoad int) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxCreditLoad <= 0 {
		maxCreditLoad = DefaultMaxCreditLoad
	}
	return &Engine{
		sections:      make(map[sectionKey]*sectionState),
		byCourse:      make(map[string][]*sectionState),
		students:      make(map[string]*studentState),
		sectionStore:  sections,
		studentStore:  students,
		regStore:      regs,
		notifier:      notifier,
		verifier:      verifier,
		logger:        logger,
		maxCreditLoad: maxCreditLoad,
	}
}

// Hydrate loads sections, students and registrations from the stores and
// rebuilds the in-memory model. Registrations replay in creation order so
// waitlist positions survive restarts.
func (e *Engine) Hydrate(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	secs, err := e.sectionStore.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("load sections: %w", err)
	}
	loadedVacancy := make(map[sectionKey]int, len(secs))
	for _, rec := range secs {
		state, err := newSectionState(rec)
		if err != nil {
			return fmt.Errorf("section %s/%d: %w", rec.CourseCode, rec.Index, err)
		}
		// Vacancy is derived from the replayed roster, not trusted from the
		// store.
		state.rec.Vacancy = state.rec.Capacity
		loadedVacancy[state.key()] = rec.Vacancy
		e.indexSection(state)
	}

	students, err := e.studentStore.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("load students: %w", err)
	}
	for _, rec := range students {
		e.students[rec.MatricNo] = newStudentState(rec)
	}

	regs, err := e.regStore.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("load registrations: %w", err)
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].CreatedAt.Before(regs[j].CreatedAt) })
	for _, reg := range regs {
		sec, ok := e.sections[sectionKey{code: reg.CourseCode, index: reg.Index}]
		if !ok {
			e.logger.Warn("registration references unknown section",
				zap.String("matric_no", reg.MatricNo), zap.String("course", reg.CourseCode), zap.Int("index", reg.Index))
			continue
		}
		st, ok := e.students[reg.MatricNo]
		if !ok {
			e.logger.Warn("registration references unknown student", zap.String("matric_no", reg.MatricNo))
			continue
		}
		switch reg.Status {
		case models.RegistrationEnrolled:
			sec.register(reg.MatricNo)
			st.confirm(sec.key(), sec.rec.AU)
		case models.RegistrationWaitlisted:
			sec.queueOnly(reg.MatricNo)
			st.waitlisted[reg.CourseCode] = sec.key()
		}
	}

	for key, sec := range e.sections {
		v := sec.vacancyView()
		if want, ok := loadedVacancy[key]; ok && want != v.Vacancy {
			e.logger.Warn("stored vacancy disagrees with replayed roster",
				zap.String("course", key.code), zap.Int("index", key.index),
				zap.Int("stored", want), zap.Int("derived", v.Vacancy))
		}
	}

	e.logger.Info("registration engine hydrated",
		zap.Int("sections", len(e.sections)), zap.Int("students", len(e.students)), zap.Int("registrations", len(regs)))
	return nil
}

func (e *Engine) indexSection(state *sectionState) {
	key := state.key()
	e.sections[key] = state
	e.byCourse[key.code] = append(e.byCourse[key.code], state)
}

// Add requests enrollment into a section. The student joins the section's
// waitlist; when a seat is free the queue head is promoted immediately, so a
// request against an open section enrolls in the same call.
func (e *Engine) Add(ctx context.Context, matricNo, courseCode string, index int) (*AddResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.add(ctx, matricNo, courseCode, index)
}

func (e *Engine) add(ctx context.Context, matricNo, courseCode string, index int) (*AddResult, error) {
	st, ok := e.students[matricNo]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	sec, ok := e.sections[sectionKey{code: courseCode, index: index}]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
	}
	if st.holdsCourse(courseCode) {
		return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, fmt.Sprintf("already enrolled in %s", courseCode))
	}
	if _, waiting := st.waitlistedKey(courseCode); waiting {
		return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, fmt.Sprintf("already waitlisted for %s", courseCode))
	}
	if st.rec.TotalAU+sec.rec.AU > e.maxCreditLoad {
		return nil, appErrors.Clone(appErrors.ErrOverload,
			fmt.Sprintf("adding %d AU to %d AU exceeds the %d AU ceiling", sec.rec.AU, st.rec.TotalAU, e.maxCreditLoad))
	}

	promoted, promotedOK := sec.enqueue(matricNo)
	st.waitlisted[courseCode] = sec.key()

	now := time.Now().UTC()
	reg := &models.Registration{
		ID:         uuid.NewString(),
		MatricNo:   matricNo,
		CourseCode: courseCode,
		Index:      index,
		Status:     models.RegistrationWaitlisted,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := e.regStore.Insert(ctx, reg); err != nil {
		e.logWriteErr("insert registration", err)
	}

	if promotedOK {
		e.completeEnrollment(ctx, promoted, sec)
	}
	e.persistVacancy(ctx, sec)

	if promoted == matricNo {
		return &AddResult{Status: models.RegistrationEnrolled}, nil
	}
	return &AddResult{Status: models.RegistrationWaitlisted, Position: sec.waitPosition(matricNo)}, nil
}

// Drop releases a held seat (promoting the waitlist head synchronously) or
// withdraws a waitlisted request.
func (e *Engine) Drop(ctx context.Context, matricNo, courseCode string, index int) (*DropResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.drop(ctx, matricNo, courseCode, index)
}

func (e *Engine) drop(ctx context.Context, matricNo, courseCode string, index int) (*DropResult, error) {
	st, ok := e.students[matricNo]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	key := sectionKey{code: courseCode, index: index}
	sec, ok := e.sections[key]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
	}

	if heldKey, held := st.heldKey(courseCode); held && heldKey == key {
		promoted, promotedOK := sec.unenroll(matricNo)
		st.release(key, sec.rec.AU)
		e.refreshTimetable(st)

		if err := e.regStore.Delete(ctx, matricNo, courseCode, index); err != nil {
			e.logWriteErr("delete registration", err)
		}
		if err := e.studentStore.UpdateTotalAU(ctx, matricNo, st.rec.TotalAU); err != nil {
			e.logWriteErr("update credit total", err)
		}
		e.notify(st, fmt.Sprintf("You have been deregistered from %s/%d", courseCode, index), models.EventDeregistered)

		if promotedOK {
			e.completeEnrollment(ctx, promoted, sec)
		}
		e.persistVacancy(ctx, sec)
		return &DropResult{WasEnrolled: true, Promoted: promoted}, nil
	}

	if waitKey, waiting := st.waitlistedKey(courseCode); waiting && waitKey == key {
		if !sec.withdraw(matricNo) {
			e.logger.Warn("waitlist withdrawal found no queue entry",
				zap.String("matric_no", matricNo), zap.String("course", courseCode), zap.Int("index", index))
		}
		delete(st.waitlisted, courseCode)
		if err := e.regStore.Delete(ctx, matricNo, courseCode, index); err != nil {
			e.logWriteErr("delete registration", err)
		}
		return &DropResult{}, nil
	}

	return nil, appErrors.Clone(appErrors.ErrNotFound,
		fmt.Sprintf("neither enrolled nor waitlisted for %s/%d", courseCode, index))
}

// ChangeIndex moves a student between two indexes of the same course by
// dropping the held index and re-requesting the target. The sequence is not
// atomic: when the target is full the student ends waitlisted for it and the
// dropped seat is not restored.
func (e *Engine) ChangeIndex(ctx context.Context, matricNo, courseCode string, fromIndex, toIndex int) (*AddResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.students[matricNo]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	if heldKey, held := st.heldKey(courseCode); held && heldKey.index == toIndex {
		return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, fmt.Sprintf("already enrolled in %s/%d", courseCode, toIndex))
	}
	if _, ok := e.sections[sectionKey{code: courseCode, index: toIndex}]; !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "target section not found")
	}
	if heldKey, held := st.heldKey(courseCode); !held || heldKey.index != fromIndex {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("not enrolled in %s/%d", courseCode, fromIndex))
	}

	if _, err := e.drop(ctx, matricNo, courseCode, fromIndex); err != nil {
		return nil, err
	}
	return e.add(ctx, matricNo, courseCode, toIndex)
}

// Swap trades two held indexes of the same course between two students after
// re-authenticating the peer. Seat counts and waitlists are untouched: both
// rosters change occupant in place.
func (e *Engine) Swap(ctx context.Context, req SwapRequest) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.students[req.MatricNo]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	peer, ok := e.students[req.PeerMatricNo]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "peer student not found")
	}
	if req.MyIndex == req.PeerIndex {
		return appErrors.Clone(appErrors.ErrConflict, "cannot swap identical sections")
	}
	myKey := sectionKey{code: req.CourseCode, index: req.MyIndex}
	peerKey := sectionKey{code: req.CourseCode, index: req.PeerIndex}
	mySec, ok := e.sections[myKey]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "section not found")
	}
	peerSec, ok := e.sections[peerKey]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "peer section not found")
	}
	if heldKey, held := st.heldKey(req.CourseCode); !held || heldKey != myKey {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("not enrolled in %s/%d", req.CourseCode, req.MyIndex))
	}
	if heldKey, held := peer.heldKey(req.CourseCode); !held || heldKey != peerKey {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("peer not enrolled in %s/%d", req.CourseCode, req.PeerIndex))
	}

	verified, err := e.verifier.Verify(ctx, peer.rec.Username, req.PeerPassword, models.RoleStudent)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "peer verification failed")
	}
	if !verified {
		return appErrors.Clone(appErrors.ErrAuthentication, "peer re-authentication failed")
	}

	mySec.swapOccupant(req.MatricNo, req.PeerMatricNo)
	peerSec.swapOccupant(req.PeerMatricNo, req.MatricNo)
	st.release(myKey, mySec.rec.AU)
	st.confirm(peerKey, peerSec.rec.AU)
	peer.release(peerKey, peerSec.rec.AU)
	peer.confirm(myKey, mySec.rec.AU)
	e.refreshTimetable(st)
	e.refreshTimetable(peer)

	if err := e.regStore.UpdateOwner(ctx, req.CourseCode, req.MyIndex, req.MatricNo, req.PeerMatricNo); err != nil {
		e.logWriteErr("swap registration owner", err)
	}
	if err := e.regStore.UpdateOwner(ctx, req.CourseCode, req.PeerIndex, req.PeerMatricNo, req.MatricNo); err != nil {
		e.logWriteErr("swap registration owner", err)
	}
	return nil
}

// completeEnrollment drives the Waitlisted → Enrolled transition for a
// promoted student: credit total, timetable, write-through and notification.
// The seat itself was already taken inside the section's critical section.
func (e *Engine) completeEnrollment(ctx context.Context, matricNo string, sec *sectionState) {
	st, ok := e.students[matricNo]
	if !ok {
		e.logger.Error("promoted matric number has no student state", zap.String("matric_no", matricNo))
		return
	}
	key := sec.key()
	st.confirm(key, sec.rec.AU)
	e.refreshTimetable(st)

	if err := e.regStore.UpdateStatus(ctx, matricNo, key.code, key.index, models.RegistrationEnrolled); err != nil {
		e.logWriteErr("promote registration", err)
	}
	if err := e.studentStore.UpdateTotalAU(ctx, matricNo, st.rec.TotalAU); err != nil {
		e.logWriteErr("update credit total", err)
	}
	e.notify(st, fmt.Sprintf("You have been registered for %s/%d", key.code, key.index), models.EventRegistered)
}

// CreateSection registers a new offering. The schedule is validated as a
// whole; any internal overlap rejects the section untouched.
func (e *Engine) CreateSection(ctx context.Context, rec models.Section) (*models.Section, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := sectionKey{code: rec.CourseCode, index: rec.Index}
	if _, exists := e.sections[key]; exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("section %s/%d already exists", rec.CourseCode, rec.Index))
	}
	now := time.Now().UTC()
	rec.Vacancy = rec.Capacity
	rec.CreatedAt = now
	rec.UpdatedAt = now

	state, err := newSectionState(rec)
	if err != nil {
		return nil, err
	}
	e.indexSection(state)

	snapshot := state.record()
	if err := e.sectionStore.Insert(ctx, &snapshot); err != nil {
		e.logWriteErr("insert section", err)
	}
	out := state.record()
	return &out, nil
}

// UpdateSection edits an offering. Shrinking capacity below the enrolled
// count is rejected; growing it promotes waitlisted students immediately. An
// index change cascades to every registration holding the old index.
func (e *Engine) UpdateSection(ctx context.Context, courseCode string, oldIndex int, upd SectionUpdate) (*models.Section, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	oldKey := sectionKey{code: courseCode, index: oldIndex}
	sec, ok := e.sections[oldKey]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
	}
	newKey := sectionKey{code: courseCode, index: upd.NewIndex}
	if newKey != oldKey {
		if _, exists := e.sections[newKey]; exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("section %s/%d already exists", courseCode, upd.NewIndex))
		}
	}
	enrolled := sec.rosterSize()
	if upd.Capacity < enrolled {
		return nil, appErrors.Clone(appErrors.ErrCapacityViolation,
			fmt.Sprintf("capacity %d is below the %d enrolled students", upd.Capacity, enrolled))
	}
	newSched, err := buildSchedule(upd.Lessons)
	if err != nil {
		return nil, err
	}

	oldAU := sec.rec.AU
	sec.applyUpdate(upd, newSched)

	if newKey != oldKey {
		delete(e.sections, oldKey)
		e.sections[newKey] = sec
		for _, m := range sec.rosterMembers() {
			if st, ok := e.students[m]; ok {
				st.held[courseCode] = newKey
			}
		}
		for _, m := range sec.waitMembers() {
			if st, ok := e.students[m]; ok {
				st.waitlisted[courseCode] = newKey
			}
		}
		if err := e.regStore.UpdateIndex(ctx, courseCode, oldIndex, upd.NewIndex); err != nil {
			e.logWriteErr("cascade index change", err)
		}
	}

	if upd.AU != oldAU {
		for _, m := range sec.rosterMembers() {
			if st, ok := e.students[m]; ok {
				st.rec.TotalAU += upd.AU - oldAU
				if err := e.studentStore.UpdateTotalAU(ctx, m, st.rec.TotalAU); err != nil {
					e.logWriteErr("update credit total", err)
				}
			}
		}
	}
	for _, m := range sec.rosterMembers() {
		if st, ok := e.students[m]; ok {
			e.refreshTimetable(st)
		}
	}

	// Capacity growth may have opened seats; backfill in FIFO order.
	for {
		promoted, ok := sec.promote()
		if !ok {
			break
		}
		e.completeEnrollment(ctx, promoted, sec)
	}

	snapshot := sec.record()
	if err := e.sectionStore.Update(ctx, courseCode, oldIndex, &snapshot); err != nil {
		e.logWriteErr("update section", err)
	}
	out := sec.record()
	return &out, nil
}

// AddStudent admits a new student into the registry.
func (e *Engine) AddStudent(ctx context.Context, rec models.Student) (*models.Student, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.students[rec.MatricNo]; exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("student %s already exists", rec.MatricNo))
	}
	for _, st := range e.students {
		if st.rec.Username == rec.Username {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("username %s already taken", rec.Username))
		}
	}
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if rec.Contact == "" {
		rec.Contact = models.ContactBoth
	}
	st := newStudentState(rec)
	e.students[rec.MatricNo] = st

	snapshot := st.rec
	if err := e.studentStore.Insert(ctx, &snapshot); err != nil {
		e.logWriteErr("insert student", err)
	}
	out := st.rec
	return &out, nil
}

// SetContact changes the notification channel preference for a student.
func (e *Engine) SetContact(ctx context.Context, matricNo string, method models.ContactMethod) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.students[matricNo]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	st.rec.Contact = method
	if err := e.studentStore.UpdateContact(ctx, matricNo, method); err != nil {
		e.logWriteErr("update contact method", err)
	}
	return nil
}

// Sections lists offerings, optionally filtered, sorted by course code or by
// section index.
func (e *Engine) Sections(filter models.SectionFilter) []models.Section {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]models.Section, 0, len(e.sections))
	for _, sec := range e.sections {
		rec := sec.record()
		if filter.CourseCode != "" && rec.CourseCode != filter.CourseCode {
			continue
		}
		if filter.School != "" && rec.School != filter.School {
			continue
		}
		out = append(out, rec)
	}
	if filter.SortBy == "index" {
		sort.Slice(out, func(i, j int) bool {
			if out[i].Index != out[j].Index {
				return out[i].Index < out[j].Index
			}
			return out[i].CourseCode < out[j].CourseCode
		})
	} else {
		sort.Slice(out, func(i, j int) bool {
			if out[i].CourseCode != out[j].CourseCode {
				return out[i].CourseCode < out[j].CourseCode
			}
			return out[i].Index < out[j].Index
		})
	}
	return out
}

// Section returns one offering.
func (e *Engine) Section(courseCode string, index int) (*models.Section, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	sec, ok := e.sections[sectionKey{code: courseCode, index: index}]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
	}
	rec := sec.record()
	return &rec, nil
}

// Vacancy reports seats and queue length for one offering.
func (e *Engine) Vacancy(courseCode string, index int) (*models.SectionVacancy, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	sec, ok := e.sections[sectionKey{code: courseCode, index: index}]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
	}
	v := sec.vacancyView()
	return &v, nil
}

// CourseVacancies reports availability across every index of a course.
func (e *Engine) CourseVacancies(courseCode string) ([]models.SectionVacancy, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	secs, ok := e.byCourse[courseCode]
	if !ok || len(secs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	out := make([]models.SectionVacancy, 0, len(secs))
	for _, sec := range secs {
		out = append(out, sec.vacancyView())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

// Roster returns the enrolled students of a section sorted by matric number.
func (e *Engine) Roster(courseCode string, index int) ([]models.Student, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	sec, ok := e.sections[sectionKey{code: courseCode, index: index}]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
	}
	members := sec.rosterMembers()
	sort.Strings(members)
	out := make([]models.Student, 0, len(members))
	for _, m := range members {
		if st, ok := e.students[m]; ok {
			out = append(out, st.rec)
		}
	}
	return out, nil
}

// Waitlisted returns the queued students of a section in promotion order.
func (e *Engine) Waitlisted(courseCode string, index int) ([]models.Student, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	sec, ok := e.sections[sectionKey{code: courseCode, index: index}]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
	}
	out := make([]models.Student, 0)
	for _, m := range sec.waitMembers() {
		if st, ok := e.students[m]; ok {
			out = append(out, st.rec)
		}
	}
	return out, nil
}

// Student returns one student record including the derived credit total.
func (e *Engine) Student(matricNo string) (*models.Student, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	st, ok := e.students[matricNo]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	rec := st.rec
	return &rec, nil
}

// Students lists students, optionally restricted to a course or a specific
// section and matched against a name/matric search term.
func (e *Engine) Students(filter models.StudentFilter) []models.Student {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]models.Student, 0, len(e.students))
	for _, st := range e.students {
		if filter.CourseCode != "" {
			key, held := st.heldKey(filter.CourseCode)
			if !held {
				continue
			}
			if filter.Index != 0 && key.index != filter.Index {
				continue
			}
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(st.rec.FullName()), needle) &&
				!strings.Contains(strings.ToLower(st.rec.MatricNo), needle) {
				continue
			}
		}
		out = append(out, st.rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatricNo < out[j].MatricNo })
	return out
}

// Courses returns the sections a student currently holds and queues for.
func (e *Engine) Courses(matricNo string) (held, waitlisted []models.Section, err error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	st, ok := e.students[matricNo]
	if !ok {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	for _, key := range st.heldKeys() {
		if sec, ok := e.sections[key]; ok {
			held = append(held, sec.record())
		}
	}
	for _, key := range st.waitlisted {
		if sec, ok := e.sections[key]; ok {
			waitlisted = append(waitlisted, sec.record())
		}
	}
	sort.Slice(held, func(i, j int) bool { return held[i].CourseCode < held[j].CourseCode })
	sort.Slice(waitlisted, func(i, j int) bool { return waitlisted[i].CourseCode < waitlisted[j].CourseCode })
	return held, waitlisted, nil
}

// Timetable returns the memoized weekly view for a student. It takes the
// write lock because the view is rebuilt in place.
func (e *Engine) Timetable(matricNo string) (*models.Timetable, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.students[matricNo]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	e.refreshTimetable(st)
	tt := st.timetable
	return &tt, nil
}

func (e *Engine) refreshTimetable(st *studentState) {
	states := make([]*sectionState, 0, len(st.held))
	for _, key := range st.held {
		if sec, ok := e.sections[key]; ok {
			states = append(states, sec)
		}
	}
	st.timetable = buildTimetable(st.rec.MatricNo, states, st.rec.TotalAU)
}

func (e *Engine) notify(st *studentState, message string, event models.NotificationEvent) {
	if e.notifier == nil {
		return
	}
	e.notifier.Notify(models.Notification{
		MatricNo: st.rec.MatricNo,
		Message:  message,
		Event:    event,
		SentAt:   time.Now().UTC(),
	})
}

func (e *Engine) persistVacancy(ctx context.Context, sec *sectionState) {
	v := sec.vacancyView()
	if err := e.sectionStore.UpdateVacancy(ctx, v.CourseCode, v.Index, v.Vacancy); err != nil {
		e.logWriteErr("update vacancy", err)
	}
}

// Write-through failures do not roll back committed in-memory transitions;
// the registration state stays available and the mirror catches up on the
// next write.
func (e *Engine) logWriteErr(op string, err error) {
	e.logger.Error("write-through failed", zap.String("op", op), zap.Error(err))
}
