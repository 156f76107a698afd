package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/stars-api/internal/models"
	"github.com/noah-isme/stars-api/internal/registration"
	appErrors "github.com/noah-isme/stars-api/pkg/errors"
	"github.com/noah-isme/stars-api/pkg/export"
)

// SectionEngine is the slice of the coordinator used by section management
// and vacancy queries.
type SectionEngine interface {
	CreateSection(ctx context.Context, rec models.Section) (*models.Section, error)
	UpdateSection(ctx context.Context, courseCode string, oldIndex int, upd registration.SectionUpdate) (*models.Section, error)
	Sections(filter models.SectionFilter) []models.Section
	Section(courseCode string, index int) (*models.Section, error)
	Vacancy(courseCode string, index int) (*models.SectionVacancy, error)
	CourseVacancies(courseCode string) ([]models.SectionVacancy, error)
	Roster(courseCode string, index int) ([]models.Student, error)
	Waitlisted(courseCode string, index int) ([]models.Student, error)
}

// LessonInput is one lesson in a section payload with clock-time boundaries.
type LessonInput struct {
	Type  models.LessonType `json:"type" validate:"required,oneof=LECTURE TUTORIAL LAB"`
	Venue string            `json:"venue" validate:"required"`
	Day   int               `json:"day_of_week" validate:"required,min=1,max=7"`
	Start string            `json:"start" validate:"required"`
	End   string            `json:"end" validate:"required"`
}

// CreateSectionRequest describes a new offering.
type CreateSectionRequest struct {
	CourseCode string        `json:"course_code" validate:"required"`
	Index      int           `json:"index" validate:"required,gt=0"`
	School     string        `json:"school" validate:"required"`
	CourseType string        `json:"course_type" validate:"required"`
	AU         int           `json:"au" validate:"required,gt=0"`
	Capacity   int           `json:"capacity" validate:"required,gt=0"`
	Lessons    []LessonInput `json:"lessons" validate:"required,min=1,dive"`
}

// UpdateSectionRequest edits an existing offering.
type UpdateSectionRequest struct {
	NewIndex   int           `json:"new_index" validate:"required,gt=0"`
	School     string        `json:"school" validate:"required"`
	CourseType string        `json:"course_type" validate:"required"`
	AU         int           `json:"au" validate:"required,gt=0"`
	Capacity   int           `json:"capacity" validate:"required,gte=0"`
	Lessons    []LessonInput `json:"lessons" validate:"required,min=1,dive"`
}

// SectionService validates section management requests and serves vacancy
// queries through the cache.
type SectionService struct {
	engine    SectionEngine
	cache     *CacheService
	csv       *export.CSVExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSectionService constructs a SectionService.
func NewSectionService(engine SectionEngine, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionService{engine: engine, cache: cache, csv: export.NewCSVExporter(), validator: validate, logger: logger}
}

// Create adds a new offering.
func (s *SectionService) Create(ctx context.Context, req CreateSectionRequest) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	lessons, err := buildLessons(req.Lessons)
	if err != nil {
		return nil, err
	}
	sec, err := s.engine.CreateSection(ctx, models.Section{
		CourseCode: req.CourseCode,
		Index:      req.Index,
		School:     req.School,
		CourseType: req.CourseType,
		AU:         req.AU,
		Capacity:   req.Capacity,
		Lessons:    lessons,
	})
	if err != nil {
		return nil, err
	}
	s.invalidateVacancy(ctx, req.CourseCode)
	return sec, nil
}

// Update edits an offering. Capacity cannot shrink below the enrolled count.
func (s *SectionService) Update(ctx context.Context, courseCode string, index int, req UpdateSectionRequest) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	lessons, err := buildLessons(req.Lessons)
	if err != nil {
		return nil, err
	}
	sec, err := s.engine.UpdateSection(ctx, courseCode, index, registration.SectionUpdate{
		NewIndex:   req.NewIndex,
		School:     req.School,
		CourseType: req.CourseType,
		AU:         req.AU,
		Capacity:   req.Capacity,
		Lessons:    lessons,
	})
	if err != nil {
		return nil, err
	}
	s.invalidateVacancy(ctx, courseCode)
	return sec, nil
}

// List returns one page of offerings matching the filter.
func (s *SectionService) List(filter models.SectionFilter, page models.PageRequest) ([]models.Section, *models.Pagination) {
	all := s.engine.Sections(filter)
	start, end, meta := page.Window(len(all))
	return all[start:end], meta
}

// Get returns one offering with its lessons.
func (s *SectionService) Get(courseCode string, index int) (*models.Section, error) {
	return s.engine.Section(courseCode, index)
}

// Vacancy reports seats and queue length for one section, cached briefly
// because it is the hottest read during registration windows.
func (s *SectionService) Vacancy(ctx context.Context, courseCode string, index int) (*models.SectionVacancy, error) {
	key := fmt.Sprintf("vacancy:%s:%d", courseCode, index)
	var cached models.SectionVacancy
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}
	v, err := s.engine.Vacancy(courseCode, index)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, key, v, 0)
	return v, nil
}

// CourseVacancies reports availability across every index of a course.
func (s *SectionService) CourseVacancies(ctx context.Context, courseCode string) ([]models.SectionVacancy, error) {
	key := fmt.Sprintf("vacancy:%s", courseCode)
	var cached []models.SectionVacancy
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}
	vs, err := s.engine.CourseVacancies(courseCode)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, key, vs, 0)
	return vs, nil
}

// Roster lists enrolled students for one section.
func (s *SectionService) Roster(courseCode string, index int) ([]models.Student, error) {
	return s.engine.Roster(courseCode, index)
}

// Waitlist lists queued students for one section in promotion order.
func (s *SectionService) Waitlist(courseCode string, index int) ([]models.Student, error) {
	return s.engine.Waitlisted(courseCode, index)
}

// ExportRosterCSV renders the enrolled roster of one section as CSV.
func (s *SectionService) ExportRosterCSV(courseCode string, index int) ([]byte, error) {
	students, err := s.engine.Roster(courseCode, index)
	if err != nil {
		return nil, err
	}
	headers := []string{"MatricNo", "Name", "Gender", "Nationality", "CourseOfStudy", "Email"}
	rows := make([]map[string]string, 0, len(students))
	for _, st := range students {
		rows = append(rows, map[string]string{
			"MatricNo":      st.MatricNo,
			"Name":          st.FullName(),
			"Gender":        st.Gender,
			"Nationality":   st.Nationality,
			"CourseOfStudy": st.CourseOfStudy,
			"Email":         st.Email,
		})
	}
	data, err := s.csv.Render(export.Dataset{Headers: headers, Rows: rows})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return data, nil
}

func (s *SectionService) invalidateVacancy(ctx context.Context, courseCode string) {
	s.cache.Invalidate(ctx, fmt.Sprintf("vacancy:%s*", courseCode))
}

func buildLessons(inputs []LessonInput) ([]models.Lesson, error) {
	lessons := make([]models.Lesson, 0, len(inputs))
	for _, in := range inputs {
		lesson, err := models.NewLesson(in.Type, in.Venue, in.Day, in.Start, in.End)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson")
		}
		lessons = append(lessons, lesson)
	}
	return lessons, nil
}
