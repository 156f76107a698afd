package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/stars-api/internal/models"
	appErrors "github.com/noah-isme/stars-api/pkg/errors"
	"github.com/noah-isme/stars-api/pkg/export"
)

// StudentEngine is the slice of the coordinator used by student management
// and timetable queries.
type StudentEngine interface {
	AddStudent(ctx context.Context, rec models.Student) (*models.Student, error)
	Student(matricNo string) (*models.Student, error)
	Students(filter models.StudentFilter) []models.Student
	SetContact(ctx context.Context, matricNo string, method models.ContactMethod) error
	Timetable(matricNo string) (*models.Timetable, error)
	Courses(matricNo string) (held, waitlisted []models.Section, err error)
}

type credentialCreator interface {
	CreateCredential(ctx context.Context, username, password string, role models.UserRole, matricNo string) (*models.Credential, error)
}

// CreateStudentRequest admits a new student together with a login identity.
type CreateStudentRequest struct {
	MatricNo      string               `json:"matric_no" validate:"required"`
	FirstName     string               `json:"first_name" validate:"required"`
	LastName      string               `json:"last_name" validate:"required"`
	Username      string               `json:"username" validate:"required,min=3"`
	Password      string               `json:"password" validate:"required,min=6"`
	Gender        string               `json:"gender" validate:"required,oneof=M F"`
	Nationality   string               `json:"nationality" validate:"required"`
	CourseOfStudy string               `json:"course_of_study" validate:"required"`
	Email         string               `json:"email" validate:"required,email"`
	Phone         string               `json:"phone" validate:"required"`
	Contact       models.ContactMethod `json:"contact_method" validate:"omitempty,oneof=email sms both"`
}

// UpdateContactRequest changes the notification channel preference.
type UpdateContactRequest struct {
	Contact models.ContactMethod `json:"contact_method" validate:"required,oneof=email sms both"`
}

// StudentCourses groups a student's current registrations by status.
type StudentCourses struct {
	Enrolled   []models.Section `json:"enrolled"`
	Waitlisted []models.Section `json:"waitlisted"`
}

// StudentService validates student management requests and renders timetable
// exports.
type StudentService struct {
	engine    StudentEngine
	creds     credentialCreator
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(engine StudentEngine, creds credentialCreator, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		engine:    engine,
		creds:     creds,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
	}
}

// Create admits a student and provisions their login.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.engine.AddStudent(ctx, models.Student{
		MatricNo:      req.MatricNo,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Username:      req.Username,
		Gender:        req.Gender,
		Nationality:   req.Nationality,
		CourseOfStudy: req.CourseOfStudy,
		Email:         req.Email,
		Phone:         req.Phone,
		Contact:       req.Contact,
	})
	if err != nil {
		return nil, err
	}
	// The engine is the source of truth; a credential failure is treated
	// like any other write-through failure and does not undo the admission.
	if _, err := s.creds.CreateCredential(ctx, req.Username, req.Password, models.RoleStudent, req.MatricNo); err != nil {
		s.logger.Error("student admitted but credential creation failed",
			zap.String("matric_no", req.MatricNo), zap.Error(err))
	}
	return student, nil
}

// Get returns one student.
func (s *StudentService) Get(matricNo string) (*models.Student, error) {
	return s.engine.Student(matricNo)
}

// List returns students matching the filter.
func (s *StudentService) List(filter models.StudentFilter) []models.Student {
	return s.engine.Students(filter)
}

// SetContact updates the notification channel preference.
func (s *StudentService) SetContact(ctx context.Context, matricNo string, req UpdateContactRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid contact payload")
	}
	return s.engine.SetContact(ctx, matricNo, req.Contact)
}

// Courses returns the student's current registrations grouped by status.
func (s *StudentService) Courses(matricNo string) (*StudentCourses, error) {
	held, waitlisted, err := s.engine.Courses(matricNo)
	if err != nil {
		return nil, err
	}
	return &StudentCourses{Enrolled: held, Waitlisted: waitlisted}, nil
}

// Timetable returns the weekly view with clash reporting.
func (s *StudentService) Timetable(matricNo string) (*models.Timetable, error) {
	return s.engine.Timetable(matricNo)
}

// ExportTimetableCSV renders the timetable as CSV.
func (s *StudentService) ExportTimetableCSV(matricNo string) ([]byte, error) {
	tt, err := s.engine.Timetable(matricNo)
	if err != nil {
		return nil, err
	}
	data, err := s.csv.Render(timetableDataset(tt))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return data, nil
}

// ExportTimetablePDF renders the timetable as PDF.
func (s *StudentService) ExportTimetablePDF(matricNo string) ([]byte, error) {
	tt, err := s.engine.Timetable(matricNo)
	if err != nil {
		return nil, err
	}
	title := fmt.Sprintf("Timetable %s", matricNo)
	data, err := s.pdf.Render(timetableDataset(tt), title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return data, nil
}

var dayNames = [...]string{"", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func timetableDataset(tt *models.Timetable) export.Dataset {
	clashing := make(map[models.TimetableEntry]bool, len(tt.Conflicts)*2)
	for _, conflict := range tt.Conflicts {
		clashing[conflict.First] = true
		clashing[conflict.Second] = true
	}

	headers := []string{"Course", "Index", "Type", "Day", "Start", "End", "Venue", "Clash"}
	rows := make([]map[string]string, 0, len(tt.Entries))
	for _, entry := range tt.Entries {
		clash := ""
		if clashing[entry] {
			clash = "YES"
		}
		rows = append(rows, map[string]string{
			"Course": entry.CourseCode,
			"Index":  fmt.Sprintf("%d", entry.Index),
			"Type":   string(entry.Lesson.Type),
			"Day":    dayNames[entry.Lesson.Day],
			"Start":  entry.Lesson.Start(),
			"End":    entry.Lesson.End(),
			"Venue":  entry.Lesson.Venue,
			"Clash":  clash,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
