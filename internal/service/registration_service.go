package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/stars-api/internal/models"
	"github.com/noah-isme/stars-api/internal/registration"
	appErrors "github.com/noah-isme/stars-api/pkg/errors"
)

// RegistrationEngine is the slice of the coordinator used by student-facing
// registration flows.
type RegistrationEngine interface {
	Add(ctx context.Context, matricNo, courseCode string, index int) (*registration.AddResult, error)
	Drop(ctx context.Context, matricNo, courseCode string, index int) (*registration.DropResult, error)
	ChangeIndex(ctx context.Context, matricNo, courseCode string, fromIndex, toIndex int) (*registration.AddResult, error)
	Swap(ctx context.Context, req registration.SwapRequest) error
}

// CourseRequest identifies one section in an add or drop call.
type CourseRequest struct {
	CourseCode string `json:"course_code" validate:"required"`
	Index      int    `json:"index" validate:"required,gt=0"`
}

// ChangeIndexRequest moves a student between indexes of a course.
type ChangeIndexRequest struct {
	CourseCode string `json:"course_code" validate:"required"`
	FromIndex  int    `json:"from_index" validate:"required,gt=0"`
	ToIndex    int    `json:"to_index" validate:"required,gt=0"`
}

// SwapIndexRequest trades held indexes with a peer who must re-authenticate.
type SwapIndexRequest struct {
	CourseCode   string `json:"course_code" validate:"required"`
	MyIndex      int    `json:"my_index" validate:"required,gt=0"`
	PeerMatricNo string `json:"peer_matric_no" validate:"required"`
	PeerIndex    int    `json:"peer_index" validate:"required,gt=0"`
	PeerPassword string `json:"peer_password" validate:"required"`
}

// RegistrationService validates registration requests, drives the engine and
// keeps metrics and the vacancy cache in step with outcomes.
type RegistrationService struct {
	engine    RegistrationEngine
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(engine RegistrationEngine, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{engine: engine, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// AddCourse requests enrollment for the student.
func (s *RegistrationService) AddCourse(ctx context.Context, matricNo string, req CourseRequest) (*registration.AddResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid add payload")
	}
	res, err := s.engine.Add(ctx, matricNo, req.CourseCode, req.Index)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordRegistration("rejected")
		}
		return nil, err
	}
	if s.metrics != nil {
		if res.Status == models.RegistrationEnrolled {
			s.metrics.RecordRegistration("enrolled")
		} else {
			s.metrics.RecordRegistration("waitlisted")
		}
	}
	s.invalidateVacancy(ctx, req.CourseCode)
	return res, nil
}

// DropCourse releases a seat or withdraws a waitlist entry.
func (s *RegistrationService) DropCourse(ctx context.Context, matricNo string, req CourseRequest) (*registration.DropResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid drop payload")
	}
	res, err := s.engine.Drop(ctx, matricNo, req.CourseCode, req.Index)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		if res.WasEnrolled {
			s.metrics.RecordDrop("enrolled")
		} else {
			s.metrics.RecordDrop("waitlisted")
		}
		if res.Promoted != "" {
			s.metrics.RecordPromotion()
		}
	}
	s.invalidateVacancy(ctx, req.CourseCode)
	return res, nil
}

// ChangeIndex drops the held index and re-requests the target.
func (s *RegistrationService) ChangeIndex(ctx context.Context, matricNo string, req ChangeIndexRequest) (*registration.AddResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid change payload")
	}
	res, err := s.engine.ChangeIndex(ctx, matricNo, req.CourseCode, req.FromIndex, req.ToIndex)
	if err != nil {
		return nil, err
	}
	s.invalidateVacancy(ctx, req.CourseCode)
	return res, nil
}

// SwapIndex trades sections with a peer.
func (s *RegistrationService) SwapIndex(ctx context.Context, matricNo string, req SwapIndexRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid swap payload")
	}
	err := s.engine.Swap(ctx, registration.SwapRequest{
		MatricNo:     matricNo,
		CourseCode:   req.CourseCode,
		MyIndex:      req.MyIndex,
		PeerMatricNo: req.PeerMatricNo,
		PeerIndex:    req.PeerIndex,
		PeerPassword: req.PeerPassword,
	})
	if err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.RecordSwap()
	}
	return nil
}

func (s *RegistrationService) invalidateVacancy(ctx context.Context, courseCode string) {
	if s.cache == nil {
		return
	}
	s.cache.Invalidate(ctx, fmt.Sprintf("vacancy:%s*", courseCode))
}
