package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/stars-api/internal/models"
	"github.com/noah-isme/stars-api/pkg/jobs"
)

const historyLimit = 50

// StudentDirectory resolves a matric number to the student's contact details.
type StudentDirectory interface {
	Student(matricNo string) (*models.Student, error)
}

// EmailSender delivers a message to an email address.
type EmailSender interface {
	SendEmail(ctx context.Context, to, message string) error
}

// SMSSender delivers a message to a phone number.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// LogEmailSender writes email deliveries to the log. Stands in for a real
// mail gateway.
type LogEmailSender struct {
	Logger *zap.Logger
}

// SendEmail logs the delivery.
func (s *LogEmailSender) SendEmail(_ context.Context, to, message string) error {
	s.Logger.Info("email sent", zap.String("to", to), zap.String("message", message))
	return nil
}

// LogSMSSender writes SMS deliveries to the log.
type LogSMSSender struct {
	Logger *zap.Logger
}

// SendSMS logs the delivery.
func (s *LogSMSSender) SendSMS(_ context.Context, to, message string) error {
	s.Logger.Info("sms sent", zap.String("to", to), zap.String("message", message))
	return nil
}

type deliveryJob struct {
	Channel      string
	Target       string
	Notification models.Notification
}

// NotificationService fans registration outcomes out to the student's chosen
// channels through a background worker queue and keeps a bounded per-student
// history.
type NotificationService struct {
	queue   *jobs.Queue
	email   EmailSender
	sms     SMSSender
	metrics *MetricsService
	logger  *zap.Logger

	mu        sync.Mutex
	directory StudentDirectory
	history   map[string][]models.Notification
}

// NewNotificationService constructs the service and its delivery queue. Call
// Start before use and SetDirectory once the student registry exists.
func NewNotificationService(email EmailSender, sms SMSSender, metrics *MetricsService, logger *zap.Logger, cfg jobs.QueueConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{
		email:   email,
		sms:     sms,
		metrics: metrics,
		logger:  logger,
		history: make(map[string][]models.Notification),
	}
	cfg.Logger = logger
	s.queue = jobs.NewQueue("notifications", s.deliver, cfg)
	return s
}

// SetDirectory wires the student lookup. The registration engine is built
// after this service, so the directory arrives late.
func (s *NotificationService) SetDirectory(d StudentDirectory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directory = d
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the delivery workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Notify records the notification and enqueues one delivery per channel the
// student opted into.
func (s *NotificationService) Notify(n models.Notification) {
	s.mu.Lock()
	directory := s.directory
	entries := append(s.history[n.MatricNo], n)
	if len(entries) > historyLimit {
		entries = entries[len(entries)-historyLimit:]
	}
	s.history[n.MatricNo] = entries
	s.mu.Unlock()

	if directory == nil {
		s.logger.Warn("notification dropped, no student directory", zap.String("matric_no", n.MatricNo))
		return
	}
	student, err := directory.Student(n.MatricNo)
	if err != nil || student == nil {
		s.logger.Warn("notification dropped, unknown student", zap.String("matric_no", n.MatricNo), zap.Error(err))
		return
	}

	if student.Contact == models.ContactEmail || student.Contact == models.ContactBoth {
		s.enqueue(deliveryJob{Channel: "email", Target: student.Email, Notification: n})
	}
	if student.Contact == models.ContactSMS || student.Contact == models.ContactBoth {
		s.enqueue(deliveryJob{Channel: "sms", Target: student.Phone, Notification: n})
	}
}

// History returns the retained notifications for a student, newest last.
func (s *NotificationService) History(matricNo string) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.history[matricNo]
	out := make([]models.Notification, len(entries))
	copy(out, entries)
	return out
}

func (s *NotificationService) enqueue(job deliveryJob) {
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    job.Channel,
		Payload: job,
	})
	if err != nil {
		s.logger.Warn("failed to enqueue notification",
			zap.String("channel", job.Channel), zap.String("matric_no", job.Notification.MatricNo), zap.Error(err))
	}
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(deliveryJob)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}

	var err error
	switch payload.Channel {
	case "email":
		err = s.email.SendEmail(ctx, payload.Target, payload.Notification.Message)
	case "sms":
		err = s.sms.SendSMS(ctx, payload.Target, payload.Notification.Message)
	default:
		return fmt.Errorf("unknown channel %q", payload.Channel)
	}
	if err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.RecordNotification(payload.Channel)
	}
	return nil
}
