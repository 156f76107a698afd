package registration

import (
	"context"

	"github.com/noah-isme/stars-api/internal/models"
)

// The engine owns the in-memory registration state; these collaborators are
// the write-through mirror and the side-effect surfaces it fans out to.
// Failures on any of them are logged and never roll back a committed
// in-memory transition.

// SectionStore persists section records.
type SectionStore interface {
	FindAll(ctx context.Context) ([]models.Section, error)
	Insert(ctx context.Context, section *models.Section) error
	Update(ctx context.Context, courseCode string, oldIndex int, section *models.Section) error
	UpdateVacancy(ctx context.Context, courseCode string, index, vacancy int) error
}

// StudentStore persists student records and derived credit totals.
type StudentStore interface {
	FindAll(ctx context.Context) ([]models.Student, error)
	Insert(ctx context.Context, student *models.Student) error
	UpdateTotalAU(ctx context.Context, matricNo string, totalAU int) error
	UpdateContact(ctx context.Context, matricNo string, method models.ContactMethod) error
}

// RegistrationStore persists enrollment and waitlist membership records.
type RegistrationStore interface {
	FindAll(ctx context.Context) ([]models.Registration, error)
	Insert(ctx context.Context, reg *models.Registration) error
	UpdateStatus(ctx context.Context, matricNo, courseCode string, index int, status models.RegistrationStatus) error
	UpdateOwner(ctx context.Context, courseCode string, index int, fromMatric, toMatric string) error
	UpdateIndex(ctx context.Context, courseCode string, oldIndex, newIndex int) error
	Delete(ctx context.Context, matricNo, courseCode string, index int) error
}

// Notifier delivers registration outcome messages to students. Delivery is
// fire-and-forget from the engine's perspective.
type Notifier interface {
	Notify(n models.Notification)
}

// CredentialVerifier re-authenticates a peer before a section swap.
type CredentialVerifier interface {
	Verify(ctx context.Context, username, password string, role models.UserRole) (bool, error)
}
