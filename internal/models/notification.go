package models

import "time"

// NotificationEvent distinguishes registration outcomes in messages.
type NotificationEvent string

// Notification events.
const (
	EventRegistered   NotificationEvent = "registered"
	EventDeregistered NotificationEvent = "deregistered"
)

// Notification is a message queued for delivery to a student over the
// channels selected by their contact preference.
type Notification struct {
	MatricNo string            `json:"matric_no"`
	Message  string            `json:"message"`
	Event    NotificationEvent `json:"event"`
	SentAt   time.Time         `json:"sent_at"`
}
