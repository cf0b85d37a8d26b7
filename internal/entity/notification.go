package entity

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationJobApplication        NotificationType = "job_application"
	NotificationHackathonRegistration NotificationType = "hackathon_registration"
	NotificationDoubt                 NotificationType = "doubt"
	NotificationGeneral               NotificationType = "general"
)

// Notification is an in-app message addressed to a lower-cased email.
type Notification struct {
	ID             uuid.UUID        `json:"id"`
	RecipientEmail string           `json:"recipient_email"`
	Title          string           `json:"title"`
	Message        string           `json:"message"`
	Type           NotificationType `json:"type"`
	RelatedID      int64            `json:"related_id"`
	IdempotencyKey string           `json:"-"`
	IsRead         bool             `json:"is_read"`
	ReadAt         *time.Time       `json:"read_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}
