package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

func ParseNotificationType(s string) (NotificationType, error) {
	if s == "" {
		return NotificationInfo, nil
	}
	switch t := NotificationType(s); t {
	case NotificationInfo, NotificationSuccess, NotificationWarning, NotificationError:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown notification type %q", ErrValidation, s)
}

type Notification struct {
	ID                uuid.UUID        `json:"id"`
	UserID            uuid.UUID        `json:"user_id"`
	Type              NotificationType `json:"type"`
	Title             string           `json:"title"`
	Message           string           `json:"message"`
	RelatedEntityType string           `json:"related_entity_type,omitempty"`
	RelatedEntityID   *uuid.UUID       `json:"related_entity_id,omitempty"`
	IsRead            bool             `json:"is_read"`
	ReadAt            *time.Time       `json:"read_at,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
}
