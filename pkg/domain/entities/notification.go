package entities

import (
	"strings"
	"time"
)

type NotificationType string

const (
	NotifyOrderStatus      NotificationType = "order_status"
	NotifyApproval         NotificationType = "approval"
	NotifyInventoryAlert   NotificationType = "inventory_alert"
	NotifySystem           NotificationType = "system"
	NotifyDeadlineWarning  NotificationType = "deadline_warning"
	NotifyReadyForDelivery NotificationType = "ready_for_delivery"
	NotifyInventoryLow     NotificationType = "inventory_low"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotifyOrderStatus, NotifyApproval, NotifyInventoryAlert, NotifySystem,
		NotifyDeadlineWarning, NotifyReadyForDelivery, NotifyInventoryLow:
		return true
	}
	return false
}

// Notification is an in-app message for one user
type Notification struct {
	ID          string                 `json:"id"`
	RecipientID string                 `json:"recipient_id"`
	Title       string                 `json:"title"`
	Message     string                 `json:"message"`
	Type        NotificationType       `json:"type"`
	Data        map[string]interface{} `json:"data,omitempty"`
	IsRead      bool                   `json:"is_read"`
	CreatedAt   time.Time              `json:"created_at"`
	ReadAt      *time.Time             `json:"read_at,omitempty"`
}

// NewNotification creates a validated unread Notification
func NewNotification(recipientID string, kind NotificationType, title, message string, data map[string]interface{}, now time.Time) (*Notification, error) {
	if recipientID == "" {
		return nil, invalidf("notification requires a recipient")
	}
	if !kind.Valid() {
		return nil, invalidf("unknown notification type %q", kind)
	}
	if strings.TrimSpace(title) == "" {
		return nil, invalidf("notification title cannot be empty")
	}
	return &Notification{
		ID:          NewID(),
		RecipientID: recipientID,
		Title:       title,
		Message:     message,
		Type:        kind,
		Data:        data,
		CreatedAt:   now,
	}, nil
}

// MarkRead is idempotent
func (n *Notification) MarkRead(now time.Time) {
	if n.IsRead {
		return
	}
	n.IsRead = true
	n.ReadAt = timePtr(now)
}

// DataString returns a string value from Data, or ""
func (n *Notification) DataString(key string) string {
	if n.Data == nil {
		return ""
	}
	s, _ := n.Data[key].(string)
	return s
}

// NotificationPreference holds a user's opt-ins
type NotificationPreference struct {
	UserID            string `json:"user_id"`
	OrderUpdates      bool   `json:"order_updates"`
	Approvals         bool   `json:"approvals"`
	InventoryAlerts   bool   `json:"inventory_alerts"`
	WeeklyDigest      bool   `json:"weekly_digest"`
	EmailSubscription bool   `json:"email_subscription"`
}

// DefaultPreferences returns the opt-ins every new user starts with
func DefaultPreferences(userID string) *NotificationPreference {
	return &NotificationPreference{
		UserID:            userID,
		OrderUpdates:      true,
		Approvals:         true,
		InventoryAlerts:   false,
		WeeklyDigest:      true,
		EmailSubscription: true,
	}
}
