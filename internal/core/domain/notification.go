// internal/core/domain/notification.go
package domain

import "time"

// NotificationLevel is the severity of a sale outcome shown to the operator
type NotificationLevel string

const (
	NotifySuccess NotificationLevel = "success"
	NotifyWarning NotificationLevel = "warning"
	NotifyError   NotificationLevel = "error"
)

// SaleNotification describes a sale outcome for the feedback collaborator
type SaleNotification struct {
	Level      NotificationLevel `json:"level"`
	SaleID     string            `json:"sale_id,omitempty"`
	Message    string            `json:"message"`
	Amount     string            `json:"amount,omitempty"`
	FailedIDs  []string          `json:"failed_ids,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}
