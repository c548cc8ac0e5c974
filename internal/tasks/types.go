package tasks

import (
	"time"

	"launchkit/internal/audit"
)

// Task Types
const (
	TaskTypeEmailSend     = "email:send"
	TaskTypeStatsSnapshot = "stats:snapshot"
	TaskTypeAuditExport   = "audit:export"
)

// Task Queues
const (
	QueueCritical = "critical" // For time-sensitive tasks like email sending
	QueueDefault  = "default"  // For regular tasks
	QueueLow      = "low"      // For background tasks like exports
)

// Task Timeouts
const (
	TimeoutShort  = 1 * time.Minute
	TimeoutMedium = 5 * time.Minute
	TimeoutLong   = 30 * time.Minute
)

// Task Retry Settings
const (
	RetryDefault = 3
	RetryMin     = 1
)

// AuditExportPayload asks for the matching audit entries to be written to
// object storage under Key. NotifyEmail receives the download link.
type AuditExportPayload struct {
	Key         string       `json:"key"`
	Filter      audit.Filter `json:"filter"`
	RequestedBy string       `json:"requestedBy"`
	NotifyEmail string       `json:"notifyEmail,omitempty"`
}
