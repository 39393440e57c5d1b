// Package notify fans oversight alerts out to the delivery queue. Dispatch is
// best-effort and fire-and-forget: a missing queue backend or a failed contact
// lookup degrades to a log line, never to a caller-visible error.
package notify

import "time"

// Type classifies an oversight alert.
type Type string

const (
	TypeApprovalRequest  Type = "approval_request"
	TypeApprovalResolved Type = "approval_resolved"
	TypeIntegrityReport  Type = "integrity_report"
	TypeAnomalyDetected  Type = "anomaly_detected"
)

// Payload is the alert content handed to QueueNotification.
type Payload struct {
	Type     Type   `json:"type"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	ReportID string `json:"report_id,omitempty"`
}

// Contacts are the oversight destinations resolved at dispatch time. Nil
// fields mean the contact was not configured or the lookup failed; delivery
// proceeds regardless.
type Contacts struct {
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

// Envelope is what travels on the queue: the payload plus the contacts that
// were current when the alert was dispatched.
type Envelope struct {
	Payload  Payload   `json:"payload"`
	Contacts Contacts  `json:"contacts"`
	QueuedAt time.Time `json:"queued_at"`
}
