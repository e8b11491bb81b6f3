package model

import "time"

// Contact is a persisted contact-form submission. Records are created once and
// never updated.
type Contact struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone"`
	Company   string    `json:"company"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// ContactInput is the raw form payload for POST /api/contacts.
type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company"`
	Message string `json:"message"`
}

// BackupEntry is one element of the JSON audit log.
type BackupEntry struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Company   string `json:"company"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Side-effect outcomes reported alongside a saved submission.
const (
	EmailSent   = "sent"
	EmailFailed = "failed"

	BackupCreated = "created"
	BackupSkipped = "skipped"
	BackupFailed  = "failed"
)

// SubmissionResult is what the submission service reports after the record has
// been persisted.
type SubmissionResult struct {
	ID           int64
	EmailStatus  string
	BackupStatus string
}

// EmailSent reports whether the notification was delivered.
func (r *SubmissionResult) EmailSent() bool { return r.EmailStatus == EmailSent }

// BackupCreated reports whether the audit-log entry was written.
func (r *SubmissionResult) BackupCreated() bool { return r.BackupStatus == BackupCreated }

// ContactStats summarizes the contacts table for the debug endpoint.
type ContactStats struct {
	TableExists bool     `json:"exists"`
	RowCount    int64    `json:"rowCount"`
	Latest      *Contact `json:"recentSubmission"`
}
