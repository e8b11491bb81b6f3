// Package storage keeps the secondary audit trail of raw contact submissions.
// The log is written only; the application never reads it back.
package storage

import (
	"context"
	"errors"

	"github.com/thorsignia/backend/internal/model"
)

// ErrSkipped is returned by a log that is intentionally not written, e.g. on
// a host with a read-only filesystem. Callers report it as "skipped", not as a
// failure.
var ErrSkipped = errors.New("storage: backup skipped")

// SubmissionLog appends submitted contact data to the audit trail.
type SubmissionLog interface {
	// Append adds one entry. Implementations are safe for concurrent use.
	Append(ctx context.Context, entry model.BackupEntry) error
}

// Disabled is a SubmissionLog that never writes.
type Disabled struct{}

// Append always returns ErrSkipped.
func (Disabled) Append(context.Context, model.BackupEntry) error { return ErrSkipped }
