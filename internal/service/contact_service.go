package service

import (
	"context"

	"github.com/thorsignia/backend/internal/model"
)

// ContactService defines the business logic for contact form submissions.
type ContactService interface {
	// Submit validates and persists one submission, then runs the
	// notification email and the audit-log backup. Side-effect outcomes are
	// reported in the result; only validation and persistence failures are
	// returned as errors.
	Submit(ctx context.Context, in model.ContactInput) (*model.SubmissionResult, error)

	// List returns every stored contact, newest first.
	List(ctx context.Context) ([]*model.Contact, error)

	// Get returns one contact or repository.ErrNotFound.
	Get(ctx context.Context, id int64) (*model.Contact, error)

	// Stats summarizes the contacts table.
	Stats(ctx context.Context) (*model.ContactStats, error)
}
