package repository

import (
	"context"

	"github.com/thorsignia/backend/internal/model"
)

// ContactRepository defines the persistence interface for contact submissions.
// It is defined here (in repository) to avoid an import cycle with service.
type ContactRepository interface {
	// Create inserts c and sets c.ID from the store-assigned key.
	Create(ctx context.Context, c *model.Contact) error
	// List returns every contact, newest first.
	List(ctx context.Context) ([]*model.Contact, error)
	// FindByID returns ErrNotFound when no contact has the id.
	FindByID(ctx context.Context, id int64) (*model.Contact, error)
	// Stats reports table presence, row count and the latest submission.
	Stats(ctx context.Context) (*model.ContactStats, error)
}
