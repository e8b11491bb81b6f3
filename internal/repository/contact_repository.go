package repository

import (
	"context"
	"fmt"

	"github.com/thorsignia/backend/internal/database"
	"github.com/thorsignia/backend/internal/model"
)

const (
	insertContactSQL = `INSERT INTO contacts (name, email, phone, company, message)
		VALUES (?, ?, ?, ?, ?)`
	selectContactsSQL = `SELECT id, name, email, phone, company, message, created_at
		FROM contacts ORDER BY created_at DESC, id DESC`
	selectContactSQL = `SELECT id, name, email, phone, company, message, created_at
		FROM contacts WHERE id = ?`
	countContactsSQL = `SELECT COUNT(*) AS n FROM contacts`
)

// SQLContactRepository stores contacts through the engine-neutral database.DB.
type SQLContactRepository struct {
	db database.DB
}

// NewSQLContactRepository creates a SQLContactRepository backed by db.
func NewSQLContactRepository(db database.DB) *SQLContactRepository {
	return &SQLContactRepository{db: db}
}

// Ensure SQLContactRepository implements ContactRepository at compile time.
var _ ContactRepository = (*SQLContactRepository)(nil)

// Create inserts a new contacts row. An empty phone is stored as NULL. The
// store assigns id and created_at; only ID is read back.
func (r *SQLContactRepository) Create(ctx context.Context, c *model.Contact) error {
	var phone any
	if c.Phone != nil && *c.Phone != "" {
		phone = *c.Phone
	}
	res, err := r.db.Run(ctx, insertContactSQL, c.Name, c.Email, phone, c.Company, c.Message)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	c.ID = res.InsertedID
	return nil
}

// List returns all contacts ordered newest first; ties on created_at are broken
// by id so the order is stable.
func (r *SQLContactRepository) List(ctx context.Context) ([]*model.Contact, error) {
	rows, err := r.db.All(ctx, selectContactsSQL)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	contacts := make([]*model.Contact, 0, len(rows))
	for _, row := range rows {
		c, err := contactFromRow(row)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, nil
}

// FindByID returns the contact with the given id or ErrNotFound.
func (r *SQLContactRepository) FindByID(ctx context.Context, id int64) (*model.Contact, error) {
	row, err := r.db.Get(ctx, selectContactSQL, id)
	if err != nil {
		return nil, fmt.Errorf("find contact %d: %w", id, err)
	}
	if row == nil {
		return nil, ErrNotFound
	}
	return contactFromRow(row)
}

// Stats reports whether the contacts table exists and, if so, its size and
// most recent entry.
func (r *SQLContactRepository) Stats(ctx context.Context) (*model.ContactStats, error) {
	exists, err := database.TableExists(ctx, r.db, database.ContactsTable)
	if err != nil {
		return nil, fmt.Errorf("check contacts table: %w", err)
	}
	stats := &model.ContactStats{TableExists: exists}
	if !exists {
		return stats, nil
	}

	row, err := r.db.Get(ctx, countContactsSQL)
	if err != nil {
		return nil, fmt.Errorf("count contacts: %w", err)
	}
	if row != nil {
		if stats.RowCount, err = row.Int64("n"); err != nil {
			return nil, err
		}
	}

	latest, err := r.db.Get(ctx, selectContactsSQL+" LIMIT 1")
	if err != nil {
		return nil, fmt.Errorf("latest contact: %w", err)
	}
	if latest != nil {
		if stats.Latest, err = contactFromRow(latest); err != nil {
			return nil, err
		}
	}
	return stats, nil
}

func contactFromRow(row database.Row) (*model.Contact, error) {
	id, err := row.Int64("id")
	if err != nil {
		return nil, err
	}
	created, err := row.Time("created_at")
	if err != nil {
		return nil, err
	}
	c := &model.Contact{
		ID:        id,
		Name:      row.String("name"),
		Email:     row.String("email"),
		Company:   row.String("company"),
		Message:   row.String("message"),
		CreatedAt: created,
	}
	if phone, ok := row.NullString("phone"); ok {
		c.Phone = &phone
	}
	return c, nil
}
