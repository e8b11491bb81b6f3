package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/thorsignia/backend/internal/model"
	"github.com/thorsignia/backend/internal/notify"
	"github.com/thorsignia/backend/internal/repository"
	"github.com/thorsignia/backend/internal/storage"
)

const defaultSideEffectTimeout = 15 * time.Second

var tracer = otel.Tracer("github.com/thorsignia/backend/internal/service")

// Options configures the side effects of a submission.
type Options struct {
	Mailer notify.Mailer
	Backup storage.SubmissionLog

	// EmailFrom and EmailTo address the notification.
	EmailFrom string
	EmailTo   string

	// SideEffectTimeout bounds email + backup together. They run on a
	// context detached from the request, so a client disconnect after the
	// record is saved does not abort them.
	SideEffectTimeout time.Duration

	Logger *slog.Logger
	Now    func() time.Time
}

// contactServiceImpl is the production implementation of ContactService.
type contactServiceImpl struct {
	repo    repository.ContactRepository
	mailer  notify.Mailer
	backup  storage.SubmissionLog
	from    string
	to      string
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewContactService creates a ContactService backed by the given repository.
// Nil side-effect collaborators are replaced with their disabled variants.
func NewContactService(repo repository.ContactRepository, opts Options) ContactService {
	s := &contactServiceImpl{
		repo:    repo,
		mailer:  opts.Mailer,
		backup:  opts.Backup,
		from:    opts.EmailFrom,
		to:      opts.EmailTo,
		timeout: opts.SideEffectTimeout,
		logger:  opts.Logger,
		now:     opts.Now,
	}
	if s.mailer == nil {
		s.mailer = notify.Disabled{}
	}
	if s.backup == nil {
		s.backup = storage.Disabled{}
	}
	if s.timeout <= 0 {
		s.timeout = defaultSideEffectTimeout
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Submit implements ContactService.
func (s *contactServiceImpl) Submit(ctx context.Context, in model.ContactInput) (*model.SubmissionResult, error) {
	ctx, span := tracer.Start(ctx, "contacts.submit")
	defer span.End()

	if err := validate(in); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	c := &model.Contact{
		Name:    in.Name,
		Email:   in.Email,
		Company: in.Company,
		Message: in.Message,
	}
	if in.Phone != "" {
		phone := in.Phone
		c.Phone = &phone
	}
	if err := s.repo.Create(ctx, c); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist")
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	span.SetAttributes(attribute.Int64("contact.id", c.ID))

	result := &model.SubmissionResult{ID: c.ID}
	now := s.now()

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	// Both tasks record their own outcome and return nil, so one failing
	// never cancels the other.
	var g errgroup.Group
	g.Go(func() error {
		result.EmailStatus = s.sendNotification(sctx, c.ID, in, now)
		return nil
	})
	g.Go(func() error {
		result.BackupStatus = s.writeBackup(sctx, c.ID, in, now)
		return nil
	})
	_ = g.Wait()

	span.SetAttributes(
		attribute.Bool("email.sent", result.EmailSent()),
		attribute.String("backup.status", result.BackupStatus),
	)
	s.logger.InfoContext(ctx, "contact saved",
		"contact_id", c.ID,
		"email_status", result.EmailStatus,
		"backup_status", result.BackupStatus,
	)
	return result, nil
}

func (s *contactServiceImpl) sendNotification(ctx context.Context, id int64, in model.ContactInput, now time.Time) string {
	msg, err := notify.RenderContactNotification(s.from, s.to, in, now)
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		if errors.Is(err, notify.ErrNotConfigured) {
			s.logger.WarnContext(ctx, "email not configured, notification not sent", "contact_id", id)
		} else {
			s.logger.ErrorContext(ctx, "failed to send notification email", "contact_id", id, "error", err)
		}
		return model.EmailFailed
	}
	return model.EmailSent
}

func (s *contactServiceImpl) writeBackup(ctx context.Context, id int64, in model.ContactInput, now time.Time) string {
	err := s.backup.Append(ctx, model.BackupEntry{
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Company:   in.Company,
		Message:   in.Message,
		Timestamp: now.UTC().Format(time.RFC3339),
	})
	switch {
	case err == nil:
		return model.BackupCreated
	case errors.Is(err, storage.ErrSkipped):
		s.logger.InfoContext(ctx, "backup skipped", "contact_id", id)
		return model.BackupSkipped
	default:
		s.logger.ErrorContext(ctx, "failed to write backup", "contact_id", id, "error", err)
		return model.BackupFailed
	}
}

// List implements ContactService.
func (s *contactServiceImpl) List(ctx context.Context) ([]*model.Contact, error) {
	return s.repo.List(ctx)
}

// Get implements ContactService.
func (s *contactServiceImpl) Get(ctx context.Context, id int64) (*model.Contact, error) {
	return s.repo.FindByID(ctx, id)
}

// Stats implements ContactService.
func (s *contactServiceImpl) Stats(ctx context.Context) (*model.ContactStats, error) {
	return s.repo.Stats(ctx)
}

// validate reports the first blank required field in form order.
func validate(in model.ContactInput) error {
	fields := []struct {
		name  string
		value string
	}{
		{"name", in.Name},
		{"email", in.Email},
		{"company", in.Company},
		{"message", in.Message},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return &ValidationError{Field: f.name}
		}
	}
	return nil
}
