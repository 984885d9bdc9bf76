// Package webhook keeps an inbox of provider notifications in front of the
// deposit service. A body is stored before it is decoded and is marked
// processed once its deposit posts. A notification that fails, for example
// because the user's allocation rules are being edited, stays in the inbox as
// failed and is picked up again by Retry.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/smartledger/pkg/domain"
	"github.com/amirasaad/smartledger/pkg/domain/webhook"
	"github.com/amirasaad/smartledger/pkg/metrics"
	"github.com/amirasaad/smartledger/pkg/provider"
	"github.com/amirasaad/smartledger/pkg/repository"
	"github.com/amirasaad/smartledger/pkg/service/deposit"
	"github.com/amirasaad/smartledger/pkg/validation"
	"github.com/google/uuid"
)

// Depositor posts a decoded provider event.
type Depositor interface {
	RecordSuccessfulDeposit(ctx context.Context, userID uuid.UUID, ev provider.Event) (*deposit.Result, error)
}

// IngestInput is one inbound notification as the transport received it.
type IngestInput struct {
	Provider  provider.Provider `validate:"required,oneof=pesapal flutterwave"`
	EventType string            `validate:"max=64"`
	Signature string            `validate:"max=255"`
	Headers   map[string]any    `validate:"-"`
	Payload   []byte            `validate:"-"`
	// UserID overrides meta.user_id in the payload.
	UserID *uuid.UUID `validate:"-"`
}

// Outcome is the stored event and, when it posted, the deposit result.
type Outcome struct {
	Event   *webhook.Event
	Deposit *deposit.Result
}

// RetryReport summarises a Retry run.
type RetryReport struct {
	Attempted int
	Processed int
	Failed    int
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMetrics reports outcomes to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// Service stores and processes provider notifications.
type Service struct {
	uow      repository.UnitOfWork
	decoders *provider.Registry
	deposits Depositor
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// New creates a webhook Service.
func New(
	uow repository.UnitOfWork,
	decoders *provider.Registry,
	deposits Depositor,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		uow:      uow,
		decoders: decoders,
		deposits: deposits,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest stores the notification and processes it right away. When storing
// succeeds but processing fails, the failed event is returned together with
// the error so the caller can report where the payload is held.
func (s *Service) Ingest(ctx context.Context, in IngestInput) (*Outcome, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	ev, err := webhook.NewEvent(in.Provider, in.EventType, in.Payload, s.now())
	if err != nil {
		return nil, err
	}
	ev.Signature = in.Signature
	ev.UserID = in.UserID
	if in.Headers != nil {
		ev.Headers = in.Headers
	}

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.WebhookRepository()
		if err != nil {
			return err
		}
		return repo.Create(ctx, ev)
	})
	if err != nil {
		return nil, fmt.Errorf("store webhook: %w", err)
	}
	s.metrics.Webhook(string(ev.Provider), metrics.OutcomeReceived)
	s.logger.Info("Webhook received",
		"webhook_id", ev.ID,
		"provider", ev.Provider,
		"event_type", ev.EventType,
		"bytes", len(ev.Payload),
	)
	return s.process(ctx, ev)
}

// Process reprocesses one stored event by id.
func (s *Service) Process(ctx context.Context, id uuid.UUID) (*Outcome, error) {
	var ev *webhook.Event
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.WebhookRepository()
		if err != nil {
			return err
		}
		ev, err = repo.Get(ctx, id)
		return err
	})
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", webhook.ErrEventNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if ev.Status == webhook.StatusProcessed {
		return nil, fmt.Errorf("%w: %s", webhook.ErrAlreadyProcessed, id)
	}
	return s.process(ctx, ev)
}

// process decodes and posts ev, then records the result on it. The deposit
// runs in its own unit of work; a repeat of the same notification is absorbed
// by the deposit idempotency check.
func (s *Service) process(ctx context.Context, ev *webhook.Event) (*Outcome, error) {
	logger := s.logger.With("webhook_id", ev.ID, "provider", ev.Provider)

	res, cause := s.post(ctx, ev)
	stored, err := s.finish(ctx, ev.ID, res, cause)
	if err != nil {
		logger.Error("Webhook state not saved", "error", err, "cause", cause)
		return nil, err
	}
	if cause != nil {
		s.metrics.Webhook(string(ev.Provider), metrics.OutcomeFailed)
		logger.Warn("Webhook held for retry", "attempts", stored.Attempts, "error", cause)
		return &Outcome{Event: stored}, cause
	}
	outcome := metrics.OutcomePosted
	if res.Duplicate {
		outcome = metrics.OutcomeDuplicate
	}
	s.metrics.Webhook(string(ev.Provider), outcome)
	logger.Info("Webhook processed", "transaction_id", res.Transaction.ID, "duplicate", res.Duplicate)
	return &Outcome{Event: stored, Deposit: res}, nil
}

func (s *Service) post(ctx context.Context, ev *webhook.Event) (*deposit.Result, error) {
	decoded, err := s.decoders.Decode(ev.Provider, ev.Payload)
	if err != nil {
		return nil, err
	}
	userID, err := eventUser(ev, decoded)
	if err != nil {
		return nil, err
	}
	return s.deposits.RecordSuccessfulDeposit(ctx, userID, decoded)
}

func eventUser(ev *webhook.Event, decoded provider.Event) (uuid.UUID, error) {
	if ev.UserID != nil {
		return *ev.UserID, nil
	}
	return decoded.UserID()
}

// finish records the attempt under a row lock. An event another attempt
// already marked processed is left as it is.
func (s *Service) finish(
	ctx context.Context,
	id uuid.UUID,
	res *deposit.Result,
	cause error,
) (ev *webhook.Event, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.WebhookRepository()
		if err != nil {
			return err
		}
		ev, err = repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if ev.Status == webhook.StatusProcessed {
			return nil
		}
		now := s.now()
		if cause != nil {
			err = ev.Failed(cause, now)
		} else {
			err = ev.Processed(res.Transaction.ID, now)
		}
		if err != nil {
			return err
		}
		return repo.Update(ctx, ev)
	})
	return
}

// Retry reprocesses failed events and events left received by an interrupted
// run, oldest first, up to limit of each (limit <= 0 means all). A failing
// event is counted and skipped; only a cancelled ctx stops the run.
func (s *Service) Retry(ctx context.Context, limit int) (RetryReport, error) {
	defer s.metrics.Since("webhook_retry", time.Now())
	var queue []*webhook.Event
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.WebhookRepository()
		if err != nil {
			return err
		}
		for _, st := range []webhook.Status{webhook.StatusFailed, webhook.StatusReceived} {
			evs, err := repo.ListByStatus(ctx, st, limit)
			if err != nil {
				return err
			}
			queue = append(queue, evs...)
		}
		return nil
	})
	if err != nil {
		return RetryReport{}, err
	}

	var report RetryReport
	for _, ev := range queue {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Attempted++
		if _, err := s.process(ctx, ev); err != nil {
			report.Failed++
			continue
		}
		report.Processed++
	}
	s.logger.Info("Webhook retry finished",
		"attempted", report.Attempted,
		"processed", report.Processed,
		"failed", report.Failed,
	)
	return report, nil
}

// List returns stored events with the given status, oldest first.
func (s *Service) List(ctx context.Context, status webhook.Status, limit int) (events []*webhook.Event, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.WebhookRepository()
		if err != nil {
			return err
		}
		events, err = repo.ListByStatus(ctx, status, limit)
		return err
	})
	if err != nil {
		events = nil
	}
	return
}
