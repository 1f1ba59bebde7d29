// Package exports queues lead exports and settles them after a delay with a
// pluggable outcome, standing in for a real delivery job.
package exports

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"siftin-engine/internal/deferred"
	"siftin-engine/internal/domain"
	"siftin-engine/internal/events"
)

type Store interface {
	GetAll(ctx context.Context) ([]domain.Export, error)
	GetByID(ctx context.Context, id int64) (domain.Export, error)
	Create(ctx context.Context, e domain.Export) (domain.Export, error)
	Requeue(ctx context.Context, id int64) (domain.Export, error)
	SetStatus(ctx context.Context, id int64, st domain.ExportStatus) (domain.Export, error)
	Delete(ctx context.Context, id int64) (domain.Export, error)
}

type Options struct {
	CreateSettle      time.Duration
	RetrySettle       time.Duration
	CreateSuccessRate float64
	RetrySuccessRate  float64
}

// DefaultOptions settles a new export after 3s with 80% success and a retry
// after 2s with 70% success.
func DefaultOptions() Options {
	return Options{
		CreateSettle:      3 * time.Second,
		RetrySettle:       2 * time.Second,
		CreateSuccessRate: 0.8,
		RetrySuccessRate:  0.7,
	}
}

type Service struct {
	store   Store
	queue   *deferred.Queue
	policy  OutcomePolicy
	limiter *DestinationLimiter
	pub     events.Publisher
	opts    Options
	log     *zap.Logger
}

func NewService(store Store, queue *deferred.Queue, policy OutcomePolicy, limiter *DestinationLimiter, pub events.Publisher, opts Options, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if limiter == nil {
		limiter = NewDestinationLimiter(0, 1)
	}
	return &Service{
		store:   store,
		queue:   queue,
		policy:  policy,
		limiter: limiter,
		pub:     pub,
		opts:    opts,
		log:     log.Named("exports"),
	}
}

func key(id int64) string { return "export:" + strconv.FormatInt(id, 10) }

func (s *Service) List(ctx context.Context) ([]domain.Export, error) {
	return s.store.GetAll(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (domain.Export, error) {
	return s.store.GetByID(ctx, id)
}

// Create queues an export and schedules its settle.
func (s *Service) Create(ctx context.Context, e domain.Export) (domain.Export, error) {
	e.MappingName = domain.CleanText(e.MappingName)
	created, err := s.store.Create(ctx, e)
	if err != nil {
		return domain.Export{}, err
	}
	s.schedule(created, s.opts.CreateSettle, s.opts.CreateSuccessRate)
	s.log.Info("export queued", zap.Int64("id", created.ID), zap.String("destination", string(created.Destination)), zap.Int("records", created.RecordCount))
	return created, nil
}

// Retry puts the export back in the queue. A settle still pending from an
// earlier attempt is superseded.
func (s *Service) Retry(ctx context.Context, id int64) (domain.Export, error) {
	e, err := s.store.Requeue(ctx, id)
	if err != nil {
		return domain.Export{}, err
	}
	s.schedule(e, s.opts.RetrySettle, s.opts.RetrySuccessRate)
	s.log.Info("export retried", zap.Int64("id", id))
	return e, nil
}

func (s *Service) Delete(ctx context.Context, id int64) (domain.Export, error) {
	e, err := s.store.Delete(ctx, id)
	if err != nil {
		return domain.Export{}, err
	}
	if s.queue.Cancel(key(id)) {
		s.log.Debug("pending settle cancelled", zap.Int64("id", id))
	}
	return e, nil
}

// Pending reports whether a settle is scheduled for id.
func (s *Service) Pending(id int64) bool {
	return s.queue.Current(key(id)) != 0
}

func (s *Service) schedule(e domain.Export, delay time.Duration, rate float64) {
	id, dest := e.ID, e.Destination
	// the limiter wait happens before the settle is claimed, so a retry or
	// delete during the wait still stops it
	wait := func(ctx context.Context) error { return s.limiter.Wait(ctx, dest) }
	s.queue.ScheduleGated(key(id), delay, wait, func(ctx context.Context) {
		s.settle(ctx, id, dest, rate)
	})
}

func (s *Service) settle(ctx context.Context, id int64, dest domain.Destination, rate float64) {
	status := s.policy.Outcome(rate)
	e, err := s.store.SetStatus(ctx, id, status)
	if errors.Is(err, domain.ErrNotFound) {
		return
	}
	if err != nil {
		s.log.Warn("settle failed", zap.Int64("id", id), zap.Error(err))
		return
	}
	s.log.Info("export settled", zap.Int64("id", id), zap.String("status", string(status)))
	if s.pub == nil {
		return
	}
	s.pub.Emit("", events.TypeExportSettled, e)
	if status == domain.ExportSent {
		s.pub.Notify("", events.LevelSuccess, "Export to "+string(dest)+" sent")
	} else {
		s.pub.Notify("", events.LevelError, "Export to "+string(dest)+" failed")
	}
}
