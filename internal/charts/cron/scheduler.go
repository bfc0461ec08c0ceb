package cronjob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/natalis-app/natalis-backend/internal/charts/domain"
)

const (
	DefaultSpec       = "@every 15m"
	defaultBatch      = 200
	defaultRetryAfter = time.Hour
)

type StaleLister interface {
	ListStale(ctx context.Context, retryBefore time.Time, limit int) ([]string, error)
}

type Submitter interface {
	Submit(profileID string) error
}

// Scheduler periodically re-queues profiles whose chart is missing, outdated
// by a later profile edit, or left without markup.
type Scheduler struct {
	cron       *cron.Cron
	spec       string
	lister     StaleLister
	queue      Submitter
	batch      int
	retryAfter time.Duration
	now        func() time.Time
}

func NewScheduler(spec string, lister StaleLister, queue Submitter) *Scheduler {
	if spec == "" {
		spec = DefaultSpec
	}
	return &Scheduler{
		cron:       cron.New(cron.WithSeconds()),
		spec:       spec,
		lister:     lister,
		queue:      queue,
		batch:      defaultBatch,
		retryAfter: defaultRetryAfter,
		now:        time.Now,
	}
}

// Start initializes cron tasks
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		if _, err := s.Sweep(context.Background()); err != nil {
			zap.L().Warn("chart sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule chart sweep %q: %w", s.spec, err)
	}

	zap.L().Info("cron scheduler started", zap.String("chart_sweep", s.spec))
	s.cron.Start()
	return nil
}

// Stop waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep queues one batch of stale profiles and returns how many were accepted.
func (s *Scheduler) Sweep(ctx context.Context) (int, error) {
	ids, err := s.lister.ListStale(ctx, s.now().Add(-s.retryAfter), s.batch)
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, id := range ids {
		if err := s.queue.Submit(id); err != nil {
			if errors.Is(err, domain.ErrQueueFull) {
				zap.L().Info("chart sweep stopped early, queue full", zap.Int("queued", queued))
				break
			}
			return queued, err
		}
		queued++
	}
	if queued > 0 {
		zap.L().Info("chart sweep queued profiles", zap.Int("count", queued))
	}
	return queued, nil
}
