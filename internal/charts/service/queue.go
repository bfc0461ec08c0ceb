package service

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/natalis-app/natalis-backend/internal/charts/domain"
	"github.com/natalis-app/natalis-backend/internal/platform/metrics"
)

// Queue hands profile ids from request handlers to the build workers. A
// profile already waiting is not queued twice.
type Queue struct {
	ch      chan string
	mu      sync.Mutex
	pending map[string]struct{}
}

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 1
	}
	return &Queue{ch: make(chan string, size), pending: make(map[string]struct{})}
}

// Submit never blocks. It returns domain.ErrQueueFull when there is no room.
func (q *Queue) Submit(profileID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.pending[profileID]; ok {
		return nil
	}
	select {
	case q.ch <- profileID:
		q.pending[profileID] = struct{}{}
		metrics.SetChartQueueDepth(len(q.pending))
		return nil
	default:
		return fmt.Errorf("%w: profile_id=%s", domain.ErrQueueFull, profileID)
	}
}

// Len is the number of profiles waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Take blocks until a profile is available or ctx is done. The id leaves the
// pending set before it is returned, so a save during the build queues a
// follow-up.
func (q *Queue) Take(ctx context.Context) (string, bool) {
	select {
	case <-ctx.Done():
		return "", false
	case id := <-q.ch:
		q.taken(id)
		return id, true
	}
}

func (q *Queue) taken(profileID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.pending, profileID)
	metrics.SetChartQueueDepth(len(q.pending))
}

// Ensurer is the work a Worker performs for each queued profile.
type Ensurer interface {
	EnsureChart(ctx context.Context, profileID string) Outcome
}

// Worker consumes the queue with a fixed number of goroutines.
type Worker struct {
	queue       *Queue
	ensurer     Ensurer
	concurrency int
}

func NewWorker(queue *Queue, ensurer Ensurer, concurrency int) *Worker {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Worker{queue: queue, ensurer: ensurer, concurrency: concurrency}
}

// Run blocks until ctx is cancelled and returns ctx.Err().
func (w *Worker) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < w.concurrency; i++ {
		g.Go(func() error {
			for {
				id, ok := w.queue.Take(gctx)
				if !ok {
					return gctx.Err()
				}
				w.ensurer.EnsureChart(gctx, id)
			}
		})
	}
	return g.Wait()
}
