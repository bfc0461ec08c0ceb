package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/natalis-app/natalis-backend/internal/charts/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingEnsurer struct {
	mu   sync.Mutex
	seen []string
	done chan string
}

func (r *recordingEnsurer) EnsureChart(_ context.Context, id string) Outcome {
	r.mu.Lock()
	r.seen = append(r.seen, id)
	r.mu.Unlock()
	r.done <- id
	return OutcomeRendered
}

func TestQueue_SubmitCoalescesAndBounds(t *testing.T) {
	q := NewQueue(2)

	require.NoError(t, q.Submit("a"))
	require.NoError(t, q.Submit("a"))
	require.NoError(t, q.Submit("b"))
	assert.Equal(t, 2, q.Len())

	err := q.Submit("c")
	assert.True(t, errors.Is(err, domain.ErrQueueFull))
}

func TestWorker_ProcessesQueuedProfiles(t *testing.T) {
	q := NewQueue(8)
	ens := &recordingEnsurer{done: make(chan string, 8)}
	w := NewWorker(q, ens, 2)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()

	require.NoError(t, q.Submit("p-1"))
	require.NoError(t, q.Submit("p-2"))

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case id := <-ens.done:
			got[id] = true
		case <-time.After(time.Second):
			t.Fatal("worker did not pick up the profile")
		}
	}
	assert.Equal(t, map[string]bool{"p-1": true, "p-2": true}, got)
	assert.Equal(t, 0, q.Len())

	// resubmission after processing is accepted again
	require.NoError(t, q.Submit("p-1"))
	select {
	case id := <-ens.done:
		assert.Equal(t, "p-1", id)
	case <-time.After(time.Second):
		t.Fatal("worker did not pick up the resubmitted profile")
	}

	cancel()
	assert.True(t, errors.Is(<-errc, context.Canceled))
}

func TestQueue_Take(t *testing.T) {
	q := NewQueue(4)
	require.NoError(t, q.Submit("a"))

	id, ok := q.Take(context.Background())
	require.True(t, ok)
	assert.Equal(t, "a", id)
	assert.Equal(t, 0, q.Len())

	// taken ids may be queued again
	require.NoError(t, q.Submit("a"))
	assert.Equal(t, 1, q.Len())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _ = q.Take(context.Background())
	_, ok = q.Take(ctx)
	assert.False(t, ok)
}
