package taskqueue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colin969/exodos-launcher/internal/errors"
)

// recorder collects side effects in the order they happen.
type recorder struct {
	mu    sync.Mutex
	order []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, s)
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

func TestEnqueue_SameKeyRunsInSubmissionOrder(t *testing.T) {
	q := New(nil)
	rec := &recorder{}

	sleepThen := func(name string, d time.Duration) func(context.Context) (string, error) {
		return func(context.Context) (string, error) {
			time.Sleep(d)
			rec.add(name)
			return name, nil
		}
	}

	// T2 would finish first on its own.
	f1 := Enqueue(q, "platform:MS-DOS", sleepThen("T1", 30*time.Millisecond))
	f2 := Enqueue(q, "platform:MS-DOS", sleepThen("T2", 0))
	f3 := Enqueue(q, "platform:MS-DOS", sleepThen("T3", 10*time.Millisecond))

	ctx := context.Background()
	for i, f := range []*Future[string]{f1, f2, f3} {
		v, err := f.Wait(ctx)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("T%d", i+1), v)
	}
	assert.Equal(t, []string{"T1", "T2", "T3"}, rec.get())
}

func TestEnqueue_SameKeyNeverOverlaps(t *testing.T) {
	q := New(nil)
	var (
		mu      sync.Mutex
		running int
		maxSeen int
	)

	futures := make([]*Future[struct{}], 0, 20)
	for range 20 {
		futures = append(futures, Do(q, "playlist:p1", func(context.Context) error {
			mu.Lock()
			running++
			maxSeen = max(maxSeen, running)
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			running--
			mu.Unlock()
			return nil
		}))
	}

	for _, f := range futures {
		_, err := f.Wait(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 1, maxSeen)
}

func TestEnqueue_DifferentKeysRunConcurrently(t *testing.T) {
	q := New(nil)
	release := make(chan struct{})

	blocked := Do(q, "platform:MS-DOS", func(context.Context) error {
		<-release
		return nil
	})
	other := Enqueue(q, "playlist:p1", func(context.Context) (int, error) {
		return 42, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	v, err := other.Wait(ctx)
	require.NoError(t, err, "a stalled key must not stall other keys")
	assert.Equal(t, 42, v)

	select {
	case <-blocked.Done():
		t.Fatal("blocked task finished early")
	default:
	}

	close(release)
	_, err = blocked.Wait(ctx)
	assert.NoError(t, err)
}

func TestEnqueue_FailureIsDeliveredOnlyToItsCaller(t *testing.T) {
	q := New(nil)
	rec := &recorder{}
	boom := errors.Internalf("disk full")

	f1 := Do(q, "k", func(context.Context) error { rec.add("T1"); return nil })
	f2 := Do(q, "k", func(context.Context) error { rec.add("T2"); return boom })
	f3 := Do(q, "k", func(context.Context) error { rec.add("T3"); return nil })

	ctx := context.Background()
	_, err := f1.Wait(ctx)
	assert.NoError(t, err)
	_, err = f2.Wait(ctx)
	assert.ErrorIs(t, err, boom)
	_, err = f3.Wait(ctx)
	assert.NoError(t, err)

	assert.Equal(t, []string{"T1", "T2", "T3"}, rec.get())
}

func TestEnqueue_PanicBecomesError(t *testing.T) {
	q := New(nil)

	f1 := Do(q, "k", func(context.Context) error { panic("bad xml") })
	f2 := Enqueue(q, "k", func(context.Context) (string, error) { return "after", nil })

	_, err := f1.Wait(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInternal))
	assert.Contains(t, err.Error(), "bad xml")

	v, err := f2.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "after", v)
}

func TestFuture_WaitCancelDoesNotCancelTask(t *testing.T) {
	q := New(nil)
	release := make(chan struct{})
	finished := make(chan struct{})

	f := Do(q, "k", func(ctx context.Context) error {
		<-release
		close(finished)
		return ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	<-finished
	_, err = f.Wait(context.Background())
	assert.NoError(t, err, "tasks get a context that is never cancelled")
}

func TestQueue_DrainAndBacklog(t *testing.T) {
	q := New(nil)
	release := make(chan struct{})

	Do(q, "k", func(context.Context) error { <-release; return nil })
	Do(q, "k", func(context.Context) error { return nil })

	Do(q, "other", func(context.Context) error { <-release; return nil })

	assert.Eventually(t, func() bool {
		return assert.ObjectsAreEqual(map[string]int{"k": 2, "other": 1}, q.Backlog())
	}, time.Second, time.Millisecond)

	short, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Drain(short), context.DeadlineExceeded)

	close(release)
	require.NoError(t, q.Drain(context.Background()))
	assert.Empty(t, q.Backlog())
}

func TestQueue_ShutdownRejectsNewTasks(t *testing.T) {
	q := New(nil)
	ran := make(chan struct{})
	Do(q, "k", func(context.Context) error { close(ran); return nil })

	require.NoError(t, q.Shutdown(context.Background()))
	<-ran

	_, err := Do(q, "k", func(context.Context) error { return nil }).Wait(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}
