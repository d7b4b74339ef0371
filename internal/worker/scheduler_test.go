package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startPool(t *testing.T, pool *Pool) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go pool.Start(ctx, &wg)
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
	return cancel
}

func TestScheduler_SubmitsJobsOnEachTick(t *testing.T) {
	clock := clockwork.NewFakeClock()
	pool := NewPool(2, 8)
	startPool(t, pool)

	var runs atomic.Int32
	done := make(chan struct{}, 8)

	scheduler := NewScheduler("sweep", time.Minute, clock, pool)
	scheduler.AddJob(NamedJob{Name: "alert-sweep", Run: func(context.Context) error {
		runs.Add(1)
		done <- struct{}{}
		return nil
	}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go scheduler.Run(ctx)

	require.NoError(t, clock.BlockUntilContext(ctx, 1), "scheduler must be waiting on the ticker")

	clock.Advance(time.Minute)
	<-done
	clock.Advance(time.Minute)
	<-done

	assert.Equal(t, int32(2), runs.Load())
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	pool := NewPool(1, 1)
	startPool(t, pool)

	scheduler := NewScheduler("sweep", time.Minute, clock, pool)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		scheduler.Run(ctx)
		close(stopped)
	}()

	require.NoError(t, clock.BlockUntilContext(context.Background(), 1))
	cancel()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
}

func TestPool_ExecutesSubmittedJobs(t *testing.T) {
	pool := NewPool(4, 16)
	startPool(t, pool)

	var runs atomic.Int32
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		require.NoError(t, pool.Submit(context.Background(), func(context.Context) error {
			defer wg.Done()
			runs.Add(1)
			return nil
		}))
	}
	wg.Wait()

	assert.Equal(t, int32(10), runs.Load())
}

func TestPool_RejectsWhenQueueFull(t *testing.T) {
	// No workers started: everything queues.
	pool := NewPool(1, 1)

	require.NoError(t, pool.Submit(context.Background(), func(context.Context) error { return nil }))
	err := pool.Submit(context.Background(), func(context.Context) error { return nil })
	assert.ErrorContains(t, err, "queue full")
}

func TestPool_RecoversFromPanickingJob(t *testing.T) {
	pool := NewPool(1, 4)
	startPool(t, pool)

	done := make(chan struct{})
	require.NoError(t, pool.Submit(context.Background(), func(context.Context) error {
		panic("boom")
	}))
	require.NoError(t, pool.Submit(context.Background(), func(context.Context) error {
		close(done)
		return nil
	}))

	select {
	case <-done:
		// The worker survived the panic and ran the next job.
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive the panic")
	}
}

func TestPool_SubmitFailsAfterCancel(t *testing.T) {
	pool := NewPool(1, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pool.Submit(ctx, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPool_RejectsSubmitAfterShutdown(t *testing.T) {
	pool := NewPool(1, 4)
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go pool.Start(ctx, &wg)

	cancel()
	wg.Wait()

	err := pool.Submit(context.Background(), func(context.Context) error { return nil })
	assert.ErrorContains(t, err, "pool closed")
}

func TestPool_DrainsQueuedJobsOnShutdown(t *testing.T) {
	pool := NewPool(1, 4)
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go pool.Start(ctx, &wg)

	gate := make(chan struct{})
	var runs atomic.Int32

	// The single worker blocks on the gate while two more jobs queue up.
	require.NoError(t, pool.Submit(ctx, func(context.Context) error {
		<-gate
		return nil
	}))
	require.NoError(t, pool.Submit(ctx, func(context.Context) error {
		runs.Add(1)
		return nil
	}))
	require.NoError(t, pool.Submit(ctx, func(context.Context) error {
		runs.Add(1)
		return nil
	}))

	cancel()
	close(gate)
	wg.Wait()

	assert.Equal(t, int32(2), runs.Load(), "jobs queued before shutdown must still run")
}
