package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcJob struct {
	name string
	run  func(context.Context) error
}

func (j funcJob) Name() string                  { return j.name }
func (j funcJob) Run(ctx context.Context) error { return j.run(ctx) }

func TestPool_RunsJobs(t *testing.T) {
	p := NewPool(2, 8)
	p.Start(context.Background())
	defer p.Stop()

	var wg sync.WaitGroup
	var mu sync.Mutex
	ran := 0
	for i := 0; i < 5; i++ {
		wg.Add(1)
		require.NoError(t, p.Submit(funcJob{name: "count", run: func(context.Context) error {
			defer wg.Done()
			mu.Lock()
			ran++
			mu.Unlock()
			return nil
		}}))
	}
	wg.Wait()
	assert.Equal(t, 5, ran)
}

func TestPool_SubmitQueueFull(t *testing.T) {
	p := NewPool(1, 1)
	// not started, so nothing drains the queue
	noop := funcJob{name: "noop", run: func(context.Context) error { return nil }}

	require.NoError(t, p.Submit(noop))
	assert.ErrorIs(t, p.Submit(noop), ErrQueueFull)
	assert.Equal(t, 1, p.QueueSize())
}

func TestPool_SubmitAfterStop(t *testing.T) {
	p := NewPool(1, 1)
	p.Start(context.Background())
	p.Stop()
	p.Stop()

	err := p.Submit(funcJob{name: "late", run: func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, ErrPoolStopped)
}

func TestPool_StopCancelsRunningJobs(t *testing.T) {
	p := NewPool(1, 1)
	p.Start(context.Background())

	started := make(chan struct{})
	require.NoError(t, p.Submit(funcJob{name: "block", run: func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}}))
	<-started

	done := make(chan struct{})
	go func() {
		p.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}

type abandonJob struct {
	funcJob
	abandoned chan error
}

func (j abandonJob) Abandon(err error) { j.abandoned <- err }

func TestPool_StopAbandonsQueuedJobs(t *testing.T) {
	p := NewPool(1, 4)
	p.Start(context.Background())

	started := make(chan struct{})
	require.NoError(t, p.Submit(funcJob{name: "block", run: func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}}))
	<-started

	abandoned := make(chan error, 2)
	ran := make(chan struct{}, 2)
	for i := 0; i < 2; i++ {
		require.NoError(t, p.Submit(abandonJob{
			funcJob: funcJob{name: "queued", run: func(context.Context) error {
				ran <- struct{}{}
				return nil
			}},
			abandoned: abandoned,
		}))
	}

	assert.Equal(t, 2, p.Stop())
	assert.Equal(t, 0, p.Stop())
	require.Len(t, abandoned, 2)
	assert.ErrorIs(t, <-abandoned, ErrPoolStopped)
	assert.ErrorIs(t, <-abandoned, ErrPoolStopped)
	assert.Empty(t, ran)
}

func TestPool_StopWithoutStartDropsQueue(t *testing.T) {
	p := NewPool(1, 2)
	noop := funcJob{name: "noop", run: func(context.Context) error { return nil }}
	require.NoError(t, p.Submit(noop))

	assert.Equal(t, 1, p.Stop())
}
