package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExpirer struct {
	mu      sync.Mutex
	calls   int
	result  int
	err     error
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeExpirer) ExpireDue(ctx context.Context) (int, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	return f.result, f.err
}

func (f *fakeExpirer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestRunOnce(t *testing.T) {
	exp := &fakeExpirer{result: 3}
	job := NewExpiryJob(exp)

	n, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 1, exp.callCount())
}

func TestRunOnceReturnsSweepError(t *testing.T) {
	dbErr := errors.New("db down")
	exp := &fakeExpirer{result: 2, err: dbErr}
	job := NewExpiryJob(exp)

	n, err := job.RunOnce(context.Background())
	require.ErrorIs(t, err, dbErr)
	assert.Equal(t, 2, n)
}

func TestRunOnceSkipsOverlap(t *testing.T) {
	exp := &fakeExpirer{result: 1, block: make(chan struct{}), entered: make(chan struct{})}
	job := NewExpiryJob(exp)

	done := make(chan int)
	go func() {
		n, _ := job.RunOnce(context.Background())
		done <- n
	}()
	<-exp.entered

	n, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	close(exp.block)
	assert.Equal(t, 1, <-done)
	assert.Equal(t, 1, exp.callCount())
}

func TestStartRejectsBadSchedule(t *testing.T) {
	job := NewExpiryJob(&fakeExpirer{})
	require.Error(t, job.Start(context.Background(), "not a schedule"))
}

func TestStartRunsOnSchedule(t *testing.T) {
	exp := &fakeExpirer{}
	job := NewExpiryJob(exp)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, job.Start(ctx, "@every 1s"))
	require.Eventually(t, func() bool { return exp.callCount() > 0 }, 3*time.Second, 50*time.Millisecond)
}
