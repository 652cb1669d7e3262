package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

type countingJob struct {
	calls    int
	deadline bool
	err      error
}

func (j *countingJob) Run(ctx context.Context) error {
	j.calls++
	_, j.deadline = ctx.Deadline()
	return j.err
}

// blockingJob waits until its context is done.
type blockingJob struct {
	started chan struct{}
	err     error
}

func (j *blockingJob) Run(ctx context.Context) error {
	close(j.started)
	<-ctx.Done()
	j.err = ctx.Err()
	return j.err
}

func TestRunAppliesTimeout(t *testing.T) {
	job := &countingJob{}
	New(context.Background(), "0 2 * * *", time.Minute, job).run()
	if job.calls != 1 || !job.deadline {
		t.Fatalf("expected one bounded run, got calls=%d deadline=%v", job.calls, job.deadline)
	}

	unbounded := &countingJob{err: errors.New("remote down")}
	New(context.Background(), "0 2 * * *", 0, unbounded).run()
	if unbounded.calls != 1 || unbounded.deadline {
		t.Fatalf("expected one unbounded run, got calls=%d deadline=%v", unbounded.calls, unbounded.deadline)
	}
}

func TestStartRejectsBadExpression(t *testing.T) {
	s := New(context.Background(), "not a cron", 0, &countingJob{})
	defer s.Stop()

	if err := s.Start(); err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}

func TestStartAndStop(t *testing.T) {
	s := New(context.Background(), "0 2 * * *", 0, &countingJob{})
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Stop()
}

func TestRunStopsWhenParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	job := &blockingJob{started: make(chan struct{})}
	s := New(ctx, "0 2 * * *", 0, job)

	done := make(chan struct{})
	go func() {
		s.run()
		close(done)
	}()

	<-job.started
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after the parent context was cancelled")
	}
	if !errors.Is(job.err, context.Canceled) {
		t.Fatalf("expected job to see context.Canceled, got %v", job.err)
	}
}

func TestRunSkippedAfterParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := &countingJob{}
	New(ctx, "0 2 * * *", 0, job).run()
	if job.calls != 0 {
		t.Fatalf("expected no run after cancellation, got %d", job.calls)
	}
}
