package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestStartRunsImmediatePass(t *testing.T) {
	done := make(chan struct{})
	var once sync.Once
	s := New(func(context.Context) {
		once.Do(func() { close(done) })
	}, 6, zerolog.Nop())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("immediate pass never ran")
	}
}

func TestStopWaitsForImmediatePass(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	finished := make(chan struct{})
	s := New(func(context.Context) {
		close(started)
		<-release
		close(finished)
	}, 6, zerolog.Nop())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatalf("immediate pass never started")
	}

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatalf("Stop returned while the pass was still running")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatalf("Stop never returned after the pass finished")
	}
	select {
	case <-finished:
	default:
		t.Fatalf("Stop returned before the pass finished")
	}
}

func TestOverlappingPassIsSkipped(t *testing.T) {
	block := make(chan struct{})
	var (
		mu    sync.Mutex
		count int
	)
	s := New(func(context.Context) {
		mu.Lock()
		count++
		mu.Unlock()
		<-block
	}, 6, zerolog.Nop())

	ctx := context.Background()
	go s.runPass(ctx)

	// Give the first pass time to take the slot, then tick again.
	time.Sleep(50 * time.Millisecond)
	s.runPass(ctx)

	mu.Lock()
	got := count
	mu.Unlock()
	if got != 1 {
		t.Fatalf("overlapping pass ran %d times, want 1", got)
	}
	close(block)
}

func TestCancelledContextSkipsPass(t *testing.T) {
	ran := false
	s := New(func(context.Context) { ran = true }, 6, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.runPass(ctx)

	if ran {
		t.Fatalf("pass must not run after cancellation")
	}
}
