package reaper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type countingStore struct {
	mu     sync.Mutex
	sweeps int
	ret    int64
	err    error
}

func (s *countingStore) DeactivateExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweeps++
	return s.ret, s.err
}

func (s *countingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweeps
}

func TestReaperSweeps(t *testing.T) {
	t.Parallel()

	store := &countingStore{ret: 2}
	r := New(store, 5*time.Millisecond)
	r.Start(context.Background())

	deadline := time.After(2 * time.Second)
	for store.count() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 sweeps, got %d", store.count())
		case <-time.After(time.Millisecond):
		}
	}
	r.Stop()

	after := store.count()
	time.Sleep(20 * time.Millisecond)
	if store.count() != after {
		t.Fatalf("sweeps continued after Stop: %d -> %d", after, store.count())
	}
}

func TestReaperStopIsIdempotent(t *testing.T) {
	t.Parallel()

	r := New(&countingStore{}, time.Hour)
	r.Start(context.Background())
	r.Stop()
	r.Stop()
}

func TestReaperSurvivesStoreErrors(t *testing.T) {
	t.Parallel()

	store := &countingStore{err: errors.New("store offline")}
	r := New(store, 5*time.Millisecond)
	r.Start(context.Background())
	defer r.Stop()

	deadline := time.After(2 * time.Second)
	for store.count() < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected sweeps to continue past errors, got %d", store.count())
		case <-time.After(time.Millisecond):
		}
	}
}

func TestReaperStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	r := New(&countingStore{}, time.Hour)
	r.Start(ctx)
	cancel()

	select {
	case <-r.stopped:
	case <-time.After(time.Second):
		t.Fatal("reaper did not exit after context cancellation")
	}
}
