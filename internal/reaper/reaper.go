// Package reaper runs the periodic sweep that deactivates expired seat
// holds.  The sweep is maintenance, not correctness: the inventory view
// and the conflict checks ignore expired holds on their own, so the
// reaper's job is to keep the active-hold set small and make reclaimed
// capacity visible promptly.
package reaper

import (
	"context"
	"log"
	"time"
)

// Store is the single bulk operation the reaper needs.
type Store interface {
	DeactivateExpired(ctx context.Context) (int64, error)
}

// Reaper owns the sweep ticker.  It is started at boot and stopped during
// shutdown by the process lifecycle in main.
type Reaper struct {
	store    Store
	interval time.Duration
	done     chan struct{}
	stopped  chan struct{}
}

// New constructs a Reaper sweeping at the given interval.
func New(store Store, interval time.Duration) *Reaper {
	if store == nil || interval <= 0 {
		panic("invalid dependency passed to reaper.New")
	}
	return &Reaper{
		store:    store,
		interval: interval,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start launches the sweep loop in its own goroutine.  The loop ends when
// Stop is called or the context is cancelled.
func (r *Reaper) Start(ctx context.Context) {
	go func() {
		defer close(r.stopped)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.sweep(ctx)
			case <-ctx.Done():
				return
			case <-r.done:
				return
			}
		}
	}()
}

// Stop ends the sweep loop and waits for it to exit.  Stopping a reaper
// that never started returns immediately.
func (r *Reaper) Stop() {
	select {
	case <-r.done:
	default:
		close(r.done)
	}
	<-r.stopped
}

func (r *Reaper) sweep(ctx context.Context) {
	n, err := r.store.DeactivateExpired(ctx)
	if err != nil {
		log.Printf("reaper: sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("reaper: deactivated %d expired seat holds", n)
	}
}
