package utils

import (
	"context"
	"sync"
	"time"
)

// WorkerPool runs jobs on a bounded number of goroutines and spaces out
// job starts by at least minInterval.
type WorkerPool struct {
	minInterval time.Duration
	semaphore   chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
	lastStart   time.Time
}

// NewWorkerPool creates a WorkerPool with the given concurrency and start interval.
func NewWorkerPool(maxWorkers int, minInterval time.Duration) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerPool{
		minInterval: minInterval,
		semaphore:   make(chan struct{}, maxWorkers),
	}
}

// Submit waits for a free slot and runs job in its own goroutine.
// It returns ctx.Err() without running job if ctx ends first.
func (wp *WorkerPool) Submit(ctx context.Context, job func(ctx context.Context)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case wp.semaphore <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	wp.wg.Add(1)
	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.semaphore }()

		if err := wp.waitTurn(ctx); err != nil {
			return
		}
		job(ctx)
	}()
	return nil
}

// Wait blocks until all submitted jobs have completed.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

func (wp *WorkerPool) waitTurn(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wait := wp.minInterval - time.Since(wp.lastStart); wait > 0 && !wp.lastStart.IsZero() {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	wp.lastStart = time.Now()
	return nil
}

// KeySet is a thread-safe set of strings.
type KeySet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewKeySet creates an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{seen: make(map[string]struct{})}
}

// Add returns true if key was newly added, false if already present.
func (s *KeySet) Add(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[key]; exists {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}
