package appctx

import (
	"context"
	"sync"

	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	"github.com/auroradev/aurora-cli/pkg/selector"
	"golang.org/x/sync/semaphore"
)

// Pool runs blocking session work on at most n goroutines at a time.
type Pool struct {
	sem *semaphore.Weighted
}

func NewPool(n int) *Pool {
	if n < 1 {
		n = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(n))}
}

// Do runs fn on the pool and waits for it. If ctx ends first Do returns
// ctx.Err() and fn keeps running to completion in the background.
func (p *Pool) Do(ctx context.Context, fn func()) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return breverrors.WrapAndTrace(err)
	}
	done := make(chan struct{})
	go func() {
		defer p.sem.Release(1)
		defer close(done)
		fn()
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return breverrors.WrapAndTrace(ctx.Err())
	}
}

// Submit is Do for functions with a result.
func Submit[T any](ctx context.Context, p *Pool, fn func() (T, error)) (T, error) {
	var (
		out T
		err error
	)
	if poolErr := p.Do(ctx, func() { out, err = fn() }); poolErr != nil {
		var zero T
		return zero, poolErr
	}
	return out, err
}

// Leases serialises commands per target so two commands never drive the
// same device or emulator at once.
type Leases struct {
	enabled bool
	mu      sync.Mutex
	held    map[selector.ID]chan struct{}
}

func NewLeases(enabled bool) *Leases {
	return &Leases{enabled: enabled, held: map[selector.ID]chan struct{}{}}
}

// Acquire blocks until id is free or ctx ends. The returned release func
// must be called exactly once.
func (l *Leases) Acquire(ctx context.Context, id selector.ID) (func(), error) {
	if !l.enabled {
		return func() {}, nil
	}
	for {
		l.mu.Lock()
		busy, taken := l.held[id]
		if !taken {
			mine := make(chan struct{})
			l.held[id] = mine
			l.mu.Unlock()
			return func() {
				l.mu.Lock()
				delete(l.held, id)
				l.mu.Unlock()
				close(mine)
			}, nil
		}
		l.mu.Unlock()
		select {
		case <-busy:
		case <-ctx.Done():
			return nil, breverrors.WrapAndTrace(ctx.Err())
		}
	}
}
