package appctx

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/auroradev/aurora-cli/pkg/selector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolBoundsConcurrency(t *testing.T) {
	p := NewPool(2)
	var running, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Do(context.Background(), func() {
				n := atomic.AddInt32(&running, 1)
				for {
					old := atomic.LoadInt32(&peak)
					if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt32(&running, -1)
			})
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, peak, int32(2))
}

func TestSubmitReturnsResult(t *testing.T) {
	p := NewPool(1)
	v, err := Submit(context.Background(), p, func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)

	boom := errors.New("boom")
	_, err = Submit(context.Background(), p, func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
}

func TestDoStopsWaitingOnCancel(t *testing.T) {
	p := NewPool(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	finished := make(chan struct{})
	err := p.Do(ctx, func() {
		time.Sleep(60 * time.Millisecond)
		close(finished)
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	<-finished
}

func TestLeasesSerialisePerTarget(t *testing.T) {
	l := NewLeases(true)
	id := selector.HashID("192.168.2.15")

	release, err := l.Acquire(context.Background(), id)
	require.NoError(t, err)

	// another target is not blocked
	other, err := l.Acquire(context.Background(), selector.HashID("192.168.2.16"))
	require.NoError(t, err)
	other()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, id)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	acquired := make(chan struct{})
	go func() {
		r, err := l.Acquire(context.Background(), id)
		if err == nil {
			r()
		}
		close(acquired)
	}()
	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lease was not handed over")
	}
}

func TestDisabledLeasesNeverBlock(t *testing.T) {
	l := NewLeases(false)
	id := selector.HashID("x")
	r1, err := l.Acquire(context.Background(), id)
	require.NoError(t, err)
	r2, err := l.Acquire(context.Background(), id)
	require.NoError(t, err)
	r1()
	r2()
}
