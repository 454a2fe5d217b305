package odds

import (
	"context"
	"sync"
	"time"

	"github.com/meir-san/ultimateholdem/internal/market"
)

// Result is the answer to one asynchronous request. Key echoes the
// request key so the caller can drop answers for a state it has left.
type Result struct {
	Key     uint64
	Odds    market.Odds
	Err     error
	Elapsed time.Duration
}

// Async runs a Computer off the caller's goroutine
type Async struct {
	computer Computer
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewAsync wraps computer. Close cancels every request still in flight.
func NewAsync(computer Computer) *Async {
	ctx, cancel := context.WithCancel(context.Background())
	return &Async{computer: computer, ctx: ctx, cancel: cancel}
}

// Submit starts computing req and returns a channel that receives exactly
// one Result. Cancelling ctx or closing the Async abandons the work.
func (a *Async) Submit(ctx context.Context, req Request) <-chan Result {
	out := make(chan Result, 1)
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(a.ctx, cancel)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer stop()
		defer cancel()

		start := time.Now()
		odds, err := a.computer.Compute(ctx, req)
		out <- Result{Key: req.Key, Odds: odds, Err: err, Elapsed: time.Since(start)}
	}()
	return out
}

// Close cancels outstanding work and waits for it to finish
func (a *Async) Close() {
	a.cancel()
	a.wg.Wait()
}
