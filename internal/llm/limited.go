package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
)

// Pool bounds the number of in-flight upstream calls and gives each one a
// single deadline. There are no retries.
type Pool struct {
	sem     *semaphore.Weighted
	timeout time.Duration
}

func NewPool(maxConcurrent int64, timeout time.Duration) *Pool {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Pool{sem: semaphore.NewWeighted(maxConcurrent), timeout: timeout}
}

// Do runs fn holding one slot of the pool under the pool's timeout.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("upstream pool: %w", err)
	}
	defer p.sem.Release(1)
	return fn(ctx)
}

// Limited routes every Generate call of the wrapped client through a Pool.
type Limited struct {
	next Client
	pool *Pool
}

func NewLimited(next Client, pool *Pool) *Limited {
	return &Limited{next: next, pool: pool}
}

func (l *Limited) Generate(ctx context.Context, messages []Message) (Response, error) {
	var resp Response
	err := l.pool.Do(ctx, func(ctx context.Context) error {
		var err error
		resp, err = l.next.Generate(ctx, messages)
		return err
	})
	return resp, err
}
