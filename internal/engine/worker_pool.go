package engine

import (
	"context"
	"sync"
)

// task is the unit of work dispatched to a worker.
type task[T, R any] struct {
	payload T
	reply   chan outcome[R]
}

type outcome[R any] struct {
	value R
	err   error
}

// workerPool is a fixed-size goroutine pool with a bounded input queue.
// Every submitted task gets a buffered reply channel, so a worker never
// blocks on a caller that gave up waiting.
type workerPool[T, R any] struct {
	queue   chan task[T, R]
	process func(ctx context.Context, t T) (R, error)
	wg      sync.WaitGroup

	closeOnce sync.Once
}

// newWorkerPool creates and starts a pool with n goroutines and queue capacity depth.
func newWorkerPool[T, R any](ctx context.Context, n, depth int, fn func(context.Context, T) (R, error)) *workerPool[T, R] {
	if n < 1 {
		n = 1
	}
	p := &workerPool[T, R]{
		queue:   make(chan task[T, R], depth),
		process: fn,
	}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run(ctx)
		}()
	}
	return p
}

func (p *workerPool[T, R]) run(ctx context.Context) {
	for {
		select {
		case t, ok := <-p.queue:
			if !ok {
				return
			}
			v, err := p.process(ctx, t.payload)
			t.reply <- outcome[R]{value: v, err: err}
		case <-ctx.Done():
			return
		}
	}
}

// Submit enqueues a task without blocking. It returns the channel the
// result will arrive on, or false if the queue is full.
func (p *workerPool[T, R]) Submit(payload T) (<-chan outcome[R], bool) {
	reply := make(chan outcome[R], 1)
	select {
	case p.queue <- task[T, R]{payload: payload, reply: reply}:
		return reply, true
	default:
		return nil, false
	}
}

// Drain closes the queue and waits for all workers to finish.
func (p *workerPool[T, R]) Drain() {
	p.closeOnce.Do(func() { close(p.queue) })
	p.wg.Wait()
}

// QueueLen returns how many tasks are currently queued.
func (p *workerPool[T, R]) QueueLen() int {
	return len(p.queue)
}

// QueueCap returns the total queue capacity.
func (p *workerPool[T, R]) QueueCap() int {
	return cap(p.queue)
}
