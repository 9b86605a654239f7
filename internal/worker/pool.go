package worker

import (
	"context"
	"sync"
)

// Job is one unit of chain-building work
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is what a job hands back to the pool
type Result interface {
	GetError() error
}

// Pool runs a fixed set of jobs on a bounded number of goroutines
type Pool struct {
	workers int
	ctx     context.Context
	cancel  context.CancelFunc
	queue   chan Job
	results chan Result
	wg      sync.WaitGroup
}

// NewPool creates a pool detached from any caller context
func NewPool(workers int) *Pool {
	return NewPoolContext(context.Background(), workers)
}

// NewPoolContext creates a pool whose workers stop when parent is cancelled
func NewPoolContext(parent context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(parent)
	return &Pool{
		workers: workers,
		ctx:     ctx,
		cancel:  cancel,
		queue:   make(chan Job, workers*2),
		results: make(chan Result, workers*2),
	}
}

// Workers returns the goroutine bound
func (p *Pool) Workers() int {
	return p.workers
}

// Run executes jobs and returns their results in completion order. It feeds
// the queue while draining results, so any number of jobs fits the bounded
// buffers. When the context ends, jobs not yet started are dropped and the
// returned slice is shorter than jobs. A pool is single use.
func (p *Pool) Run(jobs []Job) []Result {
	defer p.cancel()

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.work()
	}

	go func() {
		defer close(p.queue)
		for _, job := range jobs {
			select {
			case <-p.ctx.Done():
				return
			case p.queue <- job:
			}
		}
	}()

	go func() {
		p.wg.Wait()
		close(p.results)
	}()

	results := make([]Result, 0, len(jobs))
	for r := range p.results {
		results = append(results, r)
	}
	return results
}

func (p *Pool) work() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.queue:
			if !ok {
				return
			}
			r := job.Execute(p.ctx)
			select {
			case p.results <- r:
			case <-p.ctx.Done():
				return
			}
		}
	}
}
