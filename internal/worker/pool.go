// Package worker provides the fixed-size, rank-addressed worker pool and the
// collective barrier used to synchronize it.
package worker

import "sync"

// Fn runs one worker's share of a pass. The rank is stable for the lifetime
// of the pool and lies in [0, size).
type Fn func(rank int)

// Pool is a fixed-size pool of cooperating workers. There is no task queue
// and no work stealing: each worker derives its own job list from its rank.
type Pool struct {
	size int
	wg   sync.WaitGroup
}

func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{size: size}
}

func (p *Pool) Size() int {
	return p.size
}

// Run starts one goroutine per rank and blocks until every worker returns.
func (p *Pool) Run(fn Fn) {
	for rank := 0; rank < p.size; rank++ {
		rank := rank
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			fn(rank)
		}()
	}
	p.wg.Wait()
}
