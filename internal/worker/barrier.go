package worker

import "sync"

// Barrier is a reusable collective barrier for a fixed pool size. Wait blocks
// until all participants have arrived, then releases the whole generation.
// Barrier waits are the only operations in the pipeline allowed to block
// indefinitely.
type Barrier struct {
	mu         sync.Mutex
	cond       *sync.Cond
	size       int
	arrived    int
	generation int
}

func NewBarrier(size int) *Barrier {
	if size < 1 {
		size = 1
	}
	b := &Barrier{size: size}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Wait blocks the caller until size participants have called Wait for the
// current generation.
func (b *Barrier) Wait() {
	b.mu.Lock()
	defer b.mu.Unlock()

	gen := b.generation
	b.arrived++
	if b.arrived == b.size {
		b.arrived = 0
		b.generation++
		b.cond.Broadcast()
		return
	}

	for gen == b.generation {
		b.cond.Wait()
	}
}
