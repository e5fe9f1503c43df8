// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cluster

import (
	"errors"
	"sync"
)

var errPoolStopped = errors.New("cluster: worker pool stopped")

// pool runs cluster jobs on a fixed set of worker goroutines.
type pool struct {
	jobs chan func()
	wg   sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

func newPool(workers, queueSize int) *pool {
	p := &pool{jobs: make(chan func(), queueSize)}
	for range workers {
		p.wg.Go(p.worker)
	}
	return p
}

func (p *pool) worker() {
	for job := range p.jobs {
		job()
	}
}

// submit queues job, blocking while the queue is full.
func (p *pool) submit(job func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return errPoolStopped
	}
	p.jobs <- job
	return nil
}

// stop rejects new jobs and waits for queued ones to finish.
func (p *pool) stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}
