// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package parallel runs full-screen shading work across goroutines.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// minBandRows keeps bands large enough that scheduling stays cheap
// relative to shading.
const minBandRows = 4

// Pool is a fixed set of workers shading horizontal bands of a frame.
//
// Each worker owns a queue and steals from its siblings when the queue runs
// dry, which evens out bands whose pixels cost more (ray-marched geometry
// next to cheap background).
//
// Pool is safe for concurrent use, but a single Bands call blocks until its
// whole frame is shaded.
type Pool struct {
	workers int
	queues  []chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewPool starts a pool. If workers is 0 or negative, GOMAXPROCS is used.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range p.queues {
		p.queues[i] = make(chan func(), max(8, workers*4))
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.loop(i)
	}
	return p
}

func (p *Pool) loop(id int) {
	defer p.wg.Done()
	own := p.queues[id]

	for {
		select {
		case fn := <-own:
			fn()
			continue
		case <-p.done:
			p.drain(own)
			return
		default:
		}

		if fn := p.steal(id); fn != nil {
			fn()
			continue
		}

		select {
		case fn := <-own:
			fn()
		case <-p.done:
			p.drain(own)
			return
		}
	}
}

func (p *Pool) drain(q chan func()) {
	for {
		select {
		case fn := <-q:
			fn()
		default:
			return
		}
	}
}

func (p *Pool) steal(id int) func() {
	for i := 1; i < p.workers; i++ {
		select {
		case fn := <-p.queues[(id+i)%p.workers]:
			return fn
		default:
		}
	}
	return nil
}

// Bands splits rows [0, height) into contiguous bands and calls fn once per
// band with the half-open row range. It returns after every band is done.
//
// A closed pool shades the frame on the calling goroutine.
func (p *Pool) Bands(height int, fn func(y0, y1 int)) {
	if height <= 0 {
		return
	}
	if !p.running.Load() || p.workers == 1 || height <= minBandRows {
		fn(0, height)
		return
	}

	rows := max(minBandRows, (height+p.workers*2-1)/(p.workers*2))

	var wg sync.WaitGroup
	for i, y := 0, 0; y < height; i, y = i+1, y+rows {
		y0, y1 := y, min(y+rows, height)
		wg.Add(1)
		task := func() {
			defer wg.Done()
			fn(y0, y1)
		}
		select {
		case p.queues[i%p.workers] <- task:
		case <-p.done:
			task()
		}
	}

	// Workers that stopped before a send landed never see that band.
	select {
	case <-p.done:
		for _, q := range p.queues {
			p.drain(q)
		}
	default:
	}
	wg.Wait()
}

// Workers returns the number of workers.
func (p *Pool) Workers() int {
	return p.workers
}

// Close stops the workers after queued bands finish. It is safe to call
// more than once.
func (p *Pool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}
