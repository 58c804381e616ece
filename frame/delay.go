// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package frame

import "sync"

// Delay is a task that runs after a number of frame callbacks.
//
// Each frame re-requests itself on the queue until the count is exhausted,
// so at most one callback is pending at any time and Cancel only has to
// withdraw that one.
type Delay struct {
	mu      sync.Mutex
	queue   Queue
	fn      func()
	left    int
	id      ID
	pending bool
}

// After schedules fn to run once frames callbacks of q have fired.
// A non-positive frame count runs fn immediately.
func After(q Queue, frames int, fn func()) *Delay {
	d := &Delay{queue: q, fn: fn, left: frames}
	if frames <= 0 {
		fn()
		return d
	}

	d.mu.Lock()
	d.pending = true
	d.id = q.Request(d.step)
	d.mu.Unlock()
	return d
}

func (d *Delay) step() {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return
	}

	d.left--
	if d.left > 0 {
		d.id = d.queue.Request(d.step)
		d.mu.Unlock()
		return
	}

	d.pending = false
	d.id = 0
	fn := d.fn
	d.mu.Unlock()

	fn()
}

// Cancel withdraws the task if it has not fired. Cancel is idempotent and
// safe to call on a nil Delay.
func (d *Delay) Cancel() {
	if d == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.pending {
		return
	}
	d.queue.Cancel(d.id)
	d.pending = false
	d.id = 0
}

// Pending reports whether the task is still waiting to fire.
func (d *Delay) Pending() bool {
	if d == nil {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}
