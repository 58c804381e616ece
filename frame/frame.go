// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package frame models the host's per-display-frame callback queue and a
// cancellable task that fires a fixed number of frames later.
//
// The effect uses it to release shared lighting flags only once the frames
// already queued on the GPU have been presented.
package frame

import "sync"

// ID identifies a pending frame callback. The zero ID is never issued.
type ID uint64

// Queue is the host's frame-callback queue, the equivalent of
// requestAnimationFrame/cancelAnimationFrame.
type Queue interface {
	// Request schedules fn to run on the next frame.
	Request(fn func()) ID

	// Cancel removes a pending callback. Unknown or already-run IDs are
	// ignored.
	Cancel(id ID)
}

type entry struct {
	id ID
	fn func()
}

// Loop is a Queue driven by explicit Tick calls, one per displayed frame.
//
// Loop is safe for concurrent use. Callbacks run without the lock held, so
// they may request or cancel further callbacks.
type Loop struct {
	mu      sync.Mutex
	next    ID
	pending []entry
}

// NewLoop creates an empty frame loop.
func NewLoop() *Loop {
	return &Loop{}
}

// Request schedules fn for the next Tick.
func (l *Loop) Request(fn func()) ID {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.next++
	l.pending = append(l.pending, entry{id: l.next, fn: fn})
	return l.next
}

// Cancel removes the callback with the given id if it has not run yet.
func (l *Loop) Cancel(id ID) {
	if id == 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for i, e := range l.pending {
		if e.id == id {
			l.pending = append(l.pending[:i], l.pending[i+1:]...)
			return
		}
	}
}

// Tick runs every callback that was pending when Tick was called.
// Callbacks requested while ticking run on the following Tick.
// Returns the number of callbacks run.
func (l *Loop) Tick() int {
	l.mu.Lock()
	batch := l.pending
	l.pending = nil
	l.mu.Unlock()

	for _, e := range batch {
		if e.fn != nil {
			e.fn()
		}
	}
	return len(batch)
}

// Pending returns the number of callbacks waiting for the next Tick.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Ensure Loop implements Queue.
var _ Queue = (*Loop)(nil)
