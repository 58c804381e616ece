// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package lru provides a bounded least-recently-used map with an eviction
// callback.
//
// A List is not safe for concurrent use; owners guard it with their own
// lock.
package lru

// node is an entry in the recency list. The head is the most recently used.
type node[K comparable, V any] struct {
	key        K
	value      V
	prev, next *node[K, V]
}

// Stats counts lookups and evictions.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRate returns hits / (hits + misses), or 0 without lookups.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// List maps keys to values and keeps at most Capacity of them. Inserting
// past capacity evicts the least recently used entry and passes it to the
// eviction callback.
type List[K comparable, V any] struct {
	capacity int
	onEvict  func(K, V)
	entries  map[K]*node[K, V]
	head     *node[K, V]
	tail     *node[K, V]
	stats    Stats
}

// New creates a list holding at most capacity entries. A capacity of 0
// means unbounded. onEvict may be nil.
func New[K comparable, V any](capacity int, onEvict func(K, V)) *List[K, V] {
	return &List[K, V]{
		capacity: max(0, capacity),
		onEvict:  onEvict,
		entries:  make(map[K]*node[K, V]),
	}
}

// Get returns the value for key and marks it most recently used.
func (l *List[K, V]) Get(key K) (V, bool) {
	n, ok := l.entries[key]
	if !ok {
		l.stats.Misses++
		var zero V
		return zero, false
	}
	l.stats.Hits++
	l.moveToFront(n)
	return n.value, true
}

// Put stores value under key as the most recently used entry, evicting the
// oldest entry when the list is full. Replacing a value does not call the
// eviction callback.
func (l *List[K, V]) Put(key K, value V) {
	if n, ok := l.entries[key]; ok {
		n.value = value
		l.moveToFront(n)
		return
	}

	n := &node[K, V]{key: key, value: value}
	l.entries[key] = n
	l.pushFront(n)

	if l.capacity > 0 && len(l.entries) > l.capacity {
		l.evict(l.tail)
	}
}

// Delete removes key without calling the eviction callback.
func (l *List[K, V]) Delete(key K) bool {
	n, ok := l.entries[key]
	if !ok {
		return false
	}
	l.unlink(n)
	delete(l.entries, key)
	return true
}

// Purge evicts every entry, oldest first.
func (l *List[K, V]) Purge() {
	for l.tail != nil {
		l.evict(l.tail)
	}
}

// Len returns the number of entries.
func (l *List[K, V]) Len() int { return len(l.entries) }

// Capacity returns the entry limit, 0 for unbounded.
func (l *List[K, V]) Capacity() int { return l.capacity }

// Stats returns the lookup and eviction counters.
func (l *List[K, V]) Stats() Stats { return l.stats }

// Keys returns the keys from most to least recently used.
func (l *List[K, V]) Keys() []K {
	keys := make([]K, 0, len(l.entries))
	for n := l.head; n != nil; n = n.next {
		keys = append(keys, n.key)
	}
	return keys
}

func (l *List[K, V]) evict(n *node[K, V]) {
	l.unlink(n)
	delete(l.entries, n.key)
	l.stats.Evictions++
	if l.onEvict != nil {
		l.onEvict(n.key, n.value)
	}
}

func (l *List[K, V]) pushFront(n *node[K, V]) {
	n.prev = nil
	n.next = l.head
	if l.head != nil {
		l.head.prev = n
	}
	l.head = n
	if l.tail == nil {
		l.tail = n
	}
}

func (l *List[K, V]) moveToFront(n *node[K, V]) {
	if n == l.head {
		return
	}
	l.unlink(n)
	l.pushFront(n)
}

func (l *List[K, V]) unlink(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next = nil, nil
}
