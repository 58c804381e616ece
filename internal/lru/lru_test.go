// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lru

import (
	"slices"
	"testing"
)

func TestPutEvictsOldest(t *testing.T) {
	var evicted []string
	l := New[string, int](2, func(k string, _ int) { evicted = append(evicted, k) })

	l.Put("a", 1)
	l.Put("b", 2)
	if _, ok := l.Get("a"); !ok {
		t.Fatal("a missing")
	}
	l.Put("c", 3)

	if !slices.Equal(evicted, []string{"b"}) {
		t.Errorf("evicted %v, want [b]", evicted)
	}
	if got := l.Keys(); !slices.Equal(got, []string{"c", "a"}) {
		t.Errorf("Keys = %v, want [c a]", got)
	}
}

func TestReplaceDoesNotEvict(t *testing.T) {
	calls := 0
	l := New[int, string](1, func(int, string) { calls++ })
	l.Put(1, "x")
	l.Put(1, "y")

	if v, _ := l.Get(1); v != "y" {
		t.Errorf("Get = %q, want y", v)
	}
	if calls != 0 || l.Len() != 1 {
		t.Errorf("calls = %d, len = %d", calls, l.Len())
	}
}

func TestUnbounded(t *testing.T) {
	l := New[int, int](0, nil)
	for i := range 100 {
		l.Put(i, i)
	}
	if l.Len() != 100 {
		t.Errorf("Len = %d, want 100", l.Len())
	}
}

func TestDeleteAndPurge(t *testing.T) {
	var evicted []int
	l := New[int, int](0, func(k, _ int) { evicted = append(evicted, k) })
	for i := range 4 {
		l.Put(i, i)
	}

	if !l.Delete(2) || l.Delete(2) {
		t.Error("Delete should succeed once")
	}
	l.Purge()

	if !slices.Equal(evicted, []int{0, 1, 3}) {
		t.Errorf("purged %v, want oldest first [0 1 3]", evicted)
	}
	if l.Len() != 0 || len(l.Keys()) != 0 {
		t.Error("list not empty after Purge")
	}
}

func TestStats(t *testing.T) {
	l := New[string, int](1, nil)
	l.Put("a", 1)
	l.Get("a")
	l.Get("b")
	l.Put("b", 2)

	st := l.Stats()
	if st.Hits != 1 || st.Misses != 1 || st.Evictions != 1 {
		t.Errorf("stats = %+v", st)
	}
	if st.HitRate() != 0.5 {
		t.Errorf("HitRate = %v, want 0.5", st.HitRate())
	}
}
