// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ssgi

import "github.com/gogpu/ssgi/scene"

// Selection is the set of objects kept visible when the effect renders its
// own direct-lit buffer (Options.RenderScene).
type Selection struct {
	objects map[*scene.Object]struct{}
}

// NewSelection creates a selection holding objects.
func NewSelection(objects ...*scene.Object) *Selection {
	s := &Selection{objects: make(map[*scene.Object]struct{}, len(objects))}
	s.Add(objects...)
	return s
}

// Add inserts objects.
func (s *Selection) Add(objects ...*scene.Object) {
	for _, o := range objects {
		s.objects[o] = struct{}{}
	}
}

// Delete removes objects.
func (s *Selection) Delete(objects ...*scene.Object) {
	for _, o := range objects {
		delete(s.objects, o)
	}
}

// Has reports whether o is selected.
func (s *Selection) Has(o *scene.Object) bool {
	_, ok := s.objects[o]
	return ok
}

// Len returns the number of selected objects.
func (s *Selection) Len() int { return len(s.objects) }

// Clear empties the selection.
func (s *Selection) Clear() { clear(s.objects) }
