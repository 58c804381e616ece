// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halton

import "testing"

func TestRadical(t *testing.T) {
	tests := []struct {
		index, base int
		want        float64
	}{
		{0, 2, 0},
		{1, 2, 0.5},
		{2, 2, 0.25},
		{3, 2, 0.75},
		{1, 3, 1.0 / 3},
		{2, 3, 2.0 / 3},
		{3, 3, 1.0 / 9},
	}

	for _, tt := range tests {
		got := Radical(tt.index, tt.base)
		if diff := got - tt.want; diff > 1e-12 || diff < -1e-12 {
			t.Errorf("Radical(%d, %d) = %v, want %v", tt.index, tt.base, got, tt.want)
		}
	}
}

func TestGenerateDistinctAndBounded(t *testing.T) {
	pts := Generate(DefaultCount)
	if len(pts) != DefaultCount {
		t.Fatalf("len = %d, want %d", len(pts), DefaultCount)
	}

	seen := make(map[Point]bool)
	var negX, posX, negY, posY bool
	for i, p := range pts {
		if seen[p] {
			t.Errorf("point %d %v repeated", i, p)
		}
		seen[p] = true

		if p.X <= -0.5 || p.X > 0.5 || p.Y <= -0.5 || p.Y > 0.5 {
			t.Errorf("point %d %v outside (-0.5, 0.5]", i, p)
		}
		negX = negX || p.X < 0
		posX = posX || p.X > 0
		negY = negY || p.Y < 0
		posY = posY || p.Y > 0
	}

	if !negX || !posX || !negY || !posY {
		t.Errorf("points do not span both axes: negX=%v posX=%v negY=%v posY=%v", negX, posX, negY, posY)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a := Generate(DefaultCount)
	b := Generate(DefaultCount)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("point %d differs between calls: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestPointsRestartable(t *testing.T) {
	seq := Points(4)

	var first, second []Point
	for p := range seq {
		first = append(first, p)
	}
	for p := range seq {
		second = append(second, p)
	}

	if len(first) != 4 || len(second) != 4 {
		t.Fatalf("lengths = %d, %d, want 4, 4", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("restart point %d = %v, want %v", i, second[i], first[i])
		}
	}
}

func TestPointsEarlyStop(t *testing.T) {
	n := 0
	for range Points(DefaultCount) {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Errorf("consumed %d points, want 3", n)
	}
}

func TestGenerateNonPositive(t *testing.T) {
	for _, count := range []int{0, -1} {
		if got := Generate(count); len(got) != 0 {
			t.Errorf("Generate(%d) = %v, want empty", count, got)
		}
	}
}
