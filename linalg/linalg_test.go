// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package linalg

import (
	"math"
	"testing"
)

const eps = 1e-4

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < eps
}

func TestVec3Ops(t *testing.T) {
	a := XYZ(1, 2, 3)
	b := XYZ(4, 5, 6)

	if got := a.Dot(b); got != 32 {
		t.Errorf("Dot = %v, want 32", got)
	}
	if got := a.Cross(b); got != XYZ(-3, 6, -3) {
		t.Errorf("Cross = %v, want (-3, 6, -3)", got)
	}
	if got := XYZ(3, 4, 0).Len(); got != 5 {
		t.Errorf("Len = %v, want 5", got)
	}
	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Errorf("Normalize(zero) = %v, want zero", got)
	}
	if got := XYZ(1, -1, 0).Reflect(XYZ(0, 1, 0)); got != XYZ(1, 1, 0) {
		t.Errorf("Reflect = %v, want (1, 1, 0)", got)
	}
}

func TestMat4Inverse(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
	}{
		{"identity", Ident4()},
		{"translation", Translate4(XYZ(1, -2, 3))},
		{"perspective", Perspective(60, 1.5, 0.1, 100)},
		{"rotation", QuatFromAxisAngle(XYZ(0, 1, 0), 0.7).Mat4()},
		{"composed", Compose(XYZ(2, 1, 5), QuatFromAxisAngle(XYZ(1, 1, 0), 1.1))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.m.Mul(tt.m.Inverse())
			want := Ident4()
			for i := range got {
				if !approx(got[i], want[i]) {
					t.Fatalf("m * m^-1 [%d] = %v, want %v", i, got[i], want[i])
				}
			}
		})
	}
}

func TestMat4SingularInverse(t *testing.T) {
	if got := (Mat4{}).Inverse(); got != (Mat4{}) {
		t.Errorf("Inverse(zero) = %v, want zero matrix", got)
	}
}

func TestPerspectiveDepthRange(t *testing.T) {
	p := Perspective(90, 1, 1, 10)

	near := p.TransformPoint(XYZ(0, 0, -1))
	far := p.TransformPoint(XYZ(0, 0, -10))

	if !approx(near[2], -1) {
		t.Errorf("near plane ndc z = %v, want -1", near[2])
	}
	if !approx(far[2], 1) {
		t.Errorf("far plane ndc z = %v, want 1", far[2])
	}
}

func TestQuatRotate(t *testing.T) {
	q := QuatFromAxisAngle(XYZ(0, 0, 1), math.Pi/2)
	got := q.Rotate(XYZ(1, 0, 0))
	if !approx(got[0], 0) || !approx(got[1], 1) || !approx(got[2], 0) {
		t.Errorf("Rotate = %v, want (0, 1, 0)", got)
	}

	viaMatrix := q.Mat4().TransformDir(XYZ(1, 0, 0))
	for i := range got {
		if !approx(got[i], viaMatrix[i]) {
			t.Errorf("Mat4 rotation [%d] = %v, quaternion rotation = %v", i, viaMatrix[i], got[i])
		}
	}
}

func TestQuatDot(t *testing.T) {
	q := QuatFromAxisAngle(XYZ(0, 1, 0), 0.3)
	if got := q.Dot(q); !approx(got, 1) {
		t.Errorf("q.Dot(q) = %v, want 1", got)
	}
	if got := QuatIdent().Normalize(); got != QuatIdent() {
		t.Errorf("Normalize(identity) = %v", got)
	}
	if got := (Quat{}).Normalize(); got != QuatIdent() {
		t.Errorf("Normalize(zero) = %v, want identity", got)
	}
}

func TestQuatLookAt(t *testing.T) {
	tests := []struct {
		name   string
		eye    Vec3
		target Vec3
	}{
		{"forward", Vec3{0, 0, 5}, Vec3{0, 0, 0}},
		{"side", Vec3{3, 1, 0}, Vec3{0, 1, 0}},
		{"behind", Vec3{0, 0, -4}, Vec3{0, 0, 0}},
		{"diagonal", Vec3{2, 3, 4}, Vec3{-1, 0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := QuatLookAt(tt.eye, tt.target, Vec3{0, 1, 0})
			got := q.Rotate(Vec3{0, 0, -1})
			want := tt.target.Sub(tt.eye).Normalize()
			for i := range got {
				if !approx(got[i], want[i]) {
					t.Fatalf("forward = %v, want %v", got, want)
				}
			}
			if !approx(q.Len(), 1) {
				t.Errorf("|q| = %v, want 1", q.Len())
			}
		})
	}
}
