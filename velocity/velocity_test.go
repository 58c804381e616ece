// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package velocity

import (
	"testing"

	"github.com/gogpu/ssgi/linalg"
	"github.com/gogpu/ssgi/render"
	"github.com/gogpu/ssgi/scene"
)

func testScene() (*scene.Scene, *scene.Camera, *scene.Object) {
	s := scene.New()
	floor := scene.NewObject("floor", scene.Plane{Width: 40, Depth: 40}, scene.Material{
		Albedo: linalg.Vec3{0.8, 0.8, 0.8}, Roughness: 0.5,
	})
	ball := scene.NewObject("ball", scene.Sphere{Radius: 1}, scene.Material{
		Albedo: linalg.Vec3{1, 0, 0}, Roughness: 0.2, Metalness: 0.5,
	})
	ball.Position = linalg.Vec3{0, 1, 0}
	s.Add(floor, ball)

	cam := scene.NewCamera(60, 1, 0.1, 100)
	cam.Position = linalg.Vec3{0, 3, 6}
	cam.LookAt(linalg.Vec3{0, 1, 0})
	return s, cam, ball
}

func newPass(t *testing.T, size int) (*Pass, *render.SoftwareDevice) {
	t.Helper()
	dev := render.NewSoftwareDevice(render.WithWorkers(2))
	t.Cleanup(dev.Close)
	s, cam, _ := testScene()
	p := NewPass(dev, s, cam)
	p.SetSize(size, size)
	return p, dev
}

func maxVelocity(tex *render.Texture) float32 {
	var m float32
	for _, v := range tex.Pix() {
		m = max(m, linalg.Abs(v[0]), linalg.Abs(v[1]))
	}
	return m
}

func TestStaticFrameHasZeroVelocity(t *testing.T) {
	p, dev := newPass(t, 24)

	for frame := range 2 {
		if err := p.Render(dev); err != nil {
			t.Fatalf("frame %d: %v", frame, err)
		}
		if got := maxVelocity(p.VelocityTexture()); got != 0 {
			t.Errorf("frame %d: max velocity = %v, want 0", frame, got)
		}
	}

	geometry := 0
	for i, d := range p.DepthTexture().Pix() {
		if d[1] == 0 {
			continue
		}
		geometry++
		if d[0] <= 0 {
			t.Fatalf("texel %d has non-positive depth %v", i, d[0])
		}
		if prev := p.VelocityTexture().Pix()[i][2]; prev != d[0] {
			t.Fatalf("texel %d: previous depth %v != depth %v", i, prev, d[0])
		}
	}
	if geometry == 0 {
		t.Fatal("no geometry rendered")
	}
}

func TestCameraMotionProducesVelocity(t *testing.T) {
	p, dev := newPass(t, 24)
	if err := p.Render(dev); err != nil {
		t.Fatal(err)
	}

	p.Camera.Position = p.Camera.Position.Add(linalg.Vec3{0.3, 0, 0})
	if err := p.Render(dev); err != nil {
		t.Fatal(err)
	}

	centre := p.VelocityTexture().At(12, 12)
	if centre[0] >= 0 {
		t.Errorf("moving right should shift content left, velocity.x = %v", centre[0])
	}
}

func TestObjectMotionIsLocal(t *testing.T) {
	p, dev := newPass(t, 32)
	var ball *scene.Object
	for _, o := range p.Scene.Objects {
		if o.Name == "ball" {
			ball = o
		}
	}

	if err := p.Render(dev); err != nil {
		t.Fatal(err)
	}
	ball.Position = ball.Position.Add(linalg.Vec3{0.2, 0, 0})
	if err := p.Render(dev); err != nil {
		t.Fatal(err)
	}

	moving, still := 0, 0
	for y := range 32 {
		for x := range 32 {
			u := (float32(x) + 0.5) / 32
			v := (float32(y) + 0.5) / 32
			origin, dir := p.Camera.Ray(u, v)
			hit, ok := p.Scene.Trace(origin, dir)
			vel := p.VelocityTexture().At(x, y)
			switch {
			case ok && hit.Object == ball:
				if vel[0] > 0 {
					moving++
				}
			case vel[0] != 0 || vel[1] != 0:
				t.Fatalf("pixel (%d,%d) off the ball has velocity %v", x, y, vel)
			default:
				still++
			}
		}
	}
	if moving == 0 || still == 0 {
		t.Errorf("moving = %d, still = %d, want both non-zero", moving, still)
	}
}

func TestCopySnapshots(t *testing.T) {
	p, dev := newPass(t, 8)
	if err := p.Render(dev); err != nil {
		t.Fatal(err)
	}
	p.CopySnapshots(dev)

	if p.LastDepthTexture.At(4, 4) != p.DepthTexture().At(4, 4) {
		t.Error("depth snapshot differs from current depth")
	}
	if p.LastNormalTexture.At(4, 4) != p.NormalTexture().At(4, 4) {
		t.Error("normal snapshot differs from current normal")
	}
	if dev.Copies() != 3 {
		t.Errorf("Copies() = %d, want 3", dev.Copies())
	}
	if dev.RenderTarget() != p.Target {
		t.Error("CopySnapshots did not leave the pass target bound")
	}
}

func TestSetSizeClearsSnapshots(t *testing.T) {
	p, dev := newPass(t, 8)
	if err := p.Render(dev); err != nil {
		t.Fatal(err)
	}
	p.CopySnapshots(dev)

	p.SetSize(16, 12)
	if p.LastDepthTexture.Width() != 16 || p.LastDepthTexture.Height() != 12 {
		t.Errorf("snapshot size = %dx%d, want 16x12", p.LastDepthTexture.Width(), p.LastDepthTexture.Height())
	}
	for _, d := range p.LastDepthTexture.Pix() {
		if d != (linalg.Vec4{}) {
			t.Fatal("snapshot not zeroed by SetSize")
		}
	}
}

func TestJitterRoundTrip(t *testing.T) {
	_, cam, _ := testScene()
	before := cam.Projection()
	j := NewJitter(0)

	for frame := range 20 {
		j.Apply(cam, 64, 48, 1)
		if cam.Projection() == before {
			t.Fatalf("frame %d: jitter left the projection unchanged", frame)
		}
		j.Clear(cam)
		if cam.Projection() != before {
			t.Fatalf("frame %d: projection not restored after Clear", frame)
		}
	}
}

func TestJitterCycles(t *testing.T) {
	_, cam, _ := testScene()
	j := NewJitter(16)
	if j.Len() != 16 {
		t.Fatalf("Len() = %d, want 16", j.Len())
	}

	first := j.Apply(cam, 10, 10, 1)
	for range 15 {
		j.Apply(cam, 10, 10, 1)
	}
	if again := j.Apply(cam, 10, 10, 1); again != first {
		t.Errorf("point after a full cycle = %v, want %v", again, first)
	}
	if j.Index() != 1 {
		t.Errorf("Index() = %d, want 1", j.Index())
	}

	off, ok := cam.ViewOffset()
	if !ok || off.FullWidth != 10 || off.Width != 10 {
		t.Errorf("view offset = %+v", off)
	}
}
