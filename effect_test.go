// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ssgi

import (
	"bytes"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/gogpu/ssgi/frame"
	"github.com/gogpu/ssgi/linalg"
	"github.com/gogpu/ssgi/render"
	"github.com/gogpu/ssgi/scene"
	"github.com/gogpu/ssgi/shader"
	"github.com/gogpu/ssgi/velocity"
)

func testScene() (*scene.Scene, *scene.Camera) {
	s := scene.New()
	floor := scene.NewObject("floor", scene.Plane{Width: 40, Depth: 40}, scene.Material{
		Albedo: linalg.Vec3{0.8, 0.8, 0.8}, Roughness: 0.5,
	})
	ball := scene.NewObject("ball", scene.Sphere{Radius: 1}, scene.Material{
		Albedo: linalg.Vec3{1, 0, 0}, Roughness: 0.2, Emissive: linalg.Vec3{2, 0, 0},
	})
	ball.Position = linalg.Vec3{0, 1, 0}
	s.Add(floor, ball)

	cam := scene.NewCamera(60, 1, 0.1, 100)
	cam.Position = linalg.Vec3{0, 3, 6}
	cam.LookAt(linalg.Vec3{0, 1, 0})
	return s, cam
}

func newTestEffect(t *testing.T, size int, opts ...EffectOption) (*Effect, *render.SoftwareDevice, *frame.Loop) {
	t.Helper()
	dev := render.NewSoftwareDevice(render.WithWorkers(2))
	t.Cleanup(dev.Close)
	loop := frame.NewLoop()
	s, cam := testScene()

	o := DefaultOptions()
	o.Width, o.Height = size, size
	all := append([]EffectOption{
		WithOptions(o),
		WithFrameQueue(loop),
		WithIBLFlags(&IBLFlags{}),
	}, opts...)
	return NewEffect(s, cam, dev, all...), dev, loop
}

func litInput(size int) *render.Texture {
	tex := render.NewTexture(render.TextureDescriptor{Width: size, Height: size})
	tex.Fill(linalg.Vec4{0.5, 0.5, 0.5, 1})
	return tex
}

func (e *Effect) materials() []*render.Material {
	return []*render.Material{
		e.gi.Material(),
		e.temporal.Material(),
		e.denoise.Material(),
		e.compose.Material(),
	}
}

type materialState struct {
	uniforms render.Uniforms
	defines  shader.Defines
}

func snapshot(e *Effect) map[string]materialState {
	out := make(map[string]materialState)
	for _, m := range e.materials() {
		out[m.Name] = materialState{uniforms: m.Uniforms.Snapshot(), defines: m.Defines.Clone()}
	}
	return out
}

func TestSetWritesOnlyItsTargets(t *testing.T) {
	const (
		giMat       = "SSGIMaterial"
		temporalMat = "TemporalResolveMaterial"
		denoiseMat  = "DenoisePass"
		composeMat  = "ComposeMaterial"
	)

	tests := []struct {
		name     string
		value    any
		uniforms map[string][]string
		defines  []string
	}{
		{"distance", float32(5), map[string][]string{giMat: {"rayDistance"}}, nil},
		{"thickness", float32(2), map[string][]string{giMat: {"thickness"}}, nil},
		{"importanceSampling", false, map[string][]string{giMat: {"importanceSampling"}}, nil},
		{"jitter", float32(0.3), map[string][]string{
			giMat: {"jitter"}, temporalMat: {"jitter"}, denoiseMat: {"jitter"},
		}, nil},
		{"steps", 30, nil, []string{giMat}},
		{"spp", 4, nil, []string{giMat}},
		{"missedRays", true, nil, []string{giMat}},
		{"sunMultiplier", float32(0), nil, []string{giMat, denoiseMat}},
		{"correctionRadius", float32(2.4), nil, []string{temporalMat}},
		{"dilation", true, nil, []string{temporalMat}},
		{"maxNeighborDepthDifference", float32(0.1), nil, []string{temporalMat}},
		{"blend", float32(0.5), map[string][]string{temporalMat: {"blend"}}, nil},
		{"fullAccumulate", true, map[string][]string{temporalMat: {"fullAccumulate"}}, nil},
		{"denoiseKernel", 3, map[string][]string{denoiseMat: {"denoiseKernel"}}, nil},
		{"normalPhi", float32(10), map[string][]string{denoiseMat: {"normalPhi"}}, nil},
		{"diffuseOnly", true, map[string][]string{composeMat: {"diffuseOnly"}}, nil},
		{"renderScene", true, nil, nil},
		{"jitterScale", float32(2), nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx, _, _ := newTestEffect(t, 8)
			fx.Update(litInput(8))
			before := snapshot(fx)

			if err := fx.Set(tt.name, tt.value); err != nil {
				t.Fatalf("Set(%q) = %v", tt.name, err)
			}

			for _, m := range fx.materials() {
				got := m.Uniforms.Diff(before[m.Name].uniforms)
				slices.Sort(got)
				if !slices.Equal(got, tt.uniforms[m.Name]) {
					t.Errorf("%s uniforms changed %v, want %v", m.Name, got, tt.uniforms[m.Name])
				}

				wantDefines := slices.Contains(tt.defines, m.Name)
				if changed := !m.Defines.Equal(before[m.Name].defines); changed != wantDefines {
					t.Errorf("%s defines changed = %v, want %v", m.Name, changed, wantDefines)
				}
				if m.NeedsUpdate() != wantDefines {
					t.Errorf("%s NeedsUpdate = %v, want %v", m.Name, m.NeedsUpdate(), wantDefines)
				}
			}
		})
	}
}

func TestSetCurrentValueWritesNothing(t *testing.T) {
	fx, dev, _ := newTestEffect(t, 8)
	fx.Update(litInput(8))
	before := snapshot(fx)
	versions := make(map[string]int)
	for _, m := range fx.materials() {
		versions[m.Name] = m.Version()
	}
	dev.ResetStats()

	for _, name := range fx.OptionNames() {
		v, err := fx.Get(name)
		if err != nil {
			t.Fatalf("Get(%q) = %v", name, err)
		}
		if err := fx.Set(name, v); err != nil {
			t.Fatalf("Set(%q, %v) = %v", name, v, err)
		}
	}

	for _, m := range fx.materials() {
		if got := m.Uniforms.Diff(before[m.Name].uniforms); len(got) != 0 {
			t.Errorf("%s uniforms changed %v", m.Name, got)
		}
		if m.Version() != versions[m.Name] {
			t.Errorf("%s was marked for rebuild", m.Name)
		}
	}
	if n := dev.Allocations(); n != 0 {
		t.Errorf("%d reallocations, want 0", n)
	}
}

func TestSetDownstreamValues(t *testing.T) {
	fx, _, _ := newTestEffect(t, 8)

	mustSet := func(name string, v any) {
		t.Helper()
		if err := fx.Set(name, v); err != nil {
			t.Fatalf("Set(%q, %v) = %v", name, v, err)
		}
	}

	mustSet("correctionRadius", float32(2.6))
	if got := fx.temporal.Material().Defines.Int("correctionRadius", 0); got != 3 {
		t.Errorf("correctionRadius define = %d, want 3", got)
	}

	mustSet("sunMultiplier", float32(2))
	if got := fx.gi.Material().Defines.Float("sunMultiplier", 0); got != 2 {
		t.Errorf("sunMultiplier define = %v, want 2", got)
	}
	if !fx.gi.Material().Defines.Has("useDirectLight") || !fx.denoise.Material().Defines.Has("useDirectLight") {
		t.Error("positive sunMultiplier did not enable useDirectLight")
	}
	mustSet("sunMultiplier", float32(0))
	if fx.gi.Material().Defines.Has("useDirectLight") || fx.denoise.Material().Defines.Has("useDirectLight") {
		t.Error("zero sunMultiplier left useDirectLight on")
	}

	mustSet("denoiseIterations", 4)
	if fx.denoise.Iterations != 4 {
		t.Errorf("denoise.Iterations = %d, want 4", fx.denoise.Iterations)
	}

	mustSet("spp", float64(3))
	if got, _ := fx.Get("spp"); got != 3 {
		t.Errorf("Get(spp) = %v, want 3", got)
	}
}

func TestSetErrors(t *testing.T) {
	fx, _, _ := newTestEffect(t, 4)

	tests := []struct {
		name  string
		value any
		want  error
	}{
		{"noSuchOption", 1, ErrUnknownOption},
		{"distance", "far", ErrOptionType},
		{"spp", 2.5, ErrOptionType},
		{"missedRays", 1, ErrOptionType},
		{"blend", true, ErrOptionType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := fx.Options()
			err := fx.Set(tt.name, tt.value)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Set(%q, %v) = %v, want %v", tt.name, tt.value, err, tt.want)
			}
			if fx.Options() != before {
				t.Error("failed Set changed the configuration")
			}
		})
	}

	if _, err := fx.Get("noSuchOption"); !errors.Is(err, ErrUnknownOption) {
		t.Errorf("Get = %v, want ErrUnknownOption", err)
	}
	if _, err := fx.OptionKind("noSuchOption"); !errors.Is(err, ErrUnknownOption) {
		t.Errorf("OptionKind = %v, want ErrUnknownOption", err)
	}
}

func TestOptionNamesCoverOptions(t *testing.T) {
	fx, _, _ := newTestEffect(t, 4)
	names := fx.OptionNames()
	if !slices.IsSorted(names) {
		t.Error("OptionNames is not sorted")
	}
	for _, name := range names {
		v, err := fx.Get(name)
		if err != nil {
			t.Fatalf("Get(%q) = %v", name, err)
		}
		kind, _ := fx.OptionKind(name)
		var ok bool
		switch kind {
		case KindFloat:
			_, ok = v.(float32)
		case KindInt:
			_, ok = v.(int)
		case KindBool:
			_, ok = v.(bool)
		}
		if !ok {
			t.Errorf("Get(%q) = %T, want %s", name, v, kind)
		}
		if err := fx.Set(name, v); err != nil {
			t.Errorf("Set(%q, current) = %v", name, err)
		}
	}
}

func TestMissedRaysDoesNotReallocate(t *testing.T) {
	fx, dev, _ := newTestEffect(t, 8)
	fx.Update(litInput(8))
	dev.ResetStats()

	if err := fx.Set("missedRays", true); err != nil {
		t.Fatal(err)
	}
	fx.Update(litInput(8))

	if n := dev.Allocations(); n != 0 {
		t.Errorf("allocations after missedRays = %d, want 0", n)
	}
	if !fx.gi.Material().Defines.Has("missedRays") {
		t.Error("missedRays define missing")
	}
}

func TestDenoiseIterationsDraws(t *testing.T) {
	fx, dev, _ := newTestEffect(t, 100)
	if err := fx.Set("denoiseIterations", 3); err != nil {
		t.Fatal(err)
	}
	input := litInput(100)

	for range 2 {
		dev.ResetStats()
		fx.Update(input)
		if got := dev.Draws("DenoisePass"); got != 3 {
			t.Fatalf("DenoisePass draws = %d, want 3", got)
		}
		for _, name := range []string{"SSGIMaterial", "TemporalResolveMaterial", "ComposeMaterial", "VelocityDepthNormalMaterial"} {
			if got := dev.Draws(name); got != 1 {
				t.Errorf("%s draws = %d, want 1", name, got)
			}
		}
	}
}

func TestSetSizeIdempotent(t *testing.T) {
	fx, dev, _ := newTestEffect(t, 16)
	dev.ResetStats()

	fx.SetSize(16, 16, false)
	if n := dev.Allocations(); n != 0 {
		t.Errorf("same size reallocated %d targets", n)
	}

	fx.SetSize(16, 16, true)
	if dev.Allocations() == 0 {
		t.Error("forced SetSize did not reallocate")
	}

	dev.ResetStats()
	if err := fx.Set("resolutionScale", float32(1)); err != nil {
		t.Fatal(err)
	}
	if n := dev.Allocations(); n != 0 {
		t.Errorf("unchanged scale reallocated %d targets", n)
	}
}

func TestResolutionScale(t *testing.T) {
	tests := []struct {
		width, height int
		scale         float32
		wantW, wantH  int
	}{
		{16, 16, 1, 16, 16},
		{16, 8, 0.5, 8, 4},
		{101, 33, 0.5, 51, 17},
		{4, 4, 0.01, 1, 1},
	}

	for _, tt := range tests {
		fx, _, _ := newTestEffect(t, 4)
		if err := fx.Set("resolutionScale", tt.scale); err != nil {
			t.Fatal(err)
		}
		fx.SetSize(tt.width, tt.height, false)

		if w, h := fx.WorkingSize(); w != tt.wantW || h != tt.wantH {
			t.Errorf("%dx%d @ %v: working size %dx%d, want %dx%d",
				tt.width, tt.height, tt.scale, w, h, tt.wantW, tt.wantH)
		}
		if w, h := fx.VelocityPass().Target.Width(), fx.VelocityPass().Target.Height(); w != tt.wantW || h != tt.wantH {
			t.Errorf("velocity pass %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
		}
		out := fx.Output()
		if out.Width() != tt.width || out.Height() != tt.height {
			t.Errorf("output %dx%d, want %dx%d", out.Width(), out.Height(), tt.width, tt.height)
		}
	}
}

func TestIBLResetAfterTwoFrames(t *testing.T) {
	fx, _, loop := newTestEffect(t, 4)
	ibl := fx.IBL()
	input := litInput(4)

	fx.Update(input)
	if !ibl.IrradianceDisabled() || !ibl.RadianceDisabled() {
		t.Fatal("Update did not disable IBL")
	}
	loop.Tick()
	if !ibl.IrradianceDisabled() {
		t.Fatal("IBL re-enabled after one frame")
	}

	// A second Update replaces the pending reset.
	fx.Update(input)
	if n := loop.Pending(); n != 1 {
		t.Fatalf("pending callbacks = %d, want 1", n)
	}
	loop.Tick()
	if !ibl.IrradianceDisabled() {
		t.Fatal("IBL re-enabled by the cancelled reset")
	}
	loop.Tick()
	if ibl.IrradianceDisabled() || ibl.RadianceDisabled() {
		t.Fatal("IBL still disabled two frames after the last Update")
	}
	if n := loop.Pending(); n != 0 {
		t.Errorf("pending callbacks = %d, want 0", n)
	}
}

func TestIBLFlagsFollowOnlyOptions(t *testing.T) {
	tests := []struct {
		name                    string
		diffuseOnly, specOnly   bool
		wantIrradiance, wantRad bool
	}{
		{"full", false, false, true, true},
		{"diffuse only", true, false, true, false},
		{"specular only", false, true, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx, _, _ := newTestEffect(t, 4)
			_ = fx.Set("diffuseOnly", tt.diffuseOnly)
			_ = fx.Set("specularOnly", tt.specOnly)
			fx.Update(litInput(4))
			if got := fx.IBL().IrradianceDisabled(); got != tt.wantIrradiance {
				t.Errorf("IrradianceDisabled = %v, want %v", got, tt.wantIrradiance)
			}
			if got := fx.IBL().RadianceDisabled(); got != tt.wantRad {
				t.Errorf("RadianceDisabled = %v, want %v", got, tt.wantRad)
			}
		})
	}
}

func TestEnvironmentRefreshOnIdentityChange(t *testing.T) {
	fx, _, _ := newTestEffect(t, 4)
	m := fx.gi.Material()
	input := litInput(4)

	tex := render.NewTexture(render.TextureDescriptor{Width: 16, Height: 8})
	tex.Fill(linalg.Vec4{1, 1, 1, 1})
	env := scene.NewEnvironment(tex, scene.MappingEquirectangular)
	fx.scene.Environment = env

	fx.Update(input)
	if !m.Defines.Has("USE_ENVMAP") {
		t.Fatal("USE_ENVMAP not defined for an equirectangular map")
	}
	if got := m.Uniforms.Float("maxEnvMapMipLevel"); got != 4 {
		t.Errorf("maxEnvMapMipLevel = %v, want 4", got)
	}
	if !env.GenerateMipmaps || env.MinFilter != scene.FilterLinearMipmapLinear {
		t.Error("mipmaps were not enabled on the environment")
	}
	if fx.gi.Environment != env {
		t.Error("environment not bound to the ray march")
	}

	// Same environment: the binding is not touched again.
	m.Defines.Disable("USE_ENVMAP")
	fx.Update(input)
	if m.Defines.Has("USE_ENVMAP") {
		t.Error("unchanged environment was rebound")
	}

	fx.scene.Environment = scene.NewEnvironment(tex, scene.MappingUV)
	m.Defines.Enable("USE_ENVMAP")
	fx.Update(input)
	if m.Defines.Has("USE_ENVMAP") || fx.gi.Environment != nil {
		t.Error("non-equirectangular map left the environment bound")
	}
}

func TestStaticFramesReuseHistory(t *testing.T) {
	fx, _, _ := newTestEffect(t, 16)
	input := litInput(16)

	fx.Update(input)
	if got := fx.Stats().ValidFraction; got >= 1 {
		t.Errorf("first frame ValidFraction = %v, want geometry rejected", got)
	}
	fx.Update(input)

	st := fx.Stats()
	if st.ValidFraction != 1 {
		t.Errorf("second static frame ValidFraction = %v, want 1", st.ValidFraction)
	}
	if st.Samples != 2 {
		t.Errorf("Samples = %d, want 2", st.Samples)
	}
	if st.Frames != 2 {
		t.Errorf("Frames = %d, want 2", st.Frames)
	}
}

func TestCameraMoveRestartsSamples(t *testing.T) {
	fx, _, _ := newTestEffect(t, 8)
	input := litInput(8)
	for range 3 {
		fx.Update(input)
	}
	if got := fx.Stats().Samples; got != 3 {
		t.Fatalf("Samples = %d, want 3", got)
	}
	fx.camera.Position = fx.camera.Position.Add(linalg.Vec3{0.5, 0, 0})
	fx.Update(input)
	if got := fx.Stats().Samples; got != 1 {
		t.Errorf("Samples after move = %d, want 1", got)
	}
}

func TestStatsStages(t *testing.T) {
	fx, _, _ := newTestEffect(t, 4)
	fx.Update(litInput(4))

	st := fx.Stats()
	var names []string
	for _, s := range st.Stages {
		names = append(names, s.Name)
		wantSkipped := s.Name == StageScene
		if s.Skipped != wantSkipped {
			t.Errorf("stage %s Skipped = %v, want %v", s.Name, s.Skipped, wantSkipped)
		}
	}
	if !slices.Equal(names, stageOrder) {
		t.Errorf("stages = %v, want %v", names, stageOrder)
	}
	if st.Width != 4 || st.WorkWidth != 4 {
		t.Errorf("size %d, work %d, want 4", st.Width, st.WorkWidth)
	}
}

// fakeRenderer records the visible objects of each call.
type fakeRenderer struct {
	visible []string
	err     error
}

func (r *fakeRenderer) Render(dev render.Device, s *scene.Scene, _ *scene.Camera, target *render.Target) error {
	r.visible = r.visible[:0]
	for o := range s.TraverseVisible() {
		r.visible = append(r.visible, o.Name)
	}
	dev.SetRenderTarget(target)
	target.Texture(0).Fill(linalg.Vec4{1, 1, 1, 1})
	return r.err
}

func TestRenderSceneSelection(t *testing.T) {
	r := &fakeRenderer{}
	fx, _, _ := newTestEffect(t, 8, WithSceneRenderer(r))
	if err := fx.Set("renderScene", true); err != nil {
		t.Fatal(err)
	}
	ball := fx.scene.Objects[1]
	fx.Selection().Add(ball)

	fx.Update(nil)

	if !slices.Equal(r.visible, []string{"ball"}) {
		t.Errorf("visible during scene render = %v, want [ball]", r.visible)
	}
	for _, o := range fx.scene.Objects {
		if !o.Visible {
			t.Errorf("%s left hidden after Update", o.Name)
		}
	}
	if got := fx.compose.Material().Uniforms.Texture("sceneTexture"); got != fx.sceneTarget.Texture(0) {
		t.Error("composition does not read the rendered scene buffer")
	}
	if got := fx.gi.Material().Uniforms.Texture("directLightTexture"); got != fx.sceneTarget.Texture(0) {
		t.Error("ray march does not read the rendered scene buffer")
	}
}

func TestStageErrorIsLogged(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	r := &fakeRenderer{err: errors.New("boom")}
	fx, dev, _ := newTestEffect(t, 4, WithSceneRenderer(r))
	_ = fx.Set("renderScene", true)
	dev.ResetStats()

	fx.Update(nil)

	if !strings.Contains(buf.String(), "stage failed") || !strings.Contains(buf.String(), "boom") {
		t.Errorf("stage error not logged: %s", buf.String())
	}
	if dev.Draws("ComposeMaterial") != 1 {
		t.Error("pipeline stopped after a stage error")
	}
}

func TestExternalVelocityPass(t *testing.T) {
	dev := render.NewSoftwareDevice(render.WithWorkers(2))
	t.Cleanup(dev.Close)
	s, cam := testScene()
	ext := velocity.NewPass(dev, s, cam)
	ext.SetSize(8, 8)

	o := DefaultOptions()
	o.Width, o.Height = 8, 8
	fx := NewEffect(s, cam, dev, WithOptions(o), WithFrameQueue(frame.NewLoop()),
		WithIBLFlags(&IBLFlags{}), WithVelocityPass(ext))

	dev.ResetStats()
	if err := ext.Render(dev); err != nil {
		t.Fatal(err)
	}
	fx.Update(litInput(8))

	if got := dev.Draws("VelocityDepthNormalMaterial"); got != 1 {
		t.Errorf("velocity draws = %d, want only the host's 1", got)
	}
	if fx.temporal.Velocity != ext {
		t.Error("temporal stage does not read the shared pass")
	}
	if got := fx.gi.Material().Uniforms.Texture("depthTexture"); got != ext.DepthTexture() {
		t.Error("ray march does not read the shared depth buffer")
	}

	fx.SetVelocityPass(nil)
	dev.ResetStats()
	fx.Update(litInput(8))
	if got := dev.Draws("VelocityDepthNormalMaterial"); got != 1 {
		t.Errorf("owned velocity draws = %d, want 1", got)
	}
	if fx.VelocityPass() == ext {
		t.Error("SetVelocityPass(nil) kept the shared pass")
	}
}

func TestCameraJitterIsRestored(t *testing.T) {
	fx, _, _ := newTestEffect(t, 8)
	if err := fx.Set("cameraJitter", true); err != nil {
		t.Fatal(err)
	}
	proj := fx.camera.Projection()

	fx.Update(litInput(8))

	if fx.camera.Projection() != proj {
		t.Error("camera projection not restored after Update")
	}
	if _, ok := fx.camera.ViewOffset(); ok {
		t.Error("view offset left on the camera")
	}
	if fx.jitter.Index() != 1 {
		t.Errorf("jitter index = %d, want 1", fx.jitter.Index())
	}
}

func TestDispose(t *testing.T) {
	fx, _, loop := newTestEffect(t, 8)
	fx.Update(litInput(8))
	fx.Dispose()

	if fx.IBL().IrradianceDisabled() || fx.IBL().RadianceDisabled() {
		t.Error("Dispose left IBL disabled")
	}
	if n := loop.Pending(); n != 0 {
		t.Errorf("pending callbacks after Dispose = %d, want 0", n)
	}
	if w, h := fx.WorkingSize(); w != 1 || h != 1 {
		t.Errorf("working size after Dispose = %dx%d, want 1x1", w, h)
	}
}
