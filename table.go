// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ssgi

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
)

// Configuration errors.
var (
	// ErrUnknownOption is returned for option names the effect does not have.
	ErrUnknownOption = errors.New("ssgi: unknown option")

	// ErrOptionType is returned when a value has the wrong type for an
	// option.
	ErrOptionType = errors.New("ssgi: wrong option value type")
)

// Kind is the value type of an option.
type Kind int

// Option kinds.
const (
	KindFloat Kind = iota
	KindInt
	KindBool
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// option is one row of the propagation table: how to read the value from
// Options, how to store a new one and what to write downstream.
type option struct {
	kind  Kind
	get   func(o *Options) any
	set   func(e *Effect, v any) error
	apply func(e *Effect)
}

func toFloat(v any) (float32, bool) {
	switch x := v.(type) {
	case float32:
		return x, true
	case float64:
		return float32(x), true
	case int:
		return float32(x), true
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float32:
		return int(x), x == float32(int(x))
	case float64:
		return int(x), x == float64(int(x))
	}
	return 0, false
}

func toBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// newOption builds a table row for a field of type T. Writes of an
// unchanged value are skipped.
func newOption[T comparable](kind Kind, conv func(any) (T, bool), field func(*Options) *T, apply func(e *Effect, v T)) option {
	return option{
		kind: kind,
		get:  func(o *Options) any { return *field(o) },
		set: func(e *Effect, v any) error {
			x, ok := conv(v)
			if !ok {
				return ErrOptionType
			}
			p := field(&e.opts)
			if *p == x {
				return nil
			}
			*p = x
			apply(e, x)
			return nil
		},
		apply: func(e *Effect) { apply(e, *field(&e.opts)) },
	}
}

func floatOption(field func(*Options) *float32, apply func(*Effect, float32)) option {
	return newOption(KindFloat, toFloat, field, apply)
}

func intOption(field func(*Options) *int, apply func(*Effect, int)) option {
	return newOption(KindInt, toInt, field, apply)
}

func boolOption(field func(*Options) *bool, apply func(*Effect, bool)) option {
	return newOption(KindBool, toBool, field, apply)
}

// Downstream write helpers.

func giUniform[T any](name string) func(*Effect, T) {
	return func(e *Effect, v T) { e.gi.Material().Uniforms.Set(name, v) }
}

func giDefine(name string) func(*Effect, int) {
	return func(e *Effect, v int) {
		m := e.gi.Material()
		m.Defines.SetInt(name, v)
		m.SetNeedsUpdate()
	}
}

func temporalUniform[T any](name string) func(*Effect, T) {
	return func(e *Effect, v T) { e.temporal.Material().Uniforms.Set(name, v) }
}

func temporalFlag(name string) func(*Effect, bool) {
	return func(e *Effect, v bool) {
		m := e.temporal.Material()
		m.Defines.Toggle(name, v)
		m.SetNeedsUpdate()
	}
}

func denoiseUniform[T any](name string) func(*Effect, T) {
	return func(e *Effect, v T) { e.denoise.Material().Uniforms.Set(name, v) }
}

func composeUniform(name string) func(*Effect, bool) {
	return func(e *Effect, v bool) { e.compose.Material().Uniforms.Set(name, v) }
}

func noDownstream[T any](*Effect, T) {}

// newOptionTable returns the option name → row mapping. It is built once
// per effect.
func newOptionTable() map[string]option {
	return map[string]option{
		// controller
		"resolutionScale": floatOption(func(o *Options) *float32 { return &o.ResolutionScale },
			func(e *Effect, _ float32) { e.SetSize(e.lastSize.width, e.lastSize.height, false) }),
		"renderScene":    boolOption(func(o *Options) *bool { return &o.RenderScene }, noDownstream[bool]),
		"renderVelocity": boolOption(func(o *Options) *bool { return &o.RenderVelocity }, noDownstream[bool]),
		"cameraJitter": boolOption(func(o *Options) *bool { return &o.CameraJitter },
			func(e *Effect, on bool) {
				if !on {
					e.jitter.Clear(e.camera)
				}
			}),
		"jitterScale": floatOption(func(o *Options) *float32 { return &o.JitterScale }, noDownstream[float32]),

		// denoise
		"denoiseIterations": intOption(func(o *Options) *int { return &o.DenoiseIterations },
			func(e *Effect, v int) { e.denoise.Iterations = v }),
		"denoiseKernel":   intOption(func(o *Options) *int { return &o.DenoiseKernel }, denoiseUniform[int]("denoiseKernel")),
		"denoiseDiffuse":  floatOption(func(o *Options) *float32 { return &o.DenoiseDiffuse }, denoiseUniform[float32]("denoiseDiffuse")),
		"denoiseSpecular": floatOption(func(o *Options) *float32 { return &o.DenoiseSpecular }, denoiseUniform[float32]("denoiseSpecular")),
		"depthPhi":        floatOption(func(o *Options) *float32 { return &o.DepthPhi }, denoiseUniform[float32]("depthPhi")),
		"normalPhi":       floatOption(func(o *Options) *float32 { return &o.NormalPhi }, denoiseUniform[float32]("normalPhi")),
		"roughnessPhi":    floatOption(func(o *Options) *float32 { return &o.RoughnessPhi }, denoiseUniform[float32]("roughnessPhi")),

		// ray march defines
		"steps":       intOption(func(o *Options) *int { return &o.Steps }, giDefine("steps")),
		"refineSteps": intOption(func(o *Options) *int { return &o.RefineSteps }, giDefine("refineSteps")),
		"spp":         intOption(func(o *Options) *int { return &o.SPP }, giDefine("spp")),
		"missedRays": boolOption(func(o *Options) *bool { return &o.MissedRays },
			func(e *Effect, on bool) {
				m := e.gi.Material()
				m.Defines.Toggle("missedRays", on)
				m.SetNeedsUpdate()
			}),
		"sunMultiplier": floatOption(func(o *Options) *float32 { return &o.SunMultiplier },
			func(e *Effect, v float32) { e.applySunMultiplier(v) }),

		// ray march uniforms
		"distance":           floatOption(func(o *Options) *float32 { return &o.Distance }, giUniform[float32]("rayDistance")),
		"thickness":          floatOption(func(o *Options) *float32 { return &o.Thickness }, giUniform[float32]("thickness")),
		"maxRoughness":       floatOption(func(o *Options) *float32 { return &o.MaxRoughness }, giUniform[float32]("maxRoughness")),
		"envBlur":            floatOption(func(o *Options) *float32 { return &o.EnvBlur }, giUniform[float32]("envBlur")),
		"maxEnvLuminance":    floatOption(func(o *Options) *float32 { return &o.MaxEnvLuminance }, giUniform[float32]("maxEnvLuminance")),
		"importanceSampling": boolOption(func(o *Options) *bool { return &o.ImportanceSampling }, giUniform[bool]("importanceSampling")),

		// shared
		"jitter":          floatOption(func(o *Options) *float32 { return &o.Jitter }, sharedUniform("jitter")),
		"jitterRoughness": floatOption(func(o *Options) *float32 { return &o.JitterRoughness }, sharedUniform("jitterRoughness")),

		// temporal
		"blend":               floatOption(func(o *Options) *float32 { return &o.Blend }, temporalUniform[float32]("blend")),
		"correction":          floatOption(func(o *Options) *float32 { return &o.Correction }, temporalUniform[float32]("correction")),
		"constantBlend":       boolOption(func(o *Options) *bool { return &o.ConstantBlend }, temporalUniform[bool]("constantBlend")),
		"fullAccumulate":      boolOption(func(o *Options) *bool { return &o.FullAccumulate }, temporalUniform[bool]("fullAccumulate")),
		"maxNormalDifference": floatOption(func(o *Options) *float32 { return &o.MaxNormalDifference }, temporalUniform[float32]("maxNormalDifference")),
		"correctionRadius": floatOption(func(o *Options) *float32 { return &o.CorrectionRadius },
			func(e *Effect, v float32) {
				m := e.temporal.Material()
				m.Defines.SetInt("correctionRadius", int(math.Round(float64(v))))
				m.SetNeedsUpdate()
			}),
		"maxNeighborDepthDifference": floatOption(func(o *Options) *float32 { return &o.MaxNeighborDepthDifference },
			func(e *Effect, v float32) {
				m := e.temporal.Material()
				m.Defines.SetFloat("maxNeighborDepthDifference", float64(v))
				m.SetNeedsUpdate()
			}),
		"neighborhoodClamping": boolOption(func(o *Options) *bool { return &o.NeighborhoodClamping }, temporalFlag("neighborhoodClamping")),
		"dilation":             boolOption(func(o *Options) *bool { return &o.Dilation }, temporalFlag("dilation")),
		"logTransform":         boolOption(func(o *Options) *bool { return &o.LogTransform }, temporalFlag("logTransform")),
		"reflectionsOnly":      boolOption(func(o *Options) *bool { return &o.ReflectionsOnly }, temporalFlag("reflectionsOnly")),

		// compose
		"diffuseOnly":  boolOption(func(o *Options) *bool { return &o.DiffuseOnly }, composeUniform("diffuseOnly")),
		"specularOnly": boolOption(func(o *Options) *bool { return &o.SpecularOnly }, composeUniform("specularOnly")),
	}
}

func sharedUniform(name string) func(*Effect, float32) {
	return func(e *Effect, v float32) {
		e.gi.Material().Uniforms.Set(name, v)
		e.temporal.Material().Uniforms.Set(name, v)
		e.denoise.Material().Uniforms.Set(name, v)
	}
}

// applySunMultiplier enables direct light in the ray march and the filter
// for positive multipliers.
func (e *Effect) applySunMultiplier(v float32) {
	g, d := e.gi.Material(), e.denoise.Material()
	if v > 0 {
		g.Defines.SetFloat("sunMultiplier", float64(v))
		g.Defines.Enable("useDirectLight")
		d.Defines.Enable("useDirectLight")
	} else {
		g.Defines.Disable("sunMultiplier")
		g.Defines.Disable("useDirectLight")
		d.Defines.Disable("useDirectLight")
	}
	g.SetNeedsUpdate()
	d.SetNeedsUpdate()
}

// Set changes one option and propagates it to the stages that depend on
// it. Setting an option to its current value does nothing.
func (e *Effect) Set(name string, value any) error {
	opt, ok := e.table[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownOption, name)
	}
	if err := opt.set(e, value); err != nil {
		return fmt.Errorf("%w: %q wants %s, got %T", err, name, opt.kind, value)
	}
	return nil
}

// Get returns the current value of an option: float32, int or bool.
func (e *Effect) Get(name string) (any, error) {
	opt, ok := e.table[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOption, name)
	}
	return opt.get(&e.opts), nil
}

// OptionKind returns the value kind of an option.
func (e *Effect) OptionKind(name string) (Kind, error) {
	opt, ok := e.table[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownOption, name)
	}
	return opt.kind, nil
}

// OptionNames returns every option name in sorted order.
func (e *Effect) OptionNames() []string {
	return slices.Sorted(maps.Keys(e.table))
}

// Options returns a copy of the current configuration.
func (e *Effect) Options() Options { return e.opts }

// applyAll pushes every option downstream, in name order.
func (e *Effect) applyAll() {
	for _, name := range e.OptionNames() {
		e.table[name].apply(e)
	}
}
