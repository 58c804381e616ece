// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ssgi

import "time"

// Stage names reported in Stats.
const (
	StageScene    = "scene"
	StageVelocity = "velocity"
	StageGI       = "gi"
	StageTemporal = "temporal"
	StageDenoise  = "denoise"
	StageCompose  = "compose"
)

var stageOrder = []string{StageScene, StageVelocity, StageGI, StageTemporal, StageDenoise, StageCompose}

// StageTime is the wall time one stage took in the last frame.
type StageTime struct {
	Name     string
	Duration time.Duration
	Skipped  bool
}

// Stats describes the last Update.
type Stats struct {
	// Frames counts Update calls since creation.
	Frames int

	// Samples is the temporal sample counter.
	Samples int

	// ValidFraction is the share of working-resolution pixels that reused
	// history.
	ValidFraction float64

	// Width and Height are the output size; WorkWidth and WorkHeight the
	// working resolution of the ray march, accumulation and filter.
	Width, Height         int
	WorkWidth, WorkHeight int

	// Stages lists every stage in pipeline order.
	Stages []StageTime

	// Total is the wall time of the whole Update.
	Total time.Duration
}

// timings collects stage durations of one frame.
type timings map[string]time.Duration

func (t timings) stages() []StageTime {
	out := make([]StageTime, 0, len(stageOrder))
	for _, name := range stageOrder {
		d, ok := t[name]
		out = append(out, StageTime{Name: name, Duration: d, Skipped: !ok})
	}
	return out
}
