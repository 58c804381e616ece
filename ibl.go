// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ssgi

import "sync/atomic"

// IBLFlags switch off the ambient image-based light of the host's
// materials while the effect supplies indirect light itself.
//
// Any number of materials may read the flags; only the Effect writes them.
// The zero value has both flags cleared. IBLFlags implements scene.IBL.
type IBLFlags struct {
	irradiance atomic.Bool
	radiance   atomic.Bool
}

var sharedIBL IBLFlags

// SharedIBLFlags returns the process-wide flags used by effects created
// without WithIBLFlags.
func SharedIBLFlags() *IBLFlags { return &sharedIBL }

// IrradianceDisabled reports whether diffuse IBL is off.
func (f *IBLFlags) IrradianceDisabled() bool { return f.irradiance.Load() }

// RadianceDisabled reports whether specular IBL is off.
func (f *IBLFlags) RadianceDisabled() bool { return f.radiance.Load() }

func (f *IBLFlags) set(irradiance, radiance bool) {
	f.irradiance.Store(irradiance)
	f.radiance.Store(radiance)
}
