// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Defines holds compile-time switches of a shader program.
//
// A define with an empty value is a presence flag (the GLSL "#define name"
// idiom). Any other value is a numeric constant. Changing a define requires
// the program to be rebuilt, which the owning material signals through its
// needs-update flag.
type Defines map[string]string

// Enable sets a presence flag.
func (d Defines) Enable(name string) { d[name] = "" }

// Disable removes a define.
func (d Defines) Disable(name string) { delete(d, name) }

// Toggle enables or disables a presence flag.
func (d Defines) Toggle(name string, on bool) {
	if on {
		d.Enable(name)
		return
	}
	d.Disable(name)
}

// Has reports whether the define is present.
func (d Defines) Has(name string) bool {
	_, ok := d[name]
	return ok
}

// SetInt stores an integer constant.
func (d Defines) SetInt(name string, v int) { d[name] = strconv.Itoa(v) }

// SetFloat stores a float constant with five significant digits.
func (d Defines) SetFloat(name string, v float64) {
	d[name] = strconv.FormatFloat(v, 'g', 5, 64)
}

// Int returns the integer value of a define, or def if it is absent or not
// an integer.
func (d Defines) Int(name string, def int) int {
	v, ok := d[name]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Float returns the numeric value of a define, or def if it is absent or
// not numeric.
func (d Defines) Float(name string, def float64) float64 {
	v, ok := d[name]
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// Clone returns an independent copy.
func (d Defines) Clone() Defines {
	return maps.Clone(d)
}

// Equal reports whether both sets hold the same defines.
func (d Defines) Equal(o Defines) bool {
	return maps.Equal(d, o)
}

// Assemble prefixes source with WGSL constant declarations for the defines.
//
// WGSL has no preprocessor, so every flag the program may test is declared
// as a bool constant whether or not it is present. Numeric defines become
// abstract constants. Values that are neither empty nor numeric are skipped.
// Output is sorted so equal define sets assemble to identical source.
func Assemble(source string, defines Defines, flags []string) string {
	var b strings.Builder
	b.WriteString("// defines\n")

	isFlag := make(map[string]bool, len(flags))
	sortedFlags := slices.Sorted(slices.Values(flags))
	for _, name := range sortedFlags {
		isFlag[name] = true
		b.WriteString("const ")
		b.WriteString(name)
		b.WriteString(": bool = ")
		b.WriteString(strconv.FormatBool(defines.Has(name)))
		b.WriteString(";\n")
	}

	for _, name := range slices.Sorted(maps.Keys(defines)) {
		if isFlag[name] {
			continue
		}
		v := defines[name]
		if v == "" {
			b.WriteString("const ")
			b.WriteString(name)
			b.WriteString(": bool = true;\n")
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			continue
		}
		b.WriteString("const ")
		b.WriteString(name)
		b.WriteString(" = ")
		b.WriteString(v)
		b.WriteString(";\n")
	}

	b.WriteString("\n")
	b.WriteString(source)
	return b.String()
}
