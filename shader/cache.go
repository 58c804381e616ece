// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/naga"
	"github.com/gogpu/ssgi/internal/lru"
	"github.com/gogpu/wgpu/hal"
)

// Cache errors.
var (
	// ErrEmptySource is returned when compiling an empty program.
	ErrEmptySource = errors.New("shader: empty source")

	// ErrInvalidSPIRV is returned when the compiler output is not a whole
	// number of 32-bit words.
	ErrInvalidSPIRV = errors.New("shader: SPIR-V length is not a multiple of 4")
)

// CompileFunc translates WGSL source into SPIR-V bytes.
type CompileFunc func(source string) ([]byte, error)

// ModuleDevice is the part of hal.Device the cache needs to turn SPIR-V
// into shader modules.
type ModuleDevice interface {
	CreateShaderModule(desc *hal.ShaderModuleDescriptor) (hal.ShaderModule, error)
	DestroyShaderModule(module hal.ShaderModule)
}

// Program is a compiled shader.
type Program struct {
	// Label is the debug label of the first material that produced it.
	Label string

	// SPIRV is the little-endian SPIR-V word stream.
	SPIRV []uint32

	// Module is the HAL shader module, nil when the cache has no device.
	Module hal.ShaderModule
}

// Cache compiles assembled WGSL sources once per distinct source text.
//
// Materials reassemble their source whenever a define changes; identical
// define sets hash to the same key and reuse the earlier program. With a
// capacity the least recently used program is dropped, and its module
// destroyed, once the cache is full.
//
// Cache is safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	compile  CompileFunc
	device   ModuleDevice
	capacity int
	programs *lru.List[[sha256.Size]byte, *Program]
	compiles int
	logger   *slog.Logger
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithCompiler replaces the naga compiler, mainly for tests.
func WithCompiler(fn CompileFunc) CacheOption {
	return func(c *Cache) {
		c.compile = fn
	}
}

// WithModuleDevice makes the cache create a HAL shader module for every
// compiled program.
func WithModuleDevice(d ModuleDevice) CacheOption {
	return func(c *Cache) {
		c.device = d
	}
}

// WithCapacity bounds the number of cached programs. Zero, the default,
// keeps every program.
func WithCapacity(n int) CacheOption {
	return func(c *Cache) {
		c.capacity = n
	}
}

// NewCache creates a cache compiling with naga.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		compile: naga.Compile,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.programs = lru.New(c.capacity, c.release)
	return c
}

// release destroys the module of an evicted program. Called with c.mu
// held.
func (c *Cache) release(_ [sha256.Size]byte, p *Program) {
	if c.device != nil && p.Module != nil {
		c.device.DestroyShaderModule(p.Module)
	}
	c.log().LogAttrs(context.Background(), slog.LevelDebug, "shader evicted",
		slog.String("label", p.Label),
	)
}

// SetLogger overrides the package logger for this cache's compile
// diagnostics. Nil restores the package logger.
func (c *Cache) SetLogger(l *slog.Logger) {
	c.mu.Lock()
	c.logger = l
	c.mu.Unlock()
}

// log returns the cache's logger. Called with c.mu held.
func (c *Cache) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slogger()
}

// Compile returns the program for source, compiling it on first use.
func (c *Cache) Compile(label, source string) (*Program, error) {
	if source == "" {
		return nil, fmt.Errorf("%s: %w", label, ErrEmptySource)
	}

	key := sha256.Sum256([]byte(source))

	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.programs.Get(key); ok {
		return p, nil
	}

	spirvBytes, err := c.compile(source)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to compile shader: %w", label, err)
	}
	words, err := SPIRVWords(spirvBytes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}

	p := &Program{Label: label, SPIRV: words}
	if c.device != nil {
		module, err := c.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
			Label: label,
			Source: hal.ShaderSource{
				SPIRV: words,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("%s: failed to create shader module: %w", label, err)
		}
		p.Module = module
	}

	c.programs.Put(key, p)
	c.compiles++
	c.log().LogAttrs(context.Background(), slog.LevelDebug, "shader compiled",
		slog.String("label", label),
		slog.Int("words", len(words)),
	)
	return p, nil
}

// Len returns the number of cached programs.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.programs.Len()
}

// Compiles returns how many times the compiler has been invoked
// successfully.
func (c *Cache) Compiles() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.compiles
}

// Stats returns the hit, miss and eviction counters of the program
// lookup.
func (c *Cache) Stats() lru.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.programs.Stats()
}

// Destroy releases every shader module and empties the cache.
func (c *Cache) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.programs.Purge()
}

// SPIRVWords converts little-endian SPIR-V bytes into 32-bit words.
func SPIRVWords(b []byte) ([]uint32, error) {
	if len(b)%4 != 0 {
		return nil, ErrInvalidSPIRV
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) |
			uint32(b[i*4+1])<<8 |
			uint32(b[i*4+2])<<16 |
			uint32(b[i*4+3])<<24
	}
	return words, nil
}
