// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raygpu

import (
	"log/slog"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/raygpu/bindgroup"
	"github.com/gogpu/raygpu/pipeline"
	"github.com/gogpu/raygpu/shader"
	"github.com/gogpu/raygpu/texture"
)

// Option configures a Context during creation.
//
// Example:
//
//	ctx, err := raygpu.NewContext(device, queue,
//	    raygpu.WithDefaultSettings(settings),
//	    raygpu.WithColorAttachments(gputypes.TextureFormatRGBA8Unorm),
//	)
type Option func(*contextOptions)

type contextOptions struct {
	logger      *slog.Logger
	settings    pipeline.RenderSettings
	attachments pipeline.ColorAttachments
	release     bindgroup.ReleasePolicy
	samplers    int
	shaderOpts  []shader.Option
}

func defaultOptions() contextOptions {
	return contextOptions{
		settings:    pipeline.DefaultRenderSettings(),
		attachments: pipeline.Attachments(gputypes.TextureFormatBGRA8Unorm),
		release:     bindgroup.ReleaseImmediate,
		samplers:    texture.DefaultSamplerCacheSize,
	}
}

// WithLogger installs l as the package logger when the Context is
// created. It is equivalent to calling SetLogger.
func WithLogger(l *slog.Logger) Option {
	return func(o *contextOptions) {
		o.logger = l
	}
}

// WithDefaultSettings sets the render settings a new Context starts with.
func WithDefaultSettings(s pipeline.RenderSettings) Option {
	return func(o *contextOptions) {
		o.settings = s
	}
}

// WithColorAttachments sets the render target formats a new Context
// starts with. The default is a single BGRA8Unorm target.
func WithColorAttachments(formats ...gputypes.TextureFormat) Option {
	return func(o *contextOptions) {
		o.attachments = pipeline.Attachments(formats...)
	}
}

// WithBindGroupRelease sets when replaced native bind groups are
// destroyed. Use bindgroup.ReleaseDeferred when a recorded but not yet
// submitted pass may still reference the old group; replaced groups are
// then kept until Context.EndFrame or Context.Destroy.
func WithBindGroupRelease(p bindgroup.ReleasePolicy) Option {
	return func(o *contextOptions) {
		o.release = p
	}
}

// WithSamplerCacheSize bounds the number of distinct samplers the Context
// keeps alive.
func WithSamplerCacheSize(n int) Option {
	return func(o *contextOptions) {
		o.samplers = n
	}
}

// WithShaderOptions passes opts to every shader module the Context loads,
// for example shader.WithSPIRV() on SPIR-V-only backends.
func WithShaderOptions(opts ...shader.Option) Option {
	return func(o *contextOptions) {
		o.shaderOpts = append(o.shaderOpts, opts...)
	}
}
