// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package raygpu is a small graphics layer over the gogpu HAL that hides
// pipeline, bind group and vertex layout bookkeeping behind an
// immediate-mode API.
//
// # Overview
//
// A [Context] wraps a device and queue. Programs are loaded from WGSL (or
// precompiled SPIR-V) and reflected to find their resources and vertex
// inputs. Drawing binds a program and a vertex array, and each draw
// resolves three things lazily:
//
//   - the render pipeline, looked up by a key made of the vertex
//     attributes, primitive type, fixed-function settings and color
//     attachment formats, and built once per distinct key
//   - the bind group, rebuilt only after one of its resources changed
//   - the vertex buffers, bound only for slots that an enabled attribute
//     reads
//
// # Quick Start
//
//	dev, err := raygpu.OpenVulkan()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Close()
//
//	ctx, err := raygpu.NewContext(dev.Device(), dev.Queue())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ctx.Destroy()
//
//	prog, err := ctx.LoadProgram(nil, shader.FromWGSL(src))
//	...
//	ctx.BindProgram(prog)
//	ctx.BindVertexArray(va)
//	err = ctx.Draw(pass, pipeline.Quads, 4, 1)
//
// # Architecture
//
// The packages build on each other bottom-up:
//   - cache: open-addressing hash map and the shader compile cache
//   - refcount: reference counts for native handles
//   - vertex: attributes, buffer layout derivation and vertex arrays
//   - pipeline: pipeline state key and cache
//   - bindgroup: bind group layouts and dirty-tracked bind groups
//   - shader: WGSL reflection, compilation and module loading
//   - texture: textures, image upload and samplers
//
// A Context is not safe for concurrent use. Handles returned by the
// caches are borrowed and stay valid until the next call that mutates the
// owning object.
package raygpu
