// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command raydemo draws a batch of sprites and steps a particle system
// through raygpu, then reports what the caches did.
//
// With -backend=noop (the default) no GPU is needed: commands are
// recorded against the noop HAL device and counted.
package main

import (
	_ "embed"
	"encoding/binary"
	"flag"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"log/slog"
	"math"
	"os"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/raygpu"
	"github.com/gogpu/raygpu/bindgroup"
	"github.com/gogpu/raygpu/pipeline"
	"github.com/gogpu/raygpu/shader"
	"github.com/gogpu/raygpu/texture"
	"github.com/gogpu/raygpu/vertex"
)

//go:embed shaders/sprite.wgsl
var spriteWGSL string

//go:embed shaders/particles.wgsl
var particlesWGSL string

func main() {
	var (
		backend   = flag.String("backend", "noop", "HAL backend: noop or vulkan")
		sprites   = flag.Int("sprites", 256, "number of sprites")
		frames    = flag.Int("frames", 4, "frames to record")
		particles = flag.Int("particles", 10000, "number of particles")
		imagePath = flag.String("image", "", "sprite atlas image (default: generated checkerboard)")
		verbose   = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	dev, err := open(*backend)
	if err != nil {
		log.Fatalf("Failed to open device: %v", err)
	}
	defer dev.Close()

	ctx, err := raygpu.NewContext(dev.Device(), dev.Queue(),
		raygpu.WithLogger(logger),
		raygpu.WithBindGroupRelease(bindgroup.ReleaseDeferred))
	if err != nil {
		log.Fatalf("Failed to create context: %v", err)
	}
	defer ctx.Destroy()

	atlas, err := loadAtlas(ctx, *imagePath)
	if err != nil {
		log.Fatalf("Failed to load atlas: %v", err)
	}
	defer atlas.Destroy()

	rec := &countingPass{}
	if err := drawSprites(ctx, atlas, rec, *sprites, *frames); err != nil {
		log.Fatalf("Failed to draw sprites: %v", err)
	}
	comp := &countingCompute{}
	if err := stepParticles(ctx, comp, *particles, *frames); err != nil {
		log.Fatalf("Failed to step particles: %v", err)
	}

	stats := ctx.Program().Pipelines().Stats()
	compile := shader.CompileStats()
	fmt.Printf("adapter:          %s\n", dev.AdapterName())
	fmt.Printf("draws:            %d (%d indexed, %d vertex buffer binds)\n", rec.draws, rec.indexed, rec.vertexBinds)
	fmt.Printf("pipelines:        %d built, %d hits, %d misses\n", stats.Len, stats.Hits, stats.Misses)
	fmt.Printf("bind group:       %d builds\n", ctx.Program().BindGroup().Builds())
	fmt.Printf("dispatches:       %d (%d workgroups)\n", comp.dispatches, comp.groups)
	fmt.Printf("shader compiles:  %d cached, %d hits\n", compile.Len, compile.Hits)
	fmt.Printf("samplers:         %d\n", ctx.Samplers().Len())
}

func open(name string) (*raygpu.Device, error) {
	switch name {
	case "noop":
		return raygpu.Open(&noop.API{})
	case "vulkan":
		return raygpu.OpenVulkan()
	}
	return nil, fmt.Errorf("unknown backend %q", name)
}

func loadAtlas(ctx *raygpu.Context, path string) (*texture.Texture, error) {
	var img image.Image
	if path == "" {
		img = checkerboard(64, 8)
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if img, _, err = image.Decode(f); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return ctx.LoadTexture(img, texture.Options{Label: "atlas", MaxDimension: 1024})
}

func checkerboard(size, cell int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := range size {
		for x := range size {
			c := color.RGBA{R: 40, G: 40, B: 60, A: 255}
			if (x/cell+y/cell)%2 == 0 {
				c = color.RGBA{R: 230, G: 200, B: 80, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// drawSprites records frames of n quads read from two vertex buffers,
// one with positions and uvs and one with tints. Every other frame
// enables depth testing, so the pipeline cache serves two variants.
func drawSprites(ctx *raygpu.Context, atlas *texture.Texture, enc raygpu.PassEncoder, n, frames int) error {
	prog, err := ctx.LoadProgram(nil, shader.FromWGSL(spriteWGSL))
	if err != nil {
		return err
	}
	ctx.BindProgram(prog)

	geometry, err := ctx.NewBuffer("sprite_geometry", gputypes.BufferUsageVertex, spriteGeometry(n))
	if err != nil {
		return err
	}
	defer geometry.Release()
	tints, err := ctx.NewBuffer("sprite_tints", gputypes.BufferUsageVertex, spriteTints(n))
	if err != nil {
		return err
	}
	defer tints.Release()
	uniforms, err := ctx.NewBuffer("frame", gputypes.BufferUsageUniform, frameUniforms(0))
	if err != nil {
		return err
	}
	defer uniforms.Release()

	va := vertex.NewArray()
	for _, a := range []struct {
		buf    hal.Buffer
		loc    uint32
		format gputypes.VertexFormat
		offset uint64
		step   gputypes.VertexStepMode
	}{
		{geometry.Value(), 0, gputypes.VertexFormatFloat32x2, 0, gputypes.VertexStepModeVertex},
		{geometry.Value(), 1, gputypes.VertexFormatFloat32x2, 8, gputypes.VertexStepModeVertex},
		{tints.Value(), 2, gputypes.VertexFormatFloat32x4, 0, gputypes.VertexStepModeVertex},
	} {
		if err := va.Add(a.buf, a.loc, a.format, a.offset, a.step); err != nil {
			return err
		}
	}
	ctx.BindVertexArray(va)

	sampler, err := ctx.Samplers().Get(texture.LinearClamp())
	if err != nil {
		return err
	}
	prog.SetUniformBuffer("frame", uniforms, 0, uint64(len(frameUniforms(0))))
	prog.SetTexture("atlas", atlas)
	prog.SetSampler("atlasSampler", sampler)

	settings := ctx.RenderSettings()
	for f := range frames {
		s := settings
		s.DepthTest = f%2 == 1
		ctx.SetRenderSettings(s)
		ctx.WriteBuffer(uniforms, 0, frameUniforms(float32(f)))
		if err := ctx.Draw(enc, pipeline.Quads, uint32(n*4), 1); err != nil {
			return err
		}
		ctx.EndFrame()
	}
	return nil
}

func stepParticles(ctx *raygpu.Context, enc raygpu.ComputeEncoder, n, frames int) error {
	prog, err := ctx.LoadComputeProgram(nil, shader.FromWGSL(particlesWGSL))
	if err != nil {
		return err
	}
	size := n * 16
	state, err := ctx.NewBuffer("particles", gputypes.BufferUsageStorage, make([]byte, size))
	if err != nil {
		return err
	}
	defer state.Release()
	prog.SetStorageBuffer("particles", state, 0, uint64(size))

	for range frames {
		if err := ctx.DispatchInvocations(enc, prog, uint32(n), 1, 1); err != nil {
			return err
		}
	}
	return nil
}

// spriteGeometry lays n unit quads out on a grid. Each vertex is a
// position and a uv, four float32s.
func spriteGeometry(n int) []byte {
	corners := [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	data := make([]byte, 0, n*4*16)
	for i := range n {
		ox, oy := float32(i%cols)*1.25, float32(i/cols)*1.25
		for _, c := range corners {
			data = appendFloats(data, ox+c[0], oy+c[1], c[0], c[1])
		}
	}
	return data
}

func spriteTints(n int) []byte {
	data := make([]byte, 0, n*4*16)
	for i := range n {
		hue := float64(i) / float64(max(n, 1))
		r := float32(0.5 + 0.5*math.Cos(2*math.Pi*hue))
		g := float32(0.5 + 0.5*math.Cos(2*math.Pi*(hue-1.0/3)))
		b := float32(0.5 + 0.5*math.Cos(2*math.Pi*(hue-2.0/3)))
		for range 4 {
			data = appendFloats(data, r, g, b, 1)
		}
	}
	return data
}

// frameUniforms packs the Frame uniform: an identity transform and the
// frame time, padded to the struct's 80-byte size.
func frameUniforms(time float32) []byte {
	data := make([]byte, 0, 80)
	for col := range 4 {
		for row := range 4 {
			v := float32(0)
			if col == row {
				v = 1
			}
			data = appendFloats(data, v)
		}
	}
	data = appendFloats(data, time, 0, 0, 0)
	return data
}

func appendFloats(b []byte, vs ...float32) []byte {
	for _, v := range vs {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
	}
	return b
}

// countingPass counts the commands a render pass would receive.
type countingPass struct {
	draws, indexed, vertexBinds int
}

func (p *countingPass) SetPipeline(hal.RenderPipeline)                          {}
func (p *countingPass) SetBindGroup(uint32, hal.BindGroup, []uint32)            {}
func (p *countingPass) SetVertexBuffer(uint32, hal.Buffer, uint64)              { p.vertexBinds++ }
func (p *countingPass) SetIndexBuffer(hal.Buffer, gputypes.IndexFormat, uint64) {}
func (p *countingPass) Draw(uint32, uint32, uint32, uint32)                     { p.draws++ }
func (p *countingPass) DrawIndexed(uint32, uint32, uint32, int32, uint32) {
	p.draws++
	p.indexed++
}

// countingCompute counts dispatches and workgroups.
type countingCompute struct {
	dispatches int
	groups     uint64
}

func (p *countingCompute) SetPipeline(hal.ComputePipeline)              {}
func (p *countingCompute) SetBindGroup(uint32, hal.BindGroup, []uint32) {}
func (p *countingCompute) Dispatch(x, y, z uint32) {
	p.dispatches++
	p.groups += uint64(x) * uint64(y) * uint64(z)
}
