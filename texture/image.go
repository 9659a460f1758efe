// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texture

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	xdraw "golang.org/x/image/draw"
)

// ErrEmptyImage is returned by FromImage for images without pixels.
var ErrEmptyImage = errors.New("texture: empty image")

// Options configures FromImage.
type Options struct {
	// MaxDimension downscales images whose width or height exceeds it,
	// keeping the aspect ratio. Zero disables scaling.
	MaxDimension int

	// Label is an optional debug name.
	Label string
}

// FromImage uploads img as an RGBA8 texture.
func FromImage(device hal.Device, queue hal.Queue, img image.Image, opts Options) (*Texture, error) {
	rgba := toRGBA(img, opts.MaxDimension)
	w, h := rgba.Rect.Dx(), rgba.Rect.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("%w: %v", ErrEmptyImage, img.Bounds())
	}

	tex, err := New(device, Descriptor{
		Label:  opts.Label,
		Width:  uint32(w),
		Height: uint32(h),
		Format: gputypes.TextureFormatRGBA8Unorm,
	})
	if err != nil {
		return nil, err
	}

	queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex.native, MipLevel: 0},
		rgba.Pix,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(rgba.Stride),
			RowsPerImage: uint32(h),
		},
		&hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
	)
	return tex, nil
}

// toRGBA converts img to a tightly packed RGBA image anchored at the
// origin, scaling it down to fit maxDim when set.
func toRGBA(img image.Image, maxDim int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim > 0 && (w > maxDim || h > maxDim) {
		if w >= h {
			w, h = maxDim, max(1, h*maxDim/w)
		} else {
			w, h = max(1, w*maxDim/h), maxDim
		}
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
		return dst
	}

	if src, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) && src.Stride == 4*w {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	return dst
}
