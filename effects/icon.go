// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package effects

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"time"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Icon shows an SVG drawing, scaled to the grid and painted with the cycling
// hue. The drawing's own colors are ignored, only its coverage is kept.
type Icon struct {
	icon *oksvg.SvgIcon
	mask *image.RGBA
}

// NewIcon parses an SVG document.
func NewIcon(r io.Reader) (*Icon, error) {
	icon, err := oksvg.ReadIconStream(r)
	if err != nil {
		return nil, fmt.Errorf("effects: failed to parse svg: %w", err)
	}
	return &Icon{icon: icon}, nil
}

// LoadIcon parses the SVG file at path.
func LoadIcon(path string) (*Icon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return NewIcon(f)
}

// Frame implements Effect.
func (i *Icon) Frame(img *image.NRGBA, step int, hue uint8) {
	b := img.Bounds()
	if i.mask == nil || i.mask.Bounds().Size() != b.Size() {
		i.mask = i.rasterize(b.Dx(), b.Dy())
	}
	c := HSV(hue)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			a := i.mask.RGBAAt(x, y).A
			if a == 0 {
				continue
			}
			img.SetNRGBA(b.Min.X+x, b.Min.Y+y, scaleColor(c, a))
		}
	}
}

// Interval implements Effect.
func (i *Icon) Interval() time.Duration {
	return 30 * time.Millisecond
}

func (i *Icon) rasterize(w, h int) *image.RGBA {
	mask := image.NewRGBA(image.Rect(0, 0, w, h))
	i.icon.SetTarget(0, 0, float64(w), float64(h))
	scanner := rasterx.NewScannerGV(w, h, mask, mask.Bounds())
	i.icon.Draw(rasterx.NewDasher(w, h, scanner), 1)
	return mask
}

func scaleColor(c color.NRGBA, a uint8) color.NRGBA {
	c.R = uint8(uint16(c.R) * uint16(a) / 255)
	c.G = uint8(uint16(c.G) * uint16(a) / 255)
	c.B = uint8(uint16(c.B) * uint16(a) / 255)
	return c
}
