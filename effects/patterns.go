// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package effects

import (
	"image"
	"image/color"
	"time"
)

// Blink alternates between Color on every LED and all off.
type Blink struct {
	Color color.NRGBA
}

// Frame implements Effect.
func (b *Blink) Frame(img *image.NRGBA, step int, hue uint8) {
	if step%2 == 0 {
		fill(img, b.Color)
	}
}

// Interval implements Effect.
func (b *Blink) Interval() time.Duration {
	return 500 * time.Millisecond
}

// Rainbow is a rainbow wave running along the LED chain order.
type Rainbow struct {
	// Stretch is the hue step between two neighbor LEDs. Defaults to 5.
	Stretch uint8
}

// Frame implements Effect.
func (r *Rainbow) Frame(img *image.NRGBA, step int, hue uint8) {
	stretch := r.Stretch
	if stretch == 0 {
		stretch = 5
	}
	b := img.Bounds()
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetNRGBA(x, y, HSV(hue+uint8(i)*stretch))
			i++
		}
	}
}

// Interval implements Effect.
func (r *Rainbow) Interval() time.Duration {
	return 20 * time.Millisecond
}

// Fade shows one color on every LED, cycling through the hues.
type Fade struct{}

// Frame implements Effect.
func (Fade) Frame(img *image.NRGBA, step int, hue uint8) {
	fill(img, HSV(hue))
}

// Interval implements Effect.
func (Fade) Interval() time.Duration {
	return 20 * time.Millisecond
}

// Directional is a rainbow moving across the grid, horizontally or, when
// Rotate is set, vertically.
type Directional struct {
	Rotate bool
}

// Frame implements Effect.
func (d *Directional) Frame(img *image.NRGBA, step int, hue uint8) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			pos := x - b.Min.X
			if d.Rotate {
				pos = y - b.Min.Y
			}
			img.SetNRGBA(x, y, HSV(hue+uint8(pos)*10))
		}
	}
}

// Interval implements Effect.
func (d *Directional) Interval() time.Duration {
	return 20 * time.Millisecond
}

// HeartMask is an 8x8 heart.
var HeartMask = [8][8]bool{
	{false, true, true, false, false, true, true, false},
	{true, true, true, true, true, true, true, true},
	{true, true, true, true, true, true, true, true},
	{true, true, true, true, true, true, true, true},
	{false, true, true, true, true, true, true, false},
	{false, false, true, true, true, true, false, false},
	{false, false, false, true, true, false, false, false},
	{false, false, false, false, false, false, false, false},
}

// Heart is a rainbow colored heart shape on the top left 8x8 LEDs.
type Heart struct{}

// Frame implements Effect.
func (Heart) Frame(img *image.NRGBA, step int, hue uint8) {
	b := img.Bounds()
	for y := 0; y < 8 && b.Min.Y+y < b.Max.Y; y++ {
		for x := 0; x < 8 && b.Min.X+x < b.Max.X; x++ {
			if HeartMask[y][x] {
				img.SetNRGBA(b.Min.X+x, b.Min.Y+y, HSV(hue+uint8(x)*15))
			}
		}
	}
}

// Interval implements Effect.
func (Heart) Interval() time.Duration {
	return 30 * time.Millisecond
}

// Snake is a rainbow snake crawling along a spiral, from the outside of the
// grid to its center, with a fading tail.
type Snake struct {
	// Length defaults to 15 LEDs.
	Length int

	path []image.Point
}

// Frame implements Effect.
func (s *Snake) Frame(img *image.NRGBA, step int, hue uint8) {
	b := img.Bounds()
	if len(s.path) != b.Dx()*b.Dy() {
		s.path = Spiral(b)
	}
	if len(s.path) == 0 {
		return
	}
	length := s.Length
	if length <= 0 {
		length = 15
	}
	head := step % len(s.path)
	for j := 0; j < length; j++ {
		p := s.path[((head-j)%len(s.path)+len(s.path))%len(s.path)]
		c := HSV(hue + uint8(j)*10)
		fade := float64(length-j) / float64(length)
		c.R = uint8(float64(c.R) * fade)
		c.G = uint8(float64(c.G) * fade)
		c.B = uint8(float64(c.B) * fade)
		img.SetNRGBA(p.X, p.Y, c)
	}
}

// Interval implements Effect.
func (s *Snake) Interval() time.Duration {
	return 50 * time.Millisecond
}

// Spiral returns every point of r, walking clockwise from the top left corner
// towards the center.
func Spiral(r image.Rectangle) []image.Point {
	pts := make([]image.Point, 0, r.Dx()*r.Dy())
	top, bottom, left, right := r.Min.Y, r.Max.Y-1, r.Min.X, r.Max.X-1
	for top <= bottom && left <= right {
		for x := left; x <= right; x++ {
			pts = append(pts, image.Pt(x, top))
		}
		for y := top + 1; y <= bottom; y++ {
			pts = append(pts, image.Pt(right, y))
		}
		if top < bottom {
			for x := right - 1; x >= left; x-- {
				pts = append(pts, image.Pt(x, bottom))
			}
		}
		if left < right {
			for y := bottom - 1; y > top; y-- {
				pts = append(pts, image.Pt(left, y))
			}
		}
		top, bottom, left, right = top+1, bottom-1, left+1, right-1
	}
	return pts
}

func fill(img *image.NRGBA, c color.NRGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}
