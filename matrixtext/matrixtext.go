// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package matrixtext renders TrueType text for 8 pixel high LED matrices.
//
// A FaceFont can be passed as max7219.MessageOpts.Font to scroll text in any
// font instead of the built-in 8x8 glyphs.
package matrixtext

import (
	"fmt"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// Height is the number of raster lines of a matrix.
const Height = 8

// FaceFont renders text with a font.Face, vertically centered on the 8 lines.
type FaceFont struct {
	Face font.Face
	// Threshold is the minimum gray level of a lit pixel. 0 means 0x80.
	Threshold uint8
}

// Columns implements max7219.Font.
func (f *FaceFont) Columns(text string) []byte {
	if text == "" {
		return nil
	}
	dc := gg.NewContext(1, Height)
	dc.SetFontFace(f.Face)
	w, _ := dc.MeasureString(text)
	width := int(math.Ceil(w))
	if width == 0 {
		return nil
	}
	dc = gg.NewContext(width, Height)
	dc.SetFontFace(f.Face)
	dc.SetColor(color.Black)
	dc.Clear()
	dc.SetColor(color.White)
	dc.DrawStringAnchored(text, 0, Height/2, 0, 0.5)

	threshold := f.Threshold
	if threshold == 0 {
		threshold = 0x80
	}
	img := dc.Image()
	cols := make([]byte, width)
	for x := 0; x < width; x++ {
		for y := 0; y < Height; y++ {
			if color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y >= threshold {
				cols[x] |= 1 << y
			}
		}
	}
	return cols
}

// GoMono returns the Go Mono font at the given size.
func GoMono(points float64) (*FaceFont, error) {
	return parse("gomono", gomono.TTF, points)
}

// GoRegular returns the Go Regular font at the given size.
func GoRegular(points float64) (*FaceFont, error) {
	return parse("goregular", goregular.TTF, points)
}

// Load returns the TrueType font file at path.
func Load(path string, points float64) (*FaceFont, error) {
	face, err := gg.LoadFontFace(path, points)
	if err != nil {
		return nil, fmt.Errorf("matrixtext: %w", err)
	}
	return &FaceFont{Face: face}, nil
}

func parse(name string, ttf []byte, points float64) (*FaceFont, error) {
	f, err := truetype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("matrixtext: failed to parse %s: %w", name, err)
	}
	return &FaceFont{Face: truetype.NewFace(f, &truetype.Options{Size: points})}, nil
}
