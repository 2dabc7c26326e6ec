// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package powerline switches the supply of an LED panel through a GPIO line,
// for boards where the matrix or strip power goes through a MOSFET or relay.
package powerline

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// output is the part of *gpiocdev.Line in use.
type output interface {
	SetValue(value int) error
	Close() error
}

var requestLine = func(chip string, offset int) (output, error) {
	return gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(1))
}

// Line is a GPIO line driven high while the LEDs are powered.
type Line struct {
	name string
	mu   sync.Mutex
	out  output
}

// Enable parses spec as "chip:offset", for example "gpiochip0:5" or "0:5",
// and drives that line high.
//
// An empty spec returns a Line that does nothing, so callers can always
// defer Close.
func Enable(spec string) (*Line, error) {
	if spec == "" {
		return &Line{}, nil
	}
	chip, offset, err := Parse(spec)
	if err != nil {
		return nil, err
	}
	out, err := requestLine(chip, offset)
	if err != nil {
		return nil, fmt.Errorf("powerline: failed to request %s: %w", spec, err)
	}
	return &Line{name: fmt.Sprintf("%s:%d", chip, offset), out: out}, nil
}

// Parse splits a "chip:offset" line spec. A bare chip number is expanded to
// "gpiochipN".
func Parse(spec string) (string, int, error) {
	chip, off, ok := strings.Cut(spec, ":")
	if !ok || chip == "" {
		return "", 0, fmt.Errorf("powerline: invalid line %q, want chip:offset", spec)
	}
	offset, err := strconv.Atoi(off)
	if err != nil || offset < 0 {
		return "", 0, fmt.Errorf("powerline: invalid offset in %q", spec)
	}
	if _, err := strconv.Atoi(chip); err == nil {
		chip = "gpiochip" + chip
	}
	return chip, offset, nil
}

func (l *Line) String() string {
	if l.name == "" {
		return "powerline(none)"
	}
	return "powerline(" + l.name + ")"
}

// Close drives the line low and releases it. It is safe to call more than
// once.
func (l *Line) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.out == nil {
		return nil
	}
	err := l.out.SetValue(0)
	if cerr := l.out.Close(); err == nil {
		err = cerr
	}
	l.out = nil
	return err
}
