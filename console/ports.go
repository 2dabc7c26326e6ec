// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package console

import (
	"errors"
	"fmt"
	"sync"

	"github.com/GermanBionicSystems/ledmatrix/ws2812"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

const (
	regShutdown    = 0x0c
	regDisplayTest = 0x0f
)

// MAX7219Port is a fake spi.PortCloser standing in for a chain of MAX7219
// units driving 8x8 matrices. Register writes are decoded and the matrices
// are rendered on a Dev of units*8 by 8 pixels.
//
// Code B decoding is not emulated: digit registers are always shown as raw
// rows.
type MAX7219Port struct {
	// On and Off are the LED colors.
	On, Off [3]byte

	mu        sync.Mutex
	dev       *Dev
	units     int
	rows      [][8]byte
	shutdown  bool
	test      bool
	connected bool
}

// NewMAX7219Port returns a port emulating cascaded matrices on dev. dev must
// be at least cascaded*8 by 8 pixels.
func NewMAX7219Port(cascaded int, dev *Dev) *MAX7219Port {
	return &MAX7219Port{
		On:    [3]byte{0xff, 0x20, 0x00},
		dev:   dev,
		units: cascaded,
		rows:  make([][8]byte, cascaded),
	}
}

func (p *MAX7219Port) String() string {
	return fmt.Sprintf("console-max7219(%d)", p.units)
}

// Close implements spi.PortCloser.
func (p *MAX7219Port) Close() error {
	return nil
}

// LimitSpeed implements spi.PortCloser.
func (p *MAX7219Port) LimitSpeed(f physic.Frequency) error {
	return nil
}

// Connect implements spi.Port.
func (p *MAX7219Port) Connect(f physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.connected {
		return nil, errors.New("console: Connect cannot be called twice")
	}
	p.connected = true
	return &fakeConn{name: p.String(), tx: p.tx}, nil
}

// tx decodes one chained write. The first register/data pair is the one that
// travels furthest down the chain; pairs shifted past the last unit are lost.
func (p *MAX7219Port) tx(w []byte) error {
	if len(w)%2 != 0 {
		return errors.New("console: max7219 writes are register/data pairs")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(w) / 2
	refresh := false
	for i := 0; i < n; i++ {
		unit := n - 1 - i
		if unit >= p.units {
			continue
		}
		reg, data := w[2*i], w[2*i+1]
		switch {
		case reg >= 1 && reg <= 8:
			p.rows[unit][8-reg] = data
			refresh = refresh || reg == 8
		case reg == regShutdown:
			p.shutdown = data&1 == 0
			refresh = true
		case reg == regDisplayTest:
			p.test = data&1 != 0
			refresh = true
		}
	}
	if !refresh {
		return nil
	}
	_, err := p.dev.Write(p.frameLocked())
	return err
}

func (p *MAX7219Port) frameLocked() []byte {
	width := p.units * 8
	rgb := make([]byte, 3*width*8)
	for y := 0; y < 8; y++ {
		for x := 0; x < width; x++ {
			on := p.rows[x/8][y]&(1<<(x%8)) != 0
			switch {
			case p.test:
				on = true
			case p.shutdown:
				on = false
			}
			c := p.Off
			if on {
				c = p.On
			}
			copy(rgb[3*(y*width+x):], c[:])
		}
	}
	return rgb
}

// WS2812Port is a fake spi.PortCloser standing in for a WS2812B chain. The
// bit stream is decoded and shown on a Dev.
type WS2812Port struct {
	mu        sync.Mutex
	dev       *Dev
	grb       []byte
	connected bool
}

// NewWS2812Port returns a port emulating a chain of dev's width*height LEDs.
func NewWS2812Port(dev *Dev) *WS2812Port {
	b := dev.Bounds()
	return &WS2812Port{dev: dev, grb: make([]byte, 3*b.Dx()*b.Dy())}
}

func (p *WS2812Port) String() string {
	return "console-ws2812"
}

// Close implements spi.PortCloser.
func (p *WS2812Port) Close() error {
	return nil
}

// LimitSpeed implements spi.PortCloser.
func (p *WS2812Port) LimitSpeed(f physic.Frequency) error {
	return nil
}

// Connect implements spi.Port.
func (p *WS2812Port) Connect(f physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.connected {
		return nil, errors.New("console: Connect cannot be called twice")
	}
	p.connected = true
	return &fakeConn{name: p.String(), tx: p.tx}, nil
}

func (p *WS2812Port) tx(w []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := ws2812.Decode(p.grb, w)
	rgb := make([]byte, len(p.grb))
	for i := 0; i+2 < n; i += 3 {
		rgb[i] = p.grb[i+1]
		rgb[i+1] = p.grb[i]
		rgb[i+2] = p.grb[i+2]
	}
	_, err := p.dev.Write(rgb)
	return err
}

// fakeConn is the write only spi.Conn handed out by the fake ports.
type fakeConn struct {
	name string
	tx   func(w []byte) error
}

func (c *fakeConn) String() string {
	return c.name
}

func (c *fakeConn) Duplex() conn.Duplex {
	return conn.Half
}

func (c *fakeConn) Tx(w, r []byte) error {
	if len(r) != 0 {
		return errors.New("console: reads are not supported")
	}
	return c.tx(w)
}

func (c *fakeConn) TxPackets(packets []spi.Packet) error {
	for _, pkt := range packets {
		if err := c.Tx(pkt.W, pkt.R); err != nil {
			return err
		}
	}
	return nil
}

var _ spi.PortCloser = &MAX7219Port{}
var _ spi.PortCloser = &WS2812Port{}
