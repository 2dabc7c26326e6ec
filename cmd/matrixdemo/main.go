// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// matrixdemo scrolls a message on MAX7219 8x8 LED matrices and reports on the
// console whether it worked.
//
// Use -fake to run it without hardware; the matrix is then drawn in the
// terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/GermanBionicSystems/ledmatrix/console"
	"github.com/GermanBionicSystems/ledmatrix/matrixtext"
	"github.com/GermanBionicSystems/ledmatrix/max7219"
	"github.com/GermanBionicSystems/ledmatrix/powerline"
	"github.com/GermanBionicSystems/ledmatrix/runner"
	"github.com/GermanBionicSystems/ledmatrix/sevensegment"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// matrix adapts a max7219.Dev to runner.Device.
type matrix struct {
	dev  *max7219.Dev
	opts max7219.MessageOpts
}

func (m *matrix) String() string {
	return m.dev.String()
}

func (m *matrix) Halt() error {
	return m.dev.Halt()
}

func (m *matrix) ShowMessage(ctx context.Context, text string) error {
	return m.dev.ShowMessage(ctx, text, &m.opts)
}

// session owns the hardware opened by the driver.
type session struct {
	log     logrus.FieldLogger
	cfg     runner.Config
	spiName string
	power   string
	font    string
	// screen is set to emulate the matrix on the terminal.
	screen *console.Dev

	line *powerline.Line
	port spi.PortCloser
}

func (s *session) open(cascaded int) (runner.Device, error) {
	line, err := powerline.Enable(s.power)
	if err != nil {
		return nil, err
	}
	s.line = line
	if s.screen != nil {
		s.port = console.NewMAX7219Port(cascaded, s.screen)
	} else {
		if _, err := host.Init(); err != nil {
			return nil, err
		}
		p, err := spireg.Open(s.spiName)
		if err != nil {
			return nil, err
		}
		s.port = p
	}
	s.log.WithField("port", s.port.String()).Debug("spi port opened")

	m, err := max7219.NewMatrix(s.port, cascaded)
	if err != nil {
		return nil, err
	}
	if s.cfg.Intensity >= 0 {
		if err := m.SetIntensity(byte(s.cfg.Intensity)); err != nil {
			return nil, err
		}
	}
	if s.cfg.SevenSegment {
		seg, err := sevensegment.New(m)
		if err != nil {
			return nil, err
		}
		seg.Delay = s.cfg.ScrollDelay
		return seg, nil
	}
	dev := &matrix{dev: m, opts: max7219.MessageOpts{Delay: s.cfg.ScrollDelay}}
	if s.font != "" {
		f, err := loadFont(s.font)
		if err != nil {
			return nil, err
		}
		dev.opts.Font = f
	}
	return dev, nil
}

func (s *session) close() {
	if s.port != nil {
		if err := s.port.Close(); err != nil {
			s.log.WithError(err).Warn("failed to close spi port")
		}
	}
	if s.line != nil {
		if err := s.line.Close(); err != nil {
			s.log.WithError(err).Warn("failed to power off")
		}
	}
}

// loadFont accepts "gomono", "goregular" or a path to a TrueType file.
func loadFont(name string) (max7219.Font, error) {
	switch name {
	case "gomono":
		return matrixtext.GoMono(8)
	case "goregular":
		return matrixtext.GoRegular(8)
	default:
		return matrixtext.Load(name, 8)
	}
}

func mainImpl(ctx context.Context, args []string, out io.Writer) int {
	fs := flag.NewFlagSet("matrixdemo", flag.ContinueOnError)
	fs.SetOutput(out)
	spiName := fs.String("spi", "", "SPI port to use")
	cascaded := fs.Int("cascaded", 1, "number of chained 8x8 matrices")
	message := fs.String("message", runner.DefaultMessage, "text to scroll")
	sevenSeg := fs.Bool("sevensegment", false, "drive 7-segment digits instead of a matrix")
	intensity := fs.Int("intensity", -1, "brightness 0-15, -1 keeps the driver default")
	delay := fs.Duration("delay", 0, "time per scroll step, 0 keeps the driver default")
	font := fs.String("font", "", "gomono, goregular or a .ttf file; empty uses the built-in 8x8 font")
	fake := fs.Bool("fake", false, "draw the matrix on the terminal instead of using SPI")
	strict := fs.Bool("strict", false, "exit with status 1 when the display fails")
	halt := fs.Bool("halt", false, "turn the display off before exiting")
	config := fs.String("config", "", "YAML configuration file; flags override it")
	power := fs.String("power", "", "GPIO line powering the matrix, as chip:offset")
	verbose := fs.Bool("v", false, "verbose mode")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(out, "unexpected argument: %s\n", fs.Arg(0))
		return 2
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg := runner.DefaultConfig()
	if *config != "" {
		var err error
		if cfg, err = runner.LoadConfig(*config); err != nil {
			fmt.Fprintln(out, err)
			return 2
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "cascaded":
			cfg.Cascaded = *cascaded
		case "message":
			cfg.Message = *message
		case "sevensegment":
			cfg.SevenSegment = *sevenSeg
		case "intensity":
			cfg.Intensity = *intensity
		case "delay":
			cfg.ScrollDelay = *delay
		case "strict":
			cfg.Strict = *strict
		case "halt":
			cfg.HaltOnExit = *halt
		}
	})
	if cfg.Cascaded <= 0 {
		fmt.Fprintf(out, "-cascaded must be positive, got %d\n", cfg.Cascaded)
		return 2
	}
	if cfg.Intensity > 15 {
		fmt.Fprintln(out, "-intensity must be at most 15")
		return 2
	}

	s := &session{log: log, cfg: cfg, spiName: *spiName, power: *power, font: *font}
	defer s.close()
	r := &runner.Runner{Driver: runner.DriverFunc(s.open), Config: cfg, Out: out, Log: log}
	if *fake {
		s.screen = console.New(&console.Opts{W: 8 * cfg.Cascaded, H: 8, Out: out})
		r.Out = s.screen.Text()
	}
	return runner.ExitCode(r.Run(ctx), cfg.Strict)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := mainImpl(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}
