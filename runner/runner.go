// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package runner runs a display session: acquire an LED matrix, scroll a
// message on it and report the outcome on the console.
//
// Every failure, whether the device could not be acquired or the message
// could not be rendered, is caught once at the top of Run, reported with a
// remediation hint and returned. Whether that failure changes the process
// exit status is decided by ExitCode.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3"
)

// Console lines written by Run.
const (
	InitializedLine = "Device initialized. Displaying message..."
	DisplayedLine   = "Message displayed. Exiting."
	ErrorPrefix     = "An error occurred: "
	RemediationHint = "Ensure SPI is enabled and the library is installed correctly."
)

// Device is an acquired display handle.
type Device interface {
	// ShowMessage scrolls text and blocks until the animation is complete.
	ShowMessage(ctx context.Context, text string) error
}

// Driver hands out display handles.
type Driver interface {
	// Matrix acquires a matrix display made of cascaded modules.
	Matrix(cascaded int) (Device, error)
}

// DriverFunc adapts a function to Driver.
type DriverFunc func(cascaded int) (Device, error)

// Matrix implements Driver.
func (f DriverFunc) Matrix(cascaded int) (Device, error) {
	return f(cascaded)
}

// Runner is a single display session.
type Runner struct {
	Driver Driver
	Config Config
	// Out receives the console lines. Defaults to os.Stdout.
	Out io.Writer
	// Log defaults to the logrus standard logger.
	Log logrus.FieldLogger
}

// Run acquires the device, renders Config.Message and reports the outcome.
//
// Errors are reported on Out and returned as *HardwareError; Run never
// panics because of the driver.
func (r *Runner) Run(ctx context.Context) error {
	out := r.Out
	if out == nil {
		out = os.Stdout
	}
	log := r.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	cfg := r.Config
	cfg.setDefaults()

	err := r.run(ctx, out, log, cfg)
	if err != nil {
		log.WithError(err).Error("display session failed")
		fmt.Fprintln(out, ErrorPrefix+err.Error())
		fmt.Fprintln(out, RemediationHint)
	}
	return err
}

func (r *Runner) run(ctx context.Context, out io.Writer, log logrus.FieldLogger, cfg Config) error {
	if r.Driver == nil {
		return &HardwareError{Op: OpAcquire, Err: errors.New("no display driver available")}
	}
	var dev Device
	err := guard(OpAcquire, func() error {
		var err error
		dev, err = r.Driver.Matrix(cfg.Cascaded)
		return err
	})
	if err != nil {
		return err
	}
	if dev == nil {
		return &HardwareError{Op: OpAcquire, Err: errors.New("driver returned no device")}
	}
	log.WithField("cascaded", cfg.Cascaded).Debug("device acquired")
	if cfg.HaltOnExit {
		if res, ok := dev.(conn.Resource); ok {
			defer func() {
				if err := res.Halt(); err != nil {
					log.WithError(err).Warn("failed to halt device")
				}
			}()
		}
	}

	fmt.Fprintln(out, InitializedLine)
	err = guard(OpRender, func() error {
		return dev.ShowMessage(ctx, cfg.Message)
	})
	if err != nil {
		return err
	}
	log.WithField("message", cfg.Message).Debug("message rendered")
	fmt.Fprintln(out, DisplayedLine)
	return nil
}

// guard runs fn, turning both returned errors and panics into a
// *HardwareError for op.
func guard(op Op, fn func() error) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &HardwareError{Op: op, Err: fmt.Errorf("%v", v)}
		}
	}()
	if err := fn(); err != nil {
		return &HardwareError{Op: op, Err: err}
	}
	return nil
}

// ExitCode returns the process exit status for the outcome of Run.
//
// Without strict, a failed session still exits 0: the failure has already
// been reported on the console. With strict, failures exit 1 so scripts and
// supervisors can notice.
func ExitCode(err error, strict bool) int {
	if err != nil && strict {
		return 1
	}
	return 0
}
