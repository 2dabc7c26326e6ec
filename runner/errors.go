// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package runner

import "errors"

// Op identifies the step of a display session that failed.
type Op string

// Session steps.
const (
	OpAcquire Op = "acquire"
	OpRender  Op = "render"
)

var (
	// ErrDeviceInit matches failures to acquire the device.
	ErrDeviceInit = errors.New("runner: device initialization failed")
	// ErrRender matches failures while showing the message.
	ErrRender = errors.New("runner: rendering failed")
)

// HardwareError is any failure of the hardware or its driver during a
// session. The message text is the driver's.
type HardwareError struct {
	Op  Op
	Err error
}

func (e *HardwareError) Error() string {
	return e.Err.Error()
}

func (e *HardwareError) Unwrap() error {
	return e.Err
}

// Is reports ErrDeviceInit or ErrRender depending on Op.
func (e *HardwareError) Is(target error) bool {
	switch target {
	case ErrDeviceInit:
		return e.Op == OpAcquire
	case ErrRender:
		return e.Op == OpRender
	}
	return false
}
