// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// spiloopback checks an SPI port with MOSI wired to MISO: it sends a message
// and verifies the same bytes come back.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

const (
	message    = "Hello Luckfox SPI Loopback!"
	bufferSize = 32
)

var errMismatch = errors.New("loopback data mismatch")

// loopback runs one full duplex transfer of a bufferSize buffer holding
// message and reports the result on out.
func loopback(p spi.Port, f physic.Frequency, out io.Writer) error {
	c, err := p.Connect(f, spi.Mode0, 8)
	if err != nil {
		return err
	}
	w := make([]byte, bufferSize)
	copy(w, message)
	r := make([]byte, bufferSize)
	if err := c.Tx(w, r); err != nil {
		return fmt.Errorf("failed to perform SPI transfer: %w", err)
	}
	fmt.Fprintf(out, "Sent: %s\n", cstring(w))
	fmt.Fprintf(out, "Received: %s\n", cstring(r))
	if !bytes.Equal(w, r) {
		fmt.Fprintln(out, "Loopback test failed, data mismatch.")
		return errMismatch
	}
	fmt.Fprintln(out, "Loopback test successful!")
	return nil
}

// cstring returns b up to its first NUL.
func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func mainImpl() error {
	spiName := flag.String("spi", "", "SPI port to use")
	hz := physic.MegaHertz
	flag.Var(&hz, "hz", "SPI port speed")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	if flag.NArg() != 0 {
		return fmt.Errorf("unexpected argument: %s", flag.Arg(0))
	}
	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if _, err := host.Init(); err != nil {
		return err
	}
	p, err := spireg.Open(*spiName)
	if err != nil {
		return err
	}
	defer p.Close()
	logrus.WithFields(logrus.Fields{"port": p.String(), "speed": hz}).Debug("transferring")
	return loopback(p, hz, os.Stdout)
}

func main() {
	if err := mainImpl(); err != nil {
		if !errors.Is(err, errMismatch) {
			fmt.Fprintf(os.Stderr, "spiloopback: %s.\n", err)
		}
		os.Exit(1)
	}
}
