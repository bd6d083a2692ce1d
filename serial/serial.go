// Copyright ©2025 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package serial implements parsing of the text measurement lines
// written by the sensor firmware on its text passthrough channel and
// debug serial port.
//
// A measurement line has the form
//
//	TIMESTAMP_MS: 12345 | HR: 72 | SpO2: 98
//
// optionally followed by "| PI: 1.3". The firmware also writes a
// synchronisation line when a central connects,
//
//	Connection timestamp set at millis: 12000
package serial

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"time"

	"github.com/kortschak/vitals/frame"
	"github.com/kortschak/vitals/internal/field"
)

// ErrNoMatch is returned when a line is not a measurement line.
var ErrNoMatch = errors.New("not a measurement line")

var (
	measurement = regexp.MustCompile(`TIMESTAMP_MS:\s*(\d+)\s*\|\s*HR:\s*(\d+)\s*\|\s*SpO2:\s*(\d+)(?:\s*\|\s*PI:\s*(\d+(?:\.\d+)?))?`)
	syncLine    = regexp.MustCompile(`Connection timestamp set at millis:\s*(\d+)`)
)

// Line is a parsed measurement line. Zero HR or SpO2 values indicate
// that the firmware had no measurement.
type Line struct {
	Millis uint64 // Device uptime in ms.
	HR     int    // BPM
	SpO2   int    // %

	PI    float64 // %
	HasPI bool

	DeviceID  string
	Timestamp time.Time
}

// Decode returns the measurement line held in f.
func Decode(f frame.RawFrame) (Line, error) {
	text := field.UTF8(f.Bytes())
	if text == "" {
		return Line{}, fmt.Errorf("serial: %w: not text", ErrNoMatch)
	}
	l, err := Parse(text)
	if err != nil {
		return Line{}, err
	}
	l.DeviceID = f.DeviceID()
	l.Timestamp = f.Timestamp()
	return l, nil
}

// Parse returns the measurement held in line.
func Parse(line string) (Line, error) {
	m := measurement.FindStringSubmatch(line)
	if m == nil {
		return Line{}, fmt.Errorf("serial: %w: %q", ErrNoMatch, line)
	}
	millis, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return Line{}, fmt.Errorf("serial: %w: timestamp: %v", frame.ErrInvalidReading, err)
	}
	hr, err := strconv.Atoi(m[2])
	if err != nil {
		return Line{}, fmt.Errorf("serial: %w: heart rate: %v", frame.ErrInvalidReading, err)
	}
	spo2, err := strconv.Atoi(m[3])
	if err != nil {
		return Line{}, fmt.Errorf("serial: %w: spo2: %v", frame.ErrInvalidReading, err)
	}
	if hr > 0xffff || spo2 > 100 {
		return Line{}, fmt.Errorf("serial: %w: hr=%d spo2=%d", frame.ErrInvalidReading, hr, spo2)
	}
	l := Line{Millis: millis, HR: hr, SpO2: spo2}
	if m[4] != "" {
		l.PI, err = strconv.ParseFloat(m[4], 64)
		if err != nil {
			return Line{}, fmt.Errorf("serial: %w: perfusion index: %v", frame.ErrInvalidReading, err)
		}
		l.HasPI = true
	}
	return l, nil
}

// Sync returns the device uptime reported by a connection
// synchronisation line.
func Sync(line string) (millis uint64, ok bool) {
	m := syncLine.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	millis, err := strconv.ParseUint(m[1], 10, 64)
	return millis, err == nil
}

// Log is the result of reading a firmware log.
type Log struct {
	Lines []Line
	// SyncMillis is the device uptime of the last connection
	// synchronisation line, and HasSync is set if one was seen.
	SyncMillis uint64
	HasSync    bool
	// Skipped is the number of lines that were neither
	// measurements nor synchronisation lines.
	Skipped int
}

// ReadLog reads measurement lines from r. The Timestamp of each line is
// set relative to start using the device uptime, and DeviceID is set
// to deviceID.
func ReadLog(r io.Reader, deviceID string, start time.Time) (Log, error) {
	var log Log
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		text := sc.Text()
		if millis, ok := Sync(text); ok {
			log.SyncMillis = millis
			log.HasSync = true
			continue
		}
		l, err := Parse(text)
		if errors.Is(err, ErrNoMatch) {
			log.Skipped++
			continue
		}
		if err != nil {
			return log, err
		}
		l.DeviceID = deviceID
		l.Timestamp = start.Add(time.Duration(l.Millis) * time.Millisecond)
		log.Lines = append(log.Lines, l)
	}
	return log, sc.Err()
}
