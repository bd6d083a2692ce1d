// Copyright ©2025 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package plx implements decoding of pulse oximeter continuous
// measurement notifications.
//
// The sensor firmware sends SpO2 and pulse rate as plain little-endian
// integers rather than the SFLOAT values of the Bluetooth PLX profile,
// so the payload has a fixed five byte layout:
//
//	| flags | spo2 (LE16) | pulse rate (LE16) |
package plx

import (
	"fmt"
	"time"

	"github.com/kortschak/vitals/frame"
	"github.com/kortschak/vitals/internal/field"
)

const (
	ServiceID               = "1822"
	ContinuousMeasurementID = "2a5f"
)

const (
	spo2Offset  = 1
	pulseOffset = 3
	size        = 5
)

// Reading is an SpO2 measurement.
type Reading struct {
	SpO2      uint16 // %
	PulseRate uint16 // BPM

	// PerfusionIndex is only available from sources
	// that report it; HasPerfusionIndex is set when
	// it is valid.
	PerfusionIndex    float64 // %
	HasPerfusionIndex bool

	DeviceID  string
	Timestamp time.Time
}

// Decode returns the SpO2 measurement held in f.
func Decode(f frame.RawFrame) (Reading, error) {
	var m Reading
	err := m.UnmarshalBinary(f.Bytes())
	if err != nil {
		return Reading{}, err
	}
	m.DeviceID = f.DeviceID()
	m.Timestamp = f.Timestamp()
	return m, nil
}

func (m *Reading) UnmarshalBinary(data []byte) error {
	if len(data) < size {
		return fmt.Errorf("spo2: %w: %d bytes", frame.ErrShortFrame, len(data))
	}
	*m = Reading{
		SpO2:      field.Uint16(data, spo2Offset),
		PulseRate: field.Uint16(data, pulseOffset),
	}
	return nil
}
