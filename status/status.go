// Copyright ©2025 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package status implements decoding of the vendor device status
// characteristic, which reports skin contact, measurement confidence,
// battery voltage and charging state.
//
//	| status | confidence | voltage (LE16) | charging |
//
// A status above Skin or a confidence above 100 % is rejected as an
// invalid reading.
package status

import (
	"fmt"
	"time"

	"github.com/kortschak/vitals/frame"
	"github.com/kortschak/vitals/internal/field"
)

// Packet offsets.
const (
	statusOffset     = 0
	confidenceOffset = 1
	voltageOffset    = 2
	chargingOffset   = 4
	size             = 5
)

// Contact is the sensor contact state.
type Contact uint8

//go:generate go tool golang.org/x/tools/cmd/stringer -type Contact -linecomment
const (
	Off       Contact = 0 // no-contact
	NoContact Contact = 1 // no-contact
	Object    Contact = 2 // object
	Skin      Contact = 3 // skin
)

// Worn returns whether the sensor is in contact with skin.
func (c Contact) Worn() bool { return c == Skin }

// Misc is a device status reading.
type Misc struct {
	Status     Contact
	Confidence uint8   // %
	Voltage    float64 // V
	Charging   bool

	DeviceID  string
	Timestamp time.Time
}

// Decode returns the device status held in f.
func Decode(f frame.RawFrame) (Misc, error) {
	var m Misc
	err := m.UnmarshalBinary(f.Bytes())
	if err != nil {
		return Misc{}, err
	}
	m.DeviceID = f.DeviceID()
	m.Timestamp = f.Timestamp()
	return m, nil
}

func (m *Misc) UnmarshalBinary(data []byte) error {
	if len(data) < size {
		return fmt.Errorf("status: %w: %d bytes", frame.ErrShortFrame, len(data))
	}
	s := Contact(data[statusOffset])
	if s > Skin {
		return fmt.Errorf("status: %w: contact state %d", frame.ErrInvalidReading, s)
	}
	confidence := data[confidenceOffset]
	if confidence > 100 {
		return fmt.Errorf("status: %w: confidence %d", frame.ErrInvalidReading, confidence)
	}
	*m = Misc{
		Status:     s,
		Confidence: confidence,
		Voltage:    field.Voltage(data[voltageOffset], data[voltageOffset+1]),
		Charging:   data[chargingOffset] == 1,
	}
	return nil
}
