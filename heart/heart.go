// Copyright ©2025 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package heart implements decoding of the standard 180d Bluetooth
// heart rate measurement characteristic.
package heart

import (
	"fmt"
	"time"

	"github.com/kortschak/vitals/frame"
	"github.com/kortschak/vitals/internal/field"
)

const (
	RateServiceID     = "180d"
	RateMeasurementID = "2a37"
)

// Flags field bits.
//
//	| 0x10 | 0x8 | 0x4  0x2 | 0x1 |
//	|  rr  | nrg | scs  cnt | fmt |
const (
	flagFormat16  = 0x01
	flagContact   = 0x06
	flagSupported = 0x04
	flagEnergy    = 0x08
	flagRR        = 0x10
)

// Rate is a heart rate measurement.
type Rate struct {
	HR               uint16
	RR               []time.Duration
	Energy           int // kJ, -1 when not present.
	EnergyExpended   bool
	Contact          bool
	ContactSupported bool

	DeviceID  string
	Timestamp time.Time
}

// Decode returns the heart rate measurement held in f.
func Decode(f frame.RawFrame) (Rate, error) {
	var m Rate
	err := m.UnmarshalBinary(f.Bytes())
	if err != nil {
		return Rate{}, err
	}
	m.DeviceID = f.DeviceID()
	m.Timestamp = f.Timestamp()
	return m, nil
}

func (m *Rate) UnmarshalBinary(data []byte) error {
	// https://www.bluetooth.com/specifications/specs/heart-rate-service-1-0/
	if len(data) < 2 {
		return fmt.Errorf("heart rate: %w: %d bytes", frame.ErrShortFrame, len(data))
	}

	flags := data[0]
	hrFormat := int(flags & flagFormat16)
	offset := 1
	if len(data) < offset+1+hrFormat {
		return fmt.Errorf("heart rate: %w: %d bytes for 16-bit value", frame.ErrShortFrame, len(data))
	}

	var hrValue uint16
	if hrFormat == 1 {
		hrValue = field.Uint16(data, offset)
	} else {
		hrValue = uint16(data[offset])
	}
	offset += 1 + hrFormat

	energy := -1
	energyExpended := false
	if flags&flagEnergy != 0 && len(data)-offset >= 2 {
		energy = int(field.Uint16(data, offset))
		energyExpended = true
		offset += 2
	}

	var rr []time.Duration
	if flags&flagRR != 0 {
		rrData := data[offset:]
		rr = make([]time.Duration, 0, len(rrData)/2)
		for i := 0; i+1 < len(rrData); i += 2 {
			rr = append(rr, time.Duration(field.Uint16(rrData, i))*time.Second/1024)
		}
	}

	r := Rate{
		HR:               hrValue,
		RR:               rr,
		Energy:           energy,
		EnergyExpended:   energyExpended,
		Contact:          flags&flagContact == flagContact,
		ContactSupported: flags&flagSupported != 0,
	}
	err := r.validate(hrFormat)
	if err != nil {
		return fmt.Errorf("heart rate: %w", err)
	}
	*m = r
	return nil
}

func (m Rate) validate(hrFormat int) error {
	switch {
	case hrFormat == 0 && m.HR > 0xff:
		return fmt.Errorf("%w: 8-bit rate %d", frame.ErrInvalidReading, m.HR)
	case m.EnergyExpended != (m.Energy >= 0):
		return fmt.Errorf("%w: energy %d with presence %t", frame.ErrInvalidReading, m.Energy, m.EnergyExpended)
	}
	for _, d := range m.RR {
		if d < 0 {
			return fmt.Errorf("%w: negative rr interval %v", frame.ErrInvalidReading, d)
		}
	}
	return nil
}
