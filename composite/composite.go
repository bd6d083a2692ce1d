// Copyright ©2025 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package composite implements decoding of vendor composite
// notifications and routing of frames of unknown origin to the
// appropriate decoder.
//
// Vendor frames begin with the two byte marker 0x53 0x59 and carry
// sub-frames identified by their own two byte markers. The only
// sub-frame currently recognised is the heart rate sub-frame,
// 0x85 0x02 followed by a single heart rate byte.
//
// When a vendor frame carries no recognised sub-frame it is decoded by
// BestEffort, which reads the first two bytes as heart rate and SpO2.
// That interpretation is a fallback, not part of any protocol, and
// readings produced by it are marked as such.
package composite

import (
	"errors"
	"fmt"
	"time"

	"github.com/kortschak/vitals/acc"
	"github.com/kortschak/vitals/battery"
	"github.com/kortschak/vitals/frame"
	"github.com/kortschak/vitals/heart"
	"github.com/kortschak/vitals/plx"
	"github.com/kortschak/vitals/serial"
	"github.com/kortschak/vitals/status"
)

var (
	// ErrNotVendor is returned by DecodeVendor for frames
	// without the vendor marker.
	ErrNotVendor = errors.New("not a vendor frame")
	// ErrUnknownFormat is returned by Decode for frames that
	// cannot be classified.
	ErrUnknownFormat = errors.New("unknown frame format")
	// ErrMalformed is returned by Decode when a decoder fails
	// unexpectedly.
	ErrMalformed = errors.New("malformed frame")
)

// minVendorSize is the shortest vendor frame that can hold a marker
// and a sub-frame.
const minVendorSize = 6

// hrSubFrame is the marker of a heart rate sub-frame.
var hrSubFrame = [2]byte{0x85, 0x02}

// Reading is the set of readings obtained from a device in a single
// notification cycle.
type Reading struct {
	HeartRate     *heart.Rate
	SpO2          *plx.Reading
	Battery       *battery.Level
	Status        *status.Misc
	Accelerometer *acc.Buffer

	ConnectionStrength int // RSSI in dBm.

	// BestEffort is set when the reading was produced
	// by the fallback interpretation.
	BestEffort bool

	DeviceID  string
	Timestamp time.Time
}

// Empty returns whether r holds no readings.
func (r Reading) Empty() bool {
	return r.HeartRate == nil && r.SpO2 == nil && r.Battery == nil && r.Status == nil && r.Accelerometer == nil
}

// Merge returns r with the readings held by o that are absent from r
// added. When the result holds both a battery level and a device
// status, the battery level carries the status voltage and charging
// state.
func (r Reading) Merge(o Reading) Reading {
	if r.HeartRate == nil {
		r.HeartRate = o.HeartRate
	}
	if r.SpO2 == nil {
		r.SpO2 = o.SpO2
	}
	if r.Battery == nil {
		r.Battery = o.Battery
	}
	if r.Status == nil {
		r.Status = o.Status
	}
	if r.Accelerometer == nil {
		r.Accelerometer = o.Accelerometer
	}
	if r.Battery != nil && r.Status != nil {
		b := r.Battery.WithStatus(r.Status.Voltage, r.Status.Charging)
		r.Battery = &b
	}
	if r.ConnectionStrength == 0 {
		r.ConnectionStrength = o.ConnectionStrength
	}
	if r.DeviceID == "" {
		r.DeviceID = o.DeviceID
	}
	if o.Timestamp.After(r.Timestamp) {
		r.Timestamp = o.Timestamp
	}
	r.BestEffort = r.BestEffort || o.BestEffort
	return r
}

// Decode classifies f and decodes it with the matching decoder. rssi is
// the connection strength reported by the transport.
//
// Classification cannot distinguish a malformed vendor frame from a
// standard heart rate frame, so callers that know the source
// characteristic of f should use its decoder directly.
func Decode(f frame.RawFrame, rssi int) (r Reading, err error) {
	defer func() {
		if p := recover(); p != nil {
			r = Reading{}
			err = fmt.Errorf("%w: %v", ErrMalformed, p)
		}
	}()

	switch format := f.Format(); format {
	case frame.Vendor:
		return DecodeVendor(f, rssi)
	case frame.Standard:
		hr, err := heart.Decode(f)
		if err != nil {
			return Reading{}, err
		}
		return Reading{
			HeartRate:          &hr,
			ConnectionStrength: rssi,
			DeviceID:           f.DeviceID(),
			Timestamp:          f.Timestamp(),
		}, nil
	case frame.TextPassthrough:
		l, err := serial.Decode(f)
		if err != nil {
			return Reading{}, err
		}
		return FromLine(l, rssi), nil
	default:
		return Reading{}, fmt.Errorf("%w: %d bytes", ErrUnknownFormat, f.Len())
	}
}

// DecodeVendor returns the readings held in the vendor frame f. If f
// holds no recognised sub-frame, the result of BestEffort is returned.
func DecodeVendor(f frame.RawFrame, rssi int) (Reading, error) {
	data := f.Bytes()
	if frame.Classify(data) != frame.Vendor {
		return Reading{}, fmt.Errorf("composite: %w", ErrNotVendor)
	}
	if len(data) < minVendorSize {
		return Reading{}, fmt.Errorf("composite: %w: %d bytes", frame.ErrShortFrame, len(data))
	}

	r := Reading{
		ConnectionStrength: rssi,
		DeviceID:           f.DeviceID(),
		Timestamp:          f.Timestamp(),
	}
	for i := 2; i <= len(data)-2; i++ {
		switch [2]byte{data[i], data[i+1]} {
		case hrSubFrame:
			if i+2 >= len(data) {
				break
			}
			if r.HeartRate == nil {
				r.HeartRate = &heart.Rate{
					HR:               uint16(data[i+2]),
					Energy:           -1,
					Contact:          true,
					ContactSupported: true,
					DeviceID:         f.DeviceID(),
					Timestamp:        f.Timestamp(),
				}
			}
			i += 2
		}
	}
	if r.Empty() {
		return BestEffort(f, rssi)
	}
	return r, nil
}

// BestEffort returns a reading interpreting the first byte of f as a
// heart rate and the second, if present, as SpO2 with the heart rate
// standing in for the pulse rate.
func BestEffort(f frame.RawFrame, rssi int) (Reading, error) {
	data := f.Bytes()
	if len(data) < 1 {
		return Reading{}, fmt.Errorf("composite: %w: %d bytes", frame.ErrShortFrame, len(data))
	}
	r := Reading{
		HeartRate: &heart.Rate{
			HR:        uint16(data[0]),
			Energy:    -1,
			DeviceID:  f.DeviceID(),
			Timestamp: f.Timestamp(),
		},
		ConnectionStrength: rssi,
		BestEffort:         true,
		DeviceID:           f.DeviceID(),
		Timestamp:          f.Timestamp(),
	}
	if len(data) > 1 {
		r.SpO2 = &plx.Reading{
			SpO2:      uint16(data[1]),
			PulseRate: uint16(data[0]),
			DeviceID:  f.DeviceID(),
			Timestamp: f.Timestamp(),
		}
	}
	return r, nil
}

// FromLine returns the readings held in a firmware measurement line.
// Zero values in the line are treated as absent measurements.
func FromLine(l serial.Line, rssi int) Reading {
	r := Reading{
		ConnectionStrength: rssi,
		DeviceID:           l.DeviceID,
		Timestamp:          l.Timestamp,
	}
	if l.HR > 0 {
		r.HeartRate = &heart.Rate{
			HR:        uint16(l.HR),
			Energy:    -1,
			DeviceID:  l.DeviceID,
			Timestamp: l.Timestamp,
		}
	}
	if l.SpO2 > 0 {
		r.SpO2 = &plx.Reading{
			SpO2:              uint16(l.SpO2),
			PulseRate:         uint16(l.HR),
			PerfusionIndex:    l.PI,
			HasPerfusionIndex: l.HasPI,
			DeviceID:          l.DeviceID,
			Timestamp:         l.Timestamp,
		}
	}
	return r
}
