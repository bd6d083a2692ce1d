// Copyright ©2025 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package battery implements decoding of the standard 180f Bluetooth
// battery service level characteristic and analysis of battery
// voltage over time.
//
// A level above 100 % is rejected as an invalid reading.
package battery

import (
	"fmt"
	"time"

	"github.com/kortschak/vitals/frame"
)

const (
	ServiceID             = "180f"
	LevelCharacteristicID = "2a19"
)

// Level is a battery level reading.
type Level struct {
	Level uint8 // %

	Voltage    float64 // V
	HasVoltage bool

	Charging    bool
	HasCharging bool

	DeviceID  string
	Timestamp time.Time
}

// Decode returns the battery level held in f.
func Decode(f frame.RawFrame) (Level, error) {
	// https://www.bluetooth.com/specifications/specs/battery-service/
	var l Level
	err := l.UnmarshalBinary(f.Bytes())
	if err != nil {
		return Level{}, err
	}
	l.DeviceID = f.DeviceID()
	l.Timestamp = f.Timestamp()
	return l, nil
}

func (l *Level) UnmarshalBinary(data []byte) error {
	if len(data) < 1 {
		return fmt.Errorf("battery: %w: %d bytes", frame.ErrShortFrame, len(data))
	}
	if data[0] > 100 {
		return fmt.Errorf("battery: %w: level %d", frame.ErrInvalidReading, data[0])
	}
	*l = Level{Level: data[0]}
	return nil
}

// WithStatus returns a copy of l carrying the voltage and charging
// state reported by a device status notification.
func (l Level) WithStatus(voltage float64, charging bool) Level {
	l.Voltage = voltage
	l.HasVoltage = true
	l.Charging = charging
	l.HasCharging = true
	return l
}
