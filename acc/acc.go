// Copyright ©2025 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package acc implements decoding of buffered accelerometer
// notifications.
//
// A notification carries one second counter followed by twenty samples
// for each axis in separate blocks. There are no framing markers, so a
// notification of any other length is rejected; a short buffer usually
// means the connection negotiated an MTU too small for the frame.
//
//	| counter (LE32) | X[20] (LE16) | Y[20] (LE16) | Z[20] (LE16) |
package acc

import (
	"fmt"
	"math"
	"time"

	"github.com/kortschak/vitals/frame"
	"github.com/kortschak/vitals/internal/field"
)

// Samples is the number of samples in a buffered notification.
const Samples = 20

// Packet offsets.
const (
	counterOffset = 0
	xOffset       = 4
	yOffset       = xOffset + Samples*2
	zOffset       = yOffset + Samples*2

	// FrameSize is the exact length of a buffered notification.
	FrameSize = zOffset + Samples*2
)

// Sample is a single acceleration measurement.
type Sample struct {
	X, Y, Z   int16
	Magnitude int

	SecondCounter uint32
	Index         int // Position in the notification buffer.
}

// NewSample returns a Sample for the given axis values with its
// magnitude set.
func NewSample(x, y, z int16) Sample {
	fx, fy, fz := float64(x), float64(y), float64(z)
	return Sample{
		X: x, Y: y, Z: z,
		Magnitude: int(math.Round(math.Sqrt(fx*fx + fy*fy + fz*fz))),
	}
}

// Buffer is a buffered accelerometer notification.
type Buffer struct {
	SecondCounter uint32
	Samples       [Samples]Sample

	DeviceID  string
	Timestamp time.Time
}

// Decode returns the accelerometer samples held in f.
func Decode(f frame.RawFrame) (Buffer, error) {
	var b Buffer
	err := b.UnmarshalBinary(f.Bytes())
	if err != nil {
		return Buffer{}, err
	}
	b.DeviceID = f.DeviceID()
	b.Timestamp = f.Timestamp()
	return b, nil
}

func (b *Buffer) UnmarshalBinary(data []byte) error {
	if len(data) != FrameSize {
		return fmt.Errorf("accelerometer: %w: got %d bytes, want %d", frame.ErrFrameLength, len(data), FrameSize)
	}
	counter := field.Uint32(data, counterOffset)
	var samples [Samples]Sample
	for i := range samples {
		s := NewSample(
			field.Int16(data, xOffset+2*i),
			field.Int16(data, yOffset+2*i),
			field.Int16(data, zOffset+2*i),
		)
		s.SecondCounter = counter
		s.Index = i
		samples[i] = s
	}
	*b = Buffer{
		SecondCounter: counter,
		Samples:       samples,
	}
	return nil
}
