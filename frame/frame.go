// Copyright ©2025 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package frame implements the raw notification frame type and the
// format classifier used to route frames whose source characteristic
// is not known.
//
// Classification is a heuristic. The standard format has no marker,
// so any buffer of two or more bytes that is not a vendor frame is
// reported as Standard. Callers that know which characteristic
// delivered a buffer should call the matching decoder directly.
package frame

import (
	"bytes"
	"errors"
	"regexp"
	"time"

	"github.com/kortschak/vitals/internal/field"
)

// Decode failures. Decoders wrap these so callers can distinguish
// length violations from readings that fail their sanity checks.
var (
	ErrShortFrame     = errors.New("frame too short")
	ErrFrameLength    = errors.New("invalid frame length")
	ErrInvalidReading = errors.New("invalid reading")
)

// VendorMarker is the two byte prefix of vendor composite frames.
var VendorMarker = [2]byte{0x53, 0x59}

// Format is the classification of a raw frame.
type Format uint8

//go:generate go tool golang.org/x/tools/cmd/stringer -type Format -linecomment
const (
	Unknown         Format = iota // unknown
	Standard                      // standard
	Vendor                        // vendor
	TextPassthrough               // text-passthrough
)

var printable = regexp.MustCompile(`^[\t\r\n\x20-\x7e]+$`)

// Classify returns the format of buf.
func Classify(buf []byte) Format {
	switch {
	case len(buf) >= 2 && buf[0] == VendorMarker[0] && buf[1] == VendorMarker[1]:
		return Vendor
	case len(buf) >= 2:
		return Standard
	}
	if printable.MatchString(field.UTF8(buf)) {
		return TextPassthrough
	}
	return Unknown
}

// RawFrame is a notification payload captured from a device. The
// payload is copied on construction and is never modified.
type RawFrame struct {
	data      []byte
	deviceID  string
	timestamp time.Time
}

// New returns a RawFrame holding a copy of data.
func New(deviceID string, timestamp time.Time, data []byte) RawFrame {
	return RawFrame{
		data:      bytes.Clone(data),
		deviceID:  deviceID,
		timestamp: timestamp,
	}
}

// Bytes returns a copy of the frame payload.
func (f RawFrame) Bytes() []byte { return bytes.Clone(f.data) }

// Len returns the length of the frame payload.
func (f RawFrame) Len() int { return len(f.data) }

// DeviceID returns the identifier of the device that sent the frame.
func (f RawFrame) DeviceID() string { return f.deviceID }

// Timestamp returns the capture time of the frame.
func (f RawFrame) Timestamp() time.Time { return f.timestamp }

// Format returns the classification of the frame payload.
func (f RawFrame) Format() Format { return Classify(f.data) }
