// Copyright ©2025 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package field provides the little-endian field primitives shared by
// the notification decoders.
//
// All functions index buf directly; callers must check that buf is
// long enough for the field being read.
package field

import (
	"encoding/binary"
	"unicode/utf8"
)

// VoltageScale is the divisor mapping a 16-bit scaled voltage onto
// 0–5 V, so that 0xffff decodes to 5.0 V.
const VoltageScale = 13107.0

// Uint16 returns the unsigned little-endian 16-bit value at off.
func Uint16(buf []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(buf[off:])
}

// Int16 returns the two's complement little-endian 16-bit value at off.
func Int16(buf []byte, off int) int16 {
	return int16(binary.LittleEndian.Uint16(buf[off:]))
}

// Uint32 returns the unsigned little-endian 32-bit value at off.
func Uint32(buf []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(buf[off:])
}

// Voltage returns the voltage encoded by the little-endian pair lo, hi.
func Voltage(lo, hi byte) float64 {
	return float64(uint16(lo)|uint16(hi)<<8) / VoltageScale
}

// UTF8 returns buf as a string, or the empty string if buf is not
// valid UTF-8.
func UTF8(buf []byte) string {
	if !utf8.Valid(buf) {
		return ""
	}
	return string(buf)
}
