// Copyright ©2025 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kortschak/vitals/frame"
)

func TestDecode(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	got, err := Decode(frame.New("band", ts, []byte{3, 95, 0x00, 0x33, 1}))
	require.NoError(t, err)

	assert.Equal(t, Skin, got.Status)
	assert.True(t, got.Status.Worn())
	assert.Equal(t, uint8(95), got.Confidence)
	assert.InDelta(t, 13056.0/13107.0, got.Voltage, 1e-9)
	assert.InDelta(t, 0.9961, got.Voltage, 1e-4)
	assert.True(t, got.Charging)
	assert.Equal(t, "band", got.DeviceID)
	assert.Equal(t, ts, got.Timestamp)
}

func TestDecodeChargingFlag(t *testing.T) {
	for flag, want := range map[byte]bool{0: false, 1: true, 2: false, 0xff: false} {
		got, err := Decode(frame.New("band", time.Time{}, []byte{0, 0, 0xff, 0xff, flag}))
		require.NoError(t, err)
		assert.Equal(t, want, got.Charging, "flag %d", flag)
		assert.InDelta(t, 5.0, got.Voltage, 1e-9)
	}
}

func TestDecodeInvalid(t *testing.T) {
	for n := 0; n < size; n++ {
		_, err := Decode(frame.New("band", time.Time{}, make([]byte, n)))
		assert.ErrorIs(t, err, frame.ErrShortFrame, "length %d", n)
	}

	_, err := Decode(frame.New("band", time.Time{}, []byte{4, 50, 0, 0, 0}))
	assert.ErrorIs(t, err, frame.ErrInvalidReading)

	_, err = Decode(frame.New("band", time.Time{}, []byte{3, 101, 0, 0, 0}))
	assert.ErrorIs(t, err, frame.ErrInvalidReading)
}

func TestContactString(t *testing.T) {
	assert.Equal(t, "no-contact", Off.String())
	assert.Equal(t, "no-contact", NoContact.String())
	assert.Equal(t, "object", Object.String())
	assert.Equal(t, "skin", Skin.String())
	assert.Equal(t, "Contact(7)", Contact(7).String())
	assert.False(t, Object.Worn())
}
