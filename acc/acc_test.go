// Copyright ©2025 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package acc

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kortschak/vitals/frame"
)

func TestFrameSize(t *testing.T) {
	assert.Equal(t, 124, FrameSize)
}

func TestDecodeLength(t *testing.T) {
	for _, n := range []int{0, 1, 4, 20, 123, 125, 244} {
		_, err := Decode(frame.New("band", time.Time{}, make([]byte, n)))
		assert.ErrorIs(t, err, frame.ErrFrameLength, "length %d", n)
	}
}

func TestDecodeZero(t *testing.T) {
	got, err := Decode(frame.New("band", time.Time{}, make([]byte, FrameSize)))
	require.NoError(t, err)
	assert.Len(t, got.Samples, Samples)
	for i, s := range got.Samples {
		assert.Equal(t, Sample{Index: i}, s)
	}
}

func TestDecode(t *testing.T) {
	buf := make([]byte, FrameSize)
	put := func(off int, v int16) {
		binary.LittleEndian.PutUint16(buf[off:], uint16(v))
	}
	binary.LittleEndian.PutUint32(buf, 0x01020304)
	for i := range Samples {
		put(xOffset+2*i, int16(i))
		put(yOffset+2*i, int16(-2*i))
		put(zOffset+2*i, 1000)
	}
	// Last sample is the 3-4-12 triangle scaled by 100.
	put(xOffset+2*19, -300)
	put(yOffset+2*19, 400)
	put(zOffset+2*19, 1200)

	ts := time.Unix(1700000000, 0)
	got, err := Decode(frame.New("band", ts, buf))
	require.NoError(t, err)

	assert.Equal(t, uint32(0x01020304), got.SecondCounter)
	assert.Equal(t, "band", got.DeviceID)
	assert.Equal(t, ts, got.Timestamp)
	for i, s := range got.Samples[:19] {
		assert.Equal(t, uint32(0x01020304), s.SecondCounter)
		assert.Equal(t, i, s.Index)
		assert.Equal(t, int16(i), s.X)
		assert.Equal(t, int16(-2*i), s.Y)
		assert.Equal(t, int16(1000), s.Z)
	}
	assert.Equal(t, Sample{X: -300, Y: 400, Z: 1200, Magnitude: 1300, SecondCounter: 0x01020304, Index: 19}, got.Samples[19])

	again, err := Decode(frame.New("band", ts, buf))
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestNewSample(t *testing.T) {
	assert.Equal(t, 5, NewSample(3, 4, 0).Magnitude)
	assert.Equal(t, 2, NewSample(1, 1, 1).Magnitude)
	assert.Equal(t, 56756, NewSample(-32768, -32768, -32768).Magnitude)
}
