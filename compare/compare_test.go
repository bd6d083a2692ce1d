// Copyright ©2025 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compare

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)

func at(s int) time.Time { return t0.Add(time.Duration(s) * time.Second) }

func TestPairwise(t *testing.T) {
	sensor := []Sample{
		{Time: at(0), HR: 70, SpO2: 98},
		{Time: at(1), HR: 80, SpO2: 94},
		{Time: at(2), HR: 0, SpO2: 97},
		{Time: at(3), HR: 65, SpO2: 0},
		{Time: at(4), HR: 65, SpO2: 99},
	}
	reference := []Sample{
		{Time: at(0), HR: 72, SpO2: 98},
		{Time: at(1), HR: 74, SpO2: 97},
		{Time: at(2), HR: 75, SpO2: 97},
		{Time: at(3), HR: 60, SpO2: 96},
	}
	got := Pairwise(sensor, reference)

	assert.Equal(t, 4, got.Compared)
	assert.Len(t, got.HR, 3)
	assert.Len(t, got.SpO2, 3)
	assert.Equal(t, []Match{{Index: 1, Time: at(1), Sensor: 80, Reference: 74, Diff: 6}}, got.HRFlagged)
	assert.Equal(t, []Match{{Index: 1, Time: at(1), Sensor: 94, Reference: 97, Diff: 3}}, got.SpO2Flagged)
	assert.InDelta(t, (2+6+5)/3.0, got.MeanHRDiff(), 1e-12)
	assert.Equal(t, 6, got.MaxHRDiff())
	assert.InDelta(t, 1.0, got.MeanSpO2Diff(), 1e-12)
	assert.Equal(t, 3, got.MaxSpO2Diff())
}

func TestPairwiseEmpty(t *testing.T) {
	got := Pairwise(nil, []Sample{{HR: 60}})
	assert.Zero(t, got.Compared)
	assert.Zero(t, got.MeanHRDiff())
	assert.Zero(t, got.MaxSpO2Diff())
}

func TestPercentError(t *testing.T) {
	sensor := []Sample{
		{Time: at(0), HR: 66},
		{Time: at(10), HR: 90},
		{Time: at(20), HR: 0},
		{Time: at(30), HR: 70},
	}
	reference := []Sample{
		{Time: at(-1), HR: 50},
		{Time: at(1).Add(-500 * time.Millisecond), HR: 60},
		{Time: at(11), HR: 100},
		{Time: at(21), HR: 70},
		{Time: at(35), HR: 70},
	}
	got, ok := PercentError(sensor, reference, DefaultTolerance)
	require.True(t, ok)
	require.Len(t, got.Matches, 2)
	assert.Equal(t, 60, got.Matches[0].Reference)
	assert.Equal(t, 500*time.Millisecond, got.Matches[0].Offset)
	assert.InDelta(t, 10.0, got.Matches[0].PercentError, 1e-12)
	assert.InDelta(t, 10.0, got.Matches[1].PercentError, 1e-12)
	assert.InDelta(t, 10.0, got.Mean, 1e-12)
	assert.InDelta(t, 10.0, got.Max, 1e-12)
}

func TestPercentErrorNoMatch(t *testing.T) {
	_, ok := PercentError([]Sample{{Time: at(0), HR: 60}}, []Sample{{Time: at(5), HR: 60}}, DefaultTolerance)
	assert.False(t, ok)

	_, ok = PercentError([]Sample{{Time: at(0), HR: 60}}, []Sample{{Time: at(0), HR: 0}}, DefaultTolerance)
	assert.False(t, ok)
}
