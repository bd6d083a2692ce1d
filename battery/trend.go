// Copyright ©2025 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package battery

import (
	"cmp"
	"math"
	"slices"
	"time"
)

// Cell voltage bounds used to estimate the full charge or discharge time.
const (
	EmptyVoltage = 3.3 // V
	FullVoltage  = 4.2 // V
)

// VoltageSample is a battery voltage observed at a point in a session.
type VoltageSample struct {
	Elapsed time.Duration
	Voltage float64 // V
}

// Trend is a least-squares linear fit of battery voltage over time.
type Trend struct {
	Slope     float64 // V/s, positive when charging.
	Intercept float64 // V at the first retained sample.
	RSquared  float64

	RatePerHour float64 // |Slope| in V/h.

	// EmptyAt and FullAt are the fitted times, relative to the
	// first retained sample, at which the line crosses EmptyVoltage
	// and FullVoltage. ChargeTime is the absolute difference.
	// Crossings too distant to represent saturate at the
	// limits of the Duration range.
	EmptyAt    time.Duration
	FullAt     time.Duration
	ChargeTime time.Duration

	Samples int
}

// Fit returns the linear voltage trend of samples. Samples with a
// voltage outside (0, 10) V are ignored. Fit returns false if fewer
// than two samples remain or if the voltage is effectively constant.
func Fit(samples []VoltageSample) (Trend, bool) {
	valid := make([]VoltageSample, 0, len(samples))
	for _, s := range samples {
		if s.Voltage > 0 && s.Voltage < 10 {
			valid = append(valid, s)
		}
	}
	if len(valid) < 2 {
		return Trend{}, false
	}
	slices.SortStableFunc(valid, func(a, b VoltageSample) int {
		return cmp.Compare(a.Elapsed, b.Elapsed)
	})

	n := float64(len(valid))
	start := valid[0].Elapsed
	var sx, sy float64
	for _, s := range valid {
		sx += (s.Elapsed - start).Seconds()
		sy += s.Voltage
	}
	mx, my := sx/n, sy/n
	var sxx, syy, sxy float64
	for _, s := range valid {
		dx := (s.Elapsed - start).Seconds() - mx
		dy := s.Voltage - my
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	if sxx == 0 {
		return Trend{}, false
	}
	slope := sxy / sxx
	if math.Abs(slope) < 1e-10 {
		return Trend{}, false
	}
	intercept := my - slope*mx
	var r2 float64
	if syy != 0 {
		r2 = sxy * sxy / (sxx * syy)
	}

	emptyAt := (EmptyVoltage - intercept) / slope
	fullAt := (FullVoltage - intercept) / slope
	return Trend{
		Slope:       slope,
		Intercept:   intercept,
		RSquared:    r2,
		RatePerHour: math.Abs(slope) * 3600,
		EmptyAt:     seconds(emptyAt),
		FullAt:      seconds(fullAt),
		ChargeTime:  seconds(math.Abs(fullAt - emptyAt)),
		Samples:     len(valid),
	}, true
}

// seconds returns s seconds as a Duration, saturating at the limits of
// the Duration range.
func seconds(s float64) time.Duration {
	ns := s * float64(time.Second)
	switch {
	case math.IsNaN(ns):
		return 0
	case ns >= math.MaxInt64:
		return math.MaxInt64
	case ns <= math.MinInt64:
		return math.MinInt64
	}
	return time.Duration(ns)
}
