// Copyright ©2025 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hrv implements time-domain heart rate variability analysis
// of RR interval sequences.
//
// Intervals outside [MinRR, MaxRR] are discarded before any statistic
// is computed, and no metrics are produced from fewer than MinSamples
// intervals.
package hrv

import (
	"math"
	"time"

	"github.com/kortschak/vitals/heart"
)

// Physiological bounds for analysis.
const (
	MinRR      = 300  // ms
	MaxRR      = 2000 // ms
	MaxHR      = 220  // BPM, exclusive
	MinSamples = 5
)

// Metrics is a set of time-domain HRV statistics.
type Metrics struct {
	RMSSD float64 // ms
	SDNN  float64 // ms
	PNN50 float64 // %

	MeanRR int // ms
	MeanHR int // BPM

	RRIntervals  []float64 // ms, the intervals used for analysis.
	ValidSamples int
}

// Analyze returns the HRV metrics for the RR intervals in rr, given in
// milliseconds. It returns false if there is insufficient data.
func Analyze(rr []float64) (Metrics, bool) {
	if len(rr) < MinSamples {
		return Metrics{}, false
	}
	valid := make([]float64, 0, len(rr))
	for _, v := range rr {
		if MinRR <= v && v <= MaxRR {
			valid = append(valid, v)
		}
	}
	if len(valid) < MinSamples {
		return Metrics{}, false
	}

	n := float64(len(valid))
	var sum float64
	for _, v := range valid {
		sum += v
	}
	meanRR := sum / n

	var ss float64
	for _, v := range valid {
		d := v - meanRR
		ss += d * d
	}
	sdnn := math.Sqrt(ss / n)

	var (
		sqDiff float64
		nn50   int
	)
	for i := 1; i < len(valid); i++ {
		d := valid[i] - valid[i-1]
		sqDiff += d * d
		if math.Abs(d) > 50 {
			nn50++
		}
	}
	diffs := float64(len(valid) - 1)

	return Metrics{
		RMSSD:        round1(math.Sqrt(sqDiff / diffs)),
		SDNN:         round1(sdnn),
		PNN50:        round1(100 * float64(nn50) / diffs),
		MeanRR:       int(math.Round(meanRR)),
		MeanHR:       int(math.Round(60000 / meanRR)),
		RRIntervals:  valid,
		ValidSamples: len(valid),
	}, true
}

// FromHeartRates returns the HRV metrics for a sequence of heart rate
// values in BPM. Values outside (0, MaxHR) are discarded and the rest
// are converted to RR intervals before analysis.
func FromHeartRates(hr []float64) (Metrics, bool) {
	if len(hr) < MinSamples {
		return Metrics{}, false
	}
	rr := make([]float64, 0, len(hr))
	for _, v := range hr {
		if 0 < v && v < MaxHR {
			rr = append(rr, 60000/v)
		}
	}
	return Analyze(rr)
}

// FromRates returns the HRV metrics for a heart rate reading history.
// RR intervals carried by the readings are used when any are present,
// otherwise the reported heart rates are converted.
func FromRates(rates []heart.Rate) (Metrics, bool) {
	var rr []time.Duration
	for _, r := range rates {
		rr = append(rr, r.RR...)
	}
	if len(rr) != 0 {
		return Analyze(Durations(rr))
	}
	hr := make([]float64, len(rates))
	for i, r := range rates {
		hr[i] = float64(r.HR)
	}
	return FromHeartRates(hr)
}

// Durations returns d as milliseconds.
func Durations(d []time.Duration) []float64 {
	ms := make([]float64, len(d))
	for i, v := range d {
		ms[i] = float64(v) / float64(time.Millisecond)
	}
	return ms
}

// round1 rounds half away from zero to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
