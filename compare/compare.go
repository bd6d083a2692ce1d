// Copyright ©2025 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compare implements agreement checks between sensor readings
// and readings from a reference device such as a phone or watch.
package compare

import (
	"math"
	"time"
)

// Agreement thresholds.
const (
	HRThreshold   = 5 // BPM
	SpO2Threshold = 2 // %

	// DefaultTolerance is the largest time offset allowed when
	// matching samples by time.
	DefaultTolerance = 2 * time.Second
)

// Sample is a heart rate and SpO2 observation. Zero values mean no
// measurement.
type Sample struct {
	Time time.Time
	HR   int // BPM
	SpO2 int // %
}

// Match is a pair of corresponding sensor and reference values.
type Match struct {
	Index     int
	Time      time.Time
	Sensor    int
	Reference int
	Diff      int // Absolute difference.
}

// Report is the result of a one-to-one comparison.
type Report struct {
	// Compared is the number of sample pairs compared. It is
	// less than the length of one of the inputs if their
	// lengths differ.
	Compared int

	HR, SpO2 []Match
	// HRFlagged and SpO2Flagged hold the matches that
	// differ by more than the agreement thresholds.
	HRFlagged, SpO2Flagged []Match
}

// MeanHRDiff returns the mean absolute heart rate difference.
func (r Report) MeanHRDiff() float64 { return meanDiff(r.HR) }

// MaxHRDiff returns the largest absolute heart rate difference.
func (r Report) MaxHRDiff() int { return maxDiff(r.HR) }

// MeanSpO2Diff returns the mean absolute SpO2 difference.
func (r Report) MeanSpO2Diff() float64 { return meanDiff(r.SpO2) }

// MaxSpO2Diff returns the largest absolute SpO2 difference.
func (r Report) MaxSpO2Diff() int { return maxDiff(r.SpO2) }

// Pairwise compares sensor and reference samples by position. Both
// inputs must be in the same time order. Pairs where either value is
// zero are not compared.
func Pairwise(sensor, reference []Sample) Report {
	n := min(len(sensor), len(reference))
	r := Report{Compared: n}
	for i := range n {
		s, ref := sensor[i], reference[i]
		if s.HR > 0 && ref.HR > 0 {
			m := Match{Index: i, Time: ref.Time, Sensor: s.HR, Reference: ref.HR, Diff: abs(s.HR - ref.HR)}
			r.HR = append(r.HR, m)
			if m.Diff > HRThreshold {
				r.HRFlagged = append(r.HRFlagged, m)
			}
		}
		if s.SpO2 > 0 && ref.SpO2 > 0 {
			m := Match{Index: i, Time: ref.Time, Sensor: s.SpO2, Reference: ref.SpO2, Diff: abs(s.SpO2 - ref.SpO2)}
			r.SpO2 = append(r.SpO2, m)
			if m.Diff > SpO2Threshold {
				r.SpO2Flagged = append(r.SpO2Flagged, m)
			}
		}
	}
	return r
}

// PercentMatch is a time-matched heart rate pair.
type PercentMatch struct {
	Time         time.Time
	Sensor       int
	Reference    int
	PercentError float64 // |sensor-reference|/reference × 100
	Offset       time.Duration
}

// ErrorSummary is the heart rate percent error of a sensor against a
// reference.
type ErrorSummary struct {
	Matches []PercentMatch
	Mean    float64 // %
	Max     float64 // %
}

// PercentError matches each sensor heart rate to the closest reference
// sample within tol and returns the absolute percent error of the
// matched pairs. It returns false if no pairs match.
func PercentError(sensor, reference []Sample, tol time.Duration) (ErrorSummary, bool) {
	var s ErrorSummary
	var sum float64
	for _, v := range sensor {
		if v.HR == 0 {
			continue
		}
		ref, offset, ok := closest(v.Time, reference, tol)
		if !ok || ref.HR <= 0 {
			continue
		}
		pe := math.Abs(float64(v.HR-ref.HR)) / float64(ref.HR) * 100
		s.Matches = append(s.Matches, PercentMatch{
			Time:         v.Time,
			Sensor:       v.HR,
			Reference:    ref.HR,
			PercentError: pe,
			Offset:       offset,
		})
		sum += pe
		s.Max = max(s.Max, pe)
	}
	if len(s.Matches) == 0 {
		return ErrorSummary{}, false
	}
	s.Mean = sum / float64(len(s.Matches))
	return s, true
}

func closest(t time.Time, samples []Sample, tol time.Duration) (Sample, time.Duration, bool) {
	var (
		best  Sample
		delta time.Duration
		found bool
	)
	for _, s := range samples {
		d := s.Time.Sub(t)
		if d < 0 {
			d = -d
		}
		if d <= tol && (!found || d < delta) {
			best, delta, found = s, d, true
		}
	}
	return best, delta, found
}

func meanDiff(m []Match) float64 {
	if len(m) == 0 {
		return 0
	}
	var sum int
	for _, v := range m {
		sum += v.Diff
	}
	return float64(sum) / float64(len(m))
}

func maxDiff(m []Match) int {
	var d int
	for _, v := range m {
		d = max(d, v.Diff)
	}
	return d
}

func abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}
