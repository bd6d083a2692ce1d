// Copyright ©2025 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hrv

import "fmt"

// Level is the classification of a single HRV statistic.
type Level uint8

//go:generate go tool golang.org/x/tools/cmd/stringer -type Level,Tier -linecomment
const (
	Low    Level = iota // low
	Normal              // normal
	High                // high
)

// Tier is the overall qualitative HRV assessment.
type Tier uint8

const (
	Poor      Tier = iota // poor
	Fair                  // fair
	Good                  // good
	Excellent             // excellent
)

// Classification thresholds in ms. Values on a boundary are Normal.
const (
	rmssdLow  = 20
	rmssdHigh = 50
	sdnnLow   = 50
	sdnnHigh  = 100
)

// Interpretation is a qualitative reading of a set of HRV metrics.
type Interpretation struct {
	RMSSD   Level
	SDNN    Level
	Overall Tier
	Summary string
}

// Interpret returns the qualitative interpretation of m.
func Interpret(m Metrics) Interpretation {
	rmssd := classify(m.RMSSD, rmssdLow, rmssdHigh)
	sdnn := classify(m.SDNN, sdnnLow, sdnnHigh)
	var overall Tier
	switch {
	case rmssd == Low && sdnn == Low:
		overall = Poor
	case rmssd == Low || sdnn == Low:
		overall = Fair
	case rmssd == Normal && sdnn == Normal:
		overall = Good
	default:
		overall = Excellent
	}
	return Interpretation{
		RMSSD:   rmssd,
		SDNN:    sdnn,
		Overall: overall,
		Summary: fmt.Sprintf("%s HRV: RMSSD %.1f ms (%s), SDNN %.1f ms (%s)", overall, m.RMSSD, rmssd, m.SDNN, sdnn),
	}
}

func classify(v, low, high float64) Level {
	switch {
	case v < low:
		return Low
	case v > high:
		return High
	default:
		return Normal
	}
}
