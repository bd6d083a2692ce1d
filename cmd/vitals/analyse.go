// Copyright ©2025 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kortschak/vitals/compare"
	"github.com/kortschak/vitals/hrv"
	"github.com/kortschak/vitals/serial"
)

func hrvAction(w io.Writer, bpm bool, args []string) error {
	var values []float64
	for _, a := range args {
		for _, f := range strings.FieldsFunc(a, func(r rune) bool { return r == ',' || r == ' ' }) {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return fmt.Errorf("invalid value %q: %w", f, err)
			}
			values = append(values, v)
		}
	}
	var (
		m  hrv.Metrics
		ok bool
	)
	if bpm {
		m, ok = hrv.FromHeartRates(values)
	} else {
		m, ok = hrv.Analyze(values)
	}
	if !ok {
		return fmt.Errorf("insufficient data: need at least %d valid intervals", hrv.MinSamples)
	}
	printHRV(w, m)
	return nil
}

func printHRV(w io.Writer, m hrv.Metrics) {
	in := hrv.Interpret(m)
	fmt.Fprintf(w, "rmssd: %.1f ms (%s)\n", m.RMSSD, in.RMSSD)
	fmt.Fprintf(w, "sdnn: %.1f ms (%s)\n", m.SDNN, in.SDNN)
	fmt.Fprintf(w, "pnn50: %.1f%%\n", m.PNN50)
	fmt.Fprintf(w, "mean rr: %d ms mean hr: %d bpm samples: %d\n", m.MeanRR, m.MeanHR, m.ValidSamples)
	fmt.Fprintln(w, in.Summary)
}

func serialAction(w io.Writer, deviceID, path, reference string) error {
	// Logs carry device uptime only, so both are placed on a
	// common arbitrary origin.
	var origin time.Time

	log, err := readSerialLog(path, deviceID, origin)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s: %d measurements, %d other lines\n", path, len(log.Lines), log.Skipped)
	if log.HasSync {
		fmt.Fprintf(w, "connection synchronised at %d ms\n", log.SyncMillis)
	}
	sensor := samples(log.Lines)

	hr := make([]float64, 0, len(sensor))
	for _, s := range sensor {
		if s.HR > 0 {
			hr = append(hr, float64(s.HR))
		}
	}
	if m, ok := hrv.FromHeartRates(hr); ok {
		printHRV(w, m)
	} else {
		fmt.Fprintln(w, "insufficient heart rate data for hrv")
	}

	if reference == "" {
		return nil
	}
	refLog, err := readSerialLog(reference, "reference", origin)
	if err != nil {
		return err
	}
	ref := samples(refLog.Lines)

	rep := compare.Pairwise(sensor, ref)
	fmt.Fprintf(w, "compared %d pairs\n", rep.Compared)
	if len(rep.HR) != 0 {
		fmt.Fprintf(w, "hr: mean diff %.1f bpm max %d bpm, %d over %d bpm\n",
			rep.MeanHRDiff(), rep.MaxHRDiff(), len(rep.HRFlagged), compare.HRThreshold)
	}
	if len(rep.SpO2) != 0 {
		fmt.Fprintf(w, "spo2: mean diff %.1f%% max %d%%, %d over %d%%\n",
			rep.MeanSpO2Diff(), rep.MaxSpO2Diff(), len(rep.SpO2Flagged), compare.SpO2Threshold)
	}
	for _, m := range rep.HRFlagged {
		fmt.Fprintf(w, "\thr #%d: sensor %d reference %d\n", m.Index, m.Sensor, m.Reference)
	}
	for _, m := range rep.SpO2Flagged {
		fmt.Fprintf(w, "\tspo2 #%d: sensor %d reference %d\n", m.Index, m.Sensor, m.Reference)
	}
	if sum, ok := compare.PercentError(sensor, ref, compare.DefaultTolerance); ok {
		fmt.Fprintf(w, "hr percent error: mean %.2f%% max %.2f%% over %d matches\n", sum.Mean, sum.Max, len(sum.Matches))
	}
	return nil
}

func readSerialLog(path, deviceID string, origin time.Time) (serial.Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return serial.Log{}, err
	}
	defer f.Close()
	log, err := serial.ReadLog(f, deviceID, origin)
	if err != nil {
		return log, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(log.Lines) == 0 {
		return log, errors.New(path + ": no measurement lines")
	}
	return log, nil
}

func samples(lines []serial.Line) []compare.Sample {
	s := make([]compare.Sample, len(lines))
	for i, l := range lines {
		s[i] = compare.Sample{Time: l.Timestamp, HR: l.HR, SpO2: l.SpO2}
	}
	return s
}
