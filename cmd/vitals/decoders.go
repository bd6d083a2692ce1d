// Copyright ©2025 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/kortschak/vitals/acc"
	"github.com/kortschak/vitals/battery"
	"github.com/kortschak/vitals/composite"
	"github.com/kortschak/vitals/frame"
	"github.com/kortschak/vitals/heart"
	"github.com/kortschak/vitals/hrv"
	"github.com/kortschak/vitals/plx"
	"github.com/kortschak/vitals/serial"
	"github.com/kortschak/vitals/status"
)

// Payload kinds. Each characteristic delivers a single kind.
const (
	kindHeart   = "heart"
	kindSpO2    = "spo2"
	kindBattery = "battery"
	kindStatus  = "status"
	kindAcc     = "acc"
	kindVendor  = "vendor"
	kindText    = "text"
	kindAuto    = "auto"
)

type decoder func(f frame.RawFrame, rssi int) (composite.Reading, error)

var decoders = map[string]decoder{
	kindHeart: func(f frame.RawFrame, rssi int) (composite.Reading, error) {
		hr, err := heart.Decode(f)
		if err != nil {
			return composite.Reading{}, err
		}
		return reading(f, rssi, composite.Reading{HeartRate: &hr}), nil
	},
	kindSpO2: func(f frame.RawFrame, rssi int) (composite.Reading, error) {
		r, err := plx.Decode(f)
		if err != nil {
			return composite.Reading{}, err
		}
		return reading(f, rssi, composite.Reading{SpO2: &r}), nil
	},
	kindBattery: func(f frame.RawFrame, rssi int) (composite.Reading, error) {
		l, err := battery.Decode(f)
		if err != nil {
			return composite.Reading{}, err
		}
		return reading(f, rssi, composite.Reading{Battery: &l}), nil
	},
	kindStatus: func(f frame.RawFrame, rssi int) (composite.Reading, error) {
		m, err := status.Decode(f)
		if err != nil {
			return composite.Reading{}, err
		}
		return reading(f, rssi, composite.Reading{Status: &m}), nil
	},
	kindAcc: func(f frame.RawFrame, rssi int) (composite.Reading, error) {
		b, err := acc.Decode(f)
		if err != nil {
			return composite.Reading{}, err
		}
		return reading(f, rssi, composite.Reading{Accelerometer: &b}), nil
	},
	kindVendor: composite.DecodeVendor,
	kindText: func(f frame.RawFrame, rssi int) (composite.Reading, error) {
		l, err := serial.Decode(f)
		if err != nil {
			return composite.Reading{}, err
		}
		return composite.FromLine(l, rssi), nil
	},
	kindAuto: composite.Decode,
}

func reading(f frame.RawFrame, rssi int, r composite.Reading) composite.Reading {
	r.ConnectionStrength = rssi
	r.DeviceID = f.DeviceID()
	r.Timestamp = f.Timestamp()
	return r
}

func kindList() string {
	return strings.Join(slices.Sorted(maps.Keys(decoders)), "|")
}

// decodePayload decodes buf as a payload of the given kind.
func decodePayload(kind, deviceID string, at time.Time, rssi int, buf []byte) (composite.Reading, error) {
	dec, ok := decoders[kind]
	if !ok {
		return composite.Reading{}, fmt.Errorf("unknown payload kind %q: want one of %s", kind, kindList())
	}
	return dec(frame.New(deviceID, at, buf), rssi)
}

// parseHex returns the bytes of the hex encoded args. Arguments are
// concatenated and may contain ':' or '-' separators and an optional
// 0x prefix.
func parseHex(args []string) ([]byte, error) {
	var sb strings.Builder
	for _, a := range args {
		a = strings.TrimPrefix(strings.ToLower(a), "0x")
		sb.WriteString(strings.NewReplacer(":", "", "-", "", " ", "").Replace(a))
	}
	buf, err := hex.DecodeString(sb.String())
	if err != nil {
		return nil, fmt.Errorf("invalid hex payload: %w", err)
	}
	return buf, nil
}

func decodeAction(w io.Writer, kind string, rssi int, deviceID string, args []string) error {
	buf, err := parseHex(args)
	if err != nil {
		return err
	}
	if kind == kindAuto {
		fmt.Fprintf(w, "format: %s\n", frame.Classify(buf))
	}
	r, err := decodePayload(kind, deviceID, time.Now(), rssi, buf)
	if err != nil {
		return err
	}
	printReading(w, r)
	return nil
}

func printReading(w io.Writer, r composite.Reading) {
	if r.BestEffort {
		fmt.Fprintln(w, "best effort interpretation")
	}
	if h := r.HeartRate; h != nil {
		fmt.Fprintf(w, "heart rate: %d bpm", h.HR)
		if len(h.RR) != 0 {
			fmt.Fprintf(w, " rr: %v ms", hrv.Durations(h.RR))
		}
		if h.EnergyExpended {
			fmt.Fprintf(w, " energy: %d kJ", h.Energy)
		}
		if h.ContactSupported {
			fmt.Fprintf(w, " contact: %t", h.Contact)
		}
		fmt.Fprintln(w)
	}
	if s := r.SpO2; s != nil {
		fmt.Fprintf(w, "spo2: %d%% pulse: %d bpm", s.SpO2, s.PulseRate)
		if s.HasPerfusionIndex {
			fmt.Fprintf(w, " pi: %.2f%%", s.PerfusionIndex)
		}
		fmt.Fprintln(w)
	}
	if b := r.Battery; b != nil {
		fmt.Fprintf(w, "battery: %d%%", b.Level)
		if b.HasVoltage {
			fmt.Fprintf(w, " %.3f V", b.Voltage)
		}
		if b.HasCharging {
			fmt.Fprintf(w, " charging: %t", b.Charging)
		}
		fmt.Fprintln(w)
	}
	if s := r.Status; s != nil {
		fmt.Fprintf(w, "status: %s confidence: %d%% %.3f V charging: %t\n", s.Status, s.Confidence, s.Voltage, s.Charging)
	}
	if a := r.Accelerometer; a != nil {
		fmt.Fprintf(w, "accelerometer: second %d\n", a.SecondCounter)
		for _, s := range a.Samples {
			fmt.Fprintf(w, "\t%d: x=%d y=%d z=%d |a|=%d\n", s.Index, s.X, s.Y, s.Z, s.Magnitude)
		}
	}
	if r.ConnectionStrength != 0 {
		fmt.Fprintf(w, "rssi: %d dBm\n", r.ConnectionStrength)
	}
}
