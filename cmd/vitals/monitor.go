// Copyright ©2025 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"tinygo.org/x/bluetooth"

	"github.com/kortschak/vitals/battery"
	"github.com/kortschak/vitals/cmd/internal/ring"
	"github.com/kortschak/vitals/cmd/vitals/internal/config"
	"github.com/kortschak/vitals/cmd/vitals/internal/publish"
	"github.com/kortschak/vitals/composite"
	"github.com/kortschak/vitals/heart"
	"github.com/kortschak/vitals/hrv"
	"github.com/kortschak/vitals/internal/gatt"
	"github.com/kortschak/vitals/plx"
)

// sink receives monitor output.
type sink interface {
	Reading(composite.Reading) error
	HRV(hrv.Metrics, time.Time) error
	Battery(battery.Trend, time.Time) error
}

// monitor accumulates decoded notifications from a single device.
type monitor struct {
	deviceID string
	rssi     int
	log      *zap.Logger
	out      sink

	mu     sync.Mutex
	start  time.Time
	rr     *ring.Buffer[float64] // ms
	hr     *ring.Buffer[float64] // BPM, used when no RR is reported.
	volts  *ring.Buffer[battery.VoltageSample]
	latest composite.Reading
}

func newMonitor(deviceID string, rssi, window int, start time.Time, out sink, log *zap.Logger) *monitor {
	return &monitor{
		deviceID: deviceID,
		rssi:     rssi,
		log:      log,
		out:      out,
		start:    start,
		rr:       ring.NewBuffer[float64](window),
		hr:       ring.NewBuffer[float64](window),
		volts:    ring.NewBuffer[battery.VoltageSample](window),
	}
}

// handle decodes a notification of the given kind received at time at.
func (m *monitor) handle(kind string, at time.Time, buf []byte) {
	r, err := decodePayload(kind, m.deviceID, at, m.rssi, buf)
	if err != nil {
		m.log.Warn("failed to decode notification",
			zap.String("kind", kind),
			zap.Binary("payload", buf),
			zap.Error(err),
		)
		return
	}
	if r.BestEffort {
		m.log.Debug("best effort decode", zap.String("kind", kind), zap.Binary("payload", buf))
	}

	m.mu.Lock()
	m.record(r)
	m.latest = r.Merge(m.latest)
	m.mu.Unlock()

	err = m.out.Reading(r)
	if err != nil {
		m.log.Error("failed to publish reading", zap.Error(err))
	}
}

// record adds the values of r to the analysis windows. It must be
// called with m.mu held.
func (m *monitor) record(r composite.Reading) {
	if h := r.HeartRate; h != nil {
		if len(h.RR) != 0 {
			m.rr.Write(hrv.Durations(h.RR)...)
		} else if h.HR != 0 {
			m.hr.Write(float64(h.HR))
		}
	}
	elapsed := r.Timestamp.Sub(m.start)
	switch {
	case r.Status != nil:
		m.volts.Write(battery.VoltageSample{Elapsed: elapsed, Voltage: r.Status.Voltage})
	case r.Battery != nil && r.Battery.HasVoltage:
		m.volts.Write(battery.VoltageSample{Elapsed: elapsed, Voltage: r.Battery.Voltage})
	}
}

// analyze computes and publishes HRV and battery summaries of the
// current windows.
func (m *monitor) analyze(now time.Time) {
	m.mu.Lock()
	rr := m.rr.Values()
	hr := m.hr.Values()
	volts := m.volts.Values()
	latest := m.latest
	m.mu.Unlock()

	if b := latest.Battery; b != nil {
		fields := []zap.Field{zap.Uint8("level", b.Level)}
		if b.HasVoltage {
			fields = append(fields, zap.Float64("voltage", b.Voltage))
		}
		if b.HasCharging {
			fields = append(fields, zap.Bool("charging", b.Charging))
		}
		m.log.Info("battery", fields...)
	}
	if s := latest.Status; s != nil {
		m.log.Info("wear", zap.Stringer("contact", s.Status), zap.Uint8("confidence", s.Confidence))
	}

	var (
		metrics hrv.Metrics
		ok      bool
	)
	if len(rr) != 0 {
		metrics, ok = hrv.Analyze(rr)
	} else {
		metrics, ok = hrv.FromHeartRates(hr)
	}
	if ok {
		m.log.Info("hrv",
			zap.Float64("rmssd", metrics.RMSSD),
			zap.Float64("sdnn", metrics.SDNN),
			zap.Float64("pnn50", metrics.PNN50),
			zap.Int("mean_hr", metrics.MeanHR),
			zap.Stringer("overall", hrv.Interpret(metrics).Overall),
		)
		err := m.out.HRV(metrics, now)
		if err != nil {
			m.log.Error("failed to publish hrv", zap.Error(err))
		}
	} else {
		m.log.Debug("insufficient data for hrv", zap.Int("rr", len(rr)), zap.Int("hr", len(hr)))
	}

	trend, ok := battery.Fit(volts)
	if ok {
		m.log.Info("battery trend",
			zap.Float64("volts_per_hour", trend.Slope*3600),
			zap.Float64("r_squared", trend.RSquared),
			zap.Duration("empty_at", trend.EmptyAt),
		)
		err := m.out.Battery(trend, now)
		if err != nil {
			m.log.Error("failed to publish battery trend", zap.Error(err))
		}
	}
}

// run calls analyze every interval until ctx is cancelled.
func (m *monitor) run(ctx context.Context, interval time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-tick.C:
			m.analyze(now)
		}
	}
}

// characteristic is a subscribable source of one payload kind.
type characteristic struct {
	service, char string
	kind          string
}

func characteristics(v config.VendorConfig) []characteristic {
	c := []characteristic{
		{service: heart.RateServiceID, char: heart.RateMeasurementID, kind: kindHeart},
		{service: plx.ServiceID, char: plx.ContinuousMeasurementID, kind: kindSpO2},
		{service: battery.ServiceID, char: battery.LevelCharacteristicID, kind: kindBattery},
	}
	if v.Service == "" {
		return c
	}
	for _, vc := range []struct{ uuid, kind string }{
		{v.Status, kindStatus},
		{v.Accelerometer, kindAcc},
		{v.Composite, kindVendor},
	} {
		if vc.uuid != "" {
			c = append(c, characteristic{service: v.Service, char: vc.uuid, kind: vc.kind})
		}
	}
	return c
}

func monitorAction(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	if cfg.Device.Address == "" {
		return errors.New("no device address: use --device or set device.address")
	}
	var addr bluetooth.Address
	err := addr.UnmarshalText([]byte(cfg.Device.Address))
	if err != nil {
		return fmt.Errorf("invalid device address %q: %w", cfg.Device.Address, err)
	}

	adapter := bluetooth.DefaultAdapter
	err = adapter.Enable()
	if err != nil {
		return fmt.Errorf("failed to enable bluetooth: %w", err)
	}

	log.Info("scanning", zap.String("address", cfg.Device.Address))
	scanCtx, cancel := context.WithTimeout(ctx, cfg.Device.ScanTimeout)
	dev, found, err := gatt.Connect(scanCtx, adapter, addr)
	cancel()
	if err != nil {
		return err
	}
	defer dev.Disconnect()
	log.Info("connected",
		zap.String("name", found.Name),
		zap.Int16("rssi", found.RSSI),
	)

	pub, err := publish.New(cfg.MQTT, cfg.Device.ID, log)
	if err != nil {
		return err
	}
	defer pub.Close()

	m := newMonitor(cfg.Device.ID, int(found.RSSI), cfg.HRV.Window, time.Now(), pub, log.With(zap.Stringer("session", pub.Session())))

	var subs []*gatt.Subscription
	defer func() {
		for _, s := range subs {
			err := s.Close()
			if err != nil {
				log.Warn("failed to close subscription", zap.Error(err))
			}
		}
	}()
	for _, c := range characteristics(cfg.Vendor) {
		srvID, err := gatt.ParseUUID(c.service)
		if err != nil {
			return fmt.Errorf("invalid %s service uuid: %w", c.kind, err)
		}
		charID, err := gatt.ParseUUID(c.char)
		if err != nil {
			return fmt.Errorf("invalid %s characteristic uuid: %w", c.kind, err)
		}
		char, err := gatt.Characteristic(&dev, srvID, charID)
		if err != nil {
			// Backends differ in how a missing service is reported.
			if errors.Is(err, gatt.ErrNotFound) {
				log.Info("characteristic not available", zap.String("kind", c.kind), zap.Error(err))
			} else {
				log.Warn("failed to discover characteristic", zap.String("kind", c.kind), zap.Error(err))
			}
			continue
		}
		if c.kind == kindBattery {
			buf, err := gatt.Read(char)
			if err != nil {
				log.Warn("failed to read battery level", zap.Error(err))
			} else {
				m.handle(c.kind, time.Now(), buf)
			}
		}
		kind := c.kind
		s, err := gatt.Subscribe(char, func(buf []byte) {
			m.handle(kind, time.Now(), buf)
		})
		if err != nil {
			return err
		}
		subs = append(subs, s)
		log.Debug("subscribed", zap.String("kind", c.kind), zap.Stringer("uuid", charID))
	}
	if len(subs) == 0 {
		return errors.New("device offers no supported characteristics")
	}

	log.Info("monitoring", zap.Duration("interval", cfg.HRV.Interval), zap.Int("window", cfg.HRV.Window))
	m.run(ctx, cfg.HRV.Interval)
	log.Info("stopping")
	return nil
}
