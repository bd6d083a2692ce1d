package main

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kortschak/vitals/battery"
	"github.com/kortschak/vitals/cmd/vitals/internal/config"
	"github.com/kortschak/vitals/composite"
	"github.com/kortschak/vitals/hrv"
)

type recorder struct {
	mu       sync.Mutex
	readings []composite.Reading
	hrv      []hrv.Metrics
	trends   []battery.Trend
}

func (r *recorder) Reading(v composite.Reading) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readings = append(r.readings, v)
	return nil
}

func (r *recorder) HRV(m hrv.Metrics, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hrv = append(r.hrv, m)
	return nil
}

func (r *recorder) Battery(t battery.Trend, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trends = append(r.trends, t)
	return nil
}

func TestMonitorHRV(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	out := &recorder{}
	m := newMonitor("wrist", -55, 4, start, out, zap.NewNop())

	// One RR interval per notification, in 1/1024 s.
	for i, rr := range []uint16{1024, 1000, 1050, 1010, 1040, 1020} {
		m.handle(kindHeart, start.Add(time.Duration(i)*time.Second), []byte{0x10, 60, byte(rr), byte(rr >> 8)})
	}
	require.Len(t, out.readings, 6)
	assert.Equal(t, -55, out.readings[0].ConnectionStrength)
	assert.Equal(t, "wrist", out.readings[0].DeviceID)

	// The window holds only the four most recent intervals.
	assert.Equal(t, 4, m.rr.Len())
	m.analyze(start.Add(time.Minute))
	assert.Empty(t, out.hrv, "four intervals are insufficient")

	m = newMonitor("wrist", -55, 8, start, out, zap.NewNop())
	for i, rr := range []uint16{1024, 1000, 1050, 1010, 1040, 1020} {
		m.handle(kindHeart, start.Add(time.Duration(i)*time.Second), []byte{0x10, 60, byte(rr), byte(rr >> 8)})
	}
	m.analyze(start.Add(time.Minute))
	require.Len(t, out.hrv, 1)
	assert.Equal(t, 6, out.hrv[0].ValidSamples)
	assert.Equal(t, 1000, out.hrv[0].MeanRR)
}

func TestMonitorHeartRateFallback(t *testing.T) {
	start := time.Now()
	out := &recorder{}
	m := newMonitor("wrist", 0, 16, start, out, zap.NewNop())
	for _, hr := range []byte{60, 62, 61, 59, 60} {
		m.handle(kindHeart, start, []byte{0x00, hr})
	}
	assert.Equal(t, 0, m.rr.Len())
	assert.Equal(t, 5, m.hr.Len())
	m.analyze(start)
	require.Len(t, out.hrv, 1)
	assert.Equal(t, 5, out.hrv[0].ValidSamples)
}

func TestMonitorBatteryTrend(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	out := &recorder{}
	m := newMonitor("wrist", 0, 16, start, out, zap.NewNop())

	m.handle(kindBattery, start, []byte{80})
	for i, raw := range []uint16{0xcccc, 0xc7ad, 0xc28e} { // About 4.0, 3.9 and 3.8 V.
		m.handle(kindStatus, start.Add(time.Duration(i)*time.Hour), []byte{3, 95, byte(raw), byte(raw >> 8), 0})
	}
	assert.Equal(t, 3, m.volts.Len())
	require.NotNil(t, m.latest.Battery)
	assert.True(t, m.latest.Battery.HasVoltage)

	m.analyze(start.Add(3 * time.Hour))
	require.Len(t, out.trends, 1)
	assert.Less(t, out.trends[0].Slope, 0.0)
	assert.InDelta(t, 0.1, out.trends[0].RatePerHour, 1e-3)
	assert.Empty(t, out.hrv)
}

func TestMonitorBadPayload(t *testing.T) {
	out := &recorder{}
	m := newMonitor("wrist", 0, 16, time.Now(), out, zap.NewNop())
	m.handle(kindStatus, time.Now(), []byte{3})
	m.handle(kindBattery, time.Now(), []byte{101})
	assert.Empty(t, out.readings)
}

func TestCharacteristics(t *testing.T) {
	got := characteristics(config.VendorConfig{})
	kinds := make([]string, len(got))
	for i, c := range got {
		kinds[i] = c.kind
	}
	assert.Equal(t, []string{kindHeart, kindSpO2, kindBattery}, kinds)

	got = characteristics(config.VendorConfig{
		Service:   "0000fee0-0000-1000-8000-00805f9b34fb",
		Status:    "0000fee1-0000-1000-8000-00805f9b34fb",
		Composite: "0000fee3-0000-1000-8000-00805f9b34fb",
	})
	require.Len(t, got, 5)
	assert.Equal(t, kindStatus, got[3].kind)
	assert.Equal(t, kindVendor, got[4].kind)
	assert.Equal(t, "0000fee0-0000-1000-8000-00805f9b34fb", got[4].service)
}
