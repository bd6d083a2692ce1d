// Copyright ©2025 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package publish sends decoded readings and derived summaries to an
// MQTT broker.
//
// Messages are published to <topic>/<device>/<kind> with a JSON
// payload. A Publisher without a broker discards messages.
package publish

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kortschak/vitals/battery"
	"github.com/kortschak/vitals/cmd/vitals/internal/config"
	"github.com/kortschak/vitals/composite"
	"github.com/kortschak/vitals/hrv"
)

// Message kinds.
const (
	KindReading = "reading"
	KindHRV     = "hrv"
	KindBattery = "battery"
)

// quiesce is the time in milliseconds allowed for in-flight work on
// disconnect.
const quiesce = 250

// publishTimeout bounds the wait for a publish acknowledgement.
const publishTimeout = 5 * time.Second

// client is the part of mqtt.Client used by a Publisher.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// Publisher publishes messages for a single device session.
type Publisher struct {
	client  client
	topic   string
	device  string
	qos     byte
	session uuid.UUID
	log     *zap.Logger
}

// New connects to the broker configured in cfg. If no broker is
// configured the returned Publisher discards all messages.
func New(cfg config.MQTTConfig, device string, log *zap.Logger) (*Publisher, error) {
	p := &Publisher{
		topic:   strings.TrimSuffix(cfg.Topic, "/"),
		device:  device,
		qos:     cfg.QoS,
		session: uuid.New(),
		log:     log,
	}
	if cfg.Broker == "" {
		log.Info("no mqtt broker configured, not publishing")
		return p, nil
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn("mqtt connection lost", zap.Error(err))
	})

	c := mqtt.NewClient(opts)
	tok := c.Connect()
	if tok.Wait() && tok.Error() != nil {
		return nil, fmt.Errorf("failed to connect to mqtt broker %s: %w", cfg.Broker, tok.Error())
	}
	p.client = c
	log.Info("connected to mqtt broker", zap.String("broker", cfg.Broker), zap.Stringer("session", p.session))
	return p, nil
}

// Session returns the identifier attached to every message sent by p.
func (p *Publisher) Session() uuid.UUID { return p.session }

// Topic returns the topic that messages of the given kind are sent to.
func (p *Publisher) Topic(kind string) string {
	return p.topic + "/" + p.device + "/" + kind
}

// Message is the envelope of every published payload.
type Message struct {
	Session uuid.UUID `json:"session"`
	Device  string    `json:"device"`
	Kind    string    `json:"kind"`
	Time    time.Time `json:"time"`
	Data    any       `json:"data"`
}

// Reading publishes a combined sensor reading.
func (p *Publisher) Reading(r composite.Reading) error {
	return p.publish(KindReading, r.Timestamp, readingPayload(r))
}

// HRV publishes HRV metrics and their interpretation.
func (p *Publisher) HRV(m hrv.Metrics, at time.Time) error {
	in := hrv.Interpret(m)
	return p.publish(KindHRV, at, hrvData{
		RMSSD:   m.RMSSD,
		SDNN:    m.SDNN,
		PNN50:   m.PNN50,
		MeanRR:  m.MeanRR,
		MeanHR:  m.MeanHR,
		Samples: m.ValidSamples,
		Overall: in.Overall.String(),
		Summary: in.Summary,
	})
}

// Battery publishes a battery voltage trend.
func (p *Publisher) Battery(t battery.Trend, at time.Time) error {
	return p.publish(KindBattery, at, trendData{
		VoltsPerHour: t.Slope * 3600,
		RSquared:     t.RSquared,
		EmptyIn:      t.EmptyAt.Seconds(),
		FullIn:       t.FullAt.Seconds(),
		Samples:      t.Samples,
	})
}

func (p *Publisher) publish(kind string, at time.Time, data any) error {
	if p.client == nil {
		return nil
	}
	payload, err := json.Marshal(Message{
		Session: p.session,
		Device:  p.device,
		Kind:    kind,
		Time:    at,
		Data:    data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s message: %w", kind, err)
	}
	topic := p.Topic(kind)
	tok := p.client.Publish(topic, p.qos, false, payload)
	if !tok.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timed out publishing to %s", topic)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	p.log.Debug("published", zap.String("topic", topic), zap.Int("bytes", len(payload)))
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	if p.client == nil {
		return
	}
	p.client.Disconnect(quiesce)
}

type readingData struct {
	HeartRate      *uint16    `json:"heart_rate,omitempty"`
	RR             []float64  `json:"rr_ms,omitempty"`
	Energy         *int       `json:"energy_expended,omitempty"`
	Contact        *bool      `json:"contact,omitempty"`
	SpO2           *uint16    `json:"spo2,omitempty"`
	PulseRate      *uint16    `json:"pulse_rate,omitempty"`
	PerfusionIndex *float64   `json:"perfusion_index,omitempty"`
	Battery        *uint8     `json:"battery,omitempty"`
	Voltage        *float64   `json:"voltage,omitempty"`
	Charging       *bool      `json:"charging,omitempty"`
	Wear           string     `json:"wear,omitempty"`
	Confidence     *uint8     `json:"confidence,omitempty"`
	Acceleration   [][3]int16 `json:"acceleration,omitempty"`
	RSSI           int        `json:"rssi,omitempty"`
	BestEffort     bool       `json:"best_effort,omitempty"`
}

func readingPayload(r composite.Reading) readingData {
	d := readingData{
		RSSI:       r.ConnectionStrength,
		BestEffort: r.BestEffort,
	}
	if h := r.HeartRate; h != nil {
		d.HeartRate = &h.HR
		d.RR = hrv.Durations(h.RR)
		if h.EnergyExpended {
			d.Energy = &h.Energy
		}
		if h.ContactSupported {
			d.Contact = &h.Contact
		}
	}
	if s := r.SpO2; s != nil {
		d.SpO2 = &s.SpO2
		d.PulseRate = &s.PulseRate
		if s.HasPerfusionIndex {
			d.PerfusionIndex = &s.PerfusionIndex
		}
	}
	if b := r.Battery; b != nil {
		d.Battery = &b.Level
		if b.HasVoltage {
			d.Voltage = &b.Voltage
		}
		if b.HasCharging {
			d.Charging = &b.Charging
		}
	}
	if s := r.Status; s != nil {
		d.Wear = s.Status.String()
		d.Confidence = &s.Confidence
		if d.Voltage == nil {
			d.Voltage = &s.Voltage
		}
		if d.Charging == nil {
			d.Charging = &s.Charging
		}
	}
	if a := r.Accelerometer; a != nil {
		d.Acceleration = make([][3]int16, len(a.Samples))
		for i, s := range a.Samples {
			d.Acceleration[i] = [3]int16{s.X, s.Y, s.Z}
		}
	}
	return d
}

type hrvData struct {
	RMSSD   float64 `json:"rmssd"`
	SDNN    float64 `json:"sdnn"`
	PNN50   float64 `json:"pnn50"`
	MeanRR  int     `json:"mean_rr"`
	MeanHR  int     `json:"mean_hr"`
	Samples int     `json:"samples"`
	Overall string  `json:"overall"`
	Summary string  `json:"summary"`
}

type trendData struct {
	VoltsPerHour float64 `json:"volts_per_hour"`
	RSquared     float64 `json:"r_squared"`
	EmptyIn      float64 `json:"empty_in_s"`
	FullIn       float64 `json:"full_in_s"`
	Samples      int     `json:"samples"`
}
