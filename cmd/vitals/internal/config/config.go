// Copyright ©2025 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config holds the configuration of the vitals command.
//
// Configuration is assembled from defaults, an optional YAML file, an
// optional .env file, VITALS_* environment variables and finally
// command line flags, each overriding the previous.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// DefaultFile is the configuration file read when none is specified.
// It is not an error for it to be absent.
const DefaultFile = "vitals.yaml"

// Config is the vitals command configuration.
type Config struct {
	Device DeviceConfig `yaml:"device"`
	Vendor VendorConfig `yaml:"vendor"`
	HRV    HRVConfig    `yaml:"hrv"`
	MQTT   MQTTConfig   `yaml:"mqtt"`
	Log    LogConfig    `yaml:"log"`
	Flag   FlagConfig   `yaml:"-"`
}

// FlagConfig holds command line flag values.
type FlagConfig struct {
	ConfigFile string
	EnvFile    string
	LogLevel   string
	Device     string
}

// DeviceConfig identifies the sensor to connect to.
type DeviceConfig struct {
	Address        string        `yaml:"address"`
	ID             string        `yaml:"id"`
	ScanTimeoutInt int           `yaml:"scantimeout"`
	ScanTimeout    time.Duration `yaml:"-"`
}

// VendorConfig holds the UUIDs of the vendor characteristics. An
// empty UUID disables subscription to that characteristic.
type VendorConfig struct {
	Service       string `yaml:"service"`
	Status        string `yaml:"status"`
	Accelerometer string `yaml:"accelerometer"`
	Composite     string `yaml:"composite"`
}

// HRVConfig configures the rolling HRV analysis.
type HRVConfig struct {
	Window      int           `yaml:"window"`
	IntervalInt int           `yaml:"interval"`
	Interval    time.Duration `yaml:"-"`
}

// MQTTConfig configures the reading publisher. An empty broker
// disables publishing.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"clientid"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Topic    string `yaml:"topic"`
	QoS      byte   `yaml:"qos"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// NewConfig returns a configuration holding default values.
func NewConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			ID:             "sensor",
			ScanTimeoutInt: 30,
		},
		HRV: HRVConfig{
			Window:      300,
			IntervalInt: 30,
		},
		MQTT: MQTTConfig{
			ClientID: "vitals",
			Topic:    "vitals",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig reads the configuration file and environment and applies
// flag overrides.
func (c *Config) LoadConfig() error {
	if err := c.readConfigFile(); err != nil {
		return fmt.Errorf("error reading config file %q: %w", c.Flag.ConfigFile, err)
	}
	envFile := c.Flag.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	err := godotenv.Load(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error reading env file %q: %w", envFile, err)
	}
	if err := c.readEnv(); err != nil {
		return err
	}

	if c.Flag.LogLevel != "" {
		c.Log.Level = c.Flag.LogLevel
	}
	if c.Flag.Device != "" {
		c.Device.Address = c.Flag.Device
	}
	if c.HRV.Window <= 0 {
		return fmt.Errorf("invalid hrv window: %d", c.HRV.Window)
	}
	if c.HRV.IntervalInt <= 0 {
		return fmt.Errorf("invalid hrv interval: %d", c.HRV.IntervalInt)
	}
	if c.Device.ScanTimeoutInt <= 0 {
		return fmt.Errorf("invalid scan timeout: %d", c.Device.ScanTimeoutInt)
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("invalid mqtt qos: %d", c.MQTT.QoS)
	}

	c.Device.ScanTimeout = time.Duration(c.Device.ScanTimeoutInt) * time.Second
	c.HRV.Interval = time.Duration(c.HRV.IntervalInt) * time.Second

	return nil
}

func (c *Config) readConfigFile() error {
	path := c.Flag.ConfigFile
	if path == "" {
		path = DefaultFile
	}
	file, err := os.Open(path)
	if err != nil {
		if c.Flag.ConfigFile == "" && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	defer func() { _ = file.Close() }()

	err = yaml.NewDecoder(file).Decode(c)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// readEnv applies VITALS_* environment overrides.
func (c *Config) readEnv() error {
	str := func(name string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			*dst = v
		}
	}
	integer := func(name string, dst *int) error {
		v := strings.TrimSpace(os.Getenv(name))
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		*dst = n
		return nil
	}

	str("VITALS_DEVICE_ADDRESS", &c.Device.Address)
	str("VITALS_DEVICE_ID", &c.Device.ID)
	str("VITALS_VENDOR_SERVICE", &c.Vendor.Service)
	str("VITALS_VENDOR_STATUS", &c.Vendor.Status)
	str("VITALS_VENDOR_ACCELEROMETER", &c.Vendor.Accelerometer)
	str("VITALS_VENDOR_COMPOSITE", &c.Vendor.Composite)
	str("VITALS_MQTT_BROKER", &c.MQTT.Broker)
	str("VITALS_MQTT_CLIENT_ID", &c.MQTT.ClientID)
	str("VITALS_MQTT_USERNAME", &c.MQTT.Username)
	str("VITALS_MQTT_PASSWORD", &c.MQTT.Password)
	str("VITALS_MQTT_TOPIC", &c.MQTT.Topic)
	str("VITALS_LOG_LEVEL", &c.Log.Level)
	str("VITALS_LOG_FORMAT", &c.Log.Format)
	for name, dst := range map[string]*int{
		"VITALS_SCAN_TIMEOUT": &c.Device.ScanTimeoutInt,
		"VITALS_HRV_WINDOW":   &c.HRV.Window,
		"VITALS_HRV_INTERVAL": &c.HRV.IntervalInt,
	} {
		if err := integer(name, dst); err != nil {
			return err
		}
	}
	if v := strings.TrimSpace(os.Getenv("VITALS_MQTT_QOS")); v != "" {
		q, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			return fmt.Errorf("invalid VITALS_MQTT_QOS: %w", err)
		}
		c.MQTT.QoS = byte(q)
	}
	return nil
}
