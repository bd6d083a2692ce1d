package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test in an empty directory with no VITALS_*
// variables set.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, name := range []string{
		"VITALS_DEVICE_ADDRESS", "VITALS_DEVICE_ID",
		"VITALS_MQTT_BROKER", "VITALS_MQTT_QOS", "VITALS_MQTT_TOPIC",
		"VITALS_LOG_LEVEL", "VITALS_HRV_WINDOW", "VITALS_HRV_INTERVAL",
		"VITALS_SCAN_TIMEOUT",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	return dir
}

func TestDefaults(t *testing.T) {
	isolate(t)

	c := NewConfig()
	require.NoError(t, c.LoadConfig())

	assert.Equal(t, "sensor", c.Device.ID)
	assert.Equal(t, 30*time.Second, c.Device.ScanTimeout)
	assert.Equal(t, 300, c.HRV.Window)
	assert.Equal(t, 30*time.Second, c.HRV.Interval)
	assert.Equal(t, "", c.MQTT.Broker)
	assert.Equal(t, "vitals", c.MQTT.Topic)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, "json", c.Log.Format)
}

func TestConfigFile(t *testing.T) {
	dir := isolate(t)

	path := filepath.Join(dir, "custom.yaml")
	err := os.WriteFile(path, []byte(`
device:
  address: "AA:BB:CC:DD:EE:FF"
  id: wrist
hrv:
  window: 120
  interval: 10
mqtt:
  broker: tcp://127.0.0.1:1883
  qos: 1
`), 0o600)
	require.NoError(t, err)

	c := NewConfig()
	c.Flag.ConfigFile = path
	require.NoError(t, c.LoadConfig())

	assert.Equal(t, "AA:BB:CC:DD:EE:FF", c.Device.Address)
	assert.Equal(t, "wrist", c.Device.ID)
	assert.Equal(t, 120, c.HRV.Window)
	assert.Equal(t, 10*time.Second, c.HRV.Interval)
	assert.Equal(t, "tcp://127.0.0.1:1883", c.MQTT.Broker)
	assert.Equal(t, byte(1), c.MQTT.QoS)
	// Unset values keep their defaults.
	assert.Equal(t, 30*time.Second, c.Device.ScanTimeout)
}

func TestMissingConfigFile(t *testing.T) {
	isolate(t)

	c := NewConfig()
	c.Flag.ConfigFile = "absent.yaml"
	assert.Error(t, c.LoadConfig())
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)

	t.Setenv("VITALS_DEVICE_ID", "chest")
	t.Setenv("VITALS_HRV_WINDOW", "60")
	t.Setenv("VITALS_MQTT_QOS", "2")

	c := NewConfig()
	require.NoError(t, c.LoadConfig())
	assert.Equal(t, "chest", c.Device.ID)
	assert.Equal(t, 60, c.HRV.Window)
	assert.Equal(t, byte(2), c.MQTT.QoS)
}

func TestEnvFile(t *testing.T) {
	dir := isolate(t)

	err := os.WriteFile(filepath.Join(dir, ".env"), []byte("VITALS_MQTT_BROKER=tcp://broker:1883\n"), 0o600)
	require.NoError(t, err)

	c := NewConfig()
	require.NoError(t, c.LoadConfig())
	assert.Equal(t, "tcp://broker:1883", c.MQTT.Broker)
}

func TestFlagOverrides(t *testing.T) {
	isolate(t)

	t.Setenv("VITALS_LOG_LEVEL", "warn")
	c := NewConfig()
	c.Flag.LogLevel = "debug"
	c.Flag.Device = "11:22:33:44:55:66"
	require.NoError(t, c.LoadConfig())
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "11:22:33:44:55:66", c.Device.Address)
}

func TestInvalidEnv(t *testing.T) {
	for _, test := range []struct {
		name, value string
	}{
		{name: "VITALS_HRV_WINDOW", value: "many"},
		{name: "VITALS_HRV_WINDOW", value: "0"},
		{name: "VITALS_HRV_INTERVAL", value: "0"},
		{name: "VITALS_HRV_INTERVAL", value: "-5"},
		{name: "VITALS_SCAN_TIMEOUT", value: "0"},
		{name: "VITALS_SCAN_TIMEOUT", value: "-1"},
		{name: "VITALS_MQTT_QOS", value: "3"},
		{name: "VITALS_MQTT_QOS", value: "-1"},
	} {
		t.Run(test.name+"="+test.value, func(t *testing.T) {
			isolate(t)
			t.Setenv(test.name, test.value)
			assert.Error(t, NewConfig().LoadConfig())
		})
	}
}
