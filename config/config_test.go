package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseConfig = `
Ornament:
  StartOn: true
  TickDelay: 10ms
  ChaseTail: 2
Hardware:
  LEDType: APA102
  SPIFrequency: 2000000
  ButtonGPIO: 17
  ButtonActiveLow: true
  DebounceSamples: 3
  Display:
    OuterOffset: 3
    ColorCorrection: [1, 0.8, 0.6]
    APA102_Brightness: 16
Logging:
  TUI:
    Level: "DEBUG"
    Format: "text"
    File: "/tmp/ornament-tui.log"
  HW:
    Level: "WARN"
    Format: "json"
    File: "/var/log/ornament-hw.log"
Web:
  Enabled: true
  Address: ":8080"
MQTT:
  Enabled: false
  Broker: ""
  Topic: "ornament/state"
  ClientID: "ornament"
`

func createConfigFile(t *testing.T, configData string) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(configFile, []byte(configData), 0o644))
	return configFile
}

func TestReadConfig(t *testing.T) {
	configFile := createConfigFile(t, baseConfig)

	conf, err := ReadConfig(configFile)
	require.NoError(t, err, "ReadConfig should not return an error")

	assert.True(t, conf.Ornament.StartOn)
	assert.Equal(t, 10*time.Millisecond, conf.Ornament.TickDelay)
	assert.Equal(t, 2, conf.Ornament.ChaseTail)
	assert.Equal(t, APA102, conf.Hardware.LEDType)
	assert.Equal(t, 2000000, conf.Hardware.SPIFrequency)
	assert.Equal(t, []float64{1, 0.8, 0.6}, conf.Hardware.Display.ColorCorrection)
	assert.Equal(t, uint8(16), conf.Hardware.Display.APA102_Brightness)
	assert.Equal(t, configFile, conf.ConfigFile)

	assert.Equal(t, "DEBUG", conf.Logging.TUI.Level)
	assert.Equal(t, "text", conf.Logging.TUI.Format)
	assert.Equal(t, "/tmp/ornament-tui.log", conf.Logging.TUI.File)
	assert.Equal(t, "WARN", conf.Logging.HW.Level)
	assert.Equal(t, "json", conf.Logging.HW.Format)
	assert.Equal(t, "/var/log/ornament-hw.log", conf.Logging.HW.File)
}

func TestReadConfig_DefaultsForMissingSections(t *testing.T) {
	configFile := createConfigFile(t, "Ornament:\n  StartOn: false\n")

	conf, err := ReadConfig(configFile)
	require.NoError(t, err)
	assert.False(t, conf.Ornament.StartOn)
	assert.Equal(t, Default().Ornament.TickDelay, conf.Ornament.TickDelay)
	assert.Equal(t, 3, conf.Hardware.Display.OuterOffset)
	assert.Equal(t, ":8080", conf.Web.Address)
}

func TestReadConfig_MissingFile(t *testing.T) {
	_, err := ReadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	assert.ErrorContains(t, err, "can't open config file")
}

func TestReadConfig_UnknownField(t *testing.T) {
	configFile := createConfigFile(t, baseConfig+"Bogus: 1\n")
	_, err := ReadConfig(configFile)
	assert.ErrorContains(t, err, "can't decode config file")
}

func TestReadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantMsg string
	}{
		{"LED type", "LEDType: APA102", "LEDType: NEOPIXEL", "Hardware.LEDType"},
		{"tick delay", "TickDelay: 10ms", "TickDelay: 0s", "Ornament.TickDelay must be positive"},
		{"chase tail", "ChaseTail: 2", "ChaseTail: 12", "Ornament.ChaseTail"},
		{"outer offset", "OuterOffset: 3", "OuterOffset: 12", "Hardware.Display.OuterOffset"},
		{"colour correction range", "[1, 0.8, 0.6]", "[1, 1.5, 0.6]", "ColorCorrection[1] must be between 0 and 1"},
		{"colour correction length", "[1, 0.8, 0.6]", "[1, 0.8]", "must have 3 values"},
		{"apa102 brightness", "APA102_Brightness: 16", "APA102_Brightness: 32", "APA102_Brightness"},
		{"debounce", "DebounceSamples: 3", "DebounceSamples: 0", "DebounceSamples"},
		{"mqtt broker", "Enabled: false\n  Broker", "Enabled: true\n  Broker", "MQTT.Broker must be set"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := strings.Replace(baseConfig, tt.from, tt.to, 1)
			require.NotEqual(t, baseConfig, data, "replacement must apply")
			_, err := ReadConfig(createConfigFile(t, data))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	conf := Default()
	conf.Ornament.TickDelay = 0
	conf.Hardware.LEDType = "x"
	err := conf.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TickDelay")
	assert.Contains(t, err.Error(), "LEDType")
}

func TestValidate_AcceptsWS2812(t *testing.T) {
	conf := Default()
	conf.Hardware.LEDType = "ws2812"
	assert.NoError(t, conf.Validate())
}

func TestLogSelectsPlatformSection(t *testing.T) {
	conf, err := ReadConfig(createConfigFile(t, baseConfig))
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", conf.Log().Level)
	conf.RealHW = true
	assert.Equal(t, "WARN", conf.Log().Level)
}
