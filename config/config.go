package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"lautenbacher.net/ornament/ring"
)

const CONFILE = "config.yml"

// LED string types the hardware platform can drive.
const (
	APA102 = "APA102"
	WS2801 = "WS2801"
	WS2812 = "WS2812"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	RealHW     bool           `yaml:"-"`
	ConfigFile string         `yaml:"-"`
	Ornament   OrnamentConfig `yaml:"Ornament"`
	Hardware   HardwareConfig `yaml:"Hardware"`
	Logging    LoggingConfig  `yaml:"Logging"`
	Web        WebConfig      `yaml:"Web"`
	MQTT       MQTTConfig     `yaml:"MQTT"`
}

// OrnamentConfig holds the settings that may be changed while running.
type OrnamentConfig struct {
	StartOn   bool          `yaml:"StartOn" json:"StartOn"`
	TickDelay time.Duration `yaml:"TickDelay" json:"TickDelay"`
	ChaseTail int           `yaml:"ChaseTail" json:"ChaseTail"`
}

type ornamentJSON struct {
	StartOn   bool   `json:"StartOn"`
	TickDelay string `json:"TickDelay"`
	ChaseTail int    `json:"ChaseTail"`
}

// MarshalJSON writes TickDelay as a duration string like the YAML file does.
func (o OrnamentConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(ornamentJSON{
		StartOn:   o.StartOn,
		TickDelay: o.TickDelay.String(),
		ChaseTail: o.ChaseTail,
	})
}

// UnmarshalJSON accepts TickDelay as a duration string ("10ms") or as
// integer nanoseconds.
func (o *OrnamentConfig) UnmarshalJSON(data []byte) error {
	var raw struct {
		StartOn   bool            `json:"StartOn"`
		TickDelay json.RawMessage `json:"TickDelay"`
		ChaseTail int             `json:"ChaseTail"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var delay time.Duration
	if len(raw.TickDelay) > 0 && string(raw.TickDelay) != "null" {
		var text string
		if err := json.Unmarshal(raw.TickDelay, &text); err == nil {
			d, err := time.ParseDuration(text)
			if err != nil {
				return fmt.Errorf("TickDelay: %w", err)
			}
			delay = d
		} else {
			var ns int64
			if err := json.Unmarshal(raw.TickDelay, &ns); err != nil {
				return fmt.Errorf("TickDelay must be a duration string or nanoseconds: %w", err)
			}
			delay = time.Duration(ns)
		}
	}
	*o = OrnamentConfig{StartOn: raw.StartOn, TickDelay: delay, ChaseTail: raw.ChaseTail}
	return nil
}

type HardwareConfig struct {
	LEDType         string        `yaml:"LEDType"`
	SPIFrequency    int           `yaml:"SPIFrequency"`
	ButtonGPIO      int           `yaml:"ButtonGPIO"`
	ButtonActiveLow bool          `yaml:"ButtonActiveLow"`
	DebounceSamples int           `yaml:"DebounceSamples"`
	Display         DisplayConfig `yaml:"Display"`
}

type DisplayConfig struct {
	OuterOffset       int       `yaml:"OuterOffset"`
	ColorCorrection   []float64 `yaml:"ColorCorrection,flow"`
	APA102_Brightness uint8     `yaml:"APA102_Brightness"`
}

type LogConfig struct {
	Level  string `yaml:"Level"`
	Format string `yaml:"Format"`
	File   string `yaml:"File"`
}

type LoggingConfig struct {
	TUI LogConfig `yaml:"TUI"`
	HW  LogConfig `yaml:"HW"`
}

type WebConfig struct {
	Enabled bool   `yaml:"Enabled"`
	Address string `yaml:"Address"`
}

type MQTTConfig struct {
	Enabled  bool   `yaml:"Enabled"`
	Broker   string `yaml:"Broker"`
	Topic    string `yaml:"Topic"`
	ClientID string `yaml:"ClientID"`
}

// RuntimeConfig is the part of the configuration that can be changed
// through the web API. Hardware and surface settings are not included.
type RuntimeConfig struct {
	Ornament OrnamentConfig `yaml:"Ornament" json:"Ornament"`
}

// Default returns a configuration for the stock 19 pixel ornament.
func Default() Config {
	return Config{
		Ornament: OrnamentConfig{
			StartOn:   true,
			TickDelay: 10 * time.Millisecond,
			ChaseTail: 2,
		},
		Hardware: HardwareConfig{
			LEDType:         APA102,
			SPIFrequency:    1_000_000,
			ButtonGPIO:      17,
			ButtonActiveLow: true,
			DebounceSamples: 3,
			Display: DisplayConfig{
				OuterOffset:       3,
				ColorCorrection:   []float64{1, 1, 1},
				APA102_Brightness: 31,
			},
		},
		Logging: LoggingConfig{
			TUI: LogConfig{Level: "INFO", Format: "text"},
			HW:  LogConfig{Level: "INFO", Format: "text"},
		},
		Web: WebConfig{Address: ":8080"},
		MQTT: MQTTConfig{
			Topic:    "ornament/state",
			ClientID: "ornament",
		},
	}
}

// ReadConfig reads cfile on top of the defaults and validates the result.
func ReadConfig(cfile string) (*Config, error) {
	f, err := os.Open(cfile)
	if err != nil {
		return nil, fmt.Errorf("can't open config file %s: %w", cfile, err)
	}
	defer f.Close()

	conf := Default()
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&conf); err != nil {
		return nil, fmt.Errorf("can't decode config file %s: %w", cfile, err)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	conf.ConfigFile = cfile
	return &conf, nil
}

// Validate checks all sections and joins every problem found.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	o := c.Ornament
	if o.TickDelay <= 0 {
		add("Ornament.TickDelay must be positive, got %s", o.TickDelay)
	}
	if o.TickDelay > time.Second {
		add("Ornament.TickDelay must not exceed 1s, got %s", o.TickDelay)
	}
	if o.ChaseTail < 0 || o.ChaseTail > 11 {
		add("Ornament.ChaseTail must be between 0 and 11, got %d", o.ChaseTail)
	}

	h := c.Hardware
	if !slices.Contains([]string{APA102, WS2801, WS2812}, strings.ToUpper(h.LEDType)) {
		add("Hardware.LEDType must be %s, %s or %s, got %q", APA102, WS2801, WS2812, h.LEDType)
	}
	if h.SPIFrequency <= 0 {
		add("Hardware.SPIFrequency must be positive, got %d", h.SPIFrequency)
	}
	if h.ButtonGPIO < 0 || h.ButtonGPIO > 27 {
		add("Hardware.ButtonGPIO must be between 0 and 27, got %d", h.ButtonGPIO)
	}
	if h.DebounceSamples < 1 {
		add("Hardware.DebounceSamples must be at least 1, got %d", h.DebounceSamples)
	}
	d := h.Display
	if d.OuterOffset < 0 || d.OuterOffset > 11 {
		add("Hardware.Display.OuterOffset must be between 0 and 11, got %d", d.OuterOffset)
	}
	if len(d.ColorCorrection) != 3 {
		add("Hardware.Display.ColorCorrection must have 3 values, got %d", len(d.ColorCorrection))
	}
	for i, v := range d.ColorCorrection {
		if v < 0 || v > 1 {
			add("Hardware.Display.ColorCorrection[%d] must be between 0 and 1, got %v", i, v)
		}
	}
	if d.APA102_Brightness > 31 {
		add("Hardware.Display.APA102_Brightness must be between 0 and 31, got %d", d.APA102_Brightness)
	}

	if c.Web.Enabled && c.Web.Address == "" {
		add("Web.Address must be set when Web is enabled")
	}
	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" {
			add("MQTT.Broker must be set when MQTT is enabled")
		}
		if c.MQTT.Topic == "" {
			add("MQTT.Topic must be set when MQTT is enabled")
		}
	}
	return errors.Join(errs...)
}

// Runtime extracts the runtime-changeable part.
func (c *Config) Runtime() RuntimeConfig {
	return RuntimeConfig{Ornament: c.Ornament}
}

// Apply merges a runtime configuration into c.
func (c *Config) Apply(r RuntimeConfig) {
	c.Ornament = r.Ornament
}

// Log returns the logging section for the selected platform.
func (c *Config) Log() LogConfig {
	if c.RealHW {
		return c.Logging.HW
	}
	return c.Logging.TUI
}

// Geometry is the default ring layout with the configured outer offset.
func (c *Config) Geometry() ring.Geometry {
	g := ring.DefaultGeometry
	g.OuterOffset = c.Hardware.Display.OuterOffset
	return g
}
