package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported ADC drivers.
const (
	DriverSPI   = "spi"   // hardware SPI via periph.io
	DriverGPIO  = "gpio"  // bit-bashed SPI via gpiod
	DriverSim   = "sim"   // simulated waveforms
	DriverFixed = "fixed" // constant codes from simulation.values
)

// Supported ADC parts.
const (
	PartMCP300x = "mcp300x" // 10-bit
	PartMCP320x = "mcp320x" // 12-bit
)

// Config represents the application configuration.
type Config struct {
	ADC        ADCConfig        `yaml:"adc"`
	Sampling   SamplingConfig   `yaml:"sampling"`
	Format     FormatConfig     `yaml:"format"`
	Sinks      SinksConfig      `yaml:"sinks"`
	Console    ConsoleConfig    `yaml:"console"`
	Storage    StorageConfig    `yaml:"storage"`
	Simulation SimulationConfig `yaml:"simulation"`
	Log        LogConfig        `yaml:"log"`
}

// ADCConfig describes the converter and how it is wired.
type ADCConfig struct {
	Driver    string     `yaml:"driver"`
	Part      string     `yaml:"part"`
	MaxValue  uint32     `yaml:"max_value"` // Number of distinct codes, e.g. 1024 for 10 bits
	Reference float64    `yaml:"reference"` // Full scale in engineering units
	SPI       SPIConfig  `yaml:"spi"`
	Pins      PinsConfig `yaml:"pins"`
}

// SPIConfig selects a hardware SPI port.
type SPIConfig struct {
	Port    string `yaml:"port"` // periph port name, empty for the first available
	SpeedHz int64  `yaml:"speed_hz"`
}

// PinsConfig holds line offsets for the bit-bashed bus.
type PinsConfig struct {
	Chip string        `yaml:"chip"`
	MOSI int           `yaml:"mosi"`
	MISO int           `yaml:"miso"`
	SCLK int           `yaml:"sclk"`
	CS   int           `yaml:"cs"`
	Tclk time.Duration `yaml:"tclk"`
}

// SamplingConfig contains the acquisition rate and channel selection.
type SamplingConfig struct {
	FrequencyHz float64 `yaml:"frequency_hz"`
	ChannelX    int     `yaml:"channel_x"`
	ChannelY    int     `yaml:"channel_y"`
	Count       int     `yaml:"count"` // Records to log before stopping (0 = run forever)
}

// FormatConfig contains the record layout.
type FormatConfig struct {
	Width     int    `yaml:"width"`
	Pad       string `yaml:"pad"`
	Precision *int   `yaml:"precision"` // Pointer so that an explicit 0 survives defaults
	Delimiter string `yaml:"delimiter"`
	Header    bool   `yaml:"header"` // Write a column header when a new log file is created
}

// SinksConfig selects the active outputs.
type SinksConfig struct {
	Console bool `yaml:"console"`
	Storage bool `yaml:"storage"`
}

// ConsoleConfig selects the console stream. An empty port means stdout.
type ConsoleConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// StorageConfig contains the persistent log location.
type StorageConfig struct {
	Volume    string `yaml:"volume"`
	File      string `yaml:"file"`
	Overwrite bool   `yaml:"overwrite"` // Remove an existing log before opening
}

// SimulationConfig contains simulated ADC parameters.
type SimulationConfig struct {
	Amplitude float64       `yaml:"amplitude"` // Fraction of full scale (0..0.5)
	Offset    float64       `yaml:"offset"`    // Fraction of full scale (0..1)
	Period    time.Duration `yaml:"period"`
	Noise     float64       `yaml:"noise"`  // Fraction of full scale
	Values    []uint16      `yaml:"values"` // Per-channel codes for the fixed driver
}

// LogConfig contains logging parameters.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	precision := 3
	return &Config{
		ADC: ADCConfig{
			Driver:    DriverSim,
			Part:      PartMCP300x,
			MaxValue:  1024,
			Reference: 15,
			SPI: SPIConfig{
				SpeedHz: 1_000_000, // MCP3008 limit at 2.7V
			},
			Pins: PinsConfig{
				Chip: "gpiochip0",
				MOSI: 17,
				MISO: 27,
				SCLK: 22,
				CS:   4,
				Tclk: 500 * time.Nanosecond,
			},
		},
		Sampling: SamplingConfig{
			FrequencyHz: 2,
			ChannelX:    0,
			ChannelY:    1,
		},
		Format: FormatConfig{
			Width:     6,
			Pad:       " ",
			Precision: &precision,
			Delimiter: ", ",
		},
		Sinks: SinksConfig{
			Console: true,
			Storage: false,
		},
		Console: ConsoleConfig{
			BaudRate: 115200,
		},
		Storage: StorageConfig{
			Volume: ".",
			File:   "FUEL_FLO.CSV",
		},
		Simulation: SimulationConfig{
			Amplitude: 0.25,
			Offset:    0.5,
			Period:    10 * time.Second,
			Noise:     0.002,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Period returns the sampling period derived from the configured frequency.
func (c *Config) Period() time.Duration {
	return time.Duration(float64(time.Second) / c.Sampling.FrequencyHz)
}

// PadChar returns the first byte of the pad string.
func (c *Config) PadChar() byte {
	return c.Format.Pad[0]
}

// Validate reports the first inconsistency in the configuration.
func (c *Config) Validate() error {
	switch c.ADC.Driver {
	case DriverSPI, DriverGPIO, DriverSim:
	case DriverFixed:
		if len(c.Simulation.Values) == 0 {
			return fmt.Errorf("fixed adc driver requires simulation values")
		}
	default:
		return fmt.Errorf("unknown adc driver %q", c.ADC.Driver)
	}
	switch strings.ToLower(c.ADC.Part) {
	case PartMCP300x, PartMCP320x:
	default:
		return fmt.Errorf("unknown adc part %q", c.ADC.Part)
	}
	if c.ADC.MaxValue == 0 {
		return fmt.Errorf("adc max_value must be positive")
	}
	if c.Sampling.FrequencyHz <= 0 {
		return fmt.Errorf("sampling frequency must be positive, got %v", c.Sampling.FrequencyHz)
	}
	for _, ch := range []int{c.Sampling.ChannelX, c.Sampling.ChannelY} {
		if ch < 0 || ch > 7 {
			return fmt.Errorf("channel %d out of range 0..7", ch)
		}
	}
	if c.Sampling.Count < 0 {
		return fmt.Errorf("sample count must not be negative")
	}
	if c.Format.Width < 1 {
		return fmt.Errorf("format width must be at least 1, got %d", c.Format.Width)
	}
	if c.Format.Precision == nil || *c.Format.Precision < 0 {
		return fmt.Errorf("format precision must not be negative")
	}
	if len(c.Format.Pad) != 1 {
		return fmt.Errorf("format pad must be a single character, got %q", c.Format.Pad)
	}
	if !c.Sinks.Console && !c.Sinks.Storage {
		return fmt.Errorf("at least one sink must be enabled")
	}
	if c.Sinks.Storage && c.Storage.File == "" {
		return fmt.Errorf("storage file name is required")
	}
	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.ADC.Driver == "" {
		c.ADC.Driver = def.ADC.Driver
	}
	if c.ADC.Part == "" {
		c.ADC.Part = def.ADC.Part
	}
	if c.ADC.MaxValue == 0 {
		c.ADC.MaxValue = def.ADC.MaxValue
	}
	if c.ADC.Reference == 0 {
		c.ADC.Reference = def.ADC.Reference
	}
	if c.ADC.SPI.SpeedHz == 0 {
		c.ADC.SPI.SpeedHz = def.ADC.SPI.SpeedHz
	}
	if c.ADC.Pins.Chip == "" {
		c.ADC.Pins.Chip = def.ADC.Pins.Chip
	}
	if c.ADC.Pins.Tclk == 0 {
		c.ADC.Pins.Tclk = def.ADC.Pins.Tclk
	}

	if c.Sampling.FrequencyHz == 0 {
		c.Sampling.FrequencyHz = def.Sampling.FrequencyHz
	}

	if c.Format.Width == 0 {
		c.Format.Width = def.Format.Width
	}
	if c.Format.Pad == "" {
		c.Format.Pad = def.Format.Pad
	}
	if c.Format.Precision == nil {
		c.Format.Precision = def.Format.Precision
	}
	if c.Format.Delimiter == "" {
		c.Format.Delimiter = def.Format.Delimiter
	}

	if c.Console.BaudRate == 0 {
		c.Console.BaudRate = def.Console.BaudRate
	}

	if c.Storage.Volume == "" {
		c.Storage.Volume = def.Storage.Volume
	}
	if c.Storage.File == "" {
		c.Storage.File = def.Storage.File
	}

	if c.Simulation.Period == 0 {
		c.Simulation.Period = def.Simulation.Period
	}

	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}
