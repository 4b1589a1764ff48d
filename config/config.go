// Package config provides configuration loading and access for the field visualizer.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is returned by Validate for unusable configuration values.
var ErrInvalid = errors.New("invalid config")

// Config holds all visualizer configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Field     FieldConfig     `yaml:"field"`
	Colors    ColorsConfig    `yaml:"colors"`
	Charges   []ChargeConfig  `yaml:"charges"`
	UI        UIConfig        `yaml:"ui"`
	Camera    CameraConfig    `yaml:"camera"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// FieldConfig holds the field kernel parameters. These are fixed once the
// evaluator is built.
type FieldConfig struct {
	DomainSize        float64 `yaml:"domain_size"`         // Edge length of the cubic domain
	Subdivisions      int     `yaml:"subdivisions"`        // Samples per axis (N); N^3 total
	CoulombK          float64 `yaml:"coulomb_k"`           // Field constant (visual tuning, not physical)
	LineLength        float64 `yaml:"line_length"`         // Divisor applied to each field contribution
	InitialLineLength float64 `yaml:"initial_line_length"` // Segment length before the first pass
	OpacityMin        float64 `yaml:"opacity_min"`         // Alpha floor
	OpacityMax        float64 `yaml:"opacity_max"`         // Alpha ceiling
	MinDistanceSq     float64 `yaml:"min_distance_sq"`     // r^2 clamp for samples sitting on a charge
	Workers           int     `yaml:"workers"`             // Goroutines per pass (1 = single-threaded)
}

// RGB is a normalized color.
type RGB struct {
	R float64 `yaml:"r"`
	G float64 `yaml:"g"`
	B float64 `yaml:"b"`
}

// ColorsConfig holds the fixed RGB channels of each segment vertex.
type ColorsConfig struct {
	Start  RGB `yaml:"start"`
	Middle RGB `yaml:"middle"`
	End    RGB `yaml:"end"`
}

// ChargeConfig describes a charge placed at startup.
type ChargeConfig struct {
	X         float64 `yaml:"x"`
	Y         float64 `yaml:"y"`
	Z         float64 `yaml:"z"`
	Magnitude float64 `yaml:"magnitude"`
}

// UIConfig holds charge editing parameters.
type UIConfig struct {
	MagnitudeMin       float64 `yaml:"magnitude_min"`
	MagnitudeMax       float64 `yaml:"magnitude_max"`
	MagnitudeStep      float64 `yaml:"magnitude_step"`
	MoveSpeed          float64 `yaml:"move_speed"`           // World units per second when dragging with keys
	NewChargeMagnitude float64 `yaml:"new_charge_magnitude"` // Magnitude of charges created by the button
	ChargeRadius       float64 `yaml:"charge_radius"`        // Sphere radius for drawing and picking
}

// CameraConfig holds orbit camera parameters.
type CameraConfig struct {
	Yaw         float64 `yaml:"yaw"`
	Pitch       float64 `yaml:"pitch"`
	Margin      float64 `yaml:"margin"` // Initial distance = domain_size + margin
	MinDistance float64 `yaml:"min_distance"`
	MaxDistance float64 `yaml:"max_distance"`
	Fovy        float64 `yaml:"fovy"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"` // Seconds between stats log lines
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DomainSize32  float32 // Field.DomainSize as float32
	CellSize32    float32 // DomainSize / Subdivisions
	SampleCount   int     // Subdivisions^3
	HalfDomain32  float32 // DomainSize / 2
	CameraDist32  float32 // Initial orbit distance
	ScreenW32     float32
	ScreenH32     float32
	MagnitudeStep float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Defaults returns a fresh copy of the embedded defaults.
func Defaults() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are broken: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := cfg.Merge(data); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Merge overlays YAML data onto the config. Only fields present in data are
// overwritten; a charges list replaces the default list as a whole.
func (c *Config) Merge(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// Validate rejects values the kernel cannot work with.
func (c *Config) Validate() error {
	f := c.Field
	switch {
	case !(f.DomainSize > 0) || math.IsInf(f.DomainSize, 0):
		return fmt.Errorf("%w: field.domain_size must be positive and finite, got %v", ErrInvalid, f.DomainSize)
	case f.Subdivisions < 1:
		return fmt.Errorf("%w: field.subdivisions must be >= 1, got %d", ErrInvalid, f.Subdivisions)
	case f.LineLength == 0 || math.IsNaN(f.LineLength) || math.IsInf(f.LineLength, 0):
		return fmt.Errorf("%w: field.line_length must be non-zero and finite, got %v", ErrInvalid, f.LineLength)
	case f.OpacityMin > f.OpacityMax:
		return fmt.Errorf("%w: field.opacity_min %v exceeds opacity_max %v", ErrInvalid, f.OpacityMin, f.OpacityMax)
	case !(f.MinDistanceSq > 0):
		return fmt.Errorf("%w: field.min_distance_sq must be positive, got %v", ErrInvalid, f.MinDistanceSq)
	case f.Workers < 0:
		return fmt.Errorf("%w: field.workers must be >= 0, got %d", ErrInvalid, f.Workers)
	}
	if c.UI.MagnitudeMin > c.UI.MagnitudeMax {
		return fmt.Errorf("%w: ui.magnitude_min %v exceeds magnitude_max %v", ErrInvalid, c.UI.MagnitudeMin, c.UI.MagnitudeMax)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DomainSize32 = float32(c.Field.DomainSize)
	c.Derived.CellSize32 = float32(c.Field.DomainSize / float64(c.Field.Subdivisions))
	c.Derived.SampleCount = c.Field.Subdivisions * c.Field.Subdivisions * c.Field.Subdivisions
	c.Derived.HalfDomain32 = float32(c.Field.DomainSize / 2)
	c.Derived.CameraDist32 = float32(c.Field.DomainSize + c.Camera.Margin)
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)
	c.Derived.MagnitudeStep = float32(c.UI.MagnitudeStep)

	if c.Field.Workers == 0 {
		c.Field.Workers = 1
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
