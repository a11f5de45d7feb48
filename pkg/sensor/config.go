package sensor

import (
	"errors"
	"fmt"
	"time"

	"github.com/teslashibe/go-visioncone/pkg/curve"
	"github.com/teslashibe/go-visioncone/pkg/geom"
)

// Config holds the tunables for one sensor. A sensor copies its Config at
// construction and never writes to it.
type Config struct {
	// Transition timing
	DurationSeekToAlert time.Duration
	DurationAlertToSeek time.Duration
	SeekToAlertCurve    curve.Func // nil = linear
	AlertToSeekCurve    curve.Func // nil = linear

	// Rotation
	RotationSpeed        float64 // Idle sweep angular frequency (rad/s)
	RotationLimitDegrees float64 // Max yaw change per tick while aiming; idle sweep amplitude
	IdleSweep            bool    // Oscillate while seeking

	// Engagement
	MinEngagementRadius float64 // Don't turn toward targets closer than this

	// Cone
	SeekRadius      float64
	AlertRadius     float64
	SeekFOVDegrees  float64
	AlertFOVDegrees float64

	// Presentation
	SeekColor  geom.Color
	AlertColor geom.Color
}

// DefaultConfig returns a security-camera style sensor: a wide short cone
// that narrows and reaches further once it spots something.
func DefaultConfig() Config {
	return Config{
		DurationSeekToAlert: 1 * time.Second,
		DurationAlertToSeek: 2 * time.Second,
		SeekToAlertCurve:    curve.Linear,
		AlertToSeekCurve:    curve.Linear,

		RotationSpeed:        1,
		RotationLimitDegrees: 45,

		MinEngagementRadius: 0.5,

		SeekRadius:      5,
		AlertRadius:     10,
		SeekFOVDegrees:  90,
		AlertFOVDegrees: 35,

		SeekColor:  geom.Green,
		AlertColor: geom.Red,
	}
}

// Preset names
const (
	PresetDefault = "default"
	PresetPatrol  = "patrol"
	PresetSentry  = "sentry"
	PresetTwitchy = "twitchy"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault: DefaultConfig(),
		PresetPatrol:  PatrolConfig(),
		PresetSentry:  SentryConfig(),
		PresetTwitchy: TwitchyConfig(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{PresetDefault, PresetPatrol, PresetSentry, PresetTwitchy}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	if cfg, ok := Presets()[name]; ok {
		return &cfg
	}
	return nil
}

// PatrolConfig sweeps back and forth while idle.
func PatrolConfig() Config {
	cfg := DefaultConfig()
	cfg.IdleSweep = true
	cfg.RotationSpeed = 0.6
	cfg.SeekToAlertCurve = curve.EaseOut
	cfg.AlertToSeekCurve = curve.EaseInOut
	return cfg
}

// SentryConfig watches a long narrow corridor and is slow to give up.
func SentryConfig() Config {
	cfg := DefaultConfig()
	cfg.SeekRadius = 12
	cfg.AlertRadius = 18
	cfg.SeekFOVDegrees = 40
	cfg.AlertFOVDegrees = 25
	cfg.DurationAlertToSeek = 5 * time.Second
	cfg.RotationLimitDegrees = 10
	return cfg
}

// TwitchyConfig reacts almost instantly in both directions.
func TwitchyConfig() Config {
	cfg := DefaultConfig()
	cfg.DurationSeekToAlert = 250 * time.Millisecond
	cfg.DurationAlertToSeek = 500 * time.Millisecond
	cfg.SeekToAlertCurve = curve.EaseIn
	cfg.RotationLimitDegrees = 90
	return cfg
}

// Validate reports values outside their documented ranges. Sensors run with
// invalid configs anyway; this is for tooling.
func (c Config) Validate() error {
	var errs []error
	if c.DurationSeekToAlert <= 0 {
		errs = append(errs, fmt.Errorf("duration seek->alert must be positive, got %v", c.DurationSeekToAlert))
	}
	if c.DurationAlertToSeek <= 0 {
		errs = append(errs, fmt.Errorf("duration alert->seek must be positive, got %v", c.DurationAlertToSeek))
	}
	for name, r := range map[string]float64{
		"seek radius":           c.SeekRadius,
		"alert radius":          c.AlertRadius,
		"min engagement radius": c.MinEngagementRadius,
	} {
		if !(r > 0) {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", name, r))
		}
	}
	for name, f := range map[string]float64{
		"seek fov":  c.SeekFOVDegrees,
		"alert fov": c.AlertFOVDegrees,
	} {
		if !(f > 0 && f < 360) {
			errs = append(errs, fmt.Errorf("%s must be in (0, 360), got %v", name, f))
		}
	}
	if c.RotationLimitDegrees < 0 {
		errs = append(errs, fmt.Errorf("rotation limit must not be negative, got %v", c.RotationLimitDegrees))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("sensor: invalid config: %w", errors.Join(errs...))
}
