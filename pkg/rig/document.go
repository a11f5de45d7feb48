// Package rig loads declarative rig documents: sensor profiles, sensor
// placements, occluders and a scripted point of interest. Documents are
// YAML, validated against an embedded JSON schema before decoding.
package rig

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-visioncone/pkg/curve"
)

// ErrInvalidDocument is returned when a document fails schema validation or
// references something it does not define.
var ErrInvalidDocument = errors.New("rig: invalid document")

//go:embed demo.yaml
var demoYAML []byte

// Document is a decoded rig file.
type Document struct {
	Name      string             `yaml:"name"`
	Capacity  int                `yaml:"capacity"`
	Atlas     AtlasSpec          `yaml:"atlas"`
	Profiles  map[string]Profile `yaml:"profiles"`
	Sensors   []SensorSpec       `yaml:"sensors"`
	Occluders []OccluderSpec     `yaml:"occluders"`
	Target    *TargetSpec        `yaml:"target"`
}

// AtlasSpec overrides atlas options. Zero values keep the defaults.
type AtlasSpec struct {
	Quality   string  `yaml:"quality"`
	Size      int     `yaml:"size"`
	Margin    *int    `yaml:"margin"`
	Near      float64 `yaml:"near"`
	FarPlane  string  `yaml:"far_plane"`
	ReversedZ bool    `yaml:"reversed_z"`
}

// Cone overrides one cone baseline.
type Cone struct {
	Radius *float64  `yaml:"radius"`
	FOV    *float64  `yaml:"fov"`
	Color  []float64 `yaml:"color"`
}

// Profile is a named sensor configuration: a preset plus overrides.
type Profile struct {
	Preset              string         `yaml:"preset"`
	SeekToAlert         *time.Duration `yaml:"seek_to_alert"`
	AlertToSeek         *time.Duration `yaml:"alert_to_seek"`
	SeekToAlertCurve    *curve.Spec    `yaml:"seek_to_alert_curve"`
	AlertToSeekCurve    *curve.Spec    `yaml:"alert_to_seek_curve"`
	RotationSpeed       *float64       `yaml:"rotation_speed"`
	RotationLimit       *float64       `yaml:"rotation_limit"`
	IdleSweep           *bool          `yaml:"idle_sweep"`
	MinEngagementRadius *float64       `yaml:"min_engagement_radius"`
	Seek                Cone           `yaml:"seek"`
	Alert               Cone           `yaml:"alert"`
}

// SensorSpec places one sensor.
type SensorSpec struct {
	Name     string    `yaml:"name"`
	ID       string    `yaml:"id"`
	Profile  string    `yaml:"profile"`
	Inert    bool      `yaml:"inert"`
	Disabled bool      `yaml:"disabled"`
	Position []float64 `yaml:"position"`
	Forward  []float64 `yaml:"forward"`
}

// OccluderSpec is a static box that blocks sight and casts into the atlas.
type OccluderSpec struct {
	Name   string    `yaml:"name"`
	Center []float64 `yaml:"center"`
	Size   []float64 `yaml:"size"`
}

// TargetSpec is the scripted point of interest.
type TargetSpec struct {
	Name   string     `yaml:"name"`
	Size   []float64  `yaml:"size"`
	Motion MotionSpec `yaml:"motion"`
}

// MotionSpec describes how the target moves.
type MotionSpec struct {
	Kind   string    `yaml:"kind"`
	Center []float64 `yaml:"center"`
	Radius float64   `yaml:"radius"`
	Speed  float64   `yaml:"speed"`
	Axis   []float64 `yaml:"axis"`
}

// Parse validates and decodes a YAML rig document. name is used in errors.
func Parse(name string, data []byte) (*Document, error) {
	var generic map[string]interface{}
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("rig: decode %s: %w", name, err)
	}
	if err := validate(generic); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("rig: decode %s: %w", name, err)
	}
	if doc.Name == "" {
		doc.Name = name
	}
	return &doc, nil
}

// Load reads and parses a rig file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rig: read %s: %w", path, err)
	}
	return Parse(path, data)
}

// Demo returns the built-in demo rig.
func Demo() *Document {
	doc, err := Parse("demo", demoYAML)
	if err != nil {
		panic(err) // embedded document is covered by tests
	}
	return doc
}
