package rig

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/teslashibe/go-visioncone/pkg/atlas"
	"github.com/teslashibe/go-visioncone/pkg/geom"
	"github.com/teslashibe/go-visioncone/pkg/registry"
	"github.com/teslashibe/go-visioncone/pkg/scene"
	"github.com/teslashibe/go-visioncone/pkg/sensor"
)

// Rig is a built document: a populated scene, sensors ready to register and
// the atlas options to render them with.
type Rig struct {
	Name     string
	Scene    *scene.Index
	Sensors  []*sensor.Sensor
	Options  atlas.Options
	Capacity int
	Target   *Target // nil when the document has no target
}

// BuildOption configures Build.
type BuildOption func(*buildConfig)

type buildConfig struct {
	log     *slog.Logger
	quality string
	seed    int64
}

// DefaultSeed seeds the idle sweep phases when WithSeed is not given.
const DefaultSeed int64 = 1

// WithLogger passes a logger to every sensor.
func WithLogger(l *slog.Logger) BuildOption {
	return func(c *buildConfig) { c.log = l }
}

// WithQuality overrides the document's atlas quality.
func WithQuality(q string) BuildOption {
	return func(c *buildConfig) { c.quality = q }
}

// WithSeed seeds the idle sweep phases handed to the sensors. Builds of the
// same document with the same seed sweep identically.
func WithSeed(seed int64) BuildOption {
	return func(c *buildConfig) { c.seed = seed }
}

// Build creates the scene and sensors the document describes.
func (d *Document) Build(opts ...BuildOption) (*Rig, error) {
	bc := buildConfig{seed: DefaultSeed}
	for _, o := range opts {
		o(&bc)
	}

	r := &Rig{
		Name:     d.Name,
		Scene:    scene.NewIndex(),
		Capacity: d.Capacity,
	}
	if r.Capacity == 0 {
		r.Capacity = registry.MaxSensors
	}

	atlasOpts, err := d.Atlas.options(bc.quality)
	if err != nil {
		return nil, err
	}
	atlasOpts.Capacity = r.Capacity
	if err := atlasOpts.Validate(); err != nil {
		return nil, fmt.Errorf("rig %s: %w", d.Name, err)
	}
	r.Options = atlasOpts

	for i, o := range d.Occluders {
		name := o.Name
		if name == "" {
			name = fmt.Sprintf("occluder-%d", i)
		}
		body := scene.NewBody(name, scene.BoxAt(vec3(o.Center), vec3(o.Size)), scene.LayerOccluder)
		if err := r.Scene.Add(body); err != nil {
			return nil, fmt.Errorf("rig %s: occluder %s: %w", d.Name, name, err)
		}
	}

	if d.Target != nil {
		t, err := newTarget(*d.Target)
		if err != nil {
			return nil, fmt.Errorf("rig %s: %w", d.Name, err)
		}
		if err := r.Scene.Add(t.Body); err != nil {
			return nil, fmt.Errorf("rig %s: target: %w", d.Name, err)
		}
		t.scene = r.Scene
		r.Target = t
	}

	rng := rand.New(rand.NewSource(bc.seed))
	for _, spec := range d.Sensors {
		s, err := d.sensor(spec, r.Scene, bc.log, rng.Float64()*2)
		if err != nil {
			return nil, fmt.Errorf("rig %s: sensor %s: %w", d.Name, spec.Name, err)
		}
		r.Sensors = append(r.Sensors, s)
	}
	return r, nil
}

// Register adds every sensor to reg in document order and returns how
// many were new.
func (r *Rig) Register(reg *registry.Registry) int {
	n := 0
	for _, s := range r.Sensors {
		if reg.Register(s) {
			n++
		}
	}
	return n
}

func (d *Document) sensor(spec SensorSpec, q scene.Querier, log *slog.Logger, phase float64) (*sensor.Sensor, error) {
	opts := []sensor.Option{sensor.WithSweepPhase(phase)}
	if spec.ID != "" {
		id, err := sensor.ParseID(spec.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: id %q", ErrInvalidDocument, spec.ID)
		}
		opts = append(opts, sensor.WithID(id))
	}
	if log != nil {
		opts = append(opts, sensor.WithLogger(log))
	}
	forward := vec3(spec.Forward)
	if _, ok := geom.HorizontalDir(forward); !ok {
		return nil, fmt.Errorf("%w: forward %v has no horizontal heading", ErrInvalidDocument, spec.Forward)
	}
	opts = append(opts, sensor.WithPose(geom.Pose{Position: vec3(spec.Position), Forward: forward}))

	var cfg *sensor.Config
	if !spec.Inert {
		c, err := d.Config(spec.Profile)
		if err != nil {
			return nil, err
		}
		cfg = &c
	}

	s := sensor.New(spec.Name, cfg, q, opts...)
	if spec.Disabled {
		s.SetEnabled(false)
	}
	return s, nil
}

// Config resolves a profile name: document profiles first, then the
// built-in sensor presets. An empty name is the default preset.
func (d *Document) Config(profile string) (sensor.Config, error) {
	if profile == "" {
		profile = sensor.PresetDefault
	}
	if p, ok := d.Profiles[profile]; ok {
		return p.Config()
	}
	if cfg := sensor.GetPreset(profile); cfg != nil {
		return *cfg, nil
	}
	return sensor.Config{}, fmt.Errorf("%w: unknown profile %q", ErrInvalidDocument, profile)
}

// Config applies the profile's overrides to its preset.
func (p Profile) Config() (sensor.Config, error) {
	base := p.Preset
	if base == "" {
		base = sensor.PresetDefault
	}
	preset := sensor.GetPreset(base)
	if preset == nil {
		return sensor.Config{}, fmt.Errorf("%w: unknown preset %q", ErrInvalidDocument, base)
	}
	cfg := *preset

	if p.SeekToAlert != nil {
		cfg.DurationSeekToAlert = *p.SeekToAlert
	}
	if p.AlertToSeek != nil {
		cfg.DurationAlertToSeek = *p.AlertToSeek
	}
	if p.SeekToAlertCurve != nil {
		f, err := p.SeekToAlertCurve.Func()
		if err != nil {
			return sensor.Config{}, fmt.Errorf("%w: seek_to_alert_curve: %v", ErrInvalidDocument, err)
		}
		cfg.SeekToAlertCurve = f
	}
	if p.AlertToSeekCurve != nil {
		f, err := p.AlertToSeekCurve.Func()
		if err != nil {
			return sensor.Config{}, fmt.Errorf("%w: alert_to_seek_curve: %v", ErrInvalidDocument, err)
		}
		cfg.AlertToSeekCurve = f
	}
	if p.RotationSpeed != nil {
		cfg.RotationSpeed = *p.RotationSpeed
	}
	if p.RotationLimit != nil {
		cfg.RotationLimitDegrees = *p.RotationLimit
	}
	if p.IdleSweep != nil {
		cfg.IdleSweep = *p.IdleSweep
	}
	if p.MinEngagementRadius != nil {
		cfg.MinEngagementRadius = *p.MinEngagementRadius
	}
	p.Seek.apply(&cfg.SeekRadius, &cfg.SeekFOVDegrees, &cfg.SeekColor)
	p.Alert.apply(&cfg.AlertRadius, &cfg.AlertFOVDegrees, &cfg.AlertColor)

	if err := cfg.Validate(); err != nil {
		return sensor.Config{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return cfg, nil
}

func (c Cone) apply(radius, fov *float64, color *geom.Color) {
	if c.Radius != nil {
		*radius = *c.Radius
	}
	if c.FOV != nil {
		*fov = *c.FOV
	}
	if len(c.Color) >= 3 {
		*color = geom.Color{R: c.Color[0], G: c.Color[1], B: c.Color[2], A: 1}
		if len(c.Color) == 4 {
			color.A = c.Color[3]
		}
	}
}

func (a AtlasSpec) options(quality string) (atlas.Options, error) {
	if quality == "" {
		quality = a.Quality
	}
	opts := atlas.DefaultOptions()
	if quality != "" {
		q, err := atlas.ParseQuality(quality)
		if err != nil {
			return atlas.Options{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		opts = atlas.QualityOptions(q)
	}
	if a.Size > 0 {
		opts.AtlasSize = a.Size
	}
	if a.Margin != nil {
		opts.Margin = *a.Margin
	}
	if a.Near > 0 {
		opts.Near = a.Near
	}
	if a.FarPlane == atlas.FarAtDoubleRadius.String() {
		opts.FarPlane = atlas.FarAtDoubleRadius
	}
	opts.ReversedZ = a.ReversedZ
	return opts, nil
}

// vec3 converts a schema-checked triple.
func vec3(v []float64) geom.Vec3 {
	var out geom.Vec3
	copy(out[:], v)
	return out
}
