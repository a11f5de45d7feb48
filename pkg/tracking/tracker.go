// Package tracking drives the per-frame loop: read the point of interest,
// update every sensor, snapshot the registry, render the atlas and hand the
// frame to publishers.
package tracking

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-visioncone/pkg/atlas"
	"github.com/teslashibe/go-visioncone/pkg/geom"
	"github.com/teslashibe/go-visioncone/pkg/registry"
	"github.com/teslashibe/go-visioncone/pkg/sensor"
)

// TargetProvider yields the point of interest each tick.
type TargetProvider interface {
	TargetPosition() (geom.Vec3, bool)
}

// TargetFunc adapts a function to TargetProvider.
type TargetFunc func() (geom.Vec3, bool)

// TargetPosition implements TargetProvider.
func (f TargetFunc) TargetPosition() (geom.Vec3, bool) { return f() }

// Publisher receives every rendered frame, e.g. the dashboard.
type Publisher interface {
	PublishFrame(frame *atlas.Frame, sensors []sensor.Status)
}

// Stats summarizes the loop.
type Stats struct {
	Frames     uint64        `json:"frames"`
	Rendered   int           `json:"rendered"`
	Skipped    int           `json:"skipped"`
	Sensors    int           `json:"sensors"`
	Overflow   int           `json:"overflow"`
	RenderTime time.Duration `json:"render_time_ns"`
	Errors     uint64        `json:"errors"`
}

// Tracker runs sensors and the atlas renderer in lock step.
type Tracker struct {
	config   Config
	registry *registry.Registry
	renderer *atlas.Renderer
	target   TargetProvider
	log      *slog.Logger

	mu         sync.RWMutex
	camera     atlas.Camera
	publishers []Publisher
	lastFrame  *atlas.Frame
	stats      Stats
	isRunning  bool
}

// New creates a tracker. target may be nil, in which case nothing is ever
// visible.
func New(config Config, reg *registry.Registry, renderer *atlas.Renderer, target TargetProvider) *Tracker {
	return &Tracker{
		config:   config,
		registry: reg,
		renderer: renderer,
		target:   target,
		camera:   atlas.IdentityCamera(),
		log:      slog.Default().With("component", "tracker"),
	}
}

// SetLogger replaces the logger.
func (t *Tracker) SetLogger(l *slog.Logger) {
	if l != nil {
		t.log = l.With("component", "tracker")
	}
}

// SetCamera sets the main camera restored after each atlas pass.
func (t *Tracker) SetCamera(c atlas.Camera) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.camera = c
}

// AddPublisher registers a frame consumer.
func (t *Tracker) AddPublisher(p Publisher) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.publishers = append(t.publishers, p)
}

// Registry returns the sensor registry.
func (t *Tracker) Registry() *registry.Registry {
	return t.registry
}

// LastFrame returns the most recent frame, or nil before the first tick.
func (t *Tracker) LastFrame() *atlas.Frame {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastFrame
}

// Stats returns loop counters.
func (t *Tracker) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stats
}

// IsRunning reports whether Run is active.
func (t *Tracker) IsRunning() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.isRunning
}

// Statuses returns a debugging view of every registered sensor.
func (t *Tracker) Statuses() []sensor.Status {
	sensors := t.registry.Sensors()
	out := make([]sensor.Status, len(sensors))
	for i, s := range sensors {
		out[i] = s.Status()
	}
	return out
}

// Step runs one frame. All sensors update before the snapshot, including
// those past the registry's capacity. The frame is always non-nil.
func (t *Tracker) Step(dt time.Duration) (*atlas.Frame, error) {
	if dt < 0 {
		dt = 0
	}
	if t.config.MaxDeltaTime > 0 && dt > t.config.MaxDeltaTime {
		dt = t.config.MaxDeltaTime
	}

	var (
		target    geom.Vec3
		hasTarget bool
	)
	if t.target != nil {
		target, hasTarget = t.target.TargetPosition()
	}

	sensors := t.registry.Sensors()
	for _, s := range sensors {
		if hasTarget {
			s.Update(dt, target)
		} else {
			s.Tick(dt)
		}
	}

	snaps := t.registry.Snapshot()

	t.mu.RLock()
	camera := t.camera
	t.mu.RUnlock()

	start := time.Now()
	frame, err := t.renderer.Render(snaps, camera)
	elapsed := time.Since(start)

	statuses := make([]sensor.Status, len(sensors))
	for i, s := range sensors {
		statuses[i] = s.Status()
	}

	t.mu.Lock()
	t.lastFrame = frame
	t.stats.Frames++
	t.stats.Rendered = frame.Rendered
	t.stats.Skipped = frame.Skipped
	t.stats.Sensors = len(sensors)
	t.stats.Overflow = t.registry.Overflow()
	t.stats.RenderTime = elapsed
	if err != nil {
		t.stats.Errors++
	}
	publishers := append([]Publisher(nil), t.publishers...)
	t.mu.Unlock()

	if err != nil {
		t.log.Warn("render failed", "error", err)
	}
	for _, p := range publishers {
		p.PublishFrame(frame, statuses)
	}
	return frame, err
}

// decayer is implemented by target providers that age their readings.
type decayer interface {
	DecayConfidence(dt float64)
}

// Run steps the tracker every TickInterval until ctx is done.
func (t *Tracker) Run(ctx context.Context) {
	interval := t.config.TickInterval
	if interval <= 0 {
		interval = DefaultConfig().TickInterval
	}
	tick := time.NewTicker(interval)
	defer tick.Stop()

	var decayC <-chan time.Time
	decay, canDecay := t.target.(decayer)
	if canDecay && t.config.DecayInterval > 0 {
		decayTicker := time.NewTicker(t.config.DecayInterval)
		defer decayTicker.Stop()
		decayC = decayTicker.C
	}

	t.mu.Lock()
	t.isRunning = true
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		t.isRunning = false
		t.mu.Unlock()
	}()

	t.log.Info("tracker started",
		"tick", interval,
		"sensors", t.registry.Len(),
		"capacity", t.registry.Capacity(),
		"atlas", t.renderer.Options().AtlasSize)

	last := time.Now()
	lastDecay := last
	for {
		select {
		case <-ctx.Done():
			t.log.Info("tracker stopped", "frames", t.Stats().Frames)
			return

		case now := <-tick.C:
			dt := now.Sub(last)
			last = now
			t.Step(dt)

		case now := <-decayC:
			decay.DecayConfidence(now.Sub(lastDecay).Seconds())
			lastDecay = now
		}
	}
}
