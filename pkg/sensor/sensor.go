// Package sensor implements a vision-cone sensor: an alertness state machine
// that widens or narrows its cone between a seek profile and an alert
// profile as a target comes in and out of view.
package sensor

import (
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/teslashibe/go-visioncone/pkg/curve"
	"github.com/teslashibe/go-visioncone/pkg/geom"
	"github.com/teslashibe/go-visioncone/pkg/scene"
	"github.com/teslashibe/go-visioncone/pkg/visibility"
)

// Sensor is one cone. It is safe for concurrent use, though the update
// loop is expected to be driven from a single goroutine.
type Sensor struct {
	mu sync.RWMutex

	id      ID
	name    string
	cfg     *Config
	query   scene.Querier
	vis     visibility.Params
	log     *slog.Logger
	enabled bool

	// Pose
	position geom.Vec3
	rest     geom.Vec3 // mount heading; idle sweep oscillates around it
	facing   geom.Vec3

	// Machine
	state  State
	timer  time.Duration
	locked scene.Locator

	// Interpolated cone
	radius float64
	fov    float64
	color  geom.Color

	// Idle sweep
	clock time.Duration
	phase float64
}

// Option configures a Sensor.
type Option func(*Sensor)

// WithID sets the sensor ID instead of generating one.
func WithID(id ID) Option {
	return func(s *Sensor) { s.id = id }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sensor) {
		if l != nil {
			s.log = l
		}
	}
}

// WithVisibility overrides the line-of-sight parameters.
func WithVisibility(p visibility.Params) Option {
	return func(s *Sensor) { s.vis = p }
}

// WithSweepPhase fixes the idle sweep phase (radians).
func WithSweepPhase(phase float64) Option {
	return func(s *Sensor) { s.phase = phase }
}

// WithPose sets the initial pose.
func WithPose(p geom.Pose) Option {
	return func(s *Sensor) { s.setPose(p) }
}

// New creates a sensor in Seeking with its cone at the seek baseline.
// A nil cfg gives an inert sensor: it never transitions or queries the
// scene and its snapshots report disabled.
func New(name string, cfg *Config, q scene.Querier, opts ...Option) *Sensor {
	s := &Sensor{
		id:      NewID(),
		name:    name,
		query:   q,
		vis:     visibility.DefaultParams(),
		enabled: true,
		facing:  geom.Vec3{0, 0, 1},
		rest:    geom.Vec3{0, 0, 1},
		state:   Seeking,
		phase:   rand.Float64() * 2,
	}
	if cfg != nil {
		c := *cfg
		s.cfg = &c
		s.radius = c.SeekRadius
		s.fov = c.SeekFOVDegrees
		s.color = c.SeekColor
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.log = s.log.With("component", "sensor", "sensor", name)
	return s
}

// ID returns the sensor's identifier.
func (s *Sensor) ID() ID { return s.id }

// Name returns the display name.
func (s *Sensor) Name() string { return s.name }

// Inert reports whether the sensor has no config.
func (s *Sensor) Inert() bool { return s.cfg == nil }

// Config returns a copy of the config, or nil for an inert sensor.
func (s *Sensor) Config() *Config {
	if s.cfg == nil {
		return nil
	}
	c := *s.cfg
	return &c
}

// SetPose moves the sensor mount. Facing snaps to the new forward.
func (s *Sensor) SetPose(p geom.Pose) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setPose(p)
}

func (s *Sensor) setPose(p geom.Pose) {
	s.position = p.Position
	if p.Forward.Len() > 1e-9 && geom.Finite(p.Forward) {
		s.rest = p.Forward.Normalize()
		s.facing = s.rest
	}
}

// Pose returns the current position and facing.
func (s *Sensor) Pose() geom.Pose {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return geom.Pose{Position: s.position, Forward: s.facing}
}

// SetEnabled turns the sensor on or off without deregistering it. A disabled
// sensor keeps its state but does not update and snapshots as disabled.
func (s *Sensor) SetEnabled(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enabled != on {
		s.log.Debug("enabled changed", "enabled", on)
	}
	s.enabled = on
}

// Enabled reports whether the sensor is switched on.
func (s *Sensor) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

// State returns the current state.
func (s *Sensor) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Timer returns the transition timer.
func (s *Sensor) Timer() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timer
}

// Cone returns the current radius, field of view in degrees and color.
func (s *Sensor) Cone() (radius, fovDegrees float64, color geom.Color) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.radius, s.fov, s.color
}

// Target returns the locked target, if any.
func (s *Sensor) Target() (scene.Locator, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locked, s.locked != nil
}

// Update advances the machine by dt with the point of interest at target.
func (s *Sensor) Update(dt time.Duration, target geom.Vec3) State {
	return s.update(dt, target, true)
}

// Tick advances the machine by dt with no point of interest; the target
// reads as not visible.
func (s *Sensor) Tick(dt time.Duration) State {
	return s.update(dt, geom.Vec3{}, false)
}

func (s *Sensor) update(dt time.Duration, target geom.Vec3, hasTarget bool) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg == nil || !s.enabled {
		return s.state
	}
	if dt < 0 {
		dt = 0
	}
	s.clock += dt
	cfg := s.cfg

	switch s.state {
	case Seeking:
		s.sweep()
		if ok, loc := s.look(target, hasTarget); ok {
			s.locked = loc
			s.fire(Acquired, 0)
		}

	case TransitionToAlert:
		s.timer += dt
		t := ratio(s.timer, cfg.DurationSeekToAlert)
		if t >= 1 {
			s.fire(Elapsed, 0)
			s.snapTo(cfg.AlertRadius, cfg.AlertFOVDegrees, cfg.AlertColor)
		} else {
			s.blend(false, curve.Eval(cfg.SeekToAlertCurve, t))
		}
		s.aim()

	case Alert:
		if ok, loc := s.look(target, hasTarget); ok {
			s.locked = loc
			s.aim()
		} else {
			s.locked = nil
			s.fire(Lost, 0)
		}

	case TransitionToSeek:
		t := ratio(s.timer, cfg.DurationAlertToSeek)
		if ok, loc := s.look(target, hasTarget); ok && t < 1 {
			s.locked = loc
			s.fire(Acquired, t)
			break
		}
		s.timer += dt
		t = ratio(s.timer, cfg.DurationAlertToSeek)
		if t >= 1 {
			s.fire(Elapsed, 0)
			s.snapTo(cfg.SeekRadius, cfg.SeekFOVDegrees, cfg.SeekColor)
		} else {
			s.blend(true, curve.Eval(cfg.AlertToSeekCurve, t))
		}
	}
	return s.state
}

// fire applies an event. t is the progress of the state being left, used
// by MirrorTimer.
func (s *Sensor) fire(ev Event, t float64) {
	next, init := Transition(s.state, ev)
	if init == NoTransition {
		return
	}
	switch init {
	case ResetTimer:
		s.timer = 0
	case MirrorTimer:
		s.timer = time.Duration(float64(s.cfg.DurationSeekToAlert) * (1 - geom.Clamp01(t)))
	}
	s.log.Debug("state change", "from", s.state, "to", next, "event", ev, "timer", s.timer)
	s.state = next
}

func (s *Sensor) look(target geom.Vec3, hasTarget bool) (bool, scene.Locator) {
	if !hasTarget {
		return false, nil
	}
	pose := geom.Pose{Position: s.position, Forward: s.facing}
	return s.vis.Test(pose, s.fov, s.radius, target, s.query)
}

// blend sets the cone c of the way between the two profiles.
func (s *Sensor) blend(toSeek bool, c float64) {
	cfg := s.cfg
	if toSeek {
		s.radius = geom.Lerp(cfg.AlertRadius, cfg.SeekRadius, c)
		s.fov = geom.Lerp(cfg.AlertFOVDegrees, cfg.SeekFOVDegrees, c)
		s.color = cfg.AlertColor.Lerp(cfg.SeekColor, c)
		return
	}
	s.radius = geom.Lerp(cfg.SeekRadius, cfg.AlertRadius, c)
	s.fov = geom.Lerp(cfg.SeekFOVDegrees, cfg.AlertFOVDegrees, c)
	s.color = cfg.SeekColor.Lerp(cfg.AlertColor, c)
}

func (s *Sensor) snapTo(radius, fov float64, color geom.Color) {
	s.radius, s.fov, s.color = radius, fov, color
}

// aim turns toward the locked target by at most RotationLimitDegrees.
func (s *Sensor) aim() {
	if s.locked == nil {
		return
	}
	goal := s.locked.Position()
	minR := s.cfg.MinEngagementRadius
	if geom.HorizontalDistanceSq(s.position, goal) < minR*minR {
		return
	}
	want, ok := geom.HorizontalDir(goal.Sub(s.position))
	if !ok {
		return
	}
	delta := geom.WrapAngle(geom.Yaw(want) - geom.Yaw(s.facing))
	limit := geom.Radians(math.Max(s.cfg.RotationLimitDegrees, 0))
	s.facing = geom.RotateYaw(s.facing, geom.Clamp(delta, -limit, limit))
}

func (s *Sensor) sweep() {
	if !s.cfg.IdleSweep {
		return
	}
	amp := geom.Radians(s.cfg.RotationLimitDegrees)
	yaw := amp * math.Sin(s.cfg.RotationSpeed*s.clock.Seconds()+s.phase)
	s.facing = geom.RotateYaw(s.rest, yaw)
}

// ratio is elapsed/total; a non-positive total counts as complete.
func ratio(elapsed, total time.Duration) float64 {
	if total <= 0 {
		return 1
	}
	return float64(elapsed) / float64(total)
}
