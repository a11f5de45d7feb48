package sensor

import (
	"time"

	"github.com/teslashibe/go-visioncone/pkg/geom"
)

// Snapshot is the render-facing copy of a sensor, taken once per frame.
type Snapshot struct {
	ID          ID         `json:"id"`
	Enabled     bool       `json:"enabled"`
	Radius      float64    `json:"radius"`
	FOV         float64    `json:"fov"` // degrees
	PositionWS  geom.Vec3  `json:"position"`
	DirectionWS geom.Vec3  `json:"direction"` // horizontal, unit length; zero if undefined
	Color       geom.Color `json:"color"`
	State       State      `json:"state"`
}

// Snapshot copies the sensor's current cone. Inert and disabled sensors
// snapshot as disabled.
func (s *Sensor) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir, ok := geom.HorizontalDir(s.facing)
	if !ok {
		dir = geom.Vec3{}
	}
	return Snapshot{
		ID:          s.id,
		Enabled:     s.enabled && s.cfg != nil,
		Radius:      s.radius,
		FOV:         s.fov,
		PositionWS:  s.position,
		DirectionWS: dir,
		Color:       s.color,
		State:       s.state,
	}
}

// Status is a debugging view of a sensor.
type Status struct {
	ID       ID            `json:"id"`
	Name     string        `json:"name"`
	Enabled  bool          `json:"enabled"`
	Inert    bool          `json:"inert"`
	State    State         `json:"state"`
	Timer    time.Duration `json:"timer_ns"`
	Progress float64       `json:"progress"` // transition progress in [0, 1]
	Radius   float64       `json:"radius"`
	FOV      float64       `json:"fov"`
	Color    geom.Color    `json:"color"`
	Position geom.Vec3     `json:"position"`
	Facing   geom.Vec3     `json:"facing"`
	Locked   bool          `json:"locked"`
	LockedAt *geom.Vec3    `json:"locked_at,omitempty"`
}

// Status returns a debugging view.
func (s *Sensor) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		ID:       s.id,
		Name:     s.name,
		Enabled:  s.enabled,
		Inert:    s.cfg == nil,
		State:    s.state,
		Timer:    s.timer,
		Radius:   s.radius,
		FOV:      s.fov,
		Color:    s.color,
		Position: s.position,
		Facing:   s.facing,
		Locked:   s.locked != nil,
	}
	if s.cfg != nil {
		switch s.state {
		case TransitionToAlert:
			st.Progress = geom.Clamp01(ratio(s.timer, s.cfg.DurationSeekToAlert))
		case TransitionToSeek:
			st.Progress = geom.Clamp01(ratio(s.timer, s.cfg.DurationAlertToSeek))
		}
	}
	if s.locked != nil {
		p := s.locked.Position()
		st.LockedAt = &p
	}
	return st
}

// Arc returns the cone outline on the horizontal plane at the sensor's
// height: the apex followed by segments+1 points along the arc from the
// left edge to the right edge.
func (s *Sensor) Arc(segments int) []geom.Vec3 {
	if segments < 1 {
		segments = 1
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	fwd, ok := geom.HorizontalDir(s.facing)
	if !ok {
		fwd = geom.Vec3{0, 0, 1}
	}
	half := geom.Radians(s.fov) / 2
	pts := make([]geom.Vec3, 0, segments+2)
	pts = append(pts, s.position)
	for i := 0; i <= segments; i++ {
		a := -half + 2*half*float64(i)/float64(segments)
		pts = append(pts, s.position.Add(geom.RotateYaw(fwd, a).Mul(s.radius)))
	}
	return pts
}
