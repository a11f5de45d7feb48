package main

import (
	"sync"
	"time"

	"github.com/teslashibe/go-visioncone/pkg/geom"
	"github.com/teslashibe/go-visioncone/pkg/rig"
	"github.com/teslashibe/go-visioncone/pkg/tracking"
)

// scriptedTarget moves the rig's target along its path and reports it into
// a world model, which the tracker reads as its point of interest.
type scriptedTarget struct {
	target *rig.Target
	world  *tracking.WorldModel

	mu      sync.Mutex
	elapsed time.Duration
	start   time.Time // zero in fixed-step mode
}

func newScriptedTarget(t *rig.Target, world *tracking.WorldModel) *scriptedTarget {
	return &scriptedTarget{target: t, world: world}
}

// advance moves the fixed-step clock.
func (s *scriptedTarget) advance(dt time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elapsed += dt
}

// realtime switches to wall-clock time.
func (s *scriptedTarget) realtime() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.start = time.Now()
}

func (s *scriptedTarget) now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.start.IsZero() {
		return time.Since(s.start)
	}
	return s.elapsed
}

// TargetPosition implements tracking.TargetProvider.
func (s *scriptedTarget) TargetPosition() (geom.Vec3, bool) {
	if s.target != nil {
		s.world.Report(s.target.Name, s.target.Follow(s.now()))
	}
	return s.world.TargetPosition()
}

// DecayConfidence lets the tracker age the world model.
func (s *scriptedTarget) DecayConfidence(dt float64) {
	s.world.DecayConfidence(dt)
}
