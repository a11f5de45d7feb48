package rig

import (
	"fmt"
	"math"
	"time"

	"github.com/teslashibe/go-visioncone/pkg/geom"
	"github.com/teslashibe/go-visioncone/pkg/scene"
)

// Motion kinds.
const (
	MotionFixed   = "fixed"
	MotionOrbit   = "orbit"   // circle of Radius around Center, Speed rad/s
	MotionShuttle = "shuttle" // back and forth along Axis, amplitude Radius
)

// Target is the scripted point of interest: a target-layer body that moves
// along its motion path.
type Target struct {
	Name   string
	Body   *scene.Body
	Size   geom.Vec3
	Motion MotionSpec

	scene *scene.Index
	axis  geom.Vec3
}

func newTarget(spec TargetSpec) (*Target, error) {
	name := spec.Name
	if name == "" {
		name = "target"
	}
	t := &Target{
		Name:   name,
		Size:   vec3(spec.Size),
		Motion: spec.Motion,
		axis:   geom.Vec3{1, 0, 0},
	}
	switch spec.Motion.Kind {
	case MotionFixed, MotionOrbit:
	case MotionShuttle:
		if len(spec.Motion.Axis) == 3 {
			a := vec3(spec.Motion.Axis)
			if a.Len() == 0 {
				return nil, fmt.Errorf("%w: target %s: zero shuttle axis", ErrInvalidDocument, name)
			}
			t.axis = a.Normalize()
		}
	default:
		return nil, fmt.Errorf("%w: target %s: unknown motion %q", ErrInvalidDocument, name, spec.Motion.Kind)
	}
	t.Body = scene.NewBody(name, scene.BoxAt(t.At(0), t.Size), scene.LayerTarget)
	return t, nil
}

// At returns the target's center after elapsed time on its path.
func (t *Target) At(elapsed time.Duration) geom.Vec3 {
	m := t.Motion
	center := vec3(m.Center)
	phase := m.Speed * elapsed.Seconds()
	switch m.Kind {
	case MotionOrbit:
		return center.Add(geom.Vec3{m.Radius * math.Cos(phase), 0, m.Radius * math.Sin(phase)})
	case MotionShuttle:
		return center.Add(t.axis.Mul(m.Radius * math.Sin(phase)))
	default:
		return center
	}
}

// Follow moves the target body to its position at elapsed and returns it.
// It implements a target source for the demo loop.
func (t *Target) Follow(elapsed time.Duration) geom.Vec3 {
	p := t.At(elapsed)
	if t.scene != nil {
		t.scene.Move(t.Body, scene.BoxAt(p, t.Size))
	}
	return p
}
