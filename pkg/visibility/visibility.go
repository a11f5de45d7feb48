// Package visibility decides whether a target can be seen from a sensor pose.
//
// The test runs in three stages: horizontal range, horizontal field of view,
// then a line-of-sight raycast. Height is ignored by the first two stages so
// a cone behaves like a wedge on the ground plane.
package visibility

import (
	"math"

	"github.com/teslashibe/go-visioncone/pkg/geom"
	"github.com/teslashibe/go-visioncone/pkg/scene"
)

// angleEpsilon lets a target exactly on the cone edge count as inside.
const angleEpsilon = 1e-9

// Params configures the line-of-sight stage.
type Params struct {
	// TargetLayer is the layer a hit must be on to count as a sighting.
	TargetLayer scene.Layer
	// Mask selects which layers block or satisfy the ray.
	Mask scene.Mask
	// HitTolerance extends the ray past the target position so the
	// target's own surface is reachable.
	HitTolerance float64
}

// DefaultParams looks for LayerTarget through occluders.
func DefaultParams() Params {
	return Params{
		TargetLayer:  scene.LayerTarget,
		Mask:         scene.MaskOf(scene.LayerOccluder, scene.LayerTarget),
		HitTolerance: 0.5,
	}
}

// Test runs the check with DefaultParams.
func Test(pose geom.Pose, fovDegrees, radius float64, target geom.Vec3, q scene.Querier) (bool, scene.Locator) {
	return DefaultParams().Test(pose, fovDegrees, radius, target, q)
}

// Test reports whether target is inside the cone described by pose,
// fovDegrees and radius and is the first thing a ray toward it hits. On
// success the hit body is returned as the seen locator.
//
// It never fails: bad input simply reads as not visible.
func (p Params) Test(pose geom.Pose, fovDegrees, radius float64, target geom.Vec3, q scene.Querier) (bool, scene.Locator) {
	if q == nil || !(radius > 0) || !geom.Finite(pose.Position) || !geom.Finite(target) {
		return false, nil
	}

	if geom.HorizontalDistanceSq(pose.Position, target) > radius*radius {
		return false, nil
	}

	toTarget := target.Sub(pose.Position)
	flatTo, okTo := geom.HorizontalDir(toTarget)
	flatFwd, okFwd := geom.HorizontalDir(pose.Forward)
	if !okFwd {
		return false, nil
	}
	// A target directly overhead or underfoot has no bearing; treat it as
	// dead ahead.
	if okTo {
		half := geom.Radians(fovDegrees) / 2
		if geom.AngleBetween(flatFwd, flatTo) > half+angleEpsilon {
			return false, nil
		}
	}

	dist := toTarget.Len()
	if dist < 1e-9 {
		return false, nil
	}
	hit, ok := q.Raycast(pose.Position, toTarget.Mul(1/dist), dist+math.Max(p.HitTolerance, 0), p.Mask)
	if !ok || hit.Layer != p.TargetLayer {
		return false, nil
	}
	return true, hit.Body
}
