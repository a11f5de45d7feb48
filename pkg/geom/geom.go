// Package geom holds the small amount of 3D math shared by sensors, the scene
// index and the atlas renderer. World space is y-up; the horizontal plane is xz.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 is a world-space vector.
type Vec3 = mgl64.Vec3

// Up is the world vertical axis.
var Up = Vec3{0, 1, 0}

// Pose is a world position plus a facing direction.
type Pose struct {
	Position Vec3 `json:"position" yaml:"position"`
	Forward  Vec3 `json:"forward" yaml:"forward"`
}

// Horizontal drops the vertical component of v.
func Horizontal(v Vec3) Vec3 {
	return Vec3{v[0], 0, v[2]}
}

// HorizontalDistanceSq returns the squared xz distance between a and b.
func HorizontalDistanceSq(a, b Vec3) float64 {
	dx := b[0] - a[0]
	dz := b[2] - a[2]
	return dx*dx + dz*dz
}

// HorizontalDir returns v flattened onto the xz plane and normalized.
// ok is false when v has no horizontal extent.
func HorizontalDir(v Vec3) (Vec3, bool) {
	h := Horizontal(v)
	l := h.Len()
	if l < 1e-12 || math.IsNaN(l) || math.IsInf(l, 0) {
		return Vec3{}, false
	}
	return h.Mul(1 / l), true
}

// AngleBetween returns the unsigned angle between a and b in radians.
// atan2(|a×b|, a·b) stays accurate near 0 and π where acos does not.
func AngleBetween(a, b Vec3) float64 {
	return math.Atan2(a.Cross(b).Len(), a.Dot(b))
}

// Yaw returns the heading of v around the vertical axis: 0 faces +z and
// positive angles turn toward +x.
func Yaw(v Vec3) float64 {
	return math.Atan2(v[0], v[2])
}

// FromYaw is the inverse of Yaw for unit horizontal vectors.
func FromYaw(yaw float64) Vec3 {
	s, c := math.Sincos(yaw)
	return Vec3{s, 0, c}
}

// RotateYaw turns v around the vertical axis by delta radians.
func RotateYaw(v Vec3, delta float64) Vec3 {
	s, c := math.Sincos(delta)
	return Vec3{
		v[0]*c + v[2]*s,
		v[1],
		-v[0]*s + v[2]*c,
	}
}

// WrapAngle maps an angle into [-π, π).
func WrapAngle(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0
	}
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

// Radians converts degrees to radians.
func Radians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

// Degrees converts radians to degrees.
func Degrees(radians float64) float64 {
	return radians * 180.0 / math.Pi
}

// Clamp limits value to [lo, hi].
func Clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// Clamp01 limits t to [0, 1]. NaN maps to 0.
func Clamp01(t float64) float64 {
	if math.IsNaN(t) {
		return 0
	}
	return Clamp(t, 0, 1)
}

// Lerp interpolates between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Finite reports whether every component of v is a finite number.
func Finite(v Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
