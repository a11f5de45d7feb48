package atlas

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/teslashibe/go-visioncone/pkg/geom"
)

// FOV limits for tile projections, degrees.
const (
	MinFOV = 1.0
	MaxFOV = 179.0
)

// UpVector returns the up direction perpendicular to dir in the plane of dir
// and world up. ok is false for a vertical or zero dir.
func UpVector(dir geom.Vec3) (geom.Vec3, bool) {
	up := dir.Cross(geom.Up).Cross(dir)
	l := up.Len()
	if l < 1e-9 {
		return geom.Vec3{}, false
	}
	return up.Mul(1 / l), true
}

// ViewMatrix builds the world-to-view transform for a camera at pos looking
// along dir. The look-at basis is left-handed (+z forward); the final z
// mirror puts it into the right-handed clip convention the projection
// expects, so points in front end up at negative view z.
func ViewMatrix(pos, dir, up geom.Vec3) mgl64.Mat4 {
	f := dir.Normalize()
	x := up.Cross(f).Normalize()
	y := f.Cross(x)
	lookAt := mgl64.Mat4FromCols(x.Vec4(0), y.Vec4(0), f.Vec4(0), pos.Vec4(1))
	return mgl64.Scale3D(1, 1, -1).Mul4(lookAt.Inv())
}

// Projection is a square perspective projection. fov is in degrees and
// clamped to [MinFOV, MaxFOV].
func Projection(fovDegrees, near, far float64) mgl64.Mat4 {
	fov := geom.Clamp(fovDegrees, MinFOV, MaxFOV)
	return mgl64.Perspective(geom.Radians(fov), 1, near, far)
}

// ReverseZ flips a projection's depth so near maps to 1 and far to 0.
func ReverseZ(p mgl64.Mat4) mgl64.Mat4 {
	for c := 0; c < 4; c++ {
		p.Set(2, c, -p.At(2, c))
	}
	return p
}

// Bias maps clip space [-1,1] to [0,1] on every axis.
func Bias() mgl64.Mat4 {
	return mgl64.Translate3D(0.5, 0.5, 0.5).Mul4(mgl64.Scale3D(0.5, 0.5, 0.5))
}

// DepthParams packs near and far for depth linearization:
//
//	normal:     (1-f/n, f/n, (1-f/n)/f, (f/n)/f)
//	reversed-Z: (f/n-1, 1,   (f/n-1)/f, 1/f)
//
// LinearEyeDepth uses the last two components.
func DepthParams(near, far float64, reversed bool) mgl64.Vec4 {
	var x, y float64
	if reversed {
		x, y = far/near-1, 1
	} else {
		x, y = 1-far/near, far/near
	}
	return mgl64.Vec4{x, y, x / far, y / far}
}

// LinearEyeDepth converts a stored depth value back to view distance.
func LinearEyeDepth(raw float64, params mgl64.Vec4) float64 {
	return 1 / (params[2]*raw + params[3])
}

// Linear01Depth converts a stored depth value to distance/far.
func Linear01Depth(raw float64, params mgl64.Vec4) float64 {
	return 1 / (params[0]*raw + params[1])
}
