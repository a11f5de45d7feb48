package scene

import (
	"math"

	"github.com/teslashibe/go-visioncone/pkg/geom"
)

// AABB is an axis-aligned box.
type AABB struct {
	Min geom.Vec3 `yaml:"min" json:"min"`
	Max geom.Vec3 `yaml:"max" json:"max"`
}

// BoxAt returns the box of the given size centred on c.
func BoxAt(c, size geom.Vec3) AABB {
	h := size.Mul(0.5)
	return AABB{Min: c.Sub(h), Max: c.Add(h)}
}

// Normalize swaps any inverted extents.
func (b AABB) Normalize() AABB {
	for i := 0; i < 3; i++ {
		if b.Min[i] > b.Max[i] {
			b.Min[i], b.Max[i] = b.Max[i], b.Min[i]
		}
	}
	return b
}

// Center is the midpoint of the box.
func (b AABB) Center() geom.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size is the extent along each axis.
func (b AABB) Size() geom.Vec3 {
	return b.Max.Sub(b.Min)
}

// Translate moves the box by d.
func (b AABB) Translate(d geom.Vec3) AABB {
	return AABB{Min: b.Min.Add(d), Max: b.Max.Add(d)}
}

// Contains reports whether p lies inside or on the box.
func (b AABB) Contains(p geom.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Intersects reports whether two boxes overlap.
func (b AABB) Intersects(o AABB) bool {
	for i := 0; i < 3; i++ {
		if b.Max[i] < o.Min[i] || o.Max[i] < b.Min[i] {
			return false
		}
	}
	return true
}

// Corners returns the eight vertices.
func (b AABB) Corners() [8]geom.Vec3 {
	var c [8]geom.Vec3
	for i := 0; i < 8; i++ {
		c[i] = geom.Vec3{
			pick(i&1 != 0, b.Max[0], b.Min[0]),
			pick(i&2 != 0, b.Max[1], b.Min[1]),
			pick(i&4 != 0, b.Max[2], b.Min[2]),
		}
	}
	return c
}

// Valid reports whether every coordinate is finite.
func (b AABB) Valid() bool {
	return geom.Finite(b.Min) && geom.Finite(b.Max)
}

// RayEntry returns the distance along a unit ray at which it enters the box.
// A ray starting inside reports a negative entry.
func (b AABB) RayEntry(origin, dir geom.Vec3) (float64, bool) {
	tmin, tmax := math.Inf(-1), math.Inf(1)
	for i := 0; i < 3; i++ {
		if math.Abs(dir[i]) < 1e-12 {
			if origin[i] < b.Min[i] || origin[i] > b.Max[i] {
				return 0, false
			}
			continue
		}
		inv := 1 / dir[i]
		t1 := (b.Min[i] - origin[i]) * inv
		t2 := (b.Max[i] - origin[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	if tmax < 0 {
		return 0, false
	}
	return tmin, true
}

func pick(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}
