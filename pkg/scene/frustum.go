package scene

import (
	"math"

	"github.com/dhconnelly/rtreego"

	"github.com/teslashibe/go-visioncone/pkg/geom"
)

// Viewpoint describes a perspective camera for culling.
type Viewpoint struct {
	Position   geom.Vec3
	Forward    geom.Vec3
	Up         geom.Vec3
	FOVDegrees float64 // vertical
	Aspect     float64
	Near, Far  float64
	Mask       Mask
}

// Plane is n·x + D >= 0 on the inside.
type Plane struct {
	N geom.Vec3
	D float64
}

// Distance is the signed distance of p from the plane.
func (p Plane) Distance(x geom.Vec3) float64 {
	return p.N.Dot(x) + p.D
}

func planeThrough(n, point geom.Vec3) Plane {
	return Plane{N: n, D: -n.Dot(point)}
}

// CullingParameters is a frustum ready for Cull.
type CullingParameters struct {
	Planes [6]Plane
	Bounds AABB
	Mask   Mask
}

// Contains reports whether the box is at least partly inside all planes.
func (cp CullingParameters) Contains(b AABB) bool {
	for _, pl := range cp.Planes {
		var pv geom.Vec3
		for i := 0; i < 3; i++ {
			pv[i] = pick(pl.N[i] >= 0, b.Max[i], b.Min[i])
		}
		if pl.Distance(pv) < 0 {
			return false
		}
	}
	return true
}

// Culler produces the set of bodies a viewpoint can possibly see.
type Culler interface {
	// CullingParameters derives a frustum. It reports false for a
	// degenerate viewpoint.
	CullingParameters(vp Viewpoint) (CullingParameters, bool)
	Cull(cp CullingParameters) []*Body
}

// Frustum computes culling parameters without an index.
func Frustum(vp Viewpoint) (CullingParameters, bool) {
	var cp CullingParameters

	if !geom.Finite(vp.Position) || !geom.Finite(vp.Forward) || !geom.Finite(vp.Up) {
		return cp, false
	}
	if !(vp.FOVDegrees > 0 && vp.FOVDegrees < 180) || !(vp.Aspect > 0) {
		return cp, false
	}
	if !(vp.Near > 0) || !(vp.Far > vp.Near) || math.IsInf(vp.Far, 0) {
		return cp, false
	}
	fl := vp.Forward.Len()
	if fl < 1e-9 {
		return cp, false
	}
	f := vp.Forward.Mul(1 / fl)
	r := vp.Up.Cross(f)
	if r.Len() < 1e-9 {
		return cp, false
	}
	r = r.Normalize()
	u := f.Cross(r)

	tanV := math.Tan(geom.Radians(vp.FOVDegrees) / 2)
	tanH := tanV * vp.Aspect
	p := vp.Position

	inward := func(a, b geom.Vec3) geom.Vec3 {
		n := a.Cross(b).Normalize()
		if n.Dot(f) < 0 {
			n = n.Mul(-1)
		}
		return n
	}

	cp.Planes[0] = planeThrough(f, p.Add(f.Mul(vp.Near)))
	cp.Planes[1] = planeThrough(f.Mul(-1), p.Add(f.Mul(vp.Far)))
	cp.Planes[2] = planeThrough(inward(u, f.Add(r.Mul(tanH))), p)
	cp.Planes[3] = planeThrough(inward(u, f.Sub(r.Mul(tanH))), p)
	cp.Planes[4] = planeThrough(inward(r, f.Add(u.Mul(tanV))), p)
	cp.Planes[5] = planeThrough(inward(r, f.Sub(u.Mul(tanV))), p)

	lo := geom.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := geom.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, d := range [2]float64{vp.Near, vp.Far} {
		c := p.Add(f.Mul(d))
		for _, sx := range [2]float64{-1, 1} {
			for _, sy := range [2]float64{-1, 1} {
				v := c.Add(r.Mul(sx * d * tanH)).Add(u.Mul(sy * d * tanV))
				for i := 0; i < 3; i++ {
					lo[i] = math.Min(lo[i], v[i])
					hi[i] = math.Max(hi[i], v[i])
				}
			}
		}
	}
	cp.Bounds = AABB{Min: lo, Max: hi}
	cp.Mask = vp.Mask
	return cp, true
}

// CullingParameters implements Culler.
func (idx *Index) CullingParameters(vp Viewpoint) (CullingParameters, bool) {
	return Frustum(vp)
}

// Cull implements Culler.
func (idx *Index) Cull(cp CullingParameters) []*Body {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []*Body
	for _, s := range idx.tree.SearchIntersect(toRect(cp.Bounds), maskFilter(cp.Mask)) {
		b := s.(*Body)
		if cp.Contains(b.Box()) {
			out = append(out, b)
		}
	}
	return out
}

func maskFilter(m Mask) rtreego.Filter {
	return func(_ []rtreego.Spatial, obj rtreego.Spatial) (refuse, abort bool) {
		return !m.Has(obj.(*Body).Layer), false
	}
}
