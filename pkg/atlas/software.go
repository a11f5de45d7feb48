package atlas

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/teslashibe/go-visioncone/pkg/geom"
	"github.com/teslashibe/go-visioncone/pkg/scene"
)

// ErrReleased is returned when drawing into a released target.
var ErrReleased = errors.New("atlas: target released")

// boxFaces indexes scene.AABB.Corners, two triangles per face.
var boxFaces = [6][4]int{
	{0, 2, 6, 4}, // -x
	{1, 3, 7, 5}, // +x
	{0, 1, 5, 4}, // -y
	{2, 3, 7, 6}, // +y
	{0, 1, 3, 2}, // -z
	{4, 5, 7, 6}, // +z
}

var depthPool = sync.Pool{
	New: func() any { return new([]float32) },
}

// Software rasterizes bodies on the CPU.
type Software struct{}

// NewSoftware returns a CPU backend.
func NewSoftware() *Software {
	return &Software{}
}

// Acquire implements Backend.
func (Software) Acquire(spec TargetSpec) (Target, error) {
	if spec.Size <= 0 || spec.Size > MaxAtlasSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAtlasSize, spec.Size)
	}
	buf := depthPool.Get().(*[]float32)
	n := spec.Size * spec.Size
	if cap(*buf) < n {
		*buf = make([]float32, n)
	}
	*buf = (*buf)[:n]

	t := &softTarget{
		size:     spec.Size,
		reversed: spec.ReversedZ,
		buf:      buf,
		viewport: geom.Rect{W: spec.Size, H: spec.Size},
		view:     mgl64.Ident4(),
		proj:     mgl64.Ident4(),
	}
	t.Clear(farOf(spec.ReversedZ))
	return t, nil
}

func farOf(reversed bool) float32 {
	if reversed {
		return 0
	}
	return 1
}

type softTarget struct {
	size     int
	reversed bool
	buf      *[]float32

	viewport  geom.Rect
	scissor   geom.Rect
	scissorOn bool
	view      mgl64.Mat4
	proj      mgl64.Mat4
	viewProj  mgl64.Mat4
}

func (t *softTarget) Clear(depth float32) {
	if t.buf == nil {
		return
	}
	pix := *t.buf
	for i := range pix {
		pix[i] = depth
	}
}

func (t *softTarget) ClearRect(r geom.Rect, depth float32) {
	if t.buf == nil {
		return
	}
	r = r.Intersect(geom.Rect{W: t.size, H: t.size})
	pix := *t.buf
	for y := r.Y; y < r.Y+r.H; y++ {
		row := pix[y*t.size : (y+1)*t.size]
		for x := r.X; x < r.X+r.W; x++ {
			row[x] = depth
		}
	}
}

func (t *softTarget) SetViewport(r geom.Rect) { t.viewport = r }

func (t *softTarget) SetScissor(r geom.Rect) {
	t.scissor = r
	t.scissorOn = true
}

func (t *softTarget) DisableScissor() { t.scissorOn = false }

func (t *softTarget) SetViewProjection(view, proj mgl64.Mat4) {
	t.view, t.proj = view, proj
	t.viewProj = proj.Mul4(view)
}

func (t *softTarget) DrawDepth(bodies []*scene.Body) error {
	if t.buf == nil {
		return ErrReleased
	}
	clip := t.viewport.Intersect(geom.Rect{W: t.size, H: t.size})
	if t.scissorOn {
		clip = clip.Intersect(t.scissor)
	}
	if clip.Empty() {
		return nil
	}
	for _, b := range bodies {
		if b == nil {
			continue
		}
		corners := b.Box().Corners()
		var cs [8]mgl64.Vec4
		for i, c := range corners {
			cs[i] = t.viewProj.Mul4x1(c.Vec4(1))
		}
		for _, f := range boxFaces {
			t.drawTriangle(cs[f[0]], cs[f[1]], cs[f[2]], clip)
			t.drawTriangle(cs[f[0]], cs[f[2]], cs[f[3]], clip)
		}
	}
	return nil
}

func (t *softTarget) Resolve() *DepthImage {
	if t.buf == nil {
		return nil
	}
	out := &DepthImage{W: t.size, H: t.size, Pix: make([]float32, t.size*t.size)}
	copy(out.Pix, *t.buf)
	return out
}

func (t *softTarget) Release() {
	if t.buf == nil {
		return
	}
	depthPool.Put(t.buf)
	t.buf = nil
}

// screenVert is a vertex after the perspective divide and viewport mapping.
type screenVert struct {
	x, y, z float64
}

// drawTriangle clips against the near plane (z + w >= 0) and rasterizes
// the remaining polygon as a fan.
func (t *softTarget) drawTriangle(a, b, c mgl64.Vec4, clip geom.Rect) {
	in := [3]mgl64.Vec4{a, b, c}
	var poly [4]mgl64.Vec4
	n := 0
	for i := 0; i < 3; i++ {
		p, q := in[i], in[(i+1)%3]
		dp, dq := p[2]+p[3], q[2]+q[3]
		if dp >= 0 {
			poly[n] = p
			n++
		}
		if (dp >= 0) != (dq >= 0) {
			s := dp / (dp - dq)
			poly[n] = p.Add(q.Sub(p).Mul(s))
			n++
		}
	}
	if n < 3 {
		return
	}

	var sv [4]screenVert
	for i := 0; i < n; i++ {
		v := poly[i]
		w := v[3]
		if w <= 0 {
			return
		}
		sv[i] = screenVert{
			x: float64(t.viewport.X) + (v[0]/w*0.5+0.5)*float64(t.viewport.W),
			y: float64(t.viewport.Y) + (v[1]/w*0.5+0.5)*float64(t.viewport.H),
			z: v[2]/w*0.5 + 0.5,
		}
	}
	for i := 1; i+1 < n; i++ {
		t.fill(sv[0], sv[i], sv[i+1], clip)
	}
}

func edge(a, b screenVert, x, y float64) float64 {
	return (b.x-a.x)*(y-a.y) - (b.y-a.y)*(x-a.x)
}

func (t *softTarget) fill(a, b, c screenVert, clip geom.Rect) {
	area := edge(a, b, c.x, c.y)
	if math.Abs(area) < 1e-12 || math.IsNaN(area) {
		return
	}

	minX := int(math.Floor(math.Min(a.x, math.Min(b.x, c.x))))
	maxX := int(math.Ceil(math.Max(a.x, math.Max(b.x, c.x))))
	minY := int(math.Floor(math.Min(a.y, math.Min(b.y, c.y))))
	maxY := int(math.Ceil(math.Max(a.y, math.Max(b.y, c.y))))
	minX = clampInt(minX, clip.X, clip.X+clip.W)
	maxX = clampInt(maxX, clip.X, clip.X+clip.W)
	minY = clampInt(minY, clip.Y, clip.Y+clip.H)
	maxY = clampInt(maxY, clip.Y, clip.Y+clip.H)

	pix := *t.buf
	inv := 1 / area
	for y := minY; y < maxY; y++ {
		py := float64(y) + 0.5
		for x := minX; x < maxX; x++ {
			px := float64(x) + 0.5
			w0 := edge(b, c, px, py) * inv
			w1 := edge(c, a, px, py) * inv
			w2 := edge(a, b, px, py) * inv
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := w0*a.z + w1*b.z + w2*c.z
			if z < 0 || z > 1 {
				continue
			}
			i := y*t.size + x
			d := float32(z)
			if t.reversed {
				if d >= pix[i] {
					pix[i] = d
				}
			} else if d <= pix[i] {
				pix[i] = d
			}
		}
	}
}
