package atlas

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/teslashibe/go-visioncone/pkg/geom"
)

// Tile is one sensor's slot in the atlas for one frame. Disabled and skipped
// tiles keep their rects but carry zero matrices.
type Tile struct {
	Index       int        `json:"index"`
	Enabled     bool       `json:"enabled"`
	Viewport    geom.Rect  `json:"viewport"`
	Scissor     geom.Rect  `json:"scissor"`
	View        mgl64.Mat4 `json:"view"`
	Projection  mgl64.Mat4 `json:"projection"`
	WorldToTile mgl64.Mat4 `json:"world_to_tile"`
	DepthParams mgl64.Vec4 `json:"depth_params"`
	Near        float64    `json:"near"`
	Far         float64    `json:"far"`
}

// Frame is everything the shading stage needs for one frame. Every slice
// has Capacity entries and index i is the i-th snapshot of the frame.
//
//	Packed      (enabled, radius, fov degrees, 0)
//	Positions   (x, y, z, 1)
//	Directions  (x, y, z, 0)
//	Colors      (r, g, b, a)
//	WorldToTile world -> (atlas u, atlas v, depth, 1) after the w divide
//	DepthParams see DepthParams
type Frame struct {
	ID        uuid.UUID `json:"id"`
	Capacity  int       `json:"capacity"`
	Columns   int       `json:"columns"`
	Size      int       `json:"size"`
	ReversedZ bool      `json:"reversed_z"`

	Packed      []mgl64.Vec4 `json:"packed"`
	Positions   []mgl64.Vec4 `json:"positions"`
	Directions  []mgl64.Vec4 `json:"directions"`
	Colors      []mgl64.Vec4 `json:"colors"`
	WorldToTile []mgl64.Mat4 `json:"world_to_tile"`
	DepthParams []mgl64.Vec4 `json:"depth_params"`
	Tiles       []Tile       `json:"tiles"`

	Atlas    *DepthImage `json:"-"`
	Rendered int         `json:"rendered"`
	Skipped  int         `json:"skipped"`
}

func newFrame(l Layout, reversed bool) *Frame {
	n := l.Capacity
	f := &Frame{
		ID:          uuid.New(),
		Capacity:    n,
		Columns:     l.Columns,
		Size:        l.Size,
		ReversedZ:   reversed,
		Packed:      make([]mgl64.Vec4, n),
		Positions:   make([]mgl64.Vec4, n),
		Directions:  make([]mgl64.Vec4, n),
		Colors:      make([]mgl64.Vec4, n),
		WorldToTile: make([]mgl64.Mat4, n),
		DepthParams: make([]mgl64.Vec4, n),
		Tiles:       make([]Tile, n),
	}
	for i := range f.Tiles {
		f.Tiles[i] = Tile{Index: i, Viewport: l.Viewport(i), Scissor: l.Scissor(i)}
	}
	return f
}

// Enabled reports whether tile i was rendered this frame.
func (f *Frame) Enabled(i int) bool {
	return i >= 0 && i < len(f.Packed) && f.Packed[i][0] != 0
}

// Project maps a world point into tile i. It returns the atlas uv, the
// stored-depth value the point would have, and whether the point lies
// inside the tile's frustum.
func (f *Frame) Project(i int, p geom.Vec3) (u, v, depth float64, ok bool) {
	if !f.Enabled(i) {
		return 0, 0, 0, false
	}
	h := f.WorldToTile[i].Mul4x1(p.Vec4(1))
	if h[3] <= 0 {
		return 0, 0, 0, false
	}
	u, v, depth = h[0]/h[3], h[1]/h[3], h[2]/h[3]
	if depth < 0 || depth > 1 {
		return 0, 0, 0, false
	}
	vp := f.Tiles[i].Viewport
	size := float64(f.Size)
	x, y := u*size, v*size
	if x < float64(vp.X) || x >= float64(vp.X+vp.W) || y < float64(vp.Y) || y >= float64(vp.Y+vp.H) {
		return 0, 0, 0, false
	}
	return u, v, depth, true
}

// Lit reports whether sensor i sees world point p past the occluders in the
// atlas. bias is in linear eye distance. ok is false when the point is
// outside the tile or the tile is disabled.
func (f *Frame) Lit(i int, p geom.Vec3, bias float64) (lit, ok bool) {
	u, v, depth, ok := f.Project(i, p)
	if !ok || f.Atlas == nil {
		return false, false
	}
	stored := float64(f.Atlas.Sample(u, v))
	params := f.DepthParams[i]
	return LinearEyeDepth(depth, params) <= LinearEyeDepth(stored, params)+bias, true
}
