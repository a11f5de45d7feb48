// Package atlas packs the depth views of many sensors into one tiled depth
// texture, along with the per-sensor arrays a shading pass needs to test
// points against it.
package atlas

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/teslashibe/go-visioncone/pkg/geom"
	"github.com/teslashibe/go-visioncone/pkg/scene"
	"github.com/teslashibe/go-visioncone/pkg/sensor"
)

// Renderer draws registry snapshots into a depth atlas.
type Renderer struct {
	opts    Options
	layout  Layout
	backend Backend
	culler  scene.Culler
	log     *slog.Logger
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithBackend replaces the software backend.
func WithBackend(b Backend) RendererOption {
	return func(r *Renderer) {
		if b != nil {
			r.backend = b
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) RendererOption {
	return func(r *Renderer) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRenderer validates opts and builds a renderer. culler provides the
// occluders per tile; a nil culler skips every tile.
func NewRenderer(opts Options, culler scene.Culler, ropts ...RendererOption) (*Renderer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	layout, err := NewLayout(opts.AtlasSize, opts.Capacity, opts.Margin)
	if err != nil {
		return nil, err
	}
	r := &Renderer{
		opts:    opts,
		layout:  layout,
		backend: NewSoftware(),
		culler:  culler,
	}
	for _, o := range ropts {
		o(r)
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	r.log = r.log.With("component", "atlas")
	return r, nil
}

// Options returns the renderer options.
func (r *Renderer) Options() Options { return r.opts }

// Layout returns the tile grid.
func (r *Renderer) Layout() Layout { return r.layout }

// Render draws up to Capacity snapshots. Tile i belongs to snaps[i]; extra
// snapshots are ignored. A tile whose view cannot be built or culled, or
// whose draw fails, is left zeroed and counted in Frame.Skipped.
//
// The error is non-nil only when no render target could be acquired; the
// returned frame is still well formed, with every tile disabled.
func (r *Renderer) Render(snaps []sensor.Snapshot, main Camera) (*Frame, error) {
	frame := newFrame(r.layout, r.opts.ReversedZ)
	n := len(snaps)
	if n > r.layout.Capacity {
		n = r.layout.Capacity
	}
	for i := 0; i < n; i++ {
		s := snaps[i]
		frame.Packed[i] = mgl64.Vec4{0, s.Radius, s.FOV, 0}
		frame.Positions[i] = s.PositionWS.Vec4(1)
		frame.Directions[i] = s.DirectionWS.Vec4(0)
		frame.Colors[i] = s.Color.Vec4()
	}

	target, err := r.backend.Acquire(TargetSpec{Size: r.layout.Size, ReversedZ: r.opts.ReversedZ})
	if err != nil {
		r.log.Warn("acquire render target failed", "size", r.layout.Size, "error", err)
		frame.Skipped = countEnabled(snaps[:n])
		return frame, fmt.Errorf("atlas: acquire target: %w", err)
	}
	defer target.Release()

	far := r.opts.FarDepth()
	target.DisableScissor()
	target.SetViewport(r.layout.Full())
	target.Clear(far)

	for i := 0; i < n; i++ {
		if !snaps[i].Enabled {
			continue
		}
		tile, vp, ok := r.tile(i, snaps[i])
		if !ok {
			r.log.Debug("tile skipped: degenerate view", "tile", i, "sensor", snaps[i].ID)
			frame.Skipped++
			continue
		}
		if r.culler == nil {
			frame.Skipped++
			continue
		}
		cp, ok := r.culler.CullingParameters(vp)
		if !ok {
			r.log.Debug("tile skipped: no culling parameters", "tile", i, "sensor", snaps[i].ID)
			frame.Skipped++
			continue
		}
		bodies := r.culler.Cull(cp)

		target.SetViewport(tile.Viewport)
		target.SetScissor(tile.Scissor)
		target.SetViewProjection(tile.View, tile.Projection)
		if err := target.DrawDepth(bodies); err != nil {
			r.log.Debug("tile skipped: draw failed", "tile", i, "error", err)
			target.ClearRect(tile.Scissor, far)
			frame.Skipped++
			continue
		}

		frame.Tiles[i] = tile
		frame.WorldToTile[i] = tile.WorldToTile
		frame.DepthParams[i] = tile.DepthParams
		frame.Packed[i][0] = 1
		frame.Rendered++
	}

	target.DisableScissor()
	target.SetViewport(r.layout.Full())
	if main != nil {
		target.SetViewProjection(main.View(), main.Projection())
	}
	frame.Atlas = target.Resolve()
	return frame, nil
}

// tile builds the matrices for snapshot s in slot i.
func (r *Renderer) tile(i int, s sensor.Snapshot) (Tile, scene.Viewpoint, bool) {
	radius := s.Radius
	if !(radius > 0) || math.IsInf(radius, 0) || !geom.Finite(s.PositionWS) {
		return Tile{}, scene.Viewpoint{}, false
	}
	dir, ok := geom.HorizontalDir(s.DirectionWS)
	if !ok {
		return Tile{}, scene.Viewpoint{}, false
	}
	up, ok := UpVector(dir)
	if !ok {
		return Tile{}, scene.Viewpoint{}, false
	}
	near, far := r.opts.Near, r.opts.FarPlane.Far(radius)
	if !(far > near) {
		return Tile{}, scene.Viewpoint{}, false
	}
	if math.IsNaN(s.FOV) {
		return Tile{}, scene.Viewpoint{}, false
	}
	fov := geom.Clamp(s.FOV, MinFOV, MaxFOV)

	view := ViewMatrix(s.PositionWS, dir, up)
	proj := Projection(fov, near, far)
	if r.opts.ReversedZ {
		proj = ReverseZ(proj)
	}

	t := Tile{
		Index:       i,
		Enabled:     true,
		Viewport:    r.layout.Viewport(i),
		Scissor:     r.layout.Scissor(i),
		View:        view,
		Projection:  proj,
		WorldToTile: r.layout.Remap(i).Mul4(Bias()).Mul4(proj).Mul4(view),
		DepthParams: DepthParams(near, far, r.opts.ReversedZ),
		Near:        near,
		Far:         far,
	}
	vp := scene.Viewpoint{
		Position:   s.PositionWS,
		Forward:    dir,
		Up:         up,
		FOVDegrees: fov,
		Aspect:     1,
		Near:       near,
		Far:        far,
		Mask:       r.opts.OccluderMask,
	}
	return t, vp, true
}

func countEnabled(snaps []sensor.Snapshot) int {
	n := 0
	for _, s := range snaps {
		if s.Enabled {
			n++
		}
	}
	return n
}
