package atlas

import (
	"bytes"
	"errors"
	"image/png"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"

	"github.com/teslashibe/go-visioncone/pkg/geom"
	"github.com/teslashibe/go-visioncone/pkg/scene"
	"github.com/teslashibe/go-visioncone/pkg/sensor"
)

// recordingBackend wraps the software backend and logs target calls.
type recordingBackend struct {
	acquireErr error
	failDraw   map[int]bool
	target     *recordingTarget
}

func (b *recordingBackend) Acquire(spec TargetSpec) (Target, error) {
	if b.acquireErr != nil {
		return nil, b.acquireErr
	}
	inner, err := NewSoftware().Acquire(spec)
	if err != nil {
		return nil, err
	}
	b.target = &recordingTarget{Target: inner, failDraw: b.failDraw}
	return b.target, nil
}

type recordingTarget struct {
	Target
	failDraw map[int]bool

	draws      int
	viewProjs  []mgl64.Mat4
	clearRects []geom.Rect
	released   int
}

func (t *recordingTarget) SetViewProjection(view, proj mgl64.Mat4) {
	t.viewProjs = append(t.viewProjs, proj.Mul4(view))
	t.Target.SetViewProjection(view, proj)
}

func (t *recordingTarget) DrawDepth(bodies []*scene.Body) error {
	d := t.draws
	t.draws++
	if t.failDraw[d] {
		return errors.New("device lost")
	}
	return t.Target.DrawDepth(bodies)
}

func (t *recordingTarget) ClearRect(r geom.Rect, depth float32) {
	t.clearRects = append(t.clearRects, r)
	t.Target.ClearRect(r, depth)
}

func (t *recordingTarget) Release() {
	t.released++
	t.Target.Release()
}

// refusingCuller never produces culling parameters.
type refusingCuller struct{}

func (refusingCuller) CullingParameters(scene.Viewpoint) (scene.CullingParameters, bool) {
	return scene.CullingParameters{}, false
}

func (refusingCuller) Cull(scene.CullingParameters) []*scene.Body { return nil }

func snap(pos, dir geom.Vec3) sensor.Snapshot {
	return sensor.Snapshot{
		ID:          sensor.NewID(),
		Enabled:     true,
		Radius:      10,
		FOV:         90,
		PositionWS:  pos,
		DirectionWS: dir,
		Color:       geom.Green,
	}
}

func smallOptions() Options {
	opts := DefaultOptions()
	opts.AtlasSize = 256
	return opts
}

func newTestRenderer(t *testing.T, opts Options, culler scene.Culler, ropts ...RendererOption) *Renderer {
	t.Helper()
	r, err := NewRenderer(opts, culler, ropts...)
	require.NoError(t, err)
	return r
}

func TestRenderPacksEnabledTiles(t *testing.T) {
	r := newTestRenderer(t, smallOptions(), scene.NewIndex())
	snaps := []sensor.Snapshot{
		snap(geom.Vec3{0, 1, 0}, geom.Vec3{0, 0, 1}),
		snap(geom.Vec3{5, 1, 0}, geom.Vec3{1, 0, 0}),
		snap(geom.Vec3{0, 1, 5}, geom.Vec3{0, 0, -1}),
	}

	frame, err := r.Render(snaps, IdentityCamera())
	require.NoError(t, err)
	require.NotNil(t, frame.Atlas)

	assert.Equal(t, 3, frame.Rendered)
	assert.Equal(t, 0, frame.Skipped)
	assert.Len(t, frame.Packed, 16)
	assert.Len(t, frame.WorldToTile, 16)

	for i := 0; i < 3; i++ {
		assert.True(t, frame.Tiles[i].Enabled)
		assert.Equal(t, 1.0, frame.Packed[i][0])
		assert.NotEqual(t, mgl64.Mat4{}, frame.WorldToTile[i])
		for j := i + 1; j < 3; j++ {
			assert.False(t, frame.Tiles[i].Viewport.Overlaps(frame.Tiles[j].Viewport))
		}
	}
	for i := 3; i < 16; i++ {
		assert.False(t, frame.Tiles[i].Enabled)
		assert.Equal(t, mgl64.Mat4{}, frame.WorldToTile[i], "tile %d", i)
		assert.Equal(t, mgl64.Vec4{}, frame.Packed[i])
	}

	assert.Equal(t, mgl64.Vec4{5, 1, 0, 1}, frame.Positions[1])
	assert.Equal(t, mgl64.Vec4{1, 0, 0, 0}, frame.Directions[1])
	assert.Equal(t, geom.Green.Vec4(), frame.Colors[2])
	assert.Equal(t, mgl64.Vec4{1, 10, 90, 0}, frame.Packed[0])
}

func TestRenderOverCapacityKeepsFirst(t *testing.T) {
	r := newTestRenderer(t, smallOptions(), scene.NewIndex())
	var snaps []sensor.Snapshot
	for i := 0; i < 20; i++ {
		snaps = append(snaps, snap(geom.Vec3{float64(i), 0, 0}, geom.Vec3{0, 0, 1}))
	}

	frame, err := r.Render(snaps, nil)
	require.NoError(t, err)
	assert.Equal(t, 16, frame.Rendered)
	assert.Equal(t, mgl64.Vec4{15, 0, 0, 1}, frame.Positions[15])
}

func TestRenderDisabledAndDegenerate(t *testing.T) {
	r := newTestRenderer(t, smallOptions(), scene.NewIndex())

	disabled := snap(geom.Vec3{}, geom.Vec3{0, 0, 1})
	disabled.Enabled = false
	noDir := snap(geom.Vec3{}, geom.Vec3{})
	noRadius := snap(geom.Vec3{}, geom.Vec3{0, 0, 1})
	noRadius.Radius = 0
	ok := snap(geom.Vec3{}, geom.Vec3{0, 0, 1})

	frame, err := r.Render([]sensor.Snapshot{disabled, noDir, noRadius, ok}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, frame.Rendered)
	assert.Equal(t, 2, frame.Skipped, "disabled snapshots are not skips")
	for i := 0; i < 3; i++ {
		assert.False(t, frame.Enabled(i))
		assert.Equal(t, mgl64.Mat4{}, frame.WorldToTile[i])
	}
	assert.True(t, frame.Enabled(3))
	assert.Equal(t, 10.0, frame.Packed[0][1], "disabled tile still reports its radius")
}

func TestRenderCullingFailureSkipsTile(t *testing.T) {
	r := newTestRenderer(t, smallOptions(), refusingCuller{})
	frame, err := r.Render([]sensor.Snapshot{snap(geom.Vec3{}, geom.Vec3{0, 0, 1})}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, frame.Rendered)
	assert.Equal(t, 1, frame.Skipped)
	assert.False(t, frame.Enabled(0))

	r = newTestRenderer(t, smallOptions(), nil)
	frame, err = r.Render([]sensor.Snapshot{snap(geom.Vec3{}, geom.Vec3{0, 0, 1})}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, frame.Skipped)
}

func TestRenderAcquireFailure(t *testing.T) {
	backend := &recordingBackend{acquireErr: ErrInvalidAtlasSize}
	r := newTestRenderer(t, smallOptions(), scene.NewIndex(), WithBackend(backend))

	frame, err := r.Render([]sensor.Snapshot{snap(geom.Vec3{}, geom.Vec3{0, 0, 1})}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidAtlasSize)
	require.NotNil(t, frame)
	assert.Len(t, frame.Packed, 16)
	assert.Equal(t, 0, frame.Rendered)
	assert.Equal(t, 1, frame.Skipped)
	assert.Nil(t, frame.Atlas)
}

func TestRenderDrawFailureDegradesOneTile(t *testing.T) {
	backend := &recordingBackend{failDraw: map[int]bool{1: true}}
	r := newTestRenderer(t, smallOptions(), scene.NewIndex(), WithBackend(backend))

	snaps := []sensor.Snapshot{
		snap(geom.Vec3{}, geom.Vec3{0, 0, 1}),
		snap(geom.Vec3{}, geom.Vec3{1, 0, 0}),
		snap(geom.Vec3{}, geom.Vec3{-1, 0, 0}),
	}
	frame, err := r.Render(snaps, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, frame.Rendered)
	assert.Equal(t, 1, frame.Skipped)
	assert.False(t, frame.Enabled(1))
	assert.True(t, frame.Enabled(2))
	assert.Equal(t, []geom.Rect{frame.Tiles[1].Scissor}, backend.target.clearRects)
}

func TestRenderRestoresMainCameraOnce(t *testing.T) {
	backend := &recordingBackend{}
	r := newTestRenderer(t, smallOptions(), scene.NewIndex(), WithBackend(backend))

	main := StaticCamera{V: mgl64.Translate3D(1, 2, 3), P: mgl64.Scale3D(2, 2, 2)}
	snaps := []sensor.Snapshot{
		snap(geom.Vec3{}, geom.Vec3{0, 0, 1}),
		snap(geom.Vec3{}, geom.Vec3{1, 0, 0}),
	}
	_, err := r.Render(snaps, main)
	require.NoError(t, err)

	vps := backend.target.viewProjs
	require.Len(t, vps, 3, "one per tile plus one restore")
	assert.Equal(t, main.P.Mul4(main.V), vps[2])
	assert.Equal(t, 1, backend.target.released)
}

func TestRenderOcclusion(t *testing.T) {
	for _, reversed := range []bool{false, true} {
		name := "normal"
		if reversed {
			name = "reversed"
		}
		t.Run(name, func(t *testing.T) {
			wall := scene.NewBody("wall", scene.BoxAt(geom.Vec3{0, 0, 5}, geom.Vec3{2, 2, 0.2}), scene.LayerOccluder)
			target := scene.NewBody("target", scene.BoxAt(geom.Vec3{0, 0, 3}, geom.Vec3{0.5, 0.5, 0.5}), scene.LayerTarget)
			idx := scene.NewIndex(wall, target)

			opts := DefaultOptions()
			opts.ReversedZ = reversed
			r := newTestRenderer(t, opts, idx)

			frame, err := r.Render([]sensor.Snapshot{snap(geom.Vec3{}, geom.Vec3{0, 0, 1})}, nil)
			require.NoError(t, err)
			require.Equal(t, 1, frame.Rendered)

			u, v, _, ok := frame.Project(0, geom.Vec3{0, 0, 8})
			require.True(t, ok)
			assert.InDelta(t, 0.125, u, 1e-9)
			assert.InDelta(t, 0.125, v, 1e-9)
			stored := float64(frame.Atlas.Sample(u, v))
			assert.InDelta(t, 4.9, LinearEyeDepth(stored, frame.DepthParams[0]), 0.01)

			lit, ok := frame.Lit(0, geom.Vec3{0, 0, 8}, 0.05)
			require.True(t, ok)
			assert.False(t, lit, "behind the wall")

			lit, ok = frame.Lit(0, geom.Vec3{3, 0, 8}, 0.05)
			require.True(t, ok)
			assert.True(t, lit, "past the wall edge")

			lit, ok = frame.Lit(0, geom.Vec3{0, 0, 4}, 0.05)
			require.True(t, ok)
			assert.True(t, lit, "target layer does not occlude")

			_, ok = frame.Lit(0, geom.Vec3{0, 0, 12}, 0.05)
			assert.False(t, ok, "beyond far plane")

			_, ok = frame.Lit(0, geom.Vec3{0, 0, -3}, 0.05)
			assert.False(t, ok, "behind the sensor")
		})
	}
}

func TestDepthImageExport(t *testing.T) {
	img := NewDepthImage(4, 2, 1)
	img.Pix[0] = 0 // bottom-left

	g := img.Gray16()
	assert.Equal(t, uint16(0), g.Gray16At(0, 1).Y, "row 0 is the bottom")
	assert.Equal(t, uint16(0xffff), g.Gray16At(0, 0).Y)

	var buf bytes.Buffer
	require.NoError(t, img.EncodePNG(&buf))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 4, decoded.Bounds().Dx())

	buf.Reset()
	require.NoError(t, img.EncodeTIFF(&buf))
	decoded, err = tiff.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 2, decoded.Bounds().Dy())
}

func TestSoftwareRejectsBadSize(t *testing.T) {
	_, err := NewSoftware().Acquire(TargetSpec{Size: 0})
	assert.ErrorIs(t, err, ErrInvalidAtlasSize)
}

func TestSoftwareReleasedTarget(t *testing.T) {
	tgt, err := NewSoftware().Acquire(TargetSpec{Size: 8})
	require.NoError(t, err)
	tgt.Release()
	assert.ErrorIs(t, tgt.DrawDepth(nil), ErrReleased)
	assert.Nil(t, tgt.Resolve())
	tgt.Release()
}
