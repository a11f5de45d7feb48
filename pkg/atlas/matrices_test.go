package atlas

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-visioncone/pkg/geom"
)

func TestColumns(t *testing.T) {
	for capacity, want := range map[int]int{1: 1, 4: 2, 10: 4, 16: 4, 17: 5, 0: 1} {
		assert.Equal(t, want, Columns(capacity), "capacity %d", capacity)
	}
}

func TestLayout(t *testing.T) {
	l, err := NewLayout(1024, 16, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, l.Columns)
	assert.Equal(t, 256, l.TileSize)

	assert.Equal(t, geom.Rect{X: 256, Y: 256, W: 256, H: 256}, l.Viewport(5))
	assert.Equal(t, geom.Rect{X: 260, Y: 260, W: 248, H: 248}, l.Scissor(5))

	for i := 0; i < 16; i++ {
		for j := i + 1; j < 16; j++ {
			assert.False(t, l.Viewport(i).Overlaps(l.Viewport(j)), "tiles %d and %d overlap", i, j)
		}
	}

	_, err = NewLayout(3, 16, 0)
	assert.ErrorIs(t, err, ErrInvalidAtlasSize)
}

func TestRemap(t *testing.T) {
	l, err := NewLayout(1024, 16, 4)
	require.NoError(t, err)

	m := l.Remap(6) // column 2, row 1
	lo := m.Mul4x1(mgl64.Vec4{0, 0, 0.3, 1})
	hi := m.Mul4x1(mgl64.Vec4{1, 1, 0.3, 1})
	assert.InDelta(t, 0.5, lo[0], 1e-12)
	assert.InDelta(t, 0.25, lo[1], 1e-12)
	assert.InDelta(t, 0.75, hi[0], 1e-12)
	assert.InDelta(t, 0.5, hi[1], 1e-12)
	assert.Equal(t, 0.3, lo[2], "depth untouched")
}

func TestUpVector(t *testing.T) {
	up, ok := UpVector(geom.Vec3{0, 0, 1})
	require.True(t, ok)
	assert.True(t, up.ApproxEqual(geom.Vec3{0, 1, 0}))

	up, ok = UpVector(geom.Vec3{1, 0, 1}.Normalize())
	require.True(t, ok)
	assert.True(t, up.ApproxEqual(geom.Vec3{0, 1, 0}))

	_, ok = UpVector(geom.Vec3{0, 1, 0})
	assert.False(t, ok)
}

func TestViewMatrix(t *testing.T) {
	pos := geom.Vec3{1, 2, 3}
	view := ViewMatrix(pos, geom.Vec3{0, 0, 1}, geom.Up)

	ahead := view.Mul4x1(mgl64.Vec4{1, 2, 8, 1})
	assert.InDelta(t, 0, ahead[0], 1e-9)
	assert.InDelta(t, 0, ahead[1], 1e-9)
	assert.InDelta(t, -5, ahead[2], 1e-9)

	right := view.Mul4x1(mgl64.Vec4{2, 2, 8, 1})
	assert.InDelta(t, 1, right[0], 1e-9)

	above := view.Mul4x1(mgl64.Vec4{1, 3, 8, 1})
	assert.InDelta(t, 1, above[1], 1e-9)
}

// storedDepth runs a point at view distance d straight ahead through the
// projection and bias.
func storedDepth(d, near, far float64, reversed bool) float64 {
	proj := Projection(90, near, far)
	if reversed {
		proj = ReverseZ(proj)
	}
	view := ViewMatrix(geom.Vec3{}, geom.Vec3{0, 0, 1}, geom.Up)
	h := Bias().Mul4(proj).Mul4(view).Mul4x1(mgl64.Vec4{0, 0, d, 1})
	return h[2] / h[3]
}

func TestProjectionDepthRange(t *testing.T) {
	assert.InDelta(t, 0, storedDepth(0.1, 0.1, 10, false), 1e-9)
	assert.InDelta(t, 1, storedDepth(10, 0.1, 10, false), 1e-9)
	assert.InDelta(t, 1, storedDepth(0.1, 0.1, 10, true), 1e-9)
	assert.InDelta(t, 0, storedDepth(10, 0.1, 10, true), 1e-9)
}

func TestLinearEyeDepthRoundTrip(t *testing.T) {
	const near, far = 0.1, 10.0
	for _, reversed := range []bool{false, true} {
		params := DepthParams(near, far, reversed)
		for _, d := range []float64{0.1, 0.5, 1, 4.2, 10} {
			raw := storedDepth(d, near, far, reversed)
			assert.InDelta(t, d, LinearEyeDepth(raw, params), 1e-6, "reversed=%v d=%v", reversed, d)
			assert.InDelta(t, d/far, Linear01Depth(raw, params), 1e-6, "reversed=%v d=%v", reversed, d)
		}
	}
}

func TestProjectionClampsFOV(t *testing.T) {
	assert.Equal(t, Projection(MaxFOV, 0.1, 5), Projection(270, 0.1, 5))
	assert.Equal(t, Projection(MinFOV, 0.1, 5), Projection(0, 0.1, 5))
}

func TestOptions(t *testing.T) {
	opts := DefaultOptions()
	require.NoError(t, opts.Validate())
	assert.Equal(t, 16, opts.Capacity)
	assert.Equal(t, 0.1, opts.Near)

	opts.AtlasSize = 2
	assert.ErrorIs(t, opts.Validate(), ErrInvalidAtlasSize)

	assert.Equal(t, 512, QualityOptions(QualityLow).AtlasSize)
	assert.Equal(t, 2048, QualityOptions(QualityHigh).AtlasSize)

	_, err := ParseQuality("ultra")
	assert.Error(t, err)
	q, err := ParseQuality("medium")
	require.NoError(t, err)
	assert.Equal(t, 1024, q.Size())

	assert.Equal(t, 5.0, FarAtRadius.Far(5))
	assert.Equal(t, 10.0, FarAtDoubleRadius.Far(5))
}
