package atlas

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/teslashibe/go-visioncone/pkg/geom"
)

// Columns is the square grid edge for capacity tiles.
func Columns(capacity int) int {
	if capacity < 1 {
		return 1
	}
	return int(math.Ceil(math.Sqrt(float64(capacity))))
}

// Layout places tiles on the atlas. Pixel row 0 is the bottom of the atlas.
type Layout struct {
	Size     int
	Capacity int
	Columns  int
	TileSize int
	Margin   int
}

// NewLayout computes the grid for an atlas.
func NewLayout(size, capacity, margin int) (Layout, error) {
	cols := Columns(capacity)
	if size < cols {
		return Layout{}, fmt.Errorf("%w: %d px cannot hold %d columns", ErrInvalidAtlasSize, size, cols)
	}
	return Layout{
		Size:     size,
		Capacity: capacity,
		Columns:  cols,
		TileSize: size / cols,
		Margin:   margin,
	}, nil
}

// Cell returns the grid column and row of tile i.
func (l Layout) Cell(i int) (col, row int) {
	return i % l.Columns, i / l.Columns
}

// Viewport is tile i's full pixel rect.
func (l Layout) Viewport(i int) geom.Rect {
	col, row := l.Cell(i)
	return geom.Rect{X: col * l.TileSize, Y: row * l.TileSize, W: l.TileSize, H: l.TileSize}
}

// Scissor is the viewport inset by the margin.
func (l Layout) Scissor(i int) geom.Rect {
	return l.Viewport(i).Inset(l.Margin)
}

// Full is the whole atlas.
func (l Layout) Full() geom.Rect {
	return geom.Rect{W: l.Size, H: l.Size}
}

// Remap maps [0,1] screen uv into tile i's region of atlas uv.
func (l Layout) Remap(i int) mgl64.Mat4 {
	col, row := l.Cell(i)
	s := float64(l.TileSize) / float64(l.Size)
	return mgl64.Translate3D(float64(col)*s, float64(row)*s, 0).Mul4(mgl64.Scale3D(s, s, 1))
}
