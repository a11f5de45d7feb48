package atlas

import (
	"errors"
	"fmt"
	"math"

	"github.com/teslashibe/go-visioncone/pkg/registry"
	"github.com/teslashibe/go-visioncone/pkg/scene"
)

// ErrInvalidAtlasSize is returned for atlas sizes that cannot hold the tile
// grid.
var ErrInvalidAtlasSize = errors.New("atlas: invalid atlas size")

// MaxAtlasSize bounds the software backend allocation.
const MaxAtlasSize = 8192

// FarPlane picks the per-tile far clip distance.
type FarPlane uint8

const (
	FarAtRadius       FarPlane = iota // far = radius
	FarAtDoubleRadius                 // far = 2 * radius
)

func (f FarPlane) String() string {
	if f == FarAtDoubleRadius {
		return "double_radius"
	}
	return "radius"
}

// Far returns the far distance for a cone of the given radius.
func (f FarPlane) Far(radius float64) float64 {
	if f == FarAtDoubleRadius {
		return 2 * radius
	}
	return radius
}

// Quality names an atlas resolution.
type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

// Size returns the atlas edge in pixels, or 0 for an unknown quality.
func (q Quality) Size() int {
	switch q {
	case QualityLow:
		return 512
	case QualityMedium:
		return 1024
	case QualityHigh:
		return 2048
	}
	return 0
}

// ParseQuality validates a quality name.
func ParseQuality(s string) (Quality, error) {
	q := Quality(s)
	if q.Size() == 0 {
		return "", fmt.Errorf("atlas: unknown quality %q", s)
	}
	return q, nil
}

// Options configures a Renderer.
type Options struct {
	AtlasSize    int        // Edge length in pixels
	Capacity     int        // Tiles per atlas
	Margin       int        // Scissor inset per tile, pixels
	Near         float64    // Near clip distance
	FarPlane     FarPlane   // Far clip policy
	ReversedZ    bool       // Near maps to 1, far to 0
	OccluderMask scene.Mask // Layers drawn into the atlas
}

// DefaultOptions returns a medium-quality atlas for registry.MaxSensors
// sensors.
func DefaultOptions() Options {
	return Options{
		AtlasSize:    QualityMedium.Size(),
		Capacity:     registry.MaxSensors,
		Margin:       4,
		Near:         0.1,
		FarPlane:     FarAtRadius,
		OccluderMask: scene.MaskOf(scene.LayerOccluder),
	}
}

// QualityOptions returns DefaultOptions at the given quality.
func QualityOptions(q Quality) Options {
	opts := DefaultOptions()
	if s := q.Size(); s > 0 {
		opts.AtlasSize = s
	}
	return opts
}

// Validate checks that the options describe a usable atlas.
func (o Options) Validate() error {
	if o.Capacity < 1 {
		return fmt.Errorf("atlas: capacity must be positive, got %d", o.Capacity)
	}
	cols := Columns(o.Capacity)
	if o.AtlasSize < cols || o.AtlasSize > MaxAtlasSize {
		return fmt.Errorf("%w: %d for %d columns", ErrInvalidAtlasSize, o.AtlasSize, cols)
	}
	if o.Margin < 0 {
		return fmt.Errorf("atlas: margin must not be negative, got %d", o.Margin)
	}
	if !(o.Near > 0) || math.IsInf(o.Near, 0) {
		return fmt.Errorf("atlas: near must be positive, got %v", o.Near)
	}
	return nil
}

// FarDepth is the cleared depth value.
func (o Options) FarDepth() float32 {
	if o.ReversedZ {
		return 0
	}
	return 1
}
