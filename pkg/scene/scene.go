// Package scene holds the world the sensors look at: axis-aligned bodies on
// collision layers, indexed in an R-tree for raycasts and frustum culling.
package scene

import (
	"fmt"

	"github.com/teslashibe/go-visioncone/pkg/geom"
)

// Layer is a collision layer.
type Layer uint8

const (
	LayerDefault Layer = iota
	LayerOccluder
	LayerTarget
)

func (l Layer) String() string {
	switch l {
	case LayerDefault:
		return "default"
	case LayerOccluder:
		return "occluder"
	case LayerTarget:
		return "target"
	default:
		return fmt.Sprintf("layer%d", uint8(l))
	}
}

// ParseLayer maps a layer name back to its value.
func ParseLayer(s string) (Layer, error) {
	switch s {
	case "", "default":
		return LayerDefault, nil
	case "occluder":
		return LayerOccluder, nil
	case "target":
		return LayerTarget, nil
	}
	return 0, fmt.Errorf("scene: unknown layer %q", s)
}

// Mask selects a set of layers.
type Mask uint32

// MaskAll matches every layer.
const MaskAll = ^Mask(0)

// MaskOf builds a mask from layers.
func MaskOf(layers ...Layer) Mask {
	var m Mask
	for _, l := range layers {
		m |= 1 << l
	}
	return m
}

// Has reports whether l is in the mask.
func (m Mask) Has(l Layer) bool {
	return m&(1<<l) != 0
}

// Locator is anything with a world position, typically the thing a sensor
// is watching for.
type Locator interface {
	Position() geom.Vec3
}

// Point is a fixed Locator.
type Point geom.Vec3

// Position implements Locator.
func (p Point) Position() geom.Vec3 { return geom.Vec3(p) }

// Hit is the first surface a ray reached.
type Hit struct {
	Position geom.Vec3
	Distance float64
	Layer    Layer
	Body     *Body
}

// Querier answers raycasts against the scene.
type Querier interface {
	// Raycast returns the nearest body on a masked layer whose surface lies
	// within maxDist of origin along dir. Bodies containing origin are
	// ignored.
	Raycast(origin, dir geom.Vec3, maxDist float64, mask Mask) (Hit, bool)
}
