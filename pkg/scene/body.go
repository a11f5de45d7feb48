package scene

import (
	"sync"

	"github.com/dhconnelly/rtreego"

	"github.com/teslashibe/go-visioncone/pkg/geom"
)

// minExtent pads flat boxes; rtreego rejects zero-length sides.
const minExtent = 1e-6

// Body is a box in the scene. Its box may be moved by Index.Move while
// other goroutines read it.
type Body struct {
	Name  string
	Layer Layer

	mu  sync.RWMutex
	box AABB

	// rect is the box as last inserted into an Index. Deletion walks the
	// tree by these bounds, so it only changes under the index lock.
	rect rtreego.Rect
}

// NewBody returns a body with its bounds computed.
func NewBody(name string, box AABB, layer Layer) *Body {
	b := &Body{Name: name, box: box.Normalize(), Layer: layer}
	b.rect = toRect(b.box)
	return b
}

// Box returns the body's current box.
func (b *Body) Box() AABB {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.box
}

func (b *Body) setBox(box AABB) {
	b.mu.Lock()
	b.box = box
	b.mu.Unlock()
}

// Position implements Locator.
func (b *Body) Position() geom.Vec3 {
	return b.Box().Center()
}

// Bounds implements rtreego.Spatial.
func (b *Body) Bounds() rtreego.Rect {
	return b.rect
}

func toRect(box AABB) rtreego.Rect {
	lengths := make([]float64, 3)
	for i := range lengths {
		lengths[i] = box.Max[i] - box.Min[i]
		if lengths[i] < minExtent {
			lengths[i] = minExtent
		}
	}
	r, err := rtreego.NewRect(rtreego.Point{box.Min[0], box.Min[1], box.Min[2]}, lengths)
	if err != nil {
		// lengths are padded positive and the dimensions match
		panic(err)
	}
	return r
}
