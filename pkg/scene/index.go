package scene

import (
	"errors"
	"math"
	"sync"

	"github.com/dhconnelly/rtreego"

	"github.com/teslashibe/go-visioncone/pkg/geom"
)

// R-tree branching factors.
const (
	treeMinChildren = 4
	treeMaxChildren = 16
)

// Index is a thread-safe spatial index of bodies. It implements Querier
// and Culler.
type Index struct {
	mu     sync.RWMutex
	tree   *rtreego.Rtree
	bodies map[*Body]struct{}
}

// NewIndex builds an index over the given bodies.
func NewIndex(bodies ...*Body) *Index {
	idx := &Index{
		tree:   rtreego.NewTree(3, treeMinChildren, treeMaxChildren),
		bodies: make(map[*Body]struct{}, len(bodies)),
	}
	for _, b := range bodies {
		_ = idx.Add(b)
	}
	return idx
}

// Add inserts a body. Adding the same body twice is a no-op.
func (idx *Index) Add(b *Body) error {
	if b == nil {
		return errors.New("scene: nil body")
	}
	if !b.Box().Valid() {
		return errors.New("scene: body " + b.Name + " has non-finite bounds")
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.bodies[b]; ok {
		return nil
	}
	box := b.Box().Normalize()
	b.setBox(box)
	b.rect = toRect(box)
	idx.tree.Insert(b)
	idx.bodies[b] = struct{}{}
	return nil
}

// Remove deletes a body, reporting whether it was present.
func (idx *Index) Remove(b *Body) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.bodies[b]; !ok {
		return false
	}
	delete(idx.bodies, b)
	return idx.tree.Delete(b)
}

// Move replaces a body's box.
func (idx *Index) Move(b *Body, box AABB) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	box = box.Normalize()
	if _, ok := idx.bodies[b]; !ok {
		b.setBox(box)
		b.rect = toRect(box)
		return
	}
	idx.tree.Delete(b)
	b.setBox(box)
	b.rect = toRect(box)
	idx.tree.Insert(b)
}

// Len returns the number of indexed bodies.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.bodies)
}

// Bodies returns the indexed bodies in no particular order.
func (idx *Index) Bodies() []*Body {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]*Body, 0, len(idx.bodies))
	for b := range idx.bodies {
		out = append(out, b)
	}
	return out
}

// Raycast implements Querier.
func (idx *Index) Raycast(origin, dir geom.Vec3, maxDist float64, mask Mask) (Hit, bool) {
	if maxDist <= 0 || math.IsNaN(maxDist) || !geom.Finite(origin) {
		return Hit{}, false
	}
	l := dir.Len()
	if l < 1e-12 || math.IsNaN(l) || math.IsInf(l, 0) {
		return Hit{}, false
	}
	dir = dir.Mul(1 / l)
	if math.IsInf(maxDist, 1) {
		maxDist = math.MaxFloat32
	}

	end := origin.Add(dir.Mul(maxDist))
	seg := toRect(AABB{Min: origin, Max: end}.Normalize())

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var (
		best   Hit
		found  bool
		bestAt = math.Inf(1)
	)
	for _, s := range idx.tree.SearchIntersect(seg) {
		b := s.(*Body)
		box := b.Box()
		if !mask.Has(b.Layer) || box.Contains(origin) {
			continue
		}
		t, ok := box.RayEntry(origin, dir)
		if !ok || t < 0 || t > maxDist || t >= bestAt {
			continue
		}
		bestAt = t
		best = Hit{Position: origin.Add(dir.Mul(t)), Distance: t, Layer: b.Layer, Body: b}
		found = true
	}
	return best, found
}
