package visibility

import (
	"math"
	"testing"

	"github.com/teslashibe/go-visioncone/pkg/geom"
	"github.com/teslashibe/go-visioncone/pkg/scene"
)

type fakeQuerier struct {
	hit    scene.Hit
	ok     bool
	calls  int
	maxLen float64
}

func (f *fakeQuerier) Raycast(_, _ geom.Vec3, maxDist float64, _ scene.Mask) (scene.Hit, bool) {
	f.calls++
	f.maxLen = maxDist
	return f.hit, f.ok
}

func pose() geom.Pose {
	return geom.Pose{Position: geom.Vec3{0, 0, 0}, Forward: geom.Vec3{0, 0, 1}}
}

func TestRangeAndAngleStages(t *testing.T) {
	body := scene.NewBody("t", scene.BoxAt(geom.Vec3{}, geom.Vec3{1, 1, 1}), scene.LayerTarget)
	tests := []struct {
		name    string
		target  geom.Vec3
		fov     float64
		radius  float64
		want    bool
		rayCast bool
	}{
		{"ahead in range", geom.Vec3{0, 0, 3}, 90, 5, true, true},
		{"out of range", geom.Vec3{0, 0, 6}, 90, 5, false, false},
		{"height ignored for range", geom.Vec3{0, 40, 3}, 90, 5, true, true},
		{"behind", geom.Vec3{0, 0, -3}, 90, 5, false, false},
		{"outside narrow cone", geom.Vec3{2, 0, 2}, 35, 10, false, false},
		{"on cone edge", geom.Vec3{2, 0, 2}, 90, 10, true, true},
		{"zero radius", geom.Vec3{0, 0, 0.1}, 90, 0, false, false},
		{"just past cone edge", geom.RotateYaw(geom.Vec3{0, 0, 3}, math.Pi/4+1e-6), 90, 10, false, false},
		{"just inside cone edge", geom.RotateYaw(geom.Vec3{0, 0, 3}, math.Pi/4-1e-6), 90, 10, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &fakeQuerier{hit: scene.Hit{Layer: scene.LayerTarget, Body: body}, ok: true}
			got, seen := Test(pose(), tt.fov, tt.radius, tt.target, q)
			if got != tt.want {
				t.Errorf("visible = %v, want %v", got, tt.want)
			}
			if (q.calls > 0) != tt.rayCast {
				t.Errorf("raycast called = %v, want %v", q.calls > 0, tt.rayCast)
			}
			if got && seen != scene.Locator(body) {
				t.Errorf("seen = %v, want hit body", seen)
			}
		})
	}
}

func TestOccluderBlocks(t *testing.T) {
	q := &fakeQuerier{hit: scene.Hit{Layer: scene.LayerOccluder}, ok: true}
	if got, _ := Test(pose(), 90, 10, geom.Vec3{0, 0, 5}, q); got {
		t.Error("occluder hit should not count as visible")
	}
}

func TestNoHitIsNotVisible(t *testing.T) {
	q := &fakeQuerier{}
	if got, seen := Test(pose(), 90, 10, geom.Vec3{0, 0, 5}, q); got || seen != nil {
		t.Errorf("got (%v, %v), want (false, nil)", got, seen)
	}
}

func TestRayLengthIncludesTolerance(t *testing.T) {
	q := &fakeQuerier{}
	p := DefaultParams()
	p.HitTolerance = 0.25
	p.Test(pose(), 90, 10, geom.Vec3{0, 0, 4}, q)
	if q.maxLen != 4.25 {
		t.Errorf("ray length = %v, want 4.25", q.maxLen)
	}
}

func TestAgainstIndex(t *testing.T) {
	target := scene.NewBody("target", scene.BoxAt(geom.Vec3{0, 0, 6}, geom.Vec3{1, 2, 1}), scene.LayerTarget)
	wall := scene.NewBody("wall", scene.BoxAt(geom.Vec3{0, 0, 3}, geom.Vec3{4, 4, 0.2}), scene.LayerOccluder)
	idx := scene.NewIndex(target)

	if got, _ := Test(pose(), 90, 10, target.Position(), idx); !got {
		t.Fatal("target should be visible with a clear line")
	}

	if err := idx.Add(wall); err != nil {
		t.Fatal(err)
	}
	if got, _ := Test(pose(), 90, 10, target.Position(), idx); got {
		t.Error("wall should block the target")
	}
}

func TestNilQuerier(t *testing.T) {
	if got, _ := Test(pose(), 90, 10, geom.Vec3{0, 0, 1}, nil); got {
		t.Error("nil querier should never see anything")
	}
}
