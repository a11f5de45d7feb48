package geom

import (
	"math"
	"testing"
)

const floatTolerance = 1e-9

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

func TestAngleBetween(t *testing.T) {
	tests := []struct {
		name string
		a, b Vec3
		want float64
	}{
		{"same", Vec3{0, 0, 1}, Vec3{0, 0, 2}, 0},
		{"right angle", Vec3{0, 0, 1}, Vec3{3, 0, 0}, math.Pi / 2},
		{"diagonal", Vec3{0, 0, 1}, Vec3{3, 0, 3}, math.Pi / 4},
		{"opposite", Vec3{0, 0, 1}, Vec3{0, 0, -1}, math.Pi},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AngleBetween(tt.a, tt.b); !floatEquals(got, tt.want) {
				t.Errorf("AngleBetween: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestYawRoundTrip(t *testing.T) {
	for _, yaw := range []float64{-3, -1.2, 0, 0.4, 2.9} {
		got := Yaw(FromYaw(yaw))
		if !floatEquals(got, yaw) {
			t.Errorf("Yaw(FromYaw(%v)) = %v", yaw, got)
		}
	}

	// +x is a quarter turn from +z
	if !floatEquals(Yaw(Vec3{1, 0, 0}), math.Pi/2) {
		t.Errorf("Yaw(+x): got %v, want π/2", Yaw(Vec3{1, 0, 0}))
	}
}

func TestRotateYaw(t *testing.T) {
	v := RotateYaw(Vec3{0, 2, 1}, math.Pi/2)
	if !floatEquals(v[0], 1) || !floatEquals(v[1], 2) || !floatEquals(v[2], 0) {
		t.Errorf("RotateYaw: got %v, want (1, 2, 0)", v)
	}
}

func TestWrapAngle(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0},
		{math.Pi / 2, math.Pi / 2},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-math.Pi / 2, -math.Pi / 2},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := WrapAngle(tt.in); !floatEquals(got, tt.want) {
			t.Errorf("WrapAngle(%v): got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestHorizontalDir(t *testing.T) {
	d, ok := HorizontalDir(Vec3{3, 10, 4})
	if !ok {
		t.Fatal("expected a horizontal direction")
	}
	if !floatEquals(d[0], 0.6) || d[1] != 0 || !floatEquals(d[2], 0.8) {
		t.Errorf("HorizontalDir: got %v", d)
	}

	if _, ok := HorizontalDir(Vec3{0, 5, 0}); ok {
		t.Error("vertical vector should have no horizontal direction")
	}
}

func TestHorizontalDistanceSqIgnoresHeight(t *testing.T) {
	got := HorizontalDistanceSq(Vec3{0, 0, 0}, Vec3{3, 100, 4})
	if !floatEquals(got, 25) {
		t.Errorf("HorizontalDistanceSq: got %v, want 25", got)
	}
}

func TestColorLerp(t *testing.T) {
	mid := Green.Lerp(Red, 0.5)
	want := Color{0.5, 0.5, 0, 1}
	if mid != want {
		t.Errorf("Lerp: got %+v, want %+v", mid, want)
	}
	if Green.Lerp(Red, 0) != Green || Green.Lerp(Red, 1) != Red {
		t.Error("Lerp endpoints must be exact")
	}
}

func TestColorRGBA(t *testing.T) {
	r, g, b, a := Color{1, 0.5, 0, 1}.RGBA()
	if r != 0xffff || b != 0 || a != 0xffff {
		t.Errorf("RGBA: got %x %x %x %x", r, g, b, a)
	}
	if g < 0x7fff || g > 0x8000 {
		t.Errorf("RGBA green: got %x", g)
	}
}

func TestRect(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}
	b := Rect{X: 10, Y: 0, W: 10, H: 10}
	if a.Overlaps(b) {
		t.Error("adjacent rects must not overlap")
	}
	if !a.Overlaps(Rect{X: 9, Y: 9, W: 5, H: 5}) {
		t.Error("expected overlap")
	}

	in := a.Inset(4)
	if in != (Rect{X: 4, Y: 4, W: 2, H: 2}) {
		t.Errorf("Inset: got %+v", in)
	}
	if !a.Inset(6).Empty() {
		t.Error("over-inset rect should be empty")
	}
	if !a.Contains(9, 9) || a.Contains(10, 0) {
		t.Error("Contains is half-open")
	}
}
