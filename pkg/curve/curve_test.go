package curve

import (
	"math"
	"testing"

	"gopkg.in/yaml.v3"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPresetEndpoints(t *testing.T) {
	for _, name := range PresetNames() {
		f, ok := Preset(name)
		if !ok {
			t.Fatalf("preset %q missing", name)
		}
		if f(0) != 0 || f(1) != 1 {
			t.Errorf("%s: endpoints got %v, %v; want 0, 1", name, f(0), f(1))
		}
	}
}

func TestEvalClamps(t *testing.T) {
	if got := Eval(EaseIn, 2); got != 1 {
		t.Errorf("Eval above range: got %v, want 1", got)
	}
	if got := Eval(EaseIn, -1); got != 0 {
		t.Errorf("Eval below range: got %v, want 0", got)
	}
	if got := Eval(nil, 0.25); got != 0.25 {
		t.Errorf("nil curve should be linear, got %v", got)
	}
	if got := Eval(Linear, math.NaN()); got != 0 {
		t.Errorf("NaN should clamp to 0, got %v", got)
	}
}

func TestEvalClampsOvershoot(t *testing.T) {
	k := Keyframes{
		{Time: 0, Value: 0, OutTangent: 20},
		{Time: 1, Value: 1, InTangent: 20},
	}
	f := k.Func()
	if raw := f(0.2); raw <= 1 {
		t.Fatalf("expected the raw spline to overshoot, got %v", raw)
	}
	if raw := f(0.8); raw >= 0 {
		t.Fatalf("expected the raw spline to undershoot, got %v", raw)
	}
	for x := 0.0; x <= 1; x += 0.05 {
		if got := Eval(f, x); got < 0 || got > 1 {
			t.Errorf("Eval(%v) = %v, want within [0, 1]", x, got)
		}
	}
}

func TestKeyframesLinearTangents(t *testing.T) {
	k := Keyframes{
		{Time: 0, Value: 0, InTangent: 1, OutTangent: 1},
		{Time: 1, Value: 1, InTangent: 1, OutTangent: 1},
	}
	for _, x := range []float64{0, 0.1, 0.33, 0.5, 0.9, 1} {
		if got := k.Evaluate(x); !near(got, x) {
			t.Errorf("Evaluate(%v): got %v", x, got)
		}
	}
}

func TestKeyframesHoldOutsideRange(t *testing.T) {
	k := Keyframes{
		{Time: 0.2, Value: 0.3},
		{Time: 0.8, Value: 0.9},
	}
	if got := k.Evaluate(0); got != 0.3 {
		t.Errorf("before first key: got %v, want 0.3", got)
	}
	if got := k.Evaluate(1); got != 0.9 {
		t.Errorf("after last key: got %v, want 0.9", got)
	}
	// flat tangents give smoothstep between the keys
	if got := k.Evaluate(0.5); !near(got, 0.6) {
		t.Errorf("midpoint: got %v, want 0.6", got)
	}
}

func TestKeyframesThreeKeys(t *testing.T) {
	k := Keyframes{
		{Time: 0, Value: 0},
		{Time: 0.5, Value: 1},
		{Time: 1, Value: 0},
	}
	if got := k.Evaluate(0.5); got != 1 {
		t.Errorf("at middle key: got %v, want 1", got)
	}
	if got := k.Evaluate(0.75); !near(got, 0.5) {
		t.Errorf("second segment midpoint: got %v, want 0.5", got)
	}
}

func TestKeyframesValidate(t *testing.T) {
	bad := Keyframes{{Time: 0.5}, {Time: 0.5}}
	if err := bad.Validate(); err == nil {
		t.Error("expected duplicate times to be rejected")
	}
}

func TestSpecYAML(t *testing.T) {
	var doc struct {
		A Spec `yaml:"a"`
		B Spec `yaml:"b"`
		C Spec `yaml:"c"`
	}
	src := `
a: ease-in
b:
  - {time: 0, value: 0, in: 1, out: 1}
  - {time: 1, value: 1, in: 1, out: 1}
c: wobble
`
	if err := yaml.Unmarshal([]byte(src), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	fa, err := doc.A.Func()
	if err != nil {
		t.Fatalf("preset: %v", err)
	}
	if got := fa(0.5); got != 0.25 {
		t.Errorf("ease-in(0.5): got %v, want 0.25", got)
	}

	fb, err := doc.B.Func()
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if got := fb(0.4); !near(got, 0.4) {
		t.Errorf("keyed curve(0.4): got %v", got)
	}

	if _, err := doc.C.Func(); err == nil {
		t.Error("unknown preset should fail")
	}
}

func TestSpecEmptyIsLinear(t *testing.T) {
	f, err := Spec{}.Func()
	if err != nil {
		t.Fatal(err)
	}
	if f(0.7) != 0.7 {
		t.Errorf("empty spec: got %v", f(0.7))
	}
}
