// Package curve provides easing curves sampled over [0, 1].
//
// Sensors use two of these to shape their seek/alert transitions. A curve may
// be one of the named presets or a list of keyframes evaluated as a cubic
// Hermite spline, the same model animation tools use for tangent-edited curves.
package curve

import (
	"fmt"
	"sort"

	"github.com/teslashibe/go-visioncone/pkg/geom"
)

// Func maps a normalized time in [0, 1] to an interpolant.
// Curves are not required to be monotonic.
type Func func(t float64) float64

// Preset names.
const (
	PresetLinear    = "linear"
	PresetEaseIn    = "ease-in"
	PresetEaseOut   = "ease-out"
	PresetEaseInOut = "ease-in-out"
)

// Linear returns t.
func Linear(t float64) float64 { return t }

// EaseIn accelerates from zero velocity.
func EaseIn(t float64) float64 { return t * t }

// EaseOut decelerates to zero velocity.
func EaseOut(t float64) float64 { return 1 - (1-t)*(1-t) }

// EaseInOut is smoothstep.
func EaseInOut(t float64) float64 { return t * t * (3 - 2*t) }

// Presets returns all named curves.
func Presets() map[string]Func {
	return map[string]Func{
		PresetLinear:    Linear,
		PresetEaseIn:    EaseIn,
		PresetEaseOut:   EaseOut,
		PresetEaseInOut: EaseInOut,
	}
}

// PresetNames returns the preset names in a stable order.
func PresetNames() []string {
	return []string{PresetLinear, PresetEaseIn, PresetEaseOut, PresetEaseInOut}
}

// Preset looks up a named curve.
func Preset(name string) (Func, bool) {
	f, ok := Presets()[name]
	return f, ok
}

// Eval samples f at t clamped to [0, 1]. A nil curve is linear. The result
// is clamped to [0, 1] too, so a keyframe curve that overshoots between keys
// never blends past either endpoint.
func Eval(f Func, t float64) float64 {
	t = geom.Clamp01(t)
	if f == nil {
		return t
	}
	return geom.Clamp01(f(t))
}

// Key is one keyframe: a value at a time with incoming and outgoing slopes.
type Key struct {
	Time       float64 `yaml:"time" json:"time"`
	Value      float64 `yaml:"value" json:"value"`
	InTangent  float64 `yaml:"in" json:"in"`
	OutTangent float64 `yaml:"out" json:"out"`
}

// Keyframes is a tangent-edited curve. Keys must be sorted by Time; use Sort
// after building one by hand.
type Keyframes []Key

// Sort orders keys by time.
func (k Keyframes) Sort() {
	sort.SliceStable(k, func(i, j int) bool { return k[i].Time < k[j].Time })
}

// Evaluate samples the spline. Outside the key range the nearest end value is
// held; an empty curve is linear.
func (k Keyframes) Evaluate(t float64) float64 {
	switch {
	case len(k) == 0:
		return t
	case t <= k[0].Time:
		return k[0].Value
	case t >= k[len(k)-1].Time:
		return k[len(k)-1].Value
	}

	i := sort.Search(len(k), func(i int) bool { return k[i].Time > t }) - 1
	a, b := k[i], k[i+1]
	dt := b.Time - a.Time
	if dt <= 0 {
		return b.Value
	}

	s := (t - a.Time) / dt
	s2 := s * s
	s3 := s2 * s
	h00 := 2*s3 - 3*s2 + 1
	h10 := s3 - 2*s2 + s
	h01 := -2*s3 + 3*s2
	h11 := s3 - s2

	return h00*a.Value + h10*a.OutTangent*dt + h01*b.Value + h11*b.InTangent*dt
}

// Func adapts the keyframes to a Func.
func (k Keyframes) Func() Func {
	keys := append(Keyframes(nil), k...)
	keys.Sort()
	return keys.Evaluate
}

// Validate checks that the keys are ordered and distinct in time.
func (k Keyframes) Validate() error {
	for i := 1; i < len(k); i++ {
		if k[i].Time <= k[i-1].Time {
			return fmt.Errorf("curve: key %d at time %v is not after key %d at %v",
				i, k[i].Time, i-1, k[i-1].Time)
		}
	}
	return nil
}
