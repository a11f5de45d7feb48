package tracking

import (
	"sync"
	"time"

	"github.com/teslashibe/go-visioncone/pkg/geom"
)

// TrackedPoint is a point of interest reported by an outside source.
type TrackedPoint struct {
	ID         string    `json:"id"`
	Position   geom.Vec3 `json:"position"`
	Velocity   geom.Vec3 `json:"velocity"` // units per second
	Confidence float64   `json:"confidence"`
	LastSeen   time.Time `json:"last_seen"`
}

// WorldModel keeps the points of interest the sensors should look for and
// picks one as the focus. It implements TargetProvider.
type WorldModel struct {
	points map[string]*TrackedPoint
	focus  string
	mu     sync.RWMutex
	now    func() time.Time

	confidenceDecay float64
	forgetThreshold float64
	forgetTimeout   time.Duration
	smoothing       float64
	predictWindow   time.Duration
}

// NewWorldModel creates a world model from cfg.
func NewWorldModel(cfg Config) *WorldModel {
	return &WorldModel{
		points:          make(map[string]*TrackedPoint),
		now:             time.Now,
		confidenceDecay: cfg.ConfidenceDecay,
		forgetThreshold: cfg.ForgetThreshold,
		forgetTimeout:   cfg.ForgetTimeout,
		smoothing:       geom.Clamp01(cfg.Smoothing),
		predictWindow:   cfg.PredictWindow,
	}
}

// Report updates or creates a point from a new reading.
func (w *WorldModel) Report(id string, pos geom.Vec3) {
	if !geom.Finite(pos) {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if p, ok := w.points[id]; ok {
		dt := now.Sub(p.LastSeen).Seconds()
		if dt > 0 && dt < 1.0 {
			p.Velocity = pos.Sub(p.Position).Mul(1 / dt)
		}
		a := w.smoothing
		p.Position = pos.Mul(a).Add(p.Position.Mul(1 - a))
		p.LastSeen = now
		p.Confidence = 1.0
		return
	}

	w.points[id] = &TrackedPoint{
		ID:         id,
		Position:   pos,
		Confidence: 1.0,
		LastSeen:   now,
	}
	if w.focus == "" {
		w.focus = id
	}
}

// Focus returns a copy of the focused point.
func (w *WorldModel) Focus() (TrackedPoint, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	p, ok := w.points[w.focus]
	if !ok || p.Confidence < w.forgetThreshold {
		return TrackedPoint{}, false
	}
	return *p, true
}

// SetFocus picks which point the sensors look for.
func (w *WorldModel) SetFocus(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.focus = id
}

// TargetPosition implements TargetProvider. A point seen within the
// predict window is extrapolated by half its velocity.
func (w *WorldModel) TargetPosition() (geom.Vec3, bool) {
	p, ok := w.Focus()
	if !ok {
		return geom.Vec3{}, false
	}
	dt := w.now().Sub(p.LastSeen)
	if dt <= 0 || dt > w.predictWindow {
		return p.Position, true
	}
	return p.Position.Add(p.Velocity.Mul(dt.Seconds() * 0.5)), true
}

// DecayConfidence lowers every point's confidence and forgets stale ones.
func (w *WorldModel) DecayConfidence(dt float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	var forget []string
	for id, p := range w.points {
		p.Confidence -= w.confidenceDecay * dt
		if p.Confidence < 0 {
			p.Confidence = 0
		}
		if p.Confidence < w.forgetThreshold || now.Sub(p.LastSeen) > w.forgetTimeout {
			forget = append(forget, id)
		}
	}

	for _, id := range forget {
		delete(w.points, id)
		if w.focus == id {
			w.focus = ""
			for next := range w.points {
				w.focus = next
				break
			}
		}
	}
}

// Points returns copies of all tracked points.
func (w *WorldModel) Points() []TrackedPoint {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]TrackedPoint, 0, len(w.points))
	for _, p := range w.points {
		out = append(out, *p)
	}
	return out
}

// Clear forgets everything.
func (w *WorldModel) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.points = make(map[string]*TrackedPoint)
	w.focus = ""
}
