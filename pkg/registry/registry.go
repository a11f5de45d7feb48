// Package registry tracks the live sensors and hands the renderer a
// capacity-capped, registration-ordered snapshot each frame.
package registry

import (
	"log/slog"
	"sync"

	"github.com/teslashibe/go-visioncone/pkg/sensor"
)

// MaxSensors is the default number of sensors rendered per frame.
const MaxSensors = 16

// Registry is an explicitly owned set of sensors. It holds references only;
// owners must Deregister sensors they retire.
type Registry struct {
	mu       sync.RWMutex
	order    []*sensor.Sensor
	index    map[sensor.ID]int
	capacity int
	log      *slog.Logger

	overflowing bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithCapacity overrides MaxSensors. Values below 1 are ignored.
func WithCapacity(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.capacity = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		index:    make(map[sensor.ID]int),
		capacity: MaxSensors,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	r.log = r.log.With("component", "registry")
	return r
}

// Register adds s at the end of the order. Registering an ID already present
// is a no-op; the return value reports whether s was added.
func (r *Registry) Register(s *sensor.Sensor) bool {
	if s == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	id := s.ID()
	if _, ok := r.index[id]; ok {
		return false
	}
	r.index[id] = len(r.order)
	r.order = append(r.order, s)
	r.log.Debug("sensor registered", "id", id, "name", s.Name(), "count", len(r.order))
	return true
}

// Deregister removes the sensor with id. Unknown ids are ignored.
func (r *Registry) Deregister(id sensor.ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[id]
	if !ok {
		return false
	}
	copy(r.order[i:], r.order[i+1:])
	r.order[len(r.order)-1] = nil
	r.order = r.order[:len(r.order)-1]
	delete(r.index, id)
	for j := i; j < len(r.order); j++ {
		r.index[r.order[j].ID()] = j
	}
	r.log.Debug("sensor deregistered", "id", id, "count", len(r.order))
	return true
}

// Get looks up a sensor by id.
func (r *Registry) Get(id sensor.ID) (*sensor.Sensor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[id]
	if !ok {
		return nil, false
	}
	return r.order[i], true
}

// Sensors returns every registered sensor in registration order, including
// those beyond capacity.
func (r *Registry) Sensors() []*sensor.Sensor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*sensor.Sensor, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered sensors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Capacity returns the per-frame snapshot limit.
func (r *Registry) Capacity() int {
	return r.capacity
}

// Overflow returns how many registered sensors are left out of snapshots.
func (r *Registry) Overflow() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if n := len(r.order) - r.capacity; n > 0 {
		return n
	}
	return 0
}

// Snapshot copies the first Capacity sensors in registration order. Sensors
// past capacity are dropped, not rotated in.
func (r *Registry) Snapshot() []sensor.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.order)
	if n > r.capacity {
		if !r.overflowing {
			r.log.Warn("sensor capacity exceeded; newest sensors will not render",
				"registered", n, "capacity", r.capacity)
		}
		r.overflowing = true
		n = r.capacity
	} else {
		r.overflowing = false
	}

	out := make([]sensor.Snapshot, n)
	for i := 0; i < n; i++ {
		out[i] = r.order[i].Snapshot()
	}
	return out
}
