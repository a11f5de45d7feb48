package tracking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/teslashibe/go-visioncone/pkg/atlas"
	"github.com/teslashibe/go-visioncone/pkg/geom"
	"github.com/teslashibe/go-visioncone/pkg/registry"
	"github.com/teslashibe/go-visioncone/pkg/scene"
	"github.com/teslashibe/go-visioncone/pkg/sensor"
)

type recordingPublisher struct {
	mu     sync.Mutex
	frames []*atlas.Frame
	status [][]sensor.Status
}

func (p *recordingPublisher) PublishFrame(f *atlas.Frame, s []sensor.Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = append(p.frames, f)
	p.status = append(p.status, s)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.frames)
}

type rig struct {
	index   *scene.Index
	reg     *registry.Registry
	sensors []*sensor.Sensor
	tracker *Tracker
}

// newRig places n sensors along x, all facing +z toward a target at z=3.
func newRig(t *testing.T, n, capacity int, target TargetProvider) *rig {
	t.Helper()

	idx := scene.NewIndex(
		scene.NewBody("target", scene.BoxAt(geom.Vec3{0, 0, 3}, geom.Vec3{20, 2, 0.5}), scene.LayerTarget),
	)
	reg := registry.New(registry.WithCapacity(capacity))

	r := &rig{index: idx, reg: reg}
	cfg := sensor.DefaultConfig()
	for i := 0; i < n; i++ {
		s := sensor.New("cam", &cfg, idx, sensor.WithPose(geom.Pose{
			Position: geom.Vec3{float64(i) * 0.5, 0, 0},
			Forward:  geom.Vec3{0, 0, 1},
		}))
		reg.Register(s)
		r.sensors = append(r.sensors, s)
	}

	opts := atlas.DefaultOptions()
	opts.AtlasSize = 128
	opts.Capacity = capacity
	renderer, err := atlas.NewRenderer(opts, idx)
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	r.tracker = New(DefaultConfig(), reg, renderer, target)
	return r
}

func fixedTarget(p geom.Vec3) TargetProvider {
	return TargetFunc(func() (geom.Vec3, bool) { return p, true })
}

func TestTracker_StepUpdatesSensorsAndPublishes(t *testing.T) {
	r := newRig(t, 2, 16, fixedTarget(geom.Vec3{0, 0, 3}))
	pub := &recordingPublisher{}
	r.tracker.AddPublisher(pub)

	frame, err := r.tracker.Step(33 * time.Millisecond)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if frame.Rendered != 2 {
		t.Errorf("rendered = %d, want 2", frame.Rendered)
	}
	for i, s := range r.sensors {
		if s.State() != sensor.TransitionToAlert {
			t.Errorf("sensor %d state = %v, want transition_to_alert", i, s.State())
		}
	}
	if pub.count() != 1 {
		t.Fatalf("publisher got %d frames, want 1", pub.count())
	}
	if len(pub.status[0]) != 2 {
		t.Errorf("statuses = %d, want 2", len(pub.status[0]))
	}
	if r.tracker.LastFrame() != frame {
		t.Error("LastFrame should be the frame just rendered")
	}
	if st := r.tracker.Stats(); st.Frames != 1 || st.Rendered != 2 {
		t.Errorf("stats = %+v", st)
	}
}

func TestTracker_OverCapacitySensorsStillUpdate(t *testing.T) {
	r := newRig(t, 5, 4, fixedTarget(geom.Vec3{0, 0, 3}))

	frame, err := r.tracker.Step(33 * time.Millisecond)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if frame.Rendered != 4 {
		t.Errorf("rendered = %d, want capacity 4", frame.Rendered)
	}
	if st := r.sensors[4].State(); st != sensor.TransitionToAlert {
		t.Errorf("sensor past capacity state = %v, want transition_to_alert", st)
	}
	if r.tracker.Stats().Overflow != 1 {
		t.Errorf("overflow = %d, want 1", r.tracker.Stats().Overflow)
	}
}

func TestTracker_NoTargetProvider(t *testing.T) {
	r := newRig(t, 1, 16, nil)
	for i := 0; i < 3; i++ {
		if _, err := r.tracker.Step(33 * time.Millisecond); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
	if st := r.sensors[0].State(); st != sensor.Seeking {
		t.Errorf("state = %v, want seeking", st)
	}
}

func TestTracker_ClampsDeltaTime(t *testing.T) {
	r := newRig(t, 1, 16, fixedTarget(geom.Vec3{0, 0, 3}))

	r.tracker.Step(33 * time.Millisecond) // acquire
	r.tracker.Step(time.Hour)
	if got := r.sensors[0].Timer(); got != DefaultConfig().MaxDeltaTime {
		t.Errorf("timer = %v, want clamped to %v", got, DefaultConfig().MaxDeltaTime)
	}
}

func TestTracker_RunStopsOnCancel(t *testing.T) {
	world := NewWorldModel(DefaultConfig())
	world.Report("intruder", geom.Vec3{0, 0, 3})
	r := newRig(t, 1, 16, world)
	pub := &recordingPublisher{}
	r.tracker.AddPublisher(pub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.tracker.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for pub.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if pub.count() < 2 {
		t.Errorf("published %d frames, want at least 2", pub.count())
	}
	if r.tracker.IsRunning() {
		t.Error("tracker should report stopped")
	}
}
