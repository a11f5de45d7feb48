// visioncone runs a rig of vision-cone sensors against a scripted point of
// interest, renders their depth atlas every tick and serves a dashboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/teslashibe/go-visioncone/internal/config"
	"github.com/teslashibe/go-visioncone/internal/log"
	"github.com/teslashibe/go-visioncone/pkg/atlas"
	"github.com/teslashibe/go-visioncone/pkg/geom"
	"github.com/teslashibe/go-visioncone/pkg/registry"
	"github.com/teslashibe/go-visioncone/pkg/rig"
	"github.com/teslashibe/go-visioncone/pkg/tracking"
	"github.com/teslashibe/go-visioncone/pkg/web"
)

type options struct {
	rigPath  string
	port     string
	quality  string
	logLevel string
	ticks    int
	dump     string
	noWeb    bool
	fast     bool
	seed     int64
}

func main() {
	opts := parseFlags()
	log.Init(opts.logLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		log.Error("visioncone failed", "error", err)
		os.Exit(1)
	}
}

// parseFlags parses command line flags; environment variables supply the
// defaults.
func parseFlags() options {
	var o options
	flag.StringVar(&o.rigPath, "rig", config.RigPath(), "Rig YAML file (default: built-in demo, or VISIONCONE_RIG)")
	flag.StringVar(&o.port, "port", config.HTTPPort(), "Dashboard port")
	flag.StringVar(&o.quality, "quality", config.AtlasQuality(), "Atlas quality: low, medium, high")
	flag.StringVar(&o.logLevel, "log-level", config.LogLevel(), "Log level: debug, info, warn, error")
	flag.IntVar(&o.ticks, "ticks", 0, "Run this many fixed ticks and exit (0 = until interrupted)")
	flag.StringVar(&o.dump, "dump", "", "Write the last atlas to this .png or .tiff file on exit")
	flag.BoolVar(&o.noWeb, "no-web", false, "Disable the dashboard")
	flag.BoolVar(&o.fast, "fast", false, "Tick at 60Hz")
	flag.Int64Var(&o.seed, "seed", rig.DefaultSeed, "Seed for the idle sweep phases")
	flag.Parse()
	return o
}

func run(ctx context.Context, o options) error {
	logger := log.For("visioncone")

	doc := rig.Demo()
	if o.rigPath != "" {
		var err error
		if doc, err = rig.Load(o.rigPath); err != nil {
			return err
		}
	}
	r, err := doc.Build(rig.WithQuality(o.quality), rig.WithLogger(log.L()), rig.WithSeed(o.seed))
	if err != nil {
		return err
	}

	reg := registry.New(registry.WithCapacity(r.Capacity), registry.WithLogger(log.L()))
	r.Register(reg)

	renderer, err := atlas.NewRenderer(r.Options, r.Scene, atlas.WithLogger(log.L()))
	if err != nil {
		return err
	}

	cfg := tracking.DefaultConfig()
	if o.fast {
		cfg = tracking.FastConfig()
	}

	target := newScriptedTarget(r.Target, tracking.NewWorldModel(cfg))
	tracker := tracking.New(cfg, reg, renderer, target)
	tracker.SetLogger(log.L())
	tracker.SetCamera(overheadCamera())

	logger.Info("rig loaded",
		"rig", r.Name,
		"sensors", reg.Len(),
		"capacity", reg.Capacity(),
		"bodies", r.Scene.Len(),
		"atlas", r.Options.AtlasSize)

	if !o.noWeb {
		server := web.NewServer(o.port, tracker, web.WithLogger(log.L()))
		server.StartAsync(ctx)
	}

	if o.ticks > 0 {
		for i := 0; i < o.ticks && ctx.Err() == nil; i++ {
			target.advance(cfg.TickInterval)
			if _, err := tracker.Step(cfg.TickInterval); err != nil {
				logger.Warn("step failed", "tick", i, "error", err)
			}
		}
		report(tracker)
	} else {
		target.realtime()
		tracker.Run(ctx)
	}

	if o.dump != "" {
		if err := dumpAtlas(tracker.LastFrame(), o.dump); err != nil {
			return err
		}
		logger.Info("atlas written", "path", o.dump)
	}
	return nil
}

// overheadCamera looks down on the rig from behind the south edge.
func overheadCamera() atlas.StaticCamera {
	pos := geom.Vec3{0, 20, -20}
	dir := geom.Vec3{0, -1, 1}.Normalize()
	up, _ := atlas.UpVector(dir)
	return atlas.StaticCamera{
		V: atlas.ViewMatrix(pos, dir, up),
		P: atlas.Projection(60, 0.1, 100),
	}
}

func report(tr *tracking.Tracker) {
	st := tr.Stats()
	fmt.Printf("frames=%d rendered=%d skipped=%d overflow=%d render=%s\n",
		st.Frames, st.Rendered, st.Skipped, st.Overflow, st.RenderTime)
	for _, s := range tr.Statuses() {
		fmt.Printf("  %-12s %-20s radius=%5.2f fov=%5.1f enabled=%v\n",
			s.Name, s.State, s.Radius, s.FOV, s.Enabled)
	}
}

func dumpAtlas(frame *atlas.Frame, path string) error {
	if frame == nil || frame.Atlas == nil {
		return fmt.Errorf("visioncone: no atlas to dump")
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("visioncone: create %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		err = frame.Atlas.EncodeTIFF(f)
	default:
		err = frame.Atlas.EncodePNG(f)
	}
	if err != nil {
		return fmt.Errorf("visioncone: encode %s: %w", path, err)
	}
	return nil
}
