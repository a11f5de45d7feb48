// Package web provides a real-time dashboard for vision-cone sensors: the
// latest frame, the depth atlas and live websocket streams of both.
package web

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-visioncone/pkg/atlas"
	"github.com/teslashibe/go-visioncone/pkg/hub"
	"github.com/teslashibe/go-visioncone/pkg/sensor"
	"github.com/teslashibe/go-visioncone/pkg/tracking"
)

//go:embed dashboard.html
var dashboardHTML []byte

// FramePacket is what /ws/frames clients receive every frame.
type FramePacket struct {
	Frame   *atlas.Frame    `json:"frame"`
	Sensors []sensor.Status `json:"sensors"`
}

// Server is the web dashboard server
type Server struct {
	app     *fiber.App
	port    string
	tracker *tracking.Tracker
	log     *slog.Logger

	// atlasEvery throttles atlas image broadcasts to every n-th frame
	atlasEvery int

	mu       sync.RWMutex
	frame    *atlas.Frame
	sensors  []sensor.Status
	frames   uint64
	atlasPNG []byte

	frameHub *hub.Hub
	atlasHub *hub.Hub
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithAtlasEvery broadcasts the atlas image on every n-th frame.
func WithAtlasEvery(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.atlasEvery = n
		}
	}
}

// NewServer creates a dashboard for tr and registers it as a frame publisher.
func NewServer(port string, tr *tracking.Tracker, opts ...Option) *Server {
	s := &Server{
		port:       port,
		tracker:    tr,
		log:        slog.Default(),
		atlasEvery: 10,
	}
	for _, o := range opts {
		o(s)
	}
	s.frameHub = hub.New("frames", s.log)
	s.atlasHub = hub.New("atlas", s.log)
	s.log = s.log.With("component", "web")

	app := fiber.New(fiber.Config{
		AppName:               "Vision Cone Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	app.Get("/", s.handleDashboard)

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/sensors", s.handleListSensors)
	api.Get("/sensors/:id", s.handleGetSensor)
	api.Get("/sensors/:id/arc", s.handleSensorArc)
	api.Post("/sensors/:id/enabled", s.handleSetEnabled)
	api.Get("/frame", s.handleFrame)
	api.Get("/atlas", s.handleAtlas)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/frames", websocket.New(s.handleFramesWS))
	app.Get("/ws/atlas", websocket.New(s.handleAtlasWS))

	s.app = app
	if tr != nil {
		tr.AddPublisher(s)
	}
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the hubs and serves until the listener fails or ctx is done.
func (s *Server) Start(ctx context.Context) error {
	go s.frameHub.Run(ctx)
	go s.atlasHub.Run(ctx)
	go func() {
		<-ctx.Done()
		s.app.Shutdown()
	}()

	s.log.Info("web dashboard listening", "url", "http://localhost:"+s.port)
	if err := s.app.Listen(":" + s.port); err != nil {
		return fmt.Errorf("web: listen :%s: %w", s.port, err)
	}
	return nil
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil {
			s.log.Warn("web server error", "error", err)
		}
	}()
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// PublishFrame implements tracking.Publisher. It caches the frame for the
// REST endpoints and fans it out to websocket clients.
func (s *Server) PublishFrame(frame *atlas.Frame, sensors []sensor.Status) {
	s.mu.Lock()
	s.frame = frame
	s.sensors = sensors
	s.frames++
	n := s.frames
	s.atlasPNG = nil
	s.mu.Unlock()

	if s.frameHub.ClientCount() > 0 {
		if err := s.frameHub.BroadcastJSON(FramePacket{Frame: frame, Sensors: sensors}); err != nil {
			s.log.Warn("frame broadcast failed", "error", err)
		}
	}
	if s.atlasHub.ClientCount() > 0 && n%uint64(s.atlasEvery) == 0 {
		data, err := s.encodeAtlas()
		if err != nil {
			s.log.Warn("atlas encode failed", "error", err)
			return
		}
		s.atlasHub.BroadcastBinary(data)
	}
}

// encodeAtlas returns the latest atlas as PNG, cached per frame.
func (s *Server) encodeAtlas() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.atlasPNG != nil {
		return s.atlasPNG, nil
	}
	if s.frame == nil || s.frame.Atlas == nil {
		return nil, errNoFrame
	}
	var buf bytes.Buffer
	if err := s.frame.Atlas.EncodePNG(&buf); err != nil {
		return nil, err
	}
	s.atlasPNG = buf.Bytes()
	return s.atlasPNG, nil
}

func (s *Server) latest() (*atlas.Frame, []sensor.Status) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame, s.sensors
}

// FrameHub returns the frame stream hub.
func (s *Server) FrameHub() *hub.Hub {
	return s.frameHub
}

// AtlasHub returns the atlas image hub.
func (s *Server) AtlasHub() *hub.Hub {
	return s.atlasHub
}
