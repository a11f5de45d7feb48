package web

import (
	"bytes"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-visioncone/pkg/hub"
	"github.com/teslashibe/go-visioncone/pkg/sensor"
	"github.com/teslashibe/go-visioncone/pkg/tracking"
)

var errNoFrame = errors.New("web: no frame rendered yet")

// StatusResponse is returned by /api/status.
type StatusResponse struct {
	Tracker  tracking.Stats `json:"tracker"`
	Running  bool           `json:"running"`
	Sensors  int            `json:"sensors"`
	Capacity int            `json:"capacity"`
	Frames   hub.Stats      `json:"frames_hub"`
	Atlas    hub.Stats      `json:"atlas_hub"`
}

// EnabledRequest is the body for POST /api/sensors/:id/enabled.
type EnabledRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) handleDashboard(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(dashboardHTML)
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	resp := StatusResponse{
		Frames: s.frameHub.Stats(),
		Atlas:  s.atlasHub.Stats(),
	}
	if s.tracker != nil {
		resp.Tracker = s.tracker.Stats()
		resp.Running = s.tracker.IsRunning()
		resp.Sensors = s.tracker.Registry().Len()
		resp.Capacity = s.tracker.Registry().Capacity()
	}
	return c.JSON(resp)
}

func (s *Server) handleListSensors(c *fiber.Ctx) error {
	if s.tracker == nil {
		return c.JSON([]sensor.Status{})
	}
	return c.JSON(s.tracker.Statuses())
}

// lookup resolves the :id param or writes an error response.
func (s *Server) lookup(c *fiber.Ctx) (*sensor.Sensor, error) {
	id, err := sensor.ParseID(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid sensor id")
	}
	if s.tracker == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "sensor not found")
	}
	sn, ok := s.tracker.Registry().Get(id)
	if !ok {
		return nil, fiber.NewError(fiber.StatusNotFound, "sensor not found")
	}
	return sn, nil
}

func (s *Server) handleGetSensor(c *fiber.Ctx) error {
	sn, err := s.lookup(c)
	if err != nil {
		return err
	}
	return c.JSON(sn.Status())
}

func (s *Server) handleSensorArc(c *fiber.Ctx) error {
	sn, err := s.lookup(c)
	if err != nil {
		return err
	}
	segments, err := strconv.Atoi(c.Query("segments", "16"))
	if err != nil || segments < 1 || segments > 256 {
		return fiber.NewError(fiber.StatusBadRequest, "segments must be in [1, 256]")
	}
	return c.JSON(fiber.Map{
		"id":     sn.ID(),
		"points": sn.Arc(segments),
	})
}

func (s *Server) handleSetEnabled(c *fiber.Ctx) error {
	sn, err := s.lookup(c)
	if err != nil {
		return err
	}
	var req EnabledRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "body must be {\"enabled\": bool}")
	}
	sn.SetEnabled(req.Enabled)
	s.log.Info("sensor toggled", "sensor", sn.Name(), "id", sn.ID(), "enabled", req.Enabled)
	return c.JSON(sn.Status())
}

func (s *Server) handleFrame(c *fiber.Ctx) error {
	frame, sensors := s.latest()
	if frame == nil {
		return fiber.NewError(fiber.StatusNotFound, errNoFrame.Error())
	}
	return c.JSON(FramePacket{Frame: frame, Sensors: sensors})
}

func (s *Server) handleAtlas(c *fiber.Ctx) error {
	switch c.Query("format", "png") {
	case "png":
		data, err := s.encodeAtlas()
		if errors.Is(err, errNoFrame) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, "image/png")
		return c.Send(data)

	case "tiff":
		frame, _ := s.latest()
		if frame == nil || frame.Atlas == nil {
			return fiber.NewError(fiber.StatusNotFound, errNoFrame.Error())
		}
		var buf bytes.Buffer
		if err := frame.Atlas.EncodeTIFF(&buf); err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, "image/tiff")
		return c.Send(buf.Bytes())

	default:
		return fiber.NewError(fiber.StatusBadRequest, "format must be png or tiff")
	}
}

// handleFramesWS streams FramePackets.
func (s *Server) handleFramesWS(c *websocket.Conn) {
	hub.NewClient(s.frameHub, c).Run()
}

// handleAtlasWS streams PNG atlas images.
func (s *Server) handleAtlasWS(c *websocket.Conn) {
	hub.NewClient(s.atlasHub, c).Run()
}
