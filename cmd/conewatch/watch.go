package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-visioncone/internal/httpc"
	"github.com/teslashibe/go-visioncone/internal/log"
	"github.com/teslashibe/go-visioncone/pkg/sensor"
	"github.com/teslashibe/go-visioncone/pkg/web"
)

// packet mirrors web.FramePacket without the heavy per-tile arrays.
type packet struct {
	Frame struct {
		Capacity int `json:"capacity"`
		Rendered int `json:"rendered"`
		Skipped  int `json:"skipped"`
	} `json:"frame"`
	Sensors []sensor.Status `json:"sensors"`
}

type watcher struct {
	base string
	out  io.Writer
	log  *slog.Logger

	states map[sensor.ID]sensor.State
}

func newWatcher(base string, out io.Writer) *watcher {
	return &watcher{
		base:   strings.TrimRight(base, "/"),
		out:    out,
		log:    log.For("conewatch"),
		states: make(map[sensor.ID]sensor.State),
	}
}

func (w *watcher) wsURL() string {
	u := w.base
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws/frames"
}

// Run prints the dashboard status, then every state change until ctx is
// done or maxFrames frames have arrived.
func (w *watcher) Run(ctx context.Context, maxFrames int) error {
	var status web.StatusResponse
	if err := httpc.GetJSON(ctx, w.base+"/api/status", &status); err != nil {
		return err
	}
	fmt.Fprintf(w.out, "connected: %d sensors (capacity %d), %d frames so far\n",
		status.Sensors, status.Capacity, status.Tracker.Frames)

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	ws, _, err := dialer.DialContext(ctx, w.wsURL(), nil)
	if err != nil {
		return fmt.Errorf("conewatch: dial %s: %w", w.wsURL(), err)
	}
	defer ws.Close()

	go func() {
		<-ctx.Done()
		ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		ws.Close()
	}()

	for n := 0; maxFrames == 0 || n < maxFrames; n++ {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return fmt.Errorf("conewatch: read: %w", err)
		}
		var p packet
		if err := json.Unmarshal(data, &p); err != nil {
			w.log.Warn("bad frame packet", "error", err)
			continue
		}
		w.apply(p)
	}
	return nil
}

// apply prints sensors whose state changed since the last packet.
func (w *watcher) apply(p packet) {
	for _, s := range p.Sensors {
		prev, seen := w.states[s.ID]
		w.states[s.ID] = s.State
		if seen && prev == s.State {
			continue
		}
		if !seen {
			fmt.Fprintf(w.out, "%-12s %s\n", s.Name, s.State)
			continue
		}
		fmt.Fprintf(w.out, "%-12s %s -> %s (radius %.2f, fov %.1f)\n", s.Name, prev, s.State, s.Radius, s.FOV)
	}
}
