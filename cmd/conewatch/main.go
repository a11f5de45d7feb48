// conewatch tails a visioncone dashboard's frame stream and prints sensor
// state changes as they happen.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-visioncone/internal/config"
	"github.com/teslashibe/go-visioncone/internal/log"
)

func main() {
	base := flag.String("url", config.DashboardURL("", config.HTTPPort()), "Dashboard base URL")
	frames := flag.Int("frames", 0, "Exit after this many frames (0 = until interrupted)")
	logLevel := flag.String("log-level", config.LogLevel(), "Log level: debug, info, warn, error")
	flag.Parse()

	log.Init(*logLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	w := newWatcher(*base, os.Stdout)
	if err := w.Run(ctx, *frames); err != nil && ctx.Err() == nil {
		log.Error("conewatch failed", "error", err)
		os.Exit(1)
	}
}
