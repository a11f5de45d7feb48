// Package config provides configuration helpers for go-visioncone commands.
package config

import (
	"os"
	"strconv"
)

// Defaults used when the environment does not say otherwise.
const (
	DefaultHTTPPort = "8090"
	DefaultLogLevel = "info"
	DefaultQuality  = "medium"
)

// RigPath returns the rig document path from VISIONCONE_RIG, or "" to use
// the built-in demo rig.
func RigPath() string {
	return os.Getenv("VISIONCONE_RIG")
}

// HTTPPort returns the dashboard port from VISIONCONE_PORT or the default.
func HTTPPort() string {
	if p := os.Getenv("VISIONCONE_PORT"); p != "" {
		if _, err := strconv.Atoi(p); err == nil {
			return p
		}
	}
	return DefaultHTTPPort
}

// LogLevel returns LOG_LEVEL or the default.
func LogLevel() string {
	if l := os.Getenv("LOG_LEVEL"); l != "" {
		return l
	}
	return DefaultLogLevel
}

// AtlasQuality returns VISIONCONE_QUALITY or the default.
func AtlasQuality() string {
	if q := os.Getenv("VISIONCONE_QUALITY"); q != "" {
		return q
	}
	return DefaultQuality
}

// DashboardURL returns the base URL for a dashboard on host:port.
func DashboardURL(host, port string) string {
	if host == "" {
		host = "localhost"
	}
	return "http://" + host + ":" + port
}
