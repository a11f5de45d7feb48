package tracking

import "time"

// Config holds the tunables for the frame loop and the point-of-interest
// world model.
type Config struct {
	// Timing
	TickInterval  time.Duration // How often sensors update and the atlas renders
	MaxDeltaTime  time.Duration // Clamp for dt after a stall
	DecayInterval time.Duration // How often to decay world model confidence

	// World Model
	ConfidenceDecay float64       // How fast confidence decays (per second)
	ForgetThreshold float64       // Remove points below this confidence
	ForgetTimeout   time.Duration // Remove points not seen for this long
	Smoothing       float64       // Weight of a new reading (0-1)
	PredictWindow   time.Duration // Extrapolate velocity only this soon after a reading
}

// DefaultConfig returns a 30 Hz loop.
func DefaultConfig() Config {
	return Config{
		TickInterval:  33 * time.Millisecond,
		MaxDeltaTime:  100 * time.Millisecond,
		DecayInterval: 100 * time.Millisecond,

		ConfidenceDecay: 0.3,              // Lose 30% confidence per second
		ForgetThreshold: 0.1,              // Forget below 10% confidence
		ForgetTimeout:   10 * time.Second, // Forget after 10 seconds
		Smoothing:       0.7,
		PredictWindow:   500 * time.Millisecond,
	}
}

// FastConfig returns a 60 Hz loop.
func FastConfig() Config {
	cfg := DefaultConfig()
	cfg.TickInterval = 16 * time.Millisecond
	cfg.MaxDeltaTime = 50 * time.Millisecond
	return cfg
}

// SlowConfig returns a 10 Hz loop for constrained hosts.
func SlowConfig() Config {
	cfg := DefaultConfig()
	cfg.TickInterval = 100 * time.Millisecond
	cfg.MaxDeltaTime = 250 * time.Millisecond
	return cfg
}
