package sensor

import "fmt"

// State is the sensor's alertness.
type State uint8

const (
	Seeking State = iota
	TransitionToAlert
	Alert
	TransitionToSeek
)

func (s State) String() string {
	switch s {
	case Seeking:
		return "seeking"
	case TransitionToAlert:
		return "transition_to_alert"
	case Alert:
		return "alert"
	case TransitionToSeek:
		return "transition_to_seek"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(b []byte) error {
	st, err := ParseState(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// ParseState is the inverse of State.String.
func ParseState(name string) (State, error) {
	for st := Seeking; st <= TransitionToSeek; st++ {
		if st.String() == name {
			return st, nil
		}
	}
	return 0, fmt.Errorf("sensor: unknown state %q", name)
}

// Event drives the state machine.
type Event uint8

const (
	Acquired Event = iota + 1 // visibility test succeeded
	Lost                      // visibility test failed
	Elapsed                   // transition timer reached its duration
)

func (e Event) String() string {
	switch e {
	case Acquired:
		return "acquired"
	case Lost:
		return "lost"
	case Elapsed:
		return "elapsed"
	default:
		return fmt.Sprintf("event(%d)", uint8(e))
	}
}

// TimerInit says how the transition timer starts in the new state.
type TimerInit uint8

const (
	NoTransition TimerInit = iota
	ResetTimer
	// MirrorTimer starts TransitionToAlert part way through so the cone
	// picks up where the interrupted TransitionToSeek left it.
	MirrorTimer
)

// Transition is the state table. Pairs not listed return (from, NoTransition).
func Transition(from State, ev Event) (State, TimerInit) {
	switch {
	case from == Seeking && ev == Acquired:
		return TransitionToAlert, ResetTimer
	case from == TransitionToAlert && ev == Elapsed:
		return Alert, ResetTimer
	case from == Alert && ev == Lost:
		return TransitionToSeek, ResetTimer
	case from == TransitionToSeek && ev == Acquired:
		return TransitionToAlert, MirrorTimer
	case from == TransitionToSeek && ev == Elapsed:
		return Seeking, ResetTimer
	}
	return from, NoTransition
}
