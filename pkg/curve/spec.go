package curve

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Spec is the serialized form of a curve: either a preset name or a list of
// keyframes.
//
//	seek_to_alert_curve: ease-in-out
//	alert_to_seek_curve:
//	  - {time: 0, value: 0, in: 0, out: 2}
//	  - {time: 1, value: 1, in: 0, out: 0}
type Spec struct {
	Preset string
	Keys   Keyframes
}

// UnmarshalYAML accepts a scalar preset name or a sequence of keys.
func (s *Spec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		s.Preset = node.Value
		s.Keys = nil
		return nil
	case yaml.SequenceNode:
		var keys Keyframes
		if err := node.Decode(&keys); err != nil {
			return fmt.Errorf("curve: decode keys: %w", err)
		}
		s.Preset = ""
		s.Keys = keys
		return nil
	default:
		return fmt.Errorf("curve: line %d: expected preset name or key list", node.Line)
	}
}

// MarshalYAML writes the preset name or the key list.
func (s Spec) MarshalYAML() (interface{}, error) {
	if len(s.Keys) > 0 {
		return []Key(s.Keys), nil
	}
	return s.Preset, nil
}

// Func resolves the spec. An empty spec is linear.
func (s Spec) Func() (Func, error) {
	if len(s.Keys) > 0 {
		if err := s.Keys.Validate(); err != nil {
			return nil, err
		}
		return s.Keys.Func(), nil
	}
	if s.Preset == "" {
		return Linear, nil
	}
	f, ok := Preset(s.Preset)
	if !ok {
		return nil, fmt.Errorf("curve: unknown preset %q", s.Preset)
	}
	return f, nil
}
