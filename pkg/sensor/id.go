package sensor

import "github.com/google/uuid"

// ID identifies a sensor. IDs are random and never reused, so a stale ID
// held after deregistration cannot name a different sensor.
type ID struct {
	uuid.UUID
}

// NewID returns a fresh random ID.
func NewID() ID {
	return ID{uuid.New()}
}

// ParseID parses the canonical string form.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ID{}, err
	}
	return ID{u}, nil
}

// IsZero reports whether the ID is unset.
func (id ID) IsZero() bool {
	return id.UUID == uuid.Nil
}
