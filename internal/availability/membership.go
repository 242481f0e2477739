package availability

import "fmt"

type Membership int

const (
	Unknown Membership = iota
	Available
	Unavailable
)

func (m Membership) String() string {
	switch m {
	case Available:
		return "available"
	case Unavailable:
		return "unavailable"
	}
	return "unknown"
}

func (m Membership) Known() bool {
	return m != Unknown
}

// Bool returns nil for Unknown.
func (m Membership) Bool() *bool {
	if m == Unknown {
		return nil
	}
	v := m == Available
	return &v
}

func (m Membership) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Membership) UnmarshalText(text []byte) error {
	switch string(text) {
	case "available":
		*m = Available
	case "unavailable":
		*m = Unavailable
	case "unknown", "":
		*m = Unknown
	default:
		return fmt.Errorf("unknown membership %q", text)
	}
	return nil
}

type loadState int

const (
	stateAbsent loadState = iota
	statePending
	stateSettled
)

func (s loadState) String() string {
	switch s {
	case statePending:
		return "pending"
	case stateSettled:
		return "settled"
	}
	return "absent"
}
