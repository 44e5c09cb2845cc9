package enums

import "fmt"

// EventVisibility controls who can see an event and place orders against it.
// Password-protected events additionally require a per-event password before
// ordering is allowed.
type EventVisibility string

const (
	EventVisibilityPublic            EventVisibility = "public"
	EventVisibilityPrivate           EventVisibility = "private"
	EventVisibilityPasswordProtected EventVisibility = "password_protected"
)

var validEventVisibilities = []EventVisibility{
	EventVisibilityPublic,
	EventVisibilityPrivate,
	EventVisibilityPasswordProtected,
}

// String implements fmt.Stringer.
func (v EventVisibility) String() string {
	return string(v)
}

// IsValid reports whether the value is a known EventVisibility.
func (v EventVisibility) IsValid() bool {
	for _, candidate := range validEventVisibilities {
		if candidate == v {
			return true
		}
	}
	return false
}

// RequiresPassword reports whether ordering against the event needs a prior
// password verification.
func (v EventVisibility) RequiresPassword() bool {
	return v == EventVisibilityPasswordProtected
}

// ParseEventVisibility converts raw input into an EventVisibility.
func ParseEventVisibility(value string) (EventVisibility, error) {
	for _, candidate := range validEventVisibilities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event visibility %q", value)
}
