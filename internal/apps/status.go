package apps

import (
	"fmt"
	"strings"
)

// Status is the grant state of a usage edge. The numeric value is the
// display rank: granted first, unknown last.
type Status int

const (
	StatusGranted Status = iota
	StatusGrantedInUse
	StatusDenied
	StatusUnknown
)

var statusNames = map[Status]string{
	StatusGranted:      "granted",
	StatusGrantedInUse: "granted_in_use",
	StatusDenied:       "denied",
	StatusUnknown:      "unknown",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// IsGranted reports whether the status counts as granted.
func (s Status) IsGranted() bool {
	return s == StatusGranted || s == StatusGrantedInUse
}

// ParseStatus parses a status name. An empty string is StatusUnknown.
func ParseStatus(s string) (Status, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return StatusUnknown, nil
	}
	for status, name := range statusNames {
		if name == s {
			return status, nil
		}
	}
	return StatusUnknown, fmt.Errorf("invalid permission status %q (must be granted, granted_in_use, denied or unknown)", s)
}

// UsesPermission is the edge between an app and one permission it
// requests, as reported by the inventory source.
type UsesPermission struct {
	ID     string
	Status Status
	Flags  *int // raw OS request flags, nil when not reported
}

// IsGranted reports whether the edge's status counts as granted.
func (u UsesPermission) IsGranted() bool {
	return u.Status.IsGranted()
}
