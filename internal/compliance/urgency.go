package compliance

import (
	"fmt"
	"strings"
)

// Urgency is the overall severity derived from upcoming deadlines.
// The zero value is UrgencyLow; values compare in severity order.
type Urgency int

const (
	UrgencyLow Urgency = iota
	UrgencyMedium
	UrgencyHigh
)

func (u Urgency) String() string {
	switch u {
	case UrgencyHigh:
		return "HIGH"
	case UrgencyMedium:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// Weight is the gauge fill fraction for u: 0, 0.5 or 1.
func (u Urgency) Weight() float64 {
	switch u {
	case UrgencyHigh:
		return 1
	case UrgencyMedium:
		return 0.5
	default:
		return 0
	}
}

// Color is the display colour used by the dashboard gauge.
func (u Urgency) Color() string {
	switch u {
	case UrgencyHigh:
		return "red"
	case UrgencyMedium:
		return "orange"
	default:
		return "green"
	}
}

// MarshalText encodes u as its label.
func (u Urgency) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText accepts LOW, MEDIUM or HIGH in any case.
func (u *Urgency) UnmarshalText(text []byte) error {
	parsed, err := ParseUrgency(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// ParseUrgency converts a label into an Urgency.
func ParseUrgency(raw string) (Urgency, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "LOW":
		return UrgencyLow, nil
	case "MEDIUM":
		return UrgencyMedium, nil
	case "HIGH":
		return UrgencyHigh, nil
	default:
		return UrgencyLow, fmt.Errorf("unknown urgency %q", raw)
	}
}
