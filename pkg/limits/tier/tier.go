package tier

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownTier is returned when a tier name is not one of the four known tiers.
	ErrUnknownTier = errors.New("unknown tier")

	// ErrUnknownMetric is returned when a metric is not defined in the limits table.
	ErrUnknownMetric = errors.New("unknown metric")
)

// Tier is a named subscription level.
type Tier string

const (
	Free    Tier = "free"
	Starter Tier = "starter"
	Pro     Tier = "pro"
	Agency  Tier = "agency"
)

// All returns the tiers in ascending order.
func All() []Tier {
	return []Tier{Free, Starter, Pro, Agency}
}

// ParseTier parses a tier name. Matching is case-insensitive so that the
// uppercase identifiers used by billing ("FREE", "PRO") are accepted.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTier, s)
	}
	return t, nil
}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	switch t {
	case Free, Starter, Pro, Agency:
		return true
	}
	return false
}

func (t Tier) String() string {
	return string(t)
}

// Metric is a named countable feature-usage dimension or capability.
type Metric string

const (
	AIGenerations    Metric = "aiGenerations"
	Platforms        Metric = "platforms"
	ScheduledPosts   Metric = "scheduledPosts"
	ContentLibrary   Metric = "contentLibrary"
	CanExport        Metric = "canExport"
	CanvaIntegration Metric = "canvaIntegration"
	TeamMembers      Metric = "teamMembers"
	APIAccess        Metric = "apiAccess"
	WhiteLabel       Metric = "whiteLabel"
)

// Metrics returns every metric in table order.
func Metrics() []Metric {
	return []Metric{
		AIGenerations,
		Platforms,
		ScheduledPosts,
		ContentLibrary,
		CanExport,
		CanvaIntegration,
		TeamMembers,
		APIAccess,
		WhiteLabel,
	}
}

// ParseMetric parses a metric name. Metric names are case-sensitive.
func ParseMetric(s string) (Metric, error) {
	m := Metric(s)
	for _, known := range Metrics() {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
}

func (m Metric) String() string {
	return string(m)
}
