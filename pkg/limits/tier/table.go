package tier

import "fmt"

// Limits maps every metric to the tier's limit for it.
type Limits map[Metric]Limit

// Get returns the limit for a metric.
func (l Limits) Get(m Metric) (Limit, error) {
	limit, ok := l[m]
	if !ok {
		return Limit{}, fmt.Errorf("%w: %q", ErrUnknownMetric, m)
	}
	return limit, nil
}

// table is the closed tier limits table. It is never mutated; GetTierLimits
// hands out copies.
var table = map[Tier]Limits{
	Free: {
		AIGenerations:    Bounded(5),
		Platforms:        Bounded(1),
		ScheduledPosts:   Bounded(10),
		ContentLibrary:   Bounded(50),
		CanExport:        Capability(false),
		CanvaIntegration: Capability(false),
		TeamMembers:      Bounded(1),
		APIAccess:        Capability(false),
		WhiteLabel:       Capability(false),
	},
	Starter: {
		AIGenerations:    Bounded(50),
		Platforms:        Bounded(3),
		ScheduledPosts:   Bounded(100),
		ContentLibrary:   Bounded(500),
		CanExport:        Capability(true),
		CanvaIntegration: Capability(false),
		TeamMembers:      Bounded(1),
		APIAccess:        Capability(false),
		WhiteLabel:       Capability(false),
	},
	Pro: {
		AIGenerations:    Bounded(200),
		Platforms:        Unbounded(),
		ScheduledPosts:   Bounded(500),
		ContentLibrary:   Bounded(2000),
		CanExport:        Capability(true),
		CanvaIntegration: Capability(true),
		TeamMembers:      Bounded(3),
		APIAccess:        Capability(false),
		WhiteLabel:       Capability(false),
	},
	Agency: {
		AIGenerations:    Unbounded(),
		Platforms:        Unbounded(),
		ScheduledPosts:   Unbounded(),
		ContentLibrary:   Unbounded(),
		CanExport:        Capability(true),
		CanvaIntegration: Capability(true),
		TeamMembers:      Bounded(10),
		APIAccess:        Capability(true),
		WhiteLabel:       Capability(true),
	},
}

// GetTierLimits returns the limits for a tier. An unknown tier returns
// ErrUnknownTier; there is no fallback tier.
func GetTierLimits(t Tier) (Limits, error) {
	limits, ok := table[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTier, t)
	}

	out := make(Limits, len(limits))
	for m, l := range limits {
		out[m] = l
	}
	return out, nil
}

// MustTierLimits is like GetTierLimits but panics on an unknown tier.
// Use it only with statically known tiers.
func MustTierLimits(t Tier) Limits {
	limits, err := GetTierLimits(t)
	if err != nil {
		panic(err)
	}
	return limits
}

// LimitFor returns a single entry of the table.
func LimitFor(t Tier, m Metric) (Limit, error) {
	limits, ok := table[t]
	if !ok {
		return Limit{}, fmt.Errorf("%w: %q", ErrUnknownTier, t)
	}
	return limits.Get(m)
}
