package ratelimit

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Source endpoint categories.
const (
	CategoryGenerate             = "generate"
	CategoryGenerateWeek         = "generate-week"
	CategoryGenerateTags         = "generate-tags"
	CategoryTrending             = "trending"
	CategoryVariation            = "variation"
	CategoryImageRecommendations = "image-recommendations"
	CategoryParseURL             = "parse-url"
)

// DefaultPolicies returns the per-category policies used when configuration
// does not override them.
func DefaultPolicies() map[string]Policy {
	standard := Policy{Interval: DefaultInterval, Limit: DefaultLimit}
	return map[string]Policy{
		CategoryGenerate:             standard,
		CategoryGenerateWeek:         {Interval: DefaultInterval, Limit: 5},
		CategoryGenerateTags:         standard,
		CategoryTrending:             standard,
		CategoryVariation:            standard,
		CategoryImageRecommendations: standard,
		CategoryParseURL:             standard,
	}
}

// Registry holds one Limiter per endpoint category. Each category has its
// own bucket set, so a token exhausting one category is unaffected in another.
type Registry struct {
	mu       sync.RWMutex
	limiters map[string]*Limiter
	opts     []Option
}

// NewRegistry creates a limiter for every category in policies. opts are
// applied to each limiter, including those added later by Apply.
func NewRegistry(policies map[string]Policy, opts ...Option) (*Registry, error) {
	r := &Registry{
		limiters: make(map[string]*Limiter, len(policies)),
		opts:     opts,
	}
	if err := r.Apply(policies); err != nil {
		return nil, err
	}
	return r, nil
}

// Check runs the category's limiter for token.
func (r *Registry) Check(category, token string) (Result, error) {
	l, err := r.Limiter(category)
	if err != nil {
		return Result{}, err
	}
	return l.Check(token), nil
}

// Limiter returns the limiter for category.
func (r *Registry) Limiter(category string) (*Limiter, error) {
	r.mu.RLock()
	l, ok := r.limiters[category]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return l, nil
}

// Apply installs policies. Existing categories keep their buckets and take
// the new policy; new categories get a fresh limiter. Categories absent from
// policies are left in place. Nothing is changed if any policy is invalid.
func (r *Registry) Apply(policies map[string]Policy) error {
	for category, p := range policies {
		if category == "" {
			return fmt.Errorf("%w: empty category", ErrInvalidPolicy)
		}
		if err := p.WithDefaults().Validate(); err != nil {
			return fmt.Errorf("category %q: %w", category, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for category, p := range policies {
		if l, ok := r.limiters[category]; ok {
			if err := l.SetPolicy(p); err != nil {
				return fmt.Errorf("category %q: %w", category, err)
			}
			continue
		}

		opts := append([]Option{WithName(category)}, r.opts...)
		l, err := NewLimiter(p, opts...)
		if err != nil {
			return fmt.Errorf("category %q: %w", category, err)
		}
		r.limiters[category] = l
	}
	return nil
}

// Policies returns the policy of every category.
func (r *Registry) Policies() map[string]Policy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Policy, len(r.limiters))
	for category, l := range r.limiters {
		out[category] = l.Policy()
	}
	return out
}

// Categories returns the registered categories in sorted order.
func (r *Registry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.limiters))
	for category := range r.limiters {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}

// Sweep removes expired buckets from every limiter.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	removed := 0
	for _, l := range r.limiters {
		removed += l.Sweep(now)
	}
	return removed
}

// Len returns the number of buckets held across all categories.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, l := range r.limiters {
		n += l.Len()
	}
	return n
}
