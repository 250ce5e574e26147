package tier

import (
	"encoding/json"
	"strconv"
)

// Kind identifies which variant a Limit holds.
type Kind int

const (
	// KindBounded is a numeric ceiling.
	KindBounded Kind = iota + 1
	// KindUnbounded means no ceiling.
	KindUnbounded
	// KindCapability is a boolean feature flag.
	KindCapability
)

func (k Kind) String() string {
	switch k {
	case KindBounded:
		return "bounded"
	case KindUnbounded:
		return "unbounded"
	case KindCapability:
		return "capability"
	default:
		return "invalid"
	}
}

// Limit is a tagged variant: Bounded(n), Unbounded() or Capability(b).
// The zero value is invalid and admits nothing.
type Limit struct {
	kind  Kind
	value int64
	flag  bool
}

// Bounded returns a numeric ceiling of n.
func Bounded(n int64) Limit {
	return Limit{kind: KindBounded, value: n}
}

// Unbounded returns a limit without a ceiling.
func Unbounded() Limit {
	return Limit{kind: KindUnbounded}
}

// Capability returns a boolean feature flag.
func Capability(enabled bool) Limit {
	return Limit{kind: KindCapability, flag: enabled}
}

// Kind returns the variant tag.
func (l Limit) Kind() Kind {
	return l.kind
}

// Value returns the ceiling of a bounded limit and false for any other variant.
func (l Limit) Value() (int64, bool) {
	if l.kind != KindBounded {
		return 0, false
	}
	return l.value, true
}

// Enabled returns the flag of a capability limit. Numeric limits report
// true: a numeric metric is available as long as its usage allows it.
func (l Limit) Enabled() bool {
	switch l.kind {
	case KindCapability:
		return l.flag
	case KindBounded, KindUnbounded:
		return true
	default:
		return false
	}
}

// Admits reports whether a user with the given usage may proceed.
//
//   - Capability: the flag, usage is ignored
//   - Unbounded: always true
//   - Bounded(n): usage < n
func (l Limit) Admits(usage int64) bool {
	switch l.kind {
	case KindCapability:
		return l.flag
	case KindUnbounded:
		return true
	case KindBounded:
		return usage < l.value
	default:
		return false
	}
}

// IsNumeric reports whether the limit counts usage.
func (l Limit) IsNumeric() bool {
	return l.kind == KindBounded || l.kind == KindUnbounded
}

func (l Limit) String() string {
	switch l.kind {
	case KindBounded:
		return strconv.FormatInt(l.value, 10)
	case KindUnbounded:
		return "unlimited"
	case KindCapability:
		return strconv.FormatBool(l.flag)
	default:
		return "invalid"
	}
}

// MarshalJSON encodes a bounded limit as a number, an unbounded limit as
// the string "unlimited" and a capability as a boolean.
func (l Limit) MarshalJSON() ([]byte, error) {
	switch l.kind {
	case KindBounded:
		return json.Marshal(l.value)
	case KindUnbounded:
		return json.Marshal("unlimited")
	case KindCapability:
		return json.Marshal(l.flag)
	default:
		return []byte("null"), nil
	}
}
